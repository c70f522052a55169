package edi

import (
	"fmt"
	"strings"
)

// Transaction set boundary tags and the envelope tags this engine
// skips. Envelope parsing (ISA/GS) and acknowledgment generation are
// not this engine's concern.
const (
	transactionStartTag = "ST"
	transactionEndTag   = "SE"
)

var envelopeTags = map[string]struct{}{
	"ISA": {}, "IEA": {}, "GS": {}, "GE": {},
}

// ST element positions
const (
	stPosSetCode       = 1
	stPosControlNumber = 2
)

// Transaction is one logical document: the ordered segments between a
// transaction start marker and its end marker. It carries no persistent
// identity and exists only for a single parse-and-reconcile pass.
type Transaction struct {
	SetCode       string
	ControlNumber string
	Segments      []Segment
}

// SplitTransactions splits a raw document into its transactions.
// Segments are terminated by '~' or newlines; envelope segments and
// anything outside an ST/SE pair are skipped. An ST without a matching
// SE is a structural error.
func SplitTransactions(data []byte) ([]Transaction, error) {
	raw := string(data)
	pieces := strings.FieldsFunc(raw, func(r rune) bool {
		return r == SegmentTerminator || r == '\n' || r == '\r'
	})

	var transactions []Transaction
	var current *Transaction
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		seg := ParseSegment(piece)
		if _, isEnvelope := envelopeTags[seg.Tag]; isEnvelope {
			continue
		}

		switch seg.Tag {
		case transactionStartTag:
			if current != nil {
				return nil, NewStructuralError(ErrCodeUnterminated,
					fmt.Sprintf("transaction %s has no end marker", current.ControlNumber))
			}
			current = &Transaction{
				SetCode:       seg.Value(stPosSetCode),
				ControlNumber: seg.Value(stPosControlNumber),
			}
		case transactionEndTag:
			if current == nil {
				return nil, NewStructuralError(ErrCodeUnterminated, "end marker without transaction start")
			}
			transactions = append(transactions, *current)
			current = nil
		default:
			if current != nil {
				current.Segments = append(current.Segments, seg)
			}
		}
	}

	if current != nil {
		return nil, NewStructuralError(ErrCodeUnterminated,
			fmt.Sprintf("transaction %s has no end marker", current.ControlNumber))
	}
	if len(transactions) == 0 {
		return nil, NewStructuralError(ErrCodeEmptyDocument, "document contains no transactions")
	}
	return transactions, nil
}
