package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/tradeflow/backend/internal/infrastructure/edi"
	"go.uber.org/zap"
)

// Transaction set codes this processor knows how to reconcile.
const (
	setCodeOrder    = "850"
	setCodeShipment = "856"
)

// Preprocessor normalizes raw document bytes before parsing. Feeds
// commonly arrive in legacy single-byte encodings.
type Preprocessor interface {
	Normalize(raw []byte) ([]byte, error)
}

// Processor splits an interchange into transactions and routes each to
// the reconciler for its set code. Transactions are independent: one
// failing does not stop the rest.
type Processor struct {
	orders       *OrderReconciler
	shipments    *ShipmentReconciler
	preprocessor Preprocessor
	logger       *zap.Logger
}

// NewProcessor creates a new Processor. The preprocessor is optional.
func NewProcessor(orders *OrderReconciler, shipments *ShipmentReconciler, preprocessor Preprocessor, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		orders:       orders,
		shipments:    shipments,
		preprocessor: preprocessor,
		logger:       logger,
	}
}

// ProcessDocument reconciles every transaction in one raw document.
// Errors from individual transactions are joined so the caller sees
// all failures from one pass, not just the first.
func (p *Processor) ProcessDocument(ctx context.Context, doc DocumentContext, raw []byte) error {
	if p.preprocessor != nil {
		normalized, err := p.preprocessor.Normalize(raw)
		if err != nil {
			return fmt.Errorf("normalize document %s: %w", doc.SourcePath, err)
		}
		raw = normalized
	}

	transactions, err := edi.SplitTransactions(raw)
	if err != nil {
		return err
	}

	var errs []error
	for _, txn := range transactions {
		if err := p.processTransaction(ctx, doc, txn); err != nil {
			errs = append(errs, fmt.Errorf("transaction %s (set %s): %w", txn.ControlNumber, txn.SetCode, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Processor) processTransaction(ctx context.Context, doc DocumentContext, txn edi.Transaction) error {
	switch txn.SetCode {
	case setCodeOrder:
		return p.orders.Reconcile(ctx, doc, txn)
	case setCodeShipment:
		return p.shipments.Reconcile(ctx, doc, txn)
	default:
		p.logger.Warn("skipping unsupported transaction set",
			zap.String("set_code", txn.SetCode),
			zap.String("control_number", txn.ControlNumber),
			zap.String("source", doc.SourcePath),
		)
		return nil
	}
}
