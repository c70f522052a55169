// Package edi implements the segment-level model of the X12-style wire
// format: splitting raw documents into transactions, positional and
// qualifier-based element access, and hierarchical loop extraction.
//
// This layer never raises for missing data; absence is an empty string
// or nil. Structural errors are reserved for documents that cannot be
// interpreted at all.
package edi

import "errors"

// Structural error codes
const (
	ErrCodeMalformedHierarchy = "ERR_EDI_MALFORMED_HIERARCHY"
	ErrCodeMissingSegment     = "ERR_EDI_MISSING_SEGMENT"
	ErrCodeMissingIdentifier  = "ERR_EDI_MISSING_IDENTIFIER"
	ErrCodeMissingBreakdown   = "ERR_EDI_MISSING_BREAKDOWN"
	ErrCodeUnterminated       = "ERR_EDI_UNTERMINATED_TRANSACTION"
	ErrCodeEmptyDocument      = "ERR_EDI_EMPTY_DOCUMENT"
)

// StructuralError means the document cannot be interpreted at all:
// malformed hierarchy, a missing mandatory segment, or an internally
// inconsistent line group. It aborts the current transaction
// immediately; no partial persistence occurs.
type StructuralError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *StructuralError) Error() string {
	return e.Message
}

// NewStructuralError creates a new structural error
func NewStructuralError(code, message string) *StructuralError {
	return &StructuralError{
		Code:    code,
		Message: message,
	}
}

// IsStructural reports whether err is (or wraps) a StructuralError
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
