package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBusiness      = errors.New("invalid_business")
	ErrInvalidUser          = errors.New("invalid_user")
	ErrInvalidInvoiceID     = errors.New("invalid_invoice_id")
	ErrInvalidInvoiceType   = errors.New("invalid_invoice_type")
	ErrInvalidParty         = errors.New("invalid_party")
	ErrInvalidInvoiceDate   = errors.New("invalid_invoice_date")
	ErrInvalidDueDate       = errors.New("invalid_due_date")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidPaymentStatus = errors.New("invalid_payment_status")
	ErrInvalidItemName      = errors.New("invalid_item_name")
	ErrEmptyItems           = errors.New("invalid_items")

	ErrInvoiceNotFound       = errors.New("invoice_not_found")
	ErrInvoiceNumberConflict = errors.New("invoice_number_conflict")
	ErrIdempotencyInFlight   = errors.New("idempotency_key_in_flight")

	// ErrInvoiceMissingAfterInsert is an invariant violation: the invoice
	// written in this transaction could not be read back.
	ErrInvoiceMissingAfterInsert = errors.New("invoice_missing_after_insert")
)

// LineError reports which input line failed validation.
type LineError struct {
	Index int
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("items[%d]: %s", e.Index, e.Err.Error())
}

func (e *LineError) Unwrap() error {
	return e.Err
}
