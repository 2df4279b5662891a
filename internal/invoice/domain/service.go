package domain

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
)

// ItemRequest is one invoice line as submitted by a caller.
type ItemRequest struct {
	ItemID   *snowflake.ID `json:"item_id,omitempty"`
	ItemName string        `json:"item_name"`
	HSNCode  string        `json:"hsn_code,omitempty"`
	Unit     string        `json:"unit,omitempty"`
	taxdomain.LineInput
}

// Resolve trims pass-through strings, resolves numeric defaults and
// validates the line.
func (r ItemRequest) Resolve() (ItemRequest, taxdomain.ResolvedInput, error) {
	r.ItemName = strings.TrimSpace(r.ItemName)
	r.HSNCode = strings.TrimSpace(r.HSNCode)
	r.Unit = strings.TrimSpace(r.Unit)
	if r.ItemName == "" {
		return r, taxdomain.ResolvedInput{}, ErrInvalidItemName
	}
	in := r.LineInput.Normalize()
	if err := in.Validate(); err != nil {
		return r, taxdomain.ResolvedInput{}, err
	}
	return r, in, nil
}

type CreateInvoiceRequest struct {
	PartyID        snowflake.ID   `json:"party_id"`
	InvoiceType    InvoiceType    `json:"invoice_type"`
	InvoiceDate    *time.Time     `json:"invoice_date,omitempty"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	PlaceOfSupply  string         `json:"place_of_supply,omitempty"`
	IsInterstate   bool           `json:"is_interstate"`
	IsExport       bool           `json:"is_export"`
	IsRCM          bool           `json:"is_rcm"`
	IsTaxInclusive bool           `json:"is_tax_inclusive"`
	Status         *InvoiceStatus `json:"status,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	Terms          string         `json:"terms,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Items          []ItemRequest  `json:"items"`
}

// UpdateInvoiceRequest patches an invoice. Nil fields are left unchanged;
// a non-nil Items replaces every line.
type UpdateInvoiceRequest struct {
	PartyID        *snowflake.ID  `json:"party_id,omitempty"`
	InvoiceDate    *time.Time     `json:"invoice_date,omitempty"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	PlaceOfSupply  *string        `json:"place_of_supply,omitempty"`
	IsInterstate   *bool          `json:"is_interstate,omitempty"`
	IsExport       *bool          `json:"is_export,omitempty"`
	IsRCM          *bool          `json:"is_rcm,omitempty"`
	IsTaxInclusive *bool          `json:"is_tax_inclusive,omitempty"`
	Status         *InvoiceStatus `json:"status,omitempty"`
	PaymentStatus  *PaymentStatus `json:"payment_status,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
	Terms          *string        `json:"terms,omitempty"`
	Items          []ItemRequest  `json:"items,omitempty"`
}

// ListInvoiceRequest lists invoices newest first.
type ListInvoiceRequest struct {
	ListInvoiceFilter
	pagination.Pagination
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []*Invoice `json:"invoices"`
}

type QuoteRequest struct {
	IsInterstate   bool          `json:"is_interstate"`
	IsTaxInclusive bool          `json:"is_tax_inclusive"`
	Items          []ItemRequest `json:"items"`
}

type QuoteLine struct {
	ItemName string `json:"item_name"`
	HSNCode  string `json:"hsn_code,omitempty"`
	taxdomain.Line
}

type QuoteResponse struct {
	Items  []QuoteLine      `json:"items"`
	Totals taxdomain.Totals `json:"totals"`
}

type Service interface {
	CreateInvoice(ctx context.Context, businessID, userID snowflake.ID, req CreateInvoiceRequest) (*Invoice, error)
	UpdateInvoice(ctx context.Context, businessID, id snowflake.ID, req UpdateInvoiceRequest) (*Invoice, error)
	GetByID(ctx context.Context, businessID, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, businessID snowflake.ID, req ListInvoiceRequest) (ListInvoiceResponse, error)
	Delete(ctx context.Context, businessID, id snowflake.ID) error
	Quote(ctx context.Context, req QuoteRequest) (QuoteResponse, error)
	PreviewNumber(ctx context.Context, businessID snowflake.ID, invoiceType InvoiceType) (string, error)
}
