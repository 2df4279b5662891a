package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"gorm.io/gorm"
)

// Repository is the invoice header store. Methods take the *gorm.DB to run
// on so callers can share one transaction across stores.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (*Invoice, error)
	ExistsByNumber(ctx context.Context, db *gorm.DB, businessID snowflake.ID, invoiceType InvoiceType, number string) (bool, error)
	FindLatest(ctx context.Context, db *gorm.DB, businessID snowflake.ID, invoiceType InvoiceType) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, businessID snowflake.ID, filter ListInvoiceFilter, page pagination.Pagination) ([]*Invoice, error)
	Update(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID, patch map[string]any) error
	SoftDelete(ctx context.Context, db *gorm.DB, businessID, id snowflake.ID) (bool, error)
}

// ItemRepository stores invoice lines.
type ItemRepository interface {
	InsertBatch(ctx context.Context, db *gorm.DB, items []*InvoiceItem) error
	ListByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]*InvoiceItem, error)
	DeleteByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error
}

// SequenceRepository owns the per (business, type) numbering counters.
type SequenceRepository interface {
	// Increment bumps the counter and returns the new value. ok is false
	// when the counter row does not exist yet.
	Increment(ctx context.Context, db *gorm.DB, businessID snowflake.ID, invoiceType InvoiceType, now time.Time) (value int64, ok bool, err error)
	// Current returns the last issued value without claiming a new one.
	Current(ctx context.Context, db *gorm.DB, businessID snowflake.ID, invoiceType InvoiceType) (value int64, ok bool, err error)
	// Seed creates the counter row at lastValue unless another writer
	// created it first.
	Seed(ctx context.Context, db *gorm.DB, businessID snowflake.ID, invoiceType InvoiceType, lastValue int64, now time.Time) error
}

// ListInvoiceFilter narrows a listing. Nil fields are ignored.
type ListInvoiceFilter struct {
	InvoiceType   *InvoiceType
	Status        *InvoiceStatus
	PaymentStatus *PaymentStatus
	PartyID       *snowflake.ID
	DateFrom      *time.Time
	DateTo        *time.Time
}
