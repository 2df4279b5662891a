// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InvoiceType identifies the kind of document. Numbers are unique per
// business and type.
type InvoiceType string

const (
	InvoiceTypeSale      InvoiceType = "sale"
	InvoiceTypePurchase  InvoiceType = "purchase"
	InvoiceTypeQuotation InvoiceType = "quotation"
	InvoiceTypeProforma  InvoiceType = "proforma"
)

func (t InvoiceType) Valid() bool {
	switch t {
	case InvoiceTypeSale, InvoiceTypePurchase, InvoiceTypeQuotation, InvoiceTypeProforma:
		return true
	default:
		return false
	}
}

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusFinal     InvoiceStatus = "final"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusFinal, InvoiceStatusCancelled:
		return true
	default:
		return false
	}
}

// PaymentStatus is maintained by the payments collaborator; the core only
// initialises it.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid:
		return true
	default:
		return false
	}
}

// Invoice represents a GST invoice owned by a business.
type Invoice struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	BusinessID     snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_invoices_business_type_number,priority:1" json:"business_id"`
	PartyID        snowflake.ID  `gorm:"not null;index" json:"party_id"`
	InvoiceType    InvoiceType   `gorm:"type:text;not null;uniqueIndex:ux_invoices_business_type_number,priority:2" json:"invoice_type"`
	InvoiceNumber  string        `gorm:"type:text;not null;uniqueIndex:ux_invoices_business_type_number,priority:3" json:"invoice_number"`
	InvoiceDate    time.Time     `gorm:"not null" json:"invoice_date"`
	DueDate        time.Time     `gorm:"not null" json:"due_date"`
	PlaceOfSupply  string        `gorm:"type:text" json:"place_of_supply,omitempty"`
	IsInterstate   bool          `gorm:"not null;default:false" json:"is_interstate"`
	IsExport       bool          `gorm:"not null;default:false" json:"is_export"`
	IsRCM          bool          `gorm:"column:is_rcm;not null;default:false" json:"is_rcm"`
	IsTaxInclusive bool          `gorm:"not null;default:false" json:"is_tax_inclusive"`
	Status         InvoiceStatus `gorm:"type:text;not null;default:'draft'" json:"status"`
	PaymentStatus  PaymentStatus `gorm:"type:text;not null;default:'unpaid'" json:"payment_status"`

	Subtotal       decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"discount_amount"`
	TaxableAmount  decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"taxable_amount"`
	CGSTAmount     decimal.Decimal `gorm:"column:cgst_amount;type:numeric(18,2);not null;default:0" json:"cgst_amount"`
	SGSTAmount     decimal.Decimal `gorm:"column:sgst_amount;type:numeric(18,2);not null;default:0" json:"sgst_amount"`
	IGSTAmount     decimal.Decimal `gorm:"column:igst_amount;type:numeric(18,2);not null;default:0" json:"igst_amount"`
	CessAmount     decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"cess_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_amount"`

	Notes     string            `gorm:"type:text" json:"notes,omitempty"`
	Terms     string            `gorm:"type:text" json:"terms,omitempty"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedBy snowflake.ID      `gorm:"not null" json:"created_by"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt    `gorm:"index" json:"-"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// ApplyTotals copies aggregated totals onto the header.
func (i *Invoice) ApplyTotals(t taxdomain.Totals) {
	i.Subtotal = t.Subtotal
	i.DiscountAmount = t.DiscountAmount
	i.TaxableAmount = t.TaxableAmount
	i.CGSTAmount = t.CGSTAmount
	i.SGSTAmount = t.SGSTAmount
	i.IGSTAmount = t.IGSTAmount
	i.CessAmount = t.CessAmount
	i.TotalAmount = t.TotalAmount
}

// InvoiceItem is a line on an invoice: the input snapshot plus its
// calculated breakdown.
type InvoiceItem struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	BusinessID snowflake.ID  `gorm:"not null;index" json:"business_id"`
	InvoiceID  snowflake.ID  `gorm:"not null;index" json:"invoice_id"`
	ItemID     *snowflake.ID `gorm:"index" json:"item_id,omitempty"`
	ItemName   string        `gorm:"type:text;not null" json:"item_name"`
	HSNCode    string        `gorm:"column:hsn_code;type:text" json:"hsn_code,omitempty"`
	Unit       string        `gorm:"type:text" json:"unit,omitempty"`
	SortOrder  int           `gorm:"not null;default:0" json:"sort_order"`

	Quantity        decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"unit_price"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0" json:"discount_percent"`
	TaxRate         decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0" json:"tax_rate"`
	CessRate        decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0" json:"cess_rate"`

	BaseAmount     decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"base_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"discount_amount"`
	TaxableAmount  decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"taxable_amount"`
	CGSTRate       decimal.Decimal `gorm:"column:cgst_rate;type:numeric(7,4);not null;default:0" json:"cgst_rate"`
	SGSTRate       decimal.Decimal `gorm:"column:sgst_rate;type:numeric(7,4);not null;default:0" json:"sgst_rate"`
	IGSTRate       decimal.Decimal `gorm:"column:igst_rate;type:numeric(7,4);not null;default:0" json:"igst_rate"`
	CGSTAmount     decimal.Decimal `gorm:"column:cgst_amount;type:numeric(18,2);not null;default:0" json:"cgst_amount"`
	SGSTAmount     decimal.Decimal `gorm:"column:sgst_amount;type:numeric(18,2);not null;default:0" json:"sgst_amount"`
	IGSTAmount     decimal.Decimal `gorm:"column:igst_amount;type:numeric(18,2);not null;default:0" json:"igst_amount"`
	CessAmount     decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"cess_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_amount"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// LineInput rebuilds the calculation input from the stored snapshot.
func (it InvoiceItem) LineInput() taxdomain.ResolvedInput {
	return taxdomain.ResolvedInput{
		Quantity:        it.Quantity,
		UnitPrice:       it.UnitPrice,
		DiscountPercent: it.DiscountPercent,
		TaxRate:         it.TaxRate,
		CessRate:        it.CessRate,
	}
}

// ApplyLine copies a resolved line onto the item. Base and discount are
// stored rounded; the invoice subtotal is computed from the unrounded values.
func (it *InvoiceItem) ApplyLine(line taxdomain.Line) {
	it.BaseAmount = line.BaseAmount.Round(taxdomain.MoneyPlaces)
	it.DiscountAmount = line.DiscountAmount.Round(taxdomain.MoneyPlaces)
	it.TaxableAmount = line.TaxableAmount
	it.CGSTRate = line.CGSTRate
	it.SGSTRate = line.SGSTRate
	it.IGSTRate = line.IGSTRate
	it.CGSTAmount = line.CGSTAmount
	it.SGSTAmount = line.SGSTAmount
	it.IGSTAmount = line.IGSTAmount
	it.CessAmount = line.CessAmount
	it.TotalAmount = line.TotalAmount
}

// InvoiceSequence is the numbering counter for one (business, invoice type)
// pair. LastValue is the sequence of the most recently issued number.
type InvoiceSequence struct {
	BusinessID  snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	InvoiceType InvoiceType  `gorm:"primaryKey;type:text"`
	LastValue   int64        `gorm:"not null;default:0"`
	CreatedAt   time.Time    `gorm:"not null"`
	UpdatedAt   time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (InvoiceSequence) TableName() string { return "invoice_sequences" }
