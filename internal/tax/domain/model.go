// Package domain contains the value types of the GST calculation engine.
package domain

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places every monetary output is rounded to.
const MoneyPlaces int32 = 2

var (
	Hundred = decimal.NewFromInt(100)
	Two     = decimal.NewFromInt(2)
)

// Regime identifies which GST components apply to a supply.
type Regime string

const (
	RegimeIntrastate Regime = "intrastate" // CGST + SGST
	RegimeInterstate Regime = "interstate" // IGST
)

// RegimeFor maps the invoice interstate flag to a regime.
func RegimeFor(isInterstate bool) Regime {
	if isInterstate {
		return RegimeInterstate
	}
	return RegimeIntrastate
}

// Result is the per-line tax breakdown.
// Monetary fields are rounded to MoneyPlaces; rate fields are percentages.
// On intrastate lines CGSTAmount is half the unrounded tax, rounded, and
// SGSTAmount is the rounded tax minus CGSTAmount. The two can differ by 0.01
// (100.03 at 18% gives CGST 9.00 and SGST 9.01) but always sum to the IGST
// an interstate line would carry.
type Result struct {
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	CGSTRate      decimal.Decimal `json:"cgst_rate"`
	SGSTRate      decimal.Decimal `json:"sgst_rate"`
	IGSTRate      decimal.Decimal `json:"igst_rate"`
	CGSTAmount    decimal.Decimal `json:"cgst_amount"`
	SGSTAmount    decimal.Decimal `json:"sgst_amount"`
	IGSTAmount    decimal.Decimal `json:"igst_amount"`
	CessAmount    decimal.Decimal `json:"cess_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// LineInput holds the numeric part of an invoice line before calculation.
// Nil rates mean "not provided"; Normalize resolves them to zero.
type LineInput struct {
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	TaxRate         *decimal.Decimal `json:"tax_rate,omitempty"`
	CessRate        *decimal.Decimal `json:"cess_rate,omitempty"`
}

// ResolvedInput is a LineInput with every optional field resolved.
type ResolvedInput struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxRate         decimal.Decimal
	CessRate        decimal.Decimal
}

// Normalize resolves defaults once so calculation code never sees missing values.
func (in LineInput) Normalize() ResolvedInput {
	return ResolvedInput{
		Quantity:        in.Quantity,
		UnitPrice:       in.UnitPrice,
		DiscountPercent: valueOrZero(in.DiscountPercent),
		TaxRate:         valueOrZero(in.TaxRate),
		CessRate:        valueOrZero(in.CessRate),
	}
}

// Validate rejects inputs the engine must never see: negative quantity or
// price, and rates outside 0..100.
func (in ResolvedInput) Validate() error {
	if in.Quantity.IsNegative() {
		return ErrInvalidQuantity
	}
	if in.UnitPrice.IsNegative() {
		return ErrInvalidUnitPrice
	}
	if !inPercentRange(in.DiscountPercent) {
		return ErrInvalidDiscount
	}
	if !inPercentRange(in.TaxRate) {
		return ErrInvalidTaxRate
	}
	if !inPercentRange(in.CessRate) {
		return ErrInvalidCessRate
	}
	return nil
}

// Line is the resolver output. BaseAmount and DiscountAmount are kept
// unrounded so the aggregator can sum them before rounding once.
type Line struct {
	BaseAmount     decimal.Decimal `json:"base_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Result
}

// Totals are the invoice level sums.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	CGSTAmount     decimal.Decimal `json:"cgst_amount"`
	SGSTAmount     decimal.Decimal `json:"sgst_amount"`
	IGSTAmount     decimal.Decimal `json:"igst_amount"`
	CessAmount     decimal.Decimal `json:"cess_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

func valueOrZero(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return *v
}

func inPercentRange(v decimal.Decimal) bool {
	return !v.IsNegative() && v.LessThanOrEqual(Hundred)
}
