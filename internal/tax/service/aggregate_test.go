package service

import (
	"testing"

	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"github.com/stretchr/testify/assert"
)

func resolve(qty, price, discount, rate string, interstate bool) taxdomain.Line {
	d := dec(discount)
	r := dec(rate)
	return ResolveLine(taxdomain.LineInput{
		Quantity:        dec(qty),
		UnitPrice:       dec(price),
		DiscountPercent: &d,
		TaxRate:         &r,
	}.Normalize(), interstate, false)
}

func TestAggregate_TwoLineInvoice(t *testing.T) {
	lines := []taxdomain.Line{
		resolve("10", "100", "0", "18", false),
		resolve("5", "200", "10", "12", false),
	}

	totals := Aggregate(lines)

	assertDecimal(t, "2000", totals.Subtotal, "subtotal")
	assertDecimal(t, "100", totals.DiscountAmount, "discount")
	assertDecimal(t, "1900", totals.TaxableAmount, "taxable")
	assertDecimal(t, "144", totals.CGSTAmount, "cgst")
	assertDecimal(t, "144", totals.SGSTAmount, "sgst")
	assertDecimal(t, "0", totals.IGSTAmount, "igst")
	assertDecimal(t, "2188", totals.TotalAmount, "total")
}

func TestAggregate_TotalEqualsComponents(t *testing.T) {
	lines := []taxdomain.Line{
		resolve("3", "33.33", "2.5", "18", true),
		resolve("1.5", "19.99", "0", "5", true),
		resolve("7", "0.07", "50", "28", true),
	}

	totals := Aggregate(lines)

	sum := totals.TaxableAmount.
		Add(totals.CGSTAmount).
		Add(totals.SGSTAmount).
		Add(totals.IGSTAmount).
		Add(totals.CessAmount)
	assert.True(t, sum.Equal(totals.TotalAmount))
}

func TestAggregate_SubtotalRoundedOnce(t *testing.T) {
	// 0.005 per line would round up individually; summed it stays exact.
	lines := []taxdomain.Line{
		{BaseAmount: dec("0.005"), DiscountAmount: decimal.Zero},
		{BaseAmount: dec("0.005"), DiscountAmount: decimal.Zero},
		{BaseAmount: dec("0.005"), DiscountAmount: decimal.Zero},
	}

	totals := Aggregate(lines)

	assertDecimal(t, "0.02", totals.Subtotal, "subtotal")
}

func TestAggregate_Empty(t *testing.T) {
	totals := Aggregate(nil)

	assertDecimal(t, "0", totals.Subtotal, "subtotal")
	assertDecimal(t, "0", totals.TotalAmount, "total")
}
