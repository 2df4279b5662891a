package service

import (
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
)

// Aggregate sums resolved lines into invoice totals.
//
// Subtotal and discount are summed unrounded and rounded once. Tax
// components are sums of the already rounded per-line values, and the total
// is rebuilt from those components rather than from per-line totals.
func Aggregate(lines []taxdomain.Line) taxdomain.Totals {
	subtotal := decimal.Zero
	discount := decimal.Zero
	totals := taxdomain.Totals{
		TaxableAmount: decimal.Zero,
		CGSTAmount:    decimal.Zero,
		SGSTAmount:    decimal.Zero,
		IGSTAmount:    decimal.Zero,
		CessAmount:    decimal.Zero,
	}

	for _, line := range lines {
		subtotal = subtotal.Add(line.BaseAmount)
		discount = discount.Add(line.DiscountAmount)
		totals.TaxableAmount = totals.TaxableAmount.Add(line.TaxableAmount)
		totals.CGSTAmount = totals.CGSTAmount.Add(line.CGSTAmount)
		totals.SGSTAmount = totals.SGSTAmount.Add(line.SGSTAmount)
		totals.IGSTAmount = totals.IGSTAmount.Add(line.IGSTAmount)
		totals.CessAmount = totals.CessAmount.Add(line.CessAmount)
	}

	totals.Subtotal = round(subtotal)
	totals.DiscountAmount = round(discount)
	totals.TotalAmount = totals.TaxableAmount.
		Add(totals.CGSTAmount).
		Add(totals.SGSTAmount).
		Add(totals.IGSTAmount).
		Add(totals.CessAmount)

	return totals
}
