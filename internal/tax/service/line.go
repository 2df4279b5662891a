package service

import (
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
)

// ResolveLine applies the line discount and computes tax on what remains.
//
// BaseAmount (quantity x unit price) and DiscountAmount are returned
// unrounded next to the tax result so totals can sum them separately from
// the taxable amount.
func ResolveLine(in taxdomain.ResolvedInput, isInterstate, isTaxInclusive bool) taxdomain.Line {
	base := in.Quantity.Mul(in.UnitPrice)
	discount := base.Mul(in.DiscountPercent).Div(taxdomain.Hundred)
	afterDiscount := base.Sub(discount)

	return taxdomain.Line{
		BaseAmount:     base,
		DiscountAmount: discount,
		Result:         CalculateTax(afterDiscount, in.TaxRate, isInterstate, isTaxInclusive, in.CessRate),
	}
}

// ResolveLines resolves every input in order.
func ResolveLines(inputs []taxdomain.ResolvedInput, isInterstate, isTaxInclusive bool) []taxdomain.Line {
	lines := make([]taxdomain.Line, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, ResolveLine(in, isInterstate, isTaxInclusive))
	}
	return lines
}
