// Package service implements the GST calculation engine. Every function in
// this package is pure: no I/O, no shared state, safe for concurrent use.
package service

import (
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
)

// CalculateTax converts one amount into a GST breakdown.
//
// When isTaxInclusive is false the amount is the taxable value. When it is
// true the amount already contains tax at taxRate and the taxable value is
// backed out of it. Rates are percentages. Callers must validate inputs;
// there are no error paths here.
func CalculateTax(amount, taxRate decimal.Decimal, isInterstate, isTaxInclusive bool, cessRate decimal.Decimal) taxdomain.Result {
	taxable := amount
	tax := ComputeTaxExclusive(amount, taxRate)
	if isTaxInclusive {
		tax = ComputeTaxInclusive(amount, taxRate)
		taxable = amount.Sub(tax)
	}

	cess := decimal.Zero
	if cessRate.IsPositive() {
		cess = taxable.Mul(cessRate).Div(taxdomain.Hundred)
	}

	result := taxdomain.Result{
		TaxableAmount: round(taxable),
		CGSTRate:      decimal.Zero,
		SGSTRate:      decimal.Zero,
		IGSTRate:      decimal.Zero,
		CGSTAmount:    decimal.Zero,
		SGSTAmount:    decimal.Zero,
		IGSTAmount:    decimal.Zero,
		CessAmount:    round(cess),
		TotalAmount:   round(taxable.Add(tax).Add(cess)),
	}

	taxRounded := round(tax)
	switch taxdomain.RegimeFor(isInterstate) {
	case taxdomain.RegimeInterstate:
		result.IGSTRate = taxRate
		result.IGSTAmount = taxRounded
	default:
		half := taxRate.Div(taxdomain.Two)
		result.CGSTRate = half
		result.SGSTRate = half
		// SGST takes the remainder so CGST+SGST always equals the IGST
		// charge for the same amount; the halves differ by at most 0.01.
		result.CGSTAmount = round(tax.Div(taxdomain.Two))
		result.SGSTAmount = taxRounded.Sub(result.CGSTAmount)
	}

	return result
}

// ComputeTaxExclusive calculates tax added on top of a taxable amount.
// The result is unrounded.
func ComputeTaxExclusive(taxable, rate decimal.Decimal) decimal.Decimal {
	if !taxable.IsPositive() || !rate.IsPositive() {
		return decimal.Zero
	}
	return taxable.Mul(rate).Div(taxdomain.Hundred)
}

// ComputeTaxInclusive calculates the tax portion already included in gross.
// The result is unrounded.
func ComputeTaxInclusive(gross, rate decimal.Decimal) decimal.Decimal {
	if !gross.IsPositive() || !rate.IsPositive() {
		return decimal.Zero
	}
	// gross * 100 / (100 + rate) keeps exact results for the usual slabs.
	taxable := gross.Mul(taxdomain.Hundred).Div(taxdomain.Hundred.Add(rate))
	return gross.Sub(taxable)
}

// round applies round-half-away-from-zero to two places.
func round(v decimal.Decimal) decimal.Decimal {
	return v.Round(taxdomain.MoneyPlaces)
}
