package service

import (
	"testing"

	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	"github.com/stretchr/testify/assert"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

func TestCalculateTax_WorkedExamples(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		rate        string
		interstate  bool
		inclusive   bool
		cess        string
		wantTaxable string
		wantCGST    string
		wantSGST    string
		wantIGST    string
		wantCess    string
		wantTotal   string
	}{
		{
			name:   "intrastate exclusive",
			amount: "1000", rate: "18", cess: "0",
			wantTaxable: "1000", wantCGST: "90", wantSGST: "90", wantIGST: "0", wantCess: "0", wantTotal: "1180",
		},
		{
			name:   "interstate exclusive",
			amount: "1000", rate: "18", interstate: true, cess: "0",
			wantTaxable: "1000", wantCGST: "0", wantSGST: "0", wantIGST: "180", wantCess: "0", wantTotal: "1180",
		},
		{
			name:   "intrastate inclusive",
			amount: "1180", rate: "18", inclusive: true, cess: "0",
			wantTaxable: "1000", wantCGST: "90", wantSGST: "90", wantIGST: "0", wantCess: "0", wantTotal: "1180",
		},
		{
			name:   "intrastate with cess",
			amount: "1000", rate: "18", cess: "1",
			wantTaxable: "1000", wantCGST: "90", wantSGST: "90", wantIGST: "0", wantCess: "10", wantTotal: "1190",
		},
		{
			name:   "zero rate",
			amount: "250.50", rate: "0", cess: "0",
			wantTaxable: "250.5", wantCGST: "0", wantSGST: "0", wantIGST: "0", wantCess: "0", wantTotal: "250.5",
		},
		{
			name:   "zero rate inclusive",
			amount: "99.99", rate: "0", inclusive: true, cess: "0",
			wantTaxable: "99.99", wantCGST: "0", wantSGST: "0", wantIGST: "0", wantCess: "0", wantTotal: "99.99",
		},
		{
			name:   "cess on zero taxable",
			amount: "0", rate: "28", cess: "12",
			wantTaxable: "0", wantCGST: "0", wantSGST: "0", wantIGST: "0", wantCess: "0", wantTotal: "0",
		},
		{
			name:   "rounds half away from zero",
			amount: "10.10", rate: "5", interstate: true, cess: "0",
			// 10.10 * 5% = 0.505
			wantTaxable: "10.1", wantCGST: "0", wantSGST: "0", wantIGST: "0.51", wantCess: "0", wantTotal: "10.61",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTax(dec(tt.amount), dec(tt.rate), tt.interstate, tt.inclusive, dec(tt.cess))

			assertDecimal(t, tt.wantTaxable, got.TaxableAmount, "taxable")
			assertDecimal(t, tt.wantCGST, got.CGSTAmount, "cgst")
			assertDecimal(t, tt.wantSGST, got.SGSTAmount, "sgst")
			assertDecimal(t, tt.wantIGST, got.IGSTAmount, "igst")
			assertDecimal(t, tt.wantCess, got.CessAmount, "cess")
			assertDecimal(t, tt.wantTotal, got.TotalAmount, "total")
		})
	}
}

func TestCalculateTax_RatesFollowRegime(t *testing.T) {
	intra := CalculateTax(dec("500"), dec("12"), false, false, decimal.Zero)
	assertDecimal(t, "6", intra.CGSTRate, "cgst_rate")
	assertDecimal(t, "6", intra.SGSTRate, "sgst_rate")
	assertDecimal(t, "0", intra.IGSTRate, "igst_rate")
	assert.True(t, intra.CGSTRate.Equal(intra.SGSTRate))

	inter := CalculateTax(dec("500"), dec("12"), true, false, decimal.Zero)
	assertDecimal(t, "0", inter.CGSTRate, "cgst_rate")
	assertDecimal(t, "0", inter.SGSTRate, "sgst_rate")
	assertDecimal(t, "12", inter.IGSTRate, "igst_rate")
}

func TestCalculateTax_IntrastateSplitMatchesInterstate(t *testing.T) {
	amounts := []string{"0", "0.01", "0.05", "1", "10.25", "99.99", "1000", "1234.56", "7777.77", "100000.01"}
	rates := []string{"0", "0.25", "3", "5", "12", "18", "28"}
	cessRates := []string{"0", "1", "12"}

	for _, a := range amounts {
		for _, r := range rates {
			for _, c := range cessRates {
				intra := CalculateTax(dec(a), dec(r), false, false, dec(c))
				inter := CalculateTax(dec(a), dec(r), true, false, dec(c))
				assert.Truef(t, intra.CGSTAmount.Add(intra.SGSTAmount).Equal(inter.IGSTAmount),
					"amount=%s rate=%s: cgst %s + sgst %s != igst %s", a, r, intra.CGSTAmount, intra.SGSTAmount, inter.IGSTAmount)
				assert.Truef(t, intra.CGSTAmount.Sub(intra.SGSTAmount).Abs().LessThanOrEqual(dec("0.01")),
					"amount=%s rate=%s: halves drift more than a paisa", a, r)
				assert.True(t, intra.CessAmount.Equal(inter.CessAmount))
			}
		}
	}
}

func TestCalculateTax_SGSTTakesRemainder(t *testing.T) {
	intra := CalculateTax(dec("100.03"), dec("18"), false, false, decimal.Zero)
	assertDecimal(t, "9.00", intra.CGSTAmount, "cgst")
	assertDecimal(t, "9.01", intra.SGSTAmount, "sgst")

	inter := CalculateTax(dec("100.03"), dec("18"), true, false, decimal.Zero)
	assertDecimal(t, "18.01", inter.IGSTAmount, "igst")
}

func TestCalculateTax_InclusiveRoundTrip(t *testing.T) {
	amounts := []string{"1", "10.25", "99.99", "1000", "1234.56", "50000"}
	rates := []string{"0", "3", "5", "12", "18", "28"}
	tolerance := dec("0.01")

	for _, a := range amounts {
		for _, r := range rates {
			exclusive := dec(a)
			gross := exclusive.Add(exclusive.Mul(dec(r)).Div(taxdomain.Hundred))

			got := CalculateTax(gross, dec(r), false, true, decimal.Zero)
			assert.Truef(t, got.TaxableAmount.Sub(exclusive).Abs().LessThanOrEqual(tolerance),
				"amount=%s rate=%s: recovered %s", a, r, got.TaxableAmount)
		}
	}
}

func TestComputeTaxHelpers(t *testing.T) {
	assertDecimal(t, "180", ComputeTaxExclusive(dec("1000"), dec("18")), "exclusive")
	assertDecimal(t, "180", ComputeTaxInclusive(dec("1180"), dec("18")), "inclusive")
	assertDecimal(t, "0", ComputeTaxExclusive(dec("0"), dec("18")), "zero base")
	assertDecimal(t, "0", ComputeTaxInclusive(dec("1180"), dec("0")), "zero rate")
}
