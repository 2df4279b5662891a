package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixFor(t *testing.T) {
	assert.Equal(t, "INV", PrefixFor("sale"))
	assert.Equal(t, "INV", PrefixFor(" SALE "))
	assert.Equal(t, "PUR", PrefixFor("purchase"))
	assert.Equal(t, "PUR", PrefixFor("quotation"))
	assert.Equal(t, "PUR", PrefixFor("proforma"))
}

func TestFormatInvoiceNumber_DefaultTemplate(t *testing.T) {
	issuedAt := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		seq  int64
		want string
	}{
		{1, "INV-001"},
		{2, "INV-002"},
		{42, "INV-042"},
		{999, "INV-999"},
		{1000, "INV-1000"},
	}

	for _, tt := range tests {
		got, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, PrefixSale, issuedAt, tt.seq)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatInvoiceNumber_DateTokens(t *testing.T) {
	issuedAt := time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)

	got, err := FormatInvoiceNumber("{PREFIX}/{YY}{MM}/{SEQ4}", PrefixPurchase, issuedAt, 7)

	require.NoError(t, err)
	assert.Equal(t, "PUR/2604/0007", got)
}

func TestFormatInvoiceNumber_Errors(t *testing.T) {
	_, err := FormatInvoiceNumber("", PrefixSale, time.Now(), 1)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, PrefixSale, time.Now(), 0)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("{PREFIX}-{FOO}-{SEQ}", PrefixSale, time.Now(), 1)
	assert.Error(t, err)
}

func TestValidateTemplate(t *testing.T) {
	assert.NoError(t, ValidateTemplate(DefaultInvoiceNumberTemplate))
	assert.NoError(t, ValidateTemplate("{PREFIX}/{YYYY}/{SEQ}"))
	assert.Error(t, ValidateTemplate("{SEQ3}-{PREFIX}"))
	assert.Error(t, ValidateTemplate("{PREFIX}-{BAD}{SEQ3}"))
	assert.Error(t, ValidateTemplate(" "))
}

func TestParseTrailingNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{"INV-001", 1, true},
		{"INV-042", 42, true},
		{"PUR/2026/1000", 1000, true},
		{"17", 17, true},
		{"INV-001A", 0, false},
		{"LEGACY", 0, false},
		{"", 0, false},
		{"INV-99999999999999999999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTrailingNumber(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
