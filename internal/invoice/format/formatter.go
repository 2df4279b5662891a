package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	tokenRe       = regexp.MustCompile(`\{([A-Z]+)(\d*)\}`)
	seqSuffixRe   = regexp.MustCompile(`\{SEQ\d*\}$`)
	trailingDigit = regexp.MustCompile(`(\d+)$`)
)

const DefaultInvoiceNumberTemplate = "{PREFIX}-{SEQ3}"

const (
	PrefixSale     = "INV"
	PrefixPurchase = "PUR"
)

// PrefixFor returns the document prefix for an invoice type. Sales use INV,
// every other type uses PUR. Per-business prefixes belong to settings.
func PrefixFor(invoiceType string) string {
	if strings.EqualFold(strings.TrimSpace(invoiceType), "sale") {
		return PrefixSale
	}
	return PrefixPurchase
}

// FormatInvoiceNumber renders template for one sequence value. It is a
// pure function of its inputs.
//
// Tokens: {PREFIX}, {YYYY}, {YY}, {MM}, {DD}, {SEQ} and {SEQn} where n is
// the minimum zero-padded width. Padding never truncates: {SEQ3} renders
// 1000 as "1000". Unknown tokens are an error.
func FormatInvoiceNumber(template, prefix string, issuedAt time.Time, seq int64) (string, error) {
	if template == "" {
		return "", errors.New("invoice number template is empty")
	}
	if seq <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", seq)
	}

	var unresolved string
	out := tokenRe.ReplaceAllStringFunc(template, func(tok string) string {
		m := tokenRe.FindStringSubmatch(tok)
		name, width := m[1], m[2]
		if name == "SEQ" {
			return padSequence(seq, width)
		}
		if width != "" {
			unresolved = tok
			return tok
		}
		switch name {
		case "PREFIX":
			return prefix
		case "YYYY":
			return issuedAt.Format("2006")
		case "YY":
			return issuedAt.Format("06")
		case "MM":
			return issuedAt.Format("01")
		case "DD":
			return issuedAt.Format("02")
		}
		unresolved = tok
		return tok
	})
	if unresolved != "" {
		return "", fmt.Errorf("unresolved token %s in invoice format: %s", unresolved, template)
	}
	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("unbalanced braces in invoice format: %s", template)
	}
	return out, nil
}

func padSequence(seq int64, width string) string {
	n, _ := strconv.Atoi(width)
	if n <= 0 {
		return strconv.FormatInt(seq, 10)
	}
	return fmt.Sprintf("%0*d", n, seq)
}

// ValidateTemplate checks that a template ends with a sequence token, so the
// sequence can always be read back from the trailing digits.
func ValidateTemplate(template string) error {
	template = strings.TrimSpace(template)
	if template == "" {
		return errors.New("invoice number template is empty")
	}
	if !seqSuffixRe.MatchString(template) {
		return fmt.Errorf("invoice number template must end with a {SEQ} token: %s", template)
	}
	if _, err := FormatInvoiceNumber(template, PrefixSale, time.Unix(0, 0).UTC(), 1); err != nil {
		return err
	}
	return nil
}

// ParseTrailingNumber extracts the trailing digit run of an invoice number.
// ok is false when there are no trailing digits or the run does not fit in
// an int64 (legacy or hand-typed numbers).
func ParseTrailingNumber(invoiceNumber string) (int64, bool) {
	match := trailingDigit.FindStringSubmatch(strings.TrimSpace(invoiceNumber))
	if len(match) != 2 {
		return 0, false
	}
	n, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
