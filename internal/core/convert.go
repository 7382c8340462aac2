package core

// convert.go normalizes the messy values found in hand-made spreadsheets:
//   - stray double quotes left by partial quoting
//   - Excel formula prefixes (="0012")
//   - comma decimal separators and dot thousands separators in prices
//   - punctuation in CNPJ numbers

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Limits enforced on validated rows.
const (
	MaxProductNameLength = 255
	MaxApplicationLength = 1000
	MaxStock             = math.MaxInt32
	CNPJLength           = 14
)

// MaxPrice is the largest accepted product price (numeric(10,2)).
var MaxPrice = decimal.RequireFromString("99999999.99")

var (
	parenGroupRe  = regexp.MustCompile(`\s*\([^)]*\)`)
	afterSpaceRe  = regexp.MustCompile(`\s+.*$`)
	nonDigitRe    = regexp.MustCompile(`\D`)
	validCodeRe   = regexp.MustCompile(`^[A-Za-z0-9\-./]*$`)
	cnpjFormatter = regexp.MustCompile(`^(\d{2})(\d{3})(\d{3})(\d{4})(\d{2})$`)
)

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, an Excel formula prefix and every double quote.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}

	s = strings.ReplaceAll(s, `"`, "")
	return strings.TrimSpace(s)
}

// CleanProductCode derives the display code of a product name: parenthetical
// groups, everything after the first whitespace and a trailing period are
// removed. "06211700 (KR27004)" becomes "06211700".
func CleanProductCode(name string) string {
	code := parenGroupRe.ReplaceAllString(name, "")
	code = afterSpaceRe.ReplaceAllString(code, "")
	return strings.TrimSuffix(code, ".")
}

// HasInvalidCodeChars reports whether a clean code holds characters other
// than letters, digits, '-', '.' and '/'; such rows need manual review.
func HasInvalidCodeChars(code string) bool {
	return !validCodeRe.MatchString(code)
}

// NormalizePrice converts a spreadsheet price to dot-decimal form.
//
// A trailing ';' is dropped. When both '.' and ',' appear the dots are
// thousands separators ("1.234,56" -> "1234.56"); otherwise a comma is the
// decimal separator ("99,90" -> "99.90").
func NormalizePrice(s string) string {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}

// ParsePrice parses a normalized price. It returns false for anything that is
// not a finite decimal number.
func ParsePrice(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseStock parses a stock quantity as a whole number. Integers too large for
// int64 still parse (saturated) so they are reported as out of range rather
// than as not a number.
func ParseStock(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	switch {
	case err == nil:
		return n, true
	case errors.Is(err, strconv.ErrRange):
		return n, true
	default:
		return 0, false
	}
}

// OnlyDigits strips every non-digit character.
func OnlyDigits(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// ValidCNPJ reports whether s holds exactly 14 digits (punctuation ignored)
// that are not all the same digit.
func ValidCNPJ(s string) bool {
	digits := OnlyDigits(s)
	if len(digits) != CNPJLength {
		return false
	}
	return strings.Count(digits, digits[:1]) != CNPJLength
}

// FormatCNPJ renders 14 digits as 00.000.000/0000-00. Other input is returned
// unchanged.
func FormatCNPJ(s string) string {
	digits := OnlyDigits(s)
	if !cnpjFormatter.MatchString(digits) {
		return s
	}
	return cnpjFormatter.ReplaceAllString(digits, "$1.$2.$3/$4-$5")
}
