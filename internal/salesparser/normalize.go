package salesparser

import (
	"strings"
	"unicode"

	"github.com/ginjaninja78/sales-analytics/internal/types"
)

// NormalizeFields cleans a well-formed record. Every field is trimmed, the
// numeric fields lose separators and currency artifacts, and the product
// name loses its commas. The input slice is not modified.
func NormalizeFields(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		switch i {
		case types.ColQuantity, types.ColUnitPrice:
			f = NormalizeNumeric(f)
		case types.ColProductName:
			f = NormalizeName(f)
		}
		out[i] = f
	}
	return out
}

// NormalizeNumeric strips thousands separators, whitespace, '$' and any
// non-ASCII rune, which covers currency signs and their mis-decoded forms.
//
//	"45,000"     -> "45000"
//	"â‚¹12,500"  -> "12500"
//	"n/a"        -> "n/a"  (left for the validator to reject)
func NormalizeNumeric(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == ',' || r == '$' || unicode.IsSpace(r):
			return -1
		case r > unicode.MaxASCII:
			return -1
		}
		return r
	}, s)
}

// NormalizeName removes commas and collapses runs of whitespace.
//
//	"Mouse,Wireless" -> "MouseWireless"
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, ",", "")), " ")
}
