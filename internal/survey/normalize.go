package survey

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var categoryFold = transform.Chain(
	norm.NFKC,
	runes.Remove(runes.Predicate(func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})),
	runes.Map(unicode.ToLower),
)

// NormalizeCategory folds free text into a grouping key: lowercase, punctuation and
// symbols removed, whitespace collapsed. "Acme, Inc." and "ACME Inc" both become
// "acme inc". Empty input yields "".
func NormalizeCategory(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	out, _, err := transform.String(categoryFold, s)
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}
