package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldName canonicalizes a display name for equality lookups: surrounding
// and repeated whitespace is collapsed, diacritics are stripped and the
// result is case-folded, so "  Técnico " and "tecnico" compare equal.
//
// Transformers are not safe for concurrent use, so a fresh chain is built
// per call.
func FoldName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// LowerTrim is the plain normalization used for configured name tables:
// lower-cased and trimmed, nothing else.
func LowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
