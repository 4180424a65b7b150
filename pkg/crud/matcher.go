package crud

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Matcher reports whether record satisfies a non-blank search query.
type Matcher[R any] func(record R, query string) bool

// FieldMatcher matches when any of the extracted fields contains the query,
// ignoring case and diacritics ("pena" finds "Peña").
func FieldMatcher[R any](fields ...func(R) string) Matcher[R] {
	return func(record R, query string) bool {
		needle := Fold(query)
		for _, field := range fields {
			if strings.Contains(Fold(field(record)), needle) {
				return true
			}
		}
		return false
	}
}

func defaultMatcher[R any](record R, query string) bool {
	return strings.Contains(Fold(fmt.Sprintf("%+v", record)), Fold(query))
}

// Fold normalizes s for comparison: diacritics stripped, Unicode case folded.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// Filter returns the records of items matching query, in their original
// order. A blank query returns a copy of items.
func Filter[R any](items []R, query string, match Matcher[R]) []R {
	q := strings.TrimSpace(query)
	if q == "" {
		return append([]R(nil), items...)
	}
	if match == nil {
		match = defaultMatcher[R]
	}
	out := make([]R, 0, len(items))
	for _, item := range items {
		if match(item, q) {
			out = append(out, item)
		}
	}
	return out
}
