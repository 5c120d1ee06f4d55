// Package slug produces ASCII, URL-safe transliterations of place names.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	disallowed = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[-\s]+`)
)

// Make lowercases s, strips diacritics, drops everything that is not an
// ASCII letter, digit, underscore, hyphen or whitespace and joins the
// remaining words with single hyphens. Names written entirely in a
// non-Latin script yield an empty slug.
func Make(s string) string {
	s = toASCII(s)
	s = disallowed.ReplaceAllString(strings.ToLower(s), "")
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-_")
}

func toASCII(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	result, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return result
}
