package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]+`)
	slugDashes  = regexp.MustCompile(`-+`)
	spaces      = regexp.MustCompile(`\s+`)
)

// RemoveDiacritics strips combining marks: "Colección Ñandú" -> "Coleccion Nandu".
func RemoveDiacritics(input string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, input)
	if err != nil {
		return input
	}
	return out
}

// GenerateSlug builds a URL slug: "Serie Colección" -> "serie-coleccion".
func GenerateSlug(input string) string {
	lower := strings.ToLower(RemoveDiacritics(input))
	hyphenated := spaces.ReplaceAllString(strings.TrimSpace(lower), "-")
	cleaned := slugInvalid.ReplaceAllString(hyphenated, "")
	return strings.Trim(slugDashes.ReplaceAllString(cleaned, "-"), "-")
}

// FoldName lowercases, strips accents and collapses whitespace so that
// display names can be compared loosely.
func FoldName(input string) string {
	folded := strings.ToLower(RemoveDiacritics(input))
	return spaces.ReplaceAllString(strings.TrimSpace(folded), " ")
}
