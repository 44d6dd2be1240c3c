// Package slug turns product titles into URL-friendly identifiers.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into a base letter plus a mark.
var special = strings.NewReplacer(
	"ı", "i",
	"ø", "o",
	"ß", "ss",
	"æ", "ae",
	"œ", "oe",
	"ł", "l",
	"đ", "d",
)

// Generate creates a URL-friendly slug from s. Accents are stripped, so
// "Fjällräven - Foldsack No. 1" becomes "fjallraven-foldsack-no-1".
func Generate(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = special.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}

	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
