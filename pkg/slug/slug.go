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

// letters that do not decompose into an ASCII base plus a combining mark.
var special = strings.NewReplacer(
	"ı", "i", "ø", "o", "đ", "d", "ł", "l", "ß", "ss", "æ", "ae", "œ", "oe", "&", " and ",
)

// Generate creates a lowercase, hyphen-separated URL slug. Accented letters are
// folded to their ASCII base.
//
//	"Royal Crown Hoodie"    -> "royal-crown-hoodie"
//	"Élite Crystal Décanter" -> "elite-crystal-decanter"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = special.Replace(s)

	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = folded
	}

	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
