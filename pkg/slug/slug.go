package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that do not decompose into a base letter plus combining marks.
var special = strings.NewReplacer(
	"ı", "i", "ß", "ss", "æ", "ae", "ø", "o", "đ", "d", "ł", "l", "œ", "oe",
)

// Generate turns a display name into a lowercase, hyphen-separated ASCII slug.
//
//	"Home & Garden"   -> "home-garden"
//	"Çocuk Ürünleri"  -> "cocuk-urunleri"
//	"  Crème Brûlée " -> "creme-brulee"
func Generate(name string) string {
	s := special.Replace(strings.ToLower(strings.TrimSpace(name)))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}

	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
