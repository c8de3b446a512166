package catalog

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Jlymoure25/regaltyecommerce/internal/domain"
)

const (
	previewBase     = "https://placehold.co/400x500/808080/white"
	previewMaxRunes = 15
)

// PreviewURL returns an image URL showing text on a plain placeholder. Products
// that cannot be personalised, and blank text, fall back to the product image.
// Only the first 15 characters of the trimmed text are rendered.
func PreviewURL(p domain.Product, text string) string {
	text = strings.TrimSpace(text)
	if !p.Customizable || text == "" {
		return p.Image
	}
	text = truncateRunes(text, previewMaxRunes)

	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return previewBase + "?text=" + escaped + "&font=roboto"
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
