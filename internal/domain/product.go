package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is a read-only catalog entry.
type Product struct {
	ID           int
	Title        string
	Slug         string
	Price        decimal.Decimal
	Description  string
	Category     string
	Sizes        SizeSpec
	Customizable bool
	Image        string
	Features     []string
}

// productJSON is the wire form of Product. Sizes is kept raw so the
// array-or-object shape can be resolved by ParseSizeSpec.
type productJSON struct {
	ID           int             `json:"id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Sizes        json.RawMessage `json:"sizes,omitempty"`
	Customizable bool            `json:"customizable"`
	Image        string          `json:"image"`
	Features     []string        `json:"features,omitempty"`
}

// MarshalJSON encodes the product with sizes as an array, an object, or omitted.
func (p Product) MarshalJSON() ([]byte, error) {
	out := productJSON{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Price:        p.Price,
		Description:  p.Description,
		Category:     p.Category,
		Customizable: p.Customizable,
		Image:        p.Image,
		Features:     p.Features,
	}
	if p.Sizes != nil {
		raw, err := json.Marshal(p.Sizes)
		if err != nil {
			return nil, fmt.Errorf("marshal sizes of product %d: %w", p.ID, err)
		}
		out.Sizes = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON. Prices may be
// JSON numbers or strings.
func (p *Product) UnmarshalJSON(data []byte) error {
	var in productJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	sizes, err := ParseSizeSpec(in.Sizes)
	if err != nil {
		return fmt.Errorf("product %d: %w", in.ID, err)
	}

	*p = Product{
		ID:           in.ID,
		Title:        in.Title,
		Slug:         in.Slug,
		Price:        in.Price,
		Description:  in.Description,
		Category:     in.Category,
		Sizes:        sizes,
		Customizable: in.Customizable,
		Image:        in.Image,
		Features:     in.Features,
	}
	return nil
}

// HasSizes reports whether a size must be chosen before adding to the cart.
func (p Product) HasSizes() bool {
	switch s := p.Sizes.(type) {
	case FlatSizes:
		return len(s) > 0
	case GenderedSizes:
		return len(s) > 0
	default:
		return false
	}
}

// FormatPrice renders an amount for display, e.g. "$1299.99".
func FormatPrice(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
