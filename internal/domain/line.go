package domain

import "github.com/shopspring/decimal"

// LineKey identifies a cart line. Two candidates with equal keys merge into one
// line. Absent options are the empty string, so absent equals absent.
type LineKey struct {
	ProductID  int
	Size       string
	Gender     string
	CustomText string
}

// Equal reports whether k and other identify the same cart line.
func (k LineKey) Equal(other LineKey) bool {
	return k == other
}

// CartLine is one entry in the cart: a product snapshot, the chosen options and
// a quantity of at least one.
type CartLine struct {
	Product    Product `json:"product"`
	Size       string  `json:"size,omitempty"`
	Gender     string  `json:"gender,omitempty"`
	CustomText string  `json:"custom_text,omitempty"`
	Quantity   int     `json:"quantity"`
}

// Key returns the line's identity.
func (l CartLine) Key() LineKey {
	return LineKey{
		ProductID:  l.Product.ID,
		Size:       l.Size,
		Gender:     l.Gender,
		CustomText: l.CustomText,
	}
}

// Subtotal is price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
