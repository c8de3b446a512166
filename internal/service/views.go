package service

import (
	"github.com/shopspring/decimal"

	"github.com/Jlymoure25/regaltyecommerce/internal/domain"
	"github.com/Jlymoure25/regaltyecommerce/internal/store"
)

// CheckoutMessage is shown to the visitor after a successful checkout.
const CheckoutMessage = "Checkout successful! Thank you for shopping with Regalty!"

// CartLineView is a cart line with its money fields computed for display.
type CartLineView struct {
	domain.CartLine
	UnitPrice       string          `json:"unit_price"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	SubtotalDisplay string          `json:"subtotal_display"`
}

// CartView is the cart summary: its lines, unit count and total price.
type CartView struct {
	Lines        []CartLineView  `json:"lines"`
	ItemCount    int             `json:"item_count"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	TotalDisplay string          `json:"total_display"`
}

// Receipt is what a checkout returns: the purchased cart and a thank-you note.
type Receipt struct {
	Reference string   `json:"reference"`
	Message   string   `json:"message"`
	Cart      CartView `json:"cart"`
}

// AddedLine is the line an add produced and the cart it left behind, both read
// under the same store lock.
type AddedLine struct {
	domain.CartLine
	Cart CartView
}

// WishlistView lists wishlisted products in the order they were added.
type WishlistView struct {
	Products []domain.Product `json:"products"`
	Count    int              `json:"count"`
}

// PreviewView is the image a personalised product would show.
type PreviewView struct {
	ProductID int    `json:"product_id"`
	Text      string `json:"text"`
	ImageURL  string `json:"image_url"`
}

func newCartView(snap store.Snapshot) CartView {
	lines := make([]CartLineView, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		sub := l.Subtotal()
		lines = append(lines, CartLineView{
			CartLine:        l,
			UnitPrice:       domain.FormatPrice(l.Product.Price),
			Subtotal:        sub,
			SubtotalDisplay: domain.FormatPrice(sub),
		})
	}
	return CartView{
		Lines:        lines,
		ItemCount:    snap.ItemCount,
		TotalPrice:   snap.TotalPrice,
		TotalDisplay: domain.FormatPrice(snap.TotalPrice),
	}
}
