// Package store holds the visitor's cart and wishlist in process memory.
//
// A Store is created once at startup and passed to whatever needs it. Every
// operation is synchronous, total and serialized behind a mutex; readers get
// copies and never observe a list while it is being changed. The store does
// not validate its input. Size and option checks belong to the caller.
package store

import (
	"errors"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Jlymoure25/regaltyecommerce/internal/domain"
)

// ErrNotInitialized is returned by constructors that were handed a nil *Store.
var ErrNotInitialized = errors.New("cart/wishlist store used before it was constructed")

// Store is the cart and wishlist state. The zero value is not usable; call New.
type Store struct {
	mu       sync.RWMutex
	cart     []domain.CartLine
	wishlist []domain.Product
}

// New returns a store with an empty cart and an empty wishlist.
func New() *Store {
	return &Store{
		cart:     []domain.CartLine{},
		wishlist: []domain.Product{},
	}
}

// AddToCart merges candidate into the cart. If a line with an equal key exists
// its quantity grows by one and its other fields are left as they were;
// otherwise candidate is appended with quantity 1. The resulting line is
// returned along with whether it was merged.
func (s *Store) AddToCart(candidate domain.CartLine) (domain.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addToCartLocked(candidate)
}

// AddToCartSnapshot is AddToCart that also returns the cart as it stood right
// after the add, read under the same lock.
func (s *Store) AddToCartSnapshot(candidate domain.CartLine) (domain.CartLine, bool, Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, merged := s.addToCartLocked(candidate)
	return line, merged, snapshotOf(s.cart)
}

func (s *Store) addToCartLocked(candidate domain.CartLine) (domain.CartLine, bool) {
	key := candidate.Key()
	for i := range s.cart {
		if s.cart[i].Key().Equal(key) {
			s.cart[i].Quantity++
			return s.cart[i], true
		}
	}

	candidate.Quantity = 1
	s.cart = append(s.cart, candidate)
	return candidate, false
}

// RemoveFromCart drops every line whose key equals key and returns how many
// were removed. Removal is of the whole line, not one unit.
func (s *Store) RemoveFromCart(key domain.LineKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.cart)
	s.cart = slices.DeleteFunc(s.cart, func(l domain.CartLine) bool {
		return l.Key().Equal(key)
	})
	return before - len(s.cart)
}

// ClearCart empties the cart. The wishlist is untouched.
func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = []domain.CartLine{}
}

// AddToWishlist appends p unless a product with the same ID is already
// present. It reports whether the wishlist changed.
func (s *Store) AddToWishlist(p domain.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexInWishlist(p.ID) >= 0 {
		return false
	}
	s.wishlist = append(s.wishlist, p)
	return true
}

// RemoveFromWishlist removes the product with the given ID and reports whether
// it was present.
func (s *Store) RemoveFromWishlist(productID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexInWishlist(productID)
	if i < 0 {
		return false
	}
	s.wishlist = slices.Delete(s.wishlist, i, i+1)
	return true
}

// ClearWishlist empties the wishlist. The cart is untouched.
func (s *Store) ClearWishlist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wishlist = []domain.Product{}
}

// IsInWishlist reports whether a product with the given ID is wishlisted.
func (s *Store) IsInWishlist(productID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexInWishlist(productID) >= 0
}

// TotalItemCount is the sum of quantities over all cart lines.
func (s *Store) TotalItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, l := range s.cart {
		n += l.Quantity
	}
	return n
}

// TotalPrice is the exact sum of price times quantity over all cart lines.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalPrice(s.cart)
}

// Cart returns a copy of the cart lines in insertion order.
func (s *Store) Cart() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cart)
}

// Wishlist returns a copy of the wishlist in insertion order.
func (s *Store) Wishlist() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.wishlist)
}

// Snapshot is a consistent view of the cart taken under a single lock.
type Snapshot struct {
	Lines      []domain.CartLine
	ItemCount  int
	TotalPrice decimal.Decimal
}

// CartSnapshot returns the cart lines together with their totals.
func (s *Store) CartSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotOf(s.cart)
}

// Checkout returns the cart as it was and empties it, atomically.
func (s *Store) Checkout() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshotOf(s.cart)
	s.cart = []domain.CartLine{}
	return snap
}

func snapshotOf(lines []domain.CartLine) Snapshot {
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return Snapshot{
		Lines:      slices.Clone(lines),
		ItemCount:  count,
		TotalPrice: totalPrice(lines),
	}
}

func totalPrice(lines []domain.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (s *Store) indexInWishlist(productID int) int {
	return slices.IndexFunc(s.wishlist, func(p domain.Product) bool {
		return p.ID == productID
	})
}
