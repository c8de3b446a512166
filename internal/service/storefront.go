package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jlymoure25/regaltyecommerce/internal/catalog"
	"github.com/Jlymoure25/regaltyecommerce/internal/domain"
	"github.com/Jlymoure25/regaltyecommerce/internal/event"
	"github.com/Jlymoure25/regaltyecommerce/internal/store"
	apperrors "github.com/Jlymoure25/regaltyecommerce/pkg/errors"
	"github.com/Jlymoure25/regaltyecommerce/pkg/pagination"
	"github.com/Jlymoure25/regaltyecommerce/pkg/tracing"
)

const (
	// DefaultGender is preselected for products sized by gender.
	DefaultGender = "men"

	// MaxCustomTextLength caps personalisation text, in characters. It matches
	// what fits on the product preview.
	MaxCustomTextLength = 15
)

// customTextAllowed lists the characters that can be printed on a product.
var customTextAllowed = regexp.MustCompile(`^[a-zA-Z0-9 !@#$%&*()_+={}|;':",./<>?-]*$`)

const tracerName = "github.com/Jlymoure25/regaltyecommerce/internal/service"

// StorefrontService validates visitor actions against the catalog, applies them
// to the cart/wishlist store and announces the changes.
type StorefrontService struct {
	store     *store.Store
	catalog   *catalog.Catalog
	publisher event.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewStorefrontService wires the service. A nil store is a wiring bug and is
// reported as store.ErrNotInitialized.
func NewStorefrontService(st *store.Store, cat *catalog.Catalog, pub event.Publisher, logger *slog.Logger) (*StorefrontService, error) {
	if st == nil {
		return nil, fmt.Errorf("new storefront service: %w", store.ErrNotInitialized)
	}
	if cat == nil {
		return nil, fmt.Errorf("new storefront service: catalog is required")
	}
	if pub == nil {
		return nil, fmt.Errorf("new storefront service: event publisher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &StorefrontService{
		store:     st,
		catalog:   cat,
		publisher: pub,
		logger:    logger,
		tracer:    tracing.Tracer(tracerName),
	}
	s.observe()
	return s, nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// ListProductsInput holds the catalog query parameters.
type ListProductsInput struct {
	Search   string
	Category string
	Sort     string
	Page     pagination.Params
}

// ListProducts searches, filters, sorts and paginates the catalog.
func (s *StorefrontService) ListProducts(ctx context.Context, in ListProductsInput) (catalog.Result, error) {
	order, err := catalog.ParseSortOrder(in.Sort)
	if err != nil {
		return catalog.Result{}, err
	}
	return s.catalog.Search(catalog.Query{
		Search:   in.Search,
		Category: in.Category,
		Sort:     order,
		Page:     in.Page,
	}), nil
}

// GetProduct returns one product by ID.
func (s *StorefrontService) GetProduct(ctx context.Context, id int) (domain.Product, error) {
	return s.catalog.Get(id)
}

// GetProductBySlug returns one product by its URL slug.
func (s *StorefrontService) GetProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	return s.catalog.GetBySlug(slug)
}

// Categories returns the category filter options.
func (s *StorefrontService) Categories(ctx context.Context) []catalog.Category {
	return s.catalog.Categories()
}

// Preview returns the image URL a product would show with the given custom text.
func (s *StorefrontService) Preview(ctx context.Context, id int, text string) (PreviewView, error) {
	p, err := s.catalog.Get(id)
	if err != nil {
		return PreviewView{}, err
	}
	return PreviewView{
		ProductID: p.ID,
		Text:      strings.TrimSpace(text),
		ImageURL:  catalog.PreviewURL(p, text),
	}, nil
}

// ---------------------------------------------------------------------------
// Cart
// ---------------------------------------------------------------------------

// CartItemInput selects a product and its options. Empty strings mean the
// option was not chosen.
type CartItemInput struct {
	ProductID  int
	Size       string
	Gender     string
	CustomText string
}

// AddToCart validates the selection against the product and adds one unit to
// the cart, merging with an identical line if present. The returned cart is the
// state right after this add.
func (s *StorefrontService) AddToCart(ctx context.Context, in CartItemInput) (AddedLine, error) {
	ctx, span := s.tracer.Start(ctx, "StorefrontService.AddToCart",
		trace.WithAttributes(attribute.Int("product.id", in.ProductID)))
	defer span.End()

	p, err := s.catalog.Get(in.ProductID)
	if err != nil {
		cartRejects.WithLabelValues("unknown_product").Inc()
		return AddedLine{}, spanError(span, err)
	}

	candidate, err := resolveSelection(p, in)
	if err != nil {
		cartRejects.WithLabelValues("invalid_selection").Inc()
		return AddedLine{}, spanError(span, err)
	}

	line, merged, snap := s.store.AddToCartSnapshot(candidate)
	action := event.ActionAdded
	if merged {
		action = event.ActionMerged
	}
	cartAdds.WithLabelValues(action).Inc()
	span.SetAttributes(
		attribute.String("cart.action", action),
		attribute.Int("cart.line.quantity", line.Quantity),
	)

	s.observeCart(snap)
	s.logger.InfoContext(ctx, "cart item added",
		slog.Int("product_id", p.ID),
		slog.String("size", line.Size),
		slog.String("gender", line.Gender),
		slog.Bool("merged", merged),
		slog.Int("quantity", line.Quantity),
	)

	s.publishCartUpdated(ctx, action, line, snap)
	return AddedLine{CartLine: line, Cart: newCartView(snap)}, nil
}

// RemoveFromCart removes the whole line matching the selection. Removing a
// line that is not in the cart is a no-op. Options the product does not
// support are ignored, mirroring how they are dropped on add.
func (s *StorefrontService) RemoveFromCart(ctx context.Context, in CartItemInput) (int, error) {
	ctx, span := s.tracer.Start(ctx, "StorefrontService.RemoveFromCart",
		trace.WithAttributes(attribute.Int("product.id", in.ProductID)))
	defer span.End()

	key := domain.LineKey{
		ProductID:  in.ProductID,
		Size:       strings.TrimSpace(in.Size),
		Gender:     strings.TrimSpace(in.Gender),
		CustomText: strings.TrimSpace(in.CustomText),
	}
	if p, err := s.catalog.Get(in.ProductID); err == nil {
		key.Gender = normalizeGender(p, in.Gender)
		if !p.Customizable {
			key.CustomText = ""
		}
	}

	removed := s.store.RemoveFromCart(key)
	span.SetAttributes(attribute.Int("cart.lines.removed", removed))
	if removed == 0 {
		return 0, nil
	}

	snap := s.observe()
	s.logger.InfoContext(ctx, "cart line removed",
		slog.Int("product_id", key.ProductID),
		slog.String("size", key.Size),
		slog.Int("lines_removed", removed),
	)

	s.publishCartUpdated(ctx, event.ActionRemoved, domain.CartLine{
		Product:    domain.Product{ID: key.ProductID},
		Size:       key.Size,
		Gender:     key.Gender,
		CustomText: key.CustomText,
	}, snap)
	return removed, nil
}

// ClearCart empties the cart.
func (s *StorefrontService) ClearCart(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "StorefrontService.ClearCart")
	defer span.End()

	lines := len(s.store.Cart())
	s.store.ClearCart()
	s.observe()

	s.logger.InfoContext(ctx, "cart cleared", slog.Int("lines_removed", lines))

	if err := s.publisher.PublishCartCleared(ctx, event.CartClearedData{
		Reason:       event.ActionCleared,
		LinesRemoved: lines,
	}); err != nil {
		s.logPublishError(ctx, event.TopicCartCleared, err)
	}
}

// Cart returns the cart summary.
func (s *StorefrontService) Cart(ctx context.Context) CartView {
	return newCartView(s.store.CartSnapshot())
}

// Checkout takes the current cart as the order and clears it. Payment is out of
// scope; an empty cart cannot be checked out.
func (s *StorefrontService) Checkout(ctx context.Context) (Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "StorefrontService.Checkout")
	defer span.End()

	snap := s.store.Checkout()
	if len(snap.Lines) == 0 {
		return Receipt{}, spanError(span, apperrors.InvalidInput("cart is empty"))
	}

	receipt := Receipt{
		Reference: uuid.NewString(),
		Message:   CheckoutMessage,
		Cart:      newCartView(snap),
	}
	checkouts.Inc()
	checkoutValue.Add(snap.TotalPrice.InexactFloat64())
	s.observe()

	span.SetAttributes(
		attribute.String("checkout.reference", receipt.Reference),
		attribute.Int("checkout.item_count", snap.ItemCount),
	)
	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("reference", receipt.Reference),
		slog.Int("item_count", snap.ItemCount),
		slog.String("total", snap.TotalPrice.StringFixed(2)),
	)

	data := event.CheckoutCompletedData{
		Reference:  receipt.Reference,
		Lines:      make([]event.CheckoutLine, 0, len(snap.Lines)),
		ItemCount:  snap.ItemCount,
		TotalPrice: snap.TotalPrice.StringFixed(2),
	}
	for _, l := range snap.Lines {
		data.Lines = append(data.Lines, event.CheckoutLine{
			ProductID:  l.Product.ID,
			Title:      l.Product.Title,
			Size:       l.Size,
			Gender:     l.Gender,
			CustomText: l.CustomText,
			Quantity:   l.Quantity,
			UnitPrice:  l.Product.Price.StringFixed(2),
			Subtotal:   l.Subtotal().StringFixed(2),
		})
	}
	if err := s.publisher.PublishCheckoutCompleted(ctx, data); err != nil {
		s.logPublishError(ctx, event.TopicCheckoutCompleted, err)
	}
	if err := s.publisher.PublishCartCleared(ctx, event.CartClearedData{
		Reason:       "checkout",
		LinesRemoved: len(snap.Lines),
	}); err != nil {
		s.logPublishError(ctx, event.TopicCartCleared, err)
	}

	return receipt, nil
}

// ---------------------------------------------------------------------------
// Wishlist
// ---------------------------------------------------------------------------

// AddToWishlist adds a catalog product to the wishlist. It reports false when
// the product was already there.
func (s *StorefrontService) AddToWishlist(ctx context.Context, productID int) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "StorefrontService.AddToWishlist",
		trace.WithAttributes(attribute.Int("product.id", productID)))
	defer span.End()

	p, err := s.catalog.Get(productID)
	if err != nil {
		return false, spanError(span, err)
	}

	added := s.store.AddToWishlist(p)
	span.SetAttributes(attribute.Bool("wishlist.added", added))
	if !added {
		return false, nil
	}

	size := s.observeWishlist()
	s.logger.InfoContext(ctx, "wishlist item added", slog.Int("product_id", productID))
	s.publishWishlistUpdated(ctx, event.ActionAdded, productID, size)
	return true, nil
}

// RemoveFromWishlist removes a product from the wishlist. It reports false when
// the product was not there.
func (s *StorefrontService) RemoveFromWishlist(ctx context.Context, productID int) bool {
	ctx, span := s.tracer.Start(ctx, "StorefrontService.RemoveFromWishlist",
		trace.WithAttributes(attribute.Int("product.id", productID)))
	defer span.End()

	removed := s.store.RemoveFromWishlist(productID)
	span.SetAttributes(attribute.Bool("wishlist.removed", removed))
	if !removed {
		return false
	}

	size := s.observeWishlist()
	s.logger.InfoContext(ctx, "wishlist item removed", slog.Int("product_id", productID))
	s.publishWishlistUpdated(ctx, event.ActionRemoved, productID, size)
	return true
}

// ClearWishlist empties the wishlist.
func (s *StorefrontService) ClearWishlist(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "StorefrontService.ClearWishlist")
	defer span.End()

	s.store.ClearWishlist()
	s.observeWishlist()
	s.logger.InfoContext(ctx, "wishlist cleared")
	s.publishWishlistUpdated(ctx, event.ActionCleared, 0, 0)
}

// IsInWishlist reports whether the product is wishlisted.
func (s *StorefrontService) IsInWishlist(ctx context.Context, productID int) bool {
	return s.store.IsInWishlist(productID)
}

// Wishlist returns the wishlisted products.
func (s *StorefrontService) Wishlist(ctx context.Context) WishlistView {
	products := s.store.Wishlist()
	return WishlistView{Products: products, Count: len(products)}
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// resolveSelection checks the chosen options against what p offers and
// returns the normalised cart line candidate.
func resolveSelection(p domain.Product, in CartItemInput) (domain.CartLine, error) {
	line := domain.CartLine{Product: p}
	size := strings.TrimSpace(in.Size)
	gender := normalizeGender(p, in.Gender)

	switch sizes := p.Sizes.(type) {
	case domain.FlatSizes:
		if size == "" {
			return line, apperrors.InvalidInput("please select a size")
		}
		if !sizes.Offers("", size) {
			return line, apperrors.InvalidInput(fmt.Sprintf("size %q is not available for %s", size, p.Title))
		}
		line.Size = size

	case domain.GenderedSizes:
		if _, ok := sizes.Lookup(gender); !ok {
			return line, apperrors.InvalidInput(fmt.Sprintf("gender %q is not available for %s (choose %s)",
				gender, p.Title, strings.Join(sizes.Genders(), ", ")))
		}
		if size == "" {
			return line, apperrors.InvalidInput("please select a size")
		}
		if !sizes.Offers(gender, size) {
			return line, apperrors.InvalidInput(fmt.Sprintf("size %q is not available in %s sizes for %s", size, gender, p.Title))
		}
		line.Size = size
		line.Gender = gender

	default:
		if size != "" {
			return line, apperrors.InvalidInput(fmt.Sprintf("%s does not come in sizes", p.Title))
		}
	}

	if p.Customizable {
		text := strings.TrimSpace(in.CustomText)
		if utf8.RuneCountInString(text) > MaxCustomTextLength {
			return line, apperrors.InvalidInput(fmt.Sprintf("custom text must be at most %d characters", MaxCustomTextLength))
		}
		if !customTextAllowed.MatchString(text) {
			return line, apperrors.InvalidInput("custom text may only contain letters, digits, spaces and common punctuation")
		}
		line.CustomText = text
	}

	return line, nil
}

// observe refreshes the cart and wishlist gauges and returns the cart snapshot
// it measured.
func (s *StorefrontService) observe() store.Snapshot {
	snap := s.store.CartSnapshot()
	s.observeCart(snap)
	s.observeWishlist()
	return snap
}

func (s *StorefrontService) observeCart(snap store.Snapshot) {
	cartItems.Set(float64(snap.ItemCount))
	cartValue.Set(snap.TotalPrice.InexactFloat64())
}

// normalizeGender applies the gender rule shared by add and remove: products
// sized by gender get a lowercased label that defaults to DefaultGender, and
// every other product has no gender.
func normalizeGender(p domain.Product, gender string) string {
	if _, ok := p.Sizes.(domain.GenderedSizes); !ok {
		return ""
	}
	gender = strings.ToLower(strings.TrimSpace(gender))
	if gender == "" {
		return DefaultGender
	}
	return gender
}

func (s *StorefrontService) observeWishlist() int {
	n := len(s.store.Wishlist())
	wishlistItems.Set(float64(n))
	return n
}

func (s *StorefrontService) publishCartUpdated(ctx context.Context, action string, line domain.CartLine, snap store.Snapshot) {
	err := s.publisher.PublishCartUpdated(ctx, event.CartUpdatedData{
		Action:     action,
		ProductID:  line.Product.ID,
		Size:       line.Size,
		Gender:     line.Gender,
		CustomText: line.CustomText,
		Quantity:   line.Quantity,
		ItemCount:  snap.ItemCount,
		TotalPrice: snap.TotalPrice.StringFixed(2),
	})
	if err != nil {
		s.logPublishError(ctx, event.TopicCartUpdated, err)
	}
}

func (s *StorefrontService) publishWishlistUpdated(ctx context.Context, action string, productID, size int) {
	err := s.publisher.PublishWishlistUpdated(ctx, event.WishlistUpdatedData{
		Action:    action,
		ProductID: productID,
		Size:      size,
	})
	if err != nil {
		s.logPublishError(ctx, event.TopicWishlistUpdated, err)
	}
}

// logPublishError records a failed publish. The visitor's action has already
// been applied, so the request still succeeds.
func (s *StorefrontService) logPublishError(ctx context.Context, topic string, err error) {
	s.logger.ErrorContext(ctx, "failed to publish event",
		slog.String("topic", topic),
		slog.String("error", err.Error()),
	)
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
