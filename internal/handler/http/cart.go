package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Jlymoure25/regaltyecommerce/internal/domain"
	"github.com/Jlymoure25/regaltyecommerce/internal/service"
	"github.com/Jlymoure25/regaltyecommerce/pkg/httputil"
	"github.com/Jlymoure25/regaltyecommerce/pkg/validator"
)

// CartHandler handles HTTP requests for cart and checkout endpoints.
type CartHandler struct {
	service *service.StorefrontService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.StorefrontService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddToCartRequest is the JSON request body for adding a product to the cart.
// Size and gender are only meaningful for sized products and custom text only
// for customizable ones.
type AddToCartRequest struct {
	ProductID  int    `json:"product_id" validate:"required,gt=0"`
	Size       string `json:"size" validate:"max=16"`
	Gender     string `json:"gender" validate:"max=16"`
	CustomText string `json:"custom_text"`
}

// --- Responses ---

// AddToCartResponse is the line that was added or merged plus the new cart.
type AddToCartResponse struct {
	Line domain.CartLine  `json:"line"`
	Cart service.CartView `json:"cart"`
}

// RemoveFromCartResponse reports how many lines matched and the new cart.
type RemoveFromCartResponse struct {
	Removed int              `json:"removed"`
	Cart    service.CartView `json:"cart"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.Cart(r.Context()))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	added, err := h.service.AddToCart(r.Context(), service.CartItemInput{
		ProductID:  req.ProductID,
		Size:       req.Size,
		Gender:     req.Gender,
		CustomText: req.CustomText,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, AddToCartResponse{
		Line: added.CartLine,
		Cart: added.Cart,
	})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
//
// The line is identified by the product plus the size, gender and custom_text
// query parameters. Omitted parameters match lines without that option.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseProductID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	q := r.URL.Query()
	removed, err := h.service.RemoveFromCart(r.Context(), service.CartItemInput{
		ProductID:  id,
		Size:       q.Get("size"),
		Gender:     q.Get("gender"),
		CustomText: q.Get("custom_text"),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, RemoveFromCartResponse{
		Removed: removed,
		Cart:    h.service.Cart(r.Context()),
	})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.service.ClearCart(r.Context())
	httputil.WriteData(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Checkout handles POST /api/v1/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.service.Checkout(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, receipt)
}
