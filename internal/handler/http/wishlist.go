package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Jlymoure25/regaltyecommerce/internal/service"
	"github.com/Jlymoure25/regaltyecommerce/pkg/httputil"
)

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	service *service.StorefrontService
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc *service.StorefrontService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{
		service: svc,
		logger:  logger,
	}
}

// MembershipResponse answers whether a product is wishlisted.
type MembershipResponse struct {
	ProductID  int  `json:"product_id"`
	InWishlist bool `json:"in_wishlist"`
	Changed    bool `json:"changed"`
}

// GetWishlist handles GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.Wishlist(r.Context()))
}

// Contains handles GET /api/v1/wishlist/{productId}
func (h *WishlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseProductID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	httputil.WriteData(w, http.StatusOK, MembershipResponse{
		ProductID:  id,
		InWishlist: h.service.IsInWishlist(r.Context(), id),
	})
}

// AddItem handles POST /api/v1/wishlist/{productId}
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseProductID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	added, err := h.service.AddToWishlist(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	httputil.WriteData(w, status, MembershipResponse{ProductID: id, InWishlist: true, Changed: added})
}

// RemoveItem handles DELETE /api/v1/wishlist/{productId}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseProductID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	removed := h.service.RemoveFromWishlist(r.Context(), id)
	httputil.WriteData(w, http.StatusOK, MembershipResponse{ProductID: id, InWishlist: false, Changed: removed})
}

// ClearWishlist handles DELETE /api/v1/wishlist
func (h *WishlistHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	h.service.ClearWishlist(r.Context())
	httputil.WriteData(w, http.StatusOK, map[string]string{"status": "cleared"})
}
