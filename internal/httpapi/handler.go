// Package httpapi exposes the checkout service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/nikolayk812/cart-checkout/internal/engine"
	"github.com/nikolayk812/cart-checkout/internal/service"
	"go.uber.org/zap"
)

// CheckoutService is the part of service.CheckoutService the handlers use.
type CheckoutService interface {
	Checkout(ctx context.Context, ownerID string) (service.CheckoutResult, error)
	AddLine(ctx context.Context, ownerID string, key domain.LineKey, quantity int) (service.CheckoutResult, error)
	SetQuantity(ctx context.Context, ownerID string, key domain.LineKey, quantity int) (service.CheckoutResult, error)
	RemoveLine(ctx context.Context, ownerID string, key domain.LineKey) (service.CheckoutResult, error)
	ApplyCoupon(ctx context.Context, ownerID, code string) (service.CheckoutResult, error)
	RemoveCoupon(ctx context.Context, ownerID string) (service.CheckoutResult, error)
}

// CartHandler relies on the router's timeout middleware for request deadlines.
type CartHandler struct {
	svc    CheckoutService
	logger *zap.Logger
}

func NewCartHandler(svc CheckoutService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		svc:    svc,
		logger: logger,
	}
}

const maxQuantity = 99

func (h *CartHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.svc.Checkout(ctx, chi.URLParam(r, "owner_id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, mapResultToDTO(result))
}

func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req lineRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorDetails(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", err.Error())
		return
	}

	key, ok := parseLineKey(w, req.ProductID, req.VariantID, req.SizeLabel)
	if !ok {
		return
	}
	if req.Quantity <= 0 || req.Quantity > maxQuantity {
		respondErrorDetails(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99", strconv.Itoa(req.Quantity))
		return
	}

	result, err := h.svc.AddLine(ctx, chi.URLParam(r, "owner_id"), key, req.Quantity)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, mapResultToDTO(result))
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req lineRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorDetails(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", err.Error())
		return
	}

	key, ok := parseLineKey(w, req.ProductID, req.VariantID, req.SizeLabel)
	if !ok {
		return
	}
	if req.Quantity < 0 || req.Quantity > maxQuantity {
		respondErrorDetails(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99", strconv.Itoa(req.Quantity))
		return
	}

	result, err := h.svc.SetQuantity(ctx, chi.URLParam(r, "owner_id"), key, req.Quantity)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, mapResultToDTO(result))
}

// RemoveLine takes the line key from the query string.
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query()
	key, ok := parseLineKey(w, q.Get("product_id"), q.Get("variant_id"), q.Get("size_label"))
	if !ok {
		return
	}

	result, err := h.svc.RemoveLine(ctx, chi.URLParam(r, "owner_id"), key)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, mapResultToDTO(result))
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req couponRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorDetails(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", err.Error())
		return
	}

	result, err := h.svc.ApplyCoupon(ctx, chi.URLParam(r, "owner_id"), req.Code)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, mapResultToDTO(result))
}

func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.svc.RemoveCoupon(ctx, chi.URLParam(r, "owner_id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, mapResultToDTO(result))
}

func parseLineKey(w http.ResponseWriter, productID, variantID, sizeLabel string) (domain.LineKey, bool) {
	id, err := uuid.Parse(productID)
	if err != nil {
		respondErrorDetails(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a UUID", productID)
		return domain.LineKey{}, false
	}

	return domain.LineKey{ProductID: id, VariantID: variantID, SizeLabel: sizeLabel}, true
}

func (h *CartHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var rejection *engine.CouponRejection

	switch {
	case errors.As(err, &rejection):
		respondErrorDetails(w, http.StatusUnprocessableEntity, string(rejection.Reason), rejection.Message, rejectionDetails(rejection))
	case errors.Is(err, service.ErrStaleCartVersion):
		respondErrorDetails(w, http.StatusConflict, "stale_cart", "cart changed, please retry", err.Error())
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, service.ErrLineNotFound):
		respondErrorDetails(w, http.StatusNotFound, "line_not_found", "cart line not found", err.Error())
	case errors.Is(err, service.ErrProductNotFound):
		respondErrorDetails(w, http.StatusNotFound, "product_not_found", "product not found", err.Error())
	case errors.Is(err, engine.ErrVariantNotFound):
		respondErrorDetails(w, http.StatusNotFound, "variant_not_found", "variant not found", err.Error())
	case errors.Is(err, engine.ErrSizeNotFound):
		respondErrorDetails(w, http.StatusNotFound, "size_not_found", "size not found", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "checkout timed out")
	default:
		h.logger.Error("checkout request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "checkout_unavailable", "checkout is temporarily unavailable")
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondErrorDetails(w, status, code, message, "")
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// rejectionDetails names the cause of a failed coupon verification, or the
// rejection reason when the validator answered.
func rejectionDetails(rejection *engine.CouponRejection) string {
	if rejection.Err != nil {
		return rejection.Err.Error()
	}
	return string(rejection.Reason)
}
