package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogInvalidator drops cached catalog records.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context, ids ...uuid.UUID) error
}

// CatalogHandler receives change notifications from the storefront so a
// deleted or repriced product is not served from cache until it expires.
type CatalogHandler struct {
	cache  CatalogInvalidator
	logger *zap.Logger
}

func NewCatalogHandler(cache CatalogInvalidator, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		cache:  cache,
		logger: logger,
	}
}

type invalidateRequestDTO struct {
	ProductIDs []string `json:"product_ids"`
}

func (h *CatalogHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorDetails(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", err.Error())
		return
	}
	if len(req.ProductIDs) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "product_ids is empty")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.ProductIDs))
	for _, raw := range req.ProductIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondErrorDetails(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a UUID", raw)
			return
		}
		ids = append(ids, id)
	}

	if err := h.cache.Invalidate(r.Context(), ids...); err != nil {
		h.logger.Error("catalog invalidation failed", zap.Int("count", len(ids)), zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "cache_unavailable", "catalog cache is unavailable")
		return
	}

	h.logger.Info("catalog records invalidated", zap.Int("count", len(ids)))
	w.WriteHeader(http.StatusNoContent)
}
