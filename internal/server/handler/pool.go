package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/creatorpulse/settler/internal/domain"
)

// PoolService is what the pool handler needs from the service layer.
type PoolService interface {
	ListPools(ctx context.Context) ([]domain.PoolBalance, error)
	GetPool(ctx context.Context, pool domain.Pool) (domain.PoolBalance, error)
}

// PoolHandler serves treasury pool read endpoints.
type PoolHandler struct {
	pools  PoolService
	logger *slog.Logger
}

// NewPoolHandler creates a PoolHandler.
func NewPoolHandler(pools PoolService, logger *slog.Logger) *PoolHandler {
	return &PoolHandler{
		pools:  pools,
		logger: logger,
	}
}

// ListPools returns every pool balance.
// GET /api/pools
func (h *PoolHandler) ListPools(w http.ResponseWriter, r *http.Request) {
	balances, err := h.pools.ListPools(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list pools failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list pools")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pools": balances})
}

// GetPool returns one pool balance by name.
// GET /api/pools/{pool}
func (h *PoolHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "pool")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing pool name")
		return
	}

	pb, err := h.pools.GetPool(r.Context(), domain.Pool(name))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "pool not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get pool failed",
			slog.String("pool", name),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get pool")
		return
	}
	writeJSON(w, http.StatusOK, pb)
}
