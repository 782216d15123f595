package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
	"github.com/creatorpulse/settler/internal/resolution"
)

// ResolutionService is what the resolution handler needs from the service
// layer.
type ResolutionService interface {
	Resolve(ctx context.Context, marketID, winningOption string, now time.Time) (resolution.Summary, error)
}

// ResolutionHandler serves the manual settlement endpoint.
type ResolutionHandler struct {
	resolutions ResolutionService
	logger      *slog.Logger
}

// NewResolutionHandler creates a ResolutionHandler.
func NewResolutionHandler(resolutions ResolutionService, logger *slog.Logger) *ResolutionHandler {
	return &ResolutionHandler{
		resolutions: resolutions,
		logger:      logger,
	}
}

// resolveRequest is the body of a manual resolution.
type resolveRequest struct {
	WinningOption string `json:"winning_option"`
}

// resolveResponse reports the tagged outcome plus the settlement summary on
// success.
type resolveResponse struct {
	Result  resolution.Result   `json:"result"`
	Summary *resolution.Summary `json:"summary,omitempty"`
}

// Resolve settles a market with the winning option given in the body.
// POST /api/markets/{id}/resolve
func (h *ResolutionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WinningOption == "" {
		writeError(w, http.StatusBadRequest, "missing winning_option")
		return
	}

	summary, err := h.resolutions.Resolve(r.Context(), id, req.WinningOption, time.Now().UTC())
	result := resolution.ResultOf(err)
	if err != nil {
		status := statusOf(err)
		if status == http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "handler: resolve failed",
				slog.String("market_id", id),
				slog.String("winning_option", req.WinningOption),
				slog.String("error", err.Error()),
			)
		}
		writeJSON(w, status, resolveResponse{Result: result})
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{Result: result, Summary: &summary})
}

// statusOf maps resolution errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyResolved):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOption), errors.Is(err, domain.ErrUnresolvableMarket):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
