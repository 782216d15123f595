package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
)

// LedgerService is what the ledger handler needs from the service layer.
type LedgerService interface {
	ListLedger(ctx context.Context, opts domain.ListOpts) ([]domain.LedgerEntry, error)
	ListLedgerByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.LedgerEntry, error)
	ListAudit(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error)
}

// LedgerHandler serves the transaction ledger, audit log and archive
// endpoints. The archiver and archive reader may be nil when blob storage is
// not configured.
type LedgerHandler struct {
	ledger   LedgerService
	archiver domain.Archiver
	archives domain.BlobReader
	logger   *slog.Logger
}

// NewLedgerHandler creates a LedgerHandler.
func NewLedgerHandler(ledger LedgerService, archiver domain.Archiver, archives domain.BlobReader, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledger:   ledger,
		archiver: archiver,
		archives: archives,
		logger:   logger,
	}
}

// ListLedger returns recent ledger entries.
// GET /api/ledger?limit=50&offset=0
func (h *LedgerHandler) ListLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.ListLedger(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list ledger failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list ledger")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// ListMarketLedger returns the ledger entries written for one market.
// GET /api/markets/{id}/ledger
func (h *LedgerHandler) ListMarketLedger(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	entries, err := h.ledger.ListLedgerByMarket(r.Context(), id, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list market ledger failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list ledger")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"market_id": id, "entries": entries})
}

// ListAudit returns audit log entries.
// GET /api/audit?limit=50&since=2026-01-01T00:00:00Z
func (h *LedgerHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.ListAudit(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list audit failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list audit log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// ListArchives enumerates ledger archive exports in blob storage.
// GET /api/archives
func (h *LedgerHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	if h.archives == nil {
		writeError(w, http.StatusNotImplemented, "archive storage not configured")
		return
	}

	infos, err := h.archives.List(r.Context(), "archive/ledger/")
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list archives failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list archives")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"archives": infos})
}

// archiveRequest is the body of a manual archive trigger.
type archiveRequest struct {
	Before time.Time `json:"before"`
}

// TriggerArchive exports ledger entries older than the given cutoff to blob
// storage.
// POST /api/ledger/archive
func (h *LedgerHandler) TriggerArchive(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		writeError(w, http.StatusNotImplemented, "archive storage not configured")
		return
	}

	var req archiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Before.IsZero() {
		writeError(w, http.StatusBadRequest, "missing before cutoff")
		return
	}

	count, err := h.archiver.ArchiveLedger(r.Context(), req.Before)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: archive ledger failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to archive ledger")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"archived": count,
		"before":   req.Before.Format(time.RFC3339),
	})
}
