// Package service composes the settlement core with caching, locking,
// auditing and notification side channels.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
	"github.com/creatorpulse/settler/internal/resolution"
)

// SettlementChannel is the event bus channel settlement events are published
// on.
const SettlementChannel = "settlements"

// lockTTL bounds how long a crashed resolver can keep a market locked.
const lockTTL = 30 * time.Second

// Notifier is the slice of the notification system the resolution service
// uses.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// SettlementEvent is the payload published on the event bus and pushed to
// websocket clients after a successful resolution.
type SettlementEvent struct {
	MarketID      string    `json:"market_id"`
	WinningOption string    `json:"winning_option"`
	ResolvedAt    time.Time `json:"resolved_at"`
	TotalPool     float64   `json:"total_pool"`
	PlatformFee   float64   `json:"platform_fee"`
	PayoutPerUnit float64   `json:"payout_per_unit"`
	WinnerCount   int       `json:"winner_count"`
}

// ResolutionService wraps the resolution coordinator with a per-market
// distributed lock, cache invalidation, audit logging and event fan-out.
// Only the coordinator's transactional write decides correctness; everything
// this service adds is advisory or after the fact.
type ResolutionService struct {
	coordinator *resolution.Coordinator
	locks       domain.LockManager
	cache       domain.MarketCache
	audit       domain.AuditStore
	events      domain.EventBus
	notifier    Notifier
	logger      *slog.Logger
}

// NewResolutionService creates a ResolutionService. The locks, cache, audit,
// events and notifier dependencies may each be nil; the corresponding side
// effect is skipped.
func NewResolutionService(
	coordinator *resolution.Coordinator,
	locks domain.LockManager,
	cache domain.MarketCache,
	audit domain.AuditStore,
	events domain.EventBus,
	notifier Notifier,
	logger *slog.Logger,
) *ResolutionService {
	return &ResolutionService{
		coordinator: coordinator,
		locks:       locks,
		cache:       cache,
		audit:       audit,
		events:      events,
		notifier:    notifier,
		logger:      logger.With(slog.String("component", "resolution_service")),
	}
}

// Resolve settles a market. The per-market lock turns concurrent duplicate
// requests away early with domain.ErrAlreadyResolved; requests that do reach
// the coordinator are still serialized by its conditional resolved-flag
// write, so the lock being unavailable never compromises exactly-once.
func (s *ResolutionService) Resolve(ctx context.Context, marketID, winningOption string, now time.Time) (resolution.Summary, error) {
	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, "market:"+marketID, lockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				return resolution.Summary{}, domain.ErrAlreadyResolved
			}
			s.logger.WarnContext(ctx, "lock acquire failed, proceeding without lock",
				slog.String("market_id", marketID),
				slog.String("error", err.Error()),
			)
		} else {
			defer unlock()
		}
	}

	summary, err := s.coordinator.Resolve(ctx, marketID, winningOption, now)
	s.writeAudit(ctx, marketID, winningOption, err)
	if err != nil {
		return resolution.Summary{}, err
	}

	s.afterResolve(ctx, summary)
	return summary, nil
}

// writeAudit records the attempt outcome. Audit failures are logged, never
// surfaced; the ledger inside the transaction is the authoritative record.
func (s *ResolutionService) writeAudit(ctx context.Context, marketID, winningOption string, resolveErr error) {
	if s.audit == nil {
		return
	}
	res := resolution.ResultOf(resolveErr)
	detail := map[string]any{
		"market_id":      marketID,
		"winning_option": winningOption,
		"success":        res.Success,
	}
	if res.Reason != "" {
		detail["reason"] = res.Reason
	}
	if err := s.audit.Log(ctx, "market.resolve", detail); err != nil {
		s.logger.WarnContext(ctx, "audit log failed",
			slog.String("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}
}

// afterResolve runs the non-transactional side effects of a successful
// settlement. Each is best effort.
func (s *ResolutionService) afterResolve(ctx context.Context, summary resolution.Summary) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, summary.MarketID); err != nil {
			s.logger.WarnContext(ctx, "cache invalidate failed",
				slog.String("market_id", summary.MarketID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.events != nil {
		event := SettlementEvent{
			MarketID:      summary.MarketID,
			WinningOption: summary.WinningOption,
			ResolvedAt:    summary.ResolvedAt,
			TotalPool:     summary.Tokens.TotalPool,
			PlatformFee:   summary.Tokens.PlatformFee,
			PayoutPerUnit: summary.Tokens.PayoutPerUnit,
			WinnerCount:   len(summary.Tokens.Payouts),
		}
		payload, err := json.Marshal(event)
		if err == nil {
			err = s.events.Publish(ctx, SettlementChannel, payload)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "settlement event publish failed",
				slog.String("market_id", summary.MarketID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.notifier != nil {
		msg := "Market " + summary.MarketID + " resolved: " + summary.WinningOption
		if err := s.notifier.Notify(ctx, "market_resolved", "Market resolved", msg); err != nil {
			s.logger.WarnContext(ctx, "notify failed",
				slog.String("market_id", summary.MarketID),
				slog.String("error", err.Error()),
			)
		}
	}
}
