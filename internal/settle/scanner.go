// Package settle runs the background scanner that auto-resolves markets
// whose close time has passed and that carry an auto-outcome hint.
package settle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
	"github.com/creatorpulse/settler/internal/resolution"
)

// Resolver is the slice of the resolution service the scanner calls.
type Resolver interface {
	Resolve(ctx context.Context, marketID, winningOption string, now time.Time) (resolution.Summary, error)
}

// MarketSource lists markets eligible for automatic settlement.
type MarketSource interface {
	ListSettleable(ctx context.Context, now time.Time) ([]domain.Market, error)
}

// Scanner periodically settles due markets. Losing a race against a manual
// resolution is normal operation, not a failure.
type Scanner struct {
	markets  MarketSource
	resolver Resolver
	interval time.Duration
	logger   *slog.Logger
}

// NewScanner creates a Scanner ticking at the given interval.
func NewScanner(markets MarketSource, resolver Resolver, interval time.Duration, logger *slog.Logger) *Scanner {
	return &Scanner{
		markets:  markets,
		resolver: resolver,
		interval: interval,
		logger:   logger.With(slog.String("component", "settle_scanner")),
	}
}

// Run scans immediately and then on every tick until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "scanner started",
		slog.Duration("interval", s.interval),
	)

	s.Scan(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "scanner stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan settles every currently due market once. Individual failures are
// logged and do not stop the sweep.
func (s *Scanner) Scan(ctx context.Context) {
	now := time.Now().UTC()

	due, err := s.markets.ListSettleable(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "list settleable markets failed",
			slog.String("error", err.Error()),
		)
		return
	}

	for _, m := range due {
		if m.AutoOutcome == "" {
			continue
		}

		_, err := s.resolver.Resolve(ctx, m.ID, m.AutoOutcome, now)
		switch {
		case err == nil:
			s.logger.InfoContext(ctx, "market auto-resolved",
				slog.String("market_id", m.ID),
				slog.String("winning_option", m.AutoOutcome),
			)
		case errors.Is(err, domain.ErrAlreadyResolved):
			// Someone else settled it first; terminal, nothing to retry.
			s.logger.DebugContext(ctx, "market already resolved",
				slog.String("market_id", m.ID),
			)
		default:
			s.logger.ErrorContext(ctx, "auto-resolve failed",
				slog.String("market_id", m.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}
