// Package resolution implements the settlement coordinator: the single place
// allowed to flip a market to resolved and to mutate bet payouts, pool
// balances, and user point counters as one atomic unit.
package resolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/creatorpulse/settler/internal/domain"
	"github.com/creatorpulse/settler/internal/payout"
)

// Summary reports what a successful resolution computed and wrote.
type Summary struct {
	MarketID      string
	WinningOption string
	ResolvedAt    time.Time
	Tokens        payout.TokenResult
	Legacy        payout.LegacyResult
}

// Result is the tagged outcome handed across the subsystem boundary. Callers
// get a plain-language reason instead of an internal error chain.
type Result struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// ResultOf translates a Resolve error into the boundary Result. A nil error
// is success. ErrAlreadyResolved is reported as its own reason so the
// settlement scheduler can treat it as terminal and stop retrying; anything
// unrecognized is reported as a retryable transaction failure.
func ResultOf(err error) Result {
	switch {
	case err == nil:
		return Result{Success: true}
	case errors.Is(err, domain.ErrNotFound):
		return Result{Reason: "market not found"}
	case errors.Is(err, domain.ErrAlreadyResolved):
		return Result{Reason: "market already resolved"}
	case errors.Is(err, domain.ErrInvalidOption):
		return Result{Reason: "winning option is not one of the market's options"}
	case errors.Is(err, domain.ErrUnresolvableMarket):
		return Result{Reason: "only two-option markets can be resolved"}
	default:
		return Result{Reason: "transaction failed, safe to retry"}
	}
}

// Coordinator validates resolution preconditions, runs both payout
// calculators against a single snapshot, and executes the full write set in
// one transaction.
type Coordinator struct {
	tx     domain.TxRunner
	fees   payout.FeeConfig
	logger *slog.Logger
}

// NewCoordinator creates a Coordinator. The fee config is fixed at
// construction; callers pass payout.DefaultFeeConfig() unless the operator
// overrode the schedule in configuration.
func NewCoordinator(tx domain.TxRunner, fees payout.FeeConfig, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		tx:     tx,
		fees:   fees,
		logger: logger.With(slog.String("component", "resolution")),
	}
}

// Resolve settles the market identified by marketID with the given winning
// option. It is idempotent from the caller's perspective: a second attempt
// fails with domain.ErrAlreadyResolved and writes nothing.
//
// Preconditions are checked in order, short-circuiting on the first failure:
// market exists, market not already resolved, option is declared. All writes
// happen inside one transaction; any failure aborts every effect.
func (c *Coordinator) Resolve(ctx context.Context, marketID, winningOption string, now time.Time) (Summary, error) {
	var summary Summary

	err := c.tx.InTx(ctx, func(s domain.Stores) error {
		market, err := s.Markets.GetByID(ctx, marketID)
		if err != nil {
			return err
		}
		if market.Resolved {
			return domain.ErrAlreadyResolved
		}
		if !market.Resolvable() {
			return domain.ErrUnresolvableMarket
		}
		if !market.HasOption(winningOption) {
			return domain.ErrInvalidOption
		}

		// Single consistent snapshot: the market row above plus its bets.
		// Everything downstream computes from these values; no step re-reads
		// or re-derives aggregate totals.
		bets, err := s.Bets.ListByMarket(ctx, marketID)
		if err != nil {
			return err
		}

		losingOption := market.Options[0]
		if losingOption == winningOption {
			losingOption = market.Options[1]
		}
		tokens := payout.Tokens(c.fees,
			market.TokenPool(winningOption), market.TokenPool(losingOption),
			winningOption, bets)
		legacy := payout.Legacy(c.fees, market.Pot, winningOption, bets)

		// The conditional write on resolved = false is the serialization
		// point: of two concurrent transactions, exactly one sees a row to
		// update and the other aborts here with ErrAlreadyResolved.
		if err := s.Markets.MarkResolved(ctx, marketID, winningOption, now); err != nil {
			return err
		}

		for _, p := range tokens.Payouts {
			if err := s.Bets.SetTokenPayout(ctx, p.BetID, p.Payout); err != nil {
				return err
			}
			if err := s.Ledger.Append(ctx, domain.LedgerEntry{
				ID:            uuid.New().String(),
				Kind:          domain.LedgerPayout,
				MarketID:      marketID,
				BetID:         p.BetID,
				UserID:        p.UserID,
				Stake:         p.Stake,
				PayoutPerUnit: tokens.PayoutPerUnit,
				Amount:        p.Payout,
				CreatedAt:     now,
			}); err != nil {
				return err
			}
		}

		// Legacy shares mutate the running counter on the user record; the
		// ledger carries no per-bet row for this leg, matching how balances
		// were kept before the token system existed.
		for _, share := range legacy.Shares {
			if err := s.Users.AddPoints(ctx, share.UserID, share.Share); err != nil {
				return err
			}
		}

		for _, pool := range domain.FeePools {
			if err := c.creditPool(ctx, s, marketID, pool, tokens.FeeShares[pool], now); err != nil {
				return err
			}
		}
		// The duplicate wheel balance is credited in the same transaction so
		// the two can never drift, even across a crash.
		if err := c.creditPool(ctx, s, marketID, domain.PoolWheelLegacy,
			tokens.FeeShares[domain.PoolWheel], now); err != nil {
			return err
		}

		summary = Summary{
			MarketID:      marketID,
			WinningOption: winningOption,
			ResolvedAt:    now,
			Tokens:        tokens,
			Legacy:        legacy,
		}
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("resolution: resolve market %s: %w", marketID, err)
	}

	c.logger.InfoContext(ctx, "market resolved",
		slog.String("market_id", marketID),
		slog.String("winning_option", winningOption),
		slog.Float64("platform_fee", summary.Tokens.PlatformFee),
		slog.Float64("win_pool", summary.Tokens.WinPool),
		slog.Int("token_payouts", len(summary.Tokens.Payouts)),
		slog.Int("legacy_shares", len(summary.Legacy.Shares)),
		slog.Int64("legacy_drift", summary.Legacy.PayoutPot-summary.Legacy.Distributed),
	)

	return summary, nil
}

// creditPool upserts one pool balance and appends the matching fee ledger
// row so every credited pool has a matching ledger entry.
func (c *Coordinator) creditPool(ctx context.Context, s domain.Stores, marketID string, pool domain.Pool, amount float64, now time.Time) error {
	if err := s.Pools.Credit(ctx, pool, amount); err != nil {
		return err
	}
	return s.Ledger.Append(ctx, domain.LedgerEntry{
		ID:        uuid.New().String(),
		Kind:      domain.LedgerFeeCredit,
		MarketID:  marketID,
		Pool:      pool,
		Amount:    amount,
		CreatedAt: now,
	})
}
