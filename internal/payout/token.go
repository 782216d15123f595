// Package payout contains the pure settlement arithmetic for both currency
// systems: the token-weighted pool and the legacy points/stars pot. Both
// calculators operate on a snapshot handed in by the caller and touch no
// storage, so every property down to rounding is unit-testable.
package payout

import (
	"fmt"
	"math"

	"github.com/creatorpulse/settler/internal/domain"
)

// feeSplitEpsilon bounds the float drift tolerated when checking that the
// fan-out fractions sum to 1.0.
const feeSplitEpsilon = 1e-9

// FeeConfig carries the fee rates and fan-out fractions used at settlement.
// Values are fixed at construction time; nothing reads process environment at
// call time.
type FeeConfig struct {
	// PlatformFeeRate is the tax levied on the losing side's token stake.
	// Winners are never taxed.
	PlatformFeeRate float64 `toml:"platform_fee_rate"`

	// LegacyHouseFeeRate is the separate tax on the legacy pot.
	LegacyHouseFeeRate float64 `toml:"legacy_house_fee_rate"`

	// Fan-out fractions. They must sum to exactly 1.0 so the fee splits
	// conserve total value.
	LeaderboardShare float64 `toml:"leaderboard_share"`
	ReferralShare    float64 `toml:"referral_share"`
	WheelShare       float64 `toml:"wheel_share"`
	TreasuryShare    float64 `toml:"treasury_share"`
}

// DefaultFeeConfig returns the production fee schedule.
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		PlatformFeeRate:    0.10,
		LegacyHouseFeeRate: 0.05,
		LeaderboardShare:   0.15,
		ReferralShare:      0.10,
		WheelShare:         0.05,
		TreasuryShare:      0.70,
	}
}

// Validate checks rate ranges and that fan-out fractions sum to one.
func (c FeeConfig) Validate() error {
	if c.PlatformFeeRate < 0 || c.PlatformFeeRate >= 1 {
		return fmt.Errorf("payout: platform_fee_rate must be in [0,1), got %v", c.PlatformFeeRate)
	}
	if c.LegacyHouseFeeRate < 0 || c.LegacyHouseFeeRate >= 1 {
		return fmt.Errorf("payout: legacy_house_fee_rate must be in [0,1), got %v", c.LegacyHouseFeeRate)
	}
	sum := c.LeaderboardShare + c.ReferralShare + c.WheelShare + c.TreasuryShare
	if math.Abs(sum-1.0) > feeSplitEpsilon {
		return fmt.Errorf("payout: fee fan-out fractions must sum to 1.0, got %v", sum)
	}
	return nil
}

// Share returns the fan-out fraction for the given pool. The legacy wheel
// duplicate mirrors the wheel share.
func (c FeeConfig) Share(pool domain.Pool) float64 {
	switch pool {
	case domain.PoolLeaderboard:
		return c.LeaderboardShare
	case domain.PoolReferral:
		return c.ReferralShare
	case domain.PoolWheel, domain.PoolWheelLegacy:
		return c.WheelShare
	case domain.PoolTreasury:
		return c.TreasuryShare
	default:
		return 0
	}
}

// TokenPayout is one winning bet's computed token payout.
type TokenPayout struct {
	BetID  string
	UserID string
	Stake  float64
	Payout float64
}

// TokenResult is the full token-system settlement for one market.
type TokenResult struct {
	TotalPool     float64
	PlatformFee   float64
	WinPool       float64
	PayoutPerUnit float64
	Payouts       []TokenPayout
	FeeShares     map[domain.Pool]float64
}

// Tokens settles the token pool. winningTotal and losingTotal are the
// aggregate per-option pool totals from the market snapshot; bets is the full
// bet list, from which winning token bets are selected.
//
// When nobody staked tokens on the winning side the fee is still levied and
// fanned out, no payouts are issued, and the win pool is left stranded in the
// pool accounting. That behavior is preserved deliberately; whether the
// stranded value should roll into the treasury is an open product question.
func Tokens(cfg FeeConfig, winningTotal, losingTotal float64, winningOption string, bets []domain.Bet) TokenResult {
	res := TokenResult{
		TotalPool:   winningTotal + losingTotal,
		PlatformFee: losingTotal * cfg.PlatformFeeRate,
		FeeShares:   make(map[domain.Pool]float64, len(domain.FeePools)),
	}
	res.WinPool = res.TotalPool - res.PlatformFee

	if winningTotal > 0 {
		res.PayoutPerUnit = res.WinPool / winningTotal
		for _, b := range bets {
			if b.Option != winningOption || b.TokenStake <= 0 {
				continue
			}
			res.Payouts = append(res.Payouts, TokenPayout{
				BetID:  b.ID,
				UserID: b.UserID,
				Stake:  b.TokenStake,
				Payout: b.TokenStake * res.PayoutPerUnit,
			})
		}
	}

	for _, pool := range domain.FeePools {
		res.FeeShares[pool] = res.PlatformFee * cfg.Share(pool)
	}

	return res
}
