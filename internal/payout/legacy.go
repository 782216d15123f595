package payout

import (
	"math"

	"github.com/creatorpulse/settler/internal/domain"
)

// LegacyShare is one winning bet's floored share of the legacy payout pot.
type LegacyShare struct {
	BetID  string
	UserID string
	Stake  int64
	Share  int64
}

// LegacyResult is the legacy points-system settlement for one market.
type LegacyResult struct {
	HouseFee          int64
	PayoutPot         int64
	TotalWinningStake int64
	Shares            []LegacyShare
	Distributed       int64
}

// Legacy settles the points/stars pot layered on the same market. The pot is
// taxed independently of the token pool: houseFee = floor(pot * rate), and
// each winning bet receives floor(stake/totalWinningStake * payoutPot).
//
// Flooring means the distributed total may fall short of the payout pot by up
// to one unit per winning bet. That drift is retained, not redistributed.
func Legacy(cfg FeeConfig, pot int64, winningOption string, bets []domain.Bet) LegacyResult {
	res := LegacyResult{
		HouseFee: int64(math.Floor(float64(pot) * cfg.LegacyHouseFeeRate)),
	}
	res.PayoutPot = pot - res.HouseFee

	for _, b := range bets {
		if b.Option != winningOption {
			continue
		}
		res.TotalWinningStake += b.LegacyStake()
	}

	if res.TotalWinningStake == 0 {
		return res
	}

	for _, b := range bets {
		if b.Option != winningOption {
			continue
		}
		stake := b.LegacyStake()
		if stake <= 0 {
			continue
		}
		share := int64(math.Floor(float64(stake) / float64(res.TotalWinningStake) * float64(res.PayoutPot)))
		res.Shares = append(res.Shares, LegacyShare{
			BetID:  b.ID,
			UserID: b.UserID,
			Stake:  stake,
			Share:  share,
		})
		res.Distributed += share
	}

	return res
}
