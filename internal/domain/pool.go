package domain

import "time"

// Pool names the treasury sub-pools credited by fee fan-out.
type Pool string

const (
	PoolLeaderboard Pool = "leaderboard"
	PoolReferral    Pool = "referral"
	PoolWheel       Pool = "wheel"
	PoolTreasury    Pool = "treasury"

	// PoolWheelLegacy is the duplicate wheel balance an older spin feature
	// still reads. It must stay numerically in sync with PoolWheel: both are
	// credited the same amount on every fee event.
	PoolWheelLegacy Pool = "wheel_legacy"
)

// FeePools lists the canonical fee fan-out targets in credit order.
// PoolWheelLegacy is not part of the split; it mirrors PoolWheel.
var FeePools = []Pool{PoolLeaderboard, PoolReferral, PoolWheel, PoolTreasury}

// PoolBalance is a named running balance. Within the settlement subsystem a
// balance only ever increases, via fee distribution.
type PoolBalance struct {
	Pool      Pool
	Balance   float64
	UpdatedAt time.Time
}
