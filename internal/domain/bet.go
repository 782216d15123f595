package domain

import "time"

// StakeKind discriminates the currency a bet was placed in.
type StakeKind string

const (
	StakeToken        StakeKind = "token"
	StakeLegacyStars  StakeKind = "legacy_stars"
	StakeLegacyPoints StakeKind = "legacy_points"
)

// Stake is a tagged amount in exactly one currency system. The storage layer
// still carries three columns for backward compatibility; NewStake collapses
// them into a single variant with the stars-over-points preference applied.
type Stake struct {
	Kind   StakeKind
	Tokens float64 // set only when Kind == StakeToken
	Units  int64   // set for the legacy kinds
}

// NewStake builds the Stake variant from the three raw stake columns.
// Stars win over points when both are present; the two legacy currencies are
// mutually exclusive in practice and collapse into one stake here.
func NewStake(tokens float64, stars, points int64) Stake {
	switch {
	case tokens > 0:
		return Stake{Kind: StakeToken, Tokens: tokens}
	case stars > 0:
		return Stake{Kind: StakeLegacyStars, Units: stars}
	default:
		return Stake{Kind: StakeLegacyPoints, Units: points}
	}
}

// IsLegacy reports whether the stake is denominated in a legacy currency.
func (s Stake) IsLegacy() bool {
	return s.Kind == StakeLegacyStars || s.Kind == StakeLegacyPoints
}

// Bet is a single user's stake on one market option. Bets are immutable
// except for the write-once token payout set by the resolution coordinator.
type Bet struct {
	ID       string
	MarketID string
	UserID   string
	Option   string

	// Raw stake columns as recorded at placement time. TokenStake and the
	// legacy pair never appear together on the same bet in practice.
	TokenStake  float64
	StarsStake  int64
	PointsStake int64

	// TokenPayout is written exactly once, for winning token bets.
	TokenPayout float64

	CreatedAt time.Time
}

// Stake returns the bet's stake as a tagged variant.
func (b Bet) Stake() Stake {
	return NewStake(b.TokenStake, b.StarsStake, b.PointsStake)
}

// LegacyStake returns the bet's legacy stake units (stars preferred over
// points), or 0 for token bets.
func (b Bet) LegacyStake() int64 {
	s := b.Stake()
	if !s.IsLegacy() {
		return 0
	}
	return s.Units
}
