package domain

import "time"

// LedgerKind discriminates ledger entry types.
type LedgerKind string

const (
	// LedgerPayout records a token payout to a winning bet.
	LedgerPayout LedgerKind = "payout"
	// LedgerFeeCredit records a fee share credited to a treasury sub-pool.
	LedgerFeeCredit LedgerKind = "fee_credit"
)

// LedgerEntry is one append-only row in the transaction ledger. Entries are
// never updated or deleted; displayed balances are derived from them and the
// recorded stake and ratio are enough to reconstruct the payout arithmetic
// after the fact.
type LedgerEntry struct {
	ID       string
	Kind     LedgerKind
	MarketID string

	// Payout fields (Kind == LedgerPayout).
	BetID         string
	UserID        string
	Stake         float64
	PayoutPerUnit float64

	// Fee fields (Kind == LedgerFeeCredit).
	Pool Pool

	Amount    float64
	CreatedAt time.Time
}
