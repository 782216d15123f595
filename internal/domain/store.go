package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// MarketStore provides read access to markets plus the single terminal
// mutation performed by the resolution coordinator.
type MarketStore interface {
	GetByID(ctx context.Context, id string) (Market, error)
	List(ctx context.Context, opts ListOpts) ([]Market, error)
	Count(ctx context.Context) (int64, error)

	// ListSettleable returns unresolved markets whose close time has passed
	// and that carry an AutoOutcome hint for the settlement scanner.
	ListSettleable(ctx context.Context, now time.Time) ([]Market, error)

	// MarkResolved flips resolved from false to true, sets the winning
	// option and resolvedAt, and forces closesAt back to now when it is
	// still in the future. The write is conditional on resolved = false:
	// implementations must return ErrAlreadyResolved when it affects zero
	// rows, so two concurrent resolutions cannot both succeed.
	MarkResolved(ctx context.Context, id, winningOption string, now time.Time) error
}

// BetStore provides read access to a market's bets and the write-once token
// payout column.
type BetStore interface {
	ListByMarket(ctx context.Context, marketID string) ([]Bet, error)
	SetTokenPayout(ctx context.Context, betID string, payout float64) error
}

// PoolStore persists the named treasury sub-pool balances.
type PoolStore interface {
	// Credit creates the named pool row with the given balance if absent,
	// else increments it. It is invoked exactly once per pool per resolution
	// inside the resolution transaction and nowhere else.
	Credit(ctx context.Context, pool Pool, amount float64) error
	Get(ctx context.Context, pool Pool) (PoolBalance, error)
	List(ctx context.Context) ([]PoolBalance, error)
}

// LedgerStore persists the append-only transaction ledger.
type LedgerStore interface {
	Append(ctx context.Context, e LedgerEntry) error
	ListByMarket(ctx context.Context, marketID string, opts ListOpts) ([]LedgerEntry, error)
	List(ctx context.Context, opts ListOpts) ([]LedgerEntry, error)

	// ListBefore returns entries created strictly before the cutoff, for
	// the archive exporter.
	ListBefore(ctx context.Context, before time.Time) ([]LedgerEntry, error)
}

// UserBalanceStore mutates the legacy points counter on user records. The
// account subsystem owns the rest of the user entity.
type UserBalanceStore interface {
	AddPoints(ctx context.Context, userID string, delta int64) error
	GetPoints(ctx context.Context, userID string) (int64, error)
}

// Stores bundles every store the resolution coordinator writes through. When
// obtained from TxRunner.InTx, all of them are bound to the same transaction.
type Stores struct {
	Markets MarketStore
	Bets    BetStore
	Pools   PoolStore
	Ledger  LedgerStore
	Users   UserBalanceStore
}

// TxRunner executes a function against transaction-bound stores. Every write
// made through the provided Stores commits atomically when fn returns nil and
// is rolled back entirely when it returns an error. This makes the
// all-or-nothing settlement contract structural rather than incidental.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Stores) error) error
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log of resolution attempts,
// distinct from the money ledger.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
