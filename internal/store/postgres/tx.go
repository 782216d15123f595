package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorpulse/settler/internal/domain"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the
// same store code serves both transactional and read-side callers.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner implements domain.TxRunner over a pgx connection pool. The
// callback receives stores bound to one pgx.Tx; the transaction commits only
// when the callback returns nil and rolls back otherwise, so no partial
// settlement effect can ever be observed.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner creates a TxRunner backed by the given connection pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// InTx runs fn against transaction-bound stores. Infrastructure failures on
// begin/commit are tagged domain.ErrTransactionFailure so callers know a
// retry is safe; errors from fn propagate unchanged.
func (r *TxRunner) InTx(ctx context.Context, fn func(domain.Stores) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w (%w)", err, domain.ErrTransactionFailure)
	}

	stores := domain.Stores{
		Markets: &MarketStore{q: tx},
		Bets:    &BetStore{q: tx},
		Pools:   &PoolStore{q: tx},
		Ledger:  &LedgerStore{q: tx},
		Users:   &UserBalanceStore{q: tx},
	}

	if err := fn(stores); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w (%w)", err, domain.ErrTransactionFailure)
	}
	return nil
}

// Compile-time interface check.
var _ domain.TxRunner = (*TxRunner)(nil)
