package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorpulse/settler/internal/domain"
)

const ledgerCols = `id, kind, market_id, bet_id, user_id, stake, payout_per_unit, pool, amount, created_at`

// LedgerStore implements domain.LedgerStore using PostgreSQL. The ledger is
// append-only; there are no update or delete paths.
type LedgerStore struct {
	q querier
}

// NewLedgerStore creates a LedgerStore backed by the connection pool.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{q: pool}
}

// Append writes a single ledger entry.
func (s *LedgerStore) Append(ctx context.Context, e domain.LedgerEntry) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO ledger_entries (`+ledgerCols+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, string(e.Kind), e.MarketID, nullStr(e.BetID), nullStr(e.UserID),
		e.Stake, e.PayoutPerUnit, nullStr(string(e.Pool)), e.Amount, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: append ledger entry %s: %w", e.ID, err)
	}
	return nil
}

// ListByMarket returns the ledger entries written for a market, oldest first.
func (s *LedgerStore) ListByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerCols + ` FROM ledger_entries
		 WHERE market_id = $1
		 ORDER BY created_at ASC, id ASC`
	args := []any{marketID}
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, opts.Offset)
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ledger for market %s: %w", marketID, err)
	}
	defer rows.Close()
	return scanLedgerRows(rows)
}

// List returns the most recent entries, newest first.
func (s *LedgerStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.LedgerEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.q.Query(ctx,
		`SELECT `+ledgerCols+` FROM ledger_entries
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ledger: %w", err)
	}
	defer rows.Close()
	return scanLedgerRows(rows)
}

// ListBefore returns all entries created strictly before the cutoff, oldest
// first. Used by the archiver to export and page out old history.
func (s *LedgerStore) ListBefore(ctx context.Context, before time.Time) ([]domain.LedgerEntry, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+ledgerCols+` FROM ledger_entries
		 WHERE created_at < $1
		 ORDER BY created_at ASC, id ASC`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ledger before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()
	return scanLedgerRows(rows)
}

func scanLedgerRows(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		var (
			e                   domain.LedgerEntry
			kind                string
			betID, userID, pool *string
		)
		if err := rows.Scan(
			&e.ID, &kind, &e.MarketID, &betID, &userID,
			&e.Stake, &e.PayoutPerUnit, &pool, &e.Amount, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan ledger entry: %w", err)
		}
		e.Kind = domain.LedgerKind(kind)
		if betID != nil {
			e.BetID = *betID
		}
		if userID != nil {
			e.UserID = *userID
		}
		if pool != nil {
			e.Pool = domain.Pool(*pool)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: ledger rows: %w", err)
	}
	return entries, nil
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ domain.LedgerStore = (*LedgerStore)(nil)
