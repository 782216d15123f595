package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorpulse/settler/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	q querier
}

// NewMarketStore creates a read-side MarketStore backed by the connection
// pool. Transaction-bound instances are created by TxRunner.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{q: pool}
}

const marketCols = `id, question, options, token_pools, pot,
	resolved, winning_option, resolved_at, auto_outcome,
	closes_at, created_at, updated_at`

// scanMarket scans a single market row into a domain.Market.
func scanMarket(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	var winningOption, autoOutcome *string
	err := row.Scan(
		&m.ID, &m.Question, &m.Options, &m.TokenPools, &m.Pot,
		&m.Resolved, &winningOption, &m.ResolvedAt, &autoOutcome,
		&m.ClosesAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}
	if winningOption != nil {
		m.WinningOption = *winningOption
	}
	if autoOutcome != nil {
		m.AutoOutcome = *autoOutcome
	}
	return m, nil
}

// GetByID retrieves a market by its primary key.
func (s *MarketStore) GetByID(ctx context.Context, id string) (domain.Market, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %s: %w", id, err)
	}
	return m, nil
}

// List returns markets with pagination and optional time filtering, newest
// first.
func (s *MarketStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list markets rows: %w", err)
	}
	return markets, nil
}

// Count returns the total number of markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.q.QueryRow(ctx, "SELECT COUNT(*) FROM markets").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}

// ListSettleable returns unresolved markets whose close time has passed and
// that carry an auto-outcome hint, oldest close first.
func (s *MarketStore) ListSettleable(ctx context.Context, now time.Time) ([]domain.Market, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+marketCols+` FROM markets
		 WHERE resolved = FALSE
		   AND auto_outcome IS NOT NULL
		   AND closes_at <= $1
		 ORDER BY closes_at ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("postgres: list settleable markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan settleable market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list settleable markets rows: %w", err)
	}
	return markets, nil
}

// MarkResolved flips resolved from false to true. The WHERE resolved = FALSE
// guard plus the affected-row check makes the flip a compare-and-swap: of two
// concurrent transactions, exactly one updates a row and the other gets
// domain.ErrAlreadyResolved.
func (s *MarketStore) MarkResolved(ctx context.Context, id, winningOption string, now time.Time) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE markets
		 SET resolved = TRUE,
		     winning_option = $2,
		     resolved_at = $3,
		     closes_at = LEAST(closes_at, $3),
		     updated_at = NOW()
		 WHERE id = $1 AND resolved = FALSE`,
		id, winningOption, now)
	if err != nil {
		return fmt.Errorf("postgres: mark market %s resolved: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Zero rows: distinguish a missing market from a lost race.
	var exists bool
	if err := s.q.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM markets WHERE id = $1)", id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("postgres: check market %s: %w", id, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrAlreadyResolved
}

// Compile-time interface check.
var _ domain.MarketStore = (*MarketStore)(nil)
