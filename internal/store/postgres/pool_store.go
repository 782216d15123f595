package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorpulse/settler/internal/domain"
)

// PoolStore implements domain.PoolStore using PostgreSQL. Balances are
// upsert-incremented so the first credit to a pool creates its row.
type PoolStore struct {
	q querier
}

// NewPoolStore creates a PoolStore backed by the connection pool.
func NewPoolStore(pool *pgxpool.Pool) *PoolStore {
	return &PoolStore{q: pool}
}

// Credit adds amount to the pool's balance, creating the row if absent.
func (s *PoolStore) Credit(ctx context.Context, pool domain.Pool, amount float64) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO pool_balances (pool, balance, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (pool)
		 DO UPDATE SET balance = pool_balances.balance + EXCLUDED.balance,
		               updated_at = NOW()`,
		string(pool), amount)
	if err != nil {
		return fmt.Errorf("postgres: credit pool %s: %w", pool, err)
	}
	return nil
}

// Get returns a single pool balance.
func (s *PoolStore) Get(ctx context.Context, pool domain.Pool) (domain.PoolBalance, error) {
	var pb domain.PoolBalance
	err := s.q.QueryRow(ctx,
		`SELECT pool, balance, updated_at FROM pool_balances WHERE pool = $1`,
		string(pool)).Scan(&pb.Pool, &pb.Balance, &pb.UpdatedAt)
	if err == pgx.ErrNoRows {
		return domain.PoolBalance{}, fmt.Errorf("postgres: pool %s: %w", pool, domain.ErrNotFound)
	}
	if err != nil {
		return domain.PoolBalance{}, fmt.Errorf("postgres: get pool %s: %w", pool, err)
	}
	return pb, nil
}

// List returns all pool balances ordered by pool name.
func (s *PoolStore) List(ctx context.Context) ([]domain.PoolBalance, error) {
	rows, err := s.q.Query(ctx,
		`SELECT pool, balance, updated_at FROM pool_balances ORDER BY pool`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pools: %w", err)
	}
	defer rows.Close()

	var balances []domain.PoolBalance
	for rows.Next() {
		var pb domain.PoolBalance
		if err := rows.Scan(&pb.Pool, &pb.Balance, &pb.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan pool balance: %w", err)
		}
		balances = append(balances, pb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list pools rows: %w", err)
	}
	return balances, nil
}

var _ domain.PoolStore = (*PoolStore)(nil)
