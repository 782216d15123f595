package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorpulse/settler/internal/domain"
)

// UserBalanceStore implements domain.UserBalanceStore using PostgreSQL.
// Point balances are upsert-incremented; a payout to a new user creates
// their balance row.
type UserBalanceStore struct {
	q querier
}

// NewUserBalanceStore creates a UserBalanceStore backed by the connection pool.
func NewUserBalanceStore(pool *pgxpool.Pool) *UserBalanceStore {
	return &UserBalanceStore{q: pool}
}

// AddPoints adds amount to the user's point balance.
func (s *UserBalanceStore) AddPoints(ctx context.Context, userID string, amount int64) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO user_balances (user_id, points, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id)
		 DO UPDATE SET points = user_balances.points + EXCLUDED.points,
		               updated_at = NOW()`,
		userID, amount)
	if err != nil {
		return fmt.Errorf("postgres: add %d points to user %s: %w", amount, userID, err)
	}
	return nil
}

// GetPoints returns the user's current point balance. Unknown users have zero.
func (s *UserBalanceStore) GetPoints(ctx context.Context, userID string) (int64, error) {
	var points int64
	err := s.q.QueryRow(ctx,
		`SELECT points FROM user_balances WHERE user_id = $1`, userID).Scan(&points)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: get points for user %s: %w", userID, err)
	}
	return points, nil
}

var _ domain.UserBalanceStore = (*UserBalanceStore)(nil)
