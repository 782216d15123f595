package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorpulse/settler/internal/domain"
)

// BetStore implements domain.BetStore using PostgreSQL. Bets are written by
// the betting subsystem; this store only reads them and sets the write-once
// token payout column.
type BetStore struct {
	q querier
}

// NewBetStore creates a read-side BetStore backed by the connection pool.
func NewBetStore(pool *pgxpool.Pool) *BetStore {
	return &BetStore{q: pool}
}

// ListByMarket returns all bets on a market in placement order.
func (s *BetStore) ListByMarket(ctx context.Context, marketID string) ([]domain.Bet, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, market_id, user_id, option,
		        token_stake, stars_stake, points_stake, token_payout, created_at
		 FROM bets
		 WHERE market_id = $1
		 ORDER BY created_at ASC, id ASC`, marketID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets for market %s: %w", marketID, err)
	}
	defer rows.Close()

	var bets []domain.Bet
	for rows.Next() {
		var b domain.Bet
		if err := rows.Scan(
			&b.ID, &b.MarketID, &b.UserID, &b.Option,
			&b.TokenStake, &b.StarsStake, &b.PointsStake, &b.TokenPayout, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan bet: %w", err)
		}
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list bets rows: %w", err)
	}
	return bets, nil
}

// SetTokenPayout writes the bet's payout column. The write is guarded to
// only ever go from zero to a value; a bet is paid at most once.
func (s *BetStore) SetTokenPayout(ctx context.Context, betID string, amount float64) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE bets SET token_payout = $2 WHERE id = $1 AND token_payout = 0`,
		betID, amount)
	if err != nil {
		return fmt.Errorf("postgres: set payout on bet %s: %w", betID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: set payout on bet %s: %w", betID, domain.ErrNotFound)
	}
	return nil
}

// Compile-time interface check.
var _ domain.BetStore = (*BetStore)(nil)
