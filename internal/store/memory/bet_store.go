package memory

import (
	"context"
	"sort"

	"github.com/creatorpulse/settler/internal/domain"
)

// BetStore is the in-memory implementation of domain.BetStore.
type BetStore struct {
	db *DB
	tx bool
}

// ListByMarket returns all bets on a market, ordered by creation time.
func (s *BetStore) ListByMarket(_ context.Context, marketID string) ([]domain.Bet, error) {
	if !s.tx {
		s.db.mu.RLock()
		defer s.db.mu.RUnlock()
	}

	var out []domain.Bet
	for _, b := range s.db.bets {
		if b.MarketID == marketID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// SetTokenPayout writes the bet's token payout column.
func (s *BetStore) SetTokenPayout(_ context.Context, betID string, amount float64) error {
	if !s.tx {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
	}

	b, ok := s.db.bets[betID]
	if !ok {
		return domain.ErrNotFound
	}
	b.TokenPayout = amount
	s.db.bets[betID] = b
	return nil
}

// Get retrieves one bet, for test assertions.
func (s *BetStore) Get(_ context.Context, betID string) (domain.Bet, error) {
	if !s.tx {
		s.db.mu.RLock()
		defer s.db.mu.RUnlock()
	}

	b, ok := s.db.bets[betID]
	if !ok {
		return domain.Bet{}, domain.ErrNotFound
	}
	return b, nil
}

// Compile-time interface check.
var _ domain.BetStore = (*BetStore)(nil)
