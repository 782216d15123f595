package memory

import (
	"context"

	"github.com/creatorpulse/settler/internal/domain"
)

// UserBalanceStore is the in-memory implementation of domain.UserBalanceStore.
type UserBalanceStore struct {
	db *DB
	tx bool
}

// AddPoints increments the user's legacy points counter, creating the
// counter at zero when the user has never been credited.
func (s *UserBalanceStore) AddPoints(_ context.Context, userID string, delta int64) error {
	if !s.tx {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
	}

	s.db.points[userID] += delta
	return nil
}

// GetPoints returns the user's legacy points counter.
func (s *UserBalanceStore) GetPoints(_ context.Context, userID string) (int64, error) {
	if !s.tx {
		s.db.mu.RLock()
		defer s.db.mu.RUnlock()
	}

	return s.db.points[userID], nil
}

// Compile-time interface check.
var _ domain.UserBalanceStore = (*UserBalanceStore)(nil)
