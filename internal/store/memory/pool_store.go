package memory

import (
	"context"
	"sort"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
)

// PoolStore is the in-memory implementation of domain.PoolStore.
type PoolStore struct {
	db *DB
	tx bool
}

// Credit creates the pool row with the given balance if absent, else
// increments it.
func (s *PoolStore) Credit(_ context.Context, pool domain.Pool, amount float64) error {
	if !s.tx {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
	}

	b := s.db.pools[pool]
	b.Pool = pool
	b.Balance += amount
	b.UpdatedAt = time.Now().UTC()
	s.db.pools[pool] = b
	return nil
}

// Get retrieves a single pool balance. Returns domain.ErrNotFound when the
// pool has never been credited.
func (s *PoolStore) Get(_ context.Context, pool domain.Pool) (domain.PoolBalance, error) {
	if !s.tx {
		s.db.mu.RLock()
		defer s.db.mu.RUnlock()
	}

	b, ok := s.db.pools[pool]
	if !ok {
		return domain.PoolBalance{}, domain.ErrNotFound
	}
	return b, nil
}

// List returns all pool balances ordered by pool name.
func (s *PoolStore) List(_ context.Context) ([]domain.PoolBalance, error) {
	if !s.tx {
		s.db.mu.RLock()
		defer s.db.mu.RUnlock()
	}

	var out []domain.PoolBalance
	for _, b := range s.db.pools {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pool < out[j].Pool })
	return out, nil
}

// Compile-time interface check.
var _ domain.PoolStore = (*PoolStore)(nil)
