package memory

import (
	"context"
	"sort"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
)

// MarketStore is the in-memory implementation of domain.MarketStore. When tx
// is set the store runs inside InTx, which already holds the write lock.
type MarketStore struct {
	db *DB
	tx bool
}

func (s *MarketStore) rlock() func() {
	if s.tx {
		return func() {}
	}
	s.db.mu.RLock()
	return s.db.mu.RUnlock
}

func (s *MarketStore) lock() func() {
	if s.tx {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

// GetByID retrieves a market. Returns domain.ErrNotFound if absent.
func (s *MarketStore) GetByID(_ context.Context, id string) (domain.Market, error) {
	defer s.rlock()()

	m, ok := s.db.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

// List returns markets ordered by creation time descending.
func (s *MarketStore) List(_ context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	defer s.rlock()()

	var out []domain.Market
	for _, m := range s.db.markets {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, opts), nil
}

// Count returns the number of markets.
func (s *MarketStore) Count(_ context.Context) (int64, error) {
	defer s.rlock()()
	return int64(len(s.db.markets)), nil
}

// ListSettleable returns unresolved markets past their close time that carry
// an auto-outcome hint, oldest close first.
func (s *MarketStore) ListSettleable(_ context.Context, now time.Time) ([]domain.Market, error) {
	defer s.rlock()()

	var out []domain.Market
	for _, m := range s.db.markets {
		if !m.Resolved && m.AutoOutcome != "" && !m.ClosesAt.After(now) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ClosesAt.Before(out[j].ClosesAt)
	})
	return out, nil
}

// MarkResolved performs the conditional resolved-flag flip. Returns
// domain.ErrAlreadyResolved when the market is already resolved and
// domain.ErrNotFound when it does not exist.
func (s *MarketStore) MarkResolved(_ context.Context, id, winningOption string, now time.Time) error {
	defer s.lock()()

	m, ok := s.db.markets[id]
	if !ok {
		return domain.ErrNotFound
	}
	if m.Resolved {
		return domain.ErrAlreadyResolved
	}

	m.Resolved = true
	m.WinningOption = winningOption
	resolvedAt := now
	m.ResolvedAt = &resolvedAt
	if m.ClosesAt.After(now) {
		m.ClosesAt = now
	}
	m.UpdatedAt = now
	s.db.markets[id] = m
	return nil
}

func paginate(markets []domain.Market, opts domain.ListOpts) []domain.Market {
	if opts.Offset > 0 {
		if opts.Offset >= len(markets) {
			return nil
		}
		markets = markets[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(markets) {
		markets = markets[:opts.Limit]
	}
	return markets
}

// Compile-time interface check.
var _ domain.MarketStore = (*MarketStore)(nil)
