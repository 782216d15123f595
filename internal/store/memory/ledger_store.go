package memory

import (
	"context"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
)

// LedgerStore is the in-memory implementation of domain.LedgerStore. The
// slice is append-only; nothing updates or deletes entries.
type LedgerStore struct {
	db *DB
	tx bool
}

// Append adds one ledger entry.
func (s *LedgerStore) Append(_ context.Context, e domain.LedgerEntry) error {
	if !s.tx {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
	}

	s.db.ledger = append(s.db.ledger, e)
	return nil
}

// ListByMarket returns all entries for one market in append order.
func (s *LedgerStore) ListByMarket(_ context.Context, marketID string, opts domain.ListOpts) ([]domain.LedgerEntry, error) {
	if !s.tx {
		s.db.mu.RLock()
		defer s.db.mu.RUnlock()
	}

	var out []domain.LedgerEntry
	for _, e := range s.db.ledger {
		if e.MarketID == marketID {
			out = append(out, e)
		}
	}
	return clipLedger(out, opts), nil
}

// List returns all entries in append order.
func (s *LedgerStore) List(_ context.Context, opts domain.ListOpts) ([]domain.LedgerEntry, error) {
	if !s.tx {
		s.db.mu.RLock()
		defer s.db.mu.RUnlock()
	}

	out := make([]domain.LedgerEntry, len(s.db.ledger))
	copy(out, s.db.ledger)
	return clipLedger(out, opts), nil
}

// ListBefore returns entries created strictly before the cutoff.
func (s *LedgerStore) ListBefore(_ context.Context, before time.Time) ([]domain.LedgerEntry, error) {
	if !s.tx {
		s.db.mu.RLock()
		defer s.db.mu.RUnlock()
	}

	var out []domain.LedgerEntry
	for _, e := range s.db.ledger {
		if e.CreatedAt.Before(before) {
			out = append(out, e)
		}
	}
	return out, nil
}

func clipLedger(entries []domain.LedgerEntry, opts domain.ListOpts) []domain.LedgerEntry {
	if opts.Offset > 0 {
		if opts.Offset >= len(entries) {
			return nil
		}
		entries = entries[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(entries) {
		entries = entries[:opts.Limit]
	}
	return entries
}

// Compile-time interface check.
var _ domain.LedgerStore = (*LedgerStore)(nil)
