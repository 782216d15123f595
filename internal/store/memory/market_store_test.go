package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
)

func TestMarketStore_GetByID_NotFound(t *testing.T) {
	db := NewDB()
	ctx := context.Background()

	_, err := db.Stores().Markets.GetByID(ctx, "nonexistent")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarketStore_MarkResolved(t *testing.T) {
	db := NewDB()
	ctx := context.Background()
	closesAt := time.Now().Add(24 * time.Hour)

	db.Seed([]domain.Market{{
		ID:       "m1",
		Options:  []string{"Yes", "No"},
		ClosesAt: closesAt,
	}}, nil)

	now := time.Now().UTC()
	markets := db.Stores().Markets
	if err := markets.MarkResolved(ctx, "m1", "Yes", now); err != nil {
		t.Fatalf("MarkResolved failed: %v", err)
	}

	m, err := markets.GetByID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !m.Resolved {
		t.Error("market should be resolved")
	}
	if m.WinningOption != "Yes" {
		t.Errorf("WinningOption mismatch: got %s, want Yes", m.WinningOption)
	}
	if m.ResolvedAt == nil || !m.ResolvedAt.Equal(now) {
		t.Errorf("ResolvedAt mismatch: got %v, want %v", m.ResolvedAt, now)
	}
	// Resolution closes the market when closesAt was still in the future.
	if !m.ClosesAt.Equal(now) {
		t.Errorf("ClosesAt should be forced to now: got %v, want %v", m.ClosesAt, now)
	}
}

func TestMarketStore_MarkResolved_AlreadyResolved(t *testing.T) {
	db := NewDB()
	ctx := context.Background()

	db.Seed([]domain.Market{{ID: "m1", Options: []string{"Yes", "No"}}}, nil)

	markets := db.Stores().Markets
	now := time.Now().UTC()
	if err := markets.MarkResolved(ctx, "m1", "Yes", now); err != nil {
		t.Fatalf("first MarkResolved failed: %v", err)
	}

	err := markets.MarkResolved(ctx, "m1", "No", now)
	if !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Errorf("expected ErrAlreadyResolved, got %v", err)
	}

	// The second attempt must not have overwritten the outcome.
	m, _ := markets.GetByID(ctx, "m1")
	if m.WinningOption != "Yes" {
		t.Errorf("WinningOption overwritten: got %s, want Yes", m.WinningOption)
	}
}

func TestMarketStore_ListSettleable(t *testing.T) {
	db := NewDB()
	ctx := context.Background()
	now := time.Now().UTC()

	db.Seed([]domain.Market{
		{ID: "due", Options: []string{"Yes", "No"}, AutoOutcome: "Yes", ClosesAt: now.Add(-time.Hour)},
		{ID: "future", Options: []string{"Yes", "No"}, AutoOutcome: "Yes", ClosesAt: now.Add(time.Hour)},
		{ID: "manual", Options: []string{"Yes", "No"}, ClosesAt: now.Add(-time.Hour)},
		{ID: "done", Options: []string{"Yes", "No"}, AutoOutcome: "Yes", ClosesAt: now.Add(-time.Hour), Resolved: true},
	}, nil)

	due, err := db.Stores().Markets.ListSettleable(ctx, now)
	if err != nil {
		t.Fatalf("ListSettleable failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != "due" {
		t.Errorf("expected only market 'due', got %v", due)
	}
}

func TestDB_InTx_RollsBackOnError(t *testing.T) {
	db := NewDB()
	ctx := context.Background()

	db.Seed([]domain.Market{{ID: "m1", Options: []string{"Yes", "No"}}}, nil)

	boom := errors.New("boom")
	err := db.InTx(ctx, func(s domain.Stores) error {
		if err := s.Markets.MarkResolved(ctx, "m1", "Yes", time.Now()); err != nil {
			t.Fatalf("MarkResolved inside tx failed: %v", err)
		}
		if err := s.Pools.Credit(ctx, domain.PoolTreasury, 100); err != nil {
			t.Fatalf("Credit inside tx failed: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	m, _ := db.Stores().Markets.GetByID(ctx, "m1")
	if m.Resolved {
		t.Error("rollback must undo the resolved flip")
	}
	if _, err := db.Stores().Pools.Get(ctx, domain.PoolTreasury); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("rollback must undo the pool credit, got %v", err)
	}
}
