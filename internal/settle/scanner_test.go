package settle

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
	"github.com/creatorpulse/settler/internal/payout"
	"github.com/creatorpulse/settler/internal/resolution"
	"github.com/creatorpulse/settler/internal/store/memory"
)

func newScanner(db *memory.DB) *Scanner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := resolution.NewCoordinator(db, payout.DefaultFeeConfig(), logger)
	return NewScanner(db.Stores().Markets, coord, time.Minute, logger)
}

func TestScan_ResolvesDueMarkets(t *testing.T) {
	db := memory.NewDB()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	db.Seed(
		[]domain.Market{
			{ID: "due", Options: []string{"Yes", "No"}, TokenPools: []float64{100, 50}, AutoOutcome: "Yes", ClosesAt: past},
			{ID: "open", Options: []string{"Yes", "No"}, TokenPools: []float64{10, 10}, AutoOutcome: "No", ClosesAt: future},
			{ID: "manual", Options: []string{"Yes", "No"}, TokenPools: []float64{10, 10}, ClosesAt: past},
		},
		[]domain.Bet{
			{ID: "b1", MarketID: "due", UserID: "u1", Option: "Yes", TokenStake: 100},
		},
	)

	newScanner(db).Scan(context.Background())

	stores := db.Stores()
	due, err := stores.Markets.GetByID(context.Background(), "due")
	if err != nil {
		t.Fatalf("get due market: %v", err)
	}
	if !due.Resolved || due.WinningOption != "Yes" {
		t.Errorf("due market = resolved %v winner %q, want resolved Yes", due.Resolved, due.WinningOption)
	}

	for _, id := range []string{"open", "manual"} {
		m, err := stores.Markets.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("get market %s: %v", id, err)
		}
		if m.Resolved {
			t.Errorf("market %s was resolved, want untouched", id)
		}
	}
}

func TestScan_AlreadyResolvedIsTerminal(t *testing.T) {
	db := memory.NewDB()
	past := time.Now().Add(-time.Hour)
	db.Seed(
		[]domain.Market{
			{ID: "m1", Options: []string{"Yes", "No"}, TokenPools: []float64{100, 50}, AutoOutcome: "Yes", ClosesAt: past},
		},
		[]domain.Bet{
			{ID: "b1", MarketID: "m1", UserID: "u1", Option: "Yes", TokenStake: 100},
		},
	)

	sc := newScanner(db)
	sc.Scan(context.Background())
	sc.Scan(context.Background())

	entries, err := db.Stores().Ledger.ListByMarket(context.Background(), "m1", domain.ListOpts{})
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	// One payout row plus one fee-credit row per pool, written exactly once.
	want := 1 + len(domain.FeePools) + 1
	if len(entries) != want {
		t.Errorf("ledger entries = %d, want %d (second scan must write nothing)", len(entries), want)
	}
}
