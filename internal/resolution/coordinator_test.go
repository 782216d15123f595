package resolution

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
	"github.com/creatorpulse/settler/internal/payout"
	"github.com/creatorpulse/settler/internal/store/memory"
)

const floatEps = 1e-9

func newTestCoordinator(db *memory.DB) *Coordinator {
	return NewCoordinator(db, payout.DefaultFeeConfig(), slog.Default())
}

// seedMarket loads a fixture with token pools Yes=1000 No=500,
// legacy pot 203 with winning stakes 30 (stars) and 70 (points).
func seedMarket(db *memory.DB) {
	closesAt := time.Now().Add(48 * time.Hour)
	db.Seed(
		[]domain.Market{{
			ID:         "m1",
			Question:   "Will the campaign hit 1M views?",
			Options:    []string{"Yes", "No"},
			TokenPools: []float64{1000, 500},
			Pot:        203,
			ClosesAt:   closesAt,
		}},
		[]domain.Bet{
			{ID: "b1", MarketID: "m1", UserID: "u1", Option: "Yes", TokenStake: 100},
			{ID: "b2", MarketID: "m1", UserID: "u2", Option: "Yes", TokenStake: 900},
			{ID: "b3", MarketID: "m1", UserID: "u3", Option: "No", TokenStake: 500},
			{ID: "b4", MarketID: "m1", UserID: "u4", Option: "Yes", StarsStake: 30},
			{ID: "b5", MarketID: "m1", UserID: "u5", Option: "Yes", PointsStake: 70},
			{ID: "b6", MarketID: "m1", UserID: "u6", Option: "No", PointsStake: 103},
		},
	)
}

func TestResolve_Success(t *testing.T) {
	db := memory.NewDB()
	seedMarket(db)
	c := newTestCoordinator(db)
	ctx := context.Background()
	now := time.Now().UTC()

	summary, err := c.Resolve(ctx, "m1", "Yes", now)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if math.Abs(summary.Tokens.PlatformFee-50) > floatEps {
		t.Errorf("PlatformFee mismatch: got %v, want 50", summary.Tokens.PlatformFee)
	}
	if math.Abs(summary.Tokens.PayoutPerUnit-1.45) > floatEps {
		t.Errorf("PayoutPerUnit mismatch: got %v, want 1.45", summary.Tokens.PayoutPerUnit)
	}

	stores := db.Stores()

	// Market flipped, closed, terminal.
	m, err := stores.Markets.GetByID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !m.Resolved || m.WinningOption != "Yes" {
		t.Errorf("market not resolved as expected: %+v", m)
	}
	if m.ClosesAt.After(now) {
		t.Error("resolution must close the market")
	}

	// Winning token bets carry payouts; losing and legacy bets do not.
	bets := stores.Bets.(interface {
		Get(ctx context.Context, id string) (domain.Bet, error)
	})
	b1, _ := bets.Get(ctx, "b1")
	if math.Abs(b1.TokenPayout-145) > floatEps {
		t.Errorf("b1 payout mismatch: got %v, want 145", b1.TokenPayout)
	}
	b3, _ := bets.Get(ctx, "b3")
	if b3.TokenPayout != 0 {
		t.Errorf("losing bet must have no payout, got %v", b3.TokenPayout)
	}

	// Legacy shares: floor(30/100*193)=57, floor(70/100*193)=135.
	u4, _ := stores.Users.GetPoints(ctx, "u4")
	if u4 != 57 {
		t.Errorf("u4 points mismatch: got %d, want 57", u4)
	}
	u5, _ := stores.Users.GetPoints(ctx, "u5")
	if u5 != 135 {
		t.Errorf("u5 points mismatch: got %d, want 135", u5)
	}

	// Pool credits: leaderboard 7.5, referral 5.0, wheel 2.5, treasury 35.0,
	// and the legacy wheel duplicate in sync with wheel.
	wantPools := map[domain.Pool]float64{
		domain.PoolLeaderboard: 7.5,
		domain.PoolReferral:    5.0,
		domain.PoolWheel:       2.5,
		domain.PoolTreasury:    35.0,
		domain.PoolWheelLegacy: 2.5,
	}
	for pool, want := range wantPools {
		b, err := stores.Pools.Get(ctx, pool)
		if err != nil {
			t.Fatalf("pool %s missing: %v", pool, err)
		}
		if math.Abs(b.Balance-want) > floatEps {
			t.Errorf("pool %s balance mismatch: got %v, want %v", pool, b.Balance, want)
		}
	}

	// Ledger: 2 token payouts + 5 fee credits, every credited pool covered.
	entries, err := stores.Ledger.ListByMarket(ctx, "m1", domain.ListOpts{})
	if err != nil {
		t.Fatalf("ListByMarket failed: %v", err)
	}
	var payouts, fees int
	feePools := map[domain.Pool]bool{}
	for _, e := range entries {
		switch e.Kind {
		case domain.LedgerPayout:
			payouts++
			if e.PayoutPerUnit != summary.Tokens.PayoutPerUnit {
				t.Errorf("ledger payout ratio mismatch: got %v", e.PayoutPerUnit)
			}
		case domain.LedgerFeeCredit:
			fees++
			feePools[e.Pool] = true
		}
	}
	if payouts != 2 {
		t.Errorf("payout ledger rows mismatch: got %d, want 2", payouts)
	}
	if fees != 5 {
		t.Errorf("fee ledger rows mismatch: got %d, want 5", fees)
	}
	for pool := range wantPools {
		if !feePools[pool] {
			t.Errorf("credited pool %s has no ledger entry", pool)
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	db := memory.NewDB()
	seedMarket(db)
	c := newTestCoordinator(db)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := c.Resolve(ctx, "m1", "Yes", now); err != nil {
		t.Fatalf("first Resolve failed: %v", err)
	}

	stores := db.Stores()
	before, _ := stores.Ledger.List(ctx, domain.ListOpts{})
	wheelBefore, _ := stores.Pools.Get(ctx, domain.PoolWheel)

	_, err := c.Resolve(ctx, "m1", "Yes", now.Add(time.Minute))
	if !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}

	// The retry is a no-op: identical ledger and balances.
	after, _ := stores.Ledger.List(ctx, domain.ListOpts{})
	if len(after) != len(before) {
		t.Errorf("retry appended ledger rows: %d -> %d", len(before), len(after))
	}
	wheelAfter, _ := stores.Pools.Get(ctx, domain.PoolWheel)
	if wheelAfter.Balance != wheelBefore.Balance {
		t.Errorf("retry changed wheel balance: %v -> %v", wheelBefore.Balance, wheelAfter.Balance)
	}

	// The scheduler-facing result treats this as terminal, not retryable.
	res := ResultOf(err)
	if res.Success || res.Reason != "market already resolved" {
		t.Errorf("unexpected result for already-resolved: %+v", res)
	}
}

func TestResolve_PreconditionOrder(t *testing.T) {
	db := memory.NewDB()
	seedMarket(db)
	db.Seed([]domain.Market{{
		ID:      "m3",
		Options: []string{"A", "B", "C"},
	}}, nil)
	c := newTestCoordinator(db)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := c.Resolve(ctx, "missing", "Yes", now); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.Resolve(ctx, "m3", "A", now); !errors.Is(err, domain.ErrUnresolvableMarket) {
		t.Errorf("expected ErrUnresolvableMarket, got %v", err)
	}
	if _, err := c.Resolve(ctx, "m1", "Maybe", now); !errors.Is(err, domain.ErrInvalidOption) {
		t.Errorf("expected ErrInvalidOption, got %v", err)
	}

	// Failed attempts must leave no trace.
	entries, _ := db.Stores().Ledger.List(ctx, domain.ListOpts{})
	if len(entries) != 0 {
		t.Errorf("failed attempts wrote %d ledger rows", len(entries))
	}
}

func TestResolve_ZeroWinningSide(t *testing.T) {
	db := memory.NewDB()
	db.Seed(
		[]domain.Market{{
			ID:         "m2",
			Options:    []string{"Yes", "No"},
			TokenPools: []float64{0, 500},
			ClosesAt:   time.Now().Add(time.Hour),
		}},
		[]domain.Bet{
			{ID: "b1", MarketID: "m2", UserID: "u1", Option: "No", TokenStake: 500},
		},
	)
	c := newTestCoordinator(db)
	ctx := context.Background()

	summary, err := c.Resolve(ctx, "m2", "Yes", time.Now().UTC())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(summary.Tokens.Payouts) != 0 {
		t.Errorf("expected no payouts, got %d", len(summary.Tokens.Payouts))
	}

	// Fees from the losing side are still distributed.
	stores := db.Stores()
	treasury, err := stores.Pools.Get(ctx, domain.PoolTreasury)
	if err != nil {
		t.Fatalf("treasury missing: %v", err)
	}
	if math.Abs(treasury.Balance-35) > floatEps {
		t.Errorf("treasury balance mismatch: got %v, want 35", treasury.Balance)
	}

	entries, _ := stores.Ledger.ListByMarket(ctx, "m2", domain.ListOpts{})
	for _, e := range entries {
		if e.Kind == domain.LedgerPayout {
			t.Error("zero-winner market must not issue payout ledger rows")
		}
	}
}

// flakyStores injects a ledger failure partway through the write set to
// prove nothing commits on a mid-transaction error.
type flakyTx struct {
	db        *memory.DB
	failAfter int
}

type flakyLedger struct {
	domain.LedgerStore
	remaining *int
}

func (f flakyLedger) Append(ctx context.Context, e domain.LedgerEntry) error {
	if *f.remaining <= 0 {
		return errors.New("disk full")
	}
	*f.remaining--
	return f.LedgerStore.Append(ctx, e)
}

func (f *flakyTx) InTx(ctx context.Context, fn func(domain.Stores) error) error {
	return f.db.InTx(ctx, func(s domain.Stores) error {
		remaining := f.failAfter
		s.Ledger = flakyLedger{LedgerStore: s.Ledger, remaining: &remaining}
		return fn(s)
	})
}

func TestResolve_PartialFailureCommitsNothing(t *testing.T) {
	db := memory.NewDB()
	seedMarket(db)
	c := NewCoordinator(&flakyTx{db: db, failAfter: 3}, payout.DefaultFeeConfig(), slog.Default())
	ctx := context.Background()

	_, err := c.Resolve(ctx, "m1", "Yes", time.Now().UTC())
	if err == nil {
		t.Fatal("expected Resolve to fail")
	}
	if res := ResultOf(err); res.Success || res.Reason != "transaction failed, safe to retry" {
		t.Errorf("unexpected result: %+v", res)
	}

	// No partial effect: market unresolved, no ledger rows, no pool credits,
	// no points, no bet payouts.
	stores := db.Stores()
	m, _ := stores.Markets.GetByID(ctx, "m1")
	if m.Resolved {
		t.Error("market must not be resolved after aborted transaction")
	}
	entries, _ := stores.Ledger.List(ctx, domain.ListOpts{})
	if len(entries) != 0 {
		t.Errorf("aborted transaction left %d ledger rows", len(entries))
	}
	if _, err := stores.Pools.Get(ctx, domain.PoolTreasury); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("aborted transaction left pool credits: %v", err)
	}
	u4, _ := stores.Users.GetPoints(ctx, "u4")
	if u4 != 0 {
		t.Errorf("aborted transaction left user points: %d", u4)
	}

	// And the failed market is retryable afterwards.
	if _, err := c.Resolve(ctx, "m1", "Yes", time.Now().UTC()); err == nil {
		t.Fatal("flaky runner should still fail")
	}
	ok := NewCoordinator(db, payout.DefaultFeeConfig(), slog.Default())
	if _, err := ok.Resolve(ctx, "m1", "Yes", time.Now().UTC()); err != nil {
		t.Fatalf("retry after abort failed: %v", err)
	}
}

func TestResolve_ConcurrentAttemptsExactlyOneWins(t *testing.T) {
	db := memory.NewDB()
	seedMarket(db)
	c := newTestCoordinator(db)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Resolve(ctx, "m1", "Yes", time.Now().UTC())
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrAlreadyResolved):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winning resolution, got %d", successes)
	}

	// Exactly one resolution's worth of ledger rows.
	entries, _ := db.Stores().Ledger.List(ctx, domain.ListOpts{})
	if len(entries) != 7 {
		t.Errorf("ledger rows mismatch: got %d, want 7", len(entries))
	}
}
