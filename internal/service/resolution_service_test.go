package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
	"github.com/creatorpulse/settler/internal/payout"
	"github.com/creatorpulse/settler/internal/resolution"
	"github.com/creatorpulse/settler/internal/store/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocks() *fakeLocks {
	return &fakeLocks{held: make(map[string]bool)}
}

func (f *fakeLocks) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] {
		return nil, domain.ErrLockHeld
	}
	f.held[key] = true
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.held, key)
	}, nil
}

type fakeCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (f *fakeCache) Set(context.Context, domain.Market) error { return nil }

func (f *fakeCache) Get(context.Context, string) (domain.Market, error) {
	return domain.Market{}, domain.ErrNotFound
}

func (f *fakeCache) Invalidate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, id)
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (f *fakeAudit) Log(_ context.Context, event string, detail map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, domain.AuditEntry{Event: event, Detail: detail, CreatedAt: time.Now()})
	return nil
}

func (f *fakeAudit) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.AuditEntry(nil), f.entries...), nil
}

type fakeBus struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakeBus) Publish(_ context.Context, _ string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeNotifier) Notify(_ context.Context, event, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func seedDB() *memory.DB {
	db := memory.NewDB()
	db.Seed(
		[]domain.Market{{
			ID:         "m1",
			Question:   "Will the drop sell out?",
			Options:    []string{"Yes", "No"},
			TokenPools: []float64{1000, 500},
			Pot:        203,
			ClosesAt:   time.Now().Add(24 * time.Hour),
		}},
		[]domain.Bet{
			{ID: "b1", MarketID: "m1", UserID: "u1", Option: "Yes", TokenStake: 1000},
			{ID: "b2", MarketID: "m1", UserID: "u2", Option: "No", TokenStake: 500},
		},
	)
	return db
}

func newTestService(db *memory.DB) (*ResolutionService, *fakeCache, *fakeAudit, *fakeBus, *fakeNotifier) {
	logger := discardLogger()
	coord := resolution.NewCoordinator(db, payout.DefaultFeeConfig(), logger)
	cache := &fakeCache{}
	audit := &fakeAudit{}
	bus := &fakeBus{}
	notifier := &fakeNotifier{}
	svc := NewResolutionService(coord, newFakeLocks(), cache, audit, bus, notifier, logger)
	return svc, cache, audit, bus, notifier
}

func TestResolutionService_SideEffects(t *testing.T) {
	db := seedDB()
	svc, cache, audit, bus, notifier := newTestService(db)
	ctx := context.Background()

	summary, err := svc.Resolve(ctx, "m1", "Yes", time.Now().UTC())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if summary.Tokens.PlatformFee != 50 {
		t.Errorf("PlatformFee = %v, want 50", summary.Tokens.PlatformFee)
	}

	if len(cache.invalidated) != 1 || cache.invalidated[0] != "m1" {
		t.Errorf("cache invalidations = %v, want [m1]", cache.invalidated)
	}

	if len(audit.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(audit.entries))
	}
	if audit.entries[0].Event != "market.resolve" {
		t.Errorf("audit event = %q, want market.resolve", audit.entries[0].Event)
	}
	if success, _ := audit.entries[0].Detail["success"].(bool); !success {
		t.Errorf("audit detail success = %v, want true", audit.entries[0].Detail["success"])
	}

	if len(bus.payloads) != 1 {
		t.Fatalf("published events = %d, want 1", len(bus.payloads))
	}
	var event SettlementEvent
	if err := json.Unmarshal(bus.payloads[0], &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.MarketID != "m1" || event.WinningOption != "Yes" {
		t.Errorf("event = %+v, want market m1 / Yes", event)
	}
	if event.PayoutPerUnit != 1.45 {
		t.Errorf("event payout per unit = %v, want 1.45", event.PayoutPerUnit)
	}

	if len(notifier.events) != 1 || notifier.events[0] != "market_resolved" {
		t.Errorf("notifier events = %v, want [market_resolved]", notifier.events)
	}
}

func TestResolutionService_FailureAuditsWithoutSideEffects(t *testing.T) {
	db := seedDB()
	svc, cache, audit, bus, notifier := newTestService(db)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "m1", "Maybe", time.Now().UTC())
	if !errors.Is(err, domain.ErrInvalidOption) {
		t.Fatalf("err = %v, want ErrInvalidOption", err)
	}

	if len(audit.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(audit.entries))
	}
	if success, _ := audit.entries[0].Detail["success"].(bool); success {
		t.Error("audit detail success = true, want false")
	}
	if len(cache.invalidated) != 0 || len(bus.payloads) != 0 || len(notifier.events) != 0 {
		t.Error("failure must not trigger cache, event or notify side effects")
	}
}

func TestResolutionService_LockHeldReportsAlreadyResolved(t *testing.T) {
	db := seedDB()
	logger := discardLogger()
	coord := resolution.NewCoordinator(db, payout.DefaultFeeConfig(), logger)
	locks := newFakeLocks()
	svc := NewResolutionService(coord, locks, nil, nil, nil, nil, logger)

	release, err := locks.Acquire(context.Background(), "market:m1", time.Minute)
	if err != nil {
		t.Fatalf("pre-acquire lock: %v", err)
	}
	defer release()

	_, err = svc.Resolve(context.Background(), "m1", "Yes", time.Now().UTC())
	if !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Fatalf("err = %v, want ErrAlreadyResolved", err)
	}
}
