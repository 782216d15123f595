// Package memory implements the domain store interfaces with in-process maps.
// It backs package tests and provides a reference implementation of the
// transactional contract: InTx snapshots all state up front and restores it
// when the callback fails, so writes are all-or-nothing exactly as they are
// against Postgres.
package memory

import (
	"context"
	"sync"

	"github.com/creatorpulse/settler/internal/domain"
)

// DB holds all in-memory settlement state behind a single lock.
type DB struct {
	mu      sync.RWMutex
	markets map[string]domain.Market
	bets    map[string]domain.Bet
	pools   map[domain.Pool]domain.PoolBalance
	ledger  []domain.LedgerEntry
	points  map[string]int64
}

// NewDB creates an empty in-memory database.
func NewDB() *DB {
	return &DB{
		markets: make(map[string]domain.Market),
		bets:    make(map[string]domain.Bet),
		pools:   make(map[domain.Pool]domain.PoolBalance),
		points:  make(map[string]int64),
	}
}

// snapshot deep-copies all state so a failed transaction can be rolled back.
type snapshot struct {
	markets map[string]domain.Market
	bets    map[string]domain.Bet
	pools   map[domain.Pool]domain.PoolBalance
	ledger  []domain.LedgerEntry
	points  map[string]int64
}

func (d *DB) take() snapshot {
	s := snapshot{
		markets: make(map[string]domain.Market, len(d.markets)),
		bets:    make(map[string]domain.Bet, len(d.bets)),
		pools:   make(map[domain.Pool]domain.PoolBalance, len(d.pools)),
		ledger:  make([]domain.LedgerEntry, len(d.ledger)),
		points:  make(map[string]int64, len(d.points)),
	}
	for k, v := range d.markets {
		s.markets[k] = v
	}
	for k, v := range d.bets {
		s.bets[k] = v
	}
	for k, v := range d.pools {
		s.pools[k] = v
	}
	copy(s.ledger, d.ledger)
	for k, v := range d.points {
		s.points[k] = v
	}
	return s
}

func (d *DB) restore(s snapshot) {
	d.markets = s.markets
	d.bets = s.bets
	d.pools = s.pools
	d.ledger = s.ledger
	d.points = s.points
}

// Stores returns auto-locking store views over the live state.
func (d *DB) Stores() domain.Stores {
	return domain.Stores{
		Markets: &MarketStore{db: d},
		Bets:    &BetStore{db: d},
		Pools:   &PoolStore{db: d},
		Ledger:  &LedgerStore{db: d},
		Users:   &UserBalanceStore{db: d},
	}
}

// InTx runs fn against transaction-bound stores while holding the write
// lock, which also serializes concurrent transactions the way row locking
// does in Postgres. State is snapshot before fn and restored if fn fails.
func (d *DB) InTx(_ context.Context, fn func(domain.Stores) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := d.take()
	stores := domain.Stores{
		Markets: &MarketStore{db: d, tx: true},
		Bets:    &BetStore{db: d, tx: true},
		Pools:   &PoolStore{db: d, tx: true},
		Ledger:  &LedgerStore{db: d, tx: true},
		Users:   &UserBalanceStore{db: d, tx: true},
	}

	if err := fn(stores); err != nil {
		d.restore(snap)
		return err
	}
	return nil
}

// Seed loads fixtures outside any transaction.
func (d *DB) Seed(markets []domain.Market, bets []domain.Bet) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, m := range markets {
		d.markets[m.ID] = m
	}
	for _, b := range bets {
		d.bets[b.ID] = b
	}
}

// Compile-time interface check.
var _ domain.TxRunner = (*DB)(nil)
