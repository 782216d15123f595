package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/creatorpulse/settler/internal/domain"
)

// LedgerService serves the read API for pool balances, the transaction
// ledger and the audit log.
type LedgerService struct {
	pools  domain.PoolStore
	ledger domain.LedgerStore
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewLedgerService creates a LedgerService. The audit store may be nil when
// auditing is disabled.
func NewLedgerService(pools domain.PoolStore, ledger domain.LedgerStore, audit domain.AuditStore, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		pools:  pools,
		ledger: ledger,
		audit:  audit,
		logger: logger.With(slog.String("component", "ledger_service")),
	}
}

// ListPools returns every pool balance.
func (s *LedgerService) ListPools(ctx context.Context) ([]domain.PoolBalance, error) {
	balances, err := s.pools.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger_service: list pools: %w", err)
	}
	return balances, nil
}

// GetPool returns a single pool balance.
func (s *LedgerService) GetPool(ctx context.Context, pool domain.Pool) (domain.PoolBalance, error) {
	pb, err := s.pools.Get(ctx, pool)
	if err != nil {
		return domain.PoolBalance{}, fmt.Errorf("ledger_service: get pool %s: %w", pool, err)
	}
	return pb, nil
}

// ListLedger returns recent ledger entries.
func (s *LedgerService) ListLedger(ctx context.Context, opts domain.ListOpts) ([]domain.LedgerEntry, error) {
	entries, err := s.ledger.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("ledger_service: list ledger: %w", err)
	}
	return entries, nil
}

// ListLedgerByMarket returns the ledger entries for one market.
func (s *LedgerService) ListLedgerByMarket(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.LedgerEntry, error) {
	entries, err := s.ledger.ListByMarket(ctx, marketID, opts)
	if err != nil {
		return nil, fmt.Errorf("ledger_service: list ledger for market %s: %w", marketID, err)
	}
	return entries, nil
}

// ListAudit returns audit log entries. It returns an empty slice when
// auditing is disabled.
func (s *LedgerService) ListAudit(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	if s.audit == nil {
		return nil, nil
	}
	entries, err := s.audit.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("ledger_service: list audit: %w", err)
	}
	return entries, nil
}
