// Package server assembles the HTTP + websocket API for the settlement
// engine.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
	"github.com/creatorpulse/settler/internal/server/handler"
	"github.com/creatorpulse/settler/internal/server/middleware"
	"github.com/creatorpulse/settler/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // empty disables authentication

	RateLimit       int // requests per window per client IP; 0 disables
	RateLimitWindow time.Duration
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health      *handler.HealthHandler
	Markets     *handler.MarketHandler
	Resolutions *handler.ResolutionHandler
	Pools       *handler.PoolHandler
	Ledger      *handler.LedgerHandler
}

// Server is the settlement engine's API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and wires the middleware chain. The rate
// limiter and websocket hub may be nil.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check, no auth.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Market reads.
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)

	// Settlement.
	mux.HandleFunc("POST /api/markets/{id}/resolve", handlers.Resolutions.Resolve)

	// Treasury pools.
	mux.HandleFunc("GET /api/pools", handlers.Pools.ListPools)
	mux.HandleFunc("GET /api/pools/{pool}", handlers.Pools.GetPool)

	// Ledger, audit and archives.
	mux.HandleFunc("GET /api/ledger", handlers.Ledger.ListLedger)
	mux.HandleFunc("GET /api/markets/{id}/ledger", handlers.Ledger.ListMarketLedger)
	mux.HandleFunc("GET /api/audit", handlers.Ledger.ListAudit)
	mux.HandleFunc("GET /api/archives", handlers.Ledger.ListArchives)
	mux.HandleFunc("POST /api/ledger/archive", handlers.Ledger.TriggerArchive)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateLimitWindow)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start listens for HTTP requests. It blocks until the server errors or is
// shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
