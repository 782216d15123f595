package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/creatorpulse/settler/internal/server"
	"github.com/creatorpulse/settler/internal/server/handler"
	"github.com/creatorpulse/settler/internal/server/ws"
	"github.com/creatorpulse/settler/internal/service"
	"github.com/creatorpulse/settler/internal/settle"
)

// shutdownGrace bounds how long the HTTP server may drain on shutdown.
const shutdownGrace = 10 * time.Second

// ServerMode runs the HTTP + websocket API only. Settlements happen through
// the manual resolve endpoint.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "running in server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// SettleMode runs the auto-settlement scanner only, for deployments that
// keep the API on separate nodes.
func (a *App) SettleMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "running in settle mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startScanner(ctx, g, deps)
	return g.Wait()
}

// FullMode runs the API server and the scanner in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "running in full mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	a.startScanner(ctx, g, deps)
	return g.Wait()
}

// startHTTPServer adds the API server (and its websocket hub) to the group.
// Skipped when the server is disabled in config.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Server.Enabled {
		a.logger.Info("http server disabled")
		return
	}

	var hub *ws.Hub
	if deps.EventBus != nil {
		hub = ws.NewHub(deps.EventBus, service.SettlementChannel, a.logger)
		g.Go(func() error {
			if err := hub.Run(ctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	}

	handlers := server.Handlers{
		Health:      handler.NewHealthHandler(a.logger),
		Markets:     handler.NewMarketHandler(deps.MarketSvc, a.logger),
		Resolutions: handler.NewResolutionHandler(deps.Resolutions, a.logger),
		Pools:       handler.NewPoolHandler(deps.LedgerSvc, a.logger),
		Ledger:      handler.NewLedgerHandler(deps.LedgerSvc, deps.Archiver, deps.BlobReader, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, handlers, deps.RateLimiter, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})
}

// startScanner adds the auto-settlement scanner to the group. Skipped when
// the scanner is disabled in config.
func (a *App) startScanner(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Scanner.Enabled {
		a.logger.Info("settlement scanner disabled")
		return
	}

	scanner := settle.NewScanner(deps.Markets, deps.Resolutions, a.cfg.Scanner.Interval.Duration, a.logger)
	g.Go(func() error {
		if err := scanner.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})
}
