package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/odyssey-erp/odyssey-billing/internal/app"
	"github.com/odyssey-erp/odyssey-billing/internal/audit"
	"github.com/odyssey-erp/odyssey-billing/internal/billing"
	"github.com/odyssey-erp/odyssey-billing/internal/cart"
	"github.com/odyssey-erp/odyssey-billing/internal/catalog"
	"github.com/odyssey-erp/odyssey-billing/internal/invoice"
	"github.com/odyssey-erp/odyssey-billing/internal/observability"
	"github.com/odyssey-erp/odyssey-billing/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-billing/internal/platform/db"
)

// build wires the billing service from cfg. cleanup releases connections.
func build(ctx context.Context, cfg *app.Config, logger *slog.Logger, metrics *observability.Metrics) (*billing.Service, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var repo catalog.Repository
	switch cfg.CatalogBackend {
	case app.BackendPostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, pool.Close)
		pgRepo := catalog.NewPostgresRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("catalog schema: %w", err)
		}
		repo = pgRepo
	default:
		repo = catalog.NewFileRepository(cfg.CatalogPath, logger)
	}
	catalogSvc := catalog.NewService(repo, logger, metrics)

	renderer, err := invoice.NewRenderer(cfg.InvoiceRenderer, cfg.GotenbergURL)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	var claimer invoice.Claimer
	if cfg.OrderIDClaimer == app.ClaimerRedis {
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		})
		claimer = invoice.NewRedisClaimer(client, cfg.OrderIDTTL)
	}

	journal := audit.NewJournal(filepath.Join(cfg.InvoiceOutputDir, audit.FileName))
	generator, err := invoice.NewGenerator(invoice.Options{
		Renderer:  renderer,
		OutputDir: cfg.InvoiceOutputDir,
		Issuer:    cfg.Issuer,
		Settings:  cfg.Pricing,
		Claimer:   claimer,
		Journal:   journal,
		Recorder:  metrics,
		Logger:    logger,
	})
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	logger.Debug("invoice generator ready",
		slog.String("output_dir", generator.OutputDir()),
		slog.String("renderer", cfg.InvoiceRenderer),
	)

	svc := billing.NewService(catalogSvc, cart.NewFileStore(cfg.CartPath), cfg.Tiers, generator, journal, logger)
	return svc, cleanup, nil
}
