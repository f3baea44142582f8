package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/odyssey-erp/odyssey-billing/internal/app"
	"github.com/odyssey-erp/odyssey-billing/internal/billing"
	"github.com/odyssey-erp/odyssey-billing/internal/cli"
	"github.com/odyssey-erp/odyssey-billing/internal/observability"
	"github.com/odyssey-erp/odyssey-billing/internal/shared"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}
	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()
	defer func() {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("flush metrics", slog.Any("error", err))
		}
	}()

	svc, cleanup, err := build(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("startup", slog.Any("error", err))
		return 1
	}
	defer cleanup()

	runner := cli.New(svc, os.Stdout, os.Stderr)
	if err := runner.Run(ctx, os.Args[1:]); err != nil {
		switch {
		case errors.Is(err, cli.ErrUsage):
			fmt.Fprintln(os.Stderr, err)
			runner.Usage()
			return 2
		case billing.IsUserError(err):
			fmt.Fprintln(os.Stderr, shared.UserSafeMessage(err))
			return 1
		default:
			logger.Error("command failed", slog.Any("error", err))
			fmt.Fprintln(os.Stderr, shared.UserSafeMessage(err))
			return 1
		}
	}
	return 0
}
