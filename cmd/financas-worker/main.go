// Command financas-worker consumes ledger events and reports goal alerts.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"financas/internal/backend"
	"financas/internal/cli"
	"financas/internal/dashboard"
	applog "financas/internal/log"
	"financas/internal/worker"
)

// checkInterval re-evaluates alerts so they follow the calendar month.
const checkInterval = time.Hour

func main() {
	os.Exit(run())
}

// run returns the exit code so deferred cleanup runs before the process exits.
func run() int {
	// Load .env file for local development (ignore errors in production/docker)
	_ = cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.SetupLogger("info").Error("Configuration validation failed", applog.FieldError, err)
		return 1
	}
	logger := cli.SetupLogger(cfg.LogLevel)

	logger.Info("Starting financas-worker", applog.FieldBackend, cfg.DataBackend)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		return 1
	}
	if cfg.DataBackend == backend.MemoryBackend.String() {
		logger.Warn("Memory backend is not shared with the publisher; alerts will only reflect this process")
	}

	ctx, cancel := cli.GracefulShutdown(logger)
	defer cancel()

	l, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", applog.FieldError, err)
		return 1
	}
	defer l.Cleanup()

	if l.Events == nil {
		logger.Error("AMQP broker unreachable, nothing to consume")
		return 1
	}

	alerts := worker.NewAlertWorker(l.Store, func(ctx context.Context) error {
		return cli.Reload(ctx, l.Store, logger)
	}, dashboard.New(cfg.AlertDismissAfter), logger)

	if err := alerts.StartupCheck(ctx); err != nil {
		logger.Error("Failed startup check", applog.FieldError, err)
		// Don't exit - continue with normal operation
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.Events.ConsumeLedgerEvents(gctx, alerts.HandleLedgerEvent)
	})
	g.Go(func() error {
		return alerts.Periodic(gctx, checkInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		return 1
	}

	logger.Info("financas-worker shutdown completed")
	return 0
}
