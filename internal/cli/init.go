// Package cli provides common initialization shared by cmd/financas and
// cmd/financas-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"financas/internal/amqp"
	"financas/internal/backend"
	"financas/internal/config"
	"financas/internal/core"
	"financas/internal/ledger"
	applog "financas/internal/log"
)

// SetupLogger initializes structured logging at level and sets it as the
// default logger.
func SetupLogger(level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: applog.ParseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads environment overrides for local development. With no
// files it reads .env and ignores a missing one; named files must exist.
func LoadEnvFile(files ...string) error {
	if len(files) == 0 {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadLabels reads the category label overrides named by cfg, if any.
func LoadLabels(cfg *config.Config) (core.Labels, error) {
	return core.LoadCategoryLabels(cfg.CategoriesFile)
}

// Ledger is an opened ledger and the resources behind it.
type Ledger struct {
	Store *ledger.Store
	// Events is nil when AMQP is disabled or the broker was unreachable.
	Events  *amqp.Client
	Backend backend.BackendType
	Cleanup backend.CleanupFunc
}

// OpenLedger creates the configured backend and loads the ledger from it.
// Malformed persisted blobs are logged and replaced by defaults, so only
// backend failures are returned. No listener is subscribed; callers pick
// synchronous or relayed publishing.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Ledger, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}

	l := &Ledger{
		Store:   ledger.New(result.Store, ledger.WithLogger(logger.With(applog.FieldComponent, applog.ComponentLedger))),
		Events:  result.Events,
		Backend: bcfg.Type,
		Cleanup: result.Cleanup,
	}
	if l.Cleanup == nil {
		l.Cleanup = func() error { return nil }
	}

	if err := Reload(ctx, l.Store, logger); err != nil {
		l.Cleanup()
		return nil, err
	}

	logger.DebugContext(ctx, "Ledger ready",
		applog.FieldBackend, bcfg.Type,
		applog.FieldTransactions, l.Store.Len())

	return l, nil
}

// Reload re-reads store from persistence, logging blobs that fell back to
// defaults. Only non-recoverable errors are returned.
func Reload(ctx context.Context, store *ledger.Store, logger *slog.Logger) error {
	err := store.Load(ctx)
	var readErr *ledger.PersistenceReadError
	if !errors.As(err, &readErr) {
		return err
	}
	for _, blob := range readErr.Blobs {
		logger.WarnContext(ctx, "Persisted data unreadable, using defaults",
			"key", blob.Key,
			applog.FieldError, blob.Err,
			applog.FieldErrorType, applog.ErrorTypePersistence)
	}
	return nil
}

// PublishChanges subscribes a synchronous publisher when events are enabled.
func (l *Ledger) PublishChanges(logger *slog.Logger) {
	if l.Events != nil {
		l.Store.Subscribe(amqp.NewPublisher(l.Events, logger))
	}
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM, or
// when the returned cancel func is called.
func GracefulShutdown(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
