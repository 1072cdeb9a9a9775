// Package worker reacts to ledger events published by other processes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"financas/internal/amqp"
	"financas/internal/dashboard"
	"financas/internal/ledger"
	applog "financas/internal/log"
)

// ReloadFunc re-reads the ledger from persistence.
type ReloadFunc func(ctx context.Context) error

// AlertWorker keeps a read-only copy of the ledger in step with published
// events and reports goal alerts as they are raised and cleared.
type AlertWorker struct {
	store     *ledger.Store
	reload    ReloadFunc
	presenter *dashboard.Presenter
	logger    *slog.Logger
	now       func() time.Time

	// mu guards store as well as the fields below.
	mu     sync.Mutex
	active map[dashboard.AlertKind]bool
	last   dashboard.View
}

func NewAlertWorker(store *ledger.Store, reload ReloadFunc, presenter *dashboard.Presenter, logger *slog.Logger) *AlertWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if reload == nil {
		reload = func(ctx context.Context) error {
			var readErr *ledger.PersistenceReadError
			if err := store.Load(ctx); err != nil && !errors.As(err, &readErr) {
				return err
			}
			return nil
		}
	}
	return &AlertWorker{
		store:     store,
		reload:    reload,
		presenter: presenter,
		logger:    logger.With(applog.FieldComponent, applog.ComponentWorker),
		now:       time.Now,
		active:    make(map[dashboard.AlertKind]bool),
	}
}

// WithClock overrides the clock used to pick the current month.
func (w *AlertWorker) WithClock(now func() time.Time) *AlertWorker {
	w.now = now
	return w
}

// HandleLedgerEvent processes a single ledger event from AMQP. A returned
// error asks for redelivery.
func (w *AlertWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	w.logger.DebugContext(ctx, "Processing ledger event",
		applog.FieldMessageID, msg.ID,
		applog.FieldEventOp, msg.Op,
		applog.FieldTxID, msg.TransactionID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.reload(ctx); err != nil {
		return fmt.Errorf("reload ledger: %w", err)
	}
	w.evaluate(ctx)
	return nil
}

// StartupCheck evaluates the goals once without waiting for an event.
func (w *AlertWorker) StartupCheck(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.reload(ctx); err != nil {
		return fmt.Errorf("reload ledger: %w", err)
	}
	view := w.evaluate(ctx)
	w.logger.InfoContext(ctx, "Startup check completed",
		applog.FieldTransactions, w.store.Len(),
		"month_income", view.Month.IncomeText,
		"month_expense", view.Month.ExpenseText,
		"alerts", len(view.Alerts))
	return nil
}

// Periodic re-evaluates the goals every interval until ctx is done, so
// alerts clear when the month rolls over even with no new events.
func (w *AlertWorker) Periodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.mu.Lock()
			w.evaluate(ctx)
			w.mu.Unlock()
		}
	}
}

// Active reports the alerts currently raised.
func (w *AlertWorker) Active() []dashboard.Alert {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]dashboard.Alert(nil), w.last.Alerts...)
}

// evaluate must be called with mu held.
func (w *AlertWorker) evaluate(ctx context.Context) dashboard.View {
	view := w.presenter.Present(w.store.Transactions(), w.store.Goals(), w.now())

	raised := make(map[dashboard.AlertKind]bool, len(view.Alerts))
	for _, alert := range view.Alerts {
		raised[alert.Kind] = true
		if !w.active[alert.Kind] {
			w.logger.InfoContext(ctx, "Goal alert raised",
				applog.FieldAlert, alert.Kind,
				"message", alert.Message)
		}
	}
	for kind := range w.active {
		if !raised[kind] {
			w.logger.InfoContext(ctx, "Goal alert cleared", applog.FieldAlert, kind)
		}
	}

	w.active = raised
	w.last = view
	return view
}
