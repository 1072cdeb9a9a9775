package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/dashboard"
	"financas/internal/kv/memory"
	"financas/internal/ledger"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newWorker(t *testing.T) (*AlertWorker, *ledger.Store, *bytes.Buffer) {
	t.Helper()
	kv := memory.New()
	writer := ledger.New(kv)
	reader := ledger.New(kv)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	w := NewAlertWorker(reader, nil, dashboard.New(time.Second), logger).WithClock(func() time.Time { return fixedNow })
	return w, writer, &logs
}

func event(op core.Op) *amqp.LedgerEventMessage {
	return amqp.NewLedgerEventMessage(core.Event{Op: op, At: fixedNow})
}

func TestAlertWorker_RaisesAndClears(t *testing.T) {
	ctx := context.Background()
	w, writer, logs := newWorker(t)

	if err := writer.SetGoal(ctx, core.GoalExpense, 100); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleLedgerEvent(ctx, event(core.OpSetGoal)); err != nil {
		t.Fatalf("HandleLedgerEvent() error = %v", err)
	}
	if len(w.Active()) != 0 {
		t.Fatalf("no alert expected yet, got %+v", w.Active())
	}

	tx, err := writer.Add(ctx, core.NewTransaction{
		Description: "Aluguel", Amount: 150, Type: core.Expense, Date: core.DateOf(fixedNow),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.HandleLedgerEvent(ctx, event(core.OpAdd)); err != nil {
		t.Fatal(err)
	}
	active := w.Active()
	if len(active) != 1 || active[0].Kind != dashboard.AlertExpenseLimitReached {
		t.Fatalf("expected expense alert, got %+v", active)
	}

	// Level-triggered: a second event while the condition holds logs nothing new.
	if err := w.HandleLedgerEvent(ctx, event(core.OpAdd)); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(logs.String(), "Goal alert raised"); n != 1 {
		t.Errorf("expected one raise log, got %d", n)
	}

	if _, err := writer.Delete(ctx, tx.ID); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleLedgerEvent(ctx, event(core.OpDelete)); err != nil {
		t.Fatal(err)
	}
	if len(w.Active()) != 0 {
		t.Errorf("alert should clear after delete, got %+v", w.Active())
	}
	if !strings.Contains(logs.String(), "Goal alert cleared") {
		t.Errorf("expected clear log, got %s", logs.String())
	}
}

func TestAlertWorker_ReloadErrorRequeues(t *testing.T) {
	boom := errors.New("disk gone")
	store := ledger.New(memory.New())
	w := NewAlertWorker(store, func(context.Context) error { return boom }, dashboard.New(0), nil)

	err := w.HandleLedgerEvent(context.Background(), event(core.OpClear))
	if !errors.Is(err, boom) {
		t.Errorf("expected reload error, got %v", err)
	}
	if err := w.StartupCheck(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected reload error from StartupCheck, got %v", err)
	}
}

func TestAlertWorker_StartupCheck(t *testing.T) {
	ctx := context.Background()
	w, writer, logs := newWorker(t)

	if err := writer.SetGoal(ctx, core.GoalIncome, 1000); err != nil {
		t.Fatal(err)
	}
	if _, err := writer.Add(ctx, core.NewTransaction{
		Description: "Salário", Amount: 1200, Type: core.Income, Date: core.DateOf(fixedNow),
	}); err != nil {
		t.Fatal(err)
	}

	if err := w.StartupCheck(ctx); err != nil {
		t.Fatalf("StartupCheck() error = %v", err)
	}
	if active := w.Active(); len(active) != 1 || active[0].Kind != dashboard.AlertIncomeGoalReached {
		t.Errorf("expected income alert, got %+v", active)
	}
	if !strings.Contains(logs.String(), "Startup check completed") {
		t.Errorf("expected startup log, got %s", logs.String())
	}
}

func TestAlertWorker_PeriodicStopsOnCancel(t *testing.T) {
	w, _, _ := newWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Periodic(ctx, time.Millisecond) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Periodic() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Periodic did not stop")
	}
}
