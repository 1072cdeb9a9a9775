package amqp

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"financas/internal/core"
)

func TestRelayDropsWhenFull(t *testing.T) {
	fake := &fakePublisher{}
	r := NewRelay(fake, slog.New(slog.NewTextHandler(io.Discard, nil)), 1)

	r.LedgerChanged(context.Background(), core.Event{Op: core.OpAdd, TransactionID: 1})
	r.LedgerChanged(context.Background(), core.Event{Op: core.OpAdd, TransactionID: 2})

	if r.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", r.Dropped())
	}
}

func TestRelayDrainsOnShutdown(t *testing.T) {
	fake := &fakePublisher{}
	r := NewRelay(fake, nil, 8)
	ops := []core.Op{core.OpAdd, core.OpSetGoal, core.OpClear}
	for _, op := range ops {
		r.LedgerChanged(context.Background(), core.Event{Op: op})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(fake.got) != len(ops) {
		t.Fatalf("published %d events, want %d", len(fake.got), len(ops))
	}
	for i, op := range ops {
		if fake.got[i].Op != op {
			t.Errorf("event %d op = %s, want %s", i, fake.got[i].Op, op)
		}
	}
}
