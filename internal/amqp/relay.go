package amqp

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"financas/internal/core"
)

const drainTimeout = 5 * time.Second

// Relay is an asynchronous ledger.Listener. LedgerChanged only enqueues, so
// a slow broker never holds up a mutation; Run publishes in the background.
// Events that do not fit in the buffer are dropped and counted.
type Relay struct {
	client  EventPublisher
	logger  *slog.Logger
	queue   chan core.Event
	dropped atomic.Int64
}

func NewRelay(client EventPublisher, logger *slog.Logger, buffer int) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Relay{client: client, logger: logger, queue: make(chan core.Event, buffer)}
}

func (r *Relay) LedgerChanged(ctx context.Context, ev core.Event) {
	select {
	case r.queue <- ev:
	default:
		r.dropped.Add(1)
		r.logger.WarnContext(ctx, "Event relay full, dropping ledger event", "op", ev.Op)
	}
}

// Dropped returns how many events did not fit in the buffer.
func (r *Relay) Dropped() int64 {
	return r.dropped.Load()
}

// Run publishes queued events until ctx is done, then flushes what is left
// within drainTimeout.
func (r *Relay) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return nil
		case ev := <-r.queue:
			r.publish(ctx, ev)
		}
	}
}

func (r *Relay) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case ev := <-r.queue:
			r.publish(ctx, ev)
		default:
			return
		}
	}
}

func (r *Relay) publish(ctx context.Context, ev core.Event) {
	msg := NewLedgerEventMessage(ev)
	if err := r.client.PublishLedgerEvent(ctx, msg); err != nil {
		r.logger.WarnContext(ctx, "Failed to publish ledger event",
			"message_id", msg.ID,
			"op", ev.Op,
			"error", err)
	}
}
