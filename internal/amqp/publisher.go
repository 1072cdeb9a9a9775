package amqp

import (
	"context"
	"log/slog"

	"financas/internal/core"
)

// EventPublisher is the subset of Client used by Publisher.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, msg *LedgerEventMessage) error
}

// Publisher forwards ledger events to the broker. It satisfies
// ledger.Listener. Publish failures are logged and never reach the caller:
// the mutation is already persisted when the event fires.
type Publisher struct {
	client EventPublisher
	logger *slog.Logger
}

func NewPublisher(client EventPublisher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, logger: logger}
}

func (p *Publisher) LedgerChanged(ctx context.Context, ev core.Event) {
	msg := NewLedgerEventMessage(ev)
	if err := p.client.PublishLedgerEvent(ctx, msg); err != nil {
		p.logger.WarnContext(ctx, "Failed to publish ledger event",
			"message_id", msg.ID,
			"op", ev.Op,
			"error", err)
	}
}
