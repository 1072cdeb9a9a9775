package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"financas/internal/core"
)

// LedgerEventMessage announces one persisted ledger mutation. It carries no
// transaction payload; consumers reload the ledger from shared storage.
type LedgerEventMessage struct {
	ID            string        `json:"id"`
	Op            core.Op       `json:"op"`
	TransactionID int64         `json:"transaction_id,omitempty"`
	Goal          core.GoalKind `json:"goal,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// NewLedgerEventMessage wraps ev with a fresh message id.
func NewLedgerEventMessage(ev core.Event) *LedgerEventMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LedgerEventMessage{
		ID:            uuid.NewString(),
		Op:            ev.Op,
		TransactionID: ev.TransactionID,
		Goal:          ev.Goal,
		Timestamp:     ts,
	}
}

// Event converts the message back to a ledger event.
func (m *LedgerEventMessage) Event() core.Event {
	return core.Event{Op: m.Op, TransactionID: m.TransactionID, Goal: m.Goal, At: m.Timestamp}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes data and rejects messages without an op.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Op == "" {
		return nil, fmt.Errorf("ledger event %q has no op", msg.ID)
	}
	return &msg, nil
}
