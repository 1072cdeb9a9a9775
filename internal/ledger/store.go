// Package ledger owns the transaction list and the goals record.
//
// A Store is loaded once from a kv.Store and then mutated only through its
// methods. Every mutation is written through to persistence before the call
// returns and then announced to the registered listeners.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/core"
	"financas/internal/kv"
)

// Persistence keys, kept from the browser app so exported localStorage dumps line up.
const (
	TransactionsKey = "transacoes"
	GoalsKey        = "metas"
)

// Listener receives an event after each persisted mutation.
type Listener interface {
	LedgerChanged(ctx context.Context, ev core.Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, ev core.Event)

func (f ListenerFunc) LedgerChanged(ctx context.Context, ev core.Event) { f(ctx, ev) }

// Store is not safe for concurrent use; callers that share it across
// goroutines serialize access themselves.
type Store struct {
	kv        kv.Store
	logger    *slog.Logger
	nowFn     func() time.Time
	txs       []core.Transaction
	goals     core.Goals
	listeners []Listener

	// rev counts in-memory changes, including ones that failed to persist.
	rev uint64
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the clock used for ids and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.nowFn = now }
}

func New(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:     store,
		logger: slog.Default(),
		nowFn:  time.Now,
		txs:    []core.Transaction{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l for every later mutation.
func (s *Store) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Load replaces the in-memory state with the persisted one. Absent blobs
// yield defaults silently. Unreadable or malformed blobs also yield
// defaults, and are reported in a *PersistenceReadError so the caller can
// log them; the store is usable either way.
func (s *Store) Load(ctx context.Context) error {
	var failures []BlobError

	s.rev++
	s.txs = []core.Transaction{}
	var txs []core.Transaction
	if err := s.read(ctx, TransactionsKey, &txs); err != nil {
		failures = append(failures, BlobError{Key: TransactionsKey, Err: err})
	} else if txs != nil {
		s.txs = normalize(txs)
		if dropped := len(txs) - len(s.txs); dropped > 0 {
			s.logger.WarnContext(ctx, "Dropped invalid persisted transactions", "dropped", dropped)
		}
	}

	s.goals = core.Goals{}
	var goals core.Goals
	if err := s.read(ctx, GoalsKey, &goals); err != nil {
		failures = append(failures, BlobError{Key: GoalsKey, Err: err})
	} else if core.ValidateGoal(goals.IncomeTarget) == nil && core.ValidateGoal(goals.ExpenseLimit) == nil {
		s.goals = goals
	} else {
		failures = append(failures, BlobError{Key: GoalsKey, Err: core.ErrInvalidGoal})
	}

	s.logger.DebugContext(ctx, "Ledger loaded", "transactions", len(s.txs), "fallbacks", len(failures))
	if len(failures) > 0 {
		return &PersistenceReadError{Blobs: failures}
	}
	return nil
}

// read decodes key into dst. A missing key leaves dst untouched and is not an error.
func (s *Store) read(ctx context.Context, key string, dst any) error {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// Add validates in, assigns it an id and appends it.
func (s *Store) Add(ctx context.Context, in core.NewTransaction) (core.Transaction, error) {
	in.Category = core.NormalizeCategory(string(in.Category))
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		ID:          s.nextID(),
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    in.Category,
		Date:        in.Date,
	}
	s.txs = append(s.txs, tx)
	s.rev++
	if err := s.persistTransactions(ctx); err != nil {
		return tx, err
	}
	s.emit(ctx, core.Event{Op: core.OpAdd, TransactionID: tx.ID})
	return tx, nil
}

// Delete removes the transaction with id. An unknown id is a no-op: nothing
// is written and no event is emitted. The bool reports whether it existed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	idx := -1
	for i, tx := range s.txs {
		if tx.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	s.txs = append(s.txs[:idx:idx], s.txs[idx+1:]...)
	s.rev++
	if err := s.persistTransactions(ctx); err != nil {
		return true, err
	}
	s.emit(ctx, core.Event{Op: core.OpDelete, TransactionID: id})
	return true, nil
}

// SetGoal sets the income target or the expense limit.
func (s *Store) SetGoal(ctx context.Context, kind core.GoalKind, value float64) error {
	if _, err := core.ParseGoalKind(string(kind)); err != nil {
		return err
	}
	if err := core.ValidateGoal(value); err != nil {
		return err
	}
	s.goals.Set(kind, value)
	s.rev++
	if err := s.persistGoals(ctx); err != nil {
		return err
	}
	s.emit(ctx, core.Event{Op: core.OpSetGoal, Goal: kind})
	return nil
}

// Clear drops every transaction and resets the goals to zero.
func (s *Store) Clear(ctx context.Context) error {
	s.txs = []core.Transaction{}
	s.goals = core.Goals{}
	s.rev++
	errTx := s.persistTransactions(ctx)
	errGoals := s.persistGoals(ctx)
	if err := errors.Join(errTx, errGoals); err != nil {
		return err
	}
	s.emit(ctx, core.Event{Op: core.OpClear})
	return nil
}

// Transactions returns a copy of the list in insertion order.
func (s *Store) Transactions() []core.Transaction {
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

func (s *Store) Goals() core.Goals {
	return s.goals
}

// Revision changes whenever the in-memory state does, whether or not the
// change reached persistence.
func (s *Store) Revision() uint64 {
	return s.rev
}

func (s *Store) Len() int {
	return len(s.txs)
}

// nextID is the creation time in unix milliseconds. Two adds in the same
// millisecond would collide; the clock is bumped past the last id instead.
func (s *Store) nextID() int64 {
	id := s.nowFn().UnixMilli()
	for _, tx := range s.txs {
		if tx.ID >= id {
			id = tx.ID + 1
		}
	}
	return id
}

func (s *Store) persistTransactions(ctx context.Context) error {
	return s.write(ctx, TransactionsKey, s.txs)
}

func (s *Store) persistGoals(ctx context.Context) error {
	return s.write(ctx, GoalsKey, s.goals)
}

func (s *Store) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &PersistenceWriteError{Key: key, Err: err}
	}
	if err := s.kv.Put(ctx, key, data); err != nil {
		s.logger.ErrorContext(ctx, "Ledger write failed", "key", key, "error", err)
		return &PersistenceWriteError{Key: key, Err: err}
	}
	return nil
}

func (s *Store) emit(ctx context.Context, ev core.Event) {
	ev.At = s.nowFn()
	for _, l := range s.listeners {
		l.LedgerChanged(ctx, ev)
	}
}

// normalize drops entries that could never have been written by Add, so a
// hand-edited blob cannot poison the aggregates.
func normalize(in []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(in))
	for _, tx := range in {
		tx.Category = core.NormalizeCategory(string(tx.Category))
		if tx.Validate() != nil {
			continue
		}
		out = append(out, tx)
	}
	return out
}
