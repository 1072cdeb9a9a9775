// Package kv defines the key-value port the ledger persists through.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// Store holds named blobs. Implementations report every failure explicitly;
// deciding whether to fall back to defaults is the caller's business.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
