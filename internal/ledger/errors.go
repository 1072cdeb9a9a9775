package ledger

import (
	"fmt"
	"strings"
)

// BlobError names a persisted blob that could not be used.
type BlobError struct {
	Key string
	Err error
}

// PersistenceReadError is returned by Load when one or more blobs were
// unreadable or malformed and defaults were used in their place.
type PersistenceReadError struct {
	Blobs []BlobError
}

func (e *PersistenceReadError) Error() string {
	parts := make([]string, len(e.Blobs))
	for i, b := range e.Blobs {
		parts[i] = fmt.Sprintf("%s: %v", b.Key, b.Err)
	}
	return "persisted state unreadable, using defaults (" + strings.Join(parts, "; ") + ")"
}

func (e *PersistenceReadError) Unwrap() []error {
	out := make([]error, len(e.Blobs))
	for i, b := range e.Blobs {
		out[i] = b.Err
	}
	return out
}

// PersistenceWriteError is returned by a mutation whose write-through failed.
// The in-memory state keeps the mutation.
type PersistenceWriteError struct {
	Key string
	Err error
}

func (e *PersistenceWriteError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error { return e.Err }
