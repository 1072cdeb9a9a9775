package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"financas/internal/kv"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Get(ctx, "transacoes"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Put(ctx, "transacoes", []byte("[]")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "transacoes")
	if err != nil || string(got) != "[]" {
		t.Fatalf("unexpected get: %q %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "transacoes.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file should be renamed away, stat err=%v", err)
	}

	// A second store over the same directory sees the data.
	again, _ := New(dir)
	if got, _ := again.Get(ctx, "transacoes"); string(got) != "[]" {
		t.Fatalf("expected persisted blob, got %q", got)
	}
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	s, _ := New(t.TempDir())
	if err := s.Put(context.Background(), "../escape", []byte("x")); err == nil {
		t.Fatalf("expected invalid key error")
	}
}
