package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"financas/internal/config"
	"financas/internal/core"
	"financas/internal/ledger"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestOpenLedgerFileBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{DataBackend: "file", DataDir: dir}
	ctx := context.Background()
	var logs bytes.Buffer

	l, err := OpenLedger(ctx, cfg, testLogger(&logs))
	if err != nil {
		t.Fatalf("OpenLedger() error = %v", err)
	}
	if l.Events != nil || l.Backend != "file" {
		t.Fatalf("unexpected ledger %+v", l)
	}
	if _, err := l.Store.Add(ctx, core.NewTransaction{
		Description: "Salary", Amount: 1000, Type: core.Income, Date: core.NewDate(2024, 1, 15),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := l.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	again, err := OpenLedger(ctx, cfg, testLogger(&logs))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Cleanup()
	if again.Store.Len() != 1 {
		t.Fatalf("expected persisted transaction, have %d", again.Store.Len())
	}
}

func TestOpenLedgerMalformedBlobIsLogged(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ledger.GoalsKey+".json"), []byte(`{broken`), 0o644); err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer

	l, err := OpenLedger(context.Background(), &config.Config{DataBackend: "file", DataDir: dir}, testLogger(&logs))
	if err != nil {
		t.Fatalf("malformed data must not fail the open: %v", err)
	}
	defer l.Cleanup()

	if l.Store.Goals() != (core.Goals{}) {
		t.Errorf("expected default goals, got %+v", l.Store.Goals())
	}
	if !strings.Contains(logs.String(), "Persisted data unreadable") || !strings.Contains(logs.String(), "key=metas") {
		t.Errorf("expected warning for metas, got %s", logs.String())
	}
}

func TestOpenLedgerRejectsUnknownBackend(t *testing.T) {
	if _, err := OpenLedger(context.Background(), &config.Config{DataBackend: "postgres"}, testLogger(&bytes.Buffer{})); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("FINANCAS_TEST_VALUE=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINANCAS_TEST_VALUE", "")
	os.Unsetenv("FINANCAS_TEST_VALUE")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if got := os.Getenv("FINANCAS_TEST_VALUE"); got != "from-file" {
		t.Errorf("FINANCAS_TEST_VALUE = %q", got)
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for a named missing file")
	}
}

func TestGracefulShutdownCancel(t *testing.T) {
	ctx, cancel := GracefulShutdown(testLogger(&bytes.Buffer{}))
	cancel()
	<-ctx.Done()
}
