package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"financas/internal/core"
)

// ExportFilename names a snapshot taken at now, e.g. financas_20240315.json.
func ExportFilename(now time.Time) string {
	return "financas_" + now.Format("20060102") + ".json"
}

// Export writes the transaction list as indented JSON.
func (s *Store) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.txs); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// Import replaces the transaction list with an exported snapshot. Every
// entry is validated and ids must be unique; on any problem nothing changes.
// Goals are left as they are.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	var txs []core.Transaction
	if err := json.NewDecoder(r).Decode(&txs); err != nil {
		return 0, &core.ValidationError{Field: "import", Err: fmt.Errorf("decode: %w", err)}
	}
	seen := make(map[int64]bool, len(txs))
	for i := range txs {
		txs[i].Category = core.NormalizeCategory(string(txs[i].Category))
		if err := txs[i].Validate(); err != nil {
			return 0, fmt.Errorf("entry %d: %w", i, err)
		}
		if seen[txs[i].ID] {
			return 0, &core.ValidationError{Field: "id", Err: fmt.Errorf("duplicate id %d", txs[i].ID)}
		}
		seen[txs[i].ID] = true
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	s.txs = txs
	s.rev++
	if err := s.persistTransactions(ctx); err != nil {
		return len(txs), err
	}
	s.emit(ctx, core.Event{Op: core.OpImport})
	return len(txs), nil
}
