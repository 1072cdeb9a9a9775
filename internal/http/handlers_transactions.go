package http

import (
	"net/http"

	"financas/internal/core"
	"financas/internal/dashboard"
	"financas/internal/ledger"
	applog "financas/internal/log"
)

// TransactionView is a transaction plus its display strings.
type TransactionView struct {
	core.Transaction
	CategoryLabel string `json:"categoryLabel"`
	AmountText    string `json:"amountText"`
}

func (s *Server) transactionView(tx core.Transaction) TransactionView {
	return TransactionView{
		Transaction:   tx,
		CategoryLabel: s.labels.Label(tx.Category),
		AmountText:    core.FormatAmount(tx.Amount),
	}
}

// handleListTransactions returns every transaction, newest date first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var list []core.Transaction
	s.withLedger(func(l *ledger.Store) { list = l.Transactions() })

	sorted := dashboard.SortTransactions(list)
	out := make([]TransactionView, len(sorted))
	for i, tx := range sorted {
		out[i] = s.transactionView(tx)
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeLedgerError(w, r, applog.OpCreate, err)
		return
	}
	in, err := req.ToNewTransaction(s.now())
	if err != nil {
		writeLedgerError(w, r, applog.OpCreate, err)
		return
	}

	var tx core.Transaction
	s.withLedger(func(l *ledger.Store) { tx, err = l.Add(r.Context(), in) })
	if err != nil {
		writeLedgerError(w, r, applog.OpCreate, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogTransactionCreated(r.Context(), tx.ID, tx.Description, string(tx.Type), tx.Amount, string(tx.Category))
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": s.transactionView(tx)})
}

// handleDeleteTransaction answers 204 whether or not the id existed.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeLedgerError(w, r, applog.OpDelete, err)
		return
	}

	var found bool
	s.withLedger(func(l *ledger.Store) { found, err = l.Delete(r.Context(), id) })
	if err != nil {
		writeLedgerError(w, r, applog.OpDelete, err)
		return
	}
	if !found {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Delete of unknown transaction ignored", applog.FieldTxID, id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImport replaces the transaction list with an exported snapshot.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var (
		n   int
		err error
	)
	s.withLedger(func(l *ledger.Store) { n, err = l.Import(r.Context(), body) })
	if err != nil {
		writeLedgerError(w, r, applog.OpImport, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transactions imported", applog.FieldTransactions, n)
	writeJSON(w, http.StatusOK, map[string]any{"imported": n})
}

// CategoryView is one entry of the category picker.
type CategoryView struct {
	Key   core.Category `json:"key"`
	Label string        `json:"label"`
}

// handleListCategories returns the fixed categories in display order with
// their configured labels.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats := core.Categories()
	out := make([]CategoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryView{Key: c, Label: s.labels.Label(c)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}
