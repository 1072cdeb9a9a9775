package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"financas/internal/core"
	"financas/internal/ledger"
	applog "financas/internal/log"
)

func (s *Server) handleGetGoals(w http.ResponseWriter, r *http.Request) {
	var goals core.Goals
	s.withLedger(func(l *ledger.Store) { goals = l.Goals() })
	writeJSON(w, http.StatusOK, goals)
}

// handleSetGoal sets the income target or the expense limit; zero clears it.
func (s *Server) handleSetGoal(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseGoalKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeLedgerError(w, r, applog.OpUpdate, err)
		return
	}

	var req GoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeLedgerError(w, r, applog.OpUpdate, err)
		return
	}
	value, err := core.ParseGoalValue(rawNumber(req.Value))
	if err != nil {
		writeLedgerError(w, r, applog.OpUpdate, err)
		return
	}

	var goals core.Goals
	s.withLedger(func(l *ledger.Store) {
		if err = l.SetGoal(r.Context(), kind, value); err == nil {
			goals = l.Goals()
		}
	})
	if err != nil {
		writeLedgerError(w, r, applog.OpUpdate, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Goal updated",
		applog.NewFields().WithGoal(string(kind), value).WithOperation(applog.OpUpdate).ToSlice()...)
	writeJSON(w, http.StatusOK, goals)
}

// handleClear drops every transaction and resets both goals.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var err error
	s.withLedger(func(l *ledger.Store) { err = l.Clear(r.Context()) })
	if err != nil {
		writeLedgerError(w, r, applog.OpClear, err)
		return
	}

	applog.FromContext(r.Context()).WarnContext(r.Context(), "Ledger cleared")
	w.WriteHeader(http.StatusNoContent)
}
