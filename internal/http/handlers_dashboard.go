package http

import (
	"bytes"
	"fmt"
	"net/http"

	"financas/internal/chart"
	"financas/internal/core"
	"financas/internal/ledger"
	applog "financas/internal/log"
)

func (s *Server) snapshot() ([]core.Transaction, core.Goals) {
	var (
		list  []core.Transaction
		goals core.Goals
	)
	s.withLedger(func(l *ledger.Store) {
		list = l.Transactions()
		goals = l.Goals()
	})
	return list, goals
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	list, goals := s.snapshot()
	view := s.presenter.Present(list, goals, s.now())

	for _, alert := range view.Alerts {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Goal alert active", applog.FieldAlert, alert.Kind)
	}
	writeJSON(w, http.StatusOK, view)
}

// handleChart shapes ?view=monthly|yearly|category; an empty view is monthly.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	mode, err := chart.ParseMode(r.URL.Query().Get("view"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Field: "view"})
		return
	}

	now := s.now()
	var result chart.Result
	s.withLedger(func(l *ledger.Store) {
		var ok bool
		rev := l.Revision()
		if result, ok = s.charts.get(mode, now, rev); !ok {
			result = s.shaper.ShapeMode(mode, l.Transactions(), now)
			s.charts.set(mode, now, rev, result)
		}
	})
	writeJSON(w, http.StatusOK, result)
}

// handleExport serves the transaction list as a dated JSON attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var (
		buf bytes.Buffer
		err error
	)
	s.withLedger(func(l *ledger.Store) { err = l.Export(&buf) })
	if err != nil {
		writeLedgerError(w, r, applog.OpExport, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ledger.ExportFilename(s.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
