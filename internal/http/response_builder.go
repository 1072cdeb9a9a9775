package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"financas/internal/core"
	"financas/internal/ledger"
	applog "financas/internal/log"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeLedgerError maps err to a status: bad input is 400, everything else
// 500. Server-side failures are logged with the request logger.
func writeLedgerError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Field: ve.Field})
		return
	}

	errorType := applog.ErrorTypeInternal
	msg := "internal error"
	var we *ledger.PersistenceWriteError
	if errors.As(err, &we) {
		errorType = applog.ErrorTypePersistence
		msg = "change applied but could not be saved"
	}

	logger := applog.FromContext(r.Context())
	applog.NewStructuredLogger(logger).LogError(r.Context(), "Ledger operation failed", err, errorType, applog.ComponentHTTP, operation)
	writeError(w, http.StatusInternalServerError, msg)
}
