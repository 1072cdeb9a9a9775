package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"financas/internal/core"
)

// TransactionRequest is the body of POST /api/transactions. Amount may be a
// JSON number or a string such as "12,50".
type TransactionRequest struct {
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
}

// GoalRequest is the body of PUT /api/goals/{kind}.
type GoalRequest struct {
	Value json.RawMessage `json:"value"`
}

// decodeJSON reads a size-limited JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Field: "body", Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// ToNewTransaction validates the request shape. A missing date means today.
func (req TransactionRequest) ToNewTransaction(now time.Time) (core.NewTransaction, error) {
	amount, err := core.ParseAmount(rawNumber(req.Amount))
	if err != nil {
		return core.NewTransaction{}, err
	}
	kind, err := core.ParseKind(req.Type)
	if err != nil {
		return core.NewTransaction{}, err
	}

	date := core.DateOf(now)
	if s := strings.TrimSpace(req.Date); s != "" {
		if date, err = core.ParseDate(s); err != nil {
			return core.NewTransaction{}, err
		}
	}

	return core.NewTransaction{
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Type:        kind,
		Category:    core.NormalizeCategory(sanitizeInput(req.Category)),
		Date:        date,
	}, nil
}

// rawNumber turns a JSON number or string into the text ParseAmount expects.
func rawNumber(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "id", Err: errors.New("invalid transaction id")}
	}
	return id, nil
}

// sanitizeInput drops control characters other than tab and newlines, and trims.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
