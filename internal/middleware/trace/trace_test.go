package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "financas/internal/log"
)

func TestHandlerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(applog.NewText(&buf, slog.LevelInfo, applog.ComponentApp))

	var seen string
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		applog.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/goals", nil))

	if seen == "" || rr.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, rr.Header().Get(HeaderRequestID))
	}
	out := buf.String()
	if !strings.Contains(out, "request_id="+seen) {
		t.Errorf("handler log missing request id: %s", out)
	}
	if !strings.Contains(out, "status_code=418") {
		t.Errorf("completion log missing status: %s", out)
	}
	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Errorf("TotalRequests = %d, want 1", got)
	}
}

func TestHandlerRequestIDHeader(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{"reuses caller id", "abc-123", true},
		{"ignores ids with spaces", "abc 123", false},
		{"ignores oversized ids", strings.Repeat("x", maxRequestIDLen+1), false},
		{"generates when absent", "", false},
	}

	m := NewMiddleware(applog.NewText(&bytes.Buffer{}, slog.LevelInfo, applog.ComponentApp))
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(HeaderRequestID, tt.incoming)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			got := rr.Header().Get(HeaderRequestID)
			if got == "" {
				t.Fatal("missing request id header")
			}
			if (got == tt.incoming) != tt.reuse {
				t.Errorf("header = %q, incoming %q, reuse %v", got, tt.incoming, tt.reuse)
			}
		})
	}
}

func TestServerErrorsCounted(t *testing.T) {
	m := NewMiddleware(applog.NewText(&bytes.Buffer{}, slog.LevelInfo, applog.ComponentApp))
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := m.GetMetrics().ServerErrors; got != 1 {
		t.Errorf("ServerErrors = %d, want 1", got)
	}
}
