package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"financas/internal/chart"
	"financas/internal/core"
	"financas/internal/dashboard"
	"financas/internal/kv/memory"
	"financas/internal/ledger"
	applog "financas/internal/log"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	mem := memory.New()
	store := ledger.New(mem, ledger.WithClock(func() time.Time { return testNow }))
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	srv := NewServer(":0", store, Options{
		Logger: applog.NewText(&bytes.Buffer{}, slog.LevelDebug, applog.ComponentApp),
		Now:    func() time.Time { return testNow },
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, mem
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndHeaders(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("security headers missing")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("request id header missing")
	}
}

func TestListCategories(t *testing.T) {
	labels := core.DefaultLabels()
	labels[core.Food] = "Comida"
	srv := NewServer(":0", ledger.New(memory.New()), Options{
		Logger: applog.NewText(&bytes.Buffer{}, slog.LevelDebug, applog.ComponentApp),
		Labels: labels,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rr := do(t, srv, http.MethodGet, "/api/categories", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := decode[struct {
		Categories []CategoryView `json:"categories"`
	}](t, rr)

	want := core.Categories()
	if len(body.Categories) != len(want) {
		t.Fatalf("got %d categories, want %d", len(body.Categories), len(want))
	}
	for i, c := range want {
		if body.Categories[i].Key != c {
			t.Errorf("categories[%d]=%q, want %q", i, body.Categories[i].Key, c)
		}
	}
	if body.Categories[0].Label != "Comida" {
		t.Errorf("food label=%q, want overridden label", body.Categories[0].Label)
	}
	if body.Categories[len(want)-1].Label != "Outros" {
		t.Errorf("other label=%q", body.Categories[len(want)-1].Label)
	}
}

func TestCreateTransaction(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{"number amount", `{"description":"Salary","amount":1000,"type":"income","date":"2024-01-15"}`, http.StatusCreated, ""},
		{"comma amount string", `{"description":"Pão","amount":"7,50","type":"despesa","category":"food","date":"2024-03-01"}`, http.StatusCreated, ""},
		{"missing date means today", `{"description":"Bus","amount":4.4,"type":"expense","category":"transport"}`, http.StatusCreated, ""},
		{"empty description", `{"description":"  ","amount":1,"type":"income","date":"2024-01-15"}`, http.StatusBadRequest, "description"},
		{"zero amount", `{"description":"x","amount":0,"type":"income","date":"2024-01-15"}`, http.StatusBadRequest, "amount"},
		{"negative amount", `{"description":"x","amount":"-5","type":"income","date":"2024-01-15"}`, http.StatusBadRequest, "amount"},
		{"bad type", `{"description":"x","amount":1,"type":"gift","date":"2024-01-15"}`, http.StatusBadRequest, "type"},
		{"bad date", `{"description":"x","amount":1,"type":"income","date":"15/01/2024"}`, http.StatusBadRequest, "date"},
		{"unknown field", `{"description":"x","amount":1,"type":"income","note":"?"}`, http.StatusBadRequest, "body"},
		{"not json", `nope`, http.StatusBadRequest, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			rr := do(t, srv, http.MethodPost, "/api/transactions", tt.body)
			if rr.Code != tt.wantCode {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			if tt.wantField != "" {
				if got := decode[ErrorResponse](t, rr); got.Field != tt.wantField {
					t.Errorf("field=%q want %q (%s)", got.Field, tt.wantField, got.Error)
				}
			}
		})
	}
}

func TestCreatedTransactionView(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/api/transactions", `{"description":"Bus","amount":"4.4","type":"expense","category":"Transport"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[struct {
		Transaction TransactionView `json:"transaction"`
	}](t, rr).Transaction

	if got.ID != testNow.UnixMilli() || got.Date.String() != "2024-03-15" || got.Category != core.Transport {
		t.Errorf("unexpected transaction %+v", got)
	}
	if got.AmountText != "R$ 4.40" || got.CategoryLabel != "Transporte" {
		t.Errorf("unexpected display fields %+v", got)
	}
}

func TestListSortedNewestFirst(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, d := range []string{"2024-01-01", "2024-03-01", "2024-02-01"} {
		rr := do(t, srv, http.MethodPost, "/api/transactions", `{"description":"x","amount":1,"type":"income","date":"`+d+`"}`)
		if rr.Code != http.StatusCreated {
			t.Fatalf("create status=%d", rr.Code)
		}
	}

	rr := do(t, srv, http.MethodGet, "/api/transactions", "")
	list := decode[struct {
		Transactions []TransactionView `json:"transactions"`
	}](t, rr).Transactions
	if len(list) != 3 {
		t.Fatalf("got %d transactions", len(list))
	}
	for i, want := range []string{"2024-03-01", "2024-02-01", "2024-01-01"} {
		if list[i].Date.String() != want {
			t.Fatalf("order %v", list)
		}
	}
}

func TestDeleteTransaction(t *testing.T) {
	srv, mem := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/api/transactions", `{"description":"x","amount":1,"type":"income","date":"2024-01-01"}`)
	id := decode[struct {
		Transaction TransactionView `json:"transaction"`
	}](t, rr).Transaction.ID

	before, _ := mem.Get(context.Background(), ledger.TransactionsKey)
	if rr := do(t, srv, http.MethodDelete, "/api/transactions/999", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("unknown id status=%d", rr.Code)
	}
	after, _ := mem.Get(context.Background(), ledger.TransactionsKey)
	if !bytes.Equal(before, after) {
		t.Fatalf("unknown id delete changed persisted state")
	}

	if rr := do(t, srv, http.MethodDelete, "/api/transactions/abc", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id status=%d", rr.Code)
	}

	path := "/api/transactions/" + strconv.FormatInt(id, 10)
	if rr := do(t, srv, http.MethodDelete, path, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	list := decode[struct {
		Transactions []TransactionView `json:"transactions"`
	}](t, do(t, srv, http.MethodGet, "/api/transactions", "")).Transactions
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}

func TestGoalsAndDashboardAlerts(t *testing.T) {
	srv, _ := newTestServer(t)

	if rr := do(t, srv, http.MethodPut, "/api/goals/income", `{"value":500}`); rr.Code != http.StatusOK {
		t.Fatalf("set income goal status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr := do(t, srv, http.MethodPut, "/api/goals/expense", `{"value":"100,00"}`)
	if got := decode[core.Goals](t, rr); got != (core.Goals{IncomeTarget: 500, ExpenseLimit: 100}) {
		t.Fatalf("goals %+v", got)
	}
	if rr := do(t, srv, http.MethodPut, "/api/goals/savings", `{"value":1}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown goal kind status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPut, "/api/goals/income", `{"value":-1}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("negative goal status=%d", rr.Code)
	}

	do(t, srv, http.MethodPost, "/api/transactions", `{"description":"Salary","amount":600,"type":"income","date":"2024-03-05"}`)
	do(t, srv, http.MethodPost, "/api/transactions", `{"description":"Rent","amount":150,"type":"expense","category":"housing","date":"2024-03-01"}`)
	do(t, srv, http.MethodPost, "/api/transactions", `{"description":"Old","amount":50,"type":"expense","date":"2024-02-01"}`)

	view := decode[dashboard.View](t, do(t, srv, http.MethodGet, "/api/dashboard", ""))
	if view.All.Balance != 400 || view.Month.Expense != 150 || view.BalanceClass != dashboard.BalancePositive {
		t.Fatalf("unexpected view %+v", view)
	}
	if len(view.Alerts) != 2 || view.Alerts[0].DismissAfterMs != 5000 {
		t.Fatalf("expected both alerts, got %+v", view.Alerts)
	}

	if got := decode[core.Goals](t, do(t, srv, http.MethodGet, "/api/goals", "")); got.IncomeTarget != 500 {
		t.Fatalf("goals %+v", got)
	}
}

func TestChart(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/transactions", `{"description":"Food","amount":20,"type":"expense","category":"food","date":"2024-03-02"}`)

	tests := []struct {
		view string
		kind chart.Kind
		mode chart.Mode
	}{
		{"", chart.KindSeries, chart.Monthly},
		{"yearly", chart.KindSeries, chart.Yearly},
		{"category", chart.KindProportions, chart.Category},
	}
	for _, tt := range tests {
		t.Run("view="+tt.view, func(t *testing.T) {
			rr := do(t, srv, http.MethodGet, "/api/chart?view="+tt.view, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d", rr.Code)
			}
			got := decode[chart.Result](t, rr)
			if got.Kind != tt.kind || got.Mode != tt.mode || got.Title == "" {
				t.Fatalf("unexpected result %+v", got)
			}
		})
	}

	if rr := do(t, srv, http.MethodGet, "/api/chart?view=weekly", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown view status=%d", rr.Code)
	}
}

func TestChartCacheInvalidatedOnMutation(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/transactions", `{"description":"Food","amount":20,"type":"expense","category":"food","date":"2024-03-02"}`)

	first := decode[chart.Result](t, do(t, srv, http.MethodGet, "/api/chart?view=category", ""))
	decode[chart.Result](t, do(t, srv, http.MethodGet, "/api/chart?view=category", ""))
	if stats := srv.charts.lru.Stats(); stats.Hits != 1 {
		t.Errorf("second read should hit the cache, stats %+v", stats)
	}

	do(t, srv, http.MethodPost, "/api/transactions", `{"description":"Bus","amount":5,"type":"expense","category":"transport","date":"2024-03-03"}`)
	second := decode[chart.Result](t, do(t, srv, http.MethodGet, "/api/chart?view=category", ""))
	if len(first.Proportions.Values) != 1 || len(second.Proportions.Values) != 2 {
		t.Errorf("stale chart after add: before %+v after %+v", first.Proportions, second.Proportions)
	}
}

func TestExportImportAndClear(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/transactions", `{"description":"Salary","amount":1000,"type":"income","date":"2024-01-15"}`)

	rr := do(t, srv, http.MethodGet, "/api/export", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d", rr.Code)
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="financas_20240315.json"` {
		t.Fatalf("Content-Disposition=%q", got)
	}
	exported := rr.Body.String()

	if rr := do(t, srv, http.MethodPost, "/api/clear", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("clear status=%d", rr.Code)
	}
	view := decode[dashboard.View](t, do(t, srv, http.MethodGet, "/api/dashboard", ""))
	if view.All != (dashboard.Amounts{IncomeText: "R$ 0.00", ExpenseText: "R$ 0.00", BalanceText: "R$ 0.00"}) {
		t.Fatalf("expected zero dashboard after clear, got %+v", view.All)
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions/import", exported)
	if rr.Code != http.StatusOK || decode[map[string]int](t, rr)["imported"] != 1 {
		t.Fatalf("import status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions/import", `[{"id":1,"description":"","amount":1,"type":"income","date":"2024-01-01"}]`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid import status=%d", rr.Code)
	}
}

func TestPersistenceFailureIs500(t *testing.T) {
	srv, mem := newTestServer(t)
	mem.FailPuts = true
	rr := do(t, srv, http.MethodPost, "/api/transactions", `{"description":"x","amount":1,"type":"income","date":"2024-01-01"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := decode[ErrorResponse](t, rr); got.Error == "" {
		t.Fatalf("missing error body")
	}
}

func TestChartReflectsUnsavedChange(t *testing.T) {
	srv, mem := newTestServer(t)

	before := decode[chart.Result](t, do(t, srv, http.MethodGet, "/api/chart?view=category", ""))
	if len(before.Proportions.Values) != 0 {
		t.Fatalf("expected empty chart, got %+v", before.Proportions)
	}

	mem.FailPuts = true
	rr := do(t, srv, http.MethodPost, "/api/transactions", `{"description":"Feira","amount":50,"type":"expense","category":"food","date":"2024-03-10"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("create status=%d", rr.Code)
	}

	view := decode[dashboard.View](t, do(t, srv, http.MethodGet, "/api/dashboard", ""))
	after := decode[chart.Result](t, do(t, srv, http.MethodGet, "/api/chart?view=category", ""))
	if view.Month.Expense != 50 {
		t.Fatalf("dashboard month expense=%v", view.Month.Expense)
	}
	if len(after.Proportions.Values) != 1 || after.Proportions.Values[0] != 50 {
		t.Errorf("chart disagrees with dashboard after failed save: %+v", after.Proportions)
	}
}

func TestWriteRateLimit(t *testing.T) {
	store := ledger.New(memory.New())
	srv := NewServer(":0", store, Options{
		Logger:                 applog.NewText(&bytes.Buffer{}, slog.LevelInfo, applog.ComponentApp),
		WriteRequestsPerMinute: 1,
	})
	defer srv.Shutdown(context.Background())

	do(t, srv, http.MethodPost, "/api/clear", "")
	rr := do(t, srv, http.MethodPost, "/api/clear", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/goals", ""); rr.Code != http.StatusOK {
		t.Fatalf("reads must not be limited, status=%d", rr.Code)
	}
}
