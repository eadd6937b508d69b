package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"financas/internal/memory"
	"financas/internal/report"
	"financas/internal/services"
)

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

type fakeExporter struct {
	calls int
	last  report.Report
}

func (f *fakeExporter) ExportReport(ctx context.Context, r report.Report) (string, error) {
	f.calls++
	f.last = r
	return "'" + r.SheetTitle() + "'!A1:D9", nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

type testServer struct {
	*Server
	store *memory.Store
}

func newTestServer(t *testing.T, mutate func(*Options)) testServer {
	t.Helper()
	store := memory.New()
	opts := Options{
		Transactions:       services.NewTransactionService(store, nil, nil),
		Accounts:           services.NewAccountService(store),
		Settings:           store,
		Health:             store,
		DefaultUserID:      "local",
		RateLimitPerMinute: 1000,
		Clock:              func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	s := NewServer(":0", opts)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return testServer{Server: s, store: store}
}

func (ts testServer) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, nil)

	if rec := ts.do(t, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	rec := ts.do(t, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ready") {
		t.Fatalf("readyz = %d %s", rec.Code, rec.Body.String())
	}

	down := newTestServer(t, func(o *Options) { o.Health = failingPinger{} })
	if rec := down.do(t, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing storage = %d, want 503", rec.Code)
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/api/entries", "")

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != contentTypeJSON {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestTransactionsLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/entries",
		`{"description":"Salario","amount":"R$ 1.520,00","category":"Trabalho","date":"2024-03-10"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[transactionJSON](t, rec)
	if created.Type != "entrada" || created.Amount.String() != "1520" || created.Date != "2024-03-10" {
		t.Fatalf("created = %+v", created)
	}
	if got := rec.Header().Get("Location"); got != "/api/entries/"+created.ID {
		t.Errorf("Location = %q", got)
	}

	rec = ts.do(t, http.MethodPost, "/api/entries", `{"description":"Bonus","amount":79.5,"date":"2024-03-11"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("numeric amount status = %d, body %s", rec.Code, rec.Body.String())
	}

	list := decode[transactionListResponse](t, ts.do(t, http.MethodGet, "/api/entries", ""))
	if len(list.Items) != 2 {
		t.Fatalf("entries = %d, want 2", len(list.Items))
	}
	if list.Items[0].Description != "Bonus" {
		t.Errorf("first entry = %q, want newest date first", list.Items[0].Description)
	}
	if list.Total.String() != "1599.5" {
		t.Errorf("total = %s, want 1599.5", list.Total)
	}

	exits := decode[transactionListResponse](t, ts.do(t, http.MethodGet, "/api/exits", ""))
	if len(exits.Items) != 0 {
		t.Fatalf("exits = %d, want 0", len(exits.Items))
	}

	if rec := ts.do(t, http.MethodDelete, "/api/entries/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodDelete, "/api/entries/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCreateTransaction_DefaultsDateToToday(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/exits", `{"description":"Mercado","amount":"45,90"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decode[transactionJSON](t, rec).Date; got != "2024-03-15" {
		t.Errorf("date = %q, want 2024-03-15", got)
	}
}

func TestCreateTransaction_Rejections(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed body", `{"amount":`, http.StatusBadRequest},
		{"zero amount", `{"description":"x","amount":"abc","date":"2024-03-01"}`, http.StatusUnprocessableEntity},
		{"missing description", `{"amount":"10,00","date":"2024-03-01"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"description":"x","amount":"10,00","date":"01/03/2024"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := ts.do(t, http.MethodPost, "/api/exits", tt.body); rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestTransactions_ScopedByUser(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/exits", `{"description":"Aluguel","amount":"900,00","date":"2024-03-05"}`,
		HeaderUserID, "ana")
	id := decode[transactionJSON](t, rec).ID

	if got := decode[transactionListResponse](t, ts.do(t, http.MethodGet, "/api/exits", "")).Items; len(got) != 0 {
		t.Fatalf("default user sees %d exits, want 0", len(got))
	}
	if rec := ts.do(t, http.MethodDelete, "/api/exits/"+id, "", HeaderUserID, "bruno"); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign delete status = %d, want 404", rec.Code)
	}
	if got := decode[transactionListResponse](t, ts.do(t, http.MethodGet, "/api/exits", "", HeaderUserID, "ana")).Items; len(got) != 1 {
		t.Fatalf("owner sees %d exits, want 1", len(got))
	}
}

func TestAccountsLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/accounts", `{"title":"Internet","amount":"99,90","due_date":"2024-03-20"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	acc := decode[accountJSON](t, rec)
	if acc.Status != "pendente" {
		t.Fatalf("status = %q, want pendente", acc.Status)
	}

	if rec := ts.do(t, http.MethodPost, "/api/accounts", `{"title":"","amount":"10","due_date":"2024-03-20"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty title status = %d, want 422", rec.Code)
	}

	list := decode[accountListResponse](t, ts.do(t, http.MethodGet, "/api/accounts", ""))
	if len(list.Items) != 1 || len(list.Summary.Upcoming) != 1 {
		t.Fatalf("list = %+v", list)
	}
	if list.Summary.OpenTotal.String() != "99.9" {
		t.Errorf("open total = %s, want 99.9", list.Summary.OpenTotal)
	}

	rec = ts.do(t, http.MethodPost, "/api/accounts/"+acc.ID+"/toggle", "")
	if rec.Code != http.StatusOK || decode[accountJSON](t, rec).Status != "pago" {
		t.Fatalf("toggle = %d %s", rec.Code, rec.Body.String())
	}
	if rec := ts.do(t, http.MethodPost, "/api/accounts/missing/toggle", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("toggle missing = %d, want 404", rec.Code)
	}

	if rec := ts.do(t, http.MethodDelete, "/api/accounts/"+acc.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodPost, "/api/entries", `{"description":"Salario","amount":"3.000,00","category":"trabalho","date":"2024-03-05"}`)
	ts.do(t, http.MethodPost, "/api/exits", `{"description":"Mercado","amount":"500,00","category":"casa","date":"2024-03-06"}`)
	ts.do(t, http.MethodPost, "/api/exits", `{"description":"Luz","amount":"200,00","category":"casa","date":"2024-02-06"}`)
	ts.do(t, http.MethodPost, "/api/accounts", `{"title":"Agua","amount":"80,00","due_date":"2024-03-25"}`)

	rec := ts.do(t, http.MethodGet, "/api/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	d := decode[dashboardResponse](t, rec)

	if len(d.Monthly) != 9 || len(d.Performance) != 16 {
		t.Fatalf("windows = %d months, %d days", len(d.Monthly), len(d.Performance))
	}
	if d.Overview.Balance.String() != "2300" {
		t.Errorf("balance = %s, want 2300", d.Overview.Balance)
	}
	if d.Overview.MonthExits.String() != "500" {
		t.Errorf("month exits = %s, want 500", d.Overview.MonthExits)
	}
	if d.Overview.PendingAccounts != 1 {
		t.Errorf("pending accounts = %d, want 1", d.Overview.PendingAccounts)
	}
	if len(d.Categories) != 2 || d.Categories[0].Category != "TRABALHO" {
		t.Errorf("categories = %+v", d.Categories)
	}
	if len(d.VisibleSections) != 7 {
		t.Errorf("visible sections = %v", d.VisibleSections)
	}

	d = decode[dashboardResponse](t, ts.do(t, http.MethodGet, "/api/dashboard?months=3&days=7&top=1", ""))
	if len(d.Monthly) != 3 || len(d.Performance) != 7 || len(d.Categories) != 1 {
		t.Fatalf("overrides ignored: %d months, %d days, %d categories", len(d.Monthly), len(d.Performance), len(d.Categories))
	}
	if d.Monthly[2].Key != "2024-3" {
		t.Errorf("last month key = %q, want 2024-3", d.Monthly[2].Key)
	}
}

func TestCalendar(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodPost, "/api/accounts", `{"title":"Cartao","amount":"1.200,00","due_date":"2024-02-10"}`)

	c := decode[calendarResponse](t, ts.do(t, http.MethodGet, "/api/calendar?year=2024&month=2", ""))
	if c.Year != 2024 || c.Month != 2 || c.Label != "FEV 2024" {
		t.Fatalf("header = %d-%d %q", c.Year, c.Month, c.Label)
	}
	// February 2024 starts on a Thursday and ends on a Thursday: five weeks.
	if len(c.Weeks) != 5 {
		t.Fatalf("weeks = %d, want 5", len(c.Weeks))
	}
	if first := c.Weeks[0][0]; first.Date != "2024-01-28" || first.InMonth {
		t.Errorf("first cell = %+v", first)
	}

	found := false
	for _, week := range c.Weeks {
		for _, day := range week {
			if day.Date == "2024-02-10" {
				found = len(day.Accounts) == 1 && day.Accounts[0].Title == "Cartao"
			}
		}
	}
	if !found {
		t.Error("bill not placed on its due date")
	}

	c = decode[calendarResponse](t, ts.do(t, http.MethodGet, "/api/calendar", ""))
	if c.Year != 2024 || c.Month != 3 {
		t.Errorf("default month = %d-%d, want 2024-3", c.Year, c.Month)
	}
}

func TestReports(t *testing.T) {
	exporter := &fakeExporter{}
	ts := newTestServer(t, func(o *Options) { o.Exporter = exporter })
	ts.do(t, http.MethodPost, "/api/entries", `{"description":"Salario","amount":"2.000,00","category":"Trabalho","date":"2024-03-01"}`)
	ts.do(t, http.MethodPost, "/api/exits", `{"description":"Mercado","amount":"300,00","category":"Casa","date":"2024-03-02"}`)

	rep := decode[report.Report](t, ts.do(t, http.MethodGet, "/api/reports?period=mensal", ""))
	if len(rep.Rows) != 2 || rep.Totals.Balance.String() != "1700" {
		t.Fatalf("report = %+v", rep)
	}

	rec := ts.do(t, http.MethodGet, "/api/reports/export?period=mensal&format=csv", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("csv export = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "relatorio-mensal-") {
		t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if !strings.HasPrefix(rec.Body.String(), "Categoria,Entradas,Saidas,Saldo") {
		t.Errorf("csv body = %q", rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/api/reports/export?format=pdf", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Fatalf("pdf export = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/reports/export?period=semanal&format=sheets", "")
	if rec.Code != http.StatusOK || exporter.calls != 1 {
		t.Fatalf("sheets export = %d, calls %d", rec.Code, exporter.calls)
	}
	if got := decode[sheetsExportResponse](t, rec).Sheet; got != "Relatorio semanal 2024-03-15" {
		t.Errorf("sheet = %q", got)
	}

	if rec := ts.do(t, http.MethodGet, "/api/reports/export?format=xlsx", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown format = %d, want 422", rec.Code)
	}
}

func TestReports_SheetsNotConfigured(t *testing.T) {
	ts := newTestServer(t, nil)
	if rec := ts.do(t, http.MethodGet, "/api/reports/export?format=sheets", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestSettings(t *testing.T) {
	ts := newTestServer(t, nil)

	got := decode[settingsResponse](t, ts.do(t, http.MethodGet, "/api/settings", ""))
	if got.Theme != "dark" || got.SidebarVariant != "pinned" || len(got.HiddenSections) != 0 {
		t.Fatalf("defaults = %+v", got)
	}

	rec := ts.do(t, http.MethodPut, "/api/settings", `{"theme":"studio","toggle_section":"contas"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	got = decode[settingsResponse](t, rec)
	if got.Theme != "studio" || len(got.HiddenSections) != 1 || len(got.VisibleSections) != 6 {
		t.Fatalf("updated = %+v", got)
	}

	if rec := ts.do(t, http.MethodPut, "/api/settings", `{"theme":"sepia"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown theme status = %d, want 422", rec.Code)
	}
	if rec := ts.do(t, http.MethodPut, "/api/settings", `{"hidden_sections":["nowhere"]}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown section status = %d, want 422", rec.Code)
	}

	got = decode[settingsResponse](t, ts.do(t, http.MethodPut, "/api/settings", `{"reset_sections":true}`))
	if got.Theme != "studio" || len(got.HiddenSections) != 0 {
		t.Fatalf("after reset = %+v", got)
	}
}

func TestRateLimitAppliesToWritesOnly(t *testing.T) {
	ts := newTestServer(t, func(o *Options) { o.RateLimitPerMinute = 2 })
	body := `{"description":"Cafe","amount":"5,00","date":"2024-03-01"}`

	for i := 0; i < 2; i++ {
		if rec := ts.do(t, http.MethodPost, "/api/exits", body); rec.Code != http.StatusCreated {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}
	rec := ts.do(t, http.MethodPost, "/api/exits", body)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("third write = %d, Retry-After %q", rec.Code, rec.Header().Get("Retry-After"))
	}
	if rec := ts.do(t, http.MethodGet, "/api/exits", ""); rec.Code != http.StatusOK {
		t.Fatalf("read after limit = %d, want 200", rec.Code)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	ts := newTestServer(t, nil)
	if rec := ts.do(t, http.MethodGet, "/api/nothing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route = %d, want 404", rec.Code)
	}
	if rec := ts.do(t, http.MethodPatch, "/api/settings", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("wrong method = %d, want 405", rec.Code)
	}
}
