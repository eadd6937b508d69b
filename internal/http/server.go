package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/middleware/trace"
	"financas/internal/services"
	"financas/internal/settings"
	"financas/internal/sheets"
)

// dashboardTimeout bounds the storage reads behind one dashboard request.
const dashboardTimeout = 7 * time.Second

// What the handlers need from the service layer.
type (
	TransactionService interface {
		Create(ctx context.Context, userID string, in services.TransactionInput) (core.Transaction, error)
		List(ctx context.Context, userID string, typ core.TransactionType) ([]core.Transaction, error)
		Records(ctx context.Context, userID string) (entries, exits []core.Record, err error)
		Delete(ctx context.Context, userID, id string) error
	}

	AccountService interface {
		Create(ctx context.Context, userID string, in services.AccountInput) (core.Account, error)
		List(ctx context.Context, userID string) ([]core.Account, error)
		ToggleStatus(ctx context.Context, userID, id string) (core.Account, error)
		Delete(ctx context.Context, userID, id string) error
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Options wires a Server. Exporter may be nil when Google Sheets is not
// configured; Clock defaults to time.Now.
type Options struct {
	Transactions       TransactionService
	Accounts           AccountService
	Settings           settings.Store
	Health             Pinger
	Exporter           sheets.ReportExporter
	Logger             *applog.Logger
	DefaultUserID      string
	RateLimitPerMinute int
	Clock              func() time.Time
}

type Server struct {
	http.Server
	transactions  TransactionService
	accounts      AccountService
	settings      settings.Store
	health        Pinger
	exporter      sheets.ReportExporter
	logger        *applog.Logger
	defaultUserID string
	now           func() time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, opts Options) *Server {
	s := &Server{
		transactions:  opts.Transactions,
		accounts:      opts.Accounts,
		settings:      opts.Settings,
		health:        opts.Health,
		exporter:      opts.Exporter,
		logger:        opts.Logger,
		defaultUserID: opts.DefaultUserID,
		now:           opts.Clock,
		detector:      security.NewDetector(),
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/entries", s.handleListTransactions(core.Entry))
	mux.HandleFunc("POST /api/entries", s.handleCreateTransaction(core.Entry))
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/exits", s.handleListTransactions(core.Exit))
	mux.HandleFunc("POST /api/exits", s.handleCreateTransaction(core.Exit))
	mux.HandleFunc("DELETE /api/exits/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("POST /api/accounts/{id}/toggle", s.handleToggleAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)

	mux.HandleFunc("GET /api/reports", s.handleReport)
	mux.HandleFunc("GET /api/reports/export", s.handleExportReport)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
}

// middleware wraps the mux, outermost first: threat detection, tracing,
// request-scoped logger, security headers, then rate limiting of writes.
func (s *Server) middleware(next http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.MutatingOnly, onRateLimited)

	h := limit(next)
	h = headers.Middleware(h)
	h = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = applog.Middleware(s.logger)(h)
	h = s.tracer.Middleware(h)
	return s.detector.Middleware(h)
}

func onRateLimited(w http.ResponseWriter, r *http.Request) {
	NewResponse().
		Status(http.StatusTooManyRequests).
		Header("Retry-After", "60").
		JSON(errorBody{Error: "rate limit exceeded, try again later"}).
		Write(w)
}

// Shutdown stops background cleanup and drains the HTTP server. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// fail writes the response for err and logs failures that are not the caller's fault.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := ErrorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		fields := applog.NewFields().
			WithRequestID(trace.GetRequestID(r.Context())).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
			WithClientIP(s.detector.ExtractClientIP(r))
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, fields)
	}
	resp.Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

// handleReady reports whether storage answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ServiceUnavailableError("storage unavailable").Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}
