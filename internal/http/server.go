// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"financas/internal/chart"
	"financas/internal/core"
	"financas/internal/dashboard"
	"financas/internal/ledger"
	applog "financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/middleware/trace"
)

const maxBodyBytes = 1 << 20

// Options configures a Server. Zero values pick defaults.
type Options struct {
	Logger       *applog.Logger
	Labels       core.Labels
	DismissAfter time.Duration
	Now          func() time.Time

	// WriteRequestsPerMinute limits mutating requests per client.
	WriteRequestsPerMinute int
}

type Server struct {
	http.Server

	// mu serializes every access to ledger; the store itself is single-threaded.
	mu        sync.Mutex
	ledger    *ledger.Store
	presenter *dashboard.Presenter
	shaper    *chart.Shaper
	charts    *chartCache
	labels    core.Labels
	now       func() time.Time
	logger    *applog.Logger

	tracer       *trace.Middleware
	limiter      *ratelimit.Limiter
	ipResolver   *security.IPResolver
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store *ledger.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Labels == nil {
		opts.Labels = core.DefaultLabels()
	}
	if opts.DismissAfter <= 0 {
		opts.DismissAfter = dashboard.DefaultDismissAfter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		ledger:     store,
		presenter:  dashboard.New(opts.DismissAfter),
		shaper:     chart.New(opts.Labels),
		charts:     newChartCache(opts.Now),
		labels:     opts.Labels,
		now:        opts.Now,
		logger:     opts.Logger.WithComponent(applog.ComponentHTTP),
		tracer:     trace.NewMiddleware(opts.Logger),
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.WriteRequestsPerMinute}),
		ipResolver: security.NewIPResolver(),
	}

	r := chi.NewRouter()
	r.Use(s.tracer.Handler)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.APIHeadersConfig()))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/transactions", s.handleListTransactions)
		r.Get("/categories", s.handleListCategories)
		r.Get("/goals", s.handleGetGoals)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/chart", s.handleChart)
		r.Get("/export", s.handleExport)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(s.ipResolver.ClientIP, func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			}))

			r.Post("/transactions", s.handleCreateTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)
			r.Post("/transactions/import", s.handleImport)
			r.Put("/goals/{kind}", s.handleSetGoal)
			r.Post("/clear", s.handleClear)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Shutdown gracefully shuts down the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withLedger runs fn while holding the ledger lock.
func (s *Server) withLedger(fn func(l *ledger.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ledger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var n int
	s.withLedger(func(l *ledger.Store) { n = l.Len() })
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "transactions": n})
}
