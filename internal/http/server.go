package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"taskfin/internal/log"
	"taskfin/internal/middleware/ratelimit"
	"taskfin/internal/middleware/security"
	"taskfin/internal/middleware/trace"
	"taskfin/internal/services"
	"taskfin/internal/store"
	"taskfin/internal/summary"
)

// Options configures NewServer. Store is required.
type Options struct {
	Store   *store.Store
	Finance *services.FinanceService
	Logger  *log.Logger
	// Ping checks the storage backend for /readyz; nil means always ready.
	Ping func(ctx context.Context) error
	// UpcomingDays is the default window of /api/summary/upcoming.
	UpcomingDays int
	// WritesPerMinute limits mutating requests per client.
	WritesPerMinute int
}

type Server struct {
	http.Server
	store        *store.Store
	finance      *services.FinanceService
	logger       *log.Logger
	ping         func(ctx context.Context) error
	upcomingDays int

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}
	finance := opts.Finance
	if finance == nil {
		finance = services.NewFinanceService(opts.Store)
	}
	upcoming := opts.UpcomingDays
	if upcoming <= 0 {
		upcoming = summary.DefaultUpcomingDays
	}

	detector := security.NewDetector()
	s := &Server{
		store:        opts.Store,
		finance:      finance,
		logger:       logger,
		ping:         opts.Ping,
		upcomingDays: upcoming,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.WritesPerMinute}),
		detector:     detector,
		tracer:       trace.NewMiddleware(logger, detector.ExtractClientIP),
		started:      time.Now(),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("GET /api/tasks/groups", s.handleTaskGroups)
	mux.HandleFunc("GET /api/tasks/counts", s.handleTaskCounts)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("POST /api/tasks/undo", s.handleUndoDeleteTask)
	mux.HandleFunc("POST /api/tasks/bulk", s.handleBulkTasks)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/toggle", s.handleToggleTask)

	mux.HandleFunc("GET /api/lists", s.handleListLists)
	mux.HandleFunc("POST /api/lists", s.handleCreateList)
	mux.HandleFunc("PATCH /api/lists/{id}", s.handleUpdateList)
	mux.HandleFunc("DELETE /api/lists/{id}", s.handleDeleteList)

	mux.HandleFunc("GET /api/views", s.handleListViews)
	mux.HandleFunc("POST /api/views", s.handleCreateView)
	mux.HandleFunc("DELETE /api/views/{id}", s.handleDeleteView)
	mux.HandleFunc("GET /api/views/{id}/tasks", s.handleViewTasks)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("PATCH /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("GET /api/accounts/{id}/balance", s.handleAccountBalance)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /api/transfers", s.handleCreateTransfer)
	mux.HandleFunc("DELETE /api/transfers/{link}", s.handleDeleteTransfer)

	mux.HandleFunc("GET /api/recurrences", s.handleListRecurrences)
	mux.HandleFunc("POST /api/recurrences", s.handleCreateRecurrence)
	mux.HandleFunc("PATCH /api/recurrences/{id}", s.handleUpdateRecurrence)
	mux.HandleFunc("DELETE /api/recurrences/{id}", s.handleDeleteRecurrence)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("PATCH /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/summary/balances", s.handleBalances)
	mux.HandleFunc("GET /api/summary/budgets", s.handleBudgetStatuses)
	mux.HandleFunc("GET /api/summary/progress", s.handleProgress)
	mux.HandleFunc("GET /api/summary/upcoming", s.handleUpcoming)
	mux.HandleFunc("GET /api/summary/month", s.handleMonthOverview)

	return mux
}

// middleware wraps h, outermost first: tracing and the request logger,
// security headers, scan detection, then the write limiter.
func (s *Server) middleware(h http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.Mutating, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
	})
	h = limited(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	return s.tracer.Middleware(h)
}

// Shutdown stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// handleHealth is a liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the storage backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"store": "ok"}
	status, code := "ready", http.StatusOK

	if s.ping == nil {
		checks["backend"] = "in-memory"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			checks["backend"] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	rateMetrics := s.limiter.GetMetrics()
	secMetrics := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_avg_microseconds", "gauge", "Average response time", traceMetrics.AverageResponseTime)
	metric("rate_limit_hits_total", "counter", "Requests rejected by the write limiter", rateMetrics.TotalHits)
	metric("rate_limit_clients", "gauge", "Clients tracked by the write limiter", rateMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Requests flagged as probing", secMetrics.SuspiciousRequests)
	metric("tasks_total", "gauge", "Tasks held by the store", len(s.store.AllTasks()))
	metric("transactions_total", "gauge", "Transactions held by the store", len(s.store.AllTransactions()))
	metric("uptime_seconds", "gauge", "Process uptime", int64(time.Since(s.started).Seconds()))
}
