// Package http exposes the budget engine as a JSON API under /api/v1.
//
// Every /api/v1 route requires a bearer token whose subject is the caller's
// user id. Errors share one envelope; domain error kinds map to 400, 403,
// 404 and 409.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ems/internal/log"
	"ems/internal/middleware/ratelimit"
	"ems/internal/middleware/security"
	"ems/internal/middleware/trace"
	"ems/internal/services"
)

// Services are the operations the API serves.
type Services struct {
	Categories *services.CategoryService
	Expenses   *services.RecordService
	Incomes    *services.RecordService
	Budgets    *services.BudgetService
	Reports    *services.ReportService
}

// Options configures NewServer.
type Options struct {
	Addr               string
	JWTSecret          string
	JWTIssuer          string
	RateLimitPerMinute int
	// Health reports whether the store is reachable; nil means always.
	Health func(ctx context.Context) error
	Logger *log.Logger
}

type Server struct {
	http.Server
	svc      Services
	auth     *Authenticator
	validate *Validator
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	clientIP *security.ClientIPResolver
	health   func(ctx context.Context) error
	logger   *log.Logger
}

// NewServer wires routes and middleware. Call Shutdown to release the rate
// limiter along with the listener.
func NewServer(svc Services, opts Options) (*Server, error) {
	validate, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("init validator: %w", err)
	}
	clientIP, err := security.NewClientIPResolver()
	if err != nil {
		return nil, fmt.Errorf("init client ip resolver: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.ForComponent(log.ComponentHTTP)
	}

	s := &Server{
		svc:      svc,
		auth:     NewAuthenticator(opts.JWTSecret, opts.JWTIssuer),
		validate: validate,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		clientIP: clientIP,
		health:   opts.Health,
		logger:   logger,
	}
	s.tracer = trace.NewMiddleware(logger, clientIP.ExtractClientIP)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.tracer.Middleware, security.Headers(security.DefaultHeadersConfig()))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorStatus(w, r, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorStatus(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.auth.Middleware, s.limiter.Middleware(s.rateLimitKey, func(w http.ResponseWriter, r *http.Request) {
		writeErrorStatus(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	}))

	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id}", s.handleUpdateCategory).Methods(http.MethodPut)
	api.HandleFunc("/categories/{id}", s.handleDeleteCategory).Methods(http.MethodDelete)

	s.recordRoutes(api, "/expenses", s.svc.Expenses)
	s.recordRoutes(api, "/incomes", s.svc.Incomes)

	api.HandleFunc("/budgets", s.handleListBudgets).Methods(http.MethodGet)
	api.HandleFunc("/budgets", s.handleCreateBudget).Methods(http.MethodPost)
	api.HandleFunc("/budgets/{id}", s.handleGetBudget).Methods(http.MethodGet)
	api.HandleFunc("/budgets/{id}", s.handleUpdateBudget).Methods(http.MethodPut)
	api.HandleFunc("/budgets/{id}", s.handleDeleteBudget).Methods(http.MethodDelete)

	api.HandleFunc("/reports/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/reports/categories", s.handleCategoryReport).Methods(http.MethodGet)
	api.HandleFunc("/reports/history", s.handleHistoryReport).Methods(http.MethodGet)

	return r
}

func (s *Server) recordRoutes(api *mux.Router, prefix string, svc *services.RecordService) {
	h := recordHandlers{server: s, svc: svc}
	api.HandleFunc(prefix, h.list).Methods(http.MethodGet)
	api.HandleFunc(prefix, h.create).Methods(http.MethodPost)
	api.HandleFunc(prefix+"/{id}", h.get).Methods(http.MethodGet)
	api.HandleFunc(prefix+"/{id}", h.update).Methods(http.MethodPut)
	api.HandleFunc(prefix+"/{id}", h.delete).Methods(http.MethodDelete)
}

// rateLimitKey limits authenticated callers per user and falls back to the
// client address.
func (s *Server) rateLimitKey(r *http.Request) string {
	if user, ok := UserFromContext(r.Context()); ok {
		return "user:" + user.String()
	}
	return "ip:" + s.clientIP.ExtractClientIP(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.logger.WarnContext(ctx, "Health check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Shutdown stops the listener and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

// Metrics returns request and rate limiting counters.
func (s *Server) Metrics() (trace.Metrics, ratelimit.Metrics) {
	return s.tracer.GetMetrics(), s.limiter.GetMetrics()
}
