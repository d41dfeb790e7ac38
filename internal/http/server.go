package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"budge/internal/log"
	"budge/internal/middleware/ratelimit"
	"budge/internal/middleware/security"
	"budge/internal/middleware/trace"
	"budge/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Auth         *services.AuthService
	Budgets      *services.BudgetService
	Transactions *services.TransactionService
	Tokens       TokenVerifier
	DB           Pinger
	Logger       *log.Logger

	RateLimitPerMinute int
	CORSOrigins        []string
}

type Server struct {
	http.Server
	auth         *services.AuthService
	budgets      *services.BudgetService
	transactions *services.TransactionService
	tokens       TokenVerifier
	db           Pinger
	logger       *log.Logger
	now          func() time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime              time.Time
	usersRegistered     atomic.Int64
	budgetsSaved        atomic.Int64
	transactionsCreated atomic.Int64
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. Call Shutdown to stop it and its background goroutines.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	detector := security.NewDetector()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		auth:             deps.Auth,
		budgets:          deps.Budgets,
		transactions:     deps.Transactions,
		tokens:           deps.Tokens,
		db:               deps.DB,
		logger:           logger,
		now:              time.Now,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, logger),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	// Operational
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// Auth
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/me", s.requireAuth(s.handleMe))

	// Budgets and categories
	mux.HandleFunc("GET /budgets", s.requireAuth(s.handleGetBudget))
	mux.HandleFunc("POST /budgets", s.requireAuth(s.handleUpsertBudget))
	mux.HandleFunc("GET /budgets/categories", s.requireAuth(s.handleListCategories))
	mux.HandleFunc("POST /budgets/categories", s.requireAuth(s.handleCreateCategory))
	mux.HandleFunc("PUT /budgets/categories/{id}", s.requireAuth(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /budgets/categories/{id}", s.requireAuth(s.handleDeleteCategory))
	mux.HandleFunc("GET /budgets/summary", s.requireAuth(s.handleSummary))

	// Transactions
	mux.HandleFunc("GET /transactions", s.requireAuth(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.requireAuth(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions/spending-by-category", s.requireAuth(s.handleSpendingByCategory))
	mux.HandleFunc("GET /transactions/{id}", s.requireAuth(s.handleGetTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.requireAuth(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.requireAuth(s.handleDeleteTransaction))

	corsCfg := security.DefaultCORSConfig()
	if len(deps.CORSOrigins) > 0 {
		corsCfg.AllowedOrigins = deps.CORSOrigins
	}

	// Outermost first: tracing sees every request, including rejected ones.
	s.Handler = chain(mux,
		s.traceMiddleware.Middleware,
		log.Middleware(logger),
		log.RequestIDMiddleware(trace.RequestIDFromRequest),
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		security.CORS(corsCfg),
		detector.Middleware(logger),
		s.rateLimiter.Middleware(detector.ExtractClientIP, isReadOnly, s.onRateLimited),
	)

	return s
}

// chain wraps h so the first middleware runs first.
func chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// isReadOnly exempts safe methods from rate limiting.
func isReadOnly(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// Shutdown gracefully shuts down the server and its cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
