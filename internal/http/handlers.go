package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Body(map[string]string{"status": "ok", "message": "Budge API is running!"}).
		Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().
		Body(map[string]any{
			"status":    "ok",
			"timestamp": s.now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
		}).
		Write(w)
}

// handleReady reports ready only when the database answers a ping
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	switch {
	case s.db == nil:
		checks["database"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	default:
		if err := s.db.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", "check", "database", "error", err)
			checks["database"] = "failed"
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().
		Status(httpStatus).
		Body(map[string]any{
			"status":    status,
			"timestamp": s.now().UTC().Format(time.RFC3339),
			"checks":    checks,
		}).
		Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	metric := func(name, help, kind string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("http_client_errors_total", "HTTP responses with a 4xx status", "counter", traceMetrics.ClientErrors)
	metric("http_server_errors_total", "HTTP responses with a 5xx status", "counter", traceMetrics.ServerErrors)
	metric("http_response_time_avg_microseconds", "Average response time", "gauge", traceMetrics.AverageResponseTime)
	metric("users_registered_total", "Users registered since start", "counter", s.appMetrics.usersRegistered.Load())
	metric("budgets_saved_total", "Budget create-or-update calls that succeeded", "counter", s.appMetrics.budgetsSaved.Load())
	metric("transactions_created_total", "Transactions created since start", "counter", s.appMetrics.transactionsCreated.Load())
	metric("rate_limit_hits_total", "Total rate limit hits", "counter", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "Total suspicious requests detected", "counter", securityMetrics.SuspiciousRequests)
	metric("invalid_forwarded_ip_total", "Forwarding headers with an unparsable address", "counter", securityMetrics.InvalidIPAttempts)
	metric("uptime_seconds", "Application uptime in seconds", "gauge", fmt.Sprintf("%.0f", time.Since(s.appMetrics.uptime).Seconds()))
}
