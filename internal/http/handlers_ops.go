package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	applog "dompet/internal/log"
)

const readyTimeout = 2 * time.Second

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports whether the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.pinger.Ping(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldError, err.Error())
		ErrorResponse(http.StatusServiceUnavailable, "Store unavailable").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleMetrics writes counters in the Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rm := s.limiter.GetMetrics()
	dm := s.detector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	metric := func(name, typ, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n", name, help, name, typ, name, v)
	}
	metric("dompet_http_requests_total", "counter", "HTTP requests served.", tm.TotalRequests)
	metric("dompet_http_server_errors_total", "counter", "HTTP responses with a 5xx status.", tm.ServerErrors)
	metric("dompet_http_response_time_avg_microseconds", "gauge", "Mean response time.", tm.AverageResponseTime)
	metric("dompet_ratelimit_limited_total", "counter", "Requests rejected by the rate limiter.", rm.LimitedHits)
	metric("dompet_ratelimit_clients", "gauge", "Clients tracked by the rate limiter.", rm.ClientCount)
	metric("dompet_security_suspicious_total", "counter", "Requests flagged as suspicious.", dm.SuspiciousRequests)
	metric("dompet_security_invalid_ip_total", "counter", "Forwarded headers carrying an invalid address.", dm.InvalidIPAttempts)
	if s.cacheSize != nil {
		metric("dompet_cache_entries", "gauge", "Entries held by the transaction cache.", int64(s.cacheSize()))
	}
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError(msgRouteNotFound).Write(w)
}
