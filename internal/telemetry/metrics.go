// Package telemetry exposes Prometheus metrics for the automation service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// EventsProcessed counts automation passes by trigger type.
	EventsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "automation_events_total",
		Help: "Domain events processed by the rule engine",
	}, []string{"trigger"})

	// RulesMatched counts rules that matched across all passes.
	RulesMatched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "automation_rules_matched_total",
		Help: "Rules whose conditions matched a domain event",
	})

	// ActionResults counts action executions by type and outcome.
	ActionResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "automation_actions_total",
		Help: "Actions executed by matched rules",
	}, []string{"action", "outcome"})
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(httpReqs, httpDur, EventsProcessed, RulesMatched, ActionResults)
}

// Middleware records request counts and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		httpReqs.WithLabelValues(route, r.Method, strconv.Itoa(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
