package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the console's Prometheus collectors.
type Metrics struct {
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	ActiveSessions  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BackendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "user_console",
				Subsystem: "backend",
				Name:      "requests_total",
				Help:      "Backend calls issued by the resource client.",
			},
			[]string{"operation", "outcome"},
		),
		BackendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "user_console",
				Subsystem: "backend",
				Name:      "request_duration_seconds",
				Help:      "Backend call latency as seen by the resource client.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"operation"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "user_console",
				Name:      "http_requests_total",
				Help:      "Browser requests served by the console.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "user_console",
				Name:      "http_request_duration_seconds",
				Help:      "Browser request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "user_console",
				Name:      "active_sessions",
				Help:      "Browser sessions currently holding a screen.",
			},
		),
	}

	reg.MustRegister(m.BackendRequests, m.BackendDuration, m.HTTPRequests, m.HTTPDuration, m.ActiveSessions)
	return m
}

// ObserveBackend records one backend call. A nil receiver is a no-op.
func (m *Metrics) ObserveBackend(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(operation, outcome).Inc()
	m.BackendDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// SetActiveSessions updates the session gauge. A nil receiver is a no-op.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// GinMiddleware records request counts and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
