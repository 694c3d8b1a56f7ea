package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveBackend(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveBackend("list", "ok", 10*time.Millisecond)
	m.ObserveBackend("list", "ok", 20*time.Millisecond)
	m.ObserveBackend("get", "not_found", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("list", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("get", "not_found")))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBackend("list", "ok", time.Millisecond)
		m.SetActiveSessions(3)
	})
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/user/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user/1", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/user/:id", "200")))
}
