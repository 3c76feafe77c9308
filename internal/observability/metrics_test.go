package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics("userdesk")

	m.ObserveTurn("create", 120*time.Millisecond)
	m.ObserveTurn("", time.Second)
	m.CountOperation("delete", "rejected")
	m.CountOperation("delete", "rejected")
	m.CountRefreshFailure()
	m.CountPipelineFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Turns.WithLabelValues("unknown")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("delete", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexRefreshFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineFailures))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTurn("read", time.Millisecond)
		m.CountOperation("read", "success")
		m.CountRefreshFailure()
		m.CountPipelineFailure()
	})
	assert.Nil(t, m.Registry())
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics("userdesk")
	m.CountOperation("create", "success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `userdesk_operations_total{operation="create",outcome="success"} 1`)
}

func TestPrivateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics("userdesk")
		NewMetrics("userdesk")
	})
}
