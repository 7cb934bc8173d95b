package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordOperationsAndFlushes(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	ctx := context.Background()
	m.Observe(ctx, "update_field", true, 3*time.Millisecond)
	m.Observe(ctx, "update_field", false, time.Millisecond)
	m.Observe(ctx, "", true, time.Millisecond)
	m.Flushed(ctx, "f1", 12, 42, 5*time.Millisecond)
	m.FlushSkipped("f1")
	m.FlushSkipped("f1")
	m.FlushFailed("f1", errors.New("boom"))
	m.SetActiveSessions(3)
	m.RecordsBuilt("board_scan", 4)
	m.RecordsBuilt("manual", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("update_field", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("update_field", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flushesTotal.WithLabelValues("written")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.flushesTotal.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flushesTotal.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.recordsBuilt.WithLabelValues("board_scan")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	m.FlushSkipped("f1")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `eicr_session_flushes_total{result="skipped"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}
