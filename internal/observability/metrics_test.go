package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics(nil)
	b := NewMetrics(nil)

	a.UploadsTotal.WithLabelValues("2_weeks", "ok").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.UploadsTotal.WithLabelValues("2_weeks", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.UploadsTotal.WithLabelValues("2_weeks", "ok")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(nil)
	m.RowsLoaded.WithLabelValues("1_month").Set(12)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `robot_analytics_ingest_rows_loaded{bucket="1_month"} 12`)
}
