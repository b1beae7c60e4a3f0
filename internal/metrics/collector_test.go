package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordEvaluation(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector("test", registry)

	c.RecordEvaluation(OutcomeSuccess, 7, time.Millisecond)
	c.RecordEvaluation(OutcomeSuccess, 3, time.Millisecond)
	c.RecordEvaluation("division_by_zero", 3, time.Microsecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.evaluationsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.evaluationsTotal.WithLabelValues("division_by_zero")))
	assert.Equal(t, 3, testutil.CollectAndCount(c.evaluationsTotal)+testutil.CollectAndCount(c.evaluationDuration))
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordEvaluation(OutcomeSuccess, 1, time.Millisecond)
	})
}

func TestCollector_DefaultRegistry(t *testing.T) {
	c := NewCollector("", nil)
	require.NotNil(t, c.Registry())
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("test", nil)
	c.RecordEvaluation(OutcomeSuccess, 3, time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "test_rpn_evaluations_total")
}
