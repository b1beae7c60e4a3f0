package worker

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unreachableRedis returns a client whose pings fail fast
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestHealthServer_UnhealthyWithoutRedis(t *testing.T) {
	hs := NewHealthServer(0, unreachableRedis(t), nil, zap.NewNop())

	rec := httptest.NewRecorder()
	hs.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks["redis"], "unhealthy")
	assert.Equal(t, "healthy", resp.Checks["evaluator"])
}

func TestHealthServer_NotReadyWithoutRedis(t *testing.T) {
	hs := NewHealthServer(0, unreachableRedis(t), nil, zap.NewNop())

	rec := httptest.NewRecorder()
	hs.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "not ready", resp.Status)
}

func TestHealthServer_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("rpn_metrics"))
	})
	hs := NewHealthServer(0, unreachableRedis(t), metrics, zap.NewNop())

	rec := httptest.NewRecorder()
	hs.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rpn_metrics", rec.Body.String())

	withoutMetrics := NewHealthServer(0, unreachableRedis(t), nil, zap.NewNop())
	rec = httptest.NewRecorder()
	withoutMetrics.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthServer_StopWithoutStart(t *testing.T) {
	hs := NewHealthServer(0, unreachableRedis(t), nil, zap.NewNop())
	assert.NoError(t, hs.Stop())
}

func TestEvaluatorCanary(t *testing.T) {
	assert.NoError(t, evaluatorCanary())
}
