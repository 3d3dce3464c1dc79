package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-keyword/metrics"
)

func TestHealthz(t *testing.T) {
	h := &HealthzServer{log: log.NewLogger(log.DiscardHandler())}
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestMetricsHandler(t *testing.T) {
	metrics.RecordError("service_test")
	srv := httptest.NewServer((&MetricsServer{}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `kdt_errors_total{error="service_test"} 1`)
}

func TestShutdownBeforeStart(t *testing.T) {
	s := New(Config{Log: log.NewLogger(log.DiscardHandler())})
	s.Shutdown(context.Background())
	require.NoError(t, NewKeywordServer(http.NotFoundHandler()).Shutdown(context.Background()))
}

func TestCORSHeaders(t *testing.T) {
	h := &HealthzServer{log: log.NewLogger(log.DiscardHandler())}
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()

	withCORS(h.Handler()).ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "OK", rec.Body.String())
}
