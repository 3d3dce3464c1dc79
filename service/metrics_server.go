package service

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the prometheus registry
type MetricsServer struct {
	httpServer
}

// Start serves /metrics on addr until the server is shut down
func (m *MetricsServer) Start(ctx context.Context, addr string) error {
	return m.listenAndServe(ctx, addr, m.Handler())
}

// Handler returns the metrics routes
func (m *MetricsServer) Handler() http.Handler {
	hdlr := http.NewServeMux()
	hdlr.Handle("/metrics", promhttp.Handler())
	return hdlr
}
