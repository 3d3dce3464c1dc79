package service

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
)

// HealthzServer answers liveness probes
type HealthzServer struct {
	httpServer
	log log.Logger
}

// Start serves /healthz on addr until the server is shut down
func (h *HealthzServer) Start(ctx context.Context, addr string) error {
	return h.listenAndServe(ctx, addr, h.Handler())
}

// Handler returns the healthz routes
func (h *HealthzServer) Handler() http.Handler {
	hdlr := http.NewServeMux()
	hdlr.HandleFunc("/healthz", h.Handle)
	return hdlr
}

func (h *HealthzServer) Handle(w http.ResponseWriter, r *http.Request) {
	h.log.Trace("Received health check request", "path", r.URL.Path)
	w.Write([]byte("OK")) //nolint:errcheck
}
