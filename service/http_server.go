package service

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/rs/cors"
)

// httpServer is a http.Server that can be shut down before or after it started
type httpServer struct {
	mu     sync.Mutex
	server *http.Server
}

func (h *httpServer) listenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	h.mu.Lock()
	h.server = &http.Server{
		Handler:     withCORS(handler),
		Addr:        addr,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	server := h.server
	h.mu.Unlock()
	return server.ListenAndServe()
}

// Shutdown stops the server, waiting for in-flight requests until ctx is done
func (h *httpServer) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	server := h.server
	h.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func withCORS(handler http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	return c.Handler(handler)
}
