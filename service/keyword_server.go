package service

import (
	"context"
	"net/http"
)

// KeywordServer serves keyword libraries to remote runners over HTTP
type KeywordServer struct {
	httpServer
	handler http.Handler
}

// NewKeywordServer wraps a remote keyword server handler
func NewKeywordServer(handler http.Handler) *KeywordServer {
	return &KeywordServer{handler: handler}
}

// Start serves the keyword protocol on addr until the server is shut down
func (k *KeywordServer) Start(ctx context.Context, addr string) error {
	return k.listenAndServe(ctx, addr, k.handler)
}
