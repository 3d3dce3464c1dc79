package kdt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/ethereum-optimism/infra/op-keyword/registry"
	"github.com/ethereum-optimism/infra/op-keyword/remote"
	"github.com/ethereum-optimism/infra/op-keyword/service"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

var _ cliapp.Lifecycle = (*LibraryServer)(nil)

// ServeConfig configures serving a registered library to remote runners
type ServeConfig struct {
	Addr    string
	Library string
	Log     log.Logger
}

// LibraryServer serves one in-process library over the remote keyword protocol
type LibraryServer struct {
	config   ServeConfig
	registry *registry.Registry
	remote   *remote.Server
	http     *service.KeywordServer
	stopped  atomic.Bool
}

// NewLibraryServer imports the configured library and prepares the server
func NewLibraryServer(ctx context.Context, cfg ServeConfig) (*LibraryServer, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	reg, err := registry.NewRegistry(registry.Config{Log: cfg.Log})
	if err != nil {
		return nil, err
	}
	lib, err := reg.Import(ctx, types.LibraryImport{Name: cfg.Library})
	if err != nil {
		return nil, NewRuntimeError(err)
	}
	srv, err := remote.NewServer(lib, cfg.Log)
	if err != nil {
		return nil, NewRuntimeError(fmt.Errorf("failed to create keyword server: %w", err))
	}
	return &LibraryServer{
		config:   cfg,
		registry: reg,
		remote:   srv,
		http:     service.NewKeywordServer(srv),
	}, nil
}

// Start implements the cliapp.Lifecycle interface.
func (s *LibraryServer) Start(ctx context.Context) error {
	s.config.Log.Info("Serving keyword library", "library", s.config.Library, "addr", s.config.Addr)
	go func() {
		if err := s.http.Start(ctx, s.config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.config.Log.Error("Keyword server failed", "err", err)
		}
	}()
	return nil
}

// Stop implements the cliapp.Lifecycle interface.
func (s *LibraryServer) Stop(ctx context.Context) error {
	if s.stopped.Swap(true) {
		return nil
	}
	err := s.http.Shutdown(ctx)
	s.remote.Stop()
	s.registry.Close()
	return err
}

// Stopped implements the cliapp.Lifecycle interface.
func (s *LibraryServer) Stopped() bool {
	return s.stopped.Load()
}
