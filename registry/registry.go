package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/library/textlib"
	"github.com/ethereum-optimism/infra/op-keyword/remote"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

// LibraryFactory creates an in-process keyword library
type LibraryFactory func(ctx context.Context, log log.Logger) (keyword.Source, error)

// Registry loads suite and variable files and resolves library imports
type Registry struct {
	config    Config
	factories map[string]LibraryFactory
	names     map[string]string
	libraries map[string]keyword.Source
	remotes   map[string]*remote.Library
	mu        sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log log.Logger
}

// NewRegistry creates a new registry with the standard libraries registered
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{
		config:    cfg,
		factories: make(map[string]LibraryFactory),
		names:     make(map[string]string),
		libraries: make(map[string]keyword.Source),
		remotes:   make(map[string]*remote.Library),
	}
	err := r.RegisterLibrary(textlib.Name, func(context.Context, log.Logger) (keyword.Source, error) {
		return textlib.New()
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// RegisterLibrary makes an in-process library importable by name
func (r *Registry) RegisterLibrary(name string, factory LibraryFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := types.NormalizeName(name)
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("library '%s' is already registered", name)
	}
	r.factories[key] = factory
	r.names[key] = name
	return nil
}

// Libraries returns the names of the registered in-process libraries
func (r *Registry) Libraries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.names))
	for _, name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Import resolves a library import. In-process libraries are created once and
// shared by every suite importing them; remote libraries are connected once
// per URL.
func (r *Registry) Import(ctx context.Context, imp types.LibraryImport) (keyword.Source, error) {
	if imp.Remote != "" {
		return r.importRemote(ctx, imp)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := types.NormalizeName(imp.Name)
	if lib, ok := r.libraries[key]; ok {
		return lib, nil
	}
	factory, ok := r.factories[key]
	if !ok {
		return nil, fmt.Errorf("Importing library '%s' failed: no library with that name is registered.", imp.Name)
	}
	lib, err := factory(ctx, r.config.Log.New("library", imp.Name))
	if err != nil {
		return nil, fmt.Errorf("Importing library '%s' failed: %w", imp.Name, err)
	}
	r.libraries[key] = lib
	r.config.Log.Debug("Imported library", "library", imp.Name, "keywords", len(lib.KeywordNames()))
	return lib, nil
}

func (r *Registry) importRemote(ctx context.Context, imp types.LibraryImport) (keyword.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lib, ok := r.remotes[imp.Remote]; ok {
		return lib, nil
	}
	name := imp.Name
	if name == "" {
		name = "Remote"
	}
	lib, err := remote.Dial(ctx, name, imp.Remote, r.config.Log)
	if err != nil {
		return nil, fmt.Errorf("Importing remote library '%s' failed: %w", name, err)
	}
	r.remotes[imp.Remote] = lib
	r.config.Log.Info("Connected to remote library", "library", name, "url", imp.Remote, "keywords", len(lib.KeywordNames()))
	return lib, nil
}

// Close disconnects from every remote library
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for url, lib := range r.remotes {
		lib.Close()
		delete(r.remotes, url)
	}
}
