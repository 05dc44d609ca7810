package dev

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsroute-dev/fsroute/internal/config"
	"github.com/fsroute-dev/fsroute/internal/observability"
	"github.com/fsroute-dev/fsroute/pkg/compiler"
	"github.com/fsroute-dev/fsroute/pkg/registry"
	"github.com/fsroute-dev/fsroute/pkg/router"
)

// Options configures a dev session.
type Options struct {
	// Config is the loaded project configuration.
	Config *config.Config

	// Logger receives session events. Default: no logging.
	Logger observability.Logger

	// OnRegistry is called with the fresh registry after every
	// successful compile, including the initial one. Use it to swap
	// the dispatcher's routing table.
	OnRegistry func(*router.Registry)
}

// Session runs the dev loop: compile the registry, watch the handler
// tree, recompile on change, and notify connected reload clients.
type Session struct {
	cfg    *config.Config
	logger observability.Logger
	onReg  func(*router.Registry)

	watcher *Watcher
	reload  *ReloadServer
	store   registry.Store

	mu      sync.RWMutex
	current *router.Registry
}

// NewSession creates a dev session from options.
func NewSession(opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	s := &Session{
		cfg:    opts.Config,
		logger: logger,
		onReg:  opts.OnRegistry,
		reload: NewReloadServer(),
		store:  registry.NewFileStore(opts.Config.OutputPathAbs()),
	}

	watcher, err := NewWatcher(
		opts.Config.HandlersRootPath(),
		s.recompile,
		WithLogger(logger),
		WithDebounceDelay(time.Duration(opts.Config.Dev.DebounceMS)*time.Millisecond),
		WithIgnore(opts.Config.Dev.Ignore),
		WithExtraRoots(opts.Config.Dev.Watch),
	)
	if err != nil {
		return nil, err
	}
	s.watcher = watcher

	return s, nil
}

// Start compiles the registry once, then begins watching for changes.
func (s *Session) Start(ctx context.Context) error {
	if err := s.compile(ctx); err != nil {
		return err
	}
	return s.watcher.Start(ctx)
}

// Stop stops the watcher and disconnects reload clients.
func (s *Session) Stop() error {
	err := s.watcher.Stop()
	s.reload.Close()
	return err
}

// Registry returns the most recently compiled registry.
func (s *Session) Registry() *router.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload returns the reload server for mounting its WebSocket endpoint.
func (s *Session) Reload() *ReloadServer {
	return s.reload
}

// compile runs one full compile and publishes the result.
func (s *Session) compile(ctx context.Context) error {
	fsys := os.DirFS(s.cfg.HandlersRootPath())

	reg, err := compiler.CompileAndStore(ctx, fsys, compiler.Options{
		EntryFileName: s.cfg.Compiler.EntryFileName,
		ExcludedNames: s.cfg.Compiler.ExcludedNames,
		Logger:        s.logger,
		Verbose:       s.cfg.Compiler.Verbose,
	}, s.store)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = reg
	s.mu.Unlock()

	if s.onReg != nil {
		s.onReg(reg)
	}
	return nil
}

// recompile is the watcher callback. Compile failures are broadcast to
// reload clients and keep the previous registry in place.
func (s *Session) recompile() {
	s.logger.Info("handler tree changed, recompiling")

	if err := s.compile(context.Background()); err != nil {
		s.logger.Error("recompile failed", observability.Error(err))
		s.reload.NotifyError(err.Error())
		return
	}

	s.reload.ClearError()
	s.reload.NotifyReload()
}
