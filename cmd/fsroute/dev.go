package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fsroute-dev/fsroute/internal/config"
	"github.com/fsroute-dev/fsroute/internal/dev"
	"github.com/fsroute-dev/fsroute/internal/observability"
	"github.com/fsroute-dev/fsroute/pkg/dispatch"
	"github.com/fsroute-dev/fsroute/pkg/router"
	"github.com/fsroute-dev/fsroute/pkg/serve"
)

// reloadEndpoint is where dev clients connect for reload notifications.
const reloadEndpoint = "/_fsroute/reload"

func devCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Serve with recompile-on-change and live reload",
		Long: `Start the development server.

The dev server watches the handlers directory, recompiles the registry
after every change, swaps the routing table without restarting, and
notifies clients connected to ` + reloadEndpoint + ` over WebSocket.

Examples:
  fsroute dev
  fsroute dev --port=9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(port, host)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to bind (default from fsroute.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind (default from fsroute.json)")

	return cmd
}

// handlerHolder is an http.Handler whose target can be swapped while
// serving. The dev loop installs a fresh handler after each recompile.
type handlerHolder struct {
	v atomic.Value
}

func (h *handlerHolder) Set(handler http.Handler) {
	h.v.Store(handler)
}

func (h *handlerHolder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if handler, ok := h.v.Load().(http.Handler); ok {
		handler.ServeHTTP(w, r)
		return
	}
	http.Error(w, "compiling", http.StatusServiceUnavailable)
}

func runDev(port int, host string) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Serve.Port = port
	}
	if host != "" {
		cfg.Serve.Host = host
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := makeLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	holder := &handlerHolder{}

	session, err := dev.NewSession(dev.Options{
		Config: cfg,
		Logger: logger,
		OnRegistry: func(reg *router.Registry) {
			handler, err := buildDevHandler(cfg, logger, reg)
			if err != nil {
				logger.Error("failed to rebuild handler", observability.Error(err))
				return
			}
			holder.Set(handler)
			success("Compiled %d routes", len(reg.Routes()))
		},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	printBanner()
	fmt.Println("  dev")
	fmt.Println()

	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc(reloadEndpoint, session.Reload().HandleWebSocket)
	mux.Handle("/", holder)

	httpServer := &http.Server{
		Addr:              cfg.ServeAddress(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	info("Serving on http://%s", cfg.ServeAddress())
	info("Watching %s", cfg.Compiler.HandlersRoot)
	fmt.Println()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Println("\n\n  Shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func buildDevHandler(cfg *config.Config, logger observability.Logger, reg *router.Registry) (http.Handler, error) {
	d, err := dispatch.New(dispatch.Config{
		Registry:       reg,
		Resolver:       previewResolver{},
		AllowedMethods: cfg.Dispatch.AllowedMethods,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	return serve.NewHandler(serve.Config{
		Dispatcher: d,
		Logger:     logger,
	}), nil
}
