package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fsroute-dev/fsroute/internal/config"
	"github.com/fsroute-dev/fsroute/pkg/dispatch"
	"github.com/fsroute-dev/fsroute/pkg/router"
	"github.com/fsroute-dev/fsroute/pkg/serve"
)

func serveCmd() *cobra.Command {
	var (
		port         int
		host         string
		registryPath string
		metrics      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve requests against a compiled registry",
		Long: `Start an HTTP server that routes requests through a compiled
registry. Matched requests answer with the resolved handler reference
and extracted parameters; unmatched requests get the standard error
envelope.

To invoke real handler code, embed the dispatch package in your own
binary and register handlers on a FuncMap.

Examples:
  fsroute serve
  fsroute serve --port=9090
  fsroute serve --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, host, registryPath, metrics)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to bind (default from fsroute.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind (default from fsroute.json)")
	cmd.Flags().StringVar(&registryPath, "registry", "", "Registry path (default from fsroute.json)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Expose Prometheus metrics at /metrics")

	return cmd
}

// previewResolver answers every matched route with its registry entry.
// The serve command has no handler code compiled in, so this is what a
// standalone server can honestly do.
type previewResolver struct{}

func (previewResolver) Resolve(ref router.ResourceRef) (dispatch.Handler, error) {
	return func(ctx context.Context, req *dispatch.Request) (any, error) {
		return map[string]any{
			"success":  true,
			"method":   req.Method,
			"path":     req.Path,
			"filePath": ref.FilePath,
			"params":   req.Params,
		}, nil
	}, nil
}

func runServe(port int, host, registryPath string, metrics bool) error {
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
	if registryPath != "" {
		cfg.Dispatch.RegistryPath = registryPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := makeLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()

	store, err := makeStore(ctx, cfg, cfg.RegistryPathAbs())
	if err != nil {
		return err
	}
	reg, err := dispatch.LoadRegistry(ctx, store)
	if err != nil {
		return err
	}

	dispatchCfg := dispatch.Config{
		Registry:       reg,
		Resolver:       previewResolver{},
		AllowedMethods: cfg.Dispatch.AllowedMethods,
		Logger:         logger,
	}
	if metrics {
		dispatchCfg.Metrics = dispatch.NewMetrics()
	}
	d, err := dispatch.New(dispatchCfg)
	if err != nil {
		return err
	}

	server := serve.NewServer(serve.Config{
		Dispatcher:    d,
		Logger:        logger,
		Addr:          cfg.ServeAddress(),
		EnableMetrics: metrics,
	})

	printBanner()
	fmt.Println()
	info("Serving %d routes on http://%s", len(reg.Routes()), cfg.ServeAddress())
	if metrics {
		info("Metrics at http://%s/metrics", cfg.ServeAddress())
	}
	fmt.Println()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Println("\n\n  Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
