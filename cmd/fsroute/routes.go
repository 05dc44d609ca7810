package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fsroute-dev/fsroute/internal/config"
	"github.com/fsroute-dev/fsroute/pkg/dispatch"
)

func routesCmd() *cobra.Command {
	var (
		registryPath string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the routing table from a compiled registry",
		Long: `Load a compiled registry and print the routes it contains.

Examples:
  fsroute routes
  fsroute routes --registry=routes.json
  fsroute routes --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(registryPath, asJSON)
		},
	}

	cmd.Flags().StringVar(&registryPath, "registry", "", "Registry path (default from fsroute.json)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the routing table as JSON")

	return cmd
}

func runRoutes(registryPath string, asJSON bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if registryPath != "" {
		cfg.Dispatch.RegistryPath = registryPath
	}

	ctx := context.Background()

	store, err := makeStore(ctx, cfg, cfg.RegistryPathAbs())
	if err != nil {
		return err
	}

	reg, err := dispatch.LoadRegistry(ctx, store)
	if err != nil {
		return err
	}

	routes := reg.Routes()

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(routes)
	}

	if len(routes) == 0 {
		warn("Registry contains no routes")
		return nil
	}

	fmt.Println()
	for _, route := range routes {
		info("%-7s %-30s %s", route.Method, route.Path, route.Ref.FilePath)
	}
	fmt.Println()
	info("%d routes", len(routes))

	return nil
}
