package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fsroute-dev/fsroute/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌─┐┬─┐┌─┐┬ ┬┌┬┐┌─┐
  ├┤ └─┐├┬┘│ ││ │ │ ├┤
  └  └─┘┴└─└─┘└─┘ ┴ └─┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "fsroute",
		Short: "Filesystem-convention routing for HTTP services",
		Long: `fsroute compiles a directory of handler entry files into a
routing registry and serves requests against it.

Routes come from the directory layout:

  endpoints/
  ├── index.go            GET /
  ├── users/
  │   ├── index.go        GET /users, POST /users
  │   └── [id]/
  │       └── index.go    GET /users/:id

Commands:
  • compile  — walk the handler tree and write the registry
  • routes   — print the routing table from a compiled registry
  • serve    — serve requests against a compiled registry
  • dev      — serve with recompile-on-change and live reload`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		initCmd(),
		compileCmd(),
		routesCmd(),
		serveCmd(),
		devCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the fsroute ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
