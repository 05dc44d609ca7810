package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fsroute-dev/fsroute/internal/config"
	"github.com/fsroute-dev/fsroute/internal/errors"
)

func initCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a new fsroute project",
		Long: `Create fsroute.json and a starter handlers directory.

Examples:
  fsroute init
  fsroute init myservice
  fsroute init --name=myservice`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(dir, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name (default: directory name)")

	return cmd
}

func runInit(dir, name string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if config.Exists(abs) {
		return errors.Newf(errors.CategoryCLI, "%s already contains %s", dir, config.ConfigFileName)
	}
	if name == "" {
		name = filepath.Base(abs)
	}

	handlers := filepath.Join(abs, config.DefaultHandlersRoot)
	if err := os.MkdirAll(handlers, 0755); err != nil {
		return err
	}

	cfg := config.New()
	cfg.Name = name
	if err := cfg.SaveTo(filepath.Join(abs, config.ConfigFileName)); err != nil {
		return err
	}

	entry := filepath.Join(handlers, config.DefaultEntryFile)
	if err := os.WriteFile(entry, []byte(starterEntry), 0644); err != nil {
		return err
	}

	printBanner()
	fmt.Println()
	success("Created project %q", name)
	fmt.Println()
	info("%s", config.ConfigFileName)
	info("%s/%s", config.DefaultHandlersRoot, config.DefaultEntryFile)
	fmt.Println()
	info("Next steps:")
	info("  fsroute compile")
	info("  fsroute serve")
	fmt.Println()

	return nil
}

const starterEntry = `package endpoints

// GET answers the root route. Exported functions named after HTTP
// methods are picked up by the compiler.
func GET() {}
`
