package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fsroute-dev/fsroute/internal/config"
	"github.com/fsroute-dev/fsroute/pkg/compiler"
)

func compileCmd() *cobra.Command {
	var (
		root    string
		output  string
		entry   string
		exclude []string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the handler tree into a routing registry",
		Long: `Walk the handlers directory and write the routing registry.

Every directory with an entry file becomes a route. Directory names in
[brackets] become dynamic parameters. Entry files that fail to load or
expose no HTTP method handlers are skipped with a warning.

Examples:
  fsroute compile
  fsroute compile --root=endpoints --output=routes.json
  fsroute compile --exclude=internal --exclude=testdata`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(root, output, entry, exclude, verbose)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", "", "Handlers directory (default from fsroute.json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Registry output path (default from fsroute.json)")
	cmd.Flags().StringVar(&entry, "entry", "", "Entry file name (default index.go)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Directory names to skip (repeatable)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every compiled route")

	return cmd
}

func runCompile(root, output, entry string, exclude []string, verbose bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	if root != "" {
		cfg.Compiler.HandlersRoot = root
	}
	if output != "" {
		cfg.Compiler.OutputPath = output
	}
	if entry != "" {
		cfg.Compiler.EntryFileName = entry
	}
	if len(exclude) > 0 {
		cfg.Compiler.ExcludedNames = append(cfg.Compiler.ExcludedNames, exclude...)
	}
	if verbose {
		cfg.Compiler.Verbose = true
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

	store, err := makeStore(ctx, cfg, cfg.OutputPathAbs())
	if err != nil {
		return err
	}

	fmt.Println("  Compiling routes...")
	fmt.Println()

	reg, err := compiler.CompileAndStore(ctx, os.DirFS(cfg.HandlersRootPath()), compiler.Options{
		EntryFileName: cfg.Compiler.EntryFileName,
		ExcludedNames: cfg.Compiler.ExcludedNames,
		Logger:        logger,
		Verbose:       cfg.Compiler.Verbose,
	}, store)
	if err != nil {
		return err
	}

	routes := reg.Routes()
	for _, route := range routes {
		info("%-7s %-30s %s", route.Method, route.Path, route.Ref.FilePath)
	}
	fmt.Println()
	if cfg.Store.Type == "s3" {
		success("Compiled %d routes to s3://%s/%s", len(routes), cfg.Store.Bucket, cfg.Store.Key)
	} else {
		success("Compiled %d routes to %s", len(routes), cfg.Compiler.OutputPath)
	}

	return nil
}
