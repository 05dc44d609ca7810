package compiler

import (
	"context"
	"encoding/json"
	"io/fs"
	"path"
	"strings"

	"github.com/fsroute-dev/fsroute/internal/errors"
	"github.com/fsroute-dev/fsroute/internal/observability"
	"github.com/fsroute-dev/fsroute/pkg/registry"
	"github.com/fsroute-dev/fsroute/pkg/router"
)

// DefaultEntryFileName is the entry file recognized in each directory.
const DefaultEntryFileName = "index.go"

// Options configures a compile run.
type Options struct {
	// Root is the handlers root within the filesystem ("." by default).
	Root string

	// EntryFileName is the per-directory entry file (default "index.go").
	EntryFileName string

	// ExcludedNames are directory names pruned wherever they appear.
	// Matching is on raw names, before any segment encoding.
	ExcludedNames []string

	// Inspector discovers methods per entry file (default ASTInspector).
	Inspector MethodInspector

	// Logger receives per-file skip warnings and, with Verbose, one line
	// per compiled route.
	Logger observability.Logger

	// Verbose enables per-route logging.
	Verbose bool
}

func (o *Options) applyDefaults() {
	if o.Root == "" {
		o.Root = "."
	}
	if o.EntryFileName == "" {
		o.EntryFileName = DefaultEntryFileName
	}
	if o.Inspector == nil {
		o.Inspector = ASTInspector{}
	}
	if o.Logger == nil {
		o.Logger = observability.NopLogger()
	}
}

// Compile walks the handlers tree depth-first and builds a route
// registry: one leaf per (directory path, declared method). A broken or
// methodless entry file is logged and skipped, never fatal; an unreadable
// root aborts the compile.
func Compile(fsys fs.FS, opts Options) (*router.Registry, error) {
	opts.applyDefaults()

	c := &compiler{
		fsys:     fsys,
		opts:     opts,
		excluded: make(map[string]bool, len(opts.ExcludedNames)),
		reg:      router.NewRegistry(),
	}
	for _, name := range opts.ExcludedNames {
		c.excluded[name] = true
	}

	// The root must be listable; nothing else about it is fatal.
	if _, err := fs.ReadDir(fsys, opts.Root); err != nil {
		return nil, errors.New("E001").
			WithDetail("Cannot list " + opts.Root).
			Wrap(err)
	}

	c.walkDir(opts.Root, nil)
	return c.reg, nil
}

type compiler struct {
	fsys     fs.FS
	opts     Options
	excluded map[string]bool
	reg      *router.Registry
}

// walkDir visits one directory. rawPath holds the raw directory names
// from the root down to dir; encoding into routing keys happens only at
// insertion, after exclusion matching has already run on raw names.
func (c *compiler) walkDir(dir string, rawPath []string) {
	entries, err := fs.ReadDir(c.fsys, dir)
	if err != nil {
		c.opts.Logger.Warn("skipping unreadable directory",
			observability.String("dir", dir),
			observability.Error(err))
		return
	}

	for _, entry := range entries {
		name := entry.Name()

		if entry.IsDir() {
			if c.excluded[name] {
				if c.opts.Verbose {
					c.opts.Logger.Info("excluded subtree",
						observability.String("dir", path.Join(dir, name)))
				}
				continue
			}
			c.walkDir(path.Join(dir, name), append(append([]string(nil), rawPath...), name))
			continue
		}

		if name == c.opts.EntryFileName {
			c.compileEntry(path.Join(dir, name), rawPath)
		}
	}
}

// compileEntry inserts one leaf per method declared by the entry file.
func (c *compiler) compileEntry(filePath string, rawPath []string) {
	methods, err := c.opts.Inspector.Inspect(c.fsys, filePath)
	if err != nil {
		c.opts.Logger.Warn(errors.New("E002").Error(),
			observability.String("file", filePath),
			observability.Error(err))
		return
	}
	if len(methods) == 0 {
		c.opts.Logger.Warn(errors.New("E002").Error(),
			observability.String("file", filePath),
			observability.String("reason", "no method handlers declared"))
		return
	}

	keys := router.EncodePath(rawPath)
	ref := router.ResourceRef{FilePath: c.relToRoot(filePath)}

	for _, method := range methods {
		if err := c.reg.Insert(keys, method, ref); err != nil {
			c.opts.Logger.Warn(errors.New("E003").Error(),
				observability.String("file", filePath),
				observability.Error(err))
			return
		}
		if c.opts.Verbose {
			c.opts.Logger.Info("route compiled",
				observability.String("method", strings.ToUpper(method)),
				observability.String("path", routePath(rawPath)),
				observability.String("file", ref.FilePath))
		}
	}
}

// relToRoot strips the root prefix so stored refs stay relocatable.
func (c *compiler) relToRoot(filePath string) string {
	if c.opts.Root == "." {
		return filePath
	}
	return strings.TrimPrefix(filePath, c.opts.Root+"/")
}

func routePath(rawPath []string) string {
	if len(rawPath) == 0 {
		return "/"
	}
	return "/" + strings.Join(rawPath, "/")
}

// MarshalRegistry serializes a registry the way the compiler persists it:
// two-space indented JSON with a trailing newline, keys sorted.
func MarshalRegistry(reg *router.Registry) ([]byte, error) {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// CompileAndStore compiles the handlers tree and persists the registry,
// overwriting any prior content at the store's destination.
func CompileAndStore(ctx context.Context, fsys fs.FS, opts Options, store registry.Store) (*router.Registry, error) {
	reg, err := Compile(fsys, opts)
	if err != nil {
		return nil, err
	}

	data, err := MarshalRegistry(reg)
	if err != nil {
		return nil, errors.New("E020").Wrap(err)
	}
	if err := store.Save(ctx, data); err != nil {
		return nil, err
	}
	return reg, nil
}
