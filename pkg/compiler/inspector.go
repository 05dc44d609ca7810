package compiler

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
)

// httpMethods are the exported function names recognized as method
// handlers in an entry file.
var httpMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"HEAD":    true,
	"OPTIONS": true,
}

// MethodInspector discovers which HTTP methods an entry file serves. It
// is the compile-time face of code resolution: the compiler never loads
// handler code, it only asks what the file declares.
type MethodInspector interface {
	// Inspect returns the declared methods for the entry file at path
	// within fsys, in declaration order. An empty result means the file
	// defines no route.
	Inspect(fsys fs.FS, path string) ([]string, error)
}

// ASTInspector inspects Go entry files by parsing their source: every
// exported top-level function named after an HTTP method (GET, POST, ...)
// declares that method. This is the default inspector.
type ASTInspector struct{}

// Inspect implements MethodInspector.
func (ASTInspector) Inspect(fsys fs.FS, path string) ([]string, error) {
	src, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var methods []string
	seen := make(map[string]bool)
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil || fn.Name == nil || !fn.Name.IsExported() {
			continue
		}
		name := fn.Name.Name
		if httpMethods[name] && !seen[name] {
			seen[name] = true
			methods = append(methods, name)
		}
	}
	return methods, nil
}

// MapInspector serves method declarations from an in-memory table keyed
// by entry-file path. It backs in-process handler registration, where the
// host application knows its methods without source inspection, and test
// fixtures.
type MapInspector map[string][]string

// Inspect implements MethodInspector.
func (m MapInspector) Inspect(_ fs.FS, path string) ([]string, error) {
	methods, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("no methods registered for %s", path)
	}
	return methods, nil
}
