// Package compiler turns a handler directory layout into a route
// registry. It walks the handlers root depth-first, recognizes one entry
// file per directory, asks a MethodInspector which HTTP methods the file
// declares, and records one registry leaf per (path, method) pointing at
// the entry file. The registry is then persisted through pkg/registry
// for the dispatcher to load at serve time.
//
// Directory names are route segments; [bracketed] names become dynamic
// parameters. Excluded names prune whole subtrees wherever they appear.
// A single broken entry file never fails the compile: it is logged and
// skipped so the remaining routes still ship.
//
//	reg, err := compiler.Compile(os.DirFS("endpoints"), compiler.Options{
//		ExcludedNames: []string{"dev"},
//	})
package compiler
