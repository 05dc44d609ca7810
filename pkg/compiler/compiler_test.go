package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/fsroute-dev/fsroute/pkg/registry"
	"github.com/fsroute-dev/fsroute/pkg/router"
)

func entryFile(src string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(src)}
}

func handlerTree() fstest.MapFS {
	return fstest.MapFS{
		"index.go":                  entryFile(`package endpoints; func GET() {}`),
		"users/index.go":            entryFile(`package users; func GET() {}; func POST() {}`),
		"users/[id]/index.go":       entryFile(`package user; func GET() {}; func DELETE() {}`),
		"health/index.go":           entryFile(`package health; func GET() {}`),
		"dev/generate-key/index.go": entryFile(`package genkey; func POST() {}`),
	}
}

func findRoute(routes []router.Route, path, method string) (router.Route, bool) {
	for _, rt := range routes {
		if rt.Path == path && rt.Method == method {
			return rt, true
		}
	}
	return router.Route{}, false
}

func TestCompileBuildsTree(t *testing.T) {
	reg, err := Compile(handlerTree(), Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	routes := reg.Routes()
	want := []struct {
		path, method, file string
	}{
		{"/", "GET", "index.go"},
		{"/users", "GET", "users/index.go"},
		{"/users", "POST", "users/index.go"},
		{"/users/:id", "GET", "users/[id]/index.go"},
		{"/users/:id", "DELETE", "users/[id]/index.go"},
		{"/health", "GET", "health/index.go"},
		{"/dev/generate-key", "POST", "dev/generate-key/index.go"},
	}
	if len(routes) != len(want) {
		t.Fatalf("len(routes) = %d, want %d: %+v", len(routes), len(want), routes)
	}
	for _, w := range want {
		rt, ok := findRoute(routes, w.path, w.method)
		if !ok {
			t.Errorf("missing route %s %s", w.method, w.path)
			continue
		}
		if rt.Ref.FilePath != w.file {
			t.Errorf("%s %s ref = %q, want %q", w.method, w.path, rt.Ref.FilePath, w.file)
		}
	}
}

func TestCompileExclusionPrunesSubtrees(t *testing.T) {
	reg, err := Compile(handlerTree(), Options{ExcludedNames: []string{"dev"}})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	for _, rt := range reg.Routes() {
		if rt.Path == "/dev/generate-key" {
			t.Error("excluded subtree leaked into the registry")
		}
	}
}

func TestCompileExclusionMatchesNamesAnywhere(t *testing.T) {
	fsys := fstest.MapFS{
		"users/index.go":            entryFile(`package users; func GET() {}`),
		"users/internal/index.go":   entryFile(`package internal1; func GET() {}`),
		"billing/internal/index.go": entryFile(`package internal2; func GET() {}`),
		"billing/index.go":          entryFile(`package billing; func GET() {}`),
	}

	reg, err := Compile(fsys, Options{ExcludedNames: []string{"internal"}})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	routes := reg.Routes()
	if len(routes) != 2 {
		t.Fatalf("len(routes) = %d, want 2: %+v", len(routes), routes)
	}
	for _, rt := range routes {
		if rt.Path == "/users/internal" || rt.Path == "/billing/internal" {
			t.Errorf("excluded name survived at %s", rt.Path)
		}
	}
}

func TestCompileSkipsMalformedEntryFile(t *testing.T) {
	fsys := fstest.MapFS{
		"good/index.go":   entryFile(`package good; func GET() {}`),
		"broken/index.go": entryFile(`package broken; func GET( {`),
	}

	reg, err := Compile(fsys, Options{})
	if err != nil {
		t.Fatalf("a malformed entry file must not abort the compile: %v", err)
	}

	routes := reg.Routes()
	if len(routes) != 1 || routes[0].Path != "/good" {
		t.Errorf("routes = %+v, want only /good", routes)
	}
}

func TestCompileSkipsMethodlessEntryFile(t *testing.T) {
	fsys := fstest.MapFS{
		"util/index.go": entryFile(`package util; func Helper() {}`),
		"api/index.go":  entryFile(`package api; func GET() {}`),
	}

	reg, err := Compile(fsys, Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	routes := reg.Routes()
	if len(routes) != 1 || routes[0].Path != "/api" {
		t.Errorf("routes = %+v, want only /api", routes)
	}
}

func TestCompileIgnoresNonEntryFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"users/index.go":   entryFile(`package users; func GET() {}`),
		"users/helpers.go": entryFile(`package users; func POST() {}`),
		"users/README.md":  entryFile(`docs`),
	}

	reg, err := Compile(fsys, Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	table, _, ok := reg.Match("/users")
	if !ok {
		t.Fatal("Match(/users) = no match")
	}
	if _, ok := table.Lookup("POST"); ok {
		t.Error("non-entry file must not contribute methods")
	}
}

func TestCompileCustomEntryFileName(t *testing.T) {
	fsys := fstest.MapFS{
		"users/route.go": entryFile(`package users; func GET() {}`),
		"users/index.go": entryFile(`package users; func POST() {}`),
	}

	reg, err := Compile(fsys, Options{EntryFileName: "route.go"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	table, _, _ := reg.Match("/users")
	if _, ok := table.Lookup("GET"); !ok {
		t.Error("custom entry file not compiled")
	}
	if _, ok := table.Lookup("POST"); ok {
		t.Error("default entry name must be ignored when overridden")
	}
}

func TestCompileUnreadableRootIsFatal(t *testing.T) {
	fsys := fstest.MapFS{
		"endpoints/users/index.go": entryFile(`package users; func GET() {}`),
	}

	if _, err := Compile(fsys, Options{Root: "no-such-dir"}); err == nil {
		t.Fatal("unreadable root must be fatal")
	}
}

func TestCompileSubRoot(t *testing.T) {
	fsys := fstest.MapFS{
		"endpoints/users/index.go": entryFile(`package users; func GET() {}`),
		"docs/users/index.go":      entryFile(`package users; func GET() {}`),
	}

	reg, err := Compile(fsys, Options{Root: "endpoints"})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	routes := reg.Routes()
	if len(routes) != 1 {
		t.Fatalf("routes = %+v, want only the endpoints subtree", routes)
	}
	if routes[0].Ref.FilePath != "users/index.go" {
		t.Errorf("ref = %q, want path relative to root", routes[0].Ref.FilePath)
	}
}

func TestCompileWithMapInspector(t *testing.T) {
	fsys := fstest.MapFS{
		"orders/index.go": entryFile(`anything, never parsed`),
	}

	reg, err := Compile(fsys, Options{
		Inspector: MapInspector{"orders/index.go": {"GET", "put"}},
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	table, _, _ := reg.Match("/orders")
	if _, ok := table.Lookup("GET"); !ok {
		t.Error("missing GET")
	}
	// Methods are normalized to uppercase on write.
	if _, ok := table["PUT"]; !ok {
		t.Errorf("table = %v, want uppercased PUT key", table)
	}
}

func TestCompileDeterministicOutput(t *testing.T) {
	one, err := Compile(handlerTree(), Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	two, err := Compile(handlerTree(), Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	a, err := MarshalRegistry(one)
	if err != nil {
		t.Fatalf("MarshalRegistry: %v", err)
	}
	b, err := MarshalRegistry(two)
	if err != nil {
		t.Fatalf("MarshalRegistry: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("registries differ across identical compiles:\n%s\n%s", a, b)
	}
	if a[len(a)-1] != '\n' {
		t.Error("persisted registry should end with a newline")
	}
}

func TestCompileAndStore(t *testing.T) {
	store := registry.NewFileStore(filepath.Join(t.TempDir(), "routes.json"))

	reg, err := CompileAndStore(context.Background(), handlerTree(), Options{}, store)
	if err != nil {
		t.Fatalf("CompileAndStore: %v", err)
	}

	data, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	loaded := router.NewRegistry()
	if err := json.Unmarshal(data, loaded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(loaded.Routes()) != len(reg.Routes()) {
		t.Errorf("stored registry has %d routes, compiled %d",
			len(loaded.Routes()), len(reg.Routes()))
	}
}

func TestASTInspector(t *testing.T) {
	fsys := fstest.MapFS{
		"index.go": entryFile(`package ep

import "net/http"

type thing struct{}

// GET serves the collection.
func GET(w http.ResponseWriter, r *http.Request) {}

func POST(w http.ResponseWriter, r *http.Request) {}

// not exported, not a method handler
func delete_(w http.ResponseWriter, r *http.Request) {}

// method name on a receiver does not count
func (thing) PUT() {}

func Helper() {}
`),
	}

	methods, err := ASTInspector{}.Inspect(fsys, "index.go")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(methods) != 2 || methods[0] != "GET" || methods[1] != "POST" {
		t.Errorf("methods = %v, want [GET POST]", methods)
	}
}
