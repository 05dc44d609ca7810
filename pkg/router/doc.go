// Package router holds the route tree shared by the compiler and the
// dispatcher: routing keys encoded from directory names, the nested
// route/method structure, its JSON registry format, and path matching
// with parameter extraction.
//
// # Directory Convention
//
// Each directory under the handlers root is one path segment. A name
// wrapped in brackets is a dynamic segment binding a parameter:
//
//	endpoints/
//	├── index.go               → /
//	├── users/
//	│   ├── index.go           → /users
//	│   └── [id]/
//	│       └── index.go       → /users/:id
//	└── health/
//	    └── index.go           → /health
//
// # Matching
//
// Matching is a greedy single-pass descent. At every level an exact
// static match wins over the dynamic child, and a wrong early dynamic
// choice is not revisited: this keeps resolution O(segments) and wholly
// deterministic under the single-dynamic-child rule, which Insert
// enforces.
//
//	reg := router.NewRegistry()
//	reg.Insert(router.EncodePath([]string{"users", "[id]"}), "GET",
//		router.ResourceRef{FilePath: "users/[id]/index.go"})
//
//	table, params, ok := reg.Match("/users/4124")
//	// ok, params["id"] == "4124", table.Lookup("GET") hits
package router
