// Package errors provides structured, coded errors for operator-facing
// failures: compile fatals, registry I/O, configuration problems.
//
// Every registered code carries a category, a default message and a
// documentation URL; call sites add detail and suggestions:
//
//	return errors.New("E021").
//		WithDetail("routes.json not found in " + dir).
//		WithSuggestion("Run 'fsroute compile' first")
//
// Routing failures observed by HTTP clients (404/405) are deliberately
// not part of this package; they have a wire shape of their own in
// pkg/dispatch.
package errors
