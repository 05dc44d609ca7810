package dispatch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fsroute-dev/fsroute/pkg/router"
)

// Handler is the unit of work a dispatch resolves to. It receives the
// request context and the dispatch request, and returns a result value
// that the hosting layer is free to encode however it likes.
type Handler func(ctx context.Context, req *Request) (any, error)

// Request carries everything a handler needs about the incoming call.
// HTTP and Writer are populated when the dispatcher is hosted behind an
// HTTP server and nil when it is driven directly (tests, CLI probes).
type Request struct {
	Method string
	Path   string
	Params router.Params

	HTTP   *http.Request
	Writer http.ResponseWriter
}

// CodeResolver turns a resource reference from the registry into an
// executable handler. Resolution happens on every dispatch, so
// implementations that do real work should cache internally.
type CodeResolver interface {
	Resolve(ref router.ResourceRef) (Handler, error)
}

// FuncMap resolves resource references against an in-process table of
// handlers keyed by registry file path. It is the resolver used when
// the handler code is compiled into the same binary.
type FuncMap map[string]Handler

// Register associates a handler with a registry file path. Registering
// the same path twice replaces the earlier handler.
func (fm FuncMap) Register(filePath string, h Handler) {
	fm[filePath] = h
}

// Resolve implements CodeResolver.
func (fm FuncMap) Resolve(ref router.ResourceRef) (Handler, error) {
	h, ok := fm[ref.FilePath]
	if !ok {
		return nil, fmt.Errorf("no handler registered for %q", ref.FilePath)
	}
	return h, nil
}
