// Package serve hosts a dispatcher behind an HTTP server.
//
// The handler canonicalizes incoming paths, runs them through the
// dispatcher, and renders results and dispatch failures as JSON. A thin
// Server wrapper adds graceful shutdown for the CLI.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	fserrors "github.com/fsroute-dev/fsroute/internal/errors"
	"github.com/fsroute-dev/fsroute/internal/observability"
	"github.com/fsroute-dev/fsroute/pkg/dispatch"
	"github.com/fsroute-dev/fsroute/pkg/routepath"
)

// Config configures the HTTP adapter.
type Config struct {
	// Dispatcher handles every request that is not claimed by a
	// built-in endpoint.
	Dispatcher *dispatch.Dispatcher

	// Logger receives request-level failures. Default: no logging.
	Logger observability.Logger

	// Addr is the listen address for NewServer (e.g. "0.0.0.0:8080").
	Addr string

	// EnableMetrics mounts the Prometheus exposition endpoint at
	// GET /metrics.
	EnableMetrics bool
}

// NewHandler builds the HTTP handler: chi router, recoverer, request ID
// propagation, optional /metrics, and the dispatch catch-all.
func NewHandler(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestID(RequestIDConfig{TrustIncoming: true}))

	if cfg.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Handle("/*", &dispatchHandler{
		dispatcher: cfg.Dispatcher,
		logger:     logger,
	})

	return r
}

// dispatchHandler adapts the dispatcher to net/http.
type dispatchHandler struct {
	dispatcher *dispatch.Dispatcher
	logger     observability.Logger
}

func (h *dispatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path, err := normalizePath(r.URL.EscapedPath())
	if err != nil {
		h.logger.Warn("rejected request path",
			observability.String("path", r.URL.Path),
			observability.Error(err))
		writeJSON(w, http.StatusBadRequest, &dispatch.Error{
			Success: false,
			Code:    "BAD_PATH",
			Message: "request path is not valid",
			Status:  http.StatusBadRequest,
		})
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), &dispatch.Request{
		Method: r.Method,
		Path:   path,
		HTTP:   r,
		Writer: w,
	})
	if err != nil {
		var de *dispatch.Error
		if errors.As(err, &de) {
			writeJSON(w, de.Status, de)
			return
		}
		h.logger.Error("handler failed",
			observability.String("method", r.Method),
			observability.String("path", path),
			observability.Error(err))
		writeJSON(w, http.StatusInternalServerError, &dispatch.Error{
			Success: false,
			Code:    "INTERNAL",
			Message: "internal server error",
			Status:  http.StatusInternalServerError,
		})
		return
	}

	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// normalizePath canonicalizes the escaped request path and decodes its
// segments into the form the registry matches against.
func normalizePath(escaped string) (string, error) {
	res, err := routepath.CanonicalizePath(escaped)
	if err != nil {
		return "", err
	}
	segments, err := routepath.DecodePathSegments(res.Path)
	if err != nil {
		return "", err
	}
	return "/" + strings.Join(segments, "/"), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Server wraps http.Server with startup error mapping and graceful
// shutdown.
type Server struct {
	httpServer *http.Server
	logger     observability.Logger
}

// NewServer builds a Server listening on cfg.Addr.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewHandler(cfg),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start runs the server until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("server listening", observability.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fserrors.New("E060").Wrap(err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
