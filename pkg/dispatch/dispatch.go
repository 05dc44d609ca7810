package dispatch

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	fserrors "github.com/fsroute-dev/fsroute/internal/errors"
	"github.com/fsroute-dev/fsroute/internal/observability"
	"github.com/fsroute-dev/fsroute/pkg/registry"
	"github.com/fsroute-dev/fsroute/pkg/router"
)

// Default tracer name for dispatch spans.
const defaultTracerName = "fsroute"

// Config configures a Dispatcher.
type Config struct {
	// Registry is the compiled route registry to match against.
	Registry *router.Registry

	// Resolver turns matched resource references into handlers.
	Resolver CodeResolver

	// AllowedMethods is the HTTP method whitelist, matched
	// case-insensitively. Empty or absent allows any method.
	AllowedMethods []string

	// Logger receives dispatch failures. Default: no logging.
	Logger observability.Logger

	// Metrics receives dispatch instruments. Default: no metrics.
	Metrics *Metrics

	// TracerName overrides the tracer name (default: "fsroute").
	TracerName string
}

// Dispatcher routes incoming calls through the registry and invokes the
// resolved handler. A Dispatcher is safe for concurrent use.
type Dispatcher struct {
	registry *router.Registry
	resolver CodeResolver
	allowed  map[string]struct{}
	logger   observability.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// New creates a Dispatcher from config.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Registry == nil {
		return nil, fserrors.Newf(fserrors.CategoryServe, "dispatcher requires a registry")
	}
	if cfg.Resolver == nil {
		return nil, fserrors.Newf(fserrors.CategoryServe, "dispatcher requires a code resolver")
	}

	// A nil set means no whitelist is configured and every method
	// passes MethodCheck.
	var allowed map[string]struct{}
	if len(cfg.AllowedMethods) > 0 {
		allowed = make(map[string]struct{}, len(cfg.AllowedMethods))
		for _, m := range cfg.AllowedMethods {
			allowed[strings.ToUpper(m)] = struct{}{}
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	tracerName := cfg.TracerName
	if tracerName == "" {
		tracerName = defaultTracerName
	}

	return &Dispatcher{
		registry: cfg.Registry,
		resolver: cfg.Resolver,
		allowed:  allowed,
		logger:   logger,
		metrics:  cfg.Metrics,
		tracer:   otel.Tracer(tracerName),
	}, nil
}

// Dispatch runs the full pipeline for one request: method whitelist,
// path match, resource resolution, handler invocation. The handler's
// result and error pass through untouched; only pipeline failures
// surface as *Error.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (any, error) {
	start := time.Now()

	ctx, span := d.tracer.Start(ctx, "fsroute.dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("fsroute.method", req.Method),
			attribute.String("fsroute.path", req.Path),
		),
	)
	defer span.End()

	result, err := d.dispatch(ctx, req)

	code := "ok"
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if de, ok := err.(*Error); ok {
			code = de.Code
		} else {
			code = "handler_error"
		}
	} else {
		span.SetStatus(otelcodes.Ok, "")
	}
	d.metrics.observe(code, time.Since(start).Seconds())

	return result, err
}

func (d *Dispatcher) dispatch(ctx context.Context, req *Request) (any, error) {
	method := strings.ToUpper(req.Method)

	if !d.methodAllowed(method) {
		d.logger.Warn("method not allowed",
			observability.String("method", req.Method),
			observability.String("path", req.Path))
		return nil, NotAllowed(req.Method)
	}

	table, params, ok := d.registry.Match(req.Path)
	if !ok {
		return nil, NotFound(method, req.Path)
	}

	ref, ok := table.Lookup(method)
	if !ok {
		return nil, NotFound(method, req.Path)
	}

	handler, err := d.resolver.Resolve(ref)
	if err != nil {
		d.metrics.resolveFailure()
		d.logger.Error("resource resolution failed",
			observability.String("filePath", ref.FilePath),
			observability.Error(err))
		return nil, NotFound(method, req.Path)
	}

	// The handler sees a copy so the caller's Request is never
	// written to; matched params win over any the caller supplied.
	invoked := *req
	invoked.Method = method
	invoked.Params = router.MergeParams(req.Params, params)
	return handler(ctx, &invoked)
}

func (d *Dispatcher) methodAllowed(method string) bool {
	if d.allowed == nil {
		return true
	}
	_, ok := d.allowed[method]
	return ok
}

// Exists reports whether a handler is registered for the method and
// path. It never returns an error: any failure along the pipeline,
// including resolution, reads as false.
func (d *Dispatcher) Exists(method, path string) bool {
	method = strings.ToUpper(method)
	if !d.methodAllowed(method) {
		return false
	}
	table, _, ok := d.registry.Match(path)
	if !ok {
		return false
	}
	ref, ok := table.Lookup(method)
	if !ok {
		return false
	}
	_, err := d.resolver.Resolve(ref)
	return err == nil
}

// LoadRegistry reads a serialized registry from a store and parses it.
func LoadRegistry(ctx context.Context, store registry.Store) (*router.Registry, error) {
	data, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	reg := router.NewRegistry()
	if err := json.Unmarshal(data, reg); err != nil {
		return nil, fserrors.New("E022").Wrap(err)
	}
	return reg, nil
}
