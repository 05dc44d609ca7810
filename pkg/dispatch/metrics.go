package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the dispatch metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "fsroute").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the dispatch metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "fsroute",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus instruments for the dispatcher.
//
// Instruments:
//   - fsroute_dispatches_total: Counter of dispatches by outcome code
//   - fsroute_dispatch_duration_seconds: Histogram of dispatch duration
//   - fsroute_resolve_failures_total: Counter of resource resolution failures
//
// The outcome code label is "ok" for successful dispatches and the
// dispatch failure code (NOT_ALLOWED, NOT_FOUND) or "handler_error"
// otherwise. The label set is closed, so cardinality stays bounded.
type Metrics struct {
	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	resolveFailures  prometheus.Counter
}

// NewMetrics creates and registers the dispatch instruments.
//
// Example:
//
//	m := dispatch.NewMetrics(
//	    dispatch.WithNamespace("myapp"),
//	)
//	d, err := dispatch.New(dispatch.Config{Registry: reg, Resolver: fm, Metrics: m})
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		dispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "dispatches_total",
			Help:        "Total number of dispatches by outcome code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		dispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "dispatch_duration_seconds",
			Help:        "Dispatch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		resolveFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "resolve_failures_total",
			Help:        "Total number of resource resolution failures",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) observe(code string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchesTotal.WithLabelValues(code).Inc()
	m.dispatchDuration.Observe(seconds)
}

func (m *Metrics) resolveFailure() {
	if m == nil {
		return
	}
	m.resolveFailures.Inc()
}
