// Package telemetry exposes scheduler flush activity as Prometheus
// metrics and OpenTelemetry traces.
//
// Both collectors implement reactive.FlushObserver and attach through
// reactive.RegisterFlushObserver:
//
//	m := telemetry.Prometheus(telemetry.WithNamespace("myapp"))
//	defer m.Close()
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ripple-go/ripple/pkg/reactive"
)

// MetricsConfig configures the Prometheus flush collector.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "ripple").
	Namespace string

	// Subsystem is the metrics subsystem (default: "scheduler").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus flush collector.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the flush duration histogram buckets.
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

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "ripple",
		Subsystem:   "scheduler",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registry:    prometheus.DefaultRegisterer,
	}
}

// Metrics is a reactive.FlushObserver that records flush activity as
// Prometheus metrics.
type Metrics struct {
	flushesTotal     prometheus.Counter
	watcherRunsTotal prometheus.Counter
	runawayTotal     prometheus.Counter
	flushDuration    prometheus.Histogram
	queueDepth       prometheus.Gauge

	remove func()
}

// Prometheus creates the flush metrics collector and registers it as a
// flush observer. Call Close to detach it.
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	m := &Metrics{
		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of scheduler flushes",
			ConstLabels: config.ConstLabels,
		}),

		watcherRunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "watcher_runs_total",
			Help:        "Total number of watcher re-evaluations during flushes",
			ConstLabels: config.ConstLabels,
		}),

		runawayTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "runaway_total",
			Help:        "Total number of watchers dropped for retriggering past the update limit",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "queue_depth",
			Help:        "Watchers queued at the start of the most recent flush",
			ConstLabels: config.ConstLabels,
		}),
	}

	m.remove = reactive.RegisterFlushObserver(m)
	return m
}

// FlushStart implements reactive.FlushObserver.
func (m *Metrics) FlushStart(queued int) {
	m.flushesTotal.Inc()
	m.queueDepth.Set(float64(queued))
}

// WatcherRan implements reactive.FlushObserver.
func (m *Metrics) WatcherRan(id uint64) {
	m.watcherRunsTotal.Inc()
}

// FlushEnd implements reactive.FlushObserver.
func (m *Metrics) FlushEnd(took time.Duration, runs int) {
	m.flushDuration.Observe(took.Seconds())
}

// Runaway implements reactive.FlushObserver.
func (m *Metrics) Runaway(id uint64) {
	m.runawayTotal.Inc()
}

// Close detaches the collector from the scheduler. Metrics stay
// registered with the Prometheus registry.
func (m *Metrics) Close() {
	if m.remove != nil {
		m.remove()
		m.remove = nil
	}
}
