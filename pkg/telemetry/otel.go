package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ripple-go/ripple/pkg/reactive"
)

// Default tracer name for Ripple applications.
const defaultTracerName = "ripple"

// TracingConfig configures the OpenTelemetry flush tracer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "ripple").
	TracerName string

	// RecordWatcherRuns adds a span event for every watcher that runs
	// during a flush. Enabled by default; disable for very hot loops.
	RecordWatcherRuns bool

	// AttributeExtractor supplies extra attributes for each flush span.
	AttributeExtractor func() []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry flush tracer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithRecordWatcherRuns enables/disables per-watcher span events.
func WithRecordWatcherRuns(record bool) TracingOption {
	return func(c *TracingConfig) {
		c.RecordWatcherRuns = record
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func() []attribute.KeyValue) TracingOption {
	return func(c *TracingConfig) {
		c.AttributeExtractor = extractor
	}
}

// defaultTracingConfig returns the default tracing configuration.
func defaultTracingConfig() TracingConfig {
	return TracingConfig{
		TracerName:        defaultTracerName,
		RecordWatcherRuns: true,
	}
}

// Tracer is a reactive.FlushObserver that produces one span per
// scheduler flush.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure
// it in your main() before creating the Tracer:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
type Tracer struct {
	config TracingConfig

	mu      sync.Mutex
	span    trace.Span
	runaway bool

	remove func()
}

// OpenTelemetry creates the flush tracer and registers it as a flush
// observer. Call Close to detach it.
func OpenTelemetry(opts ...TracingOption) *Tracer {
	config := defaultTracingConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	t := &Tracer{config: config}
	t.remove = reactive.RegisterFlushObserver(t)
	return t
}

// FlushStart implements reactive.FlushObserver.
func (t *Tracer) FlushStart(queued int) {
	attrs := []attribute.KeyValue{
		attribute.Int("ripple.queue_depth", queued),
	}
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor()...)
	}

	_, span := t.config.tracer.Start(
		context.Background(),
		"ripple.flush",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(time.Now()),
	)

	t.mu.Lock()
	t.span = span
	t.runaway = false
	t.mu.Unlock()
}

// WatcherRan implements reactive.FlushObserver.
func (t *Tracer) WatcherRan(id uint64) {
	if !t.config.RecordWatcherRuns {
		return
	}
	t.mu.Lock()
	span := t.span
	t.mu.Unlock()
	if span == nil {
		return
	}
	span.AddEvent("watcher.run", trace.WithAttributes(
		attribute.Int64("ripple.watcher_id", int64(id)),
	))
}

// Runaway implements reactive.FlushObserver.
func (t *Tracer) Runaway(id uint64) {
	t.mu.Lock()
	span := t.span
	t.runaway = true
	t.mu.Unlock()
	if span == nil {
		return
	}
	span.AddEvent("watcher.runaway", trace.WithAttributes(
		attribute.Int64("ripple.watcher_id", int64(id)),
	))
}

// FlushEnd implements reactive.FlushObserver.
func (t *Tracer) FlushEnd(took time.Duration, runs int) {
	t.mu.Lock()
	span := t.span
	runaway := t.runaway
	t.span = nil
	t.mu.Unlock()
	if span == nil {
		return
	}

	span.SetAttributes(
		attribute.Int("ripple.watcher_runs", runs),
		attribute.Int64("ripple.flush_micros", took.Microseconds()),
	)
	if runaway {
		span.SetStatus(codes.Error, "runaway update loop")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Close detaches the tracer from the scheduler and ends any open span.
func (t *Tracer) Close() {
	if t.remove != nil {
		t.remove()
		t.remove = nil
	}
	t.mu.Lock()
	span := t.span
	t.span = nil
	t.mu.Unlock()
	if span != nil {
		span.End()
	}
}
