package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/ripple-go/ripple/pkg/reactive"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetricsRecordsFlushActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg))
	defer m.Close()

	obj := reactive.NewObject(map[string]any{"n": 0})
	w := reactive.NewWatcher(func() any { return obj.Get("n") },
		func(_, _ any) {})
	defer w.Teardown()

	obj.Set("n", 1)
	obj.Set("n", 2)

	if got := metricCounterValue(t, m.flushesTotal); got != 2 {
		t.Errorf("flushes_total=%v, want 2", got)
	}
	if got := metricCounterValue(t, m.watcherRunsTotal); got != 2 {
		t.Errorf("watcher_runs_total=%v, want 2", got)
	}
	if got := metricCounterValue(t, m.runawayTotal); got != 0 {
		t.Errorf("runaway_total=%v, want 0", got)
	}
	if got := metricGaugeValue(t, m.queueDepth); got != 1 {
		t.Errorf("queue_depth=%v, want 1", got)
	}
	if got := metricHistogramCount(t, m.flushDuration); got != 2 {
		t.Errorf("flush_duration_seconds count=%v, want 2", got)
	}
}

func TestMetricsCloseDetaches(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg))
	m.Close()

	obj := reactive.NewObject(map[string]any{"n": 0})
	w := reactive.NewWatcher(func() any { return obj.Get("n") },
		func(_, _ any) {})
	defer w.Teardown()

	obj.Set("n", 1)

	if got := metricCounterValue(t, m.flushesTotal); got != 0 {
		t.Errorf("flushes_total=%v after Close, want 0", got)
	}
}

func TestMetricsOptionsApply(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(
		WithRegistry(reg),
		WithNamespace("app"),
		WithSubsystem("reactivity"),
		WithConstLabels(prometheus.Labels{"env": "test"}),
		WithBuckets([]float64{0.001, 0.01}),
	)
	defer m.Close()

	m.FlushStart(3)
	m.WatcherRan(1)
	m.FlushEnd(time.Millisecond, 1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}

	want := map[string]bool{
		"app_reactivity_flushes_total":          false,
		"app_reactivity_watcher_runs_total":     false,
		"app_reactivity_flush_duration_seconds": false,
		"app_reactivity_queue_depth":            false,
	}
	for _, mf := range families {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("metric %s not registered", name)
		}
	}
}
