package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ripple-go/ripple/pkg/devtools"
	"github.com/ripple-go/ripple/pkg/reactive"
	"github.com/ripple-go/ripple/pkg/telemetry"
)

type profile struct {
	Name      string
	Objects   int
	Keys      int
	Watchers  int
	Mutations int
	Deep      bool
}

var profiles = map[string]profile{
	"fast": {
		Name:      "fast",
		Objects:   100,
		Keys:      10,
		Watchers:  200,
		Mutations: 10_000,
	},
	"standard": {
		Name:      "standard",
		Objects:   1_000,
		Keys:      20,
		Watchers:  2_000,
		Mutations: 100_000,
	},
	"stress": {
		Name:      "stress",
		Objects:   5_000,
		Keys:      50,
		Watchers:  10_000,
		Mutations: 500_000,
		Deep:      true,
	},
}

type benchConfig struct {
	Profile    string
	Objects    int
	Keys       int
	Watchers   int
	Mutations  int
	Deep       bool
	JSONOutput string
	Inspect    string
}

type benchResult struct {
	Profile       string        `json:"profile"`
	Objects       int           `json:"objects"`
	Watchers      int           `json:"watchers"`
	Mutations     int           `json:"mutations"`
	Flushes       int           `json:"flushes"`
	WatcherRuns   int           `json:"watcher_runs"`
	Elapsed       time.Duration `json:"elapsed_ns"`
	MutationsPerS float64       `json:"mutations_per_second"`
	FlushP50      time.Duration `json:"flush_p50_ns"`
	FlushP90      time.Duration `json:"flush_p90_ns"`
	FlushP99      time.Duration `json:"flush_p99_ns"`
	FlushMax      time.Duration `json:"flush_max_ns"`
}

// flushSampler collects per-flush durations from the scheduler.
type flushSampler struct {
	mu      sync.Mutex
	samples []time.Duration
	runs    int
}

func (s *flushSampler) FlushStart(queued int) {}
func (s *flushSampler) WatcherRan(id uint64)  {}
func (s *flushSampler) Runaway(id uint64)     {}

func (s *flushSampler) FlushEnd(took time.Duration, runs int) {
	s.mu.Lock()
	s.samples = append(s.samples, took)
	s.runs += runs
	s.mu.Unlock()
}

func runCmd() *cobra.Command {
	var cfg benchConfig

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the synthetic reactive workload",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, ok := profiles[cfg.Profile]
			if !ok {
				return fmt.Errorf("unknown profile %q (want fast, standard, or stress)", cfg.Profile)
			}
			if !cmd.Flags().Changed("objects") {
				cfg.Objects = base.Objects
			}
			if !cmd.Flags().Changed("keys") {
				cfg.Keys = base.Keys
			}
			if !cmd.Flags().Changed("watchers") {
				cfg.Watchers = base.Watchers
			}
			if !cmd.Flags().Changed("mutations") {
				cfg.Mutations = base.Mutations
			}
			if !cmd.Flags().Changed("deep") {
				cfg.Deep = base.Deep
			}
			return runBench(cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.Profile, "profile", "p", "fast", "Workload profile: fast, standard, stress")
	cmd.Flags().IntVar(&cfg.Objects, "objects", 0, "Number of reactive objects")
	cmd.Flags().IntVar(&cfg.Keys, "keys", 0, "Keys per object")
	cmd.Flags().IntVar(&cfg.Watchers, "watchers", 0, "Number of watchers")
	cmd.Flags().IntVar(&cfg.Mutations, "mutations", 0, "Total mutations to apply")
	cmd.Flags().BoolVar(&cfg.Deep, "deep", false, "Use deep watchers")
	cmd.Flags().StringVar(&cfg.JSONOutput, "json", "", "Write results as JSON to this file")
	cmd.Flags().StringVar(&cfg.Inspect, "inspect", "", "Serve the devtools inspector on this address (e.g. :6161)")

	return cmd
}

func runBench(cfg benchConfig) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if cfg.Inspect != "" {
		reg := prometheus.NewRegistry()
		metrics := telemetry.Prometheus(telemetry.WithRegistry(reg))
		defer metrics.Close()

		insp := devtools.NewInspector(
			devtools.WithLogger(logger),
			devtools.WithGatherer(reg),
		)
		defer insp.Close()

		go func() {
			logger.Info("inspector listening", "addr", cfg.Inspect)
			if err := http.ListenAndServe(cfg.Inspect, insp.Router()); err != nil {
				logger.Error("inspector server failed", "error", err)
			}
		}()
	}

	sampler := &flushSampler{}
	removeSampler := reactive.RegisterFlushObserver(sampler)
	defer removeSampler()

	logger.Info("building workload",
		"objects", cfg.Objects, "keys", cfg.Keys, "watchers", cfg.Watchers)

	objects := make([]*reactive.Object, cfg.Objects)
	for i := range objects {
		props := make(map[string]any, cfg.Keys)
		for k := 0; k < cfg.Keys; k++ {
			props[fmt.Sprintf("k%d", k)] = 0
		}
		if cfg.Deep {
			props["nested"] = map[string]any{"inner": 0}
		}
		objects[i] = reactive.NewObject(props)
	}

	watchers := make([]*reactive.Watcher, cfg.Watchers)
	for i := range watchers {
		obj := objects[i%len(objects)]
		key := fmt.Sprintf("k%d", i%cfg.Keys)
		var opts []reactive.WatcherOption
		if cfg.Deep {
			opts = append(opts, reactive.Deep())
		}
		watchers[i] = reactive.NewWatcher(func() any {
			return obj.Get(key)
		}, func(_, _ any) {}, opts...)
	}
	defer func() {
		for _, w := range watchers {
			w.Teardown()
		}
	}()

	logger.Info("running", "mutations", cfg.Mutations)

	start := time.Now()
	for i := 0; i < cfg.Mutations; i++ {
		obj := objects[i%len(objects)]
		key := fmt.Sprintf("k%d", i%cfg.Keys)
		obj.Set(key, i+1)
	}
	elapsed := time.Since(start)

	sampler.mu.Lock()
	latencies := append([]time.Duration(nil), sampler.samples...)
	runs := sampler.runs
	sampler.mu.Unlock()
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	result := benchResult{
		Profile:       cfg.Profile,
		Objects:       cfg.Objects,
		Watchers:      cfg.Watchers,
		Mutations:     cfg.Mutations,
		Flushes:       len(latencies),
		WatcherRuns:   runs,
		Elapsed:       elapsed,
		MutationsPerS: float64(cfg.Mutations) / elapsed.Seconds(),
		FlushP50:      percentile(latencies, 0.50),
		FlushP90:      percentile(latencies, 0.90),
		FlushP99:      percentile(latencies, 0.99),
		FlushMax:      percentile(latencies, 1.0),
	}

	printResult(result)

	if cfg.JSONOutput != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		if err := os.WriteFile(cfg.JSONOutput, data, 0o644); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		logger.Info("results written", "path", cfg.JSONOutput)
	}

	return nil
}

func printResult(r benchResult) {
	fmt.Printf("\nprofile %s: %d objects, %d watchers, %d mutations\n",
		r.Profile, r.Objects, r.Watchers, r.Mutations)
	fmt.Printf("  elapsed:      %v\n", r.Elapsed.Round(time.Millisecond))
	fmt.Printf("  throughput:   %.0f mutations/s\n", r.MutationsPerS)
	fmt.Printf("  flushes:      %d (%d watcher runs)\n", r.Flushes, r.WatcherRuns)
	fmt.Printf("  flush p50:    %v\n", r.FlushP50)
	fmt.Printf("  flush p90:    %v\n", r.FlushP90)
	fmt.Printf("  flush p99:    %v\n", r.FlushP99)
	fmt.Printf("  flush max:    %v\n", r.FlushMax)
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
