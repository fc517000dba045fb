package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ripple-bench",
		Short: "Benchmark harness for the Ripple reactivity engine",
		Long: `ripple-bench drives a synthetic reactive workload and reports
flush throughput and latency percentiles.

The workload builds a graph of reactive objects and watchers, mutates
it at a configurable rate, and measures scheduler flush durations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}
