// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/microbench/cmd/microbench/config"
	"github.com/AleutianAI/microbench/pkg/benchmark"
	"github.com/AleutianAI/microbench/pkg/telemetry"
)

// errUnknownFormat is returned for report formats other than console or json.
var errUnknownFormat = errors.New("unknown report format")

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	runWarmup        int
	runMeasured      int
	runFormat        string
	runOutput        string
	runVerbose       bool
	runIterationsOut string
	runInflux        bool
	runMetricsListen string
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

// runCmd executes registered benchmarks.
var runCmd = &cobra.Command{
	Use:   "run [benchmark...]",
	Short: "Run registered benchmarks and report averaged results",
	Long: `Run the named benchmarks, or every registered benchmark when no
names are given.

Each benchmark runs its warmup iterations first (discarded), then its
measured iterations, and the per-metric averages are written to the
report. Benchmarks run strictly one after another; a failing benchmark
is reported and the rest of the suite still runs.

Examples:
  microbench run
  microbench run json_encode_1k sha256_hash_4m
  microbench run --warmup 2 --measured 50 int64_sort_100k
  microbench run --format json --output results.json
  microbench run --influx --iterations-out samples.jsonl
  microbench run --metrics-listen :9090 --measured 1000`,
	Run: runRun,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	runCmd.Flags().IntVar(&runWarmup, "warmup", -1,
		"Warmup iterations per benchmark (-1 = configured default)")
	runCmd.Flags().IntVar(&runMeasured, "measured", -1,
		"Measured iterations per benchmark (-1 = configured default)")
	runCmd.Flags().StringVar(&runFormat, "format", "console",
		"Report format: console or json")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "",
		"Write the report to a file instead of stdout")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false,
		"Report every metric, not just the default result key")
	runCmd.Flags().StringVar(&runIterationsOut, "iterations-out", "",
		"Write per-iteration samples as JSON lines to a file")
	runCmd.Flags().BoolVar(&runInflux, "influx", false,
		"Export per-iteration points to InfluxDB (server settings from the config file)")
	runCmd.Flags().StringVar(&runMetricsListen, "metrics-listen", "",
		"Serve Prometheus metrics on this address for the duration of the run")

	rootCmd.AddCommand(runCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// runRun executes the requested benchmarks.
func runRun(cmd *cobra.Command, args []string) {
	if err := executeRun(context.Background(), args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, benchmark.ErrNotFound) || errors.Is(err, errUnknownFormat) {
			os.Exit(exitBadArgs)
		}
		os.Exit(exitError)
	}
}

// executeRun resolves the target benchmarks, wires the reporter and
// telemetry hooks, and runs each target in turn. Deferred cleanups flush
// exporters and close files before the caller decides the exit code.
func executeRun(ctx context.Context, names []string) error {
	reg := benchmark.DefaultRegistry

	targets, err := resolveTargets(reg, names)
	if err != nil {
		return err
	}

	reporter, closeReport, err := buildReporter(runFormat, runOutput, runVerbose)
	if err != nil {
		return err
	}
	defer closeReport()

	// A private registry keeps the run's metrics separate from anything the
	// default registerer may carry.
	var metricsRegistry *prometheus.Registry
	if addr := metricsListenAddr(); addr != "" {
		metricsRegistry = prometheus.NewRegistry()
		shutdown, err := serveMetrics(addr, metricsRegistry)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	factory, closeHooks, err := buildHookFactory(metricsRegistry)
	if err != nil {
		closeHooks()
		return err
	}
	defer closeHooks()

	runner := benchmark.NewRunner()
	runner.SetLogger(logger.Slog())
	runner.SetReporter(reporter)

	var failures []string
	for _, name := range targets {
		entry, ok := reg.Get(name)
		if !ok {
			failures = append(failures, name)
			continue
		}

		cfg := entry.Config
		cfg.WarmupIterations = resolveIterations(runWarmup,
			config.Global.Defaults.WarmupIterations)
		cfg.MeasuredIterations = resolveIterations(runMeasured,
			config.Global.Defaults.MeasuredIterations)

		if _, err := runner.Run(ctx, cfg, entry.Benchmark,
			benchmark.WithHookFactory(factory)); err != nil {
			logger.Error("benchmark failed", "benchmark", name, "error", err)
			failures = append(failures, name)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d benchmarks failed: %s",
			len(failures), len(targets), strings.Join(failures, ", "))
	}
	return nil
}

// resolveTargets expands an empty name list to every registered benchmark
// and rejects names that are not registered.
func resolveTargets(reg *benchmark.Registry, names []string) ([]string, error) {
	if len(names) == 0 {
		targets := reg.List()
		if len(targets) == 0 {
			return nil, errors.New("no benchmarks registered")
		}
		return targets, nil
	}

	var unknown []string
	for _, name := range names {
		if _, ok := reg.Get(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s (see 'microbench list')",
			benchmark.ErrNotFound, strings.Join(unknown, ", "))
	}
	return names, nil
}

// resolveIterations picks an iteration count: an explicit flag value wins,
// otherwise the configured default.
func resolveIterations(flagValue, configured int) int {
	if flagValue >= 0 {
		return flagValue
	}
	return configured
}

// buildReporter constructs the report writer for the selected format. The
// returned cleanup closes the output file when one was opened.
func buildReporter(format, output string, verbose bool) (benchmark.Reporter, func(), error) {
	switch format {
	case "console", "json":
	default:
		return nil, func() {}, fmt.Errorf("%w: %q (want console or json)",
			errUnknownFormat, format)
	}

	out := io.Writer(os.Stdout)
	closeReport := func() {}
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return nil, closeReport, fmt.Errorf("creating report file: %w", err)
		}
		out = f
		closeReport = func() { _ = f.Close() }
	}

	if format == "json" {
		return benchmark.NewJSONReporter(out, true), closeReport, nil
	}
	return benchmark.NewConsoleReporter(out, verbose), closeReport, nil
}

// metricsListenAddr returns the metrics listen address, flag over config
// file, or empty when metrics serving is off.
func metricsListenAddr() string {
	if runMetricsListen != "" {
		return runMetricsListen
	}
	return config.Global.Telemetry.MetricsListen
}

// buildHookFactory wires the telemetry sinks selected by flags and config
// into a per-benchmark hook factory. The returned cleanup closes the
// exporters and any open sample file; it is safe to call even after an
// error.
func buildHookFactory(metricsRegistry *prometheus.Registry) (func(benchmark.Config) benchmark.ResultHook, func(), error) {
	var (
		prom       *telemetry.Prometheus
		influx     *telemetry.Influx
		samplesOut *os.File
	)

	cleanup := func() {
		if prom != nil {
			_ = prom.Close()
		}
		if influx != nil {
			_ = influx.Close()
		}
		if samplesOut != nil {
			_ = samplesOut.Close()
		}
	}

	if metricsRegistry != nil {
		promCfg := telemetry.DefaultPrometheusConfig()
		promCfg.Registry = metricsRegistry
		p, err := telemetry.NewPrometheus(promCfg)
		if err != nil {
			return nil, cleanup, fmt.Errorf("creating prometheus exporter: %w", err)
		}
		prom = p
	}

	if runInflux || config.Global.Telemetry.Influx.Enabled {
		i, err := telemetry.NewInflux(influxExportConfig())
		if err != nil {
			return nil, cleanup, fmt.Errorf("creating influx exporter: %w", err)
		}
		influx = i
	}

	if runIterationsOut != "" {
		f, err := os.Create(runIterationsOut)
		if err != nil {
			return nil, cleanup, fmt.Errorf("creating iterations file: %w", err)
		}
		samplesOut = f
	}

	factory := func(cfg benchmark.Config) benchmark.ResultHook {
		hooks := make([]benchmark.ResultHook, 0, 4)
		hooks = append(hooks, telemetry.NewLogging(logger.Slog(), cfg.Name))
		if prom != nil {
			hooks = append(hooks, prom.Hook(cfg.Name))
		}
		if influx != nil {
			hooks = append(hooks, influx.Hook(cfg.Name))
		}
		if samplesOut != nil {
			jl, err := telemetry.NewJSONLines(samplesOut, cfg.Name)
			if err != nil {
				logger.Warn("skipping iteration samples", "benchmark", cfg.Name,
					"error", err)
			} else {
				hooks = append(hooks, jl)
			}
		}

		if len(hooks) == 1 {
			return hooks[0]
		}
		composite, err := telemetry.NewComposite(hooks...)
		if err != nil {
			return hooks[0]
		}
		return composite
	}

	return factory, cleanup, nil
}

// influxExportConfig maps the config file's influx section to the exporter
// configuration. The API token only ever comes from INFLUXDB_TOKEN.
func influxExportConfig() *telemetry.InfluxConfig {
	file := config.Global.Telemetry.Influx
	return &telemetry.InfluxConfig{
		URL:    file.URL,
		Token:  os.Getenv("INFLUXDB_TOKEN"),
		Org:    file.Org,
		Bucket: file.Bucket,
	}
}

// serveMetrics serves the run's Prometheus registry on addr until the
// returned shutdown function is called.
func serveMetrics(addr string, registry *prometheus.Registry) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	logger.Info("serving metrics", "addr", listener.Addr().String())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}, nil
}
