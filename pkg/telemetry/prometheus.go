// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AleutianAI/microbench/pkg/benchmark"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrInvalidConfig is returned when the Prometheus configuration is invalid.
	ErrInvalidConfig = errors.New("invalid prometheus configuration")

	// ErrRegistrationFailed is returned when metric registration fails.
	ErrRegistrationFailed = errors.New("metric registration failed")
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// PrometheusConfig configures the Prometheus exporter.
//
// Thread Safety: Immutable after creation; safe for concurrent read access.
type PrometheusConfig struct {
	// Namespace is the metrics namespace (e.g., "microbench").
	// Required.
	Namespace string

	// Subsystem is the metrics subsystem (e.g., "benchmark").
	// Required.
	Subsystem string

	// Registry is the Prometheus registry to use.
	// If nil, uses prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// CPUBuckets defines histogram buckets for per-iteration cpu time
	// (seconds). If nil, uses default buckets.
	CPUBuckets []float64
}

// DefaultPrometheusConfig returns a configuration with sensible defaults.
//
// Outputs:
//   - *PrometheusConfig: Configuration with defaults applied.
//
// Example:
//
//	config := telemetry.DefaultPrometheusConfig()
//	exporter, err := telemetry.NewPrometheus(config)
func DefaultPrometheusConfig() *PrometheusConfig {
	return &PrometheusConfig{
		Namespace: "microbench",
		Subsystem: "benchmark",
		CPUBuckets: []float64{
			0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *PrometheusConfig) Validate() error {
	if c.Namespace == "" {
		return errors.New("namespace is required")
	}
	if c.Subsystem == "" {
		return errors.New("subsystem is required")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Prometheus Exporter
// -----------------------------------------------------------------------------

// Prometheus exports benchmark iterations as Prometheus metrics.
//
// Description:
//
//	Prometheus registers its collectors once at creation and hands out
//	lightweight per-benchmark hooks via Hook. All hooks share the same
//	collectors, labelled by benchmark name, so a whole suite run exports
//	through a single exporter. Collectors are unregistered on Close.
//
// Thread Safety: Safe for concurrent use.
//
// Example:
//
//	exporter, err := telemetry.NewPrometheus(telemetry.DefaultPrometheusConfig())
//	if err != nil {
//	    return err
//	}
//	defer exporter.Close()
//
//	runner.RunAll(ctx, reg, benchmark.WithHookFactory(func(cfg benchmark.Config) benchmark.ResultHook {
//	    return exporter.Hook(cfg.Name)
//	}))
type Prometheus struct {
	config   *PrometheusConfig
	registry prometheus.Registerer

	iterationsTotal *prometheus.CounterVec
	runsTotal       *prometheus.CounterVec
	metricValue     *prometheus.GaugeVec
	cpuSeconds      *prometheus.HistogramVec

	mu     sync.RWMutex
	closed bool

	// Track registered collectors for cleanup
	collectors []prometheus.Collector
}

// NewPrometheus creates a Prometheus exporter.
//
// Description:
//
//	Registers all collectors on creation. Registration tolerates
//	collectors that are already registered so repeated construction
//	against the default registry does not fail.
//
// Inputs:
//   - config: Prometheus configuration. Must not be nil.
//
// Outputs:
//   - *Prometheus: The exporter. Never nil on success.
//   - error: Non-nil if configuration is invalid or registration fails.
func NewPrometheus(config *PrometheusConfig) (*Prometheus, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	cfg := *config // Copy to avoid mutating input
	if cfg.CPUBuckets == nil {
		cfg.CPUBuckets = DefaultPrometheusConfig().CPUBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	exporter := &Prometheus{
		config:   &cfg,
		registry: registry,
	}

	exporter.iterationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "iterations_total",
			Help:      "Total measured benchmark iterations",
		},
		[]string{"benchmark"},
	)

	exporter.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "runs_total",
			Help:      "Total completed benchmark runs",
		},
		[]string{"benchmark"},
	)

	exporter.metricValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "metric_value",
			Help:      "Most recent value of each reported metric",
		},
		[]string{"benchmark", "metric"},
	)

	exporter.cpuSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cpu_seconds",
			Help:      "Per-iteration cpu time distribution in seconds",
			Buckets:   cfg.CPUBuckets,
		},
		[]string{"benchmark"},
	)

	exporter.collectors = []prometheus.Collector{
		exporter.iterationsTotal,
		exporter.runsTotal,
		exporter.metricValue,
		exporter.cpuSeconds,
	}

	for _, c := range exporter.collectors {
		if err := registry.Register(c); err != nil {
			// If already registered, try to continue
			var alreadyErr prometheus.AlreadyRegisteredError
			if !errors.As(err, &alreadyErr) {
				return nil, errors.Join(ErrRegistrationFailed, err)
			}
		}
	}

	return exporter, nil
}

// Hook returns a ResultHook that labels this exporter's metrics with the
// given benchmark name.
//
// Thread Safety: Safe for concurrent use.
func (p *Prometheus) Hook(name string) benchmark.ResultHook {
	if name == "" {
		name = "unknown"
	}
	return &promHook{exporter: p, name: name}
}

// Close unregisters all collectors.
//
// Description:
//
//	After Close, hooks created from this exporter return ErrSinkClosed.
//
// Thread Safety: Safe for concurrent use. Idempotent.
func (p *Prometheus) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	// DefaultRegisterer doesn't expose Unregister; only a concrete
	// *prometheus.Registry can clean up.
	if reg, ok := p.registry.(*prometheus.Registry); ok {
		for _, c := range p.collectors {
			reg.Unregister(c)
		}
	}

	return nil
}

func (p *Prometheus) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// promHook records one benchmark's iterations into the shared collectors.
type promHook struct {
	exporter *Prometheus
	name     string
}

var _ benchmark.ResultHook = (*promHook)(nil)

// AddResults records the snapshot's metrics.
func (h *promHook) AddResults(s benchmark.Snapshot) error {
	if h.exporter.isClosed() {
		return ErrSinkClosed
	}

	h.exporter.iterationsTotal.WithLabelValues(h.name).Inc()
	for key, value := range s {
		h.exporter.metricValue.WithLabelValues(h.name, key).Set(float64(value))
	}
	if cpu, ok := s[benchmark.MetricCPUNanos]; ok {
		h.exporter.cpuSeconds.WithLabelValues(h.name).Observe(float64(cpu) / 1e9)
	}
	return nil
}

// Finished counts the completed run.
func (h *promHook) Finished() error {
	if h.exporter.isClosed() {
		return ErrSinkClosed
	}
	h.exporter.runsTotal.WithLabelValues(h.name).Inc()
	return nil
}
