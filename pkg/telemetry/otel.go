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
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/microbench/pkg/benchmark"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrOTelInitFailed is returned when OpenTelemetry initialization fails.
	ErrOTelInitFailed = errors.New("opentelemetry initialization failed")

	// ErrInvalidOTelConfig is returned when the OTel configuration is invalid.
	ErrInvalidOTelConfig = errors.New("invalid opentelemetry configuration")
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// OTelConfig configures the OpenTelemetry exporter.
//
// Thread Safety: Immutable after creation; safe for concurrent read access.
type OTelConfig struct {
	// ServiceName is the service name for telemetry.
	// Required.
	ServiceName string

	// ServiceVersion is the service version for telemetry.
	// Optional.
	ServiceVersion string

	// MeterProvider is the meter provider to use.
	// If nil, uses the global meter provider.
	MeterProvider metric.MeterProvider
}

// DefaultOTelConfig returns a configuration with sensible defaults.
//
// Example:
//
//	config := telemetry.DefaultOTelConfig()
//	exporter, err := telemetry.NewOTel(config)
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:    "microbench",
		ServiceVersion: "1.0.0",
	}
}

// Validate checks that the configuration is valid.
func (c *OTelConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service name is required")
	}
	return nil
}

// -----------------------------------------------------------------------------
// OpenTelemetry Exporter
// -----------------------------------------------------------------------------

// OTel exports benchmark iterations as OpenTelemetry metrics.
//
// Description:
//
//	OTel creates its instruments once at construction and hands out
//	per-benchmark hooks via Hook, attributed by benchmark name. Without a
//	configured meter provider the global provider is used, which defaults
//	to a no-op; exporting anywhere real is the caller's provider setup.
//
// Thread Safety: Safe for concurrent use.
//
// Example:
//
//	exporter, err := telemetry.NewOTel(telemetry.DefaultOTelConfig())
//	if err != nil {
//	    return err
//	}
//	defer exporter.Close()
//
//	runner.Run(ctx, cfg, unit, benchmark.WithHook(exporter.Hook(cfg.Name)))
type OTel struct {
	config *OTelConfig
	meter  metric.Meter

	iterations  metric.Int64Counter
	runs        metric.Int64Counter
	cpuSeconds  metric.Float64Histogram
	metricValue metric.Float64Gauge

	mu     sync.RWMutex
	closed bool
}

// NewOTel creates an OpenTelemetry exporter.
//
// Inputs:
//   - config: OpenTelemetry configuration. Must not be nil.
//
// Outputs:
//   - *OTel: The exporter. Never nil on success.
//   - error: Non-nil if configuration is invalid or instrument creation fails.
//
// Limitations:
//   - Requires a configured MeterProvider for actual export; with the no-op
//     global provider all recordings are discarded.
func NewOTel(config *OTelConfig) (*OTel, error) {
	if config == nil {
		return nil, ErrInvalidOTelConfig
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidOTelConfig, err)
	}

	// Copy config to avoid mutation
	cfg := *config

	mp := cfg.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(
		"github.com/AleutianAI/microbench/pkg/telemetry",
		metric.WithInstrumentationVersion(cfg.ServiceVersion),
	)

	exporter := &OTel{
		config: &cfg,
		meter:  meter,
	}
	if err := exporter.initializeInstruments(); err != nil {
		return nil, errors.Join(ErrOTelInitFailed, err)
	}

	return exporter, nil
}

// initializeInstruments creates all metric instruments.
func (o *OTel) initializeInstruments() error {
	var err error

	o.iterations, err = o.meter.Int64Counter(
		"benchmark.iterations",
		metric.WithDescription("Total measured benchmark iterations"),
		metric.WithUnit("{iteration}"),
	)
	if err != nil {
		return err
	}

	o.runs, err = o.meter.Int64Counter(
		"benchmark.runs",
		metric.WithDescription("Total completed benchmark runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return err
	}

	o.cpuSeconds, err = o.meter.Float64Histogram(
		"benchmark.cpu_time",
		metric.WithDescription("Per-iteration cpu time in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	o.metricValue, err = o.meter.Float64Gauge(
		"benchmark.metric_value",
		metric.WithDescription("Most recent value of each reported metric"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Hook returns a ResultHook that attributes this exporter's instruments with
// the given benchmark name.
//
// Thread Safety: Safe for concurrent use.
func (o *OTel) Hook(name string) benchmark.ResultHook {
	if name == "" {
		name = "unknown"
	}
	return &otelHook{
		exporter: o,
		name:     name,
		attrs:    metric.WithAttributes(attribute.String("benchmark.name", name)),
	}
}

// Close marks the exporter closed. The meter provider is shared and stays up;
// shutting it down is the caller's responsibility.
//
// Thread Safety: Safe for concurrent use. Idempotent.
func (o *OTel) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

func (o *OTel) isClosed() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.closed
}

// otelHook records one benchmark's iterations into the shared instruments.
//
// The hook interface carries no context, so recordings use a background
// context; attribution happens through the instrument attributes instead.
type otelHook struct {
	exporter *OTel
	name     string
	attrs    metric.MeasurementOption
}

var _ benchmark.ResultHook = (*otelHook)(nil)

// AddResults records the snapshot's metrics.
func (h *otelHook) AddResults(s benchmark.Snapshot) error {
	if h.exporter.isClosed() {
		return ErrSinkClosed
	}

	ctx := context.Background()
	h.exporter.iterations.Add(ctx, 1, h.attrs)
	for key, value := range s {
		h.exporter.metricValue.Record(ctx, float64(value),
			metric.WithAttributes(
				attribute.String("benchmark.name", h.name),
				attribute.String("metric.key", key),
			))
	}
	if cpu, ok := s[benchmark.MetricCPUNanos]; ok {
		h.exporter.cpuSeconds.Record(ctx, float64(cpu)/1e9, h.attrs)
	}
	return nil
}

// Finished counts the completed run.
func (h *otelHook) Finished() error {
	if h.exporter.isClosed() {
		return ErrSinkClosed
	}
	h.exporter.runs.Add(context.Background(), 1, h.attrs)
	return nil
}
