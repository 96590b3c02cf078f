// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package benchmark

import (
	"errors"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrInvalidConfig indicates an invalid benchmark configuration.
	ErrInvalidConfig = errors.New("invalid benchmark configuration")

	// ErrNilBenchmark indicates that a nil work unit was passed to the runner.
	ErrNilBenchmark = errors.New("benchmark is nil")

	// ErrMissingMetric indicates that a required metric key is absent from the
	// averaged results. Use errors.Is against this sentinel; the concrete error
	// is a *MissingMetricError carrying the key name.
	ErrMissingMetric = errors.New("required metric missing")
)

// -----------------------------------------------------------------------------
// Metric snapshots
// -----------------------------------------------------------------------------

// Conventional metric keys. The harness does not fix the key set, and a work
// unit may report any named int64 metrics, but the console reporter requires
// all five of these to produce its summary line.
const (
	// MetricCPUNanos is the self-reported CPU time for one iteration.
	MetricCPUNanos = "cpu_nanos"

	// MetricInputRows is the number of rows consumed by one iteration.
	MetricInputRows = "input_rows"

	// MetricInputBytes is the number of bytes consumed by one iteration.
	MetricInputBytes = "input_bytes"

	// MetricOutputRows is the number of rows produced by one iteration.
	MetricOutputRows = "output_rows"

	// MetricOutputBytes is the number of bytes produced by one iteration.
	MetricOutputBytes = "output_bytes"
)

// RequiredMetrics lists the keys the console reporter refuses to report
// without, in the order they appear in the summary line.
var RequiredMetrics = []string{
	MetricCPUNanos,
	MetricInputRows,
	MetricInputBytes,
	MetricOutputRows,
	MetricOutputBytes,
}

// Snapshot is the set of named metrics returned by one work-unit invocation.
//
// Description:
//
//	A Snapshot maps metric names to 64-bit integer values. Each RunOnce call
//	produces a fresh Snapshot; the harness treats it as immutable once
//	returned and never writes to it. Work units self-report their own
//	metrics; the harness performs no timing of its own.
//
// Thread Safety: Not safe for concurrent mutation. The harness reads it from
// a single goroutine only.
type Snapshot map[string]int64

// Clone returns an independent copy of the snapshot. Observers that retain
// snapshots past the AddResults call should copy rather than alias.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Default iteration counts used by DefaultConfig and the CLI flags.
const (
	DefaultWarmupIterations   = 5
	DefaultMeasuredIterations = 10
)

// Config identifies a benchmark and fixes its iteration protocol.
//
// Description:
//
//	Config is the immutable (name, warmup, measured) triple for one
//	benchmark. Warmup iterations run first and are discarded entirely;
//	measured iterations feed the accumulator and any hook. Construct via
//	NewConfig, which validates, or call Validate before first use.
//
// Thread Safety: Safe for concurrent read access after construction.
type Config struct {
	// Name identifies the benchmark in reports and telemetry. Must be
	// non-empty.
	Name string

	// WarmupIterations is the number of discarded priming runs. Must not be
	// negative.
	WarmupIterations int

	// MeasuredIterations is the number of runs that contribute to the
	// averaged result. Must not be negative.
	MeasuredIterations int
}

// NewConfig builds a validated Config.
//
// Inputs:
//   - name: Benchmark name. Must be non-empty.
//   - warmup: Discarded iteration count. Must not be negative.
//   - measured: Measured iteration count. Must not be negative.
//
// Outputs:
//   - Config: The validated configuration.
//   - error: Wraps ErrInvalidConfig if any field is out of range. A failed
//     construction yields an unusable zero Config.
func NewConfig(name string, warmup, measured int) (Config, error) {
	cfg := Config{
		Name:               name,
		WarmupIterations:   warmup,
		MeasuredIterations: measured,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig returns a Config for name with the package default iteration
// counts. The result still needs a non-empty name to validate.
func DefaultConfig(name string) Config {
	return Config{
		Name:               name,
		WarmupIterations:   DefaultWarmupIterations,
		MeasuredIterations: DefaultMeasuredIterations,
	}
}

// Validate checks that the configuration is usable.
//
// Outputs:
//   - error: Wraps ErrInvalidConfig naming the offending field, or nil.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidConfig)
	}
	if c.WarmupIterations < 0 {
		return fmt.Errorf("%w: warmup iterations must not be negative, got %d",
			ErrInvalidConfig, c.WarmupIterations)
	}
	if c.MeasuredIterations < 0 {
		return fmt.Errorf("%w: measured iterations must not be negative, got %d",
			ErrInvalidConfig, c.MeasuredIterations)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Results
// -----------------------------------------------------------------------------

// Result holds the averaged outcome of one completed benchmark run.
//
// Description:
//
//	Result carries the per-key arithmetic means computed over the measured
//	iterations, plus run bookkeeping. Averages contains only keys that
//	appeared in at least one measured snapshot; with zero measured
//	iterations it is empty, and the reporters fail with a
//	*MissingMetricError rather than print garbage.
//
// Thread Safety: Safe for concurrent read access after creation.
type Result struct {
	// RunID uniquely identifies this run in exported telemetry.
	RunID string

	// Name is the benchmark name from the Config.
	Name string

	// WarmupIterations is the discarded iteration count that was configured.
	WarmupIterations int

	// MeasuredIterations is the measured iteration count that was configured.
	MeasuredIterations int

	// Samples is the number of snapshots the accumulator actually received.
	Samples int

	// StartedAt is when the run began (UTC).
	StartedAt time.Time

	// WallTime is the wall-clock duration of the whole run, including warmup
	// and set-up/tear-down. Informational only; rate math uses cpu_nanos.
	WallTime time.Duration

	// DefaultResultKey names the single metric external monitoring should
	// track for this benchmark.
	DefaultResultKey string

	// Averages maps metric name to its arithmetic mean over the measured
	// iterations.
	Averages map[string]float64
}

// Average returns the averaged value for key and whether it was present.
func (r *Result) Average(key string) (float64, bool) {
	v, ok := r.Averages[key]
	return v, ok
}

// DefaultResult returns the averaged value of the benchmark's default result
// key. Monitoring that can track only one series should use this value.
func (r *Result) DefaultResult() (float64, bool) {
	return r.Average(r.DefaultResultKey)
}
