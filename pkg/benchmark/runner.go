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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "microbench.benchmark"

// -----------------------------------------------------------------------------
// Work-unit errors
// -----------------------------------------------------------------------------

// Phase identifies which part of the run protocol a failure came from.
type Phase string

const (
	// PhaseSetUp covers the one-time SetUp call.
	PhaseSetUp Phase = "setup"
	// PhaseRun covers warmup and measured RunOnce calls.
	PhaseRun Phase = "run"
	// PhaseTearDown covers the one-time TearDown call.
	PhaseTearDown Phase = "teardown"
	// PhaseHook covers ResultHook callbacks.
	PhaseHook Phase = "hook"
)

// WorkUnitError wraps a failure raised by the work unit or hook during a run.
//
// Description:
//
//	Carries the benchmark name and the protocol phase that failed alongside
//	the underlying error. Work-unit failures are never retried; a single
//	failed iteration aborts the whole run after tear-down has been
//	attempted.
type WorkUnitError struct {
	Benchmark string
	Phase     Phase
	Err       error
}

var _ error = (*WorkUnitError)(nil)

// Error returns the formatted error message.
func (e *WorkUnitError) Error() string {
	return fmt.Sprintf("benchmark %q: %s failed: %v", e.Benchmark, e.Phase, e.Err)
}

// Unwrap returns the underlying error.
func (e *WorkUnitError) Unwrap() error {
	return e.Err
}

// -----------------------------------------------------------------------------
// Result hooks
// -----------------------------------------------------------------------------

// ResultHook observes a benchmark run as it happens.
//
// Description:
//
//	A ResultHook is an optional, passive observer supplied per Run call via
//	WithHook; the runner never stores one. It receives every measured
//	snapshot as it occurs (never warmup results) and a single Finished
//	notification after tear-down on the success path. A hook failure aborts
//	the run like a work-unit failure, after tear-down has been attempted.
//
// Thread Safety: Called from the run's single goroutine only.
type ResultHook interface {
	// AddResults receives one measured snapshot. The snapshot must be
	// treated as read-only; observers that retain it should Clone it.
	AddResults(s Snapshot) error

	// Finished signals that the run completed and tear-down has run. Called
	// exactly once per successful run, never after a failure.
	Finished() error
}

// -----------------------------------------------------------------------------
// Run options
// -----------------------------------------------------------------------------

type runOptions struct {
	hook        ResultHook
	hookFactory func(cfg Config) ResultHook
}

// RunOption configures a single benchmark run.
//
// Description:
//
//	RunOption functions are applied in order, so later options override
//	earlier ones. Invalid values are ignored.
type RunOption func(*runOptions)

// WithHook attaches a ResultHook to this run.
//
// Inputs:
//   - h: The hook to notify. Nil is ignored (no hook).
//
// Example:
//
//	runner.Run(ctx, cfg, unit, benchmark.WithHook(collector))
func WithHook(h ResultHook) RunOption {
	return func(o *runOptions) {
		if h != nil {
			o.hook = h
		}
	}
}

// WithHookFactory attaches a fresh ResultHook per benchmark.
//
// Description:
//
//	The factory is invoked once per run with that run's Config, so hooks
//	that label output by benchmark name get the right name even under
//	RunAll. An explicit WithHook takes precedence over the factory.
//
// Inputs:
//   - f: Factory returning the hook for a given config. May return nil for
//     no hook. A nil factory is ignored.
//
// Example:
//
//	runner.RunAll(ctx, reg, benchmark.WithHookFactory(func(cfg benchmark.Config) benchmark.ResultHook {
//	    return telemetry.NewLogging(logger, cfg.Name)
//	}))
func WithHookFactory(f func(cfg Config) ResultHook) RunOption {
	return func(o *runOptions) {
		if f != nil {
			o.hookFactory = f
		}
	}
}

// -----------------------------------------------------------------------------
// Runner
// -----------------------------------------------------------------------------

// Runner executes benchmarks under the warmup/measure/average protocol.
//
// Description:
//
//	Runner drives a work unit through set-up, the configured warmup and
//	measured iterations, tear-down, and reporting. Iterations execute one
//	after another on the calling goroutine: there is no parallelism, no
//	retry, and no timeout, so a hung RunOnce hangs the run. Each Run owns a
//	fresh Accumulator; a Runner carries no per-run state and may be reused
//	across runs.
//
// Thread Safety: Safe for concurrent use across distinct Run calls; a single
// run is strictly sequential.
type Runner struct {
	logger   *slog.Logger
	reporter Reporter
}

// NewRunner creates a benchmark runner.
//
// Description:
//
//	The runner logs through slog.Default() and reports through a console
//	reporter on stdout; use SetLogger and SetReporter to override. Tests
//	typically inject a reporter writing to a buffer.
//
// Outputs:
//   - *Runner: The new runner. Never nil.
func NewRunner() *Runner {
	return &Runner{
		logger:   slog.Default(),
		reporter: NewConsoleReporter(os.Stdout, false),
	}
}

// SetLogger sets the logger for the runner. Nil values are ignored.
func (r *Runner) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetReporter sets the reporter that receives completed results. Nil values
// are ignored; use a NopReporter to silence output.
func (r *Runner) SetReporter(rep Reporter) {
	if rep != nil {
		r.reporter = rep
	}
}

// Run executes one complete benchmark run.
//
// Description:
//
//	Runs the full protocol: validate config, fresh accumulator, SetUp (when
//	implemented), WarmupIterations discarded RunOnce calls, then
//	MeasuredIterations RunOnce calls whose snapshots feed the hook (when
//	present) and the accumulator, TearDown (when implemented) on both the
//	success and failure paths, hook.Finished on success, and finally the
//	averaged Result to the reporter. A tear-down failure never masks a
//	pending failure; alone, it becomes the reported failure. No partial
//	result is reported for a failed run.
//
// Inputs:
//   - ctx: Passed through to the work unit. The runner itself never aborts
//     on ctx cancellation; runs always execute to completion or failure.
//   - cfg: The (name, warmup, measured) triple. Validated before use.
//   - b: The work unit. Must not be nil.
//   - opts: Optional per-run settings, notably WithHook.
//
// Outputs:
//   - *Result: The averaged result. Nil when an error is returned.
//   - error: Wraps ErrInvalidConfig, ErrNilBenchmark, a *WorkUnitError, or a
//     *MissingMetricError from the reporter.
//
// Example:
//
//	cfg, err := benchmark.NewConfig("orders-scan", 5, 10)
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Run(ctx, cfg, unit)
//	if err != nil {
//	    return fmt.Errorf("running orders-scan: %w", err)
//	}
//	fmt.Printf("cpu_nanos avg: %.1f\n", result.Averages[benchmark.MetricCPUNanos])
//
// Limitations:
//   - A hung RunOnce hangs the entire run; there is no cancellation or
//     per-iteration timeout.
func (r *Runner) Run(ctx context.Context, cfg Config, b Benchmark, opts ...RunOption) (*Result, error) {
	if ctx == nil {
		return nil, errors.New("context must not be nil")
	}
	if b == nil {
		return nil, ErrNilBenchmark
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "benchmark.Runner.Run",
		trace.WithAttributes(
			attribute.String("benchmark.name", cfg.Name),
			attribute.Int("benchmark.warmup_iterations", cfg.WarmupIterations),
			attribute.Int("benchmark.measured_iterations", cfg.MeasuredIterations),
		),
	)
	defer span.End()

	var options runOptions
	for _, opt := range opts {
		opt(&options)
	}
	hook := options.hook
	if hook == nil && options.hookFactory != nil {
		hook = options.hookFactory(cfg)
	}

	r.logger.Debug("starting benchmark run",
		slog.String("benchmark", cfg.Name),
		slog.Int("warmup_iterations", cfg.WarmupIterations),
		slog.Int("measured_iterations", cfg.MeasuredIterations),
	)

	start := time.Now()
	acc := NewAccumulator()

	if su, ok := b.(SetUpper); ok {
		if err := su.SetUp(ctx); err != nil {
			wrapped := &WorkUnitError{Benchmark: cfg.Name, Phase: PhaseSetUp, Err: err}
			span.RecordError(wrapped)
			span.SetStatus(codes.Error, "set-up failed")
			return nil, wrapped
		}
	}

	// Tear-down runs whenever set-up succeeded, on both paths.
	runErr := r.runIterations(ctx, cfg, b, hook, acc)
	if td, ok := b.(TearDowner); ok {
		if err := td.TearDown(ctx); err != nil {
			tdErr := &WorkUnitError{Benchmark: cfg.Name, Phase: PhaseTearDown, Err: err}
			if runErr == nil {
				runErr = tdErr
			} else {
				runErr = errors.Join(runErr, tdErr)
			}
		}
	}
	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "benchmark failed")
		return nil, runErr
	}

	if hook != nil {
		if err := hook.Finished(); err != nil {
			wrapped := &WorkUnitError{Benchmark: cfg.Name, Phase: PhaseHook, Err: err}
			span.RecordError(wrapped)
			span.SetStatus(codes.Error, "hook finish failed")
			return nil, wrapped
		}
	}

	result := &Result{
		RunID:              uuid.NewString(),
		Name:               cfg.Name,
		WarmupIterations:   cfg.WarmupIterations,
		MeasuredIterations: cfg.MeasuredIterations,
		Samples:            acc.Len(),
		StartedAt:          start.UTC(),
		WallTime:           time.Since(start),
		DefaultResultKey:   b.DefaultResultKey(),
		Averages:           acc.Averages(),
	}

	if err := r.reporter.Report(result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("benchmark.result.samples", result.Samples))
	span.SetStatus(codes.Ok, "benchmark completed")

	r.logger.Info("benchmark completed",
		slog.String("benchmark", cfg.Name),
		slog.String("run_id", result.RunID),
		slog.Int("samples", result.Samples),
		slog.Duration("wall_time", result.WallTime),
	)

	return result, nil
}

// runIterations executes the warmup and measured loops. Warmup results are
// discarded entirely; every measured snapshot goes to the hook (when present)
// and then the accumulator.
func (r *Runner) runIterations(ctx context.Context, cfg Config, b Benchmark, hook ResultHook, acc *Accumulator) error {
	for i := 0; i < cfg.WarmupIterations; i++ {
		if _, err := b.RunOnce(ctx); err != nil {
			return &WorkUnitError{
				Benchmark: cfg.Name,
				Phase:     PhaseRun,
				Err:       fmt.Errorf("warmup iteration %d: %w", i, err),
			}
		}
	}
	for i := 0; i < cfg.MeasuredIterations; i++ {
		snap, err := b.RunOnce(ctx)
		if err != nil {
			return &WorkUnitError{
				Benchmark: cfg.Name,
				Phase:     PhaseRun,
				Err:       fmt.Errorf("measured iteration %d: %w", i, err),
			}
		}
		if hook != nil {
			if err := hook.AddResults(snap); err != nil {
				return &WorkUnitError{Benchmark: cfg.Name, Phase: PhaseHook, Err: err}
			}
		}
		acc.Add(snap)
	}
	return nil
}

// RunAll runs every benchmark in the registry, in name order.
//
// Description:
//
//	Runs are sequential. A failing benchmark does not stop the suite: its
//	error is collected and the remaining benchmarks still run. The joined
//	error covers every failure, so callers can both inspect completed
//	results and exit non-zero.
//
// Inputs:
//   - ctx: Passed through to each run. Must not be nil.
//   - reg: The registry to draw from. Nil means DefaultRegistry.
//   - opts: Applied to every run. Use WithHookFactory rather than WithHook
//     when hooks are labelled per benchmark.
//
// Outputs:
//   - []*Result: Results for the benchmarks that completed.
//   - error: Joined errors for the benchmarks that failed, or nil.
func (r *Runner) RunAll(ctx context.Context, reg *Registry, opts ...RunOption) ([]*Result, error) {
	if ctx == nil {
		return nil, errors.New("context must not be nil")
	}
	if reg == nil {
		reg = DefaultRegistry
	}

	names := reg.List()
	results := make([]*Result, 0, len(names))
	var errs error

	for _, name := range names {
		entry, ok := reg.Get(name)
		if !ok {
			continue
		}
		result, err := r.Run(ctx, entry.Config, entry.Benchmark, opts...)
		if err != nil {
			r.logger.Warn("benchmark failed",
				slog.String("benchmark", name),
				slog.String("error", err.Error()),
			)
			errs = errors.Join(errs, err)
			continue
		}
		results = append(results, result)
	}

	return results, errs
}
