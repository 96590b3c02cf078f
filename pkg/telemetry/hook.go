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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/AleutianAI/microbench/pkg/benchmark"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNoHooks is returned when creating a composite hook with no children.
	ErrNoHooks = errors.New("at least one hook is required")

	// ErrNilWriter is returned when a nil writer is provided.
	ErrNilWriter = errors.New("writer must not be nil")

	// ErrSinkClosed is returned when recording through a closed exporter.
	ErrSinkClosed = errors.New("sink has been closed")
)

// -----------------------------------------------------------------------------
// Composite Hook
// -----------------------------------------------------------------------------

// Composite fans a run's results out to multiple hooks.
//
// Description:
//
//	Composite forwards every measured snapshot and the Finished signal to
//	all child hooks. Errors from individual hooks are collected and
//	returned as a combined error; one hook's failure does not prevent the
//	others from receiving the data.
//
// Thread Safety: Called from the run's single goroutine; safe as long as the
// child hooks are.
//
// Example:
//
//	hook, err := telemetry.NewComposite(collector, jsonLines)
//	if err != nil {
//	    return err
//	}
//	runner.Run(ctx, cfg, unit, benchmark.WithHook(hook))
type Composite struct {
	hooks []benchmark.ResultHook
}

var _ benchmark.ResultHook = (*Composite)(nil)

// NewComposite creates a hook that forwards to all child hooks.
//
// Inputs:
//   - hooks: Child hooks. Nil entries are dropped; at least one non-nil hook
//     is required.
//
// Outputs:
//   - *Composite: The composite hook. Never nil on success.
//   - error: ErrNoHooks when no usable hooks remain.
func NewComposite(hooks ...benchmark.ResultHook) (*Composite, error) {
	valid := make([]benchmark.ResultHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			valid = append(valid, h)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoHooks
	}
	return &Composite{hooks: valid}, nil
}

// AddResults forwards the snapshot to every child hook.
func (c *Composite) AddResults(s benchmark.Snapshot) error {
	var errs []error
	for _, h := range c.hooks {
		if err := h.AddResults(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Finished forwards the completion signal to every child hook.
func (c *Composite) Finished() error {
	var errs []error
	for _, h := range c.hooks {
		if err := h.Finished(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// -----------------------------------------------------------------------------
// Collector Hook
// -----------------------------------------------------------------------------

// Collector captures a run's snapshots in memory.
//
// Description:
//
//	Collector retains a clone of every measured snapshot plus whether the
//	run finished, for inspection after the run. Mostly useful in tests and
//	when post-processing individual iterations rather than averages.
//
// Thread Safety: Safe for concurrent use.
type Collector struct {
	mu        sync.Mutex
	snapshots []benchmark.Snapshot
	completed bool
}

var _ benchmark.ResultHook = (*Collector)(nil)

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// AddResults stores a clone of the snapshot.
func (c *Collector) AddResults(s benchmark.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = append(c.snapshots, s.Clone())
	return nil
}

// Finished marks the run as completed.
func (c *Collector) Finished() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = true
	return nil
}

// Snapshots returns a copy of the captured snapshots, in iteration order.
func (c *Collector) Snapshots() []benchmark.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]benchmark.Snapshot, len(c.snapshots))
	copy(out, c.snapshots)
	return out
}

// Len returns the number of captured snapshots.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snapshots)
}

// Completed reports whether Finished has been called.
func (c *Collector) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// Reset clears the collector for reuse across runs.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = nil
	c.completed = false
}

// -----------------------------------------------------------------------------
// Logging Hook
// -----------------------------------------------------------------------------

// Logging logs every measured snapshot through slog.
//
// Description:
//
//	Iterations log at debug level to keep normal runs quiet; the Finished
//	signal logs at info level with the iteration count.
//
// Thread Safety: Called from the run's single goroutine.
type Logging struct {
	logger    *slog.Logger
	name      string
	iteration int
}

var _ benchmark.ResultHook = (*Logging)(nil)

// NewLogging creates a logging hook for the named benchmark. A nil logger
// means slog.Default().
func NewLogging(logger *slog.Logger, name string) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{logger: logger, name: name}
}

// AddResults logs the snapshot at debug level.
func (l *Logging) AddResults(s benchmark.Snapshot) error {
	l.iteration++
	l.logger.Debug("benchmark iteration",
		slog.String("benchmark", l.name),
		slog.Int("iteration", l.iteration),
		slog.Any("metrics", map[string]int64(s)),
	)
	return nil
}

// Finished logs the completion at info level.
func (l *Logging) Finished() error {
	l.logger.Info("benchmark run finished",
		slog.String("benchmark", l.name),
		slog.Int("iterations", l.iteration),
	)
	return nil
}

// -----------------------------------------------------------------------------
// JSON Lines Hook
// -----------------------------------------------------------------------------

// jsonIteration is the wire form of one measured snapshot.
type jsonIteration struct {
	Benchmark string           `json:"benchmark"`
	Iteration int              `json:"iteration"`
	Metrics   map[string]int64 `json:"metrics"`
}

// jsonFinished is the wire form of the run-completion event.
type jsonFinished struct {
	Benchmark  string `json:"benchmark"`
	Event      string `json:"event"`
	Iterations int    `json:"iterations"`
}

// JSONLines streams a run as newline-delimited JSON.
//
// Description:
//
//	Each measured snapshot becomes one compact JSON object, and the
//	Finished signal appends a terminal event object. The format suits
//	appending many runs to a single results file for later analysis.
//
// Thread Safety: Called from the run's single goroutine; the writer is not
// shared-use safe.
//
// Example:
//
//	f, err := os.Create("results.jsonl")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//	hook, err := telemetry.NewJSONLines(f, cfg.Name)
type JSONLines struct {
	enc       *json.Encoder
	name      string
	iteration int
}

var _ benchmark.ResultHook = (*JSONLines)(nil)

// NewJSONLines creates a JSON-lines hook writing to out.
//
// Outputs:
//   - *JSONLines: The hook. Never nil on success.
//   - error: ErrNilWriter when out is nil.
func NewJSONLines(out io.Writer, name string) (*JSONLines, error) {
	if out == nil {
		return nil, ErrNilWriter
	}
	return &JSONLines{enc: json.NewEncoder(out), name: name}, nil
}

// AddResults writes one iteration object.
func (j *JSONLines) AddResults(s benchmark.Snapshot) error {
	j.iteration++
	rec := jsonIteration{
		Benchmark: j.name,
		Iteration: j.iteration,
		Metrics:   map[string]int64(s.Clone()),
	}
	if err := j.enc.Encode(rec); err != nil {
		return fmt.Errorf("encoding iteration: %w", err)
	}
	return nil
}

// Finished writes the terminal event object.
func (j *JSONLines) Finished() error {
	rec := jsonFinished{
		Benchmark:  j.name,
		Event:      "finished",
		Iterations: j.iteration,
	}
	if err := j.enc.Encode(rec); err != nil {
		return fmt.Errorf("encoding finish event: %w", err)
	}
	return nil
}
