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

import "context"

// -----------------------------------------------------------------------------
// Work-unit contract
// -----------------------------------------------------------------------------

// Benchmark is the capability contract a work unit implements to be run by
// the harness.
//
// Description:
//
//	A Benchmark performs one unit of work per RunOnce call and self-reports
//	its metrics; the harness never times anything itself. RunOnce is invoked
//	warmup+measured times per run and must tolerate repeated invocation;
//	state intentionally carried between calls (a warmed cache, say) is the
//	work unit's business. Work units that need set-up or tear-down
//	additionally implement SetUpper and TearDowner; both are optional and
//	discovered by type assertion.
//
// Thread Safety: The harness calls all methods from a single goroutine.
type Benchmark interface {
	// RunOnce performs one unit of benchmarked work and returns its metric
	// snapshot. The harness passes ctx through untouched; it imposes no
	// deadline and does not abort between iterations on ctx cancellation.
	RunOnce(ctx context.Context) (Snapshot, error)

	// DefaultResultKey names the single metric that should be tracked when
	// monitoring can accept only one result. Not consulted by the averaging
	// logic itself.
	DefaultResultKey() string
}

// SetUpper is the optional initialization capability. When implemented, SetUp
// runs exactly once before any RunOnce call.
type SetUpper interface {
	SetUp(ctx context.Context) error
}

// TearDowner is the optional cleanup capability. When implemented, TearDown
// runs exactly once after all RunOnce calls, on both the success and failure
// paths.
type TearDowner interface {
	TearDown(ctx context.Context) error
}

// -----------------------------------------------------------------------------
// Simple work units
// -----------------------------------------------------------------------------

// Simple is a function-backed Benchmark for tests and one-off work units.
type Simple struct {
	runOnce    func(ctx context.Context) (Snapshot, error)
	defaultKey string
	setUp      func(ctx context.Context) error
	tearDown   func(ctx context.Context) error
}

var (
	_ Benchmark  = (*Simple)(nil)
	_ SetUpper   = (*Simple)(nil)
	_ TearDowner = (*Simple)(nil)
)

// NewSimple creates a Benchmark from a run function.
//
// Inputs:
//   - defaultKey: The metric key monitoring should track. Must not be empty.
//   - runOnce: Performs one unit of work. Must not be nil.
//
// Outputs:
//   - *Simple: The new work unit. Never nil.
func NewSimple(defaultKey string, runOnce func(ctx context.Context) (Snapshot, error)) *Simple {
	return &Simple{
		runOnce:    runOnce,
		defaultKey: defaultKey,
	}
}

// RunOnce performs one unit of work.
func (s *Simple) RunOnce(ctx context.Context) (Snapshot, error) {
	return s.runOnce(ctx)
}

// DefaultResultKey returns the metric key monitoring should track.
func (s *Simple) DefaultResultKey() string {
	return s.defaultKey
}

// SetUp runs the configured set-up function, if any.
func (s *Simple) SetUp(ctx context.Context) error {
	if s.setUp == nil {
		return nil
	}
	return s.setUp(ctx)
}

// TearDown runs the configured tear-down function, if any.
func (s *Simple) TearDown(ctx context.Context) error {
	if s.tearDown == nil {
		return nil
	}
	return s.tearDown(ctx)
}

// SetSetUp sets the set-up function.
func (s *Simple) SetSetUp(fn func(ctx context.Context) error) *Simple {
	s.setUp = fn
	return s
}

// SetTearDown sets the tear-down function.
func (s *Simple) SetTearDown(fn func(ctx context.Context) error) *Simple {
	s.tearDown = fn
	return s
}
