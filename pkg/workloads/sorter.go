// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workloads

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/AleutianAI/microbench/pkg/benchmark"
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// SorterConfig configures the in-memory sort workload.
type SorterConfig struct {
	// Keys is the number of int64 keys sorted per iteration.
	Keys int

	// Seed seeds the key generator.
	Seed int64
}

// DefaultSorterConfig returns the configuration used by RegisterAll:
// 100,000 keys per iteration.
func DefaultSorterConfig() *SorterConfig {
	return &SorterConfig{
		Keys: 100_000,
		Seed: 42,
	}
}

// Validate checks that the configuration is valid.
func (c *SorterConfig) Validate() error {
	if c.Keys <= 0 {
		return fmt.Errorf("keys must be positive, got %d", c.Keys)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Workload
// -----------------------------------------------------------------------------

// Sorter benchmarks sorting a slice of random int64 keys.
//
// Description:
//
//	SetUp generates Keys random keys once; each RunOnce call copies them into
//	a scratch slice and sorts that, so every iteration sorts the same
//	unsorted input rather than a pre-sorted one. The scratch slice is reused
//	across iterations to keep allocation out of the hot loop after the first
//	call.
//
// Thread Safety: Not safe for concurrent use. The harness runs it from a
// single goroutine.
type Sorter struct {
	config  SorterConfig
	keys    []int64
	scratch []int64
}

var (
	_ benchmark.Benchmark  = (*Sorter)(nil)
	_ benchmark.SetUpper   = (*Sorter)(nil)
	_ benchmark.TearDowner = (*Sorter)(nil)
)

// NewSorter creates a Sorter workload.
//
// Inputs:
//   - config: Workload configuration. Must not be nil.
//
// Outputs:
//   - *Sorter: The new workload. Nil on error.
//   - error: Non-nil if configuration is invalid.
func NewSorter(config *SorterConfig) (*Sorter, error) {
	if config == nil {
		return nil, ErrInvalidWorkload
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidWorkload, err)
	}

	cfg := *config // Copy to avoid mutating input
	return &Sorter{config: cfg}, nil
}

// SetUp generates the unsorted keys.
func (s *Sorter) SetUp(ctx context.Context) error {
	rng := rand.New(rand.NewSource(s.config.Seed))

	keys := make([]int64, s.config.Keys)
	for i := range keys {
		keys[i] = rng.Int63()
	}

	s.keys = keys
	s.scratch = make([]int64, len(keys))
	return nil
}

// RunOnce sorts a copy of the keys and reports the iteration's metrics.
func (s *Sorter) RunOnce(ctx context.Context) (benchmark.Snapshot, error) {
	if s.keys == nil {
		return nil, ErrNotSetUp
	}

	start := time.Now()
	copy(s.scratch, s.keys)
	sort.Slice(s.scratch, func(i, j int) bool { return s.scratch[i] < s.scratch[j] })
	elapsed := time.Since(start)

	bytes := int64(len(s.keys)) * 8
	return benchmark.Snapshot{
		benchmark.MetricCPUNanos:    elapsed.Nanoseconds(),
		benchmark.MetricInputRows:   int64(len(s.keys)),
		benchmark.MetricInputBytes:  bytes,
		benchmark.MetricOutputRows:  int64(len(s.keys)),
		benchmark.MetricOutputBytes: bytes,
	}, nil
}

// DefaultResultKey names cpu_nanos as the headline metric.
func (s *Sorter) DefaultResultKey() string {
	return benchmark.MetricCPUNanos
}

// TearDown releases the key slices.
func (s *Sorter) TearDown(ctx context.Context) error {
	s.keys = nil
	s.scratch = nil
	return nil
}
