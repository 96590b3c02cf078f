// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workloads provides the bundled benchmark work units.
//
// Each workload implements benchmark.Benchmark plus the optional set-up and
// tear-down capabilities: SetUp generates deterministic synthetic data from a
// seeded source, RunOnce performs one pass over that data, and TearDown
// releases it. All three report the five conventional metric keys the console
// reporter requires.
//
// The workloads approximate cpu_nanos with the wall-clock time of their hot
// loop. They are single-threaded and allocation-light, so the two track
// closely; the point of the bundled units is exercising the harness, not
// competing with perf counters.
//
// Register the default set with RegisterAll:
//
//	reg := benchmark.NewRegistry()
//	if err := workloads.RegisterAll(reg); err != nil {
//	    return err
//	}
//	results, err := runner.RunAll(ctx, reg)
package workloads

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/microbench/pkg/benchmark"
)

var (
	// ErrInvalidWorkload is returned when a workload configuration is invalid.
	ErrInvalidWorkload = errors.New("invalid workload configuration")

	// ErrNotSetUp is returned by RunOnce when a workload's SetUp has not run.
	ErrNotSetUp = errors.New("workload not set up")
)

// Benchmark names for the bundled workloads, sized after their default
// configurations.
const (
	NameJSONEncode = "json_encode_1k"
	NameSHA256Hash = "sha256_hash_4m"
	NameInt64Sort  = "int64_sort_100k"
)

// RegisterAll registers the bundled workloads with their default
// configurations and the package default iteration counts.
//
// Inputs:
//   - reg: The target registry. Must not be nil.
//
// Outputs:
//   - error: Non-nil if any workload fails to construct or register.
func RegisterAll(reg *benchmark.Registry) error {
	codec, err := NewRowCodec(DefaultRowCodecConfig())
	if err != nil {
		return fmt.Errorf("constructing %s: %w", NameJSONEncode, err)
	}
	if err := reg.Register(benchmark.DefaultConfig(NameJSONEncode), codec); err != nil {
		return fmt.Errorf("registering %s: %w", NameJSONEncode, err)
	}

	hasher, err := NewHasher(DefaultHasherConfig())
	if err != nil {
		return fmt.Errorf("constructing %s: %w", NameSHA256Hash, err)
	}
	if err := reg.Register(benchmark.DefaultConfig(NameSHA256Hash), hasher); err != nil {
		return fmt.Errorf("registering %s: %w", NameSHA256Hash, err)
	}

	sorter, err := NewSorter(DefaultSorterConfig())
	if err != nil {
		return fmt.Errorf("constructing %s: %w", NameInt64Sort, err)
	}
	if err := reg.Register(benchmark.DefaultConfig(NameInt64Sort), sorter); err != nil {
		return fmt.Errorf("registering %s: %w", NameInt64Sort, err)
	}

	return nil
}
