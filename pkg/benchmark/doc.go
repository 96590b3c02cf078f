// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package benchmark runs work units under a warmup/measure/average protocol.
//
// # Overview
//
// The benchmark package is a micro-benchmark execution harness for
// data-processing operators: it runs a work unit a configured number of
// warmup times (discarded), then a configured number of measured times,
// averages the self-reported metrics per key, and reports a normalized
// summary line. Measurement is by repeated invocation, not sampling: the
// work unit reports its own cpu_nanos and row/byte counts, and the harness
// never times anything itself.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                           Runner.Run                            │
//	├─────────────────────────────────────────────────────────────────┤
//	│                                                                 │
//	│   SetUp ─▶ warmup × RunOnce ─▶ measured × RunOnce ─▶ TearDown   │
//	│             (discarded)             │                           │
//	│                                     ├──▶ ResultHook.AddResults  │
//	│                                     └──▶ Accumulator.Add        │
//	│                                              │                  │
//	│                                              ▼                  │
//	│                                     Accumulator.Averages        │
//	│                                              │                  │
//	│                                              ▼                  │
//	│   ResultHook.Finished ◀─────────────  Result ─▶ Reporter        │
//	│                                                                 │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Usage
//
// Implement Benchmark (plus SetUpper/TearDowner as needed), or build one
// with NewSimple:
//
//	unit := benchmark.NewSimple(benchmark.MetricCPUNanos,
//	    func(ctx context.Context) (benchmark.Snapshot, error) {
//	        start := time.Now()
//	        rows, bytes := scanOrders()
//	        return benchmark.Snapshot{
//	            benchmark.MetricCPUNanos:   time.Since(start).Nanoseconds(),
//	            benchmark.MetricInputRows:  rows,
//	            benchmark.MetricInputBytes: bytes,
//	            benchmark.MetricOutputRows: rows,
//	            benchmark.MetricOutputBytes: bytes,
//	        }, nil
//	    })
//
//	cfg, err := benchmark.NewConfig("orders-scan", 5, 10)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	runner := benchmark.NewRunner()
//	result, err := runner.Run(ctx, cfg, unit)
//
// Attach an observer for per-iteration snapshots:
//
//	result, err := runner.Run(ctx, cfg, unit, benchmark.WithHook(collector))
//
// Run a registered suite:
//
//	benchmark.MustRegister(cfg, unit)
//	results, err := runner.RunAll(ctx, nil)
//
// # Execution Model
//
// A run is strictly single-threaded, synchronous, and sequential. Iterations
// execute one after another on the calling goroutine; there is no retry, no
// parallelism, and no cancellation or timeout, so a hung RunOnce hangs the
// run. Tear-down runs on both the success and failure paths once set-up has
// succeeded, and a tear-down failure never masks the failure that preceded
// it.
//
// # Thread Safety
//
// Registry and Runner are safe for concurrent use; Accumulator and the
// reporters expect a single caller.
package benchmark
