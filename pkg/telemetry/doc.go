// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry provides result hooks that export benchmark runs to
// observability backends.
//
// # Overview
//
// The benchmark runner accepts an optional ResultHook per run. This package
// supplies the hook implementations: in-memory capture, structured logging,
// JSON lines, Prometheus, OpenTelemetry, and InfluxDB, plus a composite that
// fans one run out to several backends at once.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│                        TELEMETRY PACKAGE                         │
//	├──────────────────────────────────────────────────────────────────┤
//	│                                                                  │
//	│   benchmark.Runner                                               │
//	│         │  AddResults(snapshot) / Finished()                     │
//	│         ▼                                                        │
//	│   ┌──────────────────────────────────────────────────────────┐   │
//	│   │                 benchmark.ResultHook                     │   │
//	│   └──────────────────────────────────────────────────────────┘   │
//	│      │          │          │           │            │            │
//	│      ▼          ▼          ▼           ▼            ▼            │
//	│  ┌────────┐ ┌────────┐ ┌────────┐ ┌──────────┐ ┌─────────┐      │
//	│  │Collector│ │JSONLines│ │Logging│ │Prometheus│ │ Influx  │      │
//	│  └────────┘ └────────┘ └────────┘ └────┬─────┘ └────┬────┘      │
//	│                                        │            │            │
//	│                                        ▼            ▼            │
//	│                                   /metrics      write API        │
//	│                                   endpoint      (points)         │
//	│                                                                  │
//	└──────────────────────────────────────────────────────────────────┘
//
// # Exporters and Hooks
//
// The Prometheus, OTel, and Influx backends are long-lived exporters that own
// their collectors, instruments, or client connection. Per-benchmark hooks
// are cheap adapters created from an exporter:
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
//
// # Composite Hook
//
// Multiple hooks can observe the same run:
//
//	hook, err := telemetry.NewComposite(
//	    telemetry.NewCollector(),
//	    promExporter.Hook(cfg.Name),
//	)
//
// # Thread Safety
//
// The runner calls a hook from a single goroutine. Exporters and the
// Collector are additionally safe for concurrent use, so one exporter can
// serve hooks across concurrent Run calls.
package telemetry
