// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"

	"github.com/AleutianAI/microbench/pkg/benchmark"
	"github.com/AleutianAI/microbench/pkg/logging"
)

// CurrentConfigVersion is written into newly created config files.
const CurrentConfigVersion = "1"

// MicrobenchConfig is the persisted CLI configuration, stored at
// ~/.microbench/microbench.yaml and created with defaults on first run.
type MicrobenchConfig struct {
	// Meta carries config file bookkeeping.
	Meta MetaConfig `yaml:"meta"`

	// Defaults sets the iteration counts used when no flag overrides them.
	Defaults DefaultsConfig `yaml:"defaults"`

	// Logging configures the CLI logger.
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry configures optional metric export.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type MetaConfig struct {
	Version string `yaml:"version"`
}

type DefaultsConfig struct {
	// WarmupIterations is the default discarded iteration count.
	WarmupIterations int `yaml:"warmup_iterations"`

	// MeasuredIterations is the default measured iteration count.
	MeasuredIterations int `yaml:"measured_iterations"`
}

type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, or error.
	Level string `yaml:"level"`

	// Dir enables file logging when set. Supports ~ expansion.
	Dir string `yaml:"dir"`

	// JSON switches stderr logging to JSON format.
	JSON bool `yaml:"json"`
}

type TelemetryConfig struct {
	// MetricsListen serves Prometheus metrics on this address during runs
	// (e.g. ":9090"). Empty disables the listener.
	MetricsListen string `yaml:"metrics_listen"`

	// Influx configures InfluxDB export of per-iteration points.
	Influx InfluxConfig `yaml:"influx"`
}

type InfluxConfig struct {
	// Enabled turns on InfluxDB export for every run.
	Enabled bool `yaml:"enabled"`

	// URL is the InfluxDB server URL. Empty falls back to INFLUXDB_URL.
	URL string `yaml:"url"`

	// Org is the InfluxDB organization. Empty falls back to INFLUXDB_ORG.
	Org string `yaml:"org"`

	// Bucket is the destination bucket. Empty falls back to INFLUXDB_BUCKET.
	Bucket string `yaml:"bucket"`

	// The API token is always read from INFLUXDB_TOKEN, never the file.
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() MicrobenchConfig {
	return MicrobenchConfig{
		Meta: MetaConfig{
			Version: CurrentConfigVersion,
		},
		Defaults: DefaultsConfig{
			WarmupIterations:   benchmark.DefaultWarmupIterations,
			MeasuredIterations: benchmark.DefaultMeasuredIterations,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
			JSON:  false,
		},
		Telemetry: TelemetryConfig{
			MetricsListen: "",
			Influx: InfluxConfig{
				Enabled: false,
				URL:     "http://localhost:8086",
				Org:     "microbench",
				Bucket:  "benchmarks",
			},
		},
	}
}

// Validate checks that the loaded configuration is usable.
func (c *MicrobenchConfig) Validate() error {
	if c.Defaults.WarmupIterations < 0 {
		return fmt.Errorf("defaults.warmup_iterations must not be negative, got %d",
			c.Defaults.WarmupIterations)
	}
	if c.Defaults.MeasuredIterations < 0 {
		return fmt.Errorf("defaults.measured_iterations must not be negative, got %d",
			c.Defaults.MeasuredIterations)
	}
	if c.Logging.Level != "" {
		if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("logging.level: %w", err)
		}
	}
	return nil
}
