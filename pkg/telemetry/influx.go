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
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/AleutianAI/microbench/pkg/benchmark"
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// InfluxConfig configures the InfluxDB exporter.
//
// Thread Safety: Immutable after creation; safe for concurrent read access.
type InfluxConfig struct {
	// URL is the InfluxDB server URL.
	// Required.
	URL string

	// Token is the API token. May be empty for unauthenticated servers.
	Token string

	// Org is the InfluxDB organization.
	// Required.
	Org string

	// Bucket is the destination bucket.
	// Required.
	Bucket string

	// Measurement is the measurement name for iteration points.
	// Default: "benchmark_iteration".
	Measurement string
}

// DefaultInfluxConfig returns a configuration drawn from the environment.
//
// Description:
//
//	Reads INFLUXDB_URL, INFLUXDB_TOKEN, INFLUXDB_ORG, and INFLUXDB_BUCKET,
//	falling back to a local server with microbench defaults.
func DefaultInfluxConfig() *InfluxConfig {
	url := os.Getenv("INFLUXDB_URL")
	if url == "" {
		url = "http://localhost:8086"
	}

	org := os.Getenv("INFLUXDB_ORG")
	if org == "" {
		org = "microbench"
	}

	bucket := os.Getenv("INFLUXDB_BUCKET")
	if bucket == "" {
		bucket = "benchmarks"
	}

	return &InfluxConfig{
		URL:         url,
		Token:       os.Getenv("INFLUXDB_TOKEN"),
		Org:         org,
		Bucket:      bucket,
		Measurement: "benchmark_iteration",
	}
}

// Validate checks that the configuration is valid.
func (c *InfluxConfig) Validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	if c.Org == "" {
		return errors.New("org is required")
	}
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	return nil
}

// -----------------------------------------------------------------------------
// InfluxDB Exporter
// -----------------------------------------------------------------------------

// Influx exports benchmark iterations as InfluxDB points.
//
// Description:
//
//	Each measured snapshot becomes one point on the configured measurement,
//	tagged by benchmark name and a per-hook run id, with every metric as a
//	field. The Finished signal writes a run summary point and flushes. All
//	writes go through the blocking write API.
//
// Thread Safety: Safe for concurrent use across hooks.
//
// Example:
//
//	exporter, err := telemetry.NewInflux(telemetry.DefaultInfluxConfig())
//	if err != nil {
//	    return err
//	}
//	defer exporter.Close()
//
//	runner.RunAll(ctx, reg, benchmark.WithHookFactory(func(cfg benchmark.Config) benchmark.ResultHook {
//	    return exporter.Hook(cfg.Name)
//	}))
type Influx struct {
	config   *InfluxConfig
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking

	mu     sync.RWMutex
	closed bool
}

// NewInflux creates an InfluxDB exporter.
//
// Inputs:
//   - config: InfluxDB configuration. Must not be nil.
//
// Outputs:
//   - *Influx: The exporter. Never nil on success.
//   - error: Non-nil if configuration is invalid.
//
// Limitations:
//   - The server is not contacted at construction; connectivity problems
//     surface on the first write.
func NewInflux(config *InfluxConfig) (*Influx, error) {
	if config == nil {
		return nil, errors.New("influx configuration must not be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid influx configuration: %w", err)
	}

	cfg := *config
	if cfg.Measurement == "" {
		cfg.Measurement = "benchmark_iteration"
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		config:   &cfg,
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

// Hook returns a ResultHook writing this benchmark's iterations as points.
// Each hook carries a fresh run id tag, so repeated runs of the same
// benchmark stay distinguishable.
//
// Thread Safety: Safe for concurrent use.
func (i *Influx) Hook(name string) benchmark.ResultHook {
	if name == "" {
		name = "unknown"
	}
	return &influxHook{
		exporter: i,
		name:     name,
		runID:    uuid.NewString(),
	}
}

// Close shuts down the underlying client.
//
// Thread Safety: Safe for concurrent use. Idempotent.
func (i *Influx) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true

	if i.client != nil {
		i.client.Close()
	}
	return nil
}

func (i *Influx) isClosed() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.closed
}

// influxHook writes one benchmark's iterations through the shared client.
type influxHook struct {
	exporter  *Influx
	name      string
	runID     string
	iteration int
}

var _ benchmark.ResultHook = (*influxHook)(nil)

// AddResults writes the snapshot as one point.
func (h *influxHook) AddResults(s benchmark.Snapshot) error {
	if h.exporter.isClosed() {
		return ErrSinkClosed
	}

	h.iteration++
	p := influxdb2.NewPointWithMeasurement(h.exporter.config.Measurement).
		AddTag("benchmark", h.name).
		AddTag("run", h.runID).
		AddField("iteration", int64(h.iteration)).
		SetTime(time.Now())
	for key, value := range s {
		p.AddField(key, value)
	}

	if err := h.exporter.writeAPI.WritePoint(context.Background(), p); err != nil {
		return fmt.Errorf("writing iteration point: %w", err)
	}
	return nil
}

// Finished writes the run summary point and flushes pending writes.
func (h *influxHook) Finished() error {
	if h.exporter.isClosed() {
		return ErrSinkClosed
	}

	ctx := context.Background()
	p := influxdb2.NewPointWithMeasurement("benchmark_run").
		AddTag("benchmark", h.name).
		AddTag("run", h.runID).
		AddField("iterations", int64(h.iteration)).
		SetTime(time.Now())

	if err := h.exporter.writeAPI.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("writing run point: %w", err)
	}
	if err := h.exporter.writeAPI.Flush(ctx); err != nil {
		return fmt.Errorf("flushing writes: %w", err)
	}
	return nil
}
