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
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/microbench/pkg/benchmark"
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// RowCodecConfig configures the JSON encoding workload.
type RowCodecConfig struct {
	// Rows is the number of synthetic rows encoded per iteration.
	Rows int

	// PayloadWidth is the length of each row's payload string.
	PayloadWidth int

	// Seed seeds the synthetic data generator, making repeated runs encode
	// identical rows.
	Seed int64
}

// DefaultRowCodecConfig returns the configuration used by RegisterAll:
// 1000 rows with 64-byte payloads.
func DefaultRowCodecConfig() *RowCodecConfig {
	return &RowCodecConfig{
		Rows:         1000,
		PayloadWidth: 64,
		Seed:         42,
	}
}

// Validate checks that the configuration is valid.
func (c *RowCodecConfig) Validate() error {
	if c.Rows <= 0 {
		return fmt.Errorf("rows must be positive, got %d", c.Rows)
	}
	if c.PayloadWidth <= 0 {
		return fmt.Errorf("payload width must be positive, got %d", c.PayloadWidth)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Workload
// -----------------------------------------------------------------------------

// syntheticRow is the record shape the codec encodes. The field mix (id,
// counter, text, float) keeps the encoder exercising string escaping, integer
// and float formatting in one pass.
type syntheticRow struct {
	ID       string  `json:"id"`
	Sequence int64   `json:"sequence"`
	Payload  string  `json:"payload"`
	Score    float64 `json:"score"`
}

// RowCodec benchmarks JSON encoding of synthetic rows.
//
// Description:
//
//	SetUp generates Rows synthetic rows from the seeded source; each RunOnce
//	call marshals every row and reports the rows consumed, approximate bytes
//	consumed, rows produced, and encoded bytes produced. The same row slice
//	is reused across iterations, so warmup genuinely warms the encoder's
//	cached type information.
//
// Thread Safety: Not safe for concurrent use. The harness runs it from a
// single goroutine.
type RowCodec struct {
	config     RowCodecConfig
	rows       []syntheticRow
	inputBytes int64
}

var (
	_ benchmark.Benchmark  = (*RowCodec)(nil)
	_ benchmark.SetUpper   = (*RowCodec)(nil)
	_ benchmark.TearDowner = (*RowCodec)(nil)
)

// NewRowCodec creates a RowCodec workload.
//
// Inputs:
//   - config: Workload configuration. Must not be nil.
//
// Outputs:
//   - *RowCodec: The new workload. Nil on error.
//   - error: Non-nil if configuration is invalid.
func NewRowCodec(config *RowCodecConfig) (*RowCodec, error) {
	if config == nil {
		return nil, ErrInvalidWorkload
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidWorkload, err)
	}

	cfg := *config // Copy to avoid mutating input
	return &RowCodec{config: cfg}, nil
}

// SetUp generates the synthetic rows.
func (rc *RowCodec) SetUp(ctx context.Context) error {
	rng := rand.New(rand.NewSource(rc.config.Seed))

	rows := make([]syntheticRow, rc.config.Rows)
	var inputBytes int64
	for i := range rows {
		rows[i] = syntheticRow{
			ID:       uuid.NewString(),
			Sequence: int64(i),
			Payload:  randomPayload(rng, rc.config.PayloadWidth),
			Score:    rng.Float64(),
		}
		// Count the in-memory size of the string fields plus the two
		// fixed-width numeric fields.
		inputBytes += int64(len(rows[i].ID) + len(rows[i].Payload) + 16)
	}

	rc.rows = rows
	rc.inputBytes = inputBytes
	return nil
}

// RunOnce encodes every row and reports the iteration's metrics.
func (rc *RowCodec) RunOnce(ctx context.Context) (benchmark.Snapshot, error) {
	if rc.rows == nil {
		return nil, ErrNotSetUp
	}

	var outputBytes int64
	start := time.Now()
	for i := range rc.rows {
		encoded, err := json.Marshal(&rc.rows[i])
		if err != nil {
			return nil, fmt.Errorf("encoding row %d: %w", i, err)
		}
		outputBytes += int64(len(encoded))
	}
	elapsed := time.Since(start)

	return benchmark.Snapshot{
		benchmark.MetricCPUNanos:    elapsed.Nanoseconds(),
		benchmark.MetricInputRows:   int64(len(rc.rows)),
		benchmark.MetricInputBytes:  rc.inputBytes,
		benchmark.MetricOutputRows:  int64(len(rc.rows)),
		benchmark.MetricOutputBytes: outputBytes,
	}, nil
}

// DefaultResultKey names cpu_nanos as the headline metric.
func (rc *RowCodec) DefaultResultKey() string {
	return benchmark.MetricCPUNanos
}

// TearDown releases the synthetic rows.
func (rc *RowCodec) TearDown(ctx context.Context) error {
	rc.rows = nil
	rc.inputBytes = 0
	return nil
}

// payloadAlphabet is what synthetic payloads are drawn from. Plain ASCII so
// encoded size tracks payload width without escaping surprises.
const payloadAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "

// randomPayload builds a width-byte string from the payload alphabet.
func randomPayload(rng *rand.Rand, width int) string {
	buf := make([]byte, width)
	for i := range buf {
		buf[i] = payloadAlphabet[rng.Intn(len(payloadAlphabet))]
	}
	return string(buf)
}
