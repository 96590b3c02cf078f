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
	"crypto/sha256"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/AleutianAI/microbench/pkg/benchmark"
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// HasherConfig configures the SHA-256 hashing workload.
type HasherConfig struct {
	// Blocks is the number of data blocks hashed per iteration.
	Blocks int

	// BlockSize is the size of each block in bytes.
	BlockSize int

	// Seed seeds the block generator.
	Seed int64
}

// DefaultHasherConfig returns the configuration used by RegisterAll:
// 64 blocks of 64 KiB, 4 MiB hashed per iteration.
func DefaultHasherConfig() *HasherConfig {
	return &HasherConfig{
		Blocks:    64,
		BlockSize: 64 * 1024,
		Seed:      42,
	}
}

// Validate checks that the configuration is valid.
func (c *HasherConfig) Validate() error {
	if c.Blocks <= 0 {
		return fmt.Errorf("blocks must be positive, got %d", c.Blocks)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block size must be positive, got %d", c.BlockSize)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Workload
// -----------------------------------------------------------------------------

// Hasher benchmarks SHA-256 digestion of in-memory blocks.
//
// Description:
//
//	SetUp fills Blocks byte slices of BlockSize from the seeded source; each
//	RunOnce call digests every block. One digest counts as one output row, so
//	output_bytes is Blocks times the 32-byte digest size.
//
// Thread Safety: Not safe for concurrent use. The harness runs it from a
// single goroutine.
type Hasher struct {
	config     HasherConfig
	blocks     [][]byte
	inputBytes int64

	// sink folds a byte of every digest so the hot loop's work is observable.
	sink byte
}

var (
	_ benchmark.Benchmark  = (*Hasher)(nil)
	_ benchmark.SetUpper   = (*Hasher)(nil)
	_ benchmark.TearDowner = (*Hasher)(nil)
)

// NewHasher creates a Hasher workload.
//
// Inputs:
//   - config: Workload configuration. Must not be nil.
//
// Outputs:
//   - *Hasher: The new workload. Nil on error.
//   - error: Non-nil if configuration is invalid.
func NewHasher(config *HasherConfig) (*Hasher, error) {
	if config == nil {
		return nil, ErrInvalidWorkload
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidWorkload, err)
	}

	cfg := *config // Copy to avoid mutating input
	return &Hasher{config: cfg}, nil
}

// SetUp generates the data blocks.
func (h *Hasher) SetUp(ctx context.Context) error {
	rng := rand.New(rand.NewSource(h.config.Seed))

	blocks := make([][]byte, h.config.Blocks)
	for i := range blocks {
		blocks[i] = make([]byte, h.config.BlockSize)
		if _, err := rng.Read(blocks[i]); err != nil {
			return fmt.Errorf("generating block %d: %w", i, err)
		}
	}

	h.blocks = blocks
	h.inputBytes = int64(h.config.Blocks) * int64(h.config.BlockSize)
	return nil
}

// RunOnce digests every block and reports the iteration's metrics.
func (h *Hasher) RunOnce(ctx context.Context) (benchmark.Snapshot, error) {
	if h.blocks == nil {
		return nil, ErrNotSetUp
	}

	start := time.Now()
	for _, block := range h.blocks {
		digest := sha256.Sum256(block)
		h.sink ^= digest[0]
	}
	elapsed := time.Since(start)

	return benchmark.Snapshot{
		benchmark.MetricCPUNanos:    elapsed.Nanoseconds(),
		benchmark.MetricInputRows:   int64(len(h.blocks)),
		benchmark.MetricInputBytes:  h.inputBytes,
		benchmark.MetricOutputRows:  int64(len(h.blocks)),
		benchmark.MetricOutputBytes: int64(len(h.blocks)) * sha256.Size,
	}, nil
}

// DefaultResultKey names input_bytes as the headline metric: hashing is
// throughput-bound, so bytes consumed per second is the number to watch.
func (h *Hasher) DefaultResultKey() string {
	return benchmark.MetricInputBytes
}

// TearDown releases the data blocks.
func (h *Hasher) TearDown(ctx context.Context) error {
	h.blocks = nil
	h.inputBytes = 0
	return nil
}
