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
	"math/rand"
	"strings"
	"testing"

	"github.com/AleutianAI/microbench/pkg/benchmark"
)

func TestRowCodecConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *RowCodecConfig
		wantErr bool
	}{
		{"valid", DefaultRowCodecConfig(), false},
		{"zero rows", &RowCodecConfig{Rows: 0, PayloadWidth: 8}, true},
		{"negative rows", &RowCodecConfig{Rows: -1, PayloadWidth: 8}, true},
		{"zero payload width", &RowCodecConfig{Rows: 10, PayloadWidth: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRowCodec(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewRowCodec(nil)
		if !errors.Is(err, ErrInvalidWorkload) {
			t.Errorf("Expected ErrInvalidWorkload, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewRowCodec(&RowCodecConfig{Rows: -5, PayloadWidth: 8})
		if !errors.Is(err, ErrInvalidWorkload) {
			t.Errorf("Expected ErrInvalidWorkload, got %v", err)
		}
	})

	t.Run("copies config", func(t *testing.T) {
		config := DefaultRowCodecConfig()
		codec, err := NewRowCodec(config)
		if err != nil {
			t.Fatalf("NewRowCodec() error = %v", err)
		}

		config.Rows = 9999
		if codec.config.Rows == 9999 {
			t.Error("Workload should not share the caller's config")
		}
	})
}

func TestRowCodec_RunOnce_NotSetUp(t *testing.T) {
	codec, err := NewRowCodec(DefaultRowCodecConfig())
	if err != nil {
		t.Fatalf("NewRowCodec() error = %v", err)
	}

	_, err = codec.RunOnce(context.Background())
	if !errors.Is(err, ErrNotSetUp) {
		t.Errorf("Expected ErrNotSetUp, got %v", err)
	}
}

func TestRowCodec_Lifecycle(t *testing.T) {
	ctx := context.Background()
	codec, err := NewRowCodec(&RowCodecConfig{Rows: 10, PayloadWidth: 16, Seed: 7})
	if err != nil {
		t.Fatalf("NewRowCodec() error = %v", err)
	}

	if err := codec.SetUp(ctx); err != nil {
		t.Fatalf("SetUp() error = %v", err)
	}
	if len(codec.rows) != 10 {
		t.Fatalf("Expected 10 rows, got %d", len(codec.rows))
	}

	snap, err := codec.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	for _, key := range benchmark.RequiredMetrics {
		if _, ok := snap[key]; !ok {
			t.Errorf("Snapshot missing required key %q", key)
		}
	}
	if snap[benchmark.MetricInputRows] != 10 {
		t.Errorf("input_rows = %d, want 10", snap[benchmark.MetricInputRows])
	}
	if snap[benchmark.MetricOutputRows] != 10 {
		t.Errorf("output_rows = %d, want 10", snap[benchmark.MetricOutputRows])
	}
	// Every encoded row carries at least its 16-byte payload.
	if snap[benchmark.MetricOutputBytes] < 10*16 {
		t.Errorf("output_bytes = %d, want >= 160", snap[benchmark.MetricOutputBytes])
	}
	if snap[benchmark.MetricInputBytes] <= 0 {
		t.Errorf("input_bytes = %d, want > 0", snap[benchmark.MetricInputBytes])
	}
	if snap[benchmark.MetricCPUNanos] < 0 {
		t.Errorf("cpu_nanos = %d, want >= 0", snap[benchmark.MetricCPUNanos])
	}

	// The row set is fixed after SetUp, so encoded size is stable.
	again, err := codec.RunOnce(ctx)
	if err != nil {
		t.Fatalf("Second RunOnce() error = %v", err)
	}
	if again[benchmark.MetricOutputBytes] != snap[benchmark.MetricOutputBytes] {
		t.Errorf("output_bytes changed between iterations: %d vs %d",
			snap[benchmark.MetricOutputBytes], again[benchmark.MetricOutputBytes])
	}

	if err := codec.TearDown(ctx); err != nil {
		t.Fatalf("TearDown() error = %v", err)
	}
	if _, err := codec.RunOnce(ctx); !errors.Is(err, ErrNotSetUp) {
		t.Errorf("Expected ErrNotSetUp after TearDown, got %v", err)
	}
}

func TestRowCodec_DefaultResultKey(t *testing.T) {
	codec, _ := NewRowCodec(DefaultRowCodecConfig())
	if got := codec.DefaultResultKey(); got != benchmark.MetricCPUNanos {
		t.Errorf("DefaultResultKey() = %q, want %q", got, benchmark.MetricCPUNanos)
	}
}

func TestRandomPayload(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	payload := randomPayload(rng, 32)
	if len(payload) != 32 {
		t.Fatalf("Payload length = %d, want 32", len(payload))
	}
	for _, r := range payload {
		if !strings.ContainsRune(payloadAlphabet, r) {
			t.Errorf("Payload contains byte %q outside the alphabet", r)
		}
	}

	// Same seed, same payload.
	other := randomPayload(rand.New(rand.NewSource(7)), 32)
	if payload != other {
		t.Error("Payload generation should be deterministic for a fixed seed")
	}
}
