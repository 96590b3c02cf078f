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

import (
	"context"
	"errors"
	"testing"
)

func TestNewSimple(t *testing.T) {
	t.Run("run once and default key", func(t *testing.T) {
		unit := NewSimple(MetricCPUNanos, func(ctx context.Context) (Snapshot, error) {
			return Snapshot{MetricCPUNanos: 42}, nil
		})

		if unit.DefaultResultKey() != MetricCPUNanos {
			t.Errorf("DefaultResultKey = %q, want %q", unit.DefaultResultKey(), MetricCPUNanos)
		}

		snap, err := unit.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("RunOnce failed: %v", err)
		}
		if snap[MetricCPUNanos] != 42 {
			t.Errorf("cpu_nanos = %d, want 42", snap[MetricCPUNanos])
		}
	})

	t.Run("set-up and tear-down default to no-ops", func(t *testing.T) {
		unit := NewSimple("v", func(ctx context.Context) (Snapshot, error) { return nil, nil })

		if err := unit.SetUp(context.Background()); err != nil {
			t.Errorf("SetUp = %v, want nil", err)
		}
		if err := unit.TearDown(context.Background()); err != nil {
			t.Errorf("TearDown = %v, want nil", err)
		}
	})

	t.Run("configured set-up and tear-down run", func(t *testing.T) {
		var setUps, tearDowns int
		unit := NewSimple("v", func(ctx context.Context) (Snapshot, error) { return nil, nil }).
			SetSetUp(func(ctx context.Context) error { setUps++; return nil }).
			SetTearDown(func(ctx context.Context) error { tearDowns++; return nil })

		if err := unit.SetUp(context.Background()); err != nil {
			t.Fatalf("SetUp failed: %v", err)
		}
		if err := unit.TearDown(context.Background()); err != nil {
			t.Fatalf("TearDown failed: %v", err)
		}
		if setUps != 1 || tearDowns != 1 {
			t.Errorf("setUps = %d, tearDowns = %d; want 1, 1", setUps, tearDowns)
		}
	})

	t.Run("errors pass through", func(t *testing.T) {
		boom := errors.New("boom")
		unit := NewSimple("v", func(ctx context.Context) (Snapshot, error) { return nil, boom })

		if _, err := unit.RunOnce(context.Background()); !errors.Is(err, boom) {
			t.Errorf("RunOnce error = %v, want boom", err)
		}
	})
}
