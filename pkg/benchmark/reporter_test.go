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
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// testResult builds a fully-populated result with round numbers: 1 ms of cpu,
// 1000 rows in, 2 KB in, 500 rows out, 512 B out.
func testResult(name string) *Result {
	return &Result{
		RunID:              "run-1",
		Name:               name,
		WarmupIterations:   2,
		MeasuredIterations: 3,
		Samples:            3,
		StartedAt:          time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		WallTime:           12 * time.Millisecond,
		DefaultResultKey:   MetricCPUNanos,
		Averages: map[string]float64{
			MetricCPUNanos:    1e6,
			MetricInputRows:   1000,
			MetricInputBytes:  2048,
			MetricOutputRows:  500,
			MetricOutputBytes: 512,
		},
	}
}

func TestConsoleReporter_Report(t *testing.T) {
	t.Run("exact line format", func(t *testing.T) {
		var buf bytes.Buffer
		rep := NewConsoleReporter(&buf, false)

		if err := rep.Report(testResult("test_bench")); err != nil {
			t.Fatalf("Report failed: %v", err)
		}

		want := "                         test_bench ::    1.000 cpu ms :: in 1.00K,  2.00KB,   1.00M/s,  1.95MB/s :: out   500,    512B,    500K/s,   500KB/s\n"
		if got := buf.String(); got != want {
			t.Errorf("line mismatch:\n got %q\nwant %q", got, want)
		}
	})

	t.Run("missing metric writes nothing", func(t *testing.T) {
		var buf bytes.Buffer
		rep := NewConsoleReporter(&buf, false)
		res := testResult("broken")
		delete(res.Averages, MetricInputBytes)

		err := rep.Report(res)
		if !errors.Is(err, ErrMissingMetric) {
			t.Fatalf("error = %v, want ErrMissingMetric", err)
		}
		var mme *MissingMetricError
		if !errors.As(err, &mme) {
			t.Fatalf("error = %v, want *MissingMetricError", err)
		}
		if mme.Key != MetricInputBytes {
			t.Errorf("Key = %q, want input_bytes", mme.Key)
		}
		if buf.Len() != 0 {
			t.Errorf("output should be empty, got %q", buf.String())
		}
	})

	t.Run("empty averages report the first required key", func(t *testing.T) {
		var buf bytes.Buffer
		rep := NewConsoleReporter(&buf, false)
		res := testResult("empty")
		res.Averages = map[string]float64{}

		var mme *MissingMetricError
		if err := rep.Report(res); !errors.As(err, &mme) {
			t.Fatalf("error = %v, want *MissingMetricError", err)
		}
		if mme.Key != MetricCPUNanos {
			t.Errorf("Key = %q, want cpu_nanos", mme.Key)
		}
	})

	t.Run("verbose adds a bookkeeping line", func(t *testing.T) {
		var buf bytes.Buffer
		rep := NewConsoleReporter(&buf, true)

		if err := rep.Report(testResult("verbose_bench")); err != nil {
			t.Fatalf("Report failed: %v", err)
		}
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		if len(lines) != 2 {
			t.Fatalf("lines = %d, want 2", len(lines))
		}
		if !strings.Contains(lines[1], "run run-1 :: 3 samples :: 12.0 ms wall") {
			t.Errorf("detail line = %q", lines[1])
		}
	})

	t.Run("zero cpu yields zero rates", func(t *testing.T) {
		var buf bytes.Buffer
		rep := NewConsoleReporter(&buf, false)
		res := testResult("zerocpu")
		res.Averages[MetricCPUNanos] = 0

		if err := rep.Report(res); err != nil {
			t.Fatalf("Report failed: %v", err)
		}
		if !strings.Contains(buf.String(), "0.00/s") {
			t.Errorf("expected a zero rate in %q", buf.String())
		}
	})

	t.Run("fractional rows are truncated", func(t *testing.T) {
		var buf bytes.Buffer
		rep := NewConsoleReporter(&buf, false)
		res := testResult("fractional")
		res.Averages[MetricOutputRows] = 9.9

		if err := rep.Report(res); err != nil {
			t.Fatalf("Report failed: %v", err)
		}
		if !strings.Contains(buf.String(), " 9.00,") {
			t.Errorf("output rows should truncate to 9.00: %q", buf.String())
		}
	})
}

func TestConsoleReporter_ReportAll(t *testing.T) {
	var buf bytes.Buffer
	rep := NewConsoleReporter(&buf, false)

	err := rep.ReportAll([]*Result{testResult("one"), testResult("two")})
	if err != nil {
		t.Fatalf("ReportAll failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "one") || !strings.Contains(lines[1], "two") {
		t.Errorf("lines out of order: %q", buf.String())
	}
}

func TestJSONReporter_Report(t *testing.T) {
	t.Run("compact object", func(t *testing.T) {
		var buf bytes.Buffer
		rep := NewJSONReporter(&buf, false)

		if err := rep.Report(testResult("json_bench")); err != nil {
			t.Fatalf("Report failed: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got["name"] != "json_bench" {
			t.Errorf("name = %v", got["name"])
		}
		if got["run_id"] != "run-1" {
			t.Errorf("run_id = %v", got["run_id"])
		}
		if got["cpu_ms"] != 1.0 {
			t.Errorf("cpu_ms = %v, want 1", got["cpu_ms"])
		}
		if got["input_rows_per_sec"] != 1e6 {
			t.Errorf("input_rows_per_sec = %v, want 1e6", got["input_rows_per_sec"])
		}
		if got["samples"] != 3.0 {
			t.Errorf("samples = %v, want 3", got["samples"])
		}
		if got["default_result_key"] != MetricCPUNanos {
			t.Errorf("default_result_key = %v", got["default_result_key"])
		}
		avgs, ok := got["averages"].(map[string]any)
		if !ok {
			t.Fatalf("averages missing: %v", got["averages"])
		}
		if avgs[MetricOutputBytes] != 512.0 {
			t.Errorf("averages.output_bytes = %v, want 512", avgs[MetricOutputBytes])
		}
	})

	t.Run("pretty indents", func(t *testing.T) {
		var buf bytes.Buffer
		rep := NewJSONReporter(&buf, true)

		if err := rep.Report(testResult("pretty")); err != nil {
			t.Fatalf("Report failed: %v", err)
		}
		if !strings.HasPrefix(buf.String(), "{\n  \"") {
			t.Errorf("output is not indented: %q", buf.String()[:20])
		}
	})

	t.Run("missing metric writes nothing", func(t *testing.T) {
		var buf bytes.Buffer
		rep := NewJSONReporter(&buf, false)
		res := testResult("broken")
		delete(res.Averages, MetricOutputBytes)

		if err := rep.Report(res); !errors.Is(err, ErrMissingMetric) {
			t.Fatalf("error = %v, want ErrMissingMetric", err)
		}
		if buf.Len() != 0 {
			t.Errorf("output should be empty, got %q", buf.String())
		}
	})
}

func TestJSONReporter_ReportAll(t *testing.T) {
	t.Run("array of objects", func(t *testing.T) {
		var buf bytes.Buffer
		rep := NewJSONReporter(&buf, false)

		err := rep.ReportAll([]*Result{testResult("a"), testResult("b")})
		if err != nil {
			t.Fatalf("ReportAll failed: %v", err)
		}
		var got []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not a JSON array: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("objects = %d, want 2", len(got))
		}
		if got[0]["name"] != "a" || got[1]["name"] != "b" {
			t.Errorf("names = %v, %v", got[0]["name"], got[1]["name"])
		}
	})

	t.Run("one bad result fails the batch before writing", func(t *testing.T) {
		var buf bytes.Buffer
		rep := NewJSONReporter(&buf, false)
		bad := testResult("bad")
		bad.Averages = nil

		err := rep.ReportAll([]*Result{testResult("a"), bad})
		if !errors.Is(err, ErrMissingMetric) {
			t.Fatalf("error = %v, want ErrMissingMetric", err)
		}
		if buf.Len() != 0 {
			t.Errorf("output should be empty, got %q", buf.String())
		}
	})
}

func TestNopReporter(t *testing.T) {
	rep := NopReporter{}
	if err := rep.Report(testResult("x")); err != nil {
		t.Errorf("Report failed: %v", err)
	}
	if err := rep.ReportAll(nil); err != nil {
		t.Errorf("ReportAll failed: %v", err)
	}
}

func TestMissingMetricError(t *testing.T) {
	err := &MissingMetricError{Benchmark: "scan", Key: MetricCPUNanos}
	want := `benchmark "scan": required metric "cpu_nanos" missing from averages`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrMissingMetric) {
		t.Error("Unwrap should expose ErrMissingMetric")
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want string
	}{
		{"small fraction", 9.5, "9.50"},
		{"two digits", 99.5, "99.5"},
		{"three digits", 950, "950"},
		{"thousands", 950000, "950K"},
		{"millions", 2290000, "2.29M"},
		{"hundred million", 1e8, "100M"},
		{"billions", 3.5e9, "3.50B"},
		{"trillions", 1.2e12, "1.20T"},
		{"quadrillions", 9e15, "9.00Q"},
		{"zero", 0, "0.00"},
		{"negative", -2500, "-2.50K"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatCount(tt.v); got != tt.want {
				t.Errorf("formatCount(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want string
	}{
		{"bytes", 512, "512B"},
		{"exact kilobyte", 1024, "1.00KB"},
		{"one and a half", 1536, "1.50KB"},
		{"megabyte", 1 << 20, "1.00MB"},
		{"gigabytes", 1e10, "9.31GB"},
		{"zero", 0, "0.00B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSize(tt.v); got != tt.want {
				t.Errorf("formatSize(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestRateOf(t *testing.T) {
	tests := []struct {
		name    string
		v       float64
		elapsed float64
		want    float64
	}{
		{"simple", 1000, 1e6, 1e6},
		{"one second", 42, 1e9, 42},
		{"zero elapsed", 100, 0, 0},
		{"negative elapsed", 100, -5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rateOf(tt.v, tt.elapsed); got != tt.want {
				t.Errorf("rateOf(%v, %v) = %v, want %v", tt.v, tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestFormatRates(t *testing.T) {
	if got := formatCountRate(1000, 1e6); got != "1.00M/s" {
		t.Errorf("formatCountRate = %q, want 1.00M/s", got)
	}
	if got := formatByteRate(2048, 1e6); got != "1.95MB/s" {
		t.Errorf("formatByteRate = %q, want 1.95MB/s", got)
	}
	if got := formatCountRate(100, 0); got != "0.00/s" {
		t.Errorf("formatCountRate with zero elapsed = %q, want 0.00/s", got)
	}
	if got := formatByteRate(100, 0); got != "0.00B/s" {
		t.Errorf("formatByteRate with zero elapsed = %q, want 0.00B/s", got)
	}
}
