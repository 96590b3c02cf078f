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
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// -----------------------------------------------------------------------------
// Missing-metric errors
// -----------------------------------------------------------------------------

// MissingMetricError reports that a required metric key is absent from the
// final averages.
//
// Description:
//
//	Raised by the reporters before any output is written, so a failed run
//	never produces a partial or garbled report line. The common causes are
//	zero measured iterations (the averages are empty) and a work unit that
//	never reports one of the conventional keys.
type MissingMetricError struct {
	Benchmark string
	Key       string
}

var _ error = (*MissingMetricError)(nil)

// Error returns the formatted error message.
func (e *MissingMetricError) Error() string {
	return fmt.Sprintf("benchmark %q: required metric %q missing from averages", e.Benchmark, e.Key)
}

// Unwrap makes errors.Is(err, ErrMissingMetric) hold.
func (e *MissingMetricError) Unwrap() error {
	return ErrMissingMetric
}

// requireMetrics checks that every conventional key is present in the
// averages, in report order.
func requireMetrics(res *Result) error {
	for _, key := range RequiredMetrics {
		if _, ok := res.Averages[key]; !ok {
			return &MissingMetricError{Benchmark: res.Name, Key: key}
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Reporter interface
// -----------------------------------------------------------------------------

// Reporter formats completed benchmark results to an output sink.
//
// Description:
//
//	Reporters are pure formatting sinks: no retries, no state beyond the
//	injected writer. Each implementation validates the conventional metric
//	keys before writing anything and fails with a *MissingMetricError when
//	one is absent.
type Reporter interface {
	// Report emits one completed result.
	Report(res *Result) error

	// ReportAll emits a batch of completed results.
	ReportAll(results []*Result) error
}

// -----------------------------------------------------------------------------
// Console reporter
// -----------------------------------------------------------------------------

// ConsoleReporter writes one human-readable summary line per run.
//
// Description:
//
//	The line format is fixed:
//
//	    <name, padded to 35> :: <cpu ms, 3 decimals> cpu ms :: in <rows>,  <size>,  <rows/s>,  <bytes/s> :: out <rows>,  <size>,  <rows/s>,  <bytes/s>
//
//	Counts use 1000-based abbreviations (K, M, B, T, Q), sizes 1024-based
//	ones (B through PB), and rates divide by the averaged cpu_nanos. Row
//	counts are truncated to integers before formatting. Verbose mode adds a
//	second line with run bookkeeping.
//
// Thread Safety: Not safe for concurrent use with a shared writer.
type ConsoleReporter struct {
	out     io.Writer
	verbose bool
}

var _ Reporter = (*ConsoleReporter)(nil)

// NewConsoleReporter creates a console reporter writing to out.
//
// Inputs:
//   - out: Destination writer. Must not be nil.
//   - verbose: Whether to append a bookkeeping line per result.
func NewConsoleReporter(out io.Writer, verbose bool) *ConsoleReporter {
	return &ConsoleReporter{out: out, verbose: verbose}
}

// Report writes the summary line for one result.
func (c *ConsoleReporter) Report(res *Result) error {
	if err := requireMetrics(res); err != nil {
		return err
	}

	cpuNanos := res.Averages[MetricCPUNanos]
	inputRows := math.Trunc(res.Averages[MetricInputRows])
	inputBytes := res.Averages[MetricInputBytes]
	outputRows := math.Trunc(res.Averages[MetricOutputRows])
	outputBytes := res.Averages[MetricOutputBytes]

	_, err := fmt.Fprintf(c.out,
		"%35s :: %8.3f cpu ms :: in %5s,  %6s,  %8s,  %8s :: out %5s,  %6s,  %8s,  %8s\n",
		res.Name,
		cpuNanos/1e6,
		formatCount(inputRows),
		formatSize(inputBytes),
		formatCountRate(inputRows, cpuNanos),
		formatByteRate(inputBytes, cpuNanos),
		formatCount(outputRows),
		formatSize(outputBytes),
		formatCountRate(outputRows, cpuNanos),
		formatByteRate(outputBytes, cpuNanos),
	)
	if err != nil {
		return fmt.Errorf("writing report line: %w", err)
	}

	if c.verbose {
		_, err = fmt.Fprintf(c.out, "%35s :: run %s :: %d samples :: %.1f ms wall\n",
			"", res.RunID, res.Samples, res.WallTime.Seconds()*1000)
		if err != nil {
			return fmt.Errorf("writing report detail: %w", err)
		}
	}
	return nil
}

// ReportAll writes one summary line per result, in order.
func (c *ConsoleReporter) ReportAll(results []*Result) error {
	for _, res := range results {
		if err := c.Report(res); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// JSON reporter
// -----------------------------------------------------------------------------

// jsonResult is the wire form of a Result.
type jsonResult struct {
	RunID              string             `json:"run_id"`
	Name               string             `json:"name"`
	WarmupIterations   int                `json:"warmup_iterations"`
	MeasuredIterations int                `json:"measured_iterations"`
	Samples            int                `json:"samples"`
	StartedAtMillis    int64              `json:"started_at_ms"`
	WallMillis         float64            `json:"wall_ms"`
	CPUMillis          float64            `json:"cpu_ms"`
	InputRows          float64            `json:"input_rows"`
	InputBytes         float64            `json:"input_bytes"`
	InputRowsPerSec    float64            `json:"input_rows_per_sec"`
	InputBytesPerSec   float64            `json:"input_bytes_per_sec"`
	OutputRows         float64            `json:"output_rows"`
	OutputBytes        float64            `json:"output_bytes"`
	OutputRowsPerSec   float64            `json:"output_rows_per_sec"`
	OutputBytesPerSec  float64            `json:"output_bytes_per_sec"`
	DefaultResultKey   string             `json:"default_result_key"`
	Averages           map[string]float64 `json:"averages"`
}

func newJSONResult(res *Result) jsonResult {
	cpuNanos := res.Averages[MetricCPUNanos]
	inputRows := res.Averages[MetricInputRows]
	inputBytes := res.Averages[MetricInputBytes]
	outputRows := res.Averages[MetricOutputRows]
	outputBytes := res.Averages[MetricOutputBytes]

	return jsonResult{
		RunID:              res.RunID,
		Name:               res.Name,
		WarmupIterations:   res.WarmupIterations,
		MeasuredIterations: res.MeasuredIterations,
		Samples:            res.Samples,
		StartedAtMillis:    res.StartedAt.UnixMilli(),
		WallMillis:         res.WallTime.Seconds() * 1000,
		CPUMillis:          cpuNanos / 1e6,
		InputRows:          inputRows,
		InputBytes:         inputBytes,
		InputRowsPerSec:    rateOf(inputRows, cpuNanos),
		InputBytesPerSec:   rateOf(inputBytes, cpuNanos),
		OutputRows:         outputRows,
		OutputBytes:        outputBytes,
		OutputRowsPerSec:   rateOf(outputRows, cpuNanos),
		OutputBytesPerSec:  rateOf(outputBytes, cpuNanos),
		DefaultResultKey:   res.DefaultResultKey,
		Averages:           res.Averages,
	}
}

// JSONReporter writes one JSON object per run.
//
// Description:
//
//	Emits the same derived values as the console reporter plus the raw
//	averages map, as machine-readable JSON. Pretty mode indents with two
//	spaces.
//
// Thread Safety: Not safe for concurrent use with a shared writer.
type JSONReporter struct {
	out    io.Writer
	pretty bool
}

var _ Reporter = (*JSONReporter)(nil)

// NewJSONReporter creates a JSON reporter writing to out.
func NewJSONReporter(out io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{out: out, pretty: pretty}
}

// Report writes one result as a JSON object.
func (j *JSONReporter) Report(res *Result) error {
	if err := requireMetrics(res); err != nil {
		return err
	}
	return j.write(newJSONResult(res))
}

// ReportAll writes the results as a JSON array.
func (j *JSONReporter) ReportAll(results []*Result) error {
	out := make([]jsonResult, 0, len(results))
	for _, res := range results {
		if err := requireMetrics(res); err != nil {
			return err
		}
		out = append(out, newJSONResult(res))
	}
	return j.write(out)
}

func (j *JSONReporter) write(v any) error {
	var (
		data []byte
		err  error
	)
	if j.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	data = append(data, '\n')
	if _, err := j.out.Write(data); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Nop reporter
// -----------------------------------------------------------------------------

// NopReporter discards all results. Useful when a run's output is consumed
// through hooks or the returned Result instead.
type NopReporter struct{}

var _ Reporter = (*NopReporter)(nil)

// Report discards the result.
func (NopReporter) Report(*Result) error { return nil }

// ReportAll discards the results.
func (NopReporter) ReportAll([]*Result) error { return nil }

// -----------------------------------------------------------------------------
// Formatting helpers
// -----------------------------------------------------------------------------

var (
	countUnits = []string{"K", "M", "B", "T", "Q"}
	sizeUnits  = []string{"KB", "MB", "GB", "TB", "PB"}
)

// formatCount renders a count with 1000-based abbreviations: "9.50", "950K",
// "2.29M".
func formatCount(v float64) string {
	unit := ""
	for _, u := range countUnits {
		if math.Abs(v) < 1000 {
			break
		}
		v /= 1000
		unit = u
	}
	return formatScaled(v) + unit
}

// formatSize renders a byte size with 1024-based abbreviations: "512B",
// "1.50KB", "9.31GB".
func formatSize(v float64) string {
	unit := "B"
	for _, u := range sizeUnits {
		if math.Abs(v) < 1024 {
			break
		}
		v /= 1024
		unit = u
	}
	return formatScaled(v) + unit
}

// formatCountRate renders value/elapsed as a whole-unit rate: "100M/s".
func formatCountRate(v, elapsedNanos float64) string {
	return formatCount(math.Trunc(rateOf(v, elapsedNanos))) + "/s"
}

// formatByteRate renders bytes/elapsed as a size rate: "9.31GB/s".
func formatByteRate(v, elapsedNanos float64) string {
	return formatSize(rateOf(v, elapsedNanos)) + "/s"
}

// rateOf divides value by elapsed seconds. Zero or unusable elapsed time
// yields a zero rate rather than NaN or infinity.
func rateOf(v, elapsedNanos float64) float64 {
	if elapsedNanos <= 0 {
		return 0
	}
	rate := v / (elapsedNanos / 1e9)
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return rate
}

// formatScaled applies the adaptive precision used across all report fields:
// two decimals under 10, one under 100, none above.
func formatScaled(v float64) string {
	switch {
	case math.Abs(v) < 10:
		return fmt.Sprintf("%.2f", v)
	case math.Abs(v) < 100:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}
