// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/microbench/pkg/benchmark"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	listJSONOutput bool
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

// listCmd prints the registered benchmarks.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered benchmarks",
	Long: `List every registered benchmark with its registered iteration
counts and the metric it reports by default.

Examples:
  microbench list
  microbench list --json`,
	Run: runList,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	listCmd.Flags().BoolVar(&listJSONOutput, "json", false,
		"Output as JSON for scripting")

	rootCmd.AddCommand(listCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// listEntry is one row of the machine-readable listing.
type listEntry struct {
	Name               string `json:"name"`
	WarmupIterations   int    `json:"warmup_iterations"`
	MeasuredIterations int    `json:"measured_iterations"`
	DefaultResultKey   string `json:"default_result_key"`
}

// runList prints the registry contents.
func runList(cmd *cobra.Command, args []string) {
	reg := benchmark.DefaultRegistry

	entries := make([]listEntry, 0, reg.Count())
	for _, name := range reg.List() {
		entry, ok := reg.Get(name)
		if !ok {
			continue
		}
		entries = append(entries, listEntry{
			Name:               name,
			WarmupIterations:   entry.Config.WarmupIterations,
			MeasuredIterations: entry.Config.MeasuredIterations,
			DefaultResultKey:   entry.Benchmark.DefaultResultKey(),
		})
	}

	if listJSONOutput {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}
		fmt.Println(string(data))
		return
	}

	if len(entries) == 0 {
		fmt.Println("No benchmarks registered.")
		return
	}

	fmt.Printf("%-24s %8s %10s  %s\n", "BENCHMARK", "WARMUP", "MEASURED", "DEFAULT KEY")
	for _, e := range entries {
		fmt.Printf("%-24s %8d %10d  %s\n",
			e.Name, e.WarmupIterations, e.MeasuredIterations, e.DefaultResultKey)
	}
	fmt.Printf("\n%d benchmark(s) registered.\n", len(entries))
}
