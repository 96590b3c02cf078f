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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	logLevel string // CLI override for logging.level (debug/info/warn/error)
	logJSON  bool
	quiet    bool

	rootCmd = &cobra.Command{
		Use:   "microbench",
		Short: "A cli to run and export micro-benchmarks",
		Long: `Microbench runs registered micro-benchmarks through a fixed
				warmup-then-measure protocol and reports per-metric averages,
				with optional export to Prometheus, InfluxDB, and JSON lines.`,
		Version: "1.0.0",
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, or error (default from config file)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false,
		"Emit logs as JSON instead of text")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false,
		"Suppress logs on stderr (file logging still applies)")
}
