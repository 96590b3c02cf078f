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
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/microbench/cmd/microbench/config"
	"github.com/AleutianAI/microbench/pkg/benchmark"
	"github.com/AleutianAI/microbench/pkg/logging"
	"github.com/AleutianAI/microbench/pkg/workloads"
)

// Exit codes for microbench commands.
const (
	exitSuccess = 0 // All requested benchmarks completed
	exitError   = 1 // Setup failure or at least one benchmark failed
	exitBadArgs = 2 // Invalid flags or unknown benchmark names
)

// logger is the process-wide structured logger, built in initialize from the
// loaded configuration and the persistent logging flags.
var logger *logging.Logger

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitBadArgs)
	}
}

func init() {
	rootCmd.PersistentPreRun = initialize
}

// initialize loads the configuration, builds the logger, and registers the
// built-in workloads. Runs once before any command handler.
func initialize(cmd *cobra.Command, args []string) {
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(exitError)
	}

	levelName := logLevel
	if levelName == "" {
		levelName = config.Global.Logging.Level
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitBadArgs)
	}

	logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  config.Global.Logging.Dir,
		Service: "microbench",
		JSON:    logJSON || config.Global.Logging.JSON,
		Quiet:   quiet,
	})
	slog.SetDefault(logger.Slog())

	if err := workloads.RegisterAll(benchmark.DefaultRegistry); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering workloads: %v\n", err)
		os.Exit(exitError)
	}
}
