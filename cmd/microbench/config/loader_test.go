// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/microbench/pkg/benchmark"
)

// TestCreateDefault verifies default config creation.
func TestCreateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".microbench", "microbench.yaml")

	err := createDefault(configPath)
	require.NoError(t, err)

	_, err = os.Stat(configPath)
	require.NoError(t, err, "config file was not created")

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var cfg MicrobenchConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))

	assert.Equal(t, CurrentConfigVersion, cfg.Meta.Version)
	assert.Equal(t, benchmark.DefaultWarmupIterations, cfg.Defaults.WarmupIterations)
	assert.Equal(t, benchmark.DefaultMeasuredIterations, cfg.Defaults.MeasuredIterations)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Telemetry.Influx.Enabled)
	assert.Equal(t, "http://localhost:8086", cfg.Telemetry.Influx.URL)
}

// TestCreateDefault_DirectoryCreation verifies nested directories are created.
func TestCreateDefault_DirectoryCreation(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "deep", "nested", "path", "microbench.yaml")

	err := createDefault(configPath)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Dir(configPath))
	assert.NoError(t, err, "nested directories were not created")
}

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Run("negative warmup", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Defaults.WarmupIterations = -1
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "warmup_iterations")
	})

	t.Run("negative measured", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Defaults.MeasuredIterations = -3
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "measured_iterations")
	})

	t.Run("unknown log level", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Logging.Level = "loud"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logging.level")
	})

	t.Run("empty log level is allowed", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Logging.Level = ""
		assert.NoError(t, cfg.Validate())
	})
}

// TestConfigRoundTrip verifies a modified config survives YAML round-tripping.
func TestConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Defaults.MeasuredIterations = 25
	cfg.Telemetry.MetricsListen = ":9090"
	cfg.Telemetry.Influx.Enabled = true
	cfg.Telemetry.Influx.Bucket = "perf"

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	var loaded MicrobenchConfig
	require.NoError(t, yaml.Unmarshal(data, &loaded))

	assert.Equal(t, cfg, loaded)
}
