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

	"gopkg.in/yaml.v3"
)

// TestCreateDefault verifies default config creation.
func TestCreateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".covenant", "covenant.yaml")

	if err := createDefault(configPath); err != nil {
		t.Fatalf("createDefault() failed: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}

	var cfg CovenantConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("default config is not valid yaml: %v", err)
	}
	if cfg.Model.Name == "" {
		t.Error("default model name empty")
	}
	if cfg.Agent.MaxIterations != 10 {
		t.Errorf("default max_iterations = %d", cfg.Agent.MaxIterations)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("default cache backend = %q", cfg.Cache.Backend)
	}
}

// TestPartialConfigKeepsDefaults verifies unknown keys are ignored and
// missing keys keep their defaults after unmarshal over DefaultConfig.
func TestPartialConfigKeepsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	partial := []byte("model:\n  name: test/model\n")
	if err := yaml.Unmarshal(partial, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Model.Name != "test/model" {
		t.Errorf("override lost: %q", cfg.Model.Name)
	}
	if cfg.Model.TimeoutSeconds != 120 {
		t.Errorf("default timeout lost: %d", cfg.Model.TimeoutSeconds)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := ExpandPath("~/.covenant/cache"); got != filepath.Join(home, ".covenant", "cache") {
		t.Errorf("ExpandPath = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path mangled: %q", got)
	}
}
