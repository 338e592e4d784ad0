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

type CovenantConfig struct {
	// Model: the completion backend for the agent loop and extraction
	Model ModelConfig `yaml:"model"`

	// Judge: the (usually cheaper) model used for answer evaluation
	Judge JudgeConfig `yaml:"judge"`

	// Cache: segmentation cache persistence
	Cache CacheConfig `yaml:"cache"`

	// Agent: loop behavior
	Agent AgentConfig `yaml:"agent"`

	// Logging: level and optional file output
	Logging LoggingConfig `yaml:"logging"`

	// Reports: where run reports land
	Reports ReportConfig `yaml:"reports"`
}

type ModelConfig struct {
	Name              string  `yaml:"name"`                // e.g. anthropic/claude-sonnet-4
	BaseURL           string  `yaml:"base_url,omitempty"`  // OpenAI-compatible endpoint
	Temperature       float32 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	MaxRetries        int     `yaml:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	TokenBudget       int     `yaml:"token_budget"` // extraction input budget
}

type JudgeConfig struct {
	Name string `yaml:"name"` // empty = reuse the main model
}

type CacheConfig struct {
	// Backend can be "file" or "badger".
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir,omitempty"`
}

type ReportConfig struct {
	Dir string `yaml:"dir"`
}

func DefaultConfig() CovenantConfig {
	return CovenantConfig{
		Model: ModelConfig{
			Name:              "anthropic/claude-sonnet-4",
			BaseURL:           "https://openrouter.ai/api/v1",
			Temperature:       0,
			MaxTokens:         4096,
			TimeoutSeconds:    120,
			MaxRetries:        2,
			RequestsPerSecond: 2,
			TokenBudget:       24000,
		},
		Judge: JudgeConfig{Name: "openai/gpt-4o-mini"},
		Cache: CacheConfig{
			Backend: "file",
			Dir:     "~/.covenant/cache",
		},
		Agent:   AgentConfig{MaxIterations: 10},
		Logging: LoggingConfig{Level: "info", Dir: "~/.covenant/logs"},
		Reports: ReportConfig{Dir: "~/.covenant/reports"},
	}
}
