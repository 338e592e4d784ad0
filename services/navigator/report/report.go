// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report persists run results as JSON files for later
// inspection and comparison between runs.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AleutianAI/covenant/services/navigator/agent"
	"github.com/AleutianAI/covenant/services/navigator/eval"
)

// Report is one full run: every answer produced, plus the judge's
// summary when an evaluation ran.
type Report struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Document    string         `json:"document"`
	Model       string         `json:"model,omitempty"`
	Answers     []agent.Answer `json:"answers"`
	Evaluation  *eval.Summary  `json:"evaluation,omitempty"`
}

// New creates a report for one document run.
func New(document, model string) *Report {
	return &Report{
		GeneratedAt: time.Now().UTC(),
		Document:    document,
		Model:       model,
	}
}

// Add appends one answer.
func (r *Report) Add(answer agent.Answer) {
	r.Answers = append(r.Answers, answer)
}

// Write serializes the report to dir as a timestamped JSON file and
// returns the path written.
//
// The write goes through a temp file and rename so a crash never
// leaves a truncated report behind.
func (r *Report) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}

	name := fmt.Sprintf("run_%s.json", r.GeneratedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalizing report: %w", err)
	}
	return path, nil
}

// Read loads a previously written report.
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &r, nil
}
