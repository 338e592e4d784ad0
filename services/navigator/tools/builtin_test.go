// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/covenant/services/navigator/document"
	"github.com/AleutianAI/covenant/services/navigator/segment"
)

func tenLineDoc() *document.Document {
	var b strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return document.New("test.txt", b.String())
}

func TestReadSectionTool(t *testing.T) {
	tool := NewReadSectionTool(tenLineDoc())

	t.Run("reads a range with line numbers", func(t *testing.T) {
		args := map[string]string{"start_line": "2", "end_line": "4"}
		if err := tool.Validate(args); err != nil {
			t.Fatalf("validate: %v", err)
		}
		result, err := tool.Execute(context.Background(), args)
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
		if !result.Success {
			t.Fatalf("failed: %s", result.Error)
		}
		if !strings.Contains(result.OutputText, "2 | line 2") {
			t.Errorf("output not numbered:\n%s", result.OutputText)
		}
		if !strings.Contains(result.OutputText, "[Read lines 2-4 of 10 total]") {
			t.Errorf("missing range trailer:\n%s", result.OutputText)
		}
	})

	t.Run("clamps end past document", func(t *testing.T) {
		args := map[string]string{"start_line": "8", "end_line": "500"}
		result, err := tool.Execute(context.Background(), args)
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
		if !result.Success {
			t.Fatalf("clamped read failed: %s", result.Error)
		}
		if !strings.Contains(result.OutputText, "[Read lines 8-10 of 10 total]") {
			t.Errorf("trailer does not reflect clamping:\n%s", result.OutputText)
		}
	})

	t.Run("start past document is a failed result", func(t *testing.T) {
		args := map[string]string{"start_line": "50", "end_line": "60"}
		result, err := tool.Execute(context.Background(), args)
		if err != nil {
			t.Fatalf("expected failed result, got error: %v", err)
		}
		if result.Success {
			t.Error("expected failure for out-of-range start")
		}
	})

	t.Run("validate rejects bad arguments", func(t *testing.T) {
		cases := []map[string]string{
			{"start_line": "abc", "end_line": "5"},
			{"start_line": "0", "end_line": "5"},
			{"start_line": "5", "end_line": "2"},
		}
		for _, args := range cases {
			if err := tool.Validate(args); err == nil {
				t.Errorf("validate accepted %v", args)
			}
		}
	})
}

// failingExtractor always errors, forcing the fallback forest.
type failingExtractor struct{}

func (failingExtractor) ExtractSections(context.Context, *document.Document) (*segment.Forest, error) {
	return nil, errors.New("model unavailable")
}

// passthroughCache runs compute directly without persistence.
type passthroughCache struct{}

func (passthroughCache) GetOrCompute(ctx context.Context, _ string, compute func(context.Context) (*segment.Forest, error)) (*segment.Forest, error) {
	return compute(ctx)
}

func TestGetStructureTool_NeverFails(t *testing.T) {
	doc := tenLineDoc()
	seg := segment.NewSegmenter(failingExtractor{}, passthroughCache{})
	tool := NewGetStructureTool(doc, seg)

	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("failed: %s", result.Error)
	}
	if !strings.Contains(result.OutputText, "Full Document") {
		t.Errorf("fallback outline missing whole-document section:\n%s", result.OutputText)
	}
}

func TestCommandRunner(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"msa.txt", "nda.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	runner := NewCommandRunner(dir)

	t.Run("lists the confined directory", func(t *testing.T) {
		result, err := runner.Run(context.Background(), []string{"ls", "-1"})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if !result.Success {
			t.Fatalf("failed: %s", result.Error)
		}
		if !strings.Contains(result.OutputText, "msa.txt") || !strings.Contains(result.OutputText, "nda.txt") {
			t.Errorf("listing incomplete:\n%s", result.OutputText)
		}
	})

	t.Run("rejects binaries off the allow-list", func(t *testing.T) {
		_, err := runner.Run(context.Background(), []string{"cat", "msa.txt"})
		if !errors.Is(err, ErrCommandNotAllowed) {
			t.Errorf("expected ErrCommandNotAllowed, got %v", err)
		}
	})

	t.Run("rejects unsafe arguments", func(t *testing.T) {
		unsafe := [][]string{
			{"ls", "; rm -rf /"},
			{"ls", "../outside"},
			{"ls", "/etc"},
			{"ls", "$(whoami)"},
		}
		for _, argv := range unsafe {
			if _, err := runner.Run(context.Background(), argv); !errors.Is(err, ErrUnsafeArgument) {
				t.Errorf("argv %v: expected ErrUnsafeArgument, got %v", argv, err)
			}
		}
	})
}

// flakyTool fails a set number of times before succeeding.
type flakyTool struct {
	failures int
	calls    int
	delay    time.Duration
}

func (t *flakyTool) Name() string { return "flaky" }

func (t *flakyTool) Definition() ToolDefinition {
	return ToolDefinition{Name: "flaky", Parameters: map[string]ParamDef{}, Timeout: 100 * time.Millisecond}
}

func (t *flakyTool) Validate(map[string]string) error { return nil }

func (t *flakyTool) Execute(ctx context.Context, _ map[string]string) (*Result, error) {
	t.calls++
	if t.delay > 0 {
		select {
		case <-time.After(t.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if t.calls <= t.failures {
		return nil, errors.New("transient failure")
	}
	return &Result{Success: true, OutputText: "ok"}, nil
}

func TestExecutor(t *testing.T) {
	t.Run("retries transient failures", func(t *testing.T) {
		tool := &flakyTool{failures: 1}
		registry := NewRegistry()
		registry.Register(tool)
		exec := NewExecutor(registry, nil)

		result, err := exec.Execute(context.Background(), ToolCall{ID: "1", Name: "flaky"})
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
		if !result.Success || tool.calls != 2 {
			t.Errorf("expected success on attempt 2, got calls=%d", tool.calls)
		}
	})

	t.Run("gives up after retry budget", func(t *testing.T) {
		tool := &flakyTool{failures: 10}
		registry := NewRegistry()
		registry.Register(tool)
		exec := NewExecutor(registry, nil)

		_, err := exec.Execute(context.Background(), ToolCall{ID: "2", Name: "flaky"})
		if !errors.Is(err, ErrExecutionFailed) {
			t.Errorf("expected ErrExecutionFailed, got %v", err)
		}
		if tool.calls != 2 {
			t.Errorf("expected 2 attempts, got %d", tool.calls)
		}
	})

	t.Run("times out slow tools", func(t *testing.T) {
		tool := &flakyTool{delay: time.Second}
		registry := NewRegistry()
		registry.Register(tool)
		exec := NewExecutor(registry, nil)

		_, err := exec.Execute(context.Background(), ToolCall{ID: "3", Name: "flaky"})
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		exec := NewExecutor(NewRegistry(), nil)
		_, err := exec.Execute(context.Background(), ToolCall{ID: "4", Name: "nope"})
		if !errors.Is(err, ErrToolNotFound) {
			t.Errorf("expected ErrToolNotFound, got %v", err)
		}
	})
}
