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
	"log/slog"
	"time"
)

// Sentinel errors for the executor.
var (
	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrValidationFailed indicates argument validation failed.
	ErrValidationFailed = errors.New("argument validation failed")

	// ErrExecutionFailed indicates tool execution failed after retries.
	ErrExecutionFailed = errors.New("tool execution failed")

	// ErrTimeout indicates the tool execution timed out.
	ErrTimeout = errors.New("tool execution timed out")
)

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// DefaultTimeout bounds one execution when the tool's definition
	// does not set its own.
	DefaultTimeout time.Duration

	// Retries is how many times a failed execution is retried before
	// the error is surfaced. Validation failures are never retried.
	Retries int
}

// DefaultExecutorOptions returns the standard executor configuration.
func DefaultExecutorOptions() ExecutorOptions {
	return ExecutorOptions{
		DefaultTimeout: 15 * time.Second,
		Retries:        1,
	}
}

// Executor dispatches parsed tool calls against the registry.
//
// Thread Safety:
//
//	Executor is safe for concurrent use. Multiple tool executions can
//	run simultaneously.
type Executor struct {
	registry *Registry
	options  ExecutorOptions
}

// NewExecutor creates a new tool executor.
func NewExecutor(registry *Registry, opts *ExecutorOptions) *Executor {
	options := DefaultExecutorOptions()
	if opts != nil {
		options = *opts
	}
	return &Executor{registry: registry, options: options}
}

// Execute runs one parsed tool call.
//
// Description:
//
//	Looks up the tool, validates the arguments, then executes with a
//	per-call timeout. Transient execution errors are retried a bounded
//	number of times; validation failures are not.
//
// Outputs:
//
//	*Result - The execution result (Duration always set)
//	error - Non-nil if the call could not produce a result
//
// Errors:
//
//	ErrToolNotFound - Tool does not exist
//	ErrValidationFailed - Argument validation failed
//	ErrTimeout - Execution exceeded its budget
//	ErrExecutionFailed - Tool errored on every attempt
//
// Thread Safety: This method is safe for concurrent use.
func (e *Executor) Execute(ctx context.Context, call ToolCall) (*Result, error) {
	logger := slog.With(
		slog.String("tool", call.Name),
		slog.String("call_id", call.ID),
	)

	tool, ok := e.registry.Get(call.Name)
	if !ok {
		logger.Warn("Tool not found")
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, call.Name)
	}

	if err := tool.Validate(call.Args); err != nil {
		logger.Warn("Argument validation failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	timeout := tool.Definition().Timeout
	if timeout <= 0 {
		timeout = e.options.DefaultTimeout
	}

	var lastErr error
	for attempt := 0; attempt <= e.options.Retries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		execCtx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		result, err := tool.Execute(execCtx, call.Args)
		elapsed := time.Since(start)
		cancel()

		if err == nil {
			result.Duration = elapsed
			logger.Debug("Tool executed",
				slog.Bool("success", result.Success),
				slog.Duration("duration", elapsed))
			return result, nil
		}

		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("Tool timed out", slog.Duration("budget", timeout))
			return nil, fmt.Errorf("%w: %s after %v", ErrTimeout, call.Name, timeout)
		}

		lastErr = err
		logger.Warn("Tool execution failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}

	return nil, fmt.Errorf("%w: %s: %v", ErrExecutionFailed, call.Name, lastErr)
}

// Observe formats the outcome of one Execute call as observation text
// for the model. Errors become observations, never terminations: the
// loop keeps running on a failed tool call.
func Observe(call ToolCall, result *Result, err error) string {
	if err != nil {
		return fmt.Sprintf("[%s] error: %v", call.Name, err)
	}
	if !result.Success {
		return fmt.Sprintf("[%s] failed: %s", call.Name, result.Error)
	}
	return fmt.Sprintf("[%s]\n%s", call.Name, result.OutputText)
}
