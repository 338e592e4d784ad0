// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tools implements the capability set the agent loop may invoke:
// a closed registry of named tools, the parser that turns model output
// into typed tool calls, and the executor that validates and runs them.
package tools

import (
	"context"
	"fmt"
	"time"
)

// ParamType enumerates tool argument types.
type ParamType string

const (
	ParamTypeString ParamType = "string"
	ParamTypeInt    ParamType = "int"
)

// ParamDef describes one named tool argument.
type ParamDef struct {
	// Type of the argument after conversion from its tag text.
	Type ParamType

	// Description shown to the model in the tool's usage block.
	Description string

	// Required arguments missing from a call make the call
	// non-executable (reported as a diagnostic by the parser).
	Required bool
}

// ToolDefinition describes a tool to the registry, the parser, and the
// model prompt.
type ToolDefinition struct {
	// Name is the tag name of the tool's call block.
	Name string

	// Description is the usage text included in the system prompt.
	Description string

	// Parameters by argument name.
	Parameters map[string]ParamDef

	// Timeout bounds one execution (0 = executor default).
	Timeout time.Duration
}

// Tool is one member of the capability set.
//
// Validate must be side-effect free; Execute performs the action.
// Implementations return a failed Result (not an error) for conditions
// the model should observe and react to; errors are reserved for
// conditions the executor handles (timeout, retry).
type Tool interface {
	Name() string
	Definition() ToolDefinition
	Validate(args map[string]string) error
	Execute(ctx context.Context, args map[string]string) (*Result, error)
}

// Result is the outcome of one tool execution.
type Result struct {
	// Success is false when the tool ran but could not serve the
	// request (bad range, missing file, non-zero exit).
	Success bool

	// OutputText is what the model observes.
	OutputText string

	// Error describes the failure when Success is false.
	Error string

	// Duration of the execution, set by the executor.
	Duration time.Duration
}

// ToolCall is one parsed, executable invocation. Produced by the
// parser, consumed exactly once by the executor.
type ToolCall struct {
	// ID uniquely identifies the invocation.
	ID string

	// Name is the tool to dispatch to.
	Name string

	// Args holds the argument tag texts by name.
	Args map[string]string

	// Raw is the original block text, kept for diagnostics.
	Raw string
}

// Diagnostic reports one malformed fragment of model output. It is a
// value, never an exception: malformed input is an expected input
// class, and every case is representable.
type Diagnostic struct {
	// Kind classifies the problem.
	Kind DiagnosticKind

	// ToolName is the offending block's tag, when one was identified.
	ToolName string

	// Detail is a human-readable explanation fed back as an
	// observation.
	Detail string

	// Fragment is the offending text.
	Fragment string
}

// DiagnosticKind enumerates parser diagnostics.
type DiagnosticKind string

const (
	// DiagUnknownTool is a well-formed block naming no registered tool.
	DiagUnknownTool DiagnosticKind = "unknown_tool"

	// DiagMissingArgument is a block missing a required argument.
	DiagMissingArgument DiagnosticKind = "missing_argument"

	// DiagMalformedBlock is a structurally broken block (for example an
	// unescaped nested tag of the same name).
	DiagMalformedBlock DiagnosticKind = "malformed_block"
)

// String renders the diagnostic as observation text.
func (d Diagnostic) String() string {
	if d.ToolName != "" {
		return fmt.Sprintf("%s: %s (%s)", d.Kind, d.Detail, d.ToolName)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Detail)
}
