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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Sentinel errors for the command runner.
var (
	// ErrCommandNotAllowed indicates the binary is not on the allow-list.
	ErrCommandNotAllowed = errors.New("command not allowed")

	// ErrUnsafeArgument indicates an argument carries shell
	// metacharacters or path traversal.
	ErrUnsafeArgument = errors.New("unsafe command argument")
)

// allowedCommands is the closed set of binaries the runner will start.
// Read-only listing commands only; nothing that writes or fetches.
var allowedCommands = map[string]bool{
	"ls": true,
}

// CommandRunner executes allow-listed commands confined to a single
// working directory.
//
// Commands run without a shell: argv is passed to the binary directly,
// so metacharacters have no interpreter to reach, but they are still
// rejected up front to keep observations unambiguous.
//
// Thread Safety: CommandRunner is immutable and safe for concurrent
// use.
type CommandRunner struct {
	workDir string
}

// NewCommandRunner creates a runner confined to workDir.
func NewCommandRunner(workDir string) *CommandRunner {
	return &CommandRunner{workDir: workDir}
}

// Run executes argv inside the confined directory.
//
// Description:
//
//	Checks the binary against the allow-list and every argument for
//	metacharacters and traversal, then runs the command with combined
//	output capture. A non-zero exit is a failed Result, not an error;
//	the model observes the command's own stderr.
//
// Outputs:
//
//	*Result - Captured output, Success false on non-zero exit
//	error - Non-nil only for disallowed input or a start failure
func (r *CommandRunner) Run(ctx context.Context, argv []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty argv", ErrCommandNotAllowed)
	}
	if !allowedCommands[argv[0]] {
		return nil, fmt.Errorf("%w: %s", ErrCommandNotAllowed, argv[0])
	}
	for _, arg := range argv[1:] {
		if err := checkArgSafe(arg); err != nil {
			return nil, err
		}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.workDir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &Result{
				Success:    false,
				OutputText: out.String(),
				Error:      fmt.Sprintf("%s exited with code %d", argv[0], exitErr.ExitCode()),
			}, nil
		}
		return nil, fmt.Errorf("starting %s: %w", argv[0], err)
	}

	return &Result{Success: true, OutputText: out.String()}, nil
}

// checkArgSafe rejects arguments that could reach outside the confined
// directory or smuggle shell syntax into observations.
func checkArgSafe(arg string) error {
	if strings.ContainsAny(arg, ";|&$`<>(){}\n") {
		return fmt.Errorf("%w: %q", ErrUnsafeArgument, arg)
	}
	if strings.Contains(arg, "..") || strings.HasPrefix(arg, "/") {
		return fmt.Errorf("%w: %q", ErrUnsafeArgument, arg)
	}
	return nil
}
