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
	"strconv"
	"time"

	"github.com/AleutianAI/covenant/services/navigator/document"
	"github.com/AleutianAI/covenant/services/navigator/segment"
)

// NewDefaultRegistry builds a registry with the standard capability set
// bound to one document: read_section, get_structure, list_files.
func NewDefaultRegistry(doc *document.Document, seg *segment.Segmenter, contractsDir string) *Registry {
	r := NewRegistry()
	r.Register(NewReadSectionTool(doc))
	r.Register(NewGetStructureTool(doc, seg))
	r.Register(NewListFilesTool(contractsDir))
	return r
}

// ReadSectionTool returns a numbered slice of the document.
//
// Ranges past the end of the document are clamped rather than
// rejected, so the model never has to guess the exact line count.
type ReadSectionTool struct {
	doc *document.Document
}

// NewReadSectionTool creates a read_section tool bound to doc.
func NewReadSectionTool(doc *document.Document) *ReadSectionTool {
	return &ReadSectionTool{doc: doc}
}

func (t *ReadSectionTool) Name() string { return "read_section" }

func (t *ReadSectionTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "read_section",
		Description: "Read a range of lines from the document. Output is line-numbered.",
		Parameters: map[string]ParamDef{
			"start_line": {Type: ParamTypeInt, Description: "First line to read (1-based)", Required: true},
			"end_line":   {Type: ParamTypeInt, Description: "Last line to read (inclusive)", Required: true},
		},
		Timeout: 5 * time.Second,
	}
}

// Validate checks that both bounds are positive integers in order.
func (t *ReadSectionTool) Validate(args map[string]string) error {
	start, err := intArg(args, "start_line")
	if err != nil {
		return err
	}
	end, err := intArg(args, "end_line")
	if err != nil {
		return err
	}
	if start < 1 {
		return fmt.Errorf("start_line must be >= 1, got %d", start)
	}
	if end < start {
		return fmt.Errorf("end_line %d is before start_line %d", end, start)
	}
	return nil
}

func (t *ReadSectionTool) Execute(_ context.Context, args map[string]string) (*Result, error) {
	start, _ := intArg(args, "start_line")
	end, _ := intArg(args, "end_line")

	text, err := t.doc.NumberedText(start, end)
	if err != nil {
		if errors.Is(err, document.ErrBadRange) {
			return &Result{
				Success: false,
				Error:   fmt.Sprintf("range %d-%d is outside the document (%d lines)", start, end, t.doc.LineCount()),
			}, nil
		}
		return nil, err
	}
	return &Result{Success: true, OutputText: text}, nil
}

// GetStructureTool returns the document's section outline.
//
// This tool never fails: when segmentation is unavailable the
// segmenter degrades to a single whole-document section, and the
// outline of that fallback is still a usable observation.
type GetStructureTool struct {
	doc *document.Document
	seg *segment.Segmenter
}

// NewGetStructureTool creates a get_structure tool bound to doc.
func NewGetStructureTool(doc *document.Document, seg *segment.Segmenter) *GetStructureTool {
	return &GetStructureTool{doc: doc, seg: seg}
}

func (t *GetStructureTool) Name() string { return "get_structure" }

func (t *GetStructureTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "get_structure",
		Description: "Get the table of contents: every section title with its line range.",
		Parameters:  map[string]ParamDef{},
		Timeout:     60 * time.Second,
	}
}

func (t *GetStructureTool) Validate(map[string]string) error { return nil }

func (t *GetStructureTool) Execute(ctx context.Context, _ map[string]string) (*Result, error) {
	forest := t.seg.Segment(ctx, t.doc)
	out := forest.Outline()
	if forest.Fallback {
		out += "\n(section detection unavailable; treat the document as one unit)"
	}
	return &Result{Success: true, OutputText: out}, nil
}

// ListFilesTool lists the contract corpus directory through the
// constrained command runner.
type ListFilesTool struct {
	runner *CommandRunner
	dir    string
}

// NewListFilesTool creates a list_files tool confined to dir.
func NewListFilesTool(dir string) *ListFilesTool {
	return &ListFilesTool{runner: NewCommandRunner(dir), dir: dir}
}

func (t *ListFilesTool) Name() string { return "list_files" }

func (t *ListFilesTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "list_files",
		Description: "List the files available in the document directory.",
		Parameters: map[string]ParamDef{
			"pattern": {Type: ParamTypeString, Description: "Optional glob to filter names", Required: false},
		},
		Timeout: 10 * time.Second,
	}
}

// Validate rejects patterns that could escape the corpus directory.
func (t *ListFilesTool) Validate(args map[string]string) error {
	if pattern, ok := args["pattern"]; ok {
		return checkArgSafe(pattern)
	}
	return nil
}

func (t *ListFilesTool) Execute(ctx context.Context, args map[string]string) (*Result, error) {
	argv := []string{"ls", "-1"}
	if pattern, ok := args["pattern"]; ok && pattern != "" {
		argv = append(argv, "-d", pattern)
	}
	return t.runner.Run(ctx, argv)
}

// intArg parses a required integer argument.
func intArg(args map[string]string, name string) (int, error) {
	raw, ok := args[name]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("argument %q must be an integer, got %q", name, raw)
	}
	return v, nil
}
