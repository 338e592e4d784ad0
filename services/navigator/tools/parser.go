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
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// openTagRe matches a candidate opening tag. Closing tags are located
// by literal search because RE2 has no backreferences.
var openTagRe = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9_]*)>`)

// Parser extracts tool calls from model output.
//
// Calls are tagged blocks of the form
//
//	<tool_name><arg>value</arg>...</tool_name>
//
// interleaved with free text. The parser is a pure function over its
// input: it never executes anything and never errors. Every malformed
// fragment becomes a Diagnostic value so the agent can feed it back to
// the model as an observation.
//
// Thread Safety: Parser is immutable after construction and safe for
// concurrent use.
type Parser struct {
	defs map[string]ToolDefinition
}

// NewParser creates a parser over the given tool definitions, normally
// Registry.Definitions().
func NewParser(defs map[string]ToolDefinition) *Parser {
	return &Parser{defs: defs}
}

// Parse scans text for tool-call blocks.
//
// Description:
//
//	Returns executable calls in the order they appear, plus diagnostics
//	for unknown tool names, missing required arguments, and
//	structurally broken blocks (an unclosed block or an unescaped
//	nested tag of the same name). Free text between blocks is ignored.
//	Markup-looking fragments that name no tool and carry no argument
//	tags are treated as prose, not diagnosed.
//
// Outputs:
//
//	[]ToolCall   - Well-formed calls, document order preserved
//	[]Diagnostic - One entry per malformed fragment, same order
func (p *Parser) Parse(text string) ([]ToolCall, []Diagnostic) {
	var calls []ToolCall
	var diags []Diagnostic

	pos := 0
	for pos < len(text) {
		loc := openTagRe.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		tagStart := pos + loc[0]
		bodyStart := pos + loc[1]
		name := text[pos+loc[2] : pos+loc[3]]

		closing := "</" + name + ">"
		rel := strings.Index(text[bodyStart:], closing)
		if rel < 0 {
			if _, known := p.defs[name]; known {
				diags = append(diags, Diagnostic{
					Kind:     DiagMalformedBlock,
					ToolName: name,
					Detail:   "opening tag is never closed",
					Fragment: snippetOf(text[tagStart:]),
				})
			}
			// Unknown unclosed tag: prose. Resume after the open tag.
			pos = bodyStart
			continue
		}
		body := text[bodyStart : bodyStart+rel]
		raw := text[tagStart : bodyStart+rel+len(closing)]
		pos = bodyStart + rel + len(closing)

		def, known := p.defs[name]
		args, hasPairs := parseArgs(body)

		if !known {
			// A block that carries argument tags is an attempted tool
			// call; anything else is prose markup.
			if hasPairs {
				diags = append(diags, Diagnostic{
					Kind:     DiagUnknownTool,
					ToolName: name,
					Detail:   "no tool with this name is available",
					Fragment: snippetOf(raw),
				})
			}
			continue
		}

		if strings.Contains(body, "<"+name+">") {
			diags = append(diags, Diagnostic{
				Kind:     DiagMalformedBlock,
				ToolName: name,
				Detail:   "nested tag with the same name",
				Fragment: snippetOf(raw),
			})
			continue
		}

		if missing := missingRequired(def, args); len(missing) > 0 {
			diags = append(diags, Diagnostic{
				Kind:     DiagMissingArgument,
				ToolName: name,
				Detail:   "missing required argument(s): " + strings.Join(missing, ", "),
				Fragment: snippetOf(raw),
			})
			continue
		}

		calls = append(calls, ToolCall{
			ID:   uuid.NewString(),
			Name: name,
			Args: args,
			Raw:  raw,
		})
	}

	return calls, diags
}

// parseArgs extracts <name>value</name> pairs from a block body. Text
// between pairs is ignored. Returns whether at least one complete pair
// was found.
func parseArgs(body string) (map[string]string, bool) {
	args := make(map[string]string)
	found := false

	pos := 0
	for pos < len(body) {
		loc := openTagRe.FindStringSubmatchIndex(body[pos:])
		if loc == nil {
			break
		}
		valStart := pos + loc[1]
		name := body[pos+loc[2] : pos+loc[3]]

		closing := "</" + name + ">"
		rel := strings.Index(body[valStart:], closing)
		if rel < 0 {
			pos = valStart
			continue
		}

		args[name] = strings.TrimSpace(body[valStart : valStart+rel])
		found = true
		pos = valStart + rel + len(closing)
	}

	return args, found
}

// missingRequired returns the required parameter names absent from
// args, sorted so diagnostics are deterministic regardless of map
// iteration order.
func missingRequired(def ToolDefinition, args map[string]string) []string {
	var missing []string
	for pname, pdef := range def.Parameters {
		if !pdef.Required {
			continue
		}
		if _, ok := args[pname]; !ok {
			missing = append(missing, pname)
		}
	}
	sort.Strings(missing)
	return missing
}

// snippetOf bounds a fragment for diagnostics.
func snippetOf(s string) string {
	const max = 160
	if len(s) <= max {
		return s
	}
	return fmt.Sprintf("%s...", s[:max])
}
