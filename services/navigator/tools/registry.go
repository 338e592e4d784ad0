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
	"sort"
	"strings"
	"sync"
)

// Registry manages tool registration and lookup.
//
// The capability set is closed: only registered names are executable,
// and the parser treats any other block as a diagnostic.
//
// Thread Safety:
//
//	Registry is fully thread-safe. All methods can be called concurrently.
type Registry struct {
	mu sync.RWMutex

	// byName maps tool names to tool instances.
	byName map[string]Tool
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
//
// Description:
//
//	Registers a tool under its Name(). If a tool with the same name is
//	already registered, it will be replaced.
//
// Inputs:
//
//	tool - The tool to register. Must not be nil.
//
// Thread Safety: This method is safe for concurrent use.
func (r *Registry) Register(tool Tool) {
	if tool == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[tool.Name()] = tool
}

// Get retrieves a tool by name.
//
// Outputs:
//
//	Tool - The registered tool, or nil if not found
//	bool - True if the tool was found
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.byName[name]
	return tool, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the definitions of all registered tools, keyed
// by name. The parser uses these to check required arguments.
func (r *Registry) Definitions() map[string]ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make(map[string]ToolDefinition, len(r.byName))
	for name, tool := range r.byName {
		defs[name] = tool.Definition()
	}
	return defs
}

// UsageText renders every registered tool's call syntax for the system
// prompt.
func (r *Registry) UsageText() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		def := r.byName[name].Definition()
		fmt.Fprintf(&b, "## %s\n%s\n", def.Name, def.Description)

		params := make([]string, 0, len(def.Parameters))
		for p := range def.Parameters {
			params = append(params, p)
		}
		sort.Strings(params)

		b.WriteString("Usage:\n<" + def.Name + ">")
		for _, p := range params {
			b.WriteString("<" + p + ">...</" + p + ">")
		}
		b.WriteString("</" + def.Name + ">\n")

		for _, p := range params {
			pd := def.Parameters[p]
			req := "optional"
			if pd.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "  %s (%s, %s): %s\n", p, pd.Type, req, pd.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}
