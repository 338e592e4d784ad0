// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package segment defines the section forest produced by document
// segmentation and the boundary to the structured-extraction service.
package segment

import (
	"fmt"
	"strings"
)

// Section is one structural unit of a document.
//
// Sections form an ordered forest: siblings are ordered by appearance,
// nesting follows Level. A section's line range contains all of its
// descendants' ranges and is disjoint from its siblings'.
//
// Thread Safety: Sections are never mutated after creation.
type Section struct {
	// Title is the section heading as extracted.
	Title string `json:"title" validate:"required"`

	// Level is the nesting depth (0 = top level).
	Level int `json:"level" validate:"gte=0"`

	// StartLine and EndLine are 1-based inclusive bounds.
	StartLine int `json:"start_line" validate:"gte=1"`
	EndLine   int `json:"end_line" validate:"gte=1"`

	// Parent is the index of the parent section in the forest's flat
	// order, or -1 for roots.
	Parent int `json:"parent"`
}

// LineCount returns the number of lines the section spans.
func (s Section) LineCount() int {
	return s.EndLine - s.StartLine + 1
}

// Contains reports whether line falls inside the section's range.
func (s Section) Contains(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// Forest is the ordered set of sections for one document.
//
// The flat Sections slice is in document order; tree shape is recovered
// through Level and Parent. A Forest is write-once: built by the
// Segmenter, cached, and only ever read afterwards.
type Forest struct {
	// Sections in document order.
	Sections []Section `json:"sections" validate:"required,min=1,dive"`

	// Fallback is true when this forest is the single-root degradation
	// produced after an extraction or validation failure.
	Fallback bool `json:"fallback,omitempty"`
}

// FallbackForest builds the degenerate single-root forest covering the whole
// document. It is the guaranteed-navigable result used whenever the
// extraction service fails or returns an invalid structure.
func FallbackForest(lineCount int) *Forest {
	if lineCount < 1 {
		lineCount = 1
	}
	return &Forest{
		Sections: []Section{{
			Title:     "Full Document",
			Level:     0,
			StartLine: 1,
			EndLine:   lineCount,
			Parent:    -1,
		}},
		Fallback: true,
	}
}

// Find returns the first section whose title contains the given text,
// case-insensitively.
func (f *Forest) Find(title string) (Section, bool) {
	needle := strings.ToLower(title)
	for _, s := range f.Sections {
		if strings.Contains(strings.ToLower(s.Title), needle) {
			return s, true
		}
	}
	return Section{}, false
}

// SectionAt returns the innermost section containing the given line.
func (f *Forest) SectionAt(line int) (Section, bool) {
	var best Section
	found := false
	for _, s := range f.Sections {
		if !s.Contains(line) {
			continue
		}
		if !found || s.Level > best.Level {
			best = s
			found = true
		}
	}
	return best, found
}

// Outline renders the forest as an indented table of contents, the form
// handed back to the model by the get_structure tool.
func (f *Forest) Outline() string {
	var b strings.Builder
	b.WriteString("Document Structure:\n")
	for i, s := range f.Sections {
		indent := strings.Repeat("  ", s.Level)
		fmt.Fprintf(&b, "%s%d. %s (lines %d-%d)\n", indent, i+1, s.Title, s.StartLine, s.EndLine)
	}
	fmt.Fprintf(&b, "Total sections: %d", len(f.Sections))
	if f.Fallback {
		b.WriteString(" (fallback segmentation)")
	}
	return b.String()
}
