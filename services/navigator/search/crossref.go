// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package search

import (
	"regexp"
	"strings"

	"github.com/AleutianAI/covenant/services/navigator/segment"
)

// crossRefRe matches explicit internal references: "Section 8.2",
// "pursuant to Article IV", "Exhibit B", "Schedule 1".
var crossRefRe = regexp.MustCompile(`(?i)\b(Section|Article|Exhibit|Schedule|Clause|Paragraph)\s+([0-9]+(?:\.[0-9]+)*|[IVXLC]+\b|[A-Z]\b)`)

// reference is one parsed internal reference.
type reference struct {
	kind  string // lowercased: section, article, exhibit...
	label string // "8.2", "IV", "B"
}

// findReferences extracts all internal references from a piece of
// evidence text, deduplicated, in order of appearance.
func findReferences(text string) []reference {
	matches := crossRefRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	var refs []reference
	for _, m := range matches {
		ref := reference{kind: strings.ToLower(m[1]), label: strings.ToUpper(m[2])}
		key := ref.kind + " " + ref.label
		if !seen[key] {
			seen[key] = true
			refs = append(refs, ref)
		}
	}
	return refs
}

// resolve maps a reference to a section of the forest.
//
// A title like "SECTION 8.2 ASSIGNMENT" or "8.2 Assignment" matches the
// reference {section, 8.2}. Matching is on the label token bounded by
// non-label characters, so "Section 8" does not claim "Section 8.2".
func resolve(ref reference, forest *segment.Forest) (segment.Section, bool) {
	for _, sec := range forest.Sections {
		title := strings.ToUpper(sec.Title)
		if containsLabel(title, ref.label) {
			return sec, true
		}
	}
	return segment.Section{}, false
}

// containsLabel reports whether title carries label as a whole token.
func containsLabel(title, label string) bool {
	idx := 0
	for {
		i := strings.Index(title[idx:], label)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(label)

		beforeOK := start == 0 || !isLabelChar(title[start-1])
		afterOK := end == len(title) || !isLabelChar(title[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLabelChar(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c == '.'
}
