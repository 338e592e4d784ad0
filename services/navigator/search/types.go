// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package search implements the multi-pass evidence gathering strategy:
// a primary pass over sections matched to the question, a keyword
// expansion pass with legal synonyms, and a cross-reference pass that
// follows explicit internal references found in earlier evidence.
package search

import "fmt"

// PassKind identifies which search pass produced an evidence item.
type PassKind string

const (
	PassPrimary          PassKind = "primary"
	PassKeywordExpansion PassKind = "keyword_expansion"
	PassCrossReference   PassKind = "cross_reference"
)

// Verdict is the coverage verdict after all passes. The verdict, not a
// numeric score, drives answer phrasing downstream.
type Verdict string

const (
	// VerdictNotFound means no pass produced any evidence. The answer
	// must be NotFoundAnswer, never a fabrication.
	VerdictNotFound Verdict = "NOT_FOUND"

	// VerdictLowConfidence means evidence exists but is sparse: a
	// single section reached by a single pass, or snippet text below
	// the floor.
	VerdictLowConfidence Verdict = "LOW_CONFIDENCE"

	// VerdictConfident means evidence is corroborated across passes or
	// sections.
	VerdictConfident Verdict = "CONFIDENT"
)

// NotFoundAnswer is the fixed conservative answer used whenever the
// verdict is NOT_FOUND.
const NotFoundAnswer = "No relevant provisions were found in the document after a comprehensive multi-pass search."

// EvidenceItem is one located piece of supporting text.
type EvidenceItem struct {
	// SectionTitle is the title of the section the evidence came from.
	SectionTitle string `json:"section_title"`

	// StartLine and EndLine bound the evidence (1-based, inclusive).
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`

	// Snippet is the evidence text, bounded in size.
	Snippet string `json:"snippet"`

	// Pass is the pass that first found this item.
	Pass PassKind `json:"pass"`
}

// key identifies an item for union merging across passes.
func (e EvidenceItem) key() string {
	return fmt.Sprintf("%s:%d-%d", e.SectionTitle, e.StartLine, e.EndLine)
}

// Result is the outcome of a full three-pass search.
type Result struct {
	// Evidence in discovery order. Later passes only append; nothing
	// found by an earlier pass is ever dropped.
	Evidence []EvidenceItem `json:"evidence"`

	// Verdict is the coverage verdict over the evidence set.
	Verdict Verdict `json:"coverage_verdict"`
}
