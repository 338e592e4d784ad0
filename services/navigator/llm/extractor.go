// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/covenant/services/navigator/document"
	"github.com/AleutianAI/covenant/services/navigator/segment"
)

// extractionSystemPrompt steers the extraction model toward major
// structural divisions only.
const extractionSystemPrompt = `You are a legal document expert. Identify the main sections in contracts and filings.
Respond with JSON only, no prose, in this exact shape:
{"sections":[{"title":"...","start_line":1,"end_line":10,"level":0}]}
Rules:
- line numbers are 1-based and refer to the [n] markers in the input
- focus on major divisions: RECITALS, numbered sections (1., 2., ...), signature blocks
- use level 0 for top-level sections, level 1 for subsections
- sections must be in document order and must not overlap siblings`

// SectionExtractor implements segment.Extractor over the completion
// boundary.
type SectionExtractor struct {
	client CompletionClient

	// tokenBudget caps how much of the document is sent (0 = all).
	tokenBudget int
}

// NewSectionExtractor creates an extractor. tokenBudget limits the
// document text sent to the service; 0 sends everything.
func NewSectionExtractor(client CompletionClient, tokenBudget int) *SectionExtractor {
	return &SectionExtractor{client: client, tokenBudget: tokenBudget}
}

type extractedSection struct {
	Title     string `json:"title"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Level     int    `json:"level"`
}

type extractionResponse struct {
	Sections []extractedSection `json:"sections"`
}

// ExtractSections implements segment.Extractor.
//
// Description:
//
//	Sends the line-numbered document text to the extraction service and
//	decodes the returned section list into a Forest, deriving parent
//	references from levels and order. The result is NOT validated here;
//	the Segmenter owns validation so that malformed service output and
//	transport failures degrade through the same path.
func (e *SectionExtractor) ExtractSections(ctx context.Context, doc *document.Document) (*segment.Forest, error) {
	numbered := numberLines(doc)
	if e.tokenBudget > 0 {
		numbered = TruncateToBudget(numbered, e.tokenBudget)
	}

	slog.Info("Requesting document segmentation",
		slog.String("document", doc.Name),
		slog.Int("lines", doc.LineCount()),
	)

	raw, err := e.client.Complete(ctx, []Message{
		{Role: RoleSystem, Content: extractionSystemPrompt},
		{Role: RoleUser, Content: "Identify the main sections in this document.\n\nDocument:\n" + numbered},
	})
	if err != nil {
		return nil, err
	}

	var resp extractionResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}

	return buildForest(resp.Sections), nil
}

// buildForest derives parent references from the flat, ordered,
// level-annotated section list.
func buildForest(sections []extractedSection) *segment.Forest {
	forest := &segment.Forest{Sections: make([]segment.Section, 0, len(sections))}

	// Stack of (index, level) for open ancestors.
	type frame struct{ idx, level int }
	var stack []frame

	for i, s := range sections {
		for len(stack) > 0 && stack[len(stack)-1].level >= s.Level {
			stack = stack[:len(stack)-1]
		}
		parent := -1
		if len(stack) > 0 {
			parent = stack[len(stack)-1].idx
		}
		forest.Sections = append(forest.Sections, segment.Section{
			Title:     strings.TrimSpace(s.Title),
			Level:     s.Level,
			StartLine: s.StartLine,
			EndLine:   s.EndLine,
			Parent:    parent,
		})
		stack = append(stack, frame{idx: i, level: s.Level})
	}
	return forest
}

// numberLines renders the document with [n] markers the extraction
// prompt refers to.
func numberLines(doc *document.Document) string {
	lines, _, err := doc.Lines(1, doc.LineCount())
	if err != nil {
		return ""
	}
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, line)
	}
	return b.String()
}

// stripFences removes a surrounding markdown code fence, which some
// models add despite the JSON-only instruction.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
