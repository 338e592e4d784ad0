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
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/AleutianAI/covenant/services/navigator/document"
	"github.com/AleutianAI/covenant/services/navigator/segment"
)

// Options configure an Orchestrator.
type Options struct {
	// MaxSnippetBytes bounds each evidence snippet.
	MaxSnippetBytes int

	// MinEvidenceBytes is the floor below which an evidence set is
	// considered sparse.
	MinEvidenceBytes int

	// ContextLines extends each matched range on both sides.
	ContextLines int
}

// DefaultOptions returns the standard orchestrator configuration.
func DefaultOptions() Options {
	return Options{
		MaxSnippetBytes:  600,
		MinEvidenceBytes: 80,
		ContextLines:     1,
	}
}

// Orchestrator runs the three-pass search over one document.
//
// Pass results are unioned, never replaced: every item found by an
// earlier pass survives into the final evidence set. The orchestrator
// holds no mutable state between calls and is safe for concurrent use.
type Orchestrator struct {
	opts Options
}

// NewOrchestrator creates an orchestrator with the given options
// (nil = defaults).
func NewOrchestrator(opts *Options) *Orchestrator {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	return &Orchestrator{opts: o}
}

// Search runs all three passes for one question.
//
// Description:
//
//	Pass 1 maps the question to candidate sections via topic heuristics
//	and scans them for the question's key terms. Pass 2 re-scans with
//	an expanded vocabulary of legal synonyms, reaching sections the
//	primary pass missed. Pass 3 follows explicit internal references
//	found in the evidence so far ("pursuant to Section 8.2") and pulls
//	in the referenced sections. The verdict is computed over the final
//	union.
//
// Outputs:
//
//	Result - Evidence in discovery order plus the coverage verdict.
//	        Never errors; an empty document yields NOT_FOUND.
func (o *Orchestrator) Search(ctx context.Context, question string, doc *document.Document, forest *segment.Forest) Result {
	logger := slog.With(slog.String("document", doc.Name))

	terms := keyTerms(question)
	seen := make(map[string]bool)
	var evidence []EvidenceItem

	add := func(items []EvidenceItem) int {
		added := 0
		for _, item := range items {
			if seen[item.key()] {
				continue
			}
			seen[item.key()] = true
			evidence = append(evidence, item)
			added++
		}
		return added
	}

	// Pass 1: primary.
	candidates := o.rankSections(question, terms, forest)
	for _, sec := range candidates {
		add(o.scanSection(doc, sec, terms, PassPrimary))
	}
	logger.Debug("Primary pass done",
		slog.Int("candidates", len(candidates)),
		slog.Int("evidence", len(evidence)))

	if ctx.Err() != nil {
		return Result{Evidence: evidence, Verdict: o.verdict(evidence)}
	}

	// Pass 2: keyword expansion over every section.
	expanded := expandTerms(terms)
	for _, sec := range forest.Sections {
		add(o.scanSection(doc, sec, expanded, PassKeywordExpansion))
	}
	logger.Debug("Keyword expansion pass done",
		slog.Int("vocabulary", len(expanded)),
		slog.Int("evidence", len(evidence)))

	if ctx.Err() != nil {
		return Result{Evidence: evidence, Verdict: o.verdict(evidence)}
	}

	// Pass 3: follow references out of the evidence found so far.
	// Iterate over a snapshot; additions do not cascade further.
	snapshot := evidence
	for _, item := range snapshot {
		for _, ref := range findReferences(item.Snippet) {
			sec, ok := resolve(ref, forest)
			if !ok || sec.Title == item.SectionTitle {
				continue
			}
			add([]EvidenceItem{o.sectionEvidence(doc, sec, PassCrossReference)})
		}
	}
	logger.Debug("Cross-reference pass done", slog.Int("evidence", len(evidence)))

	return Result{Evidence: evidence, Verdict: o.verdict(evidence)}
}

// rankSections orders the forest's sections by topical fit to the
// question. Sections whose titles match a topic hint or a question
// term rank first; with no scored section the whole forest is used so
// the fallback single-section forest stays navigable.
func (o *Orchestrator) rankSections(question string, terms []string, forest *segment.Forest) []segment.Section {
	hints := sectionHintsFor(question)

	type scored struct {
		sec   segment.Section
		score int
		idx   int
	}
	var ranked []scored
	for i, sec := range forest.Sections {
		title := strings.ToLower(sec.Title)
		score := 0
		for _, h := range hints {
			if strings.Contains(title, h) {
				score += 2
			}
		}
		for _, t := range terms {
			if strings.Contains(title, t) {
				score += 3
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{sec: sec, score: score, idx: i})
		}
	}

	if len(ranked) == 0 {
		return forest.Sections
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].idx < ranked[j].idx
	})

	out := make([]segment.Section, len(ranked))
	for i, s := range ranked {
		out[i] = s.sec
	}
	return out
}

// scanSection finds term matches inside one section and groups nearby
// hits into bounded evidence items.
func (o *Orchestrator) scanSection(doc *document.Document, sec segment.Section, terms []string, pass PassKind) []EvidenceItem {
	if len(terms) == 0 {
		return nil
	}

	lines, end, err := doc.Lines(sec.StartLine, sec.EndLine)
	if err != nil {
		return nil
	}

	var hits []int
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, t := range terms {
			if strings.Contains(lower, t) {
				hits = append(hits, sec.StartLine+i)
				break
			}
		}
	}
	if len(hits) == 0 {
		return nil
	}

	var items []EvidenceItem
	const gap = 2
	rangeStart, rangeEnd := hits[0], hits[0]
	flush := func() {
		start := rangeStart - o.opts.ContextLines
		if start < sec.StartLine {
			start = sec.StartLine
		}
		stop := rangeEnd + o.opts.ContextLines
		if stop > end {
			stop = end
		}
		items = append(items, EvidenceItem{
			SectionTitle: sec.Title,
			StartLine:    start,
			EndLine:      stop,
			Snippet:      doc.Snippet(start, stop, o.opts.MaxSnippetBytes),
			Pass:         pass,
		})
	}
	for _, h := range hits[1:] {
		if h-rangeEnd <= gap {
			rangeEnd = h
			continue
		}
		flush()
		rangeStart, rangeEnd = h, h
	}
	flush()

	return items
}

// sectionEvidence wraps a whole section as one evidence item, used by
// the cross-reference pass.
func (o *Orchestrator) sectionEvidence(doc *document.Document, sec segment.Section, pass PassKind) EvidenceItem {
	end := sec.EndLine
	if end > doc.LineCount() {
		end = doc.LineCount()
	}
	return EvidenceItem{
		SectionTitle: sec.Title,
		StartLine:    sec.StartLine,
		EndLine:      end,
		Snippet:      doc.Snippet(sec.StartLine, end, o.opts.MaxSnippetBytes),
		Pass:         pass,
	}
}

// verdict applies the coverage policy to the final evidence set.
func (o *Orchestrator) verdict(evidence []EvidenceItem) Verdict {
	if len(evidence) == 0 {
		return VerdictNotFound
	}

	sections := make(map[string]bool)
	passes := make(map[PassKind]bool)
	totalBytes := 0
	for _, item := range evidence {
		sections[item.SectionTitle] = true
		passes[item.Pass] = true
		totalBytes += len(item.Snippet)
	}

	if totalBytes < o.opts.MinEvidenceBytes {
		return VerdictLowConfidence
	}
	if len(sections) == 1 && len(passes) == 1 {
		return VerdictLowConfidence
	}
	return VerdictConfident
}
