// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/AleutianAI/covenant/services/navigator/document"
	"github.com/AleutianAI/covenant/services/navigator/llm"
	"github.com/AleutianAI/covenant/services/navigator/search"
	"github.com/AleutianAI/covenant/services/navigator/segment"
	"github.com/AleutianAI/covenant/services/navigator/tools"
)

// Options configure a Loop.
type Options struct {
	// MaxIterations is the hard iteration cap. Reaching it aborts the
	// loop with a best-effort answer; it never raises a fatal failure.
	MaxIterations int

	// CorpusDir is the directory exposed through the list_files tool.
	// Empty means the document's own directory.
	CorpusDir string
}

// DefaultOptions returns the standard loop configuration.
func DefaultOptions() Options {
	return Options{MaxIterations: 10}
}

// Loop drives one question through think, act, observe iterations.
//
// A Loop value is safe for concurrent Run calls: all per-question
// state lives on the Run stack, and the only shared mutable resource
// underneath is the segmentation cache, which synchronizes itself.
type Loop struct {
	client       llm.CompletionClient
	segmenter    *segment.Segmenter
	orchestrator *search.Orchestrator
	opts         Options
}

// NewLoop creates a loop controller (nil opts = defaults).
func NewLoop(client llm.CompletionClient, segmenter *segment.Segmenter, orchestrator *search.Orchestrator, opts *Options) *Loop {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
		if o.MaxIterations <= 0 {
			o.MaxIterations = DefaultOptions().MaxIterations
		}
	}
	return &Loop{
		client:       client,
		segmenter:    segmenter,
		orchestrator: orchestrator,
		opts:         o,
	}
}

// Run answers one question against one document.
//
// Description:
//
//	Segments the document (cached by content hash), runs the three-pass
//	search for coverage verification, then iterates the model loop:
//	each turn is parsed for tool calls, the calls execute strictly in
//	order, and their observations feed the next turn. The loop ends on
//	an explicit final-answer marker (COMPLETE) or when the iteration
//	budget or the context expires (ABORTED, with a best-effort answer
//	synthesized from the evidence gathered).
//
// Outputs:
//
//	*Answer - Always non-nil on nil error, in every terminal state.
//	error - Non-nil only for unusable inputs; never for a budget or
//	        service exhaustion, which degrade to ABORTED instead.
func (l *Loop) Run(ctx context.Context, question string, doc *document.Document) (*Answer, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	if strings.TrimSpace(question) == "" {
		return nil, errors.New("empty question")
	}

	logger := slog.With(
		slog.String("document", doc.Name),
		slog.String("content_hash", doc.ContentHash()[:12]),
	)

	forest := l.segmenter.Segment(ctx, doc)
	coverage := l.orchestrator.Search(ctx, question, doc, forest)
	logger.Info("Coverage search done",
		slog.String("verdict", string(coverage.Verdict)),
		slog.Int("evidence", len(coverage.Evidence)))

	corpusDir := l.opts.CorpusDir
	if corpusDir == "" {
		if doc.Path != "" {
			corpusDir = filepath.Dir(doc.Path)
		} else {
			corpusDir = "."
		}
	}
	registry := tools.NewDefaultRegistry(doc, l.segmenter, corpusDir)
	parser := tools.NewParser(registry.Definitions())
	executor := tools.NewExecutor(registry, nil)

	transcript := []llm.Message{
		{Role: llm.RoleSystem, Content: buildSystemPrompt(doc.Name, doc.LineCount(), forest.Outline(), registry.UsageText())},
		{Role: llm.RoleUser, Content: "Question: " + question},
	}

	sm := newStateMachine()
	var records []Record
	iterations := 0

	for iterations < l.opts.MaxIterations {
		// Cancellation is checked between iterations only; individual
		// tool calls carry their own timeouts.
		if ctx.Err() != nil {
			logger.Warn("Loop cancelled", slog.Int("iteration", iterations))
			return l.abort(ctx, sm, question, coverage, iterations, records), nil
		}

		iterations++
		recordIteration(ctx)

		reply, err := l.client.Complete(ctx, transcript)
		if err != nil {
			logger.Error("Completion failed, aborting with partial answer",
				slog.Int("iteration", iterations),
				slog.String("error", err.Error()))
			return l.abort(ctx, sm, question, coverage, iterations, records), nil
		}
		records = append(records, Record{Kind: RecordThought, Iteration: iterations, Text: reply, Time: time.Now()})
		transcript = append(transcript, llm.Message{Role: llm.RoleAssistant, Content: reply})

		if answerText, done := extractFinalAnswer(reply); done {
			if err := sm.transition(StateComplete); err != nil {
				return nil, err
			}
			recordTerminal(ctx, sm.state)
			logger.Info("Loop complete", slog.Int("iterations", iterations))
			return l.finalize(question, answerText, coverage, iterations, records), nil
		}

		calls, diags := parser.Parse(reply)
		if len(calls) == 0 && len(diags) == 0 {
			// Neither a tool call nor the completion marker: nudge.
			transcript = append(transcript, llm.Message{
				Role:    llm.RoleUser,
				Content: "No tool call or final answer detected. Either invoke a tool or answer on a line starting with " + FinalAnswerMarker,
			})
			continue
		}

		if err := sm.transition(StateActing); err != nil {
			return nil, err
		}

		var observations []string
		for _, d := range diags {
			// Malformed fragments are observations, never failures.
			observations = append(observations, "[parser] "+d.String())
		}
		for _, call := range calls {
			records = append(records, Record{Kind: RecordAction, Iteration: iterations, Text: call.Raw, Time: time.Now()})
			result, execErr := executor.Execute(ctx, call)
			observations = append(observations, tools.Observe(call, result, execErr))
		}

		if err := sm.transition(StateObserving); err != nil {
			return nil, err
		}
		obsText := strings.Join(observations, "\n\n")
		records = append(records, Record{Kind: RecordObservation, Iteration: iterations, Text: obsText, Time: time.Now()})
		transcript = append(transcript, llm.Message{Role: llm.RoleUser, Content: obsText})

		if err := sm.transition(StateThinking); err != nil {
			return nil, err
		}
	}

	logger.Warn("Iteration budget exhausted", slog.Int("iterations", iterations))
	return l.abort(ctx, sm, question, coverage, iterations, records), nil
}

// finalize builds the COMPLETE answer. The coverage verdict gates the
// text: with a NOT_FOUND verdict the fixed conservative answer is used
// no matter what the model wrote, since fabricating an answer without
// evidence is a correctness violation.
func (l *Loop) finalize(question, answerText string, coverage search.Result, iterations int, records []Record) *Answer {
	if coverage.Verdict == search.VerdictNotFound {
		answerText = search.NotFoundAnswer
	}
	return &Answer{
		Question:        question,
		AnswerText:      answerText,
		CoverageVerdict: coverage.Verdict,
		Evidence:        coverage.Evidence,
		IterationsUsed:  iterations,
		Transcript:      records,
	}
}

// abort transitions to ABORTED and synthesizes the best-effort answer
// from the evidence gathered so far, tagged low confidence.
func (l *Loop) abort(ctx context.Context, sm *stateMachine, question string, coverage search.Result, iterations int, records []Record) *Answer {
	// ABORTED is reachable from every non-terminal state.
	_ = sm.transition(StateAborted)
	recordTerminal(ctx, StateAborted)

	verdict := search.VerdictLowConfidence
	answerText := synthesizeFromEvidence(coverage.Evidence)
	if coverage.Verdict == search.VerdictNotFound {
		verdict = search.VerdictNotFound
		answerText = search.NotFoundAnswer
	}

	return &Answer{
		Question:        question,
		AnswerText:      answerText,
		CoverageVerdict: verdict,
		Evidence:        coverage.Evidence,
		IterationsUsed:  iterations,
		Transcript:      records,
	}
}

// synthesizeFromEvidence renders the strongest evidence into a partial
// answer when the loop could not finish normally.
func synthesizeFromEvidence(evidence []search.EvidenceItem) string {
	var b strings.Builder
	b.WriteString("The analysis did not complete, but the following provisions appear relevant:\n")
	const maxItems = 3
	for i, item := range evidence {
		if i >= maxItems {
			break
		}
		fmt.Fprintf(&b, "- %s (lines %d-%d): %s\n", item.SectionTitle, item.StartLine, item.EndLine, item.Snippet)
	}
	return b.String()
}
