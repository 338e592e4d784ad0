// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agent implements the think, act, observe control loop that
// answers one question against one document. Each loop instance owns
// its full state; concurrent questions never share anything but the
// segmentation cache.
package agent

import (
	"errors"
	"time"

	"github.com/AleutianAI/covenant/services/navigator/search"
)

// State is the loop's lifecycle state.
type State string

const (
	// StateThinking is waiting on the model's next turn.
	StateThinking State = "THINKING"

	// StateActing is executing the parsed tool calls of one turn.
	StateActing State = "ACTING"

	// StateObserving is folding tool results back into the transcript.
	StateObserving State = "OBSERVING"

	// StateComplete is terminal: the model produced a final answer.
	StateComplete State = "COMPLETE"

	// StateAborted is terminal: the iteration budget or a cancellation
	// ended the loop before a final answer. A best-effort answer is
	// still synthesized.
	StateAborted State = "ABORTED"
)

// Terminal reports whether the state ends the loop.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateAborted
}

// RecordKind classifies transcript records.
type RecordKind string

const (
	RecordThought     RecordKind = "thought"
	RecordAction      RecordKind = "action"
	RecordObservation RecordKind = "observation"
)

// Record is one entry of the loop transcript.
type Record struct {
	Kind      RecordKind `json:"kind"`
	Iteration int        `json:"iteration"`
	Text      string     `json:"text"`
	Time      time.Time  `json:"time"`
}

// Answer is the loop's final product. Produced in every terminal
// state: COMPLETE carries the model's own answer, ABORTED a low
// confidence synthesis of the evidence gathered so far.
type Answer struct {
	Question        string                `json:"question"`
	AnswerText      string                `json:"answer_text"`
	CoverageVerdict search.Verdict        `json:"coverage_verdict"`
	Evidence        []search.EvidenceItem `json:"evidence"`
	IterationsUsed  int                   `json:"iterations_used"`

	// Transcript is the full think/act/observe record, kept for
	// reporting and evaluation.
	Transcript []Record `json:"transcript,omitempty"`
}

// ErrBadTransition indicates a state change the lifecycle does not
// allow.
var ErrBadTransition = errors.New("invalid state transition")
