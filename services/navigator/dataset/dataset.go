// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dataset loads question/answer benchmark files in the CUAD
// style: a JSON array of questions, each with zero or more ground
// truth answer spans.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidDataset indicates the file parsed but failed validation.
var ErrInvalidDataset = errors.New("invalid dataset")

// AnswerSpan is one ground-truth answer with its character offset in
// the source document.
type AnswerSpan struct {
	Text        string `json:"text" validate:"required"`
	AnswerStart int    `json:"answer_start" validate:"gte=-1"`
}

// Locate returns the 1-based line number where the span's text begins
// in the document's raw text.
//
// Description:
//
//	The recorded character offset is preferred; when it has drifted
//	(re-exported documents shift offsets) the text is searched for
//	instead. Returns false when the span text does not appear at all.
func (a AnswerSpan) Locate(raw string) (int, bool) {
	off := a.AnswerStart
	if off < 0 || off >= len(raw) || !strings.HasPrefix(raw[off:], a.Text) {
		off = strings.Index(raw, a.Text)
	}
	if off < 0 || a.Text == "" {
		return 0, false
	}
	return 1 + strings.Count(raw[:off], "\n"), true
}

// QAPair is one benchmark question.
type QAPair struct {
	// ID identifies the question; generated when the file omits it.
	ID string `json:"id"`

	// Question is the natural-language question text.
	Question string `json:"question" validate:"required"`

	// Answers are the ground-truth spans. Empty for impossible
	// questions.
	Answers []AnswerSpan `json:"answers" validate:"dive"`

	// IsImpossible marks questions whose correct answer is that no
	// relevant provision exists.
	IsImpossible bool `json:"is_impossible"`
}

// ExpectedTexts returns the answer texts.
func (q QAPair) ExpectedTexts() []string {
	out := make([]string, len(q.Answers))
	for i, a := range q.Answers {
		out[i] = a.Text
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads a qa_pairs.json style file.
//
// Description:
//
//	Parses the JSON array, validates each pair, and fills in missing
//	IDs as Q1, Q2, ... by position. A question with no answers and no
//	impossible flag is normalized to impossible.
//
// Outputs:
//
//	[]QAPair - The validated pairs, file order preserved.
//	error - Read/parse failure, or ErrInvalidDataset (wrapped).
func Load(path string) ([]QAPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}

	var pairs []QAPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}

	for i := range pairs {
		if pairs[i].ID == "" {
			pairs[i].ID = fmt.Sprintf("Q%d", i+1)
		}
		if len(pairs[i].Answers) == 0 {
			pairs[i].IsImpossible = true
		}
		if err := validate.Struct(pairs[i]); err != nil {
			return nil, fmt.Errorf("%w: pair %s: %v", ErrInvalidDataset, pairs[i].ID, err)
		}
	}
	return pairs, nil
}
