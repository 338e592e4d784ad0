// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package eval grades agent answers against ground truth using a judge
// model: paraphrases of the expected answers count, fabrications do
// not.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AleutianAI/covenant/services/navigator/dataset"
	"github.com/AleutianAI/covenant/services/navigator/llm"
)

// Grade is the judge's verdict on one answer.
type Grade string

const (
	GradeCorrect   Grade = "CORRECT"
	GradePartial   Grade = "PARTIAL"
	GradeIncorrect Grade = "INCORRECT"
)

// Confidence is the judge's confidence in its own grade.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Result is the judgement of one question.
type Result struct {
	QuestionID      string     `json:"question_id"`
	Question        string     `json:"question"`
	ExpectedAnswers []string   `json:"expected_answers"`
	AgentResponse   string     `json:"agent_response"`
	Grade           Grade      `json:"evaluation"`
	Confidence      Confidence `json:"confidence"`
	Explanation     string     `json:"explanation"`
	Reasoning       string     `json:"reasoning"`
	Timestamp       time.Time  `json:"timestamp"`
}

// Summary aggregates a full run.
type Summary struct {
	TotalQuestions int `json:"total_questions"`
	Correct        int `json:"correct"`
	Partial        int `json:"partial"`
	Incorrect      int `json:"incorrect"`

	// Accuracy counts a partial grade as half credit; StrictAccuracy
	// counts only fully correct answers.
	Accuracy       float64 `json:"accuracy"`
	StrictAccuracy float64 `json:"strict_accuracy"`

	HighConfidence   int `json:"high_confidence"`
	MediumConfidence int `json:"medium_confidence"`
	LowConfidence    int `json:"low_confidence"`

	Results []Result `json:"detailed_results"`
}

const judgePromptTemplate = `You are evaluating a legal document QA system. Compare the expected answers with the agent's actual response.

QUESTION: %s

EXPECTED ANSWERS:
%s

AGENT RESPONSE:
%s

Evaluation criteria:
1. Does the agent response contain the expected information, even if paraphrased?
2. Legal synonyms and rephrasings count as matches.
3. The response may contain additional analysis; judge only whether the expected answers are present.
%s
Grade as:
- CORRECT: all expected answers are present and accurate
- PARTIAL: some expected answers are present, others missing or unclear
- INCORRECT: expected answers are missing, wrong, or significantly inaccurate

Respond in exactly this format:
EVALUATION: [CORRECT|PARTIAL|INCORRECT]
CONFIDENCE: [HIGH|MEDIUM|LOW]
EXPLANATION: [one sentence]
REASONING: [which expected answers were found or missing]`

const impossibleCriterion = `4. This question has no answer in the document: the agent is CORRECT only if it states that no relevant provision exists, and INCORRECT if it fabricates one.
`

// Judge grades answers with a completion model.
//
// Thread Safety: Judge is immutable and safe for concurrent use.
type Judge struct {
	client llm.CompletionClient
}

// NewJudge creates a judge over the given completion client.
func NewJudge(client llm.CompletionClient) *Judge {
	return &Judge{client: client}
}

// Evaluate grades one agent response against one benchmark pair.
func (j *Judge) Evaluate(ctx context.Context, pair dataset.QAPair, agentResponse string) (*Result, error) {
	expected := pair.ExpectedTexts()
	expectedList := "- (none: the document contains no answer)"
	if len(expected) > 0 {
		expectedList = "- " + strings.Join(expected, "\n- ")
	}
	extra := ""
	if pair.IsImpossible {
		extra = impossibleCriterion
	}

	prompt := fmt.Sprintf(judgePromptTemplate, pair.Question, expectedList, agentResponse, extra)
	reply, err := j.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("judging %s: %w", pair.ID, err)
	}

	result := parseJudgement(reply)
	result.QuestionID = pair.ID
	result.Question = pair.Question
	result.ExpectedAnswers = expected
	result.AgentResponse = agentResponse
	result.Timestamp = time.Now().UTC()

	slog.Debug("Question judged",
		slog.String("question_id", pair.ID),
		slog.String("grade", string(result.Grade)),
		slog.String("confidence", string(result.Confidence)))
	return result, nil
}

// parseJudgement reads the judge's fixed response format. Unparseable
// replies degrade to INCORRECT at LOW confidence rather than erroring,
// so one bad judge turn cannot sink a whole run.
func parseJudgement(reply string) *Result {
	result := &Result{Grade: GradeIncorrect, Confidence: ConfidenceLow}
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "EVALUATION:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "EVALUATION:"))
			switch Grade(strings.ToUpper(v)) {
			case GradeCorrect, GradePartial, GradeIncorrect:
				result.Grade = Grade(strings.ToUpper(v))
			}
		case strings.HasPrefix(line, "CONFIDENCE:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "CONFIDENCE:"))
			switch Confidence(strings.ToUpper(v)) {
			case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
				result.Confidence = Confidence(strings.ToUpper(v))
			}
		case strings.HasPrefix(line, "EXPLANATION:"):
			result.Explanation = strings.TrimSpace(strings.TrimPrefix(line, "EXPLANATION:"))
		case strings.HasPrefix(line, "REASONING:"):
			result.Reasoning = strings.TrimSpace(strings.TrimPrefix(line, "REASONING:"))
		}
	}
	return result
}

// Summarize aggregates results into run-level metrics.
func Summarize(results []Result) Summary {
	s := Summary{TotalQuestions: len(results), Results: results}
	for _, r := range results {
		switch r.Grade {
		case GradeCorrect:
			s.Correct++
		case GradePartial:
			s.Partial++
		case GradeIncorrect:
			s.Incorrect++
		}
		switch r.Confidence {
		case ConfidenceHigh:
			s.HighConfidence++
		case ConfidenceMedium:
			s.MediumConfidence++
		case ConfidenceLow:
			s.LowConfidence++
		}
	}
	if s.TotalQuestions > 0 {
		s.Accuracy = (float64(s.Correct) + 0.5*float64(s.Partial)) / float64(s.TotalQuestions)
		s.StrictAccuracy = float64(s.Correct) / float64(s.TotalQuestions)
	}
	return s
}
