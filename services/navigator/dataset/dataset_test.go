// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qa_pairs.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeDataset(t, `[
		{"id": "parties", "question": "Who are the parties?", "answers": [{"text": "Acme Corp", "answer_start": 120}]},
		{"question": "What is the warranty period?", "answers": []}
	]`)

	pairs, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}

	if pairs[0].ID != "parties" || pairs[0].IsImpossible {
		t.Errorf("first pair mangled: %+v", pairs[0])
	}
	if pairs[0].ExpectedTexts()[0] != "Acme Corp" {
		t.Errorf("answer text lost: %+v", pairs[0].Answers)
	}

	// Missing ID is generated by position; no answers means impossible.
	if pairs[1].ID != "Q2" {
		t.Errorf("generated ID = %q", pairs[1].ID)
	}
	if !pairs[1].IsImpossible {
		t.Error("answerless question not normalized to impossible")
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("missing question text", func(t *testing.T) {
		path := writeDataset(t, `[{"id": "x", "answers": []}]`)
		_, err := Load(path)
		if !errors.Is(err, ErrInvalidDataset) {
			t.Errorf("expected ErrInvalidDataset, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeDataset(t, `{"not": "an array"}`)
		if _, err := Load(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Error("expected read error")
		}
	})

	t.Run("empty span text", func(t *testing.T) {
		path := writeDataset(t, `[{"question": "Q?", "answers": [{"text": "", "answer_start": 5}]}]`)
		_, err := Load(path)
		if !errors.Is(err, ErrInvalidDataset) {
			t.Errorf("expected ErrInvalidDataset, got %v", err)
		}
	})
}

func TestAnswerSpan_Locate(t *testing.T) {
	raw := "SERVICES AGREEMENT\n1. TERM\nThe term is two years.\n"

	t.Run("recorded offset", func(t *testing.T) {
		span := AnswerSpan{Text: "two years", AnswerStart: strings.Index(raw, "two years")}
		line, ok := span.Locate(raw)
		if !ok || line != 3 {
			t.Errorf("got line %d (ok=%v), want 3", line, ok)
		}
	})

	t.Run("drifted offset falls back to search", func(t *testing.T) {
		span := AnswerSpan{Text: "1. TERM", AnswerStart: 0}
		line, ok := span.Locate(raw)
		if !ok || line != 2 {
			t.Errorf("got line %d (ok=%v), want 2", line, ok)
		}
	})

	t.Run("absent text", func(t *testing.T) {
		span := AnswerSpan{Text: "zorbification", AnswerStart: -1}
		if _, ok := span.Locate(raw); ok {
			t.Error("located text that does not exist")
		}
	})
}
