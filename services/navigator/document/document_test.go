// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package document

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew_ContentHash(t *testing.T) {
	a := New("a.txt", "line one\nline two")
	b := New("b.txt", "line one\nline two")
	c := New("c.txt", "line one\nline three")

	if a.ContentHash() != b.ContentHash() {
		t.Error("identical content should produce identical hashes regardless of name")
	}
	if a.ContentHash() == c.ContentHash() {
		t.Error("different content should produce different hashes")
	}
	if len(a.ContentHash()) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a.ContentHash()))
	}
}

func TestDocument_Lines(t *testing.T) {
	doc := New("t.txt", "one\ntwo\nthree\nfour\nfive")

	t.Run("full range", func(t *testing.T) {
		lines, end, err := doc.Lines(1, 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(lines) != 5 || end != 5 {
			t.Errorf("expected 5 lines ending at 5, got %d ending at %d", len(lines), end)
		}
	})

	t.Run("clamps end past EOF", func(t *testing.T) {
		lines, end, err := doc.Lines(4, 100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(lines) != 2 || end != 5 {
			t.Errorf("expected clamp to line 5, got %d lines ending at %d", len(lines), end)
		}
	})

	t.Run("start past EOF fails", func(t *testing.T) {
		_, _, err := doc.Lines(6, 10)
		if !errors.Is(err, ErrBadRange) {
			t.Errorf("expected ErrBadRange, got %v", err)
		}
	})

	t.Run("start greater than end fails", func(t *testing.T) {
		_, _, err := doc.Lines(3, 2)
		if !errors.Is(err, ErrBadRange) {
			t.Errorf("expected ErrBadRange, got %v", err)
		}
	})

	t.Run("start below one fails", func(t *testing.T) {
		_, _, err := doc.Lines(0, 2)
		if !errors.Is(err, ErrBadRange) {
			t.Errorf("expected ErrBadRange, got %v", err)
		}
	})
}

func TestDocument_NumberedText(t *testing.T) {
	doc := New("t.txt", "alpha\nbeta\ngamma")

	out, err := doc.NumberedText(2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "2 | beta") {
		t.Errorf("expected numbered line for beta, got:\n%s", out)
	}
	if !strings.Contains(out, "[Read lines 2-3 of 3 total]") {
		t.Errorf("expected read trailer, got:\n%s", out)
	}
}

func TestDocument_Snippet(t *testing.T) {
	doc := New("t.txt", "alpha\nbeta\ngamma")

	if got := doc.Snippet(1, 2, 0); got != "alpha\nbeta" {
		t.Errorf("unexpected snippet: %q", got)
	}
	if got := doc.Snippet(1, 3, 5); got != "alpha..." {
		t.Errorf("expected truncated snippet, got %q", got)
	}
	if got := doc.Snippet(9, 10, 0); got != "" {
		t.Errorf("bad range should yield empty snippet, got %q", got)
	}
}

func TestDocument_SnippetRuneBoundary(t *testing.T) {
	// "§" is two bytes; a byte-count cut inside it must back up to the
	// rune boundary instead of emitting half a character.
	doc := New("t.txt", "see §12 for details")

	got := doc.Snippet(1, 1, 5) // byte 5 is mid-rune
	if !utf8.ValidString(got) {
		t.Fatalf("snippet is not valid UTF-8: %q", got)
	}
	if got != "see ..." {
		t.Errorf("expected cut before the split rune, got %q", got)
	}
}
