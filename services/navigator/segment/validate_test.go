// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package segment

import (
	"errors"
	"testing"
)

func validForest() *Forest {
	return &Forest{Sections: []Section{
		{Title: "RECITALS", Level: 0, StartLine: 1, EndLine: 20, Parent: -1},
		{Title: "1. APPOINTMENT", Level: 0, StartLine: 21, EndLine: 80, Parent: -1},
		{Title: "1.1 Territory", Level: 1, StartLine: 30, EndLine: 50, Parent: 1},
		{Title: "2. TERMINATION", Level: 0, StartLine: 81, EndLine: 140, Parent: -1},
	}}
}

func TestValidate_Accepts(t *testing.T) {
	if err := Validate(validForest(), 200); err != nil {
		t.Fatalf("expected valid forest, got %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(f *Forest)
	}{
		{"start after end", func(f *Forest) { f.Sections[1].StartLine = 90 }},
		{"end past document", func(f *Forest) { f.Sections[3].EndLine = 500 }},
		{"sibling overlap", func(f *Forest) { f.Sections[3].StartLine = 70 }},
		{"non-monotonic order", func(f *Forest) {
			f.Sections[3].StartLine = 5
			f.Sections[3].EndLine = 10
		}},
		{"child escapes parent", func(f *Forest) { f.Sections[2].EndLine = 90 }},
		{"child level not deeper", func(f *Forest) { f.Sections[2].Level = 0 }},
		{"empty title", func(f *Forest) { f.Sections[0].Title = "" }},
		{"zero start line", func(f *Forest) { f.Sections[0].StartLine = 0 }},
		{"forward parent reference", func(f *Forest) { f.Sections[0].Parent = 2 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validForest()
			tc.mutate(f)
			err := Validate(f, 200)
			if !errors.Is(err, ErrInvalidForest) {
				t.Errorf("expected ErrInvalidForest, got %v", err)
			}
		})
	}

	t.Run("nil forest", func(t *testing.T) {
		if err := Validate(nil, 200); !errors.Is(err, ErrInvalidForest) {
			t.Errorf("expected ErrInvalidForest, got %v", err)
		}
	})

	t.Run("empty forest", func(t *testing.T) {
		if err := Validate(&Forest{}, 200); !errors.Is(err, ErrInvalidForest) {
			t.Errorf("expected ErrInvalidForest, got %v", err)
		}
	})
}

func TestFallbackForest(t *testing.T) {
	f := FallbackForest(120)
	if len(f.Sections) != 1 {
		t.Fatalf("expected single section, got %d", len(f.Sections))
	}
	s := f.Sections[0]
	if s.StartLine != 1 || s.EndLine != 120 || s.Parent != -1 {
		t.Errorf("unexpected fallback section: %+v", s)
	}
	if !f.Fallback {
		t.Error("fallback flag should be set")
	}
	if err := Validate(f, 120); err != nil {
		t.Errorf("fallback forest must validate: %v", err)
	}
}

func TestForest_SectionAt(t *testing.T) {
	f := validForest()

	s, ok := f.SectionAt(40)
	if !ok || s.Title != "1.1 Territory" {
		t.Errorf("expected innermost section 1.1 Territory, got %+v (ok=%v)", s, ok)
	}

	s, ok = f.SectionAt(100)
	if !ok || s.Title != "2. TERMINATION" {
		t.Errorf("expected TERMINATION, got %+v (ok=%v)", s, ok)
	}

	if _, ok := f.SectionAt(9999); ok {
		t.Error("line outside all sections should not resolve")
	}
}

func TestForest_Find(t *testing.T) {
	f := validForest()
	if s, ok := f.Find("termination"); !ok || s.StartLine != 81 {
		t.Errorf("case-insensitive find failed: %+v (ok=%v)", s, ok)
	}
	if _, ok := f.Find("indemnification"); ok {
		t.Error("missing title should not be found")
	}
}
