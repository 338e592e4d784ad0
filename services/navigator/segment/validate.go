// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package segment

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidForest indicates an extraction response that failed
// structural validation. It never escapes the Segmenter; callers see the
// fallback forest instead.
var ErrInvalidForest = errors.New("invalid section forest")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a forest against the structural invariants:
// per-section field constraints, start <= end, bounds within the
// document, monotonic ordering of section starts, sibling disjointness,
// and containment of child ranges in their parents.
//
// Outputs:
//
//	error - ErrInvalidForest (wrapped) on the first violation found.
func Validate(f *Forest, lineCount int) error {
	if f == nil || len(f.Sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidForest)
	}
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidForest, err)
	}

	for i, s := range f.Sections {
		if s.StartLine > s.EndLine {
			return fmt.Errorf("%w: section %q start %d > end %d", ErrInvalidForest, s.Title, s.StartLine, s.EndLine)
		}
		if s.EndLine > lineCount {
			return fmt.Errorf("%w: section %q end %d past document end %d", ErrInvalidForest, s.Title, s.EndLine, lineCount)
		}
		if s.Parent >= i {
			return fmt.Errorf("%w: section %q parent %d not earlier in order", ErrInvalidForest, s.Title, s.Parent)
		}
		if s.Parent >= 0 {
			p := f.Sections[s.Parent]
			if s.StartLine < p.StartLine || s.EndLine > p.EndLine {
				return fmt.Errorf("%w: section %q escapes parent %q range", ErrInvalidForest, s.Title, p.Title)
			}
			if s.Level <= p.Level {
				return fmt.Errorf("%w: section %q level %d not below parent level %d", ErrInvalidForest, s.Title, s.Level, p.Level)
			}
		}
	}

	// Ordering and sibling disjointness, by parent group.
	lastStart := 0
	lastEndByParent := make(map[int]int)
	for _, s := range f.Sections {
		if s.StartLine < lastStart {
			return fmt.Errorf("%w: section %q out of order (start %d before %d)", ErrInvalidForest, s.Title, s.StartLine, lastStart)
		}
		lastStart = s.StartLine
		if prevEnd, ok := lastEndByParent[s.Parent]; ok && s.StartLine <= prevEnd {
			return fmt.Errorf("%w: section %q overlaps preceding sibling (starts %d, sibling ends %d)", ErrInvalidForest, s.Title, s.StartLine, prevEnd)
		}
		lastEndByParent[s.Parent] = s.EndLine
	}

	return nil
}
