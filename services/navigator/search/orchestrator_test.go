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
	"fmt"
	"strings"
	"testing"

	"github.com/AleutianAI/covenant/services/navigator/document"
	"github.com/AleutianAI/covenant/services/navigator/segment"
)

// contractFixture builds a small agreement with a recitals block, a
// termination section that references Section 3, and a payment section.
func contractFixture() (*document.Document, *segment.Forest) {
	var b strings.Builder
	b.WriteString("DISTRIBUTION AGREEMENT\n")
	b.WriteString("This agreement is between Acme Corp and Widget LLC.\n")
	for i := 3; i <= 9; i++ {
		fmt.Fprintf(&b, "recital line %d\n", i)
	}
	b.WriteString("1. TERMINATION\n")                                            // line 10
	b.WriteString("Either party may terminate this agreement upon default.\n")   // 11
	b.WriteString("Termination notice is governed by the terms of Section 3.\n") // 12
	for i := 13; i <= 19; i++ {
		fmt.Fprintf(&b, "termination detail %d\n", i)
	}
	b.WriteString("2. PAYMENT\n")                                   // 20
	b.WriteString("Distributor shall remit payment within 30 days.\n") // 21
	for i := 22; i <= 29; i++ {
		fmt.Fprintf(&b, "payment detail %d\n", i)
	}
	b.WriteString("3. NOTICES\n")                                 // 30
	b.WriteString("All notices must be in writing and delivered.\n") // 31
	for i := 32; i <= 35; i++ {
		fmt.Fprintf(&b, "notice detail %d\n", i)
	}

	doc := document.New("agreement.txt", b.String())
	forest := &segment.Forest{
		Sections: []segment.Section{
			{Title: "RECITALS", Level: 0, StartLine: 1, EndLine: 9, Parent: -1},
			{Title: "TERMINATION", Level: 0, StartLine: 10, EndLine: 19, Parent: -1},
			{Title: "PAYMENT", Level: 0, StartLine: 20, EndLine: 29, Parent: -1},
			{Title: "SECTION 3 NOTICES", Level: 0, StartLine: 30, EndLine: 35, Parent: -1},
		},
	}
	return doc, forest
}

func TestSearch_PrimaryPassTargetsTitledSection(t *testing.T) {
	doc, forest := contractFixture()
	o := NewOrchestrator(nil)

	result := o.Search(context.Background(), "What are the termination conditions?", doc, forest)

	if result.Verdict == VerdictNotFound {
		t.Fatal("expected evidence for a termination question")
	}

	found := false
	for _, item := range result.Evidence {
		if item.SectionTitle == "TERMINATION" && item.Pass == PassPrimary {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("no primary-pass evidence from the TERMINATION section: %+v", result.Evidence)
	}
}

func TestSearch_NoVocabularyMatchIsNotFound(t *testing.T) {
	doc, forest := contractFixture()
	o := NewOrchestrator(nil)

	result := o.Search(context.Background(), "What are the zorbification quotas for flurbs?", doc, forest)

	if result.Verdict != VerdictNotFound {
		t.Fatalf("expected NOT_FOUND, got %s with %d items", result.Verdict, len(result.Evidence))
	}
	if len(result.Evidence) != 0 {
		t.Errorf("NOT_FOUND must carry no evidence, got %+v", result.Evidence)
	}
}

func TestSearch_CrossReferencePassFollowsReferences(t *testing.T) {
	doc, forest := contractFixture()
	o := NewOrchestrator(nil)

	// The termination section's text references Section 3; the
	// cross-reference pass should pull the NOTICES section in even
	// though the question never mentions notices.
	result := o.Search(context.Background(), "How can either party terminate the agreement?", doc, forest)

	found := false
	for _, item := range result.Evidence {
		if item.Pass == PassCrossReference && strings.Contains(item.SectionTitle, "SECTION 3") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("cross-reference to Section 3 not followed: %+v", result.Evidence)
	}
}

func TestSearch_EvidenceGrowsMonotonically(t *testing.T) {
	doc, forest := contractFixture()
	o := NewOrchestrator(nil)

	result := o.Search(context.Background(), "When is payment due after termination?", doc, forest)

	// Discovery order must group passes in sequence: no primary item
	// may appear after an expansion item, and no expansion item after
	// a cross-reference item.
	rank := map[PassKind]int{PassPrimary: 0, PassKeywordExpansion: 1, PassCrossReference: 2}
	last := 0
	for _, item := range result.Evidence {
		r, ok := rank[item.Pass]
		if !ok {
			t.Fatalf("unknown pass %q", item.Pass)
		}
		if r < last {
			t.Fatalf("pass order violated: %s after rank %d", item.Pass, last)
		}
		last = r
	}

	// And no duplicates: the union is keyed by section plus range.
	seen := make(map[string]bool)
	for _, item := range result.Evidence {
		k := item.key()
		if seen[k] {
			t.Errorf("duplicate evidence item %s", k)
		}
		seen[k] = true
	}
}

func TestSearch_SparseEvidenceIsLowConfidence(t *testing.T) {
	raw := "short doc\nthe warranty lasts 24 months\nend\n"
	doc := document.New("tiny.txt", raw)
	forest := segment.FallbackForest(doc.LineCount())

	opts := DefaultOptions()
	opts.MinEvidenceBytes = 10_000
	o := NewOrchestrator(&opts)

	result := o.Search(context.Background(), "What is the warranty period?", doc, forest)
	if result.Verdict != VerdictLowConfidence {
		t.Errorf("expected LOW_CONFIDENCE for sparse evidence, got %s", result.Verdict)
	}
}

func TestKeyTerms(t *testing.T) {
	terms := keyTerms("What are the termination conditions of the Agreement?")
	joined := strings.Join(terms, " ")
	if !strings.Contains(joined, "termination") || !strings.Contains(joined, "conditions") {
		t.Errorf("key terms missing: %v", terms)
	}
	for _, tm := range terms {
		if questionStopwords[tm] {
			t.Errorf("stopword leaked: %q", tm)
		}
	}
}

func TestExpandTerms(t *testing.T) {
	expanded := strings.Join(expandTerms([]string{"warranty"}), " ")
	for _, want := range []string{"warranty", "warrants", "guarantee", "defect"} {
		if !strings.Contains(expanded, want) {
			t.Errorf("expansion missing %q: %s", want, expanded)
		}
	}
}

func TestFindReferences(t *testing.T) {
	refs := findReferences("as provided in Section 8.2 and pursuant to Exhibit B, see also Article IV")
	if len(refs) != 3 {
		t.Fatalf("expected 3 references, got %v", refs)
	}
	if refs[0].kind != "section" || refs[0].label != "8.2" {
		t.Errorf("first ref = %+v", refs[0])
	}
	if refs[1].kind != "exhibit" || refs[1].label != "B" {
		t.Errorf("second ref = %+v", refs[1])
	}
	if refs[2].kind != "article" || refs[2].label != "IV" {
		t.Errorf("third ref = %+v", refs[2])
	}
}

func TestResolve_LabelBoundaries(t *testing.T) {
	forest := &segment.Forest{
		Sections: []segment.Section{
			{Title: "SECTION 8 GENERAL", StartLine: 1, EndLine: 5, Parent: -1},
			{Title: "SECTION 8.2 ASSIGNMENT", StartLine: 6, EndLine: 10, Parent: -1},
		},
	}

	sec, ok := resolve(reference{kind: "section", label: "8.2"}, forest)
	if !ok || sec.Title != "SECTION 8.2 ASSIGNMENT" {
		t.Errorf("8.2 resolved to %+v (ok=%v)", sec, ok)
	}

	sec, ok = resolve(reference{kind: "section", label: "8"}, forest)
	if !ok || sec.Title != "SECTION 8 GENERAL" {
		t.Errorf("8 resolved to %+v (ok=%v)", sec, ok)
	}
}
