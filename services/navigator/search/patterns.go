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

import "strings"

// topicRule maps question vocabulary to the section titles that usually
// carry the answer in legal documents.
type topicRule struct {
	// questionTerms trigger the rule when any appears in the question.
	questionTerms []string

	// sectionHints match against section titles, case-insensitive.
	sectionHints []string
}

// topicRules encodes where common legal concepts live. Questions about
// parties map to openings and recitals, termination questions to
// duration and termination sections, and so on.
var topicRules = []topicRule{
	{
		questionTerms: []string{"party", "parties", "company", "who"},
		sectionHints:  []string{"recital", "preamble", "parties", "signature", "full document"},
	},
	{
		questionTerms: []string{"date", "effective", "executed", "signed"},
		sectionHints:  []string{"recital", "term", "duration", "effective"},
	},
	{
		questionTerms: []string{"terminate", "termination", "expire", "expiration", "cancel"},
		sectionHints:  []string{"termination", "term", "duration", "default"},
	},
	{
		questionTerms: []string{"pay", "payment", "price", "pricing", "fee", "cost", "invoice"},
		sectionHints:  []string{"payment", "price", "purchase", "fees", "compensation", "invoic"},
	},
	{
		questionTerms: []string{"assign", "assignment", "transfer"},
		sectionHints:  []string{"assignment", "transfer", "interpretation", "termination"},
	},
	{
		questionTerms: []string{"warranty", "warranties", "warrant", "guarantee", "defect"},
		sectionHints:  []string{"warrant", "representation", "liability", "product"},
	},
	{
		questionTerms: []string{"license", "grant", "right", "exclusive", "exclusivity"},
		sectionHints:  []string{"license", "grant", "appointment", "rights", "products"},
	},
	{
		questionTerms: []string{"confidential", "confidentiality", "disclosure", "non-disclosure"},
		sectionHints:  []string{"confidential", "disclosure", "proprietary"},
	},
	{
		questionTerms: []string{"liability", "indemnify", "indemnification", "damages", "limitation"},
		sectionHints:  []string{"liability", "indemnif", "damages", "limitation"},
	},
	{
		questionTerms: []string{"governing", "law", "jurisdiction", "dispute", "arbitration"},
		sectionHints:  []string{"governing", "law", "jurisdiction", "dispute", "arbitration", "general"},
	},
	{
		questionTerms: []string{"minimum", "quota", "volume", "quantity"},
		sectionHints:  []string{"minimum", "purchase", "quantity", "performance", "establishment"},
	},
	{
		questionTerms: []string{"notice", "notify", "notification"},
		sectionHints:  []string{"notice", "general", "miscellaneous"},
	},
}

// synonyms is the keyword expansion table. Legal drafting scatters the
// same concept across different verbs and phrasings; the expansion pass
// re-scans with these so a question about "warranty" still reaches a
// clause that only says "warrants".
var synonyms = map[string][]string{
	"warranty":     {"warrants", "warrant", "guarantee", "defect", "defects"},
	"warranties":   {"warrants", "guarantee", "defect"},
	"terminate":    {"termination", "expire", "cancel", "cancellation", "cease"},
	"termination":  {"terminate", "expiration", "cancellation", "default"},
	"assign":       {"assignment", "transfer", "convey", "delegate"},
	"assignment":   {"assign", "transfer", "convey", "delegate", "successors"},
	"transfer":     {"assign", "convey", "delegate"},
	"pay":          {"payment", "remit", "compensation", "consideration"},
	"payment":      {"pay", "remit", "invoice", "consideration"},
	"price":        {"pricing", "prices", "fee", "cost", "rate"},
	"license":      {"licence", "grant", "right to use", "appoints"},
	"grant":        {"grants", "license", "appoints", "confers"},
	"exclusive":    {"sole", "solely", "only from", "exclusively"},
	"confidential": {"proprietary", "non-disclosure", "secret", "secrecy"},
	"liability":    {"liable", "damages", "indemnify", "indemnification"},
	"indemnify":    {"indemnification", "hold harmless", "defend"},
	"notice":       {"notify", "notification", "written notice"},
	"renewal":      {"renew", "extend", "extension", "successive"},
	"breach":       {"default", "failure to perform", "violation"},
	"option":       {"right to elect", "opportunity to", "first priority", "may exercise"},
	"effective":    {"effective date", "commencement", "operative"},
	"parties":      {"party", "between", "undersigned"},
}

// questionStopwords are excluded from key terms.
var questionStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "in": true, "on": true,
	"to": true, "for": true, "and": true, "or": true, "is": true, "are": true,
	"what": true, "which": true, "when": true, "where": true, "how": true,
	"does": true, "do": true, "did": true, "can": true, "may": true,
	"this": true, "that": true, "there": true, "any": true, "with": true,
	"under": true, "agreement": true, "contract": true, "document": true,
	"provision": true, "provisions": true, "clause": true,
}

// keyTerms extracts the searchable terms of a question, lowercased,
// stopwords removed, order preserved, deduplicated.
func keyTerms(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '\'')
	})

	seen := make(map[string]bool)
	var terms []string
	for _, f := range fields {
		f = strings.Trim(f, "-'")
		if len(f) < 3 || questionStopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// expandTerms unions the synonym sets of every term into a larger
// vocabulary for the keyword expansion pass. The original terms are
// included.
func expandTerms(terms []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(t string) {
		t = strings.ToLower(t)
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range terms {
		add(t)
		for _, s := range synonyms[t] {
			add(s)
		}
		// Singular/plural bridging for simple cases.
		if strings.HasSuffix(t, "s") {
			add(strings.TrimSuffix(t, "s"))
		} else {
			add(t + "s")
		}
	}
	return out
}

// sectionHintsFor returns the title hints of every topic rule the
// question triggers.
func sectionHintsFor(question string) []string {
	q := strings.ToLower(question)
	seen := make(map[string]bool)
	var hints []string
	for _, rule := range topicRules {
		for _, term := range rule.questionTerms {
			if strings.Contains(q, term) {
				for _, h := range rule.sectionHints {
					if !seen[h] {
						seen[h] = true
						hints = append(hints, h)
					}
				}
				break
			}
		}
	}
	return hints
}
