// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package document holds the immutable in-memory representation of a
// contract or filing under navigation.
//
// A Document is identified by the SHA-256 of its raw text, never by its
// file path, so identical content loaded from two locations shares one
// identity (and one segmentation cache entry).
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Sentinel errors for document access.
var (
	// ErrUnreadable indicates the document could not be loaded at all.
	// This is the one fatal condition in the system.
	ErrUnreadable = errors.New("document unreadable")

	// ErrBadRange indicates an invalid line range request.
	ErrBadRange = errors.New("invalid line range")
)

// Document is an immutable, line-indexed text document.
//
// Thread Safety: Document is immutable after Load/New and safe for
// concurrent use.
type Document struct {
	// Name is a display name (usually the base file name).
	Name string

	// Path is where the document was loaded from, if any.
	Path string

	hash  string
	raw   string
	lines []string
}

// New builds a Document from raw text.
//
// Outputs:
//
//	*Document - The document with its content hash and line index derived.
func New(name, raw string) *Document {
	sum := sha256.Sum256([]byte(raw))
	// A trailing newline is a line terminator, not an empty final line.
	return &Document{
		Name:  name,
		hash:  hex.EncodeToString(sum[:]),
		raw:   raw,
		lines: strings.Split(strings.TrimSuffix(raw, "\n"), "\n"),
	}
}

// Load reads a document from disk.
//
// Outputs:
//
//	*Document - The loaded document.
//	error - ErrUnreadable (wrapped) if the file cannot be read.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	doc := New(baseName(path), string(data))
	doc.Path = path
	return doc, nil
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ContentHash returns the SHA-256 hex digest of the raw text.
func (d *Document) ContentHash() string {
	return d.hash
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Raw returns the full raw text.
func (d *Document) Raw() string {
	return d.raw
}

// Lines returns lines start..end (1-based, inclusive).
//
// Description:
//
//	Fails if start > end or start is past the end of the document.
//	An end past the last line is clamped rather than rejected so partial
//	reads near EOF stay useful.
//
// Outputs:
//
//	[]string - The requested lines.
//	int - The effective (possibly clamped) end line.
//	error - ErrBadRange (wrapped) on an unusable range.
func (d *Document) Lines(start, end int) ([]string, int, error) {
	if start < 1 {
		return nil, 0, fmt.Errorf("%w: start %d < 1", ErrBadRange, start)
	}
	if start > end {
		return nil, 0, fmt.Errorf("%w: start %d > end %d", ErrBadRange, start, end)
	}
	if start > len(d.lines) {
		return nil, 0, fmt.Errorf("%w: start %d past end of document (%d lines)", ErrBadRange, start, len(d.lines))
	}
	if end > len(d.lines) {
		end = len(d.lines)
	}
	return d.lines[start-1 : end], end, nil
}

// Snippet returns lines start..end joined, truncated to maxBytes.
//
// Used by the search orchestrator when collecting evidence text.
func (d *Document) Snippet(start, end, maxBytes int) string {
	lines, _, err := d.Lines(start, end)
	if err != nil {
		return ""
	}
	s := strings.Join(lines, "\n")
	if maxBytes > 0 && len(s) > maxBytes {
		// Back up to a rune boundary so the cut never splits a
		// multi-byte character.
		cut := maxBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

// NumberedText renders lines start..end in the `%6d | text` format used
// by the read_section tool, with a trailer describing the read window.
func (d *Document) NumberedText(start, end int) (string, error) {
	lines, effEnd, err := d.Lines(start, end)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%6d | %s\n", start+i, line)
	}
	fmt.Fprintf(&b, "[Read lines %d-%d of %d total]", start, effEnd, len(d.lines))
	return b.String(), nil
}
