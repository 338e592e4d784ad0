// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrStoreCorrupt indicates the persisted mapping file could not be parsed.
var ErrStoreCorrupt = errors.New("cache store corrupt")

// FileStore persists the cache as a single JSON mapping file from
// content hash to serialized section forest plus creation timestamp.
// The whole file is rewritten after each new entry; entries are
// immutable so a rewrite never loses concurrent updates to an existing
// key.
//
// Thread Safety: safe for concurrent use.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
}

type fileStoreLayout struct {
	Entries map[string]Entry `json:"entries"`
}

// NewFileStore creates a FileStore at the given path, creating parent
// directories as needed.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileStore{path: path, entries: make(map[string]Entry)}, nil
}

// Load implements Store.
//
// A missing file is an empty cache, not an error. A corrupt file is
// reported so the caller can decide whether to start cold.
func (s *FileStore) Load() (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Entry{}, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var layout fileStoreLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreCorrupt, s.path, err)
	}
	if layout.Entries == nil {
		layout.Entries = map[string]Entry{}
	}
	s.entries = layout.Entries

	out := make(map[string]Entry, len(layout.Entries))
	for k, v := range layout.Entries {
		out[k] = v
	}
	return out, nil
}

// Save implements Store. The mapping file is flushed after each new
// entry via an atomic rename.
func (s *FileStore) Save(key string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = e

	data, err := json.MarshalIndent(fileStoreLayout{Entries: s.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}
