// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package cache provides the content-hash-keyed segmentation cache.
//
// Entries are write-once: a changed document hashes to a different key,
// so there is no in-place invalidation. Concurrent misses for one key
// are collapsed to a single extraction with singleflight.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/covenant/services/navigator/segment"
)

// Entry is one cached segmentation result.
type Entry struct {
	Forest    *segment.Forest `json:"sections"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store persists cache entries across process restarts.
//
// Load is called once at startup; Save after each new entry. Entries are
// immutable, so implementations never need update or delete paths.
type Store interface {
	Load() (map[string]Entry, error)
	Save(key string, e Entry) error
	Close() error
}

// SegmentCache maps document content hashes to section forests.
//
// Thread Safety: safe for concurrent use. Reads of populated entries
// take only the read lock; misses for the same key are serialized by a
// singleflight group so the extraction service is invoked at most once
// per key.
type SegmentCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	flight  singleflight.Group
	store   Store

	hits     int64
	misses   int64
	computes int64
}

// Stats reports cache counters.
type Stats struct {
	EntryCount int
	Hits       int64
	Misses     int64
	Computes   int64
}

// New creates a SegmentCache, loading any persisted entries from the
// store. A nil store yields a memory-only cache.
func New(store Store) (*SegmentCache, error) {
	c := &SegmentCache{
		entries: make(map[string]Entry),
		store:   store,
	}
	if store != nil {
		loaded, err := store.Load()
		if err != nil {
			return nil, err
		}
		c.entries = loaded
	}
	return c, nil
}

// Get returns the cached forest for a key, if present.
//
// Thread Safety: safe for concurrent use.
func (c *SegmentCache) Get(key string) (*segment.Forest, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		atomic.AddInt64(&c.hits, 1)
		recordHit(context.Background())
		return e.Forest, true
	}
	atomic.AddInt64(&c.misses, 1)
	recordMiss(context.Background())
	return nil, false
}

// GetOrCompute returns the cached forest for key, computing and caching
// it on a miss.
//
// Description:
//
//	Concurrent callers missing on the same key wait on a single compute;
//	only the winner invokes the compute function. Compute errors are not
//	cached, so a later caller retries. Successful results are flushed to
//	the store before being returned.
//
// Thread Safety: safe for concurrent use.
func (c *SegmentCache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (*segment.Forest, error)) (*segment.Forest, error) {
	if f, ok := c.Get(key); ok {
		return f, nil
	}

	result, err, _ := c.flight.Do(key, func() (any, error) {
		// Double check: another caller may have populated the entry
		// between our miss and winning the flight.
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return e.Forest, nil
		}

		atomic.AddInt64(&c.computes, 1)
		recordCompute(ctx)

		f, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		entry := Entry{Forest: f, CreatedAt: time.Now().UTC()}
		c.mu.Lock()
		c.entries[key] = entry
		c.mu.Unlock()

		if c.store != nil {
			if err := c.store.Save(key, entry); err != nil {
				// Persistence failure keeps the in-memory entry usable.
				recordStoreError(ctx)
			}
		}
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*segment.Forest), nil
}

// Stats returns current cache counters.
func (c *SegmentCache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return Stats{
		EntryCount: n,
		Hits:       atomic.LoadInt64(&c.hits),
		Misses:     atomic.LoadInt64(&c.misses),
		Computes:   atomic.LoadInt64(&c.computes),
	}
}

// Close releases the underlying store.
func (c *SegmentCache) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
