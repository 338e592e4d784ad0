// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/covenant/services/navigator/segment"
)

func testForest(title string) *segment.Forest {
	return &segment.Forest{Sections: []segment.Section{
		{Title: title, Level: 0, StartLine: 1, EndLine: 100, Parent: -1},
	}}
}

func TestSegmentCache_GetOrCompute(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)

	var computes int32
	compute := func(ctx context.Context) (*segment.Forest, error) {
		atomic.AddInt32(&computes, 1)
		return testForest("A"), nil
	}

	f1, err := c.GetOrCompute(context.Background(), "key1", compute)
	require.NoError(t, err)
	f2, err := c.GetOrCompute(context.Background(), "key1", compute)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&computes), "second call must hit the cache")
	assert.Same(t, f1, f2, "cached entries are immutable and shared")
	assert.Equal(t, 1, c.Stats().EntryCount)
}

func TestSegmentCache_ConcurrentMissSingleCompute(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)

	var computes int32
	started := make(chan struct{})
	compute := func(ctx context.Context) (*segment.Forest, error) {
		atomic.AddInt32(&computes, 1)
		<-started // hold the flight open until all goroutines have launched
		return testForest("A"), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*segment.Forest, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := c.GetOrCompute(context.Background(), "shared", compute)
			assert.NoError(t, err)
			results[i] = f
		}(i)
	}
	close(started)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&computes), "concurrent misses must collapse to one compute")
	for i := 1; i < callers; i++ {
		assert.Same(t, results[0], results[i], "all callers receive the same forest")
	}
}

func TestSegmentCache_ComputeErrorNotCached(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)

	boom := errors.New("extraction unavailable")
	calls := 0
	_, err = c.GetOrCompute(context.Background(), "k", func(ctx context.Context) (*segment.Forest, error) {
		calls++
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	f, err := c.GetOrCompute(context.Background(), "k", func(ctx context.Context) (*segment.Forest, error) {
		calls++
		return testForest("B"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "failed computes must not be cached")
	assert.Equal(t, "B", f.Sections[0].Title)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)

	c, err := New(store)
	require.NoError(t, err)

	_, err = c.GetOrCompute(context.Background(), "hash1", func(ctx context.Context) (*segment.Forest, error) {
		return testForest("RECITALS"), nil
	})
	require.NoError(t, err)

	// A fresh cache over a fresh store on the same path sees the entry.
	store2, err := NewFileStore(path)
	require.NoError(t, err)
	c2, err := New(store2)
	require.NoError(t, err)

	f, ok := c2.Get("hash1")
	require.True(t, ok, "persisted entry should be loaded at startup")
	assert.Equal(t, "RECITALS", f.Sections[0].Title)
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nope", "segments.json"))
	require.NoError(t, err)

	entries, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBadgerStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := NewBadgerStore(dir)
	require.NoError(t, err)

	e := Entry{Forest: testForest("TERMINATION")}
	require.NoError(t, store.Save("hash9", e))

	entries, err := store.Load()
	require.NoError(t, err)
	require.Contains(t, entries, "hash9")
	assert.Equal(t, "TERMINATION", entries["hash9"].Forest.Sections[0].Title)

	require.NoError(t, store.Close())
}
