// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package segment

import (
	"context"
	"log/slog"

	"github.com/AleutianAI/covenant/services/navigator/document"
)

// Extractor is the boundary to the external structured-extraction
// service. Implementations live in services/navigator/llm.
type Extractor interface {
	// ExtractSections asks the service for a section list covering the
	// document. The result is raw: the Segmenter validates it.
	ExtractSections(ctx context.Context, doc *document.Document) (*Forest, error)
}

// ForestCache is the slice of the segmentation cache the Segmenter
// needs. Concurrent computes for the same key must be deduplicated by
// the implementation.
type ForestCache interface {
	GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (*Forest, error)) (*Forest, error)
}

// Segmenter turns a document into a validated section forest, consulting
// the extraction service only on a cache miss.
//
// Thread Safety: Segmenter is safe for concurrent use; the cache
// serializes concurrent misses per content hash.
type Segmenter struct {
	extractor Extractor
	cache     ForestCache
}

// NewSegmenter creates a Segmenter over the given extractor and cache.
func NewSegmenter(extractor Extractor, cache ForestCache) *Segmenter {
	return &Segmenter{extractor: extractor, cache: cache}
}

// Segment returns the section forest for a document.
//
// Description:
//
//	Cache hit: returns the cached forest. Cache miss: invokes the
//	extraction service, validates the response, and caches it. Any
//	service or validation failure degrades to the single-root fallback
//	forest, which is returned but never cached, so a later question can
//	retry the real segmentation.
//
// Outputs:
//
//	*Forest - Always non-nil; at minimum the fallback forest.
//
// Thread Safety: Safe for concurrent use.
func (s *Segmenter) Segment(ctx context.Context, doc *document.Document) *Forest {
	forest, err := s.cache.GetOrCompute(ctx, doc.ContentHash(), func(ctx context.Context) (*Forest, error) {
		f, err := s.extractor.ExtractSections(ctx, doc)
		if err != nil {
			return nil, err
		}
		if err := Validate(f, doc.LineCount()); err != nil {
			return nil, err
		}
		return f, nil
	})
	if err != nil {
		slog.Warn("Segmentation degraded to fallback",
			slog.String("document", doc.Name),
			slog.String("error", err.Error()),
		)
		return FallbackForest(doc.LineCount())
	}
	return forest
}
