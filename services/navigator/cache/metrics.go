// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cache

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("covenant.cache")

var (
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	cacheComputes   metric.Int64Counter
	cacheStoreFails metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the counters. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		cacheHits, err = meter.Int64Counter(
			"segment_cache_hits_total",
			metric.WithDescription("Total number of segmentation cache hits"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheMisses, err = meter.Int64Counter(
			"segment_cache_misses_total",
			metric.WithDescription("Total number of segmentation cache misses"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheComputes, err = meter.Int64Counter(
			"segment_cache_computes_total",
			metric.WithDescription("Total number of extraction-service invocations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheStoreFails, err = meter.Int64Counter(
			"segment_cache_store_failures_total",
			metric.WithDescription("Total number of persistence failures"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordHit(ctx context.Context) {
	if initMetrics() != nil {
		return
	}
	cacheHits.Add(ctx, 1)
}

func recordMiss(ctx context.Context) {
	if initMetrics() != nil {
		return
	}
	cacheMisses.Add(ctx, 1)
}

func recordCompute(ctx context.Context) {
	if initMetrics() != nil {
		return
	}
	cacheComputes.Add(ctx, 1)
}

func recordStoreError(ctx context.Context) {
	if initMetrics() != nil {
		return
	}
	cacheStoreFails.Add(ctx, 1)
}
