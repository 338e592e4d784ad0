// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("covenant.agent")

var (
	loopIterations metric.Int64Counter
	loopCompleted  metric.Int64Counter
	loopAborted    metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the counters. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		loopIterations, err = meter.Int64Counter(
			"agent_loop_iterations_total",
			metric.WithDescription("Total number of think/act/observe iterations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		loopCompleted, err = meter.Int64Counter(
			"agent_loop_completed_total",
			metric.WithDescription("Total number of loops ending in COMPLETE"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		loopAborted, err = meter.Int64Counter(
			"agent_loop_aborted_total",
			metric.WithDescription("Total number of loops ending in ABORTED"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordIteration(ctx context.Context) {
	if initMetrics() != nil {
		return
	}
	loopIterations.Add(ctx, 1)
}

func recordTerminal(ctx context.Context, state State) {
	if initMetrics() != nil {
		return
	}
	switch state {
	case StateComplete:
		loopCompleted.Add(ctx, 1)
	case StateAborted:
		loopAborted.Add(ctx, 1)
	}
}
