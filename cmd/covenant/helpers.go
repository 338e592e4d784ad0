// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/AleutianAI/covenant/cmd/covenant/config"
	"github.com/AleutianAI/covenant/services/navigator/agent"
	"github.com/AleutianAI/covenant/services/navigator/cache"
	"github.com/AleutianAI/covenant/services/navigator/llm"
	"github.com/AleutianAI/covenant/services/navigator/search"
	"github.com/AleutianAI/covenant/services/navigator/segment"
)

// stack bundles the wired components behind one run.
type stack struct {
	client    *llm.OpenAIClient
	cache     *cache.SegmentCache
	segmenter *segment.Segmenter
	loop      *agent.Loop
}

// buildStack wires the full pipeline from the Global config plus CLI
// overrides.
func buildStack() (*stack, error) {
	cfg := config.Global

	opts := llm.DefaultOptions()
	opts.Model = resolveModelName()
	if cfg.Model.BaseURL != "" {
		opts.BaseURL = cfg.Model.BaseURL
	}
	opts.Temperature = cfg.Model.Temperature
	opts.MaxTokens = cfg.Model.MaxTokens
	if cfg.Model.TimeoutSeconds > 0 {
		opts.RequestTimeout = time.Duration(cfg.Model.TimeoutSeconds) * time.Second
	}
	opts.MaxRetries = cfg.Model.MaxRetries
	if cfg.Model.RequestsPerSecond > 0 {
		opts.RequestsPerSecond = cfg.Model.RequestsPerSecond
	}

	client, err := llm.NewOpenAIClient(opts)
	if err != nil {
		return nil, fmt.Errorf("building completion client: %w", err)
	}

	store, err := buildStore(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("building cache store: %w", err)
	}
	segCache, err := cache.New(store)
	if err != nil {
		return nil, fmt.Errorf("loading segmentation cache: %w", err)
	}

	extractor := llm.NewSectionExtractor(client, cfg.Model.TokenBudget)
	segmenter := segment.NewSegmenter(extractor, segCache)

	loopOpts := agent.DefaultOptions()
	if maxIterations > 0 {
		loopOpts.MaxIterations = maxIterations
	} else if cfg.Agent.MaxIterations > 0 {
		loopOpts.MaxIterations = cfg.Agent.MaxIterations
	}
	loop := agent.NewLoop(client, segmenter, search.NewOrchestrator(nil), &loopOpts)

	return &stack{
		client:    client,
		cache:     segCache,
		segmenter: segmenter,
		loop:      loop,
	}, nil
}

// resolveModelName applies the --model override to the configured
// completion model. Every consumer of the model name goes through
// here so stacks and reports always agree on which model ran.
func resolveModelName() string {
	if modelName != "" {
		return modelName
	}
	return config.Global.Model.Name
}

// buildStore picks the persistence backend for the segmentation cache.
func buildStore(cfg config.CacheConfig) (cache.Store, error) {
	dir := config.ExpandPath(cfg.Dir)
	switch cfg.Backend {
	case "badger":
		return cache.NewBadgerStore(filepath.Join(dir, "badger"))
	case "file", "":
		return cache.NewFileStore(filepath.Join(dir, "segments.json"))
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// judgeClient builds the evaluation model client, falling back to the
// main model when no judge model is configured.
func judgeClient() (llm.CompletionClient, error) {
	opts := llm.DefaultOptions()
	if config.Global.Judge.Name != "" {
		opts.Model = config.Global.Judge.Name
	} else {
		opts.Model = resolveModelName()
	}
	if config.Global.Model.BaseURL != "" {
		opts.BaseURL = config.Global.Model.BaseURL
	}
	return llm.NewOpenAIClient(opts)
}

func (s *stack) close() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			logger.Warn("closing cache", "error", err)
		}
	}
}
