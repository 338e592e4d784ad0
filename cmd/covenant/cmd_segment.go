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
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/covenant/services/navigator/document"
)

// runSegmentCommand prints a document's section outline. Repeated runs
// on unchanged content hit the cache and never call the model again.
func runSegmentCommand(cmd *cobra.Command, args []string) error {
	doc, err := document.Load(args[0])
	if err != nil {
		return err
	}

	s, err := buildStack()
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	forest := s.segmenter.Segment(ctx, doc)
	fmt.Printf("%s (%d lines, hash %s)\n\n", doc.Name, doc.LineCount(), doc.ContentHash()[:12])
	fmt.Println(forest.Outline())
	if forest.Fallback {
		fmt.Println("(section detection unavailable; showing the whole-document fallback)")
	}

	stats := s.cache.Stats()
	fmt.Printf("\n[cache: %d hits, %d misses, %d computes]\n", stats.Hits, stats.Misses, stats.Computes)
	return nil
}
