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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/covenant/cmd/covenant/config"
	"github.com/AleutianAI/covenant/pkg/logging"
)

// --- Global Command Variables ---
var (
	modelName     string
	maxIterations int
	logLevel      string
	showEvidence  bool
	evaluate      bool
	reportDir     string
	limit         int
	concurrency   int

	logger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "covenant",
		Short: "A cli that answers questions about contracts by navigating their structure",
		Long: `Covenant reads long legal documents the way a lawyer does:
				structure first, then targeted sections, then cross-references.
				No embeddings, no vector store - just the document itself.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger = logging.New(logging.Config{
				Level:   logging.ParseLevel(resolveLogLevel()),
				LogDir:  config.ExpandPath(config.Global.Logging.Dir),
				Service: "covenant",
			})
			logger.SetAsDefault()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				logger.Close()
			}
		},
	}

	// --- Ask ---
	askCmd = &cobra.Command{
		Use:   "ask [document] [question]",
		Short: "Asks one question about one document",
		Args:  cobra.ExactArgs(2),
		RunE:  runAskCommand, // Defined in cmd_ask.go
	}

	// --- Batch ---
	batchCmd = &cobra.Command{
		Use:   "batch [document] [qa_pairs.json]",
		Short: "Runs a benchmark dataset against a document, optionally judged",
		Args:  cobra.ExactArgs(2),
		RunE:  runBatchCommand, // Defined in cmd_batch.go
	}

	// --- Segment ---
	segmentCmd = &cobra.Command{
		Use:   "segment [document]",
		Short: "Prints the document's section outline (cached by content hash)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSegmentCommand, // Defined in cmd_segment.go
	}
)

func resolveLogLevel() string {
	if logLevel != "" {
		return logLevel
	}
	return config.Global.Logging.Level
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "Override the completion model")
	rootCmd.PersistentFlags().IntVar(&maxIterations, "max-iterations", 0, "Override the agent iteration cap")

	askCmd.Flags().BoolVar(&showEvidence, "evidence", false, "Print the evidence items with the answer")

	batchCmd.Flags().BoolVar(&evaluate, "evaluate", false, "Judge answers against the dataset's expected answers")
	batchCmd.Flags().StringVar(&reportDir, "report-dir", "", "Override the report output directory")
	batchCmd.Flags().IntVar(&limit, "limit", 0, "Only run the first N questions")
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 4, "Number of questions answered in parallel")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(segmentCmd)
}
