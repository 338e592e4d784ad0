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
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/covenant/cmd/covenant/config"
	"github.com/AleutianAI/covenant/services/navigator/agent"
	"github.com/AleutianAI/covenant/services/navigator/dataset"
	"github.com/AleutianAI/covenant/services/navigator/document"
	"github.com/AleutianAI/covenant/services/navigator/eval"
	"github.com/AleutianAI/covenant/services/navigator/report"
)

// runBatchCommand runs every question of a dataset against one
// document, optionally judges the answers, and writes a JSON report.
//
// Questions run through a bounded worker pool. Each loop run keeps its
// own iteration state while all of them share the segmentation cache,
// so a fresh document is segmented exactly once no matter how many
// workers hit it first. Answers land in the report in dataset order
// regardless of completion order.
func runBatchCommand(cmd *cobra.Command, args []string) error {
	docPath, qaPath := args[0], args[1]

	doc, err := document.Load(docPath)
	if err != nil {
		return err
	}
	pairs, err := dataset.Load(qaPath)
	if err != nil {
		return err
	}
	if limit > 0 && limit < len(pairs) {
		pairs = pairs[:limit]
	}

	s, err := buildStack()
	if err != nil {
		return err
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rep := report.New(doc.Name, resolveModelName())
	var judge *eval.Judge
	if evaluate {
		jc, err := judgeClient()
		if err != nil {
			return fmt.Errorf("building judge client: %w", err)
		}
		judge = eval.NewJudge(jc)
	}

	answers := make([]*agent.Answer, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	workers := concurrency
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, pair := range pairs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			fmt.Printf("[%d/%d] %s\n", i+1, len(pairs), pair.Question)

			answer, err := s.loop.Run(gctx, pair.Question, doc)
			if err != nil {
				return fmt.Errorf("question %s: %w", pair.ID, err)
			}
			answers[i] = answer
			fmt.Printf("  [%s] -> %s (%s)\n", pair.ID, firstLine(answer.AnswerText), answer.CoverageVerdict)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() == nil {
			return err
		}
		logger.Warn("Batch interrupted", "total", len(pairs))
	}

	for _, a := range answers {
		if a != nil {
			rep.Add(*a)
		}
	}

	if judge != nil {
		var judged []eval.Result
		for i, pair := range pairs {
			if ctx.Err() != nil {
				break
			}
			answer := answers[i]
			if answer == nil {
				continue
			}
			result, err := judge.Evaluate(ctx, pair, answer.AnswerText)
			if err != nil {
				logger.Warn("Judging failed", "question_id", pair.ID, "error", err)
				continue
			}
			judged = append(judged, *result)
			fmt.Printf("[%s] == %s (%s confidence)\n", pair.ID, result.Grade, result.Confidence)

			// Point at the ground-truth location so a miss is easy to
			// inspect by hand.
			if result.Grade == eval.GradeIncorrect && len(pair.Answers) > 0 {
				if line, ok := pair.Answers[0].Locate(doc.Raw()); ok {
					fmt.Printf("     expected near line %d: %s\n", line, firstLine(pair.Answers[0].Text))
				}
			}
		}
		summary := eval.Summarize(judged)
		rep.Evaluation = &summary
		fmt.Printf("\nAccuracy: %.1f%% (strict %.1f%%) over %d questions\n",
			summary.Accuracy*100, summary.StrictAccuracy*100, summary.TotalQuestions)
	}

	dir := reportDir
	if dir == "" {
		dir = config.ExpandPath(config.Global.Reports.Dir)
	}
	path, err := rep.Write(dir)
	if err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", path)
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
