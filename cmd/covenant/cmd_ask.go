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

// runAskCommand answers one question about one document and prints
// the answer on stdout.
func runAskCommand(cmd *cobra.Command, args []string) error {
	docPath, question := args[0], args[1]

	doc, err := document.Load(docPath)
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

	answer, err := s.loop.Run(ctx, question, doc)
	if err != nil {
		return err
	}

	fmt.Println(answer.AnswerText)
	fmt.Printf("\n[verdict: %s, iterations: %d]\n", answer.CoverageVerdict, answer.IterationsUsed)

	if showEvidence {
		for _, item := range answer.Evidence {
			fmt.Printf("- %s (lines %d-%d, %s pass)\n", item.SectionTitle, item.StartLine, item.EndLine, item.Pass)
		}
	}
	return nil
}
