// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/internal/session"
)

// --- ask subcommand ---

var askCmd = &cobra.Command{
	Use:   "ask <session-id> <question>",
	Short: "Submit the research question and run the grounded literature search",
	Long: `Ask records the research question, advances the session to the search
stage, and runs a web-grounded collaborator call. Grounding citations become
candidate papers: they are deduplicated by normalized title, enriched with
metadata through a schema-constrained call, and capped at the configured
maximum. The session advances to extract when the search resolves.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	ctx := context.Background()

	engine, st, err := newEngine(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer st.Close()

	alsoConsider, _ := cmd.Flags().GetString("also-consider")
	question := strings.Join(args[1:], " ")

	s, err := engine.SubmitQuestion(ctx, args[0], question, alsoConsider)
	if err != nil {
		return err
	}

	out := search.Output{Papers: s.Papers, Metrics: s.Metrics}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(out, os.Stdout)
	}
	search.FormatTable(out, os.Stdout)
	return nil
}

// --- capture subcommand ---

var captureCmd = &cobra.Command{
	Use:   "capture <session-id> [paper-id]",
	Short: "Capture structured details for one paper, or all uncaptured papers",
	Long: `Capture runs a schema-constrained collaborator call per paper to extract
its methodology, key findings, citation, and relevance score. With a paper ID
it captures that paper; without one it captures every paper that has no
details yet. A malformed response degrades to placeholder details rather
than failing the capture.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCapture,
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	ctx := context.Background()

	engine, st, err := newEngine(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 2 {
		sess, err := engine.CapturePaper(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		p := sess.Paper(args[1])
		if p != nil && p.Captured != nil {
			fmt.Printf("Captured %s: %s\n", p.ID, p.Captured.Methodology)
			for _, f := range p.Captured.Findings {
				fmt.Printf("  - %s\n", f)
			}
		}
		return nil
	}

	sess, err := engine.CaptureAll(ctx, args[0])
	if err != nil {
		return err
	}
	captured := 0
	for _, p := range sess.Papers {
		if p.Captured != nil {
			captured++
		}
	}
	fmt.Printf("Captured %d of %d papers\n", captured, len(sess.Papers))
	return nil
}

// --- synthesize subcommand ---

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize <session-id>",
	Short: "Generate the cross-paper synthesis",
	Long: `Synthesize generates a synthesis of the captured findings across all
papers and advances the session to the synthesize stage. The session must
hold at least one paper.`,
	Args: cobra.ExactArgs(1),
	RunE: runSynthesize,
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	ctx := context.Background()

	engine, st, err := newEngine(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := engine.Synthesize(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Println(s.Synthesis)
	return nil
}

// --- write subcommand ---

var writeCmd = &cobra.Command{
	Use:   "write <session-id>",
	Short: "Generate the structured report draft",
	Long: `Write generates the full report draft with its eight labeled sections
and advances the session to the write stage. Use the report subcommand to
view the parsed sections.`,
	Args: cobra.ExactArgs(1),
	RunE: runWrite,
}

func runWrite(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	ctx := context.Background()

	engine, st, err := newEngine(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := engine.WriteDraft(ctx, args[0])
	if err != nil {
		return err
	}

	rep := engine.Report(s)
	if !rep.Complete() {
		fmt.Fprintf(os.Stderr, "warning: draft is missing sections: %s\n",
			strings.Join(rep.Missing, ", "))
	}
	fmt.Printf("Draft written for session %s (%d characters)\n", s.ID, len(s.Draft))
	return nil
}

// --- finalize subcommand ---

var finalizeCmd = &cobra.Command{
	Use:   "finalize <session-id>",
	Short: "Mark the review finished",
	Args:  cobra.ExactArgs(1),
	RunE:  runFinalize,
}

func runFinalize(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	ctx := context.Background()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := st.GetSession(ctx, args[0])
	if err != nil {
		return err
	}
	s, err = session.Apply(s, session.Finalize{})
	if err != nil {
		return err
	}
	if err := st.SaveSession(ctx, s); err != nil {
		return err
	}

	fmt.Printf("Session %s finished\n", s.ID)
	return nil
}

func init() {
	askCmd.Flags().String("also-consider", "", "extra guidance folded into the search prompt")
	askCmd.Flags().Bool("json", false, "output included papers as JSON")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(synthesizeCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(finalizeCmd)
}
