// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/session"
	"github.com/pdiddy/review-engine/pkg/types"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage review sessions (new, list, show, delete, reset)",
	Long: `Session manages the review sessions stored in the local database.
Each session tracks one literature review from plan to finish.`,
}

// --- new subcommand ---

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new review session at the plan stage",
	RunE:  runSessionNew,
}

func runSessionNew(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	ctx := context.Background()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	reviewType, _ := cmd.Flags().GetString("type")
	s := session.New(uuid.NewString(), types.ParseReviewType(reviewType))
	if err := st.SaveSession(ctx, s); err != nil {
		return err
	}

	fmt.Printf("Created session %s (%s review) at stage %s\n", s.ID, s.ReviewType, s.Stage)
	return nil
}

// --- list subcommand ---

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List review sessions, most recently updated first",
	RunE:  runSessionList,
}

func runSessionList(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	summaries, err := st.ListSessions(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-38s  %-10s  %-11s  %-6s  %s\n",
		"ID", "Type", "Stage", "Papers", "Topic")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, s := range summaries {
		topic := s.Topic
		if len(topic) > 40 {
			topic = topic[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-38s  %-10s  %-11s  %-6d  %s\n",
			s.ID, s.ReviewType, s.Stage, s.Papers, topic)
	}
	fmt.Fprintf(os.Stdout, "\n%d sessions\n", len(summaries))
	return nil
}

// --- show subcommand ---

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's stage, papers, and screening counts",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := st.GetSession(context.Background(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	printSession(s)
	return nil
}

func printSession(s types.ReviewSession) {
	fmt.Printf("Session:     %s\n", s.ID)
	fmt.Printf("Type:        %s\n", s.ReviewType)
	fmt.Printf("Stage:       %s\n", s.Stage)
	if s.Topic != "" {
		fmt.Printf("Topic:       %s\n", s.Topic)
	}
	if s.Question != "" {
		fmt.Printf("Question:    %s\n", s.Question)
	}
	fmt.Printf("Screening:   identified %d, screened %d, excluded %d, included %d\n",
		s.Metrics.Identified, s.Metrics.Screened, s.Metrics.Excluded, s.Metrics.Included)

	if len(s.Papers) > 0 {
		fmt.Println("\nPapers:")
		for i, p := range s.Papers {
			captured := " "
			if p.Captured != nil {
				captured = "*"
			}
			fmt.Printf("  %2d. [%s] %s  %s", i+1, p.ID, captured, p.Title)
			if p.Year > 0 {
				fmt.Printf(" (%d)", p.Year)
			}
			fmt.Println()
		}
		fmt.Println("\n  * = details captured")
	}
}

// --- delete subcommand ---

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its papers",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDelete,
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteSession(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s\n", args[0])
	return nil
}

// --- reset subcommand ---

var sessionResetCmd = &cobra.Command{
	Use:   "reset <session-id>",
	Short: "Return a session to the plan stage, discarding papers and drafts",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionReset,
}

func runSessionReset(cmd *cobra.Command, args []string) error {
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
	s, err = session.Apply(s, session.Reset{})
	if err != nil {
		return err
	}
	if err := st.SaveSession(ctx, s); err != nil {
		return err
	}

	fmt.Printf("Session %s reset to stage %s\n", s.ID, s.Stage)
	return nil
}

func init() {
	sessionNewCmd.Flags().String("type", "slr", "review type: slr, scoping, or narrative")
	sessionListCmd.Flags().Bool("json", false, "output sessions as JSON")
	sessionShowCmd.Flags().Bool("json", false, "output the session as JSON")

	sessionCmd.AddCommand(sessionNewCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	sessionCmd.AddCommand(sessionResetCmd)

	rootCmd.AddCommand(sessionCmd)
}
