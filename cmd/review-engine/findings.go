// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var findingsCmd = &cobra.Command{
	Use:   "findings <query>",
	Short: "Full-text search across captured paper findings",
	Long: `Findings searches the captured findings and paper titles with FTS5
full-text search, across all sessions or scoped to one with --session.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFindings,
}

func runFindings(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	sessionID, _ := cmd.Flags().GetString("session")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.Store.MaxResults
	}

	matches, err := st.SearchFindings(context.Background(), sessionID, strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	if len(matches) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-38s  %-14s  %s\n", "Rank", "Session", "Paper", "Title")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for i, m := range matches {
		title := m.Paper.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-38s  %-14s  %s\n", i+1, m.SessionID, m.Paper.ID, title)
		if m.Paper.Captured != nil {
			for _, f := range m.Paper.Captured.Findings {
				fmt.Fprintf(os.Stdout, "      - %s\n", f)
			}
		}
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(matches))
	return nil
}

func init() {
	findingsCmd.Flags().String("session", "", "restrict the search to one session ID")
	findingsCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	findingsCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(findingsCmd)
}
