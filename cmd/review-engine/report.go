// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/export"
	"github.com/pdiddy/review-engine/internal/report"
)

// --- report subcommand ---

var reportCmd = &cobra.Command{
	Use:   "report <session-id>",
	Short: "Show the parsed report sections for a session",
	Long: `Report parses the session's draft into the eight template sections.
Sections the draft does not contain show a placeholder. The parsed report is
derived on demand; only the draft text is stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
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
	rep := report.Parse(s.Draft)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	for _, sec := range rep.Sections() {
		fmt.Println(sec.Label)
		fmt.Println(strings.Repeat("-", len(sec.Label)))
		fmt.Println(sec.Body)
		fmt.Println()
	}
	if !rep.Complete() {
		fmt.Fprintf(os.Stderr, "Missing sections: %s\n", strings.Join(rep.Missing, ", "))
	}
	return nil
}

// --- export subcommand ---

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a review as text and HTML files",
	Long: `Export writes the review to the configured output directory as a
plain-text file, an HTML document, and a YAML file, named by session ID.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
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

	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		outputDir = cfg.Export.OutputDir
	}

	paths, err := export.WriteFiles(s, report.Parse(s.Draft), outputDir)
	if err != nil {
		return err
	}

	for _, path := range paths {
		fmt.Printf("Exported %s\n", path)
	}
	return nil
}

func init() {
	reportCmd.Flags().Bool("json", false, "output the report as JSON")
	exportCmd.Flags().String("output-dir", "", "export directory (default from config)")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
}
