// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search finds candidate papers for a review session through a
// grounded generation call. Grounding chunks supply the paper list; a
// follow-up schema-constrained call fills in bibliographic metadata.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/pdiddy/review-engine/internal/gemini"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Query holds the outbound search parameters: the research question, the
// review methodology, and an optional free-text addendum folded into the
// prompt.
type Query struct {
	Question     string
	ReviewType   types.ReviewType
	AlsoConsider string
}

// IsEmpty reports whether the query contains no searchable question.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Question) == ""
}

// Output holds the assembled paper list and screening counts.
type Output struct {
	Papers      []types.Paper
	Metrics     types.Metrics
	DupsRemoved int
}

// Run executes the literature search: one grounded call for candidates,
// one schema call for metadata, merged by normalized title. Progress and
// warnings go to w.
func Run(ctx context.Context, collab gemini.Collaborator, q Query, cfg types.SearchConfig, w io.Writer) (Output, error) {
	if q.IsEmpty() {
		return Output{}, fmt.Errorf("query is empty: provide a research question")
	}

	prompt, err := renderSearchPrompt(q)
	if err != nil {
		return Output{}, fmt.Errorf("rendering search prompt: %w", err)
	}

	grounded, err := collab.GenerateGrounded(ctx, prompt)
	if err != nil {
		return Output{}, fmt.Errorf("grounded search: %w", err)
	}

	candidates := papersFromChunks(grounded.Chunks)

	// Enrich with bibliographic metadata pulled from the grounded text.
	// A malformed payload degrades to the chunk-only list.
	meta, err := extractMetadata(ctx, collab, grounded.Text)
	if err != nil {
		fmt.Fprintf(w, "warning: metadata extraction failed, using grounding chunks only: %v\n", err)
	}
	candidates = append(candidates, meta...)

	identified := len(candidates)
	deduped, removed := deduplicate(candidates)
	screened := len(deduped)

	if cfg.MaxResults > 0 && len(deduped) > cfg.MaxResults {
		deduped = deduped[:cfg.MaxResults]
	}

	for i := range deduped {
		deduped[i].ID = paperID(deduped[i].Title)
	}

	return Output{
		Papers: deduped,
		Metrics: types.Metrics{
			Identified: identified,
			Screened:   screened,
			Excluded:   screened - len(deduped),
			Included:   len(deduped),
		},
		DupsRemoved: removed,
	}, nil
}

// papersFromChunks converts grounding chunks into bare papers. Chunks
// without a title are skipped; the URI alone cannot seed a paper record.
func papersFromChunks(chunks []gemini.GroundingChunk) []types.Paper {
	var papers []types.Paper
	for _, c := range chunks {
		if strings.TrimSpace(c.Title) == "" {
			continue
		}
		papers = append(papers, types.Paper{
			Title: strings.TrimSpace(c.Title),
			URL:   c.URI,
		})
	}
	return papers
}

// deduplicate merges papers that share a normalized title. The first
// occurrence is kept; later duplicates fill its empty fields.
func deduplicate(papers []types.Paper) ([]types.Paper, int) {
	seen := make(map[string]int)
	var deduped []types.Paper
	removed := 0

	for _, p := range papers {
		key := normalizeTitle(p.Title)
		if key == "" {
			continue
		}
		if idx, ok := seen[key]; ok {
			mergeInto(&deduped[idx], p)
			removed++
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, p)
	}
	return deduped, removed
}

// mergeInto fills empty fields of dst from src.
func mergeInto(dst *types.Paper, src types.Paper) {
	if dst.Year == 0 && src.Year != 0 {
		dst.Year = src.Year
	}
	if dst.Journal == "" && src.Journal != "" {
		dst.Journal = src.Journal
	}
	if dst.URL == "" && src.URL != "" {
		dst.URL = src.URL
	}
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// paperID derives a stable slug from the normalized title: the first 12
// hex characters of its SHA-256.
func paperID(title string) string {
	h := sha256.Sum256([]byte(normalizeTitle(title)))
	return fmt.Sprintf("%x", h)[:12]
}

// FormatTable writes papers as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Papers) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-14s  %-50s  %-4s  %s\n", "Rank", "ID", "Title", "Year", "Journal")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, p := range out.Papers {
		title := p.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		year := ""
		if p.Year > 0 {
			year = fmt.Sprintf("%d", p.Year)
		}
		fmt.Fprintf(w, "%-4d  %-14s  %-50s  %-4s  %s\n", i+1, p.ID, title, year, p.Journal)
	}

	fmt.Fprintf(w, "\n%d papers included", len(out.Papers))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintf(w, "; identified %d, screened %d\n", out.Metrics.Identified, out.Metrics.Screened)
}

// FormatJSON writes papers as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Papers)
}
