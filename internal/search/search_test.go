package search

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/pdiddy/review-engine/internal/gemini"
	"github.com/pdiddy/review-engine/pkg/types"
)

// --- mock collaborator ---

type mockCollab struct {
	groundedResult gemini.GroundedResult
	groundedErr    error
	jsonPayload    []byte
	jsonErr        error
	groundedCalls  int
	jsonCalls      int
}

func (m *mockCollab) GenerateText(_ context.Context, _ string) (string, error) {
	return "", errors.New("unexpected GenerateText call")
}

func (m *mockCollab) GenerateJSON(_ context.Context, _ string, _ *genai.Schema) ([]byte, error) {
	m.jsonCalls++
	return m.jsonPayload, m.jsonErr
}

func (m *mockCollab) GenerateGrounded(_ context.Context, _ string) (gemini.GroundedResult, error) {
	m.groundedCalls++
	return m.groundedResult, m.groundedErr
}

func testCfg() types.SearchConfig {
	return types.SearchConfig{MaxResults: 10}
}

// --- Query ---

func TestQueryIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  bool
	}{
		{"empty", Query{}, true},
		{"whitespace only", Query{Question: "   "}, true},
		{"question", Query{Question: "spaced repetition"}, false},
		{"addendum alone is empty", Query{AlsoConsider: "include preprints"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunEmptyQuery(t *testing.T) {
	collab := &mockCollab{}
	_, err := Run(context.Background(), collab, Query{}, testCfg(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("Run() with empty query should fail")
	}
	if collab.groundedCalls != 0 || collab.jsonCalls != 0 {
		t.Error("empty query must not reach the collaborator")
	}
}

// --- Deduplication ---

func TestDeduplicateMergesByTitle(t *testing.T) {
	papers := []types.Paper{
		{Title: "Spaced Repetition in Practice", URL: "https://a.example"},
		{Title: "spaced repetition in practice!", Year: 2021, Journal: "J. Learning"},
		{Title: "A Different Paper"},
	}

	deduped, removed := deduplicate(papers)
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(deduped) != 2 {
		t.Fatalf("len(deduped) = %d, want 2", len(deduped))
	}
	// Merged record keeps the URL and picks up year and journal.
	if deduped[0].URL != "https://a.example" {
		t.Errorf("URL = %q", deduped[0].URL)
	}
	if deduped[0].Year != 2021 || deduped[0].Journal != "J. Learning" {
		t.Errorf("merge dropped metadata: %+v", deduped[0])
	}
}

func TestPaperIDStable(t *testing.T) {
	a := paperID("Attention Is All You Need")
	b := paperID("attention is all you need!")
	if a != b {
		t.Errorf("paperID not stable under normalization: %q vs %q", a, b)
	}
	if len(a) != 12 {
		t.Errorf("paperID length = %d, want 12", len(a))
	}
}

// --- Run ---

func TestRunAssemblesPapers(t *testing.T) {
	collab := &mockCollab{
		groundedResult: gemini.GroundedResult{
			Text: "Found two relevant papers.",
			Chunks: []gemini.GroundingChunk{
				{Title: "Paper One", URI: "https://one.example"},
				{Title: "Paper Two", URI: "https://two.example"},
			},
		},
		jsonPayload: []byte(`{"papers": [{"title": "Paper One", "year": 2020, "journal": "J. One"}]}`),
	}

	out, err := Run(context.Background(), collab, Query{Question: "q"}, testCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(out.Papers) != 2 {
		t.Fatalf("len(Papers) = %d, want 2", len(out.Papers))
	}
	if out.Papers[0].Year != 2020 || out.Papers[0].Journal != "J. One" {
		t.Errorf("metadata not merged: %+v", out.Papers[0])
	}
	if out.Papers[0].URL != "https://one.example" {
		t.Errorf("URL lost in merge: %+v", out.Papers[0])
	}
	if out.Papers[0].ID == "" || out.Papers[1].ID == "" {
		t.Error("papers missing IDs")
	}
	if out.Metrics.Identified != 3 || out.Metrics.Included != 2 {
		t.Errorf("metrics = %+v", out.Metrics)
	}
}

func TestRunMetadataFailureDegrades(t *testing.T) {
	var warnings bytes.Buffer
	collab := &mockCollab{
		groundedResult: gemini.GroundedResult{
			Chunks: []gemini.GroundingChunk{{Title: "Only Paper", URI: "https://only.example"}},
		},
		jsonPayload: []byte("not json"),
	}

	out, err := Run(context.Background(), collab, Query{Question: "q"}, testCfg(), &warnings)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out.Papers) != 1 {
		t.Fatalf("len(Papers) = %d, want 1", len(out.Papers))
	}
	if !strings.Contains(warnings.String(), "metadata extraction failed") {
		t.Errorf("expected degradation warning, got %q", warnings.String())
	}
}

func TestRunGroundedFailure(t *testing.T) {
	collab := &mockCollab{groundedErr: errors.New("service unavailable")}

	_, err := Run(context.Background(), collab, Query{Question: "q"}, testCfg(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("Run() should propagate grounded-call failure")
	}
}

func TestRunCapsResults(t *testing.T) {
	chunks := make([]gemini.GroundingChunk, 5)
	for i := range chunks {
		chunks[i] = gemini.GroundingChunk{Title: strings.Repeat("x", i+1)}
	}
	collab := &mockCollab{
		groundedResult: gemini.GroundedResult{Chunks: chunks},
		jsonPayload:    []byte(`{"papers": []}`),
	}

	out, err := Run(context.Background(), collab, Query{Question: "q"}, types.SearchConfig{MaxResults: 3}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out.Papers) != 3 {
		t.Errorf("len(Papers) = %d, want 3", len(out.Papers))
	}
	if out.Metrics.Excluded != 2 {
		t.Errorf("Excluded = %d, want 2", out.Metrics.Excluded)
	}
}

// --- Prompt rendering ---

func TestRenderSearchPrompt(t *testing.T) {
	prompt, err := renderSearchPrompt(Query{
		Question:     "Does spaced repetition improve retention?",
		ReviewType:   types.ReviewSLR,
		AlsoConsider: "include classroom studies",
	})
	if err != nil {
		t.Fatalf("renderSearchPrompt() error = %v", err)
	}
	if !strings.Contains(prompt, "Does spaced repetition improve retention?") {
		t.Error("prompt missing question")
	}
	if !strings.Contains(prompt, "systematic-review rigor") {
		t.Error("prompt missing review-type instruction")
	}
	if !strings.Contains(prompt, "Also consider: include classroom studies") {
		t.Error("prompt missing addendum")
	}
}

func TestRenderSearchPromptOmitsEmptyAddendum(t *testing.T) {
	prompt, err := renderSearchPrompt(Query{Question: "q", ReviewType: types.ReviewNarrative})
	if err != nil {
		t.Fatalf("renderSearchPrompt() error = %v", err)
	}
	if strings.Contains(prompt, "Also consider") {
		t.Error("prompt should omit addendum line when empty")
	}
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(Output{}, &buf)
	if !strings.Contains(buf.String(), "No papers found.") {
		t.Errorf("output = %q", buf.String())
	}
}
