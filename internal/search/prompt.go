// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"text/template"

	"google.golang.org/genai"

	"github.com/pdiddy/review-engine/internal/gemini"
	"github.com/pdiddy/review-engine/pkg/types"
)

// reviewTypeInstructions adjusts the search framing per methodology.
var reviewTypeInstructions = map[types.ReviewType]string{
	types.ReviewSLR:       "Apply systematic-review rigor: prefer peer-reviewed empirical studies with explicit methodology.",
	types.ReviewScoping:   "Cast a wide net: include conceptual papers, reports, and emerging work to map the breadth of the field.",
	types.ReviewNarrative: "Prefer influential and frequently cited works that tell the story of the field.",
}

// searchPromptTmpl is the grounded-search prompt. It asks for recent
// academic publications on the research question and relies on web-search
// grounding for citations.
var searchPromptTmpl = template.Must(template.New("search").Parse(`You are an academic literature-search assistant. Find published academic papers relevant to the following research question.

Research question:
{{.Question}}

{{.TypeInstruction}}
{{if .AlsoConsider}}
Also consider: {{.AlsoConsider}}
{{end}}
For each paper, state its full title, publication year, and journal or venue on its own line. Only include real, verifiable publications.`))

// metadataPromptTmpl asks for structured bibliographic metadata extracted
// from a grounded search response.
var metadataPromptTmpl = template.Must(template.New("metadata").Parse(`Extract every academic paper mentioned in the following literature-search notes. For each paper report its exact title, four-digit publication year (0 if not stated), and journal or venue ("" if not stated). Do not invent papers that are not in the notes.

Notes:
{{.Text}}`))

// metadataSchema constrains the metadata response to a papers array.
var metadataSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"papers": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":   {Type: genai.TypeString},
					"year":    {Type: genai.TypeInteger},
					"journal": {Type: genai.TypeString},
				},
				Required: []string{"title"},
			},
		},
	},
	Required: []string{"papers"},
}

// metadataResponse mirrors metadataSchema.
type metadataResponse struct {
	Papers []struct {
		Title   string `json:"title"`
		Year    int    `json:"year"`
		Journal string `json:"journal"`
	} `json:"papers"`
}

// renderSearchPrompt executes the search prompt template for a query.
func renderSearchPrompt(q Query) (string, error) {
	instruction, ok := reviewTypeInstructions[q.ReviewType]
	if !ok {
		instruction = reviewTypeInstructions[types.ReviewNarrative]
	}

	var buf bytes.Buffer
	err := searchPromptTmpl.Execute(&buf, struct {
		Question        string
		TypeInstruction string
		AlsoConsider    string
	}{q.Question, instruction, q.AlsoConsider})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractMetadata runs the schema-constrained metadata call over the
// grounded text and converts the payload into papers.
func extractMetadata(ctx context.Context, collab gemini.Collaborator, groundedText string) ([]types.Paper, error) {
	var buf bytes.Buffer
	if err := metadataPromptTmpl.Execute(&buf, struct{ Text string }{groundedText}); err != nil {
		return nil, err
	}

	raw, err := collab.GenerateJSON(ctx, buf.String(), metadataSchema)
	if err != nil {
		return nil, err
	}

	var resp metadataResponse
	if err := gemini.DecodeJSON(raw, &resp); err != nil {
		return nil, err
	}

	papers := make([]types.Paper, 0, len(resp.Papers))
	for _, p := range resp.Papers {
		if p.Title == "" {
			continue
		}
		papers = append(papers, types.Paper{
			Title:   p.Title,
			Year:    p.Year,
			Journal: p.Journal,
		})
	}
	return papers, nil
}
