// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"bytes"
	"fmt"
	"text/template"

	"google.golang.org/genai"

	"github.com/pdiddy/review-engine/internal/report"
	"github.com/pdiddy/review-engine/pkg/types"
)

// capturePromptTmpl asks for structured details about one paper in the
// context of the research question.
var capturePromptTmpl = template.Must(template.New("capture").Parse(`You are assisting with an academic literature review on the following research question:

{{.Question}}

Summarize the paper below for the review. Report:
- methodology: the study design and methods, in one or two sentences
- findings: the key findings, each as one short sentence
- citation: an APA-style citation for the paper
- relevance_score: a float between 0.0 and 1.0 for relevance to the research question

Paper:
Title: {{.Title}}{{if .Year}}
Year: {{.Year}}{{end}}{{if .Journal}}
Journal: {{.Journal}}{{end}}{{if .URL}}
Source: {{.URL}}{{end}}`))

// captureSchema constrains the capture response.
var captureSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"methodology":     {Type: genai.TypeString},
		"findings":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"citation":        {Type: genai.TypeString},
		"relevance_score": {Type: genai.TypeNumber},
	},
	Required: []string{"methodology", "findings", "citation", "relevance_score"},
}

// fallbackDetails is substituted when a capture payload cannot be decoded.
func fallbackDetails() types.CapturedDetails {
	return types.CapturedDetails{
		Methodology: "Not captured.",
		Findings:    []string{"Not captured."},
		Citation:    "Not captured.",
	}
}

// synthesisPromptTmpl asks for a cross-paper synthesis over the captured
// details.
var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`You are assisting with an academic literature review ({{.ReviewType}}) on the following research question:

{{.Question}}

Write a synthesis of the papers below: identify the shared themes, points of disagreement, and gaps in the literature. Write flowing academic prose, not a list. Do not use markdown formatting.

Papers:
{{range .Papers}}- {{.Title}}{{if .Year}} ({{.Year}}){{end}}{{if .Journal}}, {{.Journal}}{{end}}
{{- if .Captured}}
  Methodology: {{.Captured.Methodology}}
  Findings:{{range .Captured.Findings}} {{.}};{{end}}
{{- end}}
{{end}}`))

// draftPromptTmpl asks for the full report draft in the eight-section
// labeled template the report parser expects.
var draftPromptTmpl = template.Must(template.New("draft").Parse(`You are writing an academic literature review ({{.ReviewType}}) on the research question:

{{.Question}}

Using the synthesis below, write the complete review. Structure the document with exactly these labeled sections, each starting with its label in square brackets on its own line, in this order:

{{range .Labels}}[{{.}}]
{{end}}
Write substantive content under every label. Cite the papers in the references section. Do not use markdown formatting.

Synthesis:
{{.Synthesis}}

Papers:
{{range .Papers}}- {{.Title}}{{if .Year}} ({{.Year}}){{end}}{{if .Captured}}. {{.Captured.Citation}}{{end}}
{{end}}`))

// renderCapturePrompt builds the capture prompt for one paper.
func renderCapturePrompt(s types.ReviewSession, p types.Paper) (string, error) {
	var buf bytes.Buffer
	err := capturePromptTmpl.Execute(&buf, struct {
		Question string
		types.Paper
	}{s.Question, p})
	if err != nil {
		return "", fmt.Errorf("rendering capture prompt: %w", err)
	}
	return buf.String(), nil
}

// renderSynthesisPrompt builds the synthesis prompt for a session.
func renderSynthesisPrompt(s types.ReviewSession) (string, error) {
	var buf bytes.Buffer
	err := synthesisPromptTmpl.Execute(&buf, struct {
		ReviewType types.ReviewType
		Question   string
		Papers     []types.Paper
	}{s.ReviewType, s.Question, s.Papers})
	if err != nil {
		return "", fmt.Errorf("rendering synthesis prompt: %w", err)
	}
	return buf.String(), nil
}

// renderDraftPrompt builds the report-draft prompt for a session.
func renderDraftPrompt(s types.ReviewSession) (string, error) {
	var buf bytes.Buffer
	err := draftPromptTmpl.Execute(&buf, struct {
		ReviewType types.ReviewType
		Question   string
		Synthesis  string
		Papers     []types.Paper
		Labels     []string
	}{s.ReviewType, s.Question, s.Synthesis, s.Papers, report.Labels})
	if err != nil {
		return "", fmt.Errorf("rendering draft prompt: %w", err)
	}
	return buf.String(), nil
}
