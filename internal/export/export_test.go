package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/internal/report"
	"github.com/pdiddy/review-engine/pkg/types"
)

func sampleSession() types.ReviewSession {
	return types.ReviewSession{
		ID:         "s1",
		Topic:      "spaced repetition",
		ReviewType: types.ReviewSLR,
		Stage:      types.StageFinish,
		Metrics:    types.Metrics{Identified: 4, Screened: 3, Excluded: 1, Included: 2},
		Papers: []types.Paper{
			{ID: "p1", Title: "Paper One", Year: 2020, Journal: "J. One", URL: "https://one.example"},
			{ID: "p2", Title: "Paper Two", Captured: &types.CapturedDetails{
				Methodology: "RCT",
				Findings:    []string{"improved recall"},
				Citation:    "Smith (2020)",
			}},
		},
		Synthesis: "Both papers point the same way.",
		Draft:     "[TAJUK] A Review [ABSTRAK] Summary of the field",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestTextExport(t *testing.T) {
	s := sampleSession()
	r := report.Parse(s.Draft)

	var buf bytes.Buffer
	if err := Text(s, r, &buf); err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"spaced repetition",
		"identified 4, screened 3, excluded 1, included 2",
		"1. Paper One (2020), J. One",
		"Methodology: RCT",
		"- improved recall",
		"Both papers point the same way.",
		"A Review",
		report.Sentinel, // sections the draft does not contain
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text export missing %q", want)
		}
	}
}

func TestHTMLExport(t *testing.T) {
	s := sampleSession()
	r := report.Parse(s.Draft)

	var buf bytes.Buffer
	if err := HTML(s, r, &buf); err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<table",
		"<td>Paper One</td>",
		`<a href="https://one.example">source</a>`,
		"<h2>TAJUK</h2>",
		"<h2>RUJUKAN</h2>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML export missing %q", want)
		}
	}
}

func TestHTMLExportEscapes(t *testing.T) {
	s := sampleSession()
	s.Papers[0].Title = `<script>alert("x")</script>`
	r := report.Parse(s.Draft)

	var buf bytes.Buffer
	if err := HTML(s, r, &buf); err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if strings.Contains(buf.String(), "<script>alert") {
		t.Error("paper title not escaped in HTML export")
	}
}

func TestYAMLExport(t *testing.T) {
	s := sampleSession()
	r := report.Parse(s.Draft)

	var buf bytes.Buffer
	if err := YAML(s, r, &buf); err != nil {
		t.Fatalf("YAML() error = %v", err)
	}

	var doc struct {
		Session types.ReviewSession `yaml:"session"`
		Report  report.Report       `yaml:"report"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshaling export: %v", err)
	}
	if doc.Session.Topic != "spaced repetition" {
		t.Errorf("Topic = %q, want %q", doc.Session.Topic, "spaced repetition")
	}
	if doc.Report.Tajuk != "A Review" {
		t.Errorf("Tajuk = %q, want %q", doc.Report.Tajuk, "A Review")
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	s := sampleSession()
	r := report.Parse(s.Draft)

	paths, err := WriteFiles(s, r, filepath.Join(dir, "exports"))
	if err != nil {
		t.Fatalf("WriteFiles() error = %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("len(paths) = %d, want 3", len(paths))
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", path)
		}
	}
}
