// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders a finished review as plain text or a minimal HTML
// document (paper table plus full text).
package export

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/internal/report"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Text writes the plain-text export of a session to w.
func Text(s types.ReviewSession, r report.Report, w io.Writer) error {
	var b strings.Builder

	b.WriteString("LITERATURE REVIEW\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	fmt.Fprintf(&b, "Topic:       %s\n", s.Topic)
	fmt.Fprintf(&b, "Review type: %s\n", s.ReviewType)
	fmt.Fprintf(&b, "Stage:       %s\n\n", s.Stage)

	fmt.Fprintf(&b, "Screening: identified %d, screened %d, excluded %d, included %d\n\n",
		s.Metrics.Identified, s.Metrics.Screened, s.Metrics.Excluded, s.Metrics.Included)

	if len(s.Papers) > 0 {
		b.WriteString("PAPERS\n")
		b.WriteString(strings.Repeat("-", 60) + "\n")
		for i, p := range s.Papers {
			fmt.Fprintf(&b, "%d. %s", i+1, p.Title)
			if p.Year > 0 {
				fmt.Fprintf(&b, " (%d)", p.Year)
			}
			if p.Journal != "" {
				fmt.Fprintf(&b, ", %s", p.Journal)
			}
			b.WriteString("\n")
			if p.Captured != nil {
				fmt.Fprintf(&b, "   Methodology: %s\n", p.Captured.Methodology)
				for _, f := range p.Captured.Findings {
					fmt.Fprintf(&b, "   - %s\n", f)
				}
			}
		}
		b.WriteString("\n")
	}

	if s.Synthesis != "" {
		b.WriteString("SYNTHESIS\n")
		b.WriteString(strings.Repeat("-", 60) + "\n")
		b.WriteString(s.Synthesis + "\n\n")
	}

	for _, sec := range r.Sections() {
		b.WriteString(sec.Label + "\n")
		b.WriteString(strings.Repeat("-", 60) + "\n")
		b.WriteString(sec.Body + "\n\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// htmlTmpl is the minimal HTML export document: session metadata, a paper
// table, and the full report text.
var htmlTmpl = template.Must(template.New("export").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Session.Topic}}</title>
</head>
<body>
<h1>{{.Session.Topic}}</h1>
<p>Review type: {{.Session.ReviewType}}. Identified {{.Session.Metrics.Identified}}, screened {{.Session.Metrics.Screened}}, excluded {{.Session.Metrics.Excluded}}, included {{.Session.Metrics.Included}}.</p>
<table border="1" cellpadding="4">
<tr><th>#</th><th>Title</th><th>Year</th><th>Journal</th><th>Link</th></tr>
{{range $i, $p := .Session.Papers}}<tr>
<td>{{inc $i}}</td>
<td>{{$p.Title}}</td>
<td>{{if $p.Year}}{{$p.Year}}{{end}}</td>
<td>{{$p.Journal}}</td>
<td>{{if $p.URL}}<a href="{{$p.URL}}">source</a>{{end}}</td>
</tr>
{{end}}</table>
{{range .Sections}}<h2>{{.Label}}</h2>
<p>{{.Body}}</p>
{{end}}</body>
</html>
`))

// HTML writes the HTML export of a session to w.
func HTML(s types.ReviewSession, r report.Report, w io.Writer) error {
	return htmlTmpl.Execute(w, struct {
		Session  types.ReviewSession
		Sections []report.Section
	}{s, r.Sections()})
}

// YAML writes the machine-readable export of a session to w: the full
// session followed by the parsed report.
func YAML(s types.ReviewSession, r report.Report, w io.Writer) error {
	doc := struct {
		Session types.ReviewSession `yaml:"session"`
		Report  report.Report       `yaml:"report"`
	}{s, r}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteFiles writes all export formats into dir, named by session ID.
// It returns the file paths.
func WriteFiles(s types.ReviewSession, r report.Report, dir string) (paths []string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	formats := []struct {
		ext    string
		render func(types.ReviewSession, report.Report, io.Writer) error
	}{
		{".txt", Text},
		{".html", HTML},
		{".yaml", YAML},
	}

	for _, f := range formats {
		path := filepath.Join(dir, s.ID+f.ext)
		file, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", path, err)
		}
		if err := f.render(s, r, file); err != nil {
			file.Close()
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		if err := file.Close(); err != nil {
			return nil, fmt.Errorf("closing %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}
