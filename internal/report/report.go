// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report extracts the eight fixed sections of the review template
// from a generated draft. Parsing is pure: the same draft always yields the
// same Report, and absent sections degrade to a sentinel instead of failing.
package report

import (
	"regexp"
	"strings"
)

// Sentinel is the body used for any section whose label is absent from the draft.
const Sentinel = "Content not generated."

// Labels lists the section labels in template order. The draft marks each
// section as "[LABEL] body"; matching is case-insensitive and tolerant of
// reordering.
var Labels = []string{
	"TAJUK",
	"ABSTRAK",
	"PENGENALAN",
	"METODOLOGI",
	"DAPATAN",
	"PERBINCANGAN",
	"KESIMPULAN",
	"RUJUKAN",
}

// labelPattern matches any recognized section delimiter, e.g. "[TAJUK]" or
// "[ metodologi ]".
var labelPattern = regexp.MustCompile(`(?i)\[\s*(` + strings.Join(Labels, "|") + `)\s*\]`)

// Report is the fixed-shape result of parsing a draft: one body per
// template section, plus the list of labels that were not found.
type Report struct {
	Tajuk        string `json:"tajuk" yaml:"tajuk"`
	Abstrak      string `json:"abstrak" yaml:"abstrak"`
	Pengenalan   string `json:"pengenalan" yaml:"pengenalan"`
	Metodologi   string `json:"metodologi" yaml:"metodologi"`
	Dapatan      string `json:"dapatan" yaml:"dapatan"`
	Perbincangan string `json:"perbincangan" yaml:"perbincangan"`
	Kesimpulan   string `json:"kesimpulan" yaml:"kesimpulan"`
	Rujukan      string `json:"rujukan" yaml:"rujukan"`

	// Missing lists the labels that were absent from the draft, in
	// template order. Their fields hold Sentinel.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Section pairs a template label with its parsed body.
type Section struct {
	Label string `json:"label" yaml:"label"`
	Body  string `json:"body" yaml:"body"`
}

// Parse scans the draft for the eight labeled sections. Each body runs from
// its delimiter to the next recognized delimiter or end of input. The first
// occurrence of a label is authoritative; later duplicates only terminate
// the preceding section.
func Parse(draft string) Report {
	bodies := make(map[string]string, len(Labels))

	matches := labelPattern.FindAllStringSubmatchIndex(draft, -1)
	for i, m := range matches {
		label := strings.ToUpper(draft[m[2]:m[3]])
		if _, seen := bodies[label]; seen {
			continue
		}
		end := len(draft)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		bodies[label] = strings.TrimSpace(draft[m[1]:end])
	}

	var r Report
	for _, label := range Labels {
		body, ok := bodies[label]
		if !ok || body == "" {
			body = Sentinel
			r.Missing = append(r.Missing, label)
		}
		*r.field(label) = body
	}
	return r
}

// Sections returns the parsed bodies in template order.
func (r *Report) Sections() []Section {
	sections := make([]Section, len(Labels))
	for i, label := range Labels {
		sections[i] = Section{Label: label, Body: *r.field(label)}
	}
	return sections
}

// Complete reports whether every section was found in the draft.
func (r *Report) Complete() bool {
	return len(r.Missing) == 0
}

func (r *Report) field(label string) *string {
	switch label {
	case "TAJUK":
		return &r.Tajuk
	case "ABSTRAK":
		return &r.Abstrak
	case "PENGENALAN":
		return &r.Pengenalan
	case "METODOLOGI":
		return &r.Metodologi
	case "DAPATAN":
		return &r.Dapatan
	case "PERBINCANGAN":
		return &r.Perbincangan
	case "KESIMPULAN":
		return &r.Kesimpulan
	case "RUJUKAN":
		return &r.Rujukan
	}
	panic("report: unknown label " + label)
}
