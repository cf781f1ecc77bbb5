// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Paper is a candidate publication attached to a review session. Papers
// enter the session from grounded search results; captured details are
// attached later by the extraction stage.
type Paper struct {
	// ID is a slug derived from the normalized title, stable across
	// re-searches of the same result.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title as returned by the search collaborator.
	Title string `json:"title" yaml:"title"`

	// Year is the publication year, or zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Journal is the journal or venue name, when known.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// URL is the grounding-chunk source link for the paper.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Captured holds extraction output for this paper. Nil until the
	// extraction stage has processed it.
	Captured *CapturedDetails `json:"captured,omitempty" yaml:"captured,omitempty"`
}

// CapturedDetails is the structured extraction result for one paper.
type CapturedDetails struct {
	// Methodology summarizes the study design.
	Methodology string `json:"methodology" yaml:"methodology"`

	// Findings lists the key findings in source order.
	Findings []string `json:"findings" yaml:"findings"`

	// Citation is a formatted citation string for the paper.
	Citation string `json:"citation" yaml:"citation"`

	// RelevanceScore is a value between 0.0 and 1.0 indicating relevance
	// to the research question.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}
