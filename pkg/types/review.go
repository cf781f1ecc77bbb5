// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the review-engine
// workflow: the review session, its stage enum, papers with captured
// details, and per-component configuration.
package types

import "time"

// Stage identifies one of the six ordered phases of a literature-review
// session. Stages only move forward; an explicit reset returns to StagePlan.
type Stage int

const (
	StagePlan Stage = iota + 1
	StageSearch
	StageExtract
	StageSynthesize
	StageWrite
	StageFinish
)

// stageNames maps stages to their display names.
var stageNames = map[Stage]string{
	StagePlan:       "plan",
	StageSearch:     "search",
	StageExtract:    "extract",
	StageSynthesize: "synthesize",
	StageWrite:      "write",
	StageFinish:     "finish",
}

// String returns the lowercase stage name, or "unknown" for out-of-range values.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether the stage lies in [StagePlan, StageFinish].
func (s Stage) Valid() bool {
	return s >= StagePlan && s <= StageFinish
}

// ReviewType classifies the literature-review methodology.
type ReviewType string

const (
	ReviewSLR       ReviewType = "slr"
	ReviewScoping   ReviewType = "scoping"
	ReviewNarrative ReviewType = "narrative"
)

// ParseReviewType normalizes a review-type string. Unrecognized values
// default to ReviewNarrative.
func ParseReviewType(s string) ReviewType {
	switch ReviewType(s) {
	case ReviewSLR, ReviewScoping, ReviewNarrative:
		return ReviewType(s)
	}
	return ReviewNarrative
}

// Metrics holds the screening counts reported for a review session,
// following the PRISMA flow: papers identified by search, screened after
// deduplication, excluded by the result cap, and included in the review.
type Metrics struct {
	Identified int `json:"identified" yaml:"identified"`
	Screened   int `json:"screened" yaml:"screened"`
	Excluded   int `json:"excluded" yaml:"excluded"`
	Included   int `json:"included" yaml:"included"`
}

// ReviewSession is the unit of work for one literature review. It is
// created at StagePlan, advanced by the session engine, and cleared by an
// explicit reset. Papers are append/update-only within a session.
type ReviewSession struct {
	// ID is a unique session identifier.
	ID string `json:"id" yaml:"id"`

	// Topic is the research topic, set from the submitted question.
	Topic string `json:"topic" yaml:"topic"`

	// ReviewType selects the review methodology: slr, scoping, or narrative.
	ReviewType ReviewType `json:"review_type" yaml:"review_type"`

	// Question is the submitted research question.
	Question string `json:"question" yaml:"question"`

	// AlsoConsider is an optional free-text addendum folded into the
	// search prompt.
	AlsoConsider string `json:"also_consider,omitempty" yaml:"also_consider,omitempty"`

	// Stage is the current workflow stage, in [1,6].
	Stage Stage `json:"stage" yaml:"stage"`

	// Papers lists candidate papers in search-result order.
	Papers []Paper `json:"papers" yaml:"papers"`

	// Metrics holds the screening counts from the search stage.
	Metrics Metrics `json:"metrics" yaml:"metrics"`

	// Synthesis is the generated cross-paper synthesis text.
	Synthesis string `json:"synthesis,omitempty" yaml:"synthesis,omitempty"`

	// Draft is the generated report draft containing the labeled sections.
	// The structured report is derived from it on demand and never stored.
	Draft string `json:"draft,omitempty" yaml:"draft,omitempty"`

	// CreatedAt is the session creation time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is the time of the last applied action.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Paper returns a pointer to the paper with the given ID, or nil.
func (s *ReviewSession) Paper(paperID string) *Paper {
	for i := range s.Papers {
		if s.Papers[i].ID == paperID {
			return &s.Papers[i]
		}
	}
	return nil
}
