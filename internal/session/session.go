// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session owns the six-stage review workflow. The stage rules live
// in pure Action transitions over a ReviewSession value, so the invariants
// (monotonic stage, reset semantics, guard conditions) are testable without
// any I/O; the Engine layers collaborator calls and persistence on top.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/review-engine/pkg/types"
)

var (
	// ErrEmptyQuestion is returned when a question submission carries no
	// text. The session is left untouched and no collaborator call is made.
	ErrEmptyQuestion = errors.New("research question is empty")

	// ErrStage is returned when an action is not permitted in the
	// session's current stage.
	ErrStage = errors.New("action not allowed in current stage")

	// ErrNoPapers is returned when synthesis is requested before any
	// search results are present.
	ErrNoPapers = errors.New("no papers in session")

	// ErrUnknownPaper is returned when capture targets a paper ID that is
	// not in the session.
	ErrUnknownPaper = errors.New("paper not found in session")
)

// Action is a named transition applied to a session. Apply returns the
// transitioned copy; the input session is never mutated.
type Action interface {
	apply(s types.ReviewSession) (types.ReviewSession, error)
}

// Apply runs one action against a session and stamps UpdatedAt on success.
func Apply(s types.ReviewSession, a Action) (types.ReviewSession, error) {
	next, err := a.apply(s)
	if err != nil {
		return s, err
	}
	next.UpdatedAt = time.Now().UTC()
	return next, nil
}

// SubmitQuestion moves a session from plan to search. An empty question is
// rejected before any external call happens.
type SubmitQuestion struct {
	Question     string
	AlsoConsider string
}

func (a SubmitQuestion) apply(s types.ReviewSession) (types.ReviewSession, error) {
	if strings.TrimSpace(a.Question) == "" {
		return s, ErrEmptyQuestion
	}
	if s.Stage != types.StagePlan {
		return s, fmt.Errorf("%w: submit question requires stage %s, session is at %s", ErrStage, types.StagePlan, s.Stage)
	}
	s.Question = strings.TrimSpace(a.Question)
	s.AlsoConsider = strings.TrimSpace(a.AlsoConsider)
	if s.Topic == "" {
		s.Topic = s.Question
	}
	s.Stage = types.StageSearch
	return s, nil
}

// ResultsReceived attaches search output and advances search to extract.
// The transition is automatic once results land.
type ResultsReceived struct {
	Papers  []types.Paper
	Metrics types.Metrics
}

func (a ResultsReceived) apply(s types.ReviewSession) (types.ReviewSession, error) {
	if s.Stage != types.StageSearch {
		return s, fmt.Errorf("%w: results require stage %s, session is at %s", ErrStage, types.StageSearch, s.Stage)
	}
	s.Papers = append([]types.Paper(nil), a.Papers...)
	s.Metrics = a.Metrics
	s.Stage = types.StageExtract
	return s, nil
}

// DetailsCaptured attaches extraction output to one paper. The stage does
// not advance; capture may run for any number of papers during extract.
type DetailsCaptured struct {
	PaperID string
	Details types.CapturedDetails
}

func (a DetailsCaptured) apply(s types.ReviewSession) (types.ReviewSession, error) {
	if s.Stage != types.StageExtract {
		return s, fmt.Errorf("%w: capture requires stage %s, session is at %s", ErrStage, types.StageExtract, s.Stage)
	}
	papers := append([]types.Paper(nil), s.Papers...)
	found := false
	for i := range papers {
		if papers[i].ID == a.PaperID {
			details := a.Details
			papers[i].Captured = &details
			found = true
			break
		}
	}
	if !found {
		return s, fmt.Errorf("%w: %s", ErrUnknownPaper, a.PaperID)
	}
	s.Papers = papers
	return s, nil
}

// SynthesisReady attaches synthesis text and advances extract to synthesize.
type SynthesisReady struct {
	Text string
}

func (a SynthesisReady) apply(s types.ReviewSession) (types.ReviewSession, error) {
	if s.Stage != types.StageExtract {
		return s, fmt.Errorf("%w: synthesize requires stage %s, session is at %s", ErrStage, types.StageExtract, s.Stage)
	}
	if len(s.Papers) == 0 {
		return s, ErrNoPapers
	}
	s.Synthesis = a.Text
	s.Stage = types.StageSynthesize
	return s, nil
}

// DraftReady attaches the report draft and advances synthesize to write.
type DraftReady struct {
	Text string
}

func (a DraftReady) apply(s types.ReviewSession) (types.ReviewSession, error) {
	if s.Stage != types.StageSynthesize {
		return s, fmt.Errorf("%w: write requires stage %s, session is at %s", ErrStage, types.StageSynthesize, s.Stage)
	}
	s.Draft = a.Text
	s.Stage = types.StageWrite
	return s, nil
}

// Finalize advances write to finish. No generation is involved.
type Finalize struct{}

func (Finalize) apply(s types.ReviewSession) (types.ReviewSession, error) {
	if s.Stage != types.StageWrite {
		return s, fmt.Errorf("%w: finalize requires stage %s, session is at %s", ErrStage, types.StageWrite, s.Stage)
	}
	s.Stage = types.StageFinish
	return s, nil
}

// Reset returns a session to plan and discards its papers, synthesis,
// draft, and metrics. It is the only backward transition.
type Reset struct{}

func (Reset) apply(s types.ReviewSession) (types.ReviewSession, error) {
	s.Stage = types.StagePlan
	s.Topic = ""
	s.Question = ""
	s.AlsoConsider = ""
	s.Papers = nil
	s.Metrics = types.Metrics{}
	s.Synthesis = ""
	s.Draft = ""
	return s, nil
}

// New returns a fresh session at StagePlan.
func New(id string, reviewType types.ReviewType) types.ReviewSession {
	now := time.Now().UTC()
	return types.ReviewSession{
		ID:         id,
		ReviewType: reviewType,
		Stage:      types.StagePlan,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
