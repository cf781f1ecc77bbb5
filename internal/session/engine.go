// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/pdiddy/review-engine/internal/gemini"
	"github.com/pdiddy/review-engine/internal/report"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/pkg/types"
)

var (
	// ErrBusy is returned when a generation call is already in flight for
	// the session. Callers wait and retry; calls never overlap per session.
	ErrBusy = errors.New("a generation call is already in flight for this session")

	// ErrCollaborator wraps failures of the generative collaborator so
	// transport layers can map them to a distinct status.
	ErrCollaborator = errors.New("collaborator call failed")
)

// Store persists sessions between engine operations.
type Store interface {
	GetSession(ctx context.Context, id string) (types.ReviewSession, error)
	SaveSession(ctx context.Context, s types.ReviewSession) error
}

// Engine drives review sessions through the workflow: it loads a session,
// applies the pure transitions, runs the collaborator calls in between, and
// persists the result. A per-session busy flag rejects overlapping calls;
// when a call fails the session keeps its stage and the flag clears.
type Engine struct {
	collab gemini.Collaborator
	store  Store
	cfg    types.ReviewConfig
	w      io.Writer

	mu   sync.Mutex
	busy map[string]bool
}

// NewEngine builds an Engine. Progress and warnings are written to w.
func NewEngine(collab gemini.Collaborator, store Store, cfg types.ReviewConfig, w io.Writer) *Engine {
	if w == nil {
		w = io.Discard
	}
	return &Engine{
		collab: collab,
		store:  store,
		cfg:    cfg,
		w:      w,
		busy:   make(map[string]bool),
	}
}

// Create starts a new session at the plan stage and persists it.
func (e *Engine) Create(ctx context.Context, reviewType types.ReviewType) (types.ReviewSession, error) {
	s := New(uuid.NewString(), reviewType)
	if err := e.store.SaveSession(ctx, s); err != nil {
		return types.ReviewSession{}, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

// SubmitQuestion records the research question, runs the literature search,
// and advances the session to extract. An empty question changes nothing
// and calls nothing. A failed search leaves the session at the search stage.
func (e *Engine) SubmitQuestion(ctx context.Context, id, question, alsoConsider string) (types.ReviewSession, error) {
	s, err := e.store.GetSession(ctx, id)
	if err != nil {
		return types.ReviewSession{}, err
	}

	s, err = Apply(s, SubmitQuestion{Question: question, AlsoConsider: alsoConsider})
	if err != nil {
		return s, err
	}
	if err := e.store.SaveSession(ctx, s); err != nil {
		return s, fmt.Errorf("saving session: %w", err)
	}

	if err := e.begin(id); err != nil {
		return s, err
	}
	defer e.end(id)

	out, err := search.Run(ctx, e.collab, search.Query{
		Question:     s.Question,
		ReviewType:   s.ReviewType,
		AlsoConsider: s.AlsoConsider,
	}, e.cfg.Search, e.w)
	if err != nil {
		fmt.Fprintf(e.w, "search failed for session %s: %v\n", id, err)
		return s, fmt.Errorf("%w: %v", ErrCollaborator, err)
	}

	s, err = Apply(s, ResultsReceived{Papers: out.Papers, Metrics: out.Metrics})
	if err != nil {
		return s, err
	}
	if err := e.store.SaveSession(ctx, s); err != nil {
		return s, fmt.Errorf("saving session: %w", err)
	}

	fmt.Fprintf(e.w, "session %s: %d papers included\n", id, len(s.Papers))
	return s, nil
}

// CapturePaper extracts structured details for one paper via a
// schema-constrained call. A malformed payload degrades to sentinel
// details instead of failing the capture.
func (e *Engine) CapturePaper(ctx context.Context, id, paperID string) (types.ReviewSession, error) {
	s, err := e.store.GetSession(ctx, id)
	if err != nil {
		return types.ReviewSession{}, err
	}

	p := s.Paper(paperID)
	if p == nil {
		return s, fmt.Errorf("%w: %s", ErrUnknownPaper, paperID)
	}

	prompt, err := renderCapturePrompt(s, *p)
	if err != nil {
		return s, err
	}

	if err := e.begin(id); err != nil {
		return s, err
	}
	defer e.end(id)

	raw, err := e.collab.GenerateJSON(ctx, prompt, captureSchema)
	if err != nil {
		fmt.Fprintf(e.w, "capture failed for paper %s: %v\n", paperID, err)
		return s, fmt.Errorf("%w: %v", ErrCollaborator, err)
	}

	var details types.CapturedDetails
	if err := gemini.DecodeJSON(raw, &details); err != nil {
		fmt.Fprintf(e.w, "warning: malformed capture payload for paper %s, using fallback: %v\n", paperID, err)
		details = fallbackDetails()
	}

	s, err = Apply(s, DetailsCaptured{PaperID: paperID, Details: details})
	if err != nil {
		return s, err
	}
	if err := e.store.SaveSession(ctx, s); err != nil {
		return s, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

// CaptureAll runs CapturePaper over every paper that has no captured
// details yet. Individual failures are logged and skipped.
func (e *Engine) CaptureAll(ctx context.Context, id string) (types.ReviewSession, error) {
	s, err := e.store.GetSession(ctx, id)
	if err != nil {
		return types.ReviewSession{}, err
	}

	for _, p := range s.Papers {
		if p.Captured != nil {
			continue
		}
		next, err := e.CapturePaper(ctx, id, p.ID)
		if err != nil {
			fmt.Fprintf(e.w, "skipping paper %s: %v\n", p.ID, err)
			continue
		}
		s = next
	}
	return s, nil
}

// Synthesize generates the cross-paper synthesis and advances the session
// to the synthesize stage. It requires at least one paper.
func (e *Engine) Synthesize(ctx context.Context, id string) (types.ReviewSession, error) {
	return e.generateStep(ctx, id, renderSynthesisPrompt, func(text string) Action {
		return SynthesisReady{Text: text}
	})
}

// WriteDraft generates the labeled report draft and advances the session to
// the write stage.
func (e *Engine) WriteDraft(ctx context.Context, id string) (types.ReviewSession, error) {
	return e.generateStep(ctx, id, renderDraftPrompt, func(text string) Action {
		return DraftReady{Text: text}
	})
}

// generateStep is the shared shape of synthesize and write: render the
// prompt, run one free-text generation, apply the stage action, persist.
// The guard action runs first on a copy so stage violations surface before
// any collaborator call.
func (e *Engine) generateStep(ctx context.Context, id string, render func(types.ReviewSession) (string, error), action func(string) Action) (types.ReviewSession, error) {
	s, err := e.store.GetSession(ctx, id)
	if err != nil {
		return types.ReviewSession{}, err
	}

	if _, err := Apply(s, action("")); err != nil {
		return s, err
	}

	prompt, err := render(s)
	if err != nil {
		return s, err
	}

	if err := e.begin(id); err != nil {
		return s, err
	}
	defer e.end(id)

	text, err := e.collab.GenerateText(ctx, prompt)
	if err != nil {
		fmt.Fprintf(e.w, "generation failed for session %s: %v\n", id, err)
		return s, fmt.Errorf("%w: %v", ErrCollaborator, err)
	}

	s, err = Apply(s, action(text))
	if err != nil {
		return s, err
	}
	if err := e.store.SaveSession(ctx, s); err != nil {
		return s, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

// Finalize advances the session from write to finish.
func (e *Engine) Finalize(ctx context.Context, id string) (types.ReviewSession, error) {
	return e.applyAndSave(ctx, id, Finalize{})
}

// Reset returns the session to plan and discards papers, synthesis, and draft.
func (e *Engine) Reset(ctx context.Context, id string) (types.ReviewSession, error) {
	return e.applyAndSave(ctx, id, Reset{})
}

func (e *Engine) applyAndSave(ctx context.Context, id string, a Action) (types.ReviewSession, error) {
	s, err := e.store.GetSession(ctx, id)
	if err != nil {
		return types.ReviewSession{}, err
	}
	s, err = Apply(s, a)
	if err != nil {
		return s, err
	}
	if err := e.store.SaveSession(ctx, s); err != nil {
		return s, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

// Report derives the structured report from a session's draft. The report
// is recomputed on every call and never stored.
func (e *Engine) Report(s types.ReviewSession) report.Report {
	return report.Parse(s.Draft)
}

// Busy reports whether a generation call is in flight for the session.
func (e *Engine) Busy(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy[id]
}

func (e *Engine) begin(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy[id] {
		return ErrBusy
	}
	e.busy[id] = true
	return nil
}

func (e *Engine) end(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.busy, id)
}
