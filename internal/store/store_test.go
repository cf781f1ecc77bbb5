package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSession() types.ReviewSession {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return types.ReviewSession{
		ID:         "s1",
		Topic:      "spaced repetition",
		ReviewType: types.ReviewSLR,
		Question:   "does spaced repetition improve retention?",
		Stage:      types.StageExtract,
		Metrics:    types.Metrics{Identified: 5, Screened: 4, Excluded: 1, Included: 3},
		Papers: []types.Paper{
			{ID: "p1", Title: "Paper One", Year: 2020, Journal: "J. One", URL: "https://one.example"},
			{
				ID: "p2", Title: "Paper Two", Year: 2021,
				Captured: &types.CapturedDetails{
					Methodology:    "RCT",
					Findings:       []string{"improved recall", "dose effect"},
					Citation:       "Smith (2021)",
					RelevanceScore: 0.85,
				},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSaveAndGetSession(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, sampleSession()))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, "spaced repetition", got.Topic)
	assert.Equal(t, types.ReviewSLR, got.ReviewType)
	assert.Equal(t, types.StageExtract, got.Stage)
	assert.Equal(t, types.Metrics{Identified: 5, Screened: 4, Excluded: 1, Included: 3}, got.Metrics)
	require.Len(t, got.Papers, 2)
	assert.Equal(t, "Paper One", got.Papers[0].Title)
	assert.Nil(t, got.Papers[0].Captured)
	require.NotNil(t, got.Papers[1].Captured)
	assert.Equal(t, []string{"improved recall", "dose effect"}, got.Papers[1].Captured.Findings)
	assert.Equal(t, 0.85, got.Papers[1].Captured.RelevanceScore)
}

func TestSaveSessionUpsert(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := sampleSession()
	require.NoError(t, s.SaveSession(ctx, sess))

	sess.Stage = types.StageSynthesize
	sess.Synthesis = "the synthesis"
	sess.Papers = sess.Papers[:1]
	require.NoError(t, s.SaveSession(ctx, sess))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, types.StageSynthesize, got.Stage)
	assert.Equal(t, "the synthesis", got.Synthesis)
	assert.Len(t, got.Papers, 1)
}

func TestGetSessionNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSessions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := sampleSession()
	require.NoError(t, s.SaveSession(ctx, first))

	second := sampleSession()
	second.ID = "s2"
	second.Topic = "later topic"
	second.UpdatedAt = first.UpdatedAt.Add(time.Hour)
	require.NoError(t, s.SaveSession(ctx, second))

	summaries, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "s2", summaries[0].ID)
	assert.Equal(t, 2, summaries[0].Papers)
}

func TestDeleteSession(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, sampleSession()))
	require.NoError(t, s.DeleteSession(ctx, "s1"))

	_, err := s.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.DeleteSession(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchFindings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, sampleSession()))

	matches, err := s.SearchFindings(ctx, "", "recall", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "p2", matches[0].Paper.ID)
	assert.Equal(t, "s1", matches[0].SessionID)

	matches, err = s.SearchFindings(ctx, "other-session", "recall", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = s.SearchFindings(ctx, "", "", 10)
	assert.Error(t, err)
}

func TestPreferences(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	val, err := s.GetPreference(ctx, "active_view")
	require.NoError(t, err)
	assert.Equal(t, "", val)

	require.NoError(t, s.SetPreference(ctx, "active_view", "review"))
	val, err = s.GetPreference(ctx, "active_view")
	require.NoError(t, err)
	assert.Equal(t, "review", val)

	require.NoError(t, s.SetPreference(ctx, "active_view", "tools"))
	val, err = s.GetPreference(ctx, "active_view")
	require.NoError(t, err)
	assert.Equal(t, "tools", val)
}

func TestStoreReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewStore(types.StoreConfig{DataDir: dir})
	require.NoError(t, err)
	require.NoError(t, s.SaveSession(ctx, sampleSession()))
	require.NoError(t, s.Close())

	reopened, err := NewStore(types.StoreConfig{DataDir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got.Papers, 2)
	assert.True(t, got.Stage.Valid())
}
