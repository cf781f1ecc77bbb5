// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists review sessions in a SQLite database, with an
// FTS5 index over captured findings and a small preferences table.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/review-engine/pkg/types"
)

const dbFile = "review.db"

// ErrNotFound is returned when a session ID has no row.
var ErrNotFound = errors.New("session not found")

// Store manages the review-engine SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the database at dataDir/review.db and creates
// the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			topic TEXT,
			review_type TEXT,
			question TEXT,
			also_consider TEXT,
			stage INTEGER NOT NULL,
			identified INTEGER NOT NULL DEFAULT 0,
			screened INTEGER NOT NULL DEFAULT 0,
			excluded INTEGER NOT NULL DEFAULT 0,
			included INTEGER NOT NULL DEFAULT 0,
			synthesis TEXT,
			draft TEXT,
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			paper_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT,
			year INTEGER,
			journal TEXT,
			url TEXT,
			captured INTEGER NOT NULL DEFAULT 0,
			methodology TEXT,
			findings TEXT,
			citation TEXT,
			relevance REAL,
			UNIQUE(session_id, paper_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_session ON papers(session_id)`,
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(title, findings, content=papers, content_rowid=rowid)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, title, findings) VALUES (new.rowid, new.title, new.findings);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, findings) VALUES('delete', old.rowid, old.title, old.findings);
			END`,
			`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, findings) VALUES('delete', old.rowid, old.title, old.findings);
				INSERT INTO papers_fts(rowid, title, findings) VALUES (new.rowid, new.title, new.findings);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveSession upserts a session and replaces its paper rows. Paper order is
// preserved through the position column.
func (s *Store) SaveSession(ctx context.Context, sess types.ReviewSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, topic, review_type, question, also_consider, stage,
			identified, screened, excluded, included, synthesis, draft, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			topic=excluded.topic, review_type=excluded.review_type,
			question=excluded.question, also_consider=excluded.also_consider,
			stage=excluded.stage, identified=excluded.identified,
			screened=excluded.screened, excluded=excluded.excluded,
			included=excluded.included, synthesis=excluded.synthesis,
			draft=excluded.draft, updated_at=excluded.updated_at`,
		sess.ID, sess.Topic, string(sess.ReviewType), sess.Question, sess.AlsoConsider,
		int(sess.Stage), sess.Metrics.Identified, sess.Metrics.Screened,
		sess.Metrics.Excluded, sess.Metrics.Included, sess.Synthesis, sess.Draft,
		sess.CreatedAt.Format(time.RFC3339Nano), sess.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM papers WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("clearing papers: %w", err)
	}

	for i, p := range sess.Papers {
		var (
			captured    = 0
			methodology string
			findings    string
			citation    string
			relevance   float64
		)
		if p.Captured != nil {
			captured = 1
			methodology = p.Captured.Methodology
			citation = p.Captured.Citation
			relevance = p.Captured.RelevanceScore
			data, err := json.Marshal(p.Captured.Findings)
			if err != nil {
				return fmt.Errorf("marshaling findings for paper %s: %w", p.ID, err)
			}
			findings = string(data)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO papers (session_id, paper_id, position, title, year, journal, url,
				captured, methodology, findings, citation, relevance)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, p.ID, i, p.Title, p.Year, p.Journal, p.URL,
			captured, methodology, findings, citation, relevance)
		if err != nil {
			return fmt.Errorf("inserting paper %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// GetSession loads a session and its papers.
func (s *Store) GetSession(ctx context.Context, id string) (types.ReviewSession, error) {
	var (
		sess       types.ReviewSession
		reviewType string
		stage      int
		createdAt  string
		updatedAt  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, topic, review_type, question, also_consider, stage,
			identified, screened, excluded, included, synthesis, draft, created_at, updated_at
		FROM sessions WHERE id = ?`, id).Scan(
		&sess.ID, &sess.Topic, &reviewType, &sess.Question, &sess.AlsoConsider, &stage,
		&sess.Metrics.Identified, &sess.Metrics.Screened, &sess.Metrics.Excluded,
		&sess.Metrics.Included, &sess.Synthesis, &sess.Draft, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ReviewSession{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return types.ReviewSession{}, fmt.Errorf("querying session: %w", err)
	}

	sess.ReviewType = types.ReviewType(reviewType)
	sess.Stage = types.Stage(stage)
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	sess.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	papers, err := s.sessionPapers(ctx, id)
	if err != nil {
		return types.ReviewSession{}, err
	}
	sess.Papers = papers
	return sess, nil
}

func (s *Store) sessionPapers(ctx context.Context, id string) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_id, title, year, journal, url, captured, methodology, findings, citation, relevance
		FROM papers WHERE session_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		var (
			p           types.Paper
			captured    int
			methodology string
			findings    string
			citation    string
			relevance   float64
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Year, &p.Journal, &p.URL,
			&captured, &methodology, &findings, &citation, &relevance); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		if captured != 0 {
			details := types.CapturedDetails{
				Methodology:    methodology,
				Citation:       citation,
				RelevanceScore: relevance,
			}
			if findings != "" {
				if err := json.Unmarshal([]byte(findings), &details.Findings); err != nil {
					return nil, fmt.Errorf("unmarshaling findings for paper %s: %w", p.ID, err)
				}
			}
			p.Captured = &details
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// SessionSummary is one row of ListSessions output.
type SessionSummary struct {
	ID         string           `json:"id" yaml:"id"`
	Topic      string           `json:"topic" yaml:"topic"`
	ReviewType types.ReviewType `json:"review_type" yaml:"review_type"`
	Stage      types.Stage      `json:"stage" yaml:"stage"`
	Papers     int              `json:"papers" yaml:"papers"`
	UpdatedAt  time.Time        `json:"updated_at" yaml:"updated_at"`
}

// ListSessions returns session summaries ordered by most recent update.
func (s *Store) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.topic, s.review_type, s.stage, s.updated_at,
			(SELECT count(*) FROM papers p WHERE p.session_id = s.id)
		FROM sessions s ORDER BY s.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var (
			sum        SessionSummary
			reviewType string
			stage      int
			updatedAt  string
		)
		if err := rows.Scan(&sum.ID, &sum.Topic, &reviewType, &stage, &updatedAt, &sum.Papers); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sum.ReviewType = types.ReviewType(reviewType)
		sum.Stage = types.Stage(stage)
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// DeleteSession removes a session and, through the cascade, its papers.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// FindingMatch is one FTS hit over captured findings.
type FindingMatch struct {
	SessionID string      `json:"session_id" yaml:"session_id"`
	Paper     types.Paper `json:"paper" yaml:"paper"`
}

// SearchFindings runs an FTS5 query over paper titles and captured
// findings. An empty sessionID searches across all sessions.
func (s *Store) SearchFindings(ctx context.Context, sessionID, query string, maxResults int) ([]FindingMatch, error) {
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	q := `SELECT p.session_id, p.paper_id, p.title, p.year, p.journal, p.url,
			p.captured, p.methodology, p.findings, p.citation, p.relevance
		FROM papers_fts
		JOIN papers p ON p.rowid = papers_fts.rowid
		WHERE papers_fts MATCH ?`
	args := []any{query}
	if sessionID != "" {
		q += ` AND p.session_id = ?`
		args = append(args, sessionID)
	}
	q += ` ORDER BY papers_fts.rank LIMIT ?`
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var matches []FindingMatch
	for rows.Next() {
		var (
			m           FindingMatch
			captured    int
			methodology string
			findings    string
			citation    string
			relevance   float64
		)
		if err := rows.Scan(&m.SessionID, &m.Paper.ID, &m.Paper.Title, &m.Paper.Year,
			&m.Paper.Journal, &m.Paper.URL, &captured, &methodology, &findings,
			&citation, &relevance); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}
		if captured != 0 {
			details := types.CapturedDetails{
				Methodology:    methodology,
				Citation:       citation,
				RelevanceScore: relevance,
			}
			if findings != "" {
				if err := json.Unmarshal([]byte(findings), &details.Findings); err != nil {
					return nil, fmt.Errorf("unmarshaling findings: %w", err)
				}
			}
			m.Paper.Captured = &details
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// SetPreference stores one key/value preference.
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("setting preference %s: %w", key, err)
	}
	return nil
}

// GetPreference returns the stored value for key, or "" when unset.
func (s *Store) GetPreference(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting preference %s: %w", key, err)
	}
	return value, nil
}
