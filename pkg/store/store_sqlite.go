// Package store provides the durable SQLite backing for resolved model
// profiles and the optional assessment history sink. Absence of a store is
// always survivable: the resolver degrades to uncached operation and the
// transports simply skip history recording.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ctxvitals/ctxvitals/pkg/profile"
)

// SQLiteStore is the canonical persistent storage. It satisfies
// resolver.Cache and acts as the history recorder for the tool layer.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates/opens the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single-process store. One shared connection avoids writer lock
	// contention with SQLite under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS model_profiles (
			model_key TEXT PRIMARY KEY,
			max_tokens INTEGER NOT NULL,
			profile_json TEXT NOT NULL,
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			token_count INTEGER NOT NULL,
			score INTEGER NOT NULL,
			status TEXT NOT NULL,
			session_minutes INTEGER NOT NULL DEFAULT 0,
			tool_calls INTEGER NOT NULL DEFAULT 0,
			report_json TEXT NOT NULL DEFAULT '{}',
			created_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS assessments_model_idx ON assessments(model, created_at_ms DESC);`,
		`CREATE INDEX IF NOT EXISTS assessments_time_idx ON assessments(created_at_ms DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// GetProfile implements resolver.Cache.
func (s *SQLiteStore) GetProfile(ctx context.Context, key string) (profile.Profile, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile_json FROM model_profiles WHERE model_key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return profile.Profile{}, false, nil
	}
	if err != nil {
		return profile.Profile{}, false, fmt.Errorf("read profile %q: %w", key, err)
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return profile.Profile{}, false, fmt.Errorf("decode cached profile %q: %w", key, err)
	}
	return p, true, nil
}

// PutProfile implements resolver.Cache. Re-resolving the same key derives
// identical values, so last-writer-wins on the upsert is harmless.
func (s *SQLiteStore) PutProfile(ctx context.Context, key string, p profile.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO model_profiles(model_key, max_tokens, profile_json, created_at_ms)
		 VALUES(?, ?, ?, ?)
		 ON CONFLICT(model_key) DO UPDATE SET
		   max_tokens = excluded.max_tokens,
		   profile_json = excluded.profile_json`,
		key, p.MaxTokens, string(raw), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write profile %q: %w", key, err)
	}
	return nil
}

// AssessmentRecord is one row of assessment history.
type AssessmentRecord struct {
	ID             string `json:"id"`
	Model          string `json:"model"`
	TokenCount     int    `json:"token_count"`
	Score          int    `json:"score"`
	Status         string `json:"status"`
	SessionMinutes int    `json:"session_minutes"`
	ToolCalls      int    `json:"tool_calls"`
	ReportJSON     string `json:"report_json"`
	CreatedAtMS    int64  `json:"created_at_ms"`
}

// RecordAssessment appends one assessment to history. ID and timestamp are
// filled in when the caller leaves them zero.
func (s *SQLiteStore) RecordAssessment(ctx context.Context, rec AssessmentRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAtMS == 0 {
		rec.CreatedAtMS = time.Now().UnixMilli()
	}
	if rec.ReportJSON == "" {
		rec.ReportJSON = "{}"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments(id, model, token_count, score, status, session_minutes, tool_calls, report_json, created_at_ms)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Model, rec.TokenCount, rec.Score, rec.Status,
		rec.SessionMinutes, rec.ToolCalls, rec.ReportJSON, rec.CreatedAtMS)
	if err != nil {
		return fmt.Errorf("record assessment: %w", err)
	}
	return nil
}

// ListAssessments returns recent history, newest first. model "" means all
// models; limit <= 0 uses a default of 20.
func (s *SQLiteStore) ListAssessments(ctx context.Context, model string, limit int) ([]AssessmentRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, model, token_count, score, status, session_minutes, tool_calls, report_json, created_at_ms
		FROM assessments`
	args := []interface{}{}
	if model != "" {
		query += ` WHERE model = ?`
		args = append(args, model)
	}
	query += ` ORDER BY created_at_ms DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var out []AssessmentRecord
	for rows.Next() {
		var rec AssessmentRecord
		if err := rows.Scan(&rec.ID, &rec.Model, &rec.TokenCount, &rec.Score, &rec.Status,
			&rec.SessionMinutes, &rec.ToolCalls, &rec.ReportJSON, &rec.CreatedAtMS); err != nil {
			return nil, fmt.Errorf("scan assessment row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return out, nil
}
