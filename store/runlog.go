package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run statuses recorded per chunk extraction.
const (
	StatusOK         = "ok"
	StatusParseError = "parse_error"
	StatusTimeout    = "timeout"
	StatusHTTPError  = "http_error"
)

// RunEntry is one row in the run_log table: the outcome of a single
// per-chunk LLM call. The log is observational; the pipeline never reads
// it back to make decisions.
type RunEntry struct {
	DocumentID       string `json:"document_id"`
	ChunkID          string `json:"chunk_id"`
	Stage            string `json:"stage"` // "schema" or "instances"
	Status           string `json:"status"`
	Model            string `json:"model"`
	Error            string `json:"error,omitempty"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	ElapsedMs        int64  `json:"elapsed_ms"`
	CreatedAt        string `json:"created_at"`
}

const runLogSchema = `
CREATE TABLE IF NOT EXISTS run_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id TEXT NOT NULL,
	chunk_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	status TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	prompt_tokens INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	elapsed_ms INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_run_log_document ON run_log(document_id);
CREATE INDEX IF NOT EXISTS idx_run_log_status ON run_log(status);
`

// RunLog wraps the SQLite database holding extraction outcomes.
type RunLog struct {
	db *sql.DB
}

// OpenRunLog opens (or creates) the run log database at the given path.
func OpenRunLog(dbPath string) (*RunLog, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging run log: %w", err)
	}
	if _, err := db.Exec(runLogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run log schema: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &RunLog{db: db}, nil
}

// Close closes the underlying database connection.
func (l *RunLog) Close() error {
	return l.db.Close()
}

// Record inserts one entry.
func (l *RunLog) Record(ctx context.Context, e RunEntry) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO run_log (document_id, chunk_id, stage, status, model, error, prompt_tokens, completion_tokens, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.DocumentID, e.ChunkID, e.Stage, e.Status, e.Model, e.Error,
		e.PromptTokens, e.CompletionTokens, e.ElapsedMs)
	if err != nil {
		return fmt.Errorf("recording run entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (l *RunLog) Recent(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT document_id, chunk_id, stage, status, model, error,
		       prompt_tokens, completion_tokens, elapsed_ms, created_at
		FROM run_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunEntry
	for rows.Next() {
		var e RunEntry
		if err := rows.Scan(&e.DocumentID, &e.ChunkID, &e.Stage, &e.Status, &e.Model, &e.Error,
			&e.PromptTokens, &e.CompletionTokens, &e.ElapsedMs, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountByStatus returns per-status entry counts for one document, or for
// all documents when documentID is empty.
func (l *RunLog) CountByStatus(ctx context.Context, documentID string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM run_log GROUP BY status`
	args := []any{}
	if documentID != "" {
		query = `SELECT status, COUNT(*) FROM run_log WHERE document_id = ? GROUP BY status`
		args = append(args, documentID)
	}
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
