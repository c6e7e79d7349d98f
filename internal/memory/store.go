package memory

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Snapshot is a condensed record of one completed agent task: what went in
// and what came out, trimmed to summaries so old runs stay cheap to inject
// into later prompts.
type Snapshot struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Agent         string    `json:"agent"`
	TaskID        string    `json:"task_id"`
	InputSummary  string    `json:"input_summary"`
	OutputSummary string    `json:"output_summary"`
}

// Fact is one persistent key/value the user asked the assistant to
// remember.
type Fact struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists snapshots and facts in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite database at the given path.
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot records the outcome of a completed task.
func (s *Store) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (agent, task_id, input_summary, output_summary) VALUES (?, ?, ?, ?)`,
		snap.Agent, snap.TaskID, snap.InputSummary, snap.OutputSummary,
	)
	return err
}

// Recent returns the latest n snapshots, newest first. An empty agent
// matches all agents.
func (s *Store) Recent(ctx context.Context, agent string, n int) ([]Snapshot, error) {
	query := `SELECT id, created_at, agent, task_id, input_summary, output_summary
		FROM snapshots ORDER BY id DESC LIMIT ?`
	args := []any{n}
	if agent != "" {
		query = `SELECT id, created_at, agent, task_id, input_summary, output_summary
			FROM snapshots WHERE agent = ? ORDER BY id DESC LIMIT ?`
		args = []any{agent, n}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		var createdAt string
		if err := rows.Scan(&snap.ID, &createdAt, &snap.Agent,
			&snap.TaskID, &snap.InputSummary, &snap.OutputSummary); err != nil {
			return nil, err
		}
		snap.CreatedAt = parseTimestamp(createdAt)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Prune deletes all but the newest keep snapshots.
func (s *Store) Prune(ctx context.Context, keep int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
		)`, keep)
	return err
}

// SetFact stores or replaces a fact.
func (s *Store) SetFact(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO facts (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		key, value,
	)
	return err
}

// GetFact returns a fact's value, or "" if absent.
func (s *Store) GetFact(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM facts WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// DeleteFact removes a fact if present.
func (s *Store) DeleteFact(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM facts WHERE key = ?`, key)
	return err
}

// Facts returns all stored facts ordered by key.
func (s *Store) Facts(ctx context.Context) ([]Fact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM facts ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []Fact
	for rows.Next() {
		var f Fact
		var updatedAt string
		if err := rows.Scan(&f.Key, &f.Value, &updatedAt); err != nil {
			return nil, err
		}
		f.UpdatedAt = parseTimestamp(updatedAt)
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// parseTimestamp handles the formats SQLite hands back for
// CURRENT_TIMESTAMP columns.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (s *Store) Close() error {
	return s.db.Close()
}
