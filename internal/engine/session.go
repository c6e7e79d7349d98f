package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"opencrew/internal/workflow"
)

// SessionRecord is the on-disk form of one completed run.
type SessionRecord struct {
	SessionID string          `json:"session_id"`
	CreatedAt time.Time       `json:"created_at"`
	Request   string          `json:"request"`
	Provider  string          `json:"provider"`
	Model     string          `json:"model"`
	Result    workflow.Result `json:"result"`
}

// saveSession writes the run record under <data dir>/crew_runs and
// returns the file path.
func (e *Engine) saveSession(request string, res workflow.Result) (string, error) {
	dir := filepath.Join(e.cfg.DataDir(), "crew_runs")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}

	rec := SessionRecord{
		SessionID: e.sessionID,
		CreatedAt: time.Now(),
		Request:   request,
		Provider:  e.provider.Name(),
		Model:     e.cfg.LLM.Model,
		Result:    res,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s__crew_session__%s.json",
		rec.CreatedAt.Format("20060102_150405"), e.sessionID)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return path, nil
}

// LoadSession reads a previously saved run record.
func LoadSession(path string) (*SessionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return &rec, nil
}

// ListSessions returns saved session file paths, newest name last.
func ListSessions(dataDir string) ([]string, error) {
	dir := filepath.Join(dataDir, "crew_runs")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}
