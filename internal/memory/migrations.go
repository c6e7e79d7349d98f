package memory

// migrations is the ordered list of SQL migration statements.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		agent TEXT NOT NULL,
		task_id TEXT NOT NULL,
		input_summary TEXT NOT NULL,
		output_summary TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_agent ON snapshots(agent, created_at)`,
	`CREATE TABLE IF NOT EXISTS facts (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	)`,
}
