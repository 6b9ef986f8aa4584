package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS feedback (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    source_id TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    category TEXT,
    url TEXT,
    content_fetched INTEGER DEFAULT 0,
    customer_id TEXT NOT NULL DEFAULT '',
    customer_email TEXT,
    customer_name TEXT,
    customer_tier TEXT,
    sentiment TEXT,
    sentiment_score REAL,
    impact_score REAL DEFAULT 0,
    severity TEXT,
    status TEXT NOT NULL DEFAULT 'open',
    created_at TEXT NOT NULL,
    updated_at TEXT,
    UNIQUE(source, source_id)
);

CREATE TABLE IF NOT EXISTS theme_snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    period_id TEXT NOT NULL,
    name TEXT NOT NULL,
    keywords TEXT,
    frequency INTEGER DEFAULT 0,
    confidence REAL DEFAULT 0,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS summaries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    period_id TEXT UNIQUE NOT NULL,
    overview_markdown TEXT NOT NULL,
    feedback_count INTEGER DEFAULT 0,
    negative_count INTEGER DEFAULT 0,
    critical_count INTEGER DEFAULT 0,
    generated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sync_state (
    source TEXT PRIMARY KEY,
    last_sync TEXT,
    status TEXT NOT NULL DEFAULT 'active'
);

CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);
CREATE INDEX IF NOT EXISTS idx_feedback_sentiment ON feedback(sentiment);
CREATE INDEX IF NOT EXISTS idx_feedback_tier ON feedback(customer_tier);
CREATE INDEX IF NOT EXISTS idx_feedback_severity ON feedback(severity, status);
CREATE INDEX IF NOT EXISTS idx_theme_snapshots_period ON theme_snapshots(period_id);
CREATE INDEX IF NOT EXISTS idx_summaries_period ON summaries(period_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
