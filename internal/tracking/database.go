package tracking

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// NewDatabase opens a SQLite database at the specified path and applies
// the conversion history schema
func NewDatabase(dbPath string) (*sql.DB, error) {
	// Ensure directory exists if not in-memory
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply pragmas first
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA user_version = 1",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// ensureSchema creates the database schema if it doesn't exist
func ensureSchema(db *sql.DB) error {
	schema := `
-- One row per conversion run
CREATE TABLE IF NOT EXISTS conversion_runs (
    id              INTEGER PRIMARY KEY,
    timestamp       INTEGER NOT NULL,
    source_path     TEXT    NOT NULL,
    source_format   TEXT    NOT NULL,
    source_rate     INTEGER CHECK (source_rate IS NULL OR source_rate > 0),
    source_channels INTEGER CHECK (source_channels IS NULL OR source_channels > 0),
    target_rate     INTEGER NOT NULL CHECK (target_rate > 0),
    target_channels INTEGER NOT NULL CHECK (target_channels > 0),
    backend         TEXT    NOT NULL,
    frames          INTEGER NOT NULL,
    output_bytes    INTEGER NOT NULL,
    fallbacks       INTEGER NOT NULL,
    empty_results   INTEGER NOT NULL,
    duration_ms     INTEGER NOT NULL,
    error           TEXT
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON conversion_runs(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_runs_backend ON conversion_runs(backend);
CREATE INDEX IF NOT EXISTS idx_runs_source ON conversion_runs(source_path);
CREATE INDEX IF NOT EXISTS idx_runs_failed ON conversion_runs(error) WHERE error IS NOT NULL;
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// GetDatabasePath returns the XDG-compliant path for the history database
func GetDatabasePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		// Fallback to current directory if XDG cache dir is not available
		cacheDir = "."
	}

	dbDir := filepath.Join(cacheDir, "pcmflow")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}

	return filepath.Join(dbDir, "history.db"), nil
}
