package tracking

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Recorder persists conversion runs to the history database
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a recorder over an open database connection
func NewRecorder(db *sql.DB) (*Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &Recorder{db: db}, nil
}

// Record inserts a conversion run and returns its row ID
func (r *Recorder) Record(run *ConversionRun) (int64, error) {
	if run == nil {
		return 0, fmt.Errorf("conversion run is nil")
	}

	ts := run.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var errText sql.NullString
	if run.Error != "" {
		errText = sql.NullString{String: run.Error, Valid: true}
	}

	// A run that failed before decoding has no source shape; store NULL
	// rather than an invented rate
	var srcRate, srcChannels sql.NullInt64
	if run.SourceRate > 0 {
		srcRate = sql.NullInt64{Int64: int64(run.SourceRate), Valid: true}
	}
	if run.SourceChannels > 0 {
		srcChannels = sql.NullInt64{Int64: int64(run.SourceChannels), Valid: true}
	}

	result, err := r.db.Exec(`
		INSERT INTO conversion_runs (
			timestamp, source_path, source_format,
			source_rate, source_channels, target_rate, target_channels,
			backend, frames, output_bytes, fallbacks, empty_results,
			duration_ms, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.Unix(), run.SourcePath, run.SourceFormat,
		srcRate, srcChannels, run.TargetRate, run.TargetChannels,
		run.Backend, run.Frames, run.OutputBytes, run.Fallbacks, run.EmptyResults,
		run.Duration.Milliseconds(), errText)
	if err != nil {
		return 0, fmt.Errorf("failed to insert conversion run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted row ID: %w", err)
	}

	slog.Debug("recorded conversion run",
		"id", id,
		"source_path", run.SourcePath,
		"backend", run.Backend,
		"frames", run.Frames,
		"fallbacks", run.Fallbacks)

	return id, nil
}

// RecentRuns returns the most recent conversion runs, newest first
func (r *Recorder) RecentRuns(limit int) ([]ConversionRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, timestamp, source_path, source_format,
			source_rate, source_channels, target_rate, target_channels,
			backend, frames, output_bytes, fallbacks, empty_results,
			duration_ms, error
		FROM conversion_runs
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversion runs: %w", err)
	}
	defer rows.Close()

	var runs []ConversionRun
	for rows.Next() {
		var run ConversionRun
		var ts int64
		var durationMs int64
		var srcRate, srcChannels sql.NullInt64
		var errText sql.NullString

		err := rows.Scan(&run.ID, &ts, &run.SourcePath, &run.SourceFormat,
			&srcRate, &srcChannels, &run.TargetRate, &run.TargetChannels,
			&run.Backend, &run.Frames, &run.OutputBytes, &run.Fallbacks, &run.EmptyResults,
			&durationMs, &errText)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversion run: %w", err)
		}

		run.Timestamp = time.Unix(ts, 0)
		run.Duration = time.Duration(durationMs) * time.Millisecond
		if srcRate.Valid {
			run.SourceRate = int(srcRate.Int64)
		}
		if srcChannels.Valid {
			run.SourceChannels = int(srcChannels.Int64)
		}
		if errText.Valid {
			run.Error = errText.String
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversion runs: %w", err)
	}

	return runs, nil
}

// Summarize aggregates the full conversion history
func (r *Recorder) Summarize() (*Summary, error) {
	var s Summary
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(error),
			COALESCE(SUM(frames), 0),
			COALESCE(SUM(output_bytes), 0),
			COALESCE(SUM(fallbacks), 0)
		FROM conversion_runs`).Scan(
		&s.TotalRuns, &s.FailedRuns, &s.TotalFrames, &s.TotalBytes, &s.TotalFallbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize conversion runs: %w", err)
	}

	return &s, nil
}
