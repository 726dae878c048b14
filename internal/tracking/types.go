package tracking

import "time"

// ConversionRun describes a single completed (or failed) conversion
type ConversionRun struct {
	ID             int64         `json:"id"`
	Timestamp      time.Time     `json:"timestamp"`
	SourcePath     string        `json:"source_path"`
	SourceFormat   string        `json:"source_format"`
	SourceRate     int           `json:"source_rate"`
	SourceChannels int           `json:"source_channels"`
	TargetRate     int           `json:"target_rate"`
	TargetChannels int           `json:"target_channels"`
	Backend        string        `json:"backend"`
	Frames         int64         `json:"frames"`
	OutputBytes    int64         `json:"output_bytes"`
	Fallbacks      int64         `json:"fallbacks"`
	EmptyResults   int64         `json:"empty_results"`
	Duration       time.Duration `json:"duration"`
	Error          string        `json:"error,omitempty"`
}

// Failed reports whether the run ended in an error
func (r *ConversionRun) Failed() bool {
	return r.Error != ""
}

// Summary aggregates conversion history for reporting
type Summary struct {
	TotalRuns      int64 `json:"total_runs"`
	FailedRuns     int64 `json:"failed_runs"`
	TotalFrames    int64 `json:"total_frames"`
	TotalBytes     int64 `json:"total_bytes"`
	TotalFallbacks int64 `json:"total_fallbacks"`
}
