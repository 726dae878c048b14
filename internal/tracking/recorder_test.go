package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()

	db, err := NewDatabase(":memory:")
	require.NoError(t, err, "NewDatabase failed")
	t.Cleanup(func() { db.Close() })

	recorder, err := NewRecorder(db)
	require.NoError(t, err, "NewRecorder failed")
	return recorder
}

func sampleRun() *ConversionRun {
	return &ConversionRun{
		SourcePath:     "/music/test.wav",
		SourceFormat:   "wav",
		SourceRate:     44100,
		SourceChannels: 2,
		TargetRate:     48000,
		TargetChannels: 2,
		Backend:        "polyphase",
		Frames:         50,
		OutputBytes:    214080,
		Fallbacks:      1,
		EmptyResults:   0,
		Duration:       12 * time.Millisecond,
	}
}

func TestRecorderRecordAndQuery(t *testing.T) {
	recorder := newTestRecorder(t)

	id, err := recorder.Record(sampleRun())
	require.NoError(t, err)
	assert.Positive(t, id, "expected positive row ID")

	runs, err := recorder.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, "/music/test.wav", got.SourcePath)
	assert.Equal(t, 44100, got.SourceRate)
	assert.Equal(t, 48000, got.TargetRate)
	assert.Equal(t, "polyphase", got.Backend)
	assert.Equal(t, int64(1), got.Fallbacks)
	assert.Equal(t, 12*time.Millisecond, got.Duration)
	assert.False(t, got.Failed())
}

func TestRecorderFailedRun(t *testing.T) {
	recorder := newTestRecorder(t)

	run := sampleRun()
	run.Error = "conversion produced no samples"
	_, err := recorder.Record(run)
	require.NoError(t, err)

	runs, err := recorder.RecentRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Failed())
	assert.Equal(t, "conversion produced no samples", runs[0].Error)
}

func TestRecorderUnknownSourceShape(t *testing.T) {
	recorder := newTestRecorder(t)

	// A run that failed before decoding carries no source shape
	run := &ConversionRun{
		SourcePath:     "/does/not/exist.wav",
		SourceFormat:   "unknown",
		TargetRate:     48000,
		TargetChannels: 2,
		Backend:        "auto",
		Error:          "failed to open input file",
	}
	_, err := recorder.Record(run)
	require.NoError(t, err, "zero source shape must not violate schema constraints")

	runs, err := recorder.RecentRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Zero(t, runs[0].SourceRate, "unknown rate round-trips as zero")
	assert.Zero(t, runs[0].SourceChannels, "unknown channels round-trip as zero")
	assert.True(t, runs[0].Failed())
}

func TestRecorderRecentRunsOrder(t *testing.T) {
	recorder := newTestRecorder(t)

	base := time.Now().Add(-time.Hour)
	paths := []string{"/a.wav", "/b.wav", "/c.wav"}
	for i, path := range paths {
		run := sampleRun()
		run.SourcePath = path
		run.Timestamp = base.Add(time.Duration(i) * time.Minute)
		_, err := recorder.Record(run)
		require.NoError(t, err)
	}

	runs, err := recorder.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "/c.wav", runs[0].SourcePath, "newest run first")
	assert.Equal(t, "/b.wav", runs[1].SourcePath)
}

func TestRecorderSummarize(t *testing.T) {
	recorder := newTestRecorder(t)

	ok := sampleRun()
	failed := sampleRun()
	failed.Error = "backend init failed"
	failed.Frames = 0
	failed.OutputBytes = 0
	failed.Fallbacks = 0

	for _, run := range []*ConversionRun{ok, ok, failed} {
		_, err := recorder.Record(run)
		require.NoError(t, err)
	}

	summary, err := recorder.Summarize()
	require.NoError(t, err)

	assert.Equal(t, int64(3), summary.TotalRuns)
	assert.Equal(t, int64(1), summary.FailedRuns)
	assert.Equal(t, int64(100), summary.TotalFrames)
	assert.Equal(t, int64(2), summary.TotalFallbacks)
}

func TestRecorderEmptyHistory(t *testing.T) {
	recorder := newTestRecorder(t)

	runs, err := recorder.RecentRuns(10)
	require.NoError(t, err)
	assert.Empty(t, runs)

	summary, err := recorder.Summarize()
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.TotalRuns)
}

func TestRecorderNilInputs(t *testing.T) {
	_, err := NewRecorder(nil)
	assert.Error(t, err, "nil database must be rejected")

	recorder := newTestRecorder(t)
	_, err = recorder.Record(nil)
	assert.Error(t, err, "nil run must be rejected")
}

func TestDatabaseSchemaIdempotent(t *testing.T) {
	db, err := NewDatabase(":memory:")
	require.NoError(t, err)
	defer db.Close()

	// Re-applying the schema must not fail
	assert.NoError(t, ensureSchema(db))
}
