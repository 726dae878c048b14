package resample

import "errors"

// Common errors surfaced by the stage and its backends
var (
	// ErrBackendAllocation means the backend could not allocate a
	// conversion context. Fatal to stage construction.
	ErrBackendAllocation = errors.New("backend context allocation failed")

	// ErrBackendInit means the backend rejected the configured
	// layout/format/rate combination. Fatal to stage construction.
	ErrBackendInit = errors.New("backend initialization rejected configuration")

	// ErrBufferAllocation means a per-call output buffer could not be
	// provisioned. The call fails; the stage remains usable.
	ErrBufferAllocation = errors.New("output buffer allocation failed")

	// ErrConversion means the backend reported an error status during
	// conversion. The call fails; the stage remains usable.
	ErrConversion = errors.New("backend conversion failed")

	// ErrStageClosed is returned by calls on a disposed stage
	ErrStageClosed = errors.New("resample stage is closed")
)

// Backend is the narrow capability interface over an external sample-rate
// conversion implementation. The stage depends only on this interface and
// never on a backend's internals; the resampling mathematics are assumed
// correct.
type Backend interface {
	// Name identifies the backend for logging and factory selection
	Name() string

	// NewContext allocates, configures, and initializes a conversion
	// context for the given source and destination shapes. Allocation
	// failures wrap ErrBackendAllocation; configuration rejections wrap
	// ErrBackendInit with the backend's diagnostic text.
	NewContext(src SourceSpec, dst DestinationSpec) (Context, error)
}

// Context holds backend-internal resampling state (filter history, delay
// buffer) for one stage instance. Contexts are owned exclusively by their
// stage, are not safe for concurrent use, and must be closed exactly once
// logically (Close is idempotent).
type Context interface {
	// Delay reports the number of already-buffered-but-unemitted samples
	// held by the backend's internal history, expressed at the given rate.
	Delay(rate int) int

	// ConvertFrame converts a source frame into the destination frame's
	// pre-attached buffer and returns the number of samples actually
	// written per channel. A zero return with a nil error is a legal
	// degenerate result the caller must handle.
	ConvertFrame(dst, src *Frame) (int, error)

	// ConvertBuffers is the lower-level conversion entry point: explicit
	// destination planes with a per-channel sample capacity, and explicit
	// source planes with a per-channel sample count. Returns samples
	// written per channel; zero means no output is available yet.
	ConvertBuffers(dst [][]byte, dstCap int, src [][]byte, srcSamples int) (int, error)

	// Close releases the context. Safe to call more than once.
	Close() error
}
