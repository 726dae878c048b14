package resample

import (
	"fmt"
	"log/slog"
)

// safetyMargin absorbs backend rounding slack on top of the delay-aware
// output estimate. Under-provisioning would truncate output or make the
// backend refuse to write; a few hundred extra samples per call is cheap.
const safetyMargin = 256

// maxProvisionSamples caps a single call's output provisioning. A request
// beyond this is treated as an allocation failure rather than an attempt
// to allocate an absurd buffer.
const maxProvisionSamples = 1 << 24

// Stage converts a stream of raw audio frames into a fixed destination
// channel count, sample rate, and sample format, producing one flat
// interleaved byte buffer per input frame.
//
// A Stage is constructed once, called repeatedly with Convert (one call
// per incoming frame, in stream order), and torn down with Close. It is
// not safe for concurrent use: the reusable destination frame and the
// backend context carry mutable history that must be advanced in strict
// call order. Callers needing concurrency must serialize access per
// stage instance.
type Stage struct {
	src     SourceSpec
	dst     DestinationSpec
	backend Backend
	ctx     Context

	// dstFrame is the reusable destination scratch descriptor. It is
	// detached from any prior buffer at the start of every call.
	dstFrame *Frame

	closed bool

	// running counters, reported by Stats
	frames    int64
	fallbacks int64
	empties   int64
}

// StageStats summarizes a stage's activity since construction
type StageStats struct {
	Frames       int64 // conversion calls completed successfully
	Fallbacks    int64 // calls recovered through the two-buffer fallback
	EmptyResults int64 // calls that legitimately produced no output
}

// NewStage builds a resample stage converting from the source shape to
// dstChannels/dstRate in the process-wide destination format. Construction
// failures are fatal: no partially-usable stage is ever returned.
func NewStage(src SourceSpec, dstChannels, dstRate int, backend Backend) (*Stage, error) {
	slog.Debug("constructing resample stage",
		"src_layout", src.Layout.String(),
		"src_rate", src.SampleRate,
		"src_format", src.Format,
		"dst_channels", dstChannels,
		"dst_rate", dstRate,
		"backend", backend.Name())

	if err := src.Validate(); err != nil {
		slog.Error("invalid source spec", "error", err)
		return nil, fmt.Errorf("invalid source spec: %w", err)
	}
	if dstRate <= 0 {
		slog.Error("invalid destination rate", "dst_rate", dstRate)
		return nil, fmt.Errorf("destination sample rate must be positive, got %d", dstRate)
	}

	dstLayout, err := DefaultLayout(dstChannels)
	if err != nil {
		slog.Error("destination layout negotiation failed", "dst_channels", dstChannels, "error", err)
		return nil, fmt.Errorf("destination layout negotiation failed: %w", err)
	}

	dst := DestinationSpec{
		Layout:         dstLayout,
		SampleRate:     dstRate,
		Format:         DestinationFormat,
		BytesPerSample: DestinationBytesPerSample,
	}

	ctx, err := backend.NewContext(src, dst)
	if err != nil {
		slog.Error("backend context setup failed", "backend", backend.Name(), "error", err)
		return nil, fmt.Errorf("backend %s: %w", backend.Name(), err)
	}

	stage := &Stage{
		src:      src,
		dst:      dst,
		backend:  backend,
		ctx:      ctx,
		dstFrame: &Frame{},
	}

	slog.Info("resample stage ready",
		"backend", backend.Name(),
		"src", fmt.Sprintf("%s@%dHz", src.Layout, src.SampleRate),
		"dst", fmt.Sprintf("%s@%dHz", dstLayout, dstRate))

	return stage, nil
}

// Destination returns the stage's fixed output spec
func (s *Stage) Destination() DestinationSpec {
	return s.dst
}

// Stats returns the stage's running counters
func (s *Stage) Stats() StageStats {
	return StageStats{Frames: s.frames, Fallbacks: s.fallbacks, EmptyResults: s.empties}
}

// Convert adapts one source frame to the destination shape and returns a
// tightly-sized interleaved byte buffer in the destination format. The
// buffer may be empty when the backend has not accumulated enough history
// to emit output yet; that is a success, not an error. Call failures are
// local to the call: the stage remains usable for the next frame.
func (s *Stage) Convert(frame *Frame) (result []byte, err error) {
	if s.closed {
		return nil, ErrStageClosed
	}

	// Call-boundary recovery: a panic inside a conversion must fail the
	// call, not the stage.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("unexpected failure during conversion", "panic", r)
			result = nil
			err = fmt.Errorf("unexpected failure during conversion: %v", r)
		}
	}()

	if err := frame.Validate(); err != nil {
		slog.Error("rejecting malformed source frame", "error", err)
		return nil, fmt.Errorf("invalid source frame: %w", err)
	}

	result, err = s.convertPrimary(frame)
	if err != nil {
		return nil, err
	}
	s.frames++
	if len(result) == 0 {
		s.empties++
	}
	return result, nil
}

// convertPrimary runs the frame-shaped conversion path, handing off to the
// two-buffer fallback when the backend under-delivers.
func (s *Stage) convertPrimary(frame *Frame) ([]byte, error) {
	// The scratch descriptor must never enter a call still referencing the
	// previous call's buffer.
	s.dstFrame.reset()

	dstLayout, err := DefaultLayout(s.dst.Channels())
	if err != nil {
		return nil, fmt.Errorf("destination layout negotiation failed: %w", err)
	}
	// The per-call destination layout is transient; reset() detaches it on
	// the next call regardless of how this call exits.
	defer s.dstFrame.reset()

	provisioned := s.provisionSamples(frame.Samples)
	slog.Debug("provisioned destination buffer",
		"src_samples", frame.Samples,
		"provisioned", provisioned)

	s.dstFrame.Layout = dstLayout
	s.dstFrame.SampleRate = s.dst.SampleRate
	s.dstFrame.Format = s.dst.Format
	s.dstFrame.Interleaved = true
	if err := s.attachBuffer(s.dstFrame, provisioned); err != nil {
		return nil, err
	}

	written, err := s.ctx.ConvertFrame(s.dstFrame, frame)
	if err != nil {
		slog.Error("primary conversion failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	if written == 0 {
		// Known backend quirk: a zero-sample success from the frame API
		// can still have convertible samples pending. Recover them through
		// the explicitly-buffered path.
		slog.Debug("primary path reported zero samples, taking fallback path",
			"src_samples", frame.Samples)
		s.fallbacks++
		return s.convertFallback(frame)
	}

	size := written * s.dst.BytesPerSample * s.dst.Channels()
	out := make([]byte, size)
	copy(out, s.dstFrame.Data[0][:size])

	slog.Debug("primary conversion complete",
		"samples_written", written,
		"bytes", size)

	return out, nil
}

// convertFallback is the manual two-buffer conversion path, invoked only
// when the primary path yields zero usable samples from an otherwise
// successful call.
func (s *Stage) convertFallback(frame *Frame) ([]byte, error) {
	// Exact expected output: input plus not-yet-emitted history, rescaled
	// to the destination rate, rounded up.
	pending := frame.Samples + s.ctx.Delay(s.src.SampleRate)
	expected := ceilRescale(pending, s.dst.SampleRate, s.src.SampleRate)
	if expected <= 0 {
		// Legitimate "nothing to emit yet" state, e.g. the first very
		// short frame after construction.
		slog.Debug("no output expected yet", "pending_src_samples", pending)
		return []byte{}, nil
	}

	channels := s.dst.Channels()
	if expected > maxProvisionSamples {
		return nil, fmt.Errorf("%w: fallback wants %d samples", ErrBufferAllocation, expected)
	}
	// Destination is interleaved, so a single flat plane carries every
	// channel; the source contributes one plane per channel.
	out := make([]byte, expected*s.dst.BytesPerSample*channels)

	written, err := s.ctx.ConvertBuffers([][]byte{out}, expected, frame.Data, frame.Samples)
	if err != nil {
		slog.Error("fallback conversion failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	if written == 0 {
		slog.Debug("fallback produced no samples", "expected", expected)
		return []byte{}, nil
	}

	// The allocation may exceed what was actually produced; return only
	// the written prefix, right-sized.
	size := written * s.dst.BytesPerSample * channels
	result := make([]byte, size)
	copy(result, out[:size])

	slog.Debug("fallback conversion complete",
		"samples_written", written,
		"expected", expected,
		"bytes", size)

	return result, nil
}

// provisionSamples computes the per-call output provisioning: the rational
// rescale of the input count rounded up, plus the backend's pending
// history at the destination rate, plus the safety margin. Recomputed on
// every call since frame sizes vary and the delay evolves.
func (s *Stage) provisionSamples(srcSamples int) int {
	expected := ceilRescale(srcSamples, s.dst.SampleRate, s.src.SampleRate)
	delay := s.ctx.Delay(s.dst.SampleRate)
	return expected + delay + safetyMargin
}

// attachBuffer provisions the destination frame's flat interleaved plane
func (s *Stage) attachBuffer(dst *Frame, samples int) error {
	if samples <= 0 || samples > maxProvisionSamples {
		slog.Error("refusing destination buffer size", "samples", samples)
		return fmt.Errorf("%w: %d samples", ErrBufferAllocation, samples)
	}
	dst.Samples = samples
	dst.Data = [][]byte{make([]byte, samples*s.dst.BytesPerSample*s.dst.Channels())}
	return nil
}

// Close releases the backend context and the reusable destination frame.
// Idempotent: closing an already-closed stage is a no-op.
func (s *Stage) Close() error {
	if s.closed {
		slog.Debug("resample stage already closed")
		return nil
	}
	s.closed = true
	s.dstFrame.reset()

	if err := s.ctx.Close(); err != nil {
		slog.Error("error closing backend context", "error", err)
		return fmt.Errorf("error closing backend context: %w", err)
	}

	slog.Debug("resample stage closed",
		"frames", s.frames,
		"fallbacks", s.fallbacks,
		"empty_results", s.empties)
	return nil
}

// ceilRescale rescales n from rate srcRate to dstRate, rounding up.
// Rounding down would under-provision the destination buffer.
func ceilRescale(n, dstRate, srcRate int) int {
	if n <= 0 {
		return n
	}
	return (n*dstRate + srcRate - 1) / srcRate
}
