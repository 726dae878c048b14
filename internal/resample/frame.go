package resample

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

// DestinationFormat is the fixed process-wide output sample format.
// Every stage emits signed 16-bit little-endian interleaved PCM.
const DestinationFormat = malgo.FormatS16

// DestinationBytesPerSample is the byte width of DestinationFormat.
const DestinationBytesPerSample = 2

// Frame is one unit of audio handed to the stage: a channel layout, a
// per-channel sample count, a sample format tag, and the sample data as
// either one plane per channel (planar) or a single interleaved plane.
// Frames passed to Stage.Convert are caller-owned and read-only to the
// stage.
type Frame struct {
	Layout      ChannelLayout
	SampleRate  int
	Format      malgo.FormatType
	Samples     int      // samples per channel
	Data        [][]byte // one plane per channel, or one combined plane
	Interleaved bool
}

// Channels returns the frame's channel count, derived from its layout
func (f *Frame) Channels() int {
	return f.Layout.Channels()
}

// reset detaches all sample planes so the frame never references a
// previous call's buffer. Used on the stage's reusable destination frame
// at the start of every conversion call.
func (f *Frame) reset() {
	f.Data = nil
	f.Samples = 0
	f.Layout = 0
}

// Validate checks that the frame is shaped consistently enough to convert
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("nil frame")
	}
	if f.Samples < 0 {
		return fmt.Errorf("negative sample count: %d", f.Samples)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid frame sample rate: %d", f.SampleRate)
	}
	channels := f.Channels()
	if channels == 0 {
		return fmt.Errorf("frame has no channel layout")
	}
	if f.Interleaved {
		if len(f.Data) != 1 {
			return fmt.Errorf("interleaved frame needs exactly one data plane, got %d", len(f.Data))
		}
	} else if len(f.Data) != channels {
		return fmt.Errorf("planar frame has %d planes for %d channels", len(f.Data), channels)
	}
	return nil
}

// FormatBytes returns the byte width of a sample format tag
func FormatBytes(format malgo.FormatType) int {
	switch format {
	case malgo.FormatU8:
		return 1
	case malgo.FormatS16:
		return 2
	case malgo.FormatS24:
		return 3
	case malgo.FormatS32, malgo.FormatF32:
		return 4
	default:
		return 0
	}
}

// SourceSpec describes the fixed shape of every frame a stage instance
// will receive. Immutable for the stage's lifetime.
type SourceSpec struct {
	Layout     ChannelLayout
	SampleRate int
	Format     malgo.FormatType
}

// Validate checks the source spec at stage construction
func (s SourceSpec) Validate() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("source sample rate must be positive, got %d", s.SampleRate)
	}
	if s.Layout.Channels() == 0 {
		return fmt.Errorf("source channel layout is empty")
	}
	if FormatBytes(s.Format) == 0 {
		return fmt.Errorf("unsupported source sample format: %v", s.Format)
	}
	return nil
}

// DestinationSpec describes the fixed output shape of a stage instance:
// channel count, sample rate, and the process-wide destination format.
// Immutable for the stage's lifetime.
type DestinationSpec struct {
	Layout         ChannelLayout
	SampleRate     int
	Format         malgo.FormatType
	BytesPerSample int
}

// Channels returns the destination channel count
func (d DestinationSpec) Channels() int {
	return d.Layout.Channels()
}
