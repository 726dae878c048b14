package decode

import (
	"fmt"
	"log/slog"

	"pcmflow.dev/internal/resample"
)

// Framer chops decoded interleaved PCM into fixed-size source frames for
// a resample stage. Frames reference slices of the decoded buffer rather
// than copies; the stage treats source frames as read-only.
type Framer struct {
	pcm          *PCMData
	layout       resample.ChannelLayout
	frameSamples int
	stride       int // bytes per sample frame across all channels
	pos          int // samples consumed so far
	total        int // samples per channel in the source
}

// NewFramer creates a framer emitting frames of frameSamples samples per
// channel. The final frame may be shorter.
func NewFramer(pcm *PCMData, frameSamples int) (*Framer, error) {
	if frameSamples <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %d", frameSamples)
	}
	layout, err := resample.DefaultLayout(pcm.Channels)
	if err != nil {
		return nil, fmt.Errorf("cannot frame decoded audio: %w", err)
	}
	width := resample.FormatBytes(pcm.Format)
	if width == 0 {
		return nil, fmt.Errorf("cannot frame unsupported format %v", pcm.Format)
	}

	framer := &Framer{
		pcm:          pcm,
		layout:       layout,
		frameSamples: frameSamples,
		stride:       pcm.Channels * width,
		total:        pcm.SampleCount(),
	}

	slog.Debug("framer created",
		"total_samples", framer.total,
		"frame_samples", frameSamples,
		"channels", pcm.Channels)

	return framer, nil
}

// Next returns the next source frame, or nil when the PCM is exhausted
func (f *Framer) Next() *resample.Frame {
	if f.pos >= f.total {
		return nil
	}

	samples := f.frameSamples
	if remaining := f.total - f.pos; samples > remaining {
		samples = remaining
	}

	start := f.pos * f.stride
	end := start + samples*f.stride
	frame := &resample.Frame{
		Layout:      f.layout,
		SampleRate:  f.pcm.SampleRate,
		Format:      f.pcm.Format,
		Samples:     samples,
		Data:        [][]byte{f.pcm.Samples[start:end]},
		Interleaved: true,
	}

	f.pos += samples
	return frame
}

// Remaining returns the samples per channel not yet emitted
func (f *Framer) Remaining() int {
	if f.pos >= f.total {
		return 0
	}
	return f.total - f.pos
}
