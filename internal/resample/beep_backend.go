package resample

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/malgo"
	"github.com/gopxl/beep"
)

// BeepBackend implements Backend with beep's quality-indexed resampler.
// Each call resamples its own frame in isolation, so contexts carry no
// cross-call history and always report a zero delay.
type BeepBackend struct {
	quality int
}

// NewBeepBackend creates a beep backend. Quality follows beep's resampler
// quality index (1..64); out-of-range values clamp to the usual 3.
func NewBeepBackend(quality int) *BeepBackend {
	if quality < 1 || quality > 64 {
		quality = 3
	}
	slog.Debug("creating beep backend", "quality", quality)
	return &BeepBackend{quality: quality}
}

// Name identifies the backend
func (b *BeepBackend) Name() string {
	return "beep"
}

// NewContext validates the requested shapes and returns a stateless
// conversion context. beep streams stereo sample pairs, so sources and
// destinations beyond two channels are rejected at init.
func (b *BeepBackend) NewContext(src SourceSpec, dst DestinationSpec) (Context, error) {
	if dst.Format != malgo.FormatS16 {
		return nil, fmt.Errorf("%w: beep backend emits S16 only, asked for %v", ErrBackendInit, dst.Format)
	}
	if FormatBytes(src.Format) == 0 {
		return nil, fmt.Errorf("%w: unsupported source format %v", ErrBackendInit, src.Format)
	}
	if src.Layout.Channels() > 2 || dst.Channels() > 2 {
		return nil, fmt.Errorf("%w: beep backend handles mono and stereo only (src %s, dst %s)",
			ErrBackendInit, src.Layout, dst.Layout)
	}

	slog.Debug("beep context initialized",
		"src_rate", src.SampleRate,
		"dst_rate", dst.SampleRate,
		"quality", b.quality)

	return &beepContext{src: src, dst: dst, quality: b.quality}, nil
}

type beepContext struct {
	src     SourceSpec
	dst     DestinationSpec
	quality int
	closed  bool
}

// Delay is always zero: each call's resampler starts fresh
func (c *beepContext) Delay(rate int) int {
	return 0
}

// ConvertFrame converts a source frame into dst's interleaved plane
func (c *beepContext) ConvertFrame(dst, src *Frame) (int, error) {
	if c.closed {
		return 0, fmt.Errorf("beep context is closed")
	}
	return c.convert(src.Data, src.Samples, src.Format, dst.Data[0], dst.Samples)
}

// ConvertBuffers converts explicit source planes into dst[0]
func (c *beepContext) ConvertBuffers(dst [][]byte, dstCap int, src [][]byte, srcSamples int) (int, error) {
	if c.closed {
		return 0, fmt.Errorf("beep context is closed")
	}
	if len(dst) == 0 {
		return 0, fmt.Errorf("no destination plane")
	}
	return c.convert(src, srcSamples, c.src.Format, dst[0], dstCap)
}

func (c *beepContext) convert(src [][]byte, srcSamples int, format malgo.FormatType, out []byte, dstCap int) (int, error) {
	if srcSamples == 0 {
		return 0, nil
	}

	planes, err := readChannels(src, srcSamples, c.src.Layout.Channels(), format)
	if err != nil {
		return 0, fmt.Errorf("reading source samples: %w", err)
	}
	// beep streams stereo pairs regardless of logical channel count
	stereo := mixChannels(planes, 2)

	pairs := make([][2]float64, srcSamples)
	for i := 0; i < srcSamples; i++ {
		pairs[i][0] = stereo[0][i]
		pairs[i][1] = stereo[1][i]
	}

	streamer := &pairStreamer{data: pairs}
	r := beep.Resample(c.quality, beep.SampleRate(c.src.SampleRate), beep.SampleRate(c.dst.SampleRate), streamer)

	resampled := make([][2]float64, 0, dstCap)
	buf := make([][2]float64, 512)
	for len(resampled) < dstCap {
		want := dstCap - len(resampled)
		if want > len(buf) {
			want = len(buf)
		}
		n, ok := r.Stream(buf[:want])
		resampled = append(resampled, buf[:n]...)
		if !ok {
			break
		}
	}

	written := len(resampled)
	if written == 0 {
		return 0, nil
	}

	chans := make([][]float64, 2)
	chans[0] = make([]float64, written)
	chans[1] = make([]float64, written)
	for i, p := range resampled {
		chans[0][i] = p[0]
		chans[1][i] = p[1]
	}

	writeS16(out, mixChannels(chans, c.dst.Channels()), written)
	return written, nil
}

// Close marks the context closed. Idempotent.
func (c *beepContext) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	slog.Debug("beep context closed")
	return nil
}

// pairStreamer streams a finite buffer of stereo sample pairs
type pairStreamer struct {
	data [][2]float64
	pos  int
}

func (s *pairStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.data) {
		return 0, false
	}
	n := copy(samples, s.data[s.pos:])
	s.pos += n
	return n, true
}

func (s *pairStreamer) Err() error {
	return nil
}
