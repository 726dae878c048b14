package resample

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/malgo"
	resampler "github.com/tphakala/go-audio-resampler"
)

// PolyphaseBackend implements Backend on top of the pure-Go polyphase
// resampler. It carries real filter history, so its contexts report a
// nonzero delay once frames start flowing.
type PolyphaseBackend struct {
	preset resampler.QualityPreset
}

// NewPolyphaseBackend creates a polyphase backend with the named quality
// preset (quick, low, medium, high, veryhigh). Unknown names fall back to
// high.
func NewPolyphaseBackend(quality string) *PolyphaseBackend {
	preset := resampler.QualityHigh
	switch quality {
	case "quick":
		preset = resampler.QualityQuick
	case "low":
		preset = resampler.QualityLow
	case "medium":
		preset = resampler.QualityMedium
	case "high":
		preset = resampler.QualityHigh
	case "veryhigh":
		preset = resampler.QualityVeryHigh
	default:
		slog.Warn("unknown polyphase quality, using high", "quality", quality)
	}

	slog.Debug("creating polyphase backend", "quality", quality)
	return &PolyphaseBackend{preset: preset}
}

// Name identifies the backend
func (b *PolyphaseBackend) Name() string {
	return "polyphase"
}

// NewContext allocates and initializes a polyphase conversion context
func (b *PolyphaseBackend) NewContext(src SourceSpec, dst DestinationSpec) (Context, error) {
	if dst.Format != malgo.FormatS16 {
		return nil, fmt.Errorf("%w: polyphase backend emits S16 only, asked for %v", ErrBackendInit, dst.Format)
	}
	if FormatBytes(src.Format) == 0 {
		return nil, fmt.Errorf("%w: unsupported source format %v", ErrBackendInit, src.Format)
	}

	cfg := &resampler.Config{
		InputRate:  float64(src.SampleRate),
		OutputRate: float64(dst.SampleRate),
		Channels:   dst.Channels(),
		Quality:    resampler.QualitySpec{Preset: b.preset},
	}

	r, err := resampler.New(cfg)
	if err != nil {
		slog.Error("polyphase resampler rejected configuration",
			"src_rate", src.SampleRate,
			"dst_rate", dst.SampleRate,
			"channels", dst.Channels(),
			"error", err)
		return nil, fmt.Errorf("%w: %v", ErrBackendInit, err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: polyphase resampler returned no instance", ErrBackendAllocation)
	}

	slog.Debug("polyphase context initialized",
		"src_rate", src.SampleRate,
		"dst_rate", dst.SampleRate,
		"channels", dst.Channels(),
		"latency_samples", r.GetLatency())

	return &polyphaseContext{src: src, dst: dst, r: r}, nil
}

// polyphaseContext owns one streaming resampler instance and the running
// consumed/emitted counters that back the delay report
type polyphaseContext struct {
	src SourceSpec
	dst DestinationSpec
	r   resampler.Resampler

	consumed int64 // source samples fed in
	emitted  int64 // destination samples produced

	// redeliver marks that the last frame conversion consumed its input
	// into filter history while emitting nothing. The next buffer-level
	// call carries the same input and must not feed it twice.
	redeliver bool

	closed bool
}

// Delay reports samples held in filter history, expressed at rate:
// everything consumed so far minus everything emitted so far.
func (c *polyphaseContext) Delay(rate int) int {
	in := float64(c.consumed) * float64(rate) / float64(c.src.SampleRate)
	out := float64(c.emitted) * float64(rate) / float64(c.dst.SampleRate)
	d := int(in - out)
	if d < 0 {
		d = 0
	}
	return d
}

// ConvertFrame converts a source frame into dst's interleaved plane
func (c *polyphaseContext) ConvertFrame(dst, src *Frame) (int, error) {
	if c.closed {
		return 0, fmt.Errorf("polyphase context is closed")
	}
	written, err := c.convert(src.Data, src.Samples, src.Format, dst.Data[0], dst.Samples)
	if err != nil {
		return 0, err
	}
	c.redeliver = written == 0 && src.Samples > 0
	return written, nil
}

// ConvertBuffers converts explicit source planes into dst[0]. When the
// input was already consumed by a preceding zero-output frame call, the
// input is not fed again; there is simply nothing drainable yet.
func (c *polyphaseContext) ConvertBuffers(dst [][]byte, dstCap int, src [][]byte, srcSamples int) (int, error) {
	if c.closed {
		return 0, fmt.Errorf("polyphase context is closed")
	}
	if len(dst) == 0 {
		return 0, fmt.Errorf("no destination plane")
	}
	if c.redeliver {
		c.redeliver = false
		slog.Debug("input already in filter history, nothing to drain yet",
			"src_samples", srcSamples)
		return 0, nil
	}
	return c.convert(src, srcSamples, c.src.Format, dst[0], dstCap)
}

// convert is the shared conversion core: deinterleave, adapt channels,
// resample, interleave to S16.
func (c *polyphaseContext) convert(src [][]byte, srcSamples int, format malgo.FormatType, out []byte, dstCap int) (int, error) {
	if srcSamples == 0 {
		return 0, nil
	}

	planes, err := readChannels(src, srcSamples, c.src.Layout.Channels(), format)
	if err != nil {
		return 0, fmt.Errorf("reading source samples: %w", err)
	}
	mixed := mixChannels(planes, c.dst.Channels())

	resampled, err := c.r.ProcessMulti(mixed)
	if err != nil {
		return 0, fmt.Errorf("polyphase processing: %w", err)
	}

	written := 0
	if len(resampled) > 0 {
		written = len(resampled[0])
	}
	c.consumed += int64(srcSamples)
	c.emitted += int64(written)

	if written == 0 {
		return 0, nil
	}
	if written > dstCap {
		return 0, fmt.Errorf("destination capacity %d below %d produced samples", dstCap, written)
	}

	writeS16(out, resampled, written)
	return written, nil
}

// Close releases the resampler state. Idempotent.
func (c *polyphaseContext) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.r.Reset()
	slog.Debug("polyphase context closed",
		"consumed_samples", c.consumed,
		"emitted_samples", c.emitted)
	return nil
}
