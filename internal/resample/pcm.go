package resample

import (
	"fmt"
	"math"

	"github.com/gen2brain/malgo"
)

// sampleFloat reads sample i from a contiguous plane and normalizes it to
// the [-1, 1] range
func sampleFloat(plane []byte, i int, format malgo.FormatType) float64 {
	switch format {
	case malgo.FormatU8:
		return (float64(plane[i]) - 128) / 128
	case malgo.FormatS16:
		v := int16(plane[2*i]) | int16(plane[2*i+1])<<8
		return float64(v) / 32768
	case malgo.FormatS24:
		v := int32(plane[3*i]) | int32(plane[3*i+1])<<8 | int32(plane[3*i+2])<<16
		// sign-extend 24 bits
		v = v << 8 >> 8
		return float64(v) / 8388608
	case malgo.FormatS32:
		v := int32(plane[4*i]) | int32(plane[4*i+1])<<8 | int32(plane[4*i+2])<<16 | int32(plane[4*i+3])<<24
		return float64(v) / 2147483648
	case malgo.FormatF32:
		bits := uint32(plane[4*i]) | uint32(plane[4*i+1])<<8 | uint32(plane[4*i+2])<<16 | uint32(plane[4*i+3])<<24
		return float64(math.Float32frombits(bits))
	default:
		return 0
	}
}

// readChannels deinterleaves/copies source planes into one float64 slice
// per source channel. src holds either one plane per channel or a single
// interleaved plane.
func readChannels(src [][]byte, samples, channels int, format malgo.FormatType) ([][]float64, error) {
	width := FormatBytes(format)
	if width == 0 {
		return nil, fmt.Errorf("unsupported sample format: %v", format)
	}

	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = make([]float64, samples)
	}

	if len(src) == 1 && channels > 1 {
		// interleaved: channels consecutive per sample frame
		plane := src[0]
		if len(plane) < samples*channels*width {
			return nil, fmt.Errorf("interleaved plane too short: %d bytes for %d samples x %d channels", len(plane), samples, channels)
		}
		for i := 0; i < samples; i++ {
			for ch := 0; ch < channels; ch++ {
				out[ch][i] = sampleFloat(plane, i*channels+ch, format)
			}
		}
		return out, nil
	}

	if len(src) < channels {
		return nil, fmt.Errorf("planar source has %d planes for %d channels", len(src), channels)
	}
	for ch := 0; ch < channels; ch++ {
		if len(src[ch]) < samples*width {
			return nil, fmt.Errorf("plane %d too short: %d bytes for %d samples", ch, len(src[ch]), samples)
		}
		for i := 0; i < samples; i++ {
			out[ch][i] = sampleFloat(src[ch], i, format)
		}
	}
	return out, nil
}

// mixChannels adapts a per-channel sample set to the destination channel
// count: mono duplicates outward, multi-channel sources average down to
// mono, and otherwise channels map pairwise with silence padding.
func mixChannels(in [][]float64, dstChannels int) [][]float64 {
	srcChannels := len(in)
	if srcChannels == dstChannels {
		return in
	}

	samples := 0
	if srcChannels > 0 {
		samples = len(in[0])
	}
	out := make([][]float64, dstChannels)

	switch {
	case srcChannels == 1:
		for ch := range out {
			out[ch] = in[0]
		}
	case dstChannels == 1:
		mixed := make([]float64, samples)
		for _, plane := range in {
			for i, v := range plane {
				mixed[i] += v
			}
		}
		scale := 1 / float64(srcChannels)
		for i := range mixed {
			mixed[i] *= scale
		}
		out[0] = mixed
	default:
		for ch := range out {
			if ch < srcChannels {
				out[ch] = in[ch]
			} else {
				out[ch] = make([]float64, samples)
			}
		}
	}
	return out
}

// writeS16 interleaves n samples per channel into out as signed 16-bit
// little-endian PCM, clamping out-of-range values
func writeS16(out []byte, chans [][]float64, n int) {
	channels := len(chans)
	for i := 0; i < n; i++ {
		for ch := 0; ch < channels; ch++ {
			v := chans[ch][i]
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			s := int16(v * 32767)
			idx := (i*channels + ch) * 2
			out[idx] = byte(s)
			out[idx+1] = byte(s >> 8)
		}
	}
}
