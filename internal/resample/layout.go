package resample

import (
	"fmt"
	"log/slog"
	"math/bits"
)

// ChannelLayout is a bitmask describing the count and semantic arrangement
// of audio channels, matching the conventional FFmpeg-style layout masks.
type ChannelLayout uint64

// Canonical channel layouts
const (
	LayoutMono     ChannelLayout = 0x4
	LayoutStereo   ChannelLayout = 0x3
	Layout2Point1  ChannelLayout = 0xB
	LayoutSurround ChannelLayout = 0x7
	Layout5Point1  ChannelLayout = 0x60F
	Layout7Point1  ChannelLayout = 0x63F
)

// Channels returns the number of channels in the layout
func (l ChannelLayout) Channels() int {
	return bits.OnesCount64(uint64(l))
}

// String returns the conventional name of the layout
func (l ChannelLayout) String() string {
	switch l {
	case LayoutMono:
		return "mono"
	case LayoutStereo:
		return "stereo"
	case Layout2Point1:
		return "2.1"
	case LayoutSurround:
		return "surround"
	case Layout5Point1:
		return "5.1"
	case Layout7Point1:
		return "7.1"
	default:
		return fmt.Sprintf("custom(%d ch)", l.Channels())
	}
}

// DefaultLayout returns the canonical channel layout for a channel count.
// Downstream consumers assume canonical channel ordering, so a requested
// count of 2 always negotiates to stereo rather than an arbitrary
// two-channel arrangement.
func DefaultLayout(channels int) (ChannelLayout, error) {
	var layout ChannelLayout

	switch channels {
	case 1:
		layout = LayoutMono
	case 2:
		layout = LayoutStereo
	case 3:
		layout = LayoutSurround
	case 6:
		layout = Layout5Point1
	case 8:
		layout = Layout7Point1
	default:
		slog.Error("no canonical layout for channel count", "channels", channels)
		return 0, fmt.Errorf("no canonical channel layout for %d channels", channels)
	}

	slog.Debug("negotiated channel layout",
		"requested_channels", channels,
		"layout", layout.String())

	return layout, nil
}
