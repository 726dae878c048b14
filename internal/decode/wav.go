package decode

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/gen2brain/malgo"
	"github.com/youpy/go-wav"
)

// WavDecoder handles WAV audio format decoding
type WavDecoder struct{}

// NewWavDecoder creates a new WAV decoder instance
func NewWavDecoder() *WavDecoder {
	slog.Debug("creating new WAV decoder instance")
	return &WavDecoder{}
}

// Decode reads WAV audio data from reader and returns interleaved PCM
func (d *WavDecoder) Decode(reader io.Reader) (*PCMData, error) {
	slog.Debug("starting WAV decode operation")

	data, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read WAV data", "error", err)
		return nil, ErrReadFailure
	}
	if len(data) == 0 {
		slog.Error("empty WAV data")
		return nil, ErrInvalidData
	}

	wavReader := wav.NewReader(bytes.NewReader(data))

	format, err := wavReader.Format()
	if err != nil {
		slog.Error("failed to read WAV format", "error", err)
		return nil, ErrInvalidData
	}

	slog.Debug("WAV format detected",
		"sample_rate", format.SampleRate,
		"channels", format.NumChannels,
		"bits_per_sample", format.BitsPerSample)

	if format.NumChannels == 0 || format.SampleRate == 0 {
		slog.Error("invalid WAV format parameters",
			"channels", format.NumChannels,
			"sample_rate", format.SampleRate)
		return nil, ErrInvalidData
	}

	var formatTag malgo.FormatType
	switch format.BitsPerSample {
	case 16:
		formatTag = malgo.FormatS16
	case 24:
		formatTag = malgo.FormatS24
	case 32:
		formatTag = malgo.FormatS32
	default:
		slog.Error("unsupported WAV bit depth", "bits", format.BitsPerSample)
		return nil, ErrUnsupportedFormat
	}

	channels := int(format.NumChannels)
	width := int(format.BitsPerSample) / 8
	var raw []byte

	for {
		samples, err := wavReader.ReadSamples()
		if err != nil {
			if err == io.EOF {
				break
			}
			slog.Error("failed to read WAV samples", "error", err)
			return nil, ErrReadFailure
		}
		if len(samples) == 0 {
			break
		}

		for _, sample := range samples {
			for ch := 0; ch < channels; ch++ {
				var val int
				if ch < len(sample.Values) {
					val = sample.Values[ch]
				}
				switch width {
				case 2:
					raw = append(raw, byte(val), byte(val>>8))
				case 3:
					raw = append(raw, byte(val), byte(val>>8), byte(val>>16))
				case 4:
					raw = append(raw, byte(val), byte(val>>8), byte(val>>16), byte(val>>24))
				}
			}
		}
	}

	if len(raw) == 0 {
		slog.Error("no audio data found in WAV file")
		return nil, ErrInvalidData
	}

	pcm := &PCMData{
		Samples:    raw,
		Channels:   channels,
		SampleRate: int(format.SampleRate),
		Format:     formatTag,
	}

	slog.Info("WAV decode completed",
		"total_bytes", len(raw),
		"samples_per_channel", pcm.SampleCount(),
		"channels", pcm.Channels,
		"sample_rate", pcm.SampleRate)

	return pcm, nil
}

// CanDecode checks if this decoder can handle the given filename
func (d *WavDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".wav") || strings.HasSuffix(lower, ".wave")
}

// FormatName returns the name of the format this decoder handles
func (d *WavDecoder) FormatName() string {
	return "WAV"
}
