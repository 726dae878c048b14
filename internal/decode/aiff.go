package decode

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/gen2brain/malgo"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

// AiffDecoder handles AIFF audio format decoding
type AiffDecoder struct{}

// NewAiffDecoder creates a new AIFF decoder instance
func NewAiffDecoder() *AiffDecoder {
	slog.Debug("creating new AIFF decoder instance")
	return &AiffDecoder{}
}

// FormatName returns the name of the format this decoder handles
func (d *AiffDecoder) FormatName() string {
	return "AIFF"
}

// CanDecode checks if this decoder can handle the given filename
func (d *AiffDecoder) CanDecode(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".aiff") || strings.HasSuffix(lower, ".aif")
}

// Decode reads AIFF audio data from reader and returns interleaved PCM
func (d *AiffDecoder) Decode(reader io.Reader) (*PCMData, error) {
	slog.Debug("starting AIFF decode operation")

	data, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read AIFF data", "error", err)
		return nil, ErrReadFailure
	}
	if len(data) == 0 {
		slog.Error("empty AIFF data")
		return nil, ErrInvalidData
	}

	decoder := aiff.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		slog.Error("invalid AIFF file format")
		return nil, ErrInvalidData
	}

	sampleRate := int(decoder.SampleRate)
	channels := int(decoder.NumChans)
	bitDepth := int(decoder.SampleBitDepth())

	slog.Debug("AIFF format detected",
		"sample_rate", sampleRate,
		"channels", channels,
		"bits_per_sample", bitDepth)

	if channels == 0 || sampleRate == 0 || bitDepth == 0 {
		slog.Error("invalid AIFF format parameters",
			"channels", channels,
			"sample_rate", sampleRate,
			"bit_depth", bitDepth)
		return nil, ErrInvalidData
	}

	var formatTag malgo.FormatType
	switch bitDepth {
	case 16:
		formatTag = malgo.FormatS16
	case 24:
		formatTag = malgo.FormatS24
	case 32:
		formatTag = malgo.FormatS32
	default:
		slog.Error("unsupported AIFF bit depth", "bits", bitDepth)
		return nil, ErrUnsupportedFormat
	}

	pcmBuffer, err := decoder.FullPCMBuffer()
	if err != nil {
		slog.Error("failed to read AIFF samples", "error", err)
		return nil, ErrReadFailure
	}
	if pcmBuffer == nil || len(pcmBuffer.Data) == 0 {
		slog.Error("no audio data found in AIFF file")
		return nil, ErrInvalidData
	}

	raw := intBufferBytes(pcmBuffer, bitDepth)

	pcm := &PCMData{
		Samples:    raw,
		Channels:   channels,
		SampleRate: sampleRate,
		Format:     formatTag,
	}

	slog.Info("AIFF decode completed",
		"total_bytes", len(raw),
		"samples_per_channel", pcm.SampleCount(),
		"channels", channels,
		"sample_rate", sampleRate)

	return pcm, nil
}

// intBufferBytes serializes a go-audio IntBuffer as little-endian PCM at
// the given bit depth
func intBufferBytes(pcmBuffer *audio.IntBuffer, bitDepth int) []byte {
	width := bitDepth / 8
	raw := make([]byte, 0, len(pcmBuffer.Data)*width)

	for _, sample := range pcmBuffer.Data {
		switch bitDepth {
		case 16:
			v := int16(sample)
			raw = append(raw, byte(v), byte(v>>8))
		case 24:
			v := int32(sample)
			raw = append(raw, byte(v), byte(v>>8), byte(v>>16))
		case 32:
			v := int32(sample)
			raw = append(raw, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		}
	}
	return raw
}
