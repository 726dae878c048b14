package decode

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/youpy/go-wav"
)

// WriteWav encodes interleaved 16-bit PCM as a WAV stream. The sample
// data length must be a whole number of sample frames.
func WriteWav(w io.Writer, samples []byte, channels, sampleRate int) error {
	if channels <= 0 || sampleRate <= 0 {
		return fmt.Errorf("invalid WAV shape: %d channels at %d Hz", channels, sampleRate)
	}

	stride := channels * 2
	if len(samples)%stride != 0 {
		return fmt.Errorf("sample data %d bytes is not a whole number of %d-byte frames", len(samples), stride)
	}
	numSamples := len(samples) / stride

	slog.Debug("writing WAV output",
		"samples_per_channel", numSamples,
		"channels", channels,
		"sample_rate", sampleRate,
		"bytes", len(samples))

	writer := wav.NewWriter(w, uint32(numSamples), uint16(channels), uint32(sampleRate), 16)
	if _, err := writer.Write(samples); err != nil {
		slog.Error("failed to write WAV data", "error", err)
		return fmt.Errorf("failed to write WAV data: %w", err)
	}

	slog.Info("WAV output written",
		"samples_per_channel", numSamples,
		"channels", channels,
		"sample_rate", sampleRate)
	return nil
}
