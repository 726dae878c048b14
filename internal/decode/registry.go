package decode

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DecoderRegistry manages audio format decoders and provides format
// detection by magic bytes with an extension fallback
type DecoderRegistry struct {
	decoders []Decoder
}

// NewDecoderRegistry creates a new empty decoder registry
func NewDecoderRegistry() *DecoderRegistry {
	slog.Debug("creating new decoder registry")
	return &DecoderRegistry{
		decoders: make([]Decoder, 0),
	}
}

// NewDefaultRegistry creates a registry with WAV, MP3, and AIFF decoders
func NewDefaultRegistry() *DecoderRegistry {
	registry := NewDecoderRegistry()
	registry.Register(NewWavDecoder())
	registry.Register(NewMp3Decoder())
	registry.Register(NewAiffDecoder())

	slog.Info("default decoder registry initialized",
		"supported_formats", registry.SupportedFormats())
	return registry
}

// Register adds a decoder to the registry
func (r *DecoderRegistry) Register(decoder Decoder) {
	if decoder == nil {
		slog.Warn("attempted to register nil decoder")
		return
	}
	slog.Debug("registering decoder", "format", decoder.FormatName())
	r.decoders = append(r.decoders, decoder)
}

// SupportedFormats returns the names of all registered formats
func (r *DecoderRegistry) SupportedFormats() []string {
	formats := make([]string, 0, len(r.decoders))
	for _, decoder := range r.decoders {
		formats = append(formats, decoder.FormatName())
	}
	return formats
}

// DetectFormat picks a decoder by filename extension only
func (r *DecoderRegistry) DetectFormat(filename string) Decoder {
	if filename == "" {
		return nil
	}
	for _, decoder := range r.decoders {
		if decoder.CanDecode(filename) {
			slog.Debug("format detected by extension",
				"filename", filename,
				"format", decoder.FormatName())
			return decoder
		}
	}
	slog.Debug("no decoder found for filename", "filename", filename)
	return nil
}

// DetectFormatWithContent picks a decoder by magic bytes first, falling
// back to extension detection
func (r *DecoderRegistry) DetectFormatWithContent(filename string, reader io.Reader) Decoder {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		slog.Error("failed to read header for magic detection", "error", err)
		return r.DetectFormat(filename)
	}
	if n == 0 {
		return r.DetectFormat(filename)
	}

	mime := strings.ToLower(mimetype.Detect(buffer[:n]).String())
	slog.Debug("magic byte detection result",
		"filename", filename,
		"detected_mime", mime,
		"bytes_analyzed", n)

	var decoder Decoder
	switch {
	case strings.Contains(mime, "wav") || mime == "audio/vnd.wave":
		decoder = r.findByFormat("WAV")
	case strings.Contains(mime, "mpeg") || strings.Contains(mime, "mp3"):
		decoder = r.findByFormat("MP3")
	case strings.Contains(mime, "aiff"):
		decoder = r.findByFormat("AIFF")
	}

	if decoder != nil {
		slog.Info("format detected by magic bytes",
			"filename", filename,
			"format", decoder.FormatName(),
			"mime_type", mime)
		return decoder
	}

	slog.Debug("magic detection inconclusive, falling back to extension", "filename", filename)
	return r.DetectFormat(filename)
}

// findByFormat finds a decoder by its format name
func (r *DecoderRegistry) findByFormat(formatName string) Decoder {
	for _, decoder := range r.decoders {
		if strings.EqualFold(decoder.FormatName(), formatName) {
			return decoder
		}
	}
	return nil
}

// DecodeFile decodes a named audio stream using the appropriate decoder
func (r *DecoderRegistry) DecodeFile(filename string, reader io.Reader) (*PCMData, error) {
	slog.Debug("starting file decode operation", "filename", filename)

	// Buffer the full content so detection does not consume the stream
	content, err := io.ReadAll(reader)
	if err != nil {
		slog.Error("failed to read file content", "filename", filename, "error", err)
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	decoder := r.DetectFormatWithContent(filename, bytes.NewReader(content))
	if decoder == nil {
		err := fmt.Errorf("unsupported audio format: %s", filename)
		slog.Error("no suitable decoder found", "filename", filename, "error", err)
		return nil, err
	}

	pcm, err := decoder.Decode(bytes.NewReader(content))
	if err != nil {
		slog.Error("decode operation failed",
			"filename", filename,
			"decoder_format", decoder.FormatName(),
			"error", err)
		return nil, err
	}

	slog.Info("file decode completed",
		"filename", filename,
		"decoder_format", decoder.FormatName(),
		"channels", pcm.Channels,
		"sample_rate", pcm.SampleRate,
		"data_size", len(pcm.Samples))

	return pcm, nil
}
