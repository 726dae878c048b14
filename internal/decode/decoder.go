package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/gen2brain/malgo"

	"pcmflow.dev/internal/resample"
)

// Common decoder errors
var (
	ErrInvalidData       = errors.New("invalid audio data")
	ErrReadFailure       = errors.New("failed to read audio data")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// PCMData is decoded audio ready to be framed into a resample stage:
// interleaved raw PCM plus the shape needed to describe it
type PCMData struct {
	Samples    []byte           // interleaved raw PCM
	Channels   int              // number of audio channels
	SampleRate int              // sample rate in Hz
	Format     malgo.FormatType // sample format tag (e.g. malgo.FormatS16)
}

// SampleCount returns the number of samples per channel
func (p *PCMData) SampleCount() int {
	stride := p.Channels * resample.FormatBytes(p.Format)
	if stride == 0 {
		return 0
	}
	return len(p.Samples) / stride
}

// SourceSpec negotiates the canonical channel layout for the decoded
// audio and returns the resample stage source descriptor
func (p *PCMData) SourceSpec() (resample.SourceSpec, error) {
	layout, err := resample.DefaultLayout(p.Channels)
	if err != nil {
		return resample.SourceSpec{}, fmt.Errorf("decoded audio has no canonical layout: %w", err)
	}
	return resample.SourceSpec{
		Layout:     layout,
		SampleRate: p.SampleRate,
		Format:     p.Format,
	}, nil
}

// Decoder turns a compressed or containered audio stream into PCMData
type Decoder interface {
	// Decode reads audio data from reader and returns decoded PCM data
	Decode(reader io.Reader) (*PCMData, error)

	// CanDecode checks if this decoder can handle the given filename
	CanDecode(filename string) bool

	// FormatName returns the name of the format this decoder handles
	FormatName() string
}
