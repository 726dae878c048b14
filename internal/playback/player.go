// Package playback plays converted PCM through the system's default
// output device. It is the optional sink behind the CLI --play flag; the
// conversion pipeline itself never depends on it.
package playback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gen2brain/malgo"
)

// Player streams interleaved S16 PCM to a playback device
type Player struct {
	ctx    *malgo.AllocatedContext
	closed bool
}

// NewPlayer initializes the audio device context
func NewPlayer() (*Player, error) {
	slog.Debug("initializing playback context")

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		slog.Debug("malgo internal", "message", message)
	})
	if err != nil {
		slog.Error("failed to initialize playback context", "error", err)
		return nil, fmt.Errorf("failed to initialize playback context: %w", err)
	}

	return &Player{ctx: ctx}, nil
}

// Play streams the PCM to the default output device and blocks until the
// data is exhausted or ctx is cancelled
func (p *Player) Play(ctx context.Context, samples []byte, channels, sampleRate int) error {
	if p.closed {
		return fmt.Errorf("player is closed")
	}
	if len(samples) == 0 {
		slog.Debug("nothing to play")
		return nil
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	slog.Debug("playback device configuration",
		"channels", channels,
		"sample_rate", sampleRate,
		"bytes", len(samples))

	reader := bytes.NewReader(samples)
	done := make(chan struct{})
	var signaled bool

	onSamples := func(out, _ []byte, framecount uint32) {
		n, err := io.ReadFull(reader, out)
		if err != nil {
			for i := n; i < len(out); i++ {
				out[i] = 0
			}
			if !signaled {
				signaled = true
				close(done)
			}
		}
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	defer device.Stop()

	slog.Info("playback started",
		"channels", channels,
		"sample_rate", sampleRate)

	select {
	case <-ctx.Done():
		slog.Debug("playback cancelled")
		return ctx.Err()
	case <-done:
		slog.Info("playback finished")
		return nil
	}
}

// Close releases the device context. Idempotent.
func (p *Player) Close() error {
	if p.closed {
		slog.Debug("player already closed")
		return nil
	}
	p.closed = true

	if err := p.ctx.Uninit(); err != nil {
		slog.Error("failed to uninitialize playback context", "error", err)
		return err
	}
	p.ctx.Free()

	slog.Debug("playback context closed")
	return nil
}
