package playback

import (
	"context"
	"testing"
	"time"
)

func TestPlayerLifecycle(t *testing.T) {
	player, err := NewPlayer()
	if err != nil {
		t.Skipf("no audio context available: %v", err)
	}

	// Close must be idempotent
	if err := player.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := player.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	// Playing on a closed player must fail cleanly
	if err := player.Play(context.Background(), []byte{0, 0}, 1, 48000); err == nil {
		t.Error("expected error playing on closed player")
	}
}

func TestPlayerEmptySamples(t *testing.T) {
	player, err := NewPlayer()
	if err != nil {
		t.Skipf("no audio context available: %v", err)
	}
	defer player.Close()

	// Empty input completes without touching a device
	if err := player.Play(context.Background(), nil, 2, 48000); err != nil {
		t.Errorf("empty playback failed: %v", err)
	}
}

func TestPlayerCancellation(t *testing.T) {
	player, err := NewPlayer()
	if err != nil {
		t.Skipf("no audio context available: %v", err)
	}
	defer player.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// One second of silence, cancelled after 50ms
	samples := make([]byte, 48000*2*2)
	err = player.Play(ctx, samples, 2, 48000)
	if err == nil {
		t.Skip("playback finished before cancellation, device too fast to assert")
	}
	if err != context.DeadlineExceeded {
		t.Errorf("expected deadline error, got: %v", err)
	}
}
