package decode

import (
	"testing"

	"github.com/gen2brain/malgo"
)

func stereoPCM(samples int) *PCMData {
	raw := make([]byte, samples*2*2)
	for i := range raw {
		raw[i] = byte(i)
	}
	return &PCMData{
		Samples:    raw,
		Channels:   2,
		SampleRate: 44100,
		Format:     malgo.FormatS16,
	}
}

func TestFramerEmitsFixedFramesWithShortTail(t *testing.T) {
	framer, err := NewFramer(stereoPCM(2500), 1024)
	if err != nil {
		t.Fatalf("NewFramer failed: %v", err)
	}

	var sizes []int
	for frame := framer.Next(); frame != nil; frame = framer.Next() {
		sizes = append(sizes, frame.Samples)
		if frame.SampleRate != 44100 {
			t.Errorf("frame rate = %d, want 44100", frame.SampleRate)
		}
		if !frame.Interleaved || len(frame.Data) != 1 {
			t.Error("frames should carry a single interleaved plane")
		}
		if len(frame.Data[0]) != frame.Samples*2*2 {
			t.Errorf("plane size %d does not match %d samples", len(frame.Data[0]), frame.Samples)
		}
	}

	want := []int{1024, 1024, 452}
	if len(sizes) != len(want) {
		t.Fatalf("got %d frames %v, want %v", len(sizes), sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("frame %d has %d samples, want %d", i, sizes[i], want[i])
		}
	}
	if framer.Remaining() != 0 {
		t.Errorf("Remaining() = %d after exhaustion, want 0", framer.Remaining())
	}
}

func TestFramerFramesCoverSourceExactlyOnce(t *testing.T) {
	pcm := stereoPCM(300)
	framer, err := NewFramer(pcm, 128)
	if err != nil {
		t.Fatalf("NewFramer failed: %v", err)
	}

	covered := 0
	for frame := framer.Next(); frame != nil; frame = framer.Next() {
		// frames alias the decoded buffer, in order, without gaps
		start := covered * 4
		if &frame.Data[0][0] != &pcm.Samples[start] {
			t.Fatalf("frame at sample %d does not alias source buffer", covered)
		}
		covered += frame.Samples
	}
	if covered != 300 {
		t.Errorf("frames covered %d samples, want 300", covered)
	}
}

func TestFramerValidation(t *testing.T) {
	if _, err := NewFramer(stereoPCM(10), 0); err == nil {
		t.Error("expected error for zero frame size")
	}

	bad := stereoPCM(10)
	bad.Channels = 7
	if _, err := NewFramer(bad, 128); err == nil {
		t.Error("expected error for channel count without canonical layout")
	}
}
