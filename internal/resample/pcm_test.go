package resample

import (
	"math"
	"testing"

	"github.com/gen2brain/malgo"
)

func TestSampleFloatS16RoundTrip(t *testing.T) {
	values := []int16{0, 1, -1, 1000, -1000, 32767, -32768}
	plane := make([]byte, len(values)*2)
	for i, v := range values {
		plane[2*i] = byte(v)
		plane[2*i+1] = byte(v >> 8)
	}

	for i, v := range values {
		got := sampleFloat(plane, i, malgo.FormatS16)
		want := float64(v) / 32768
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("sample %d: got %f, want %f", i, got, want)
		}
	}
}

func TestSampleFloatS24SignExtension(t *testing.T) {
	// -1 in 24-bit two's complement
	plane := []byte{0xFF, 0xFF, 0xFF}
	got := sampleFloat(plane, 0, malgo.FormatS24)
	want := float64(-1) / 8388608
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("got %f, want %f", got, want)
	}
}

func TestSampleFloatF32(t *testing.T) {
	bits := math.Float32bits(0.5)
	plane := []byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
	got := sampleFloat(plane, 0, malgo.FormatF32)
	if math.Abs(got-0.5) > 1e-6 {
		t.Errorf("got %f, want 0.5", got)
	}
}

func TestReadChannelsInterleaved(t *testing.T) {
	// two stereo S16 sample frames: L=100 R=-100, L=200 R=-200
	samples := []int16{100, -100, 200, -200}
	plane := make([]byte, len(samples)*2)
	for i, v := range samples {
		plane[2*i] = byte(v)
		plane[2*i+1] = byte(v >> 8)
	}

	chans, err := readChannels([][]byte{plane}, 2, 2, malgo.FormatS16)
	if err != nil {
		t.Fatalf("readChannels failed: %v", err)
	}
	if len(chans) != 2 || len(chans[0]) != 2 {
		t.Fatalf("unexpected shape: %d channels x %d samples", len(chans), len(chans[0]))
	}
	if chans[0][0] <= 0 || chans[1][0] >= 0 {
		t.Errorf("channel ordering lost: L=%f R=%f", chans[0][0], chans[1][0])
	}
	if chans[0][1] <= chans[0][0] {
		t.Errorf("sample ordering lost: %f then %f", chans[0][0], chans[0][1])
	}
}

func TestReadChannelsPlanar(t *testing.T) {
	left := []byte{0x00, 0x10, 0x00, 0x20}  // 4096, 8192
	right := []byte{0x00, 0xF0, 0x00, 0xE0} // -4096, -8192

	chans, err := readChannels([][]byte{left, right}, 2, 2, malgo.FormatS16)
	if err != nil {
		t.Fatalf("readChannels failed: %v", err)
	}
	if chans[0][0] <= 0 || chans[1][0] >= 0 {
		t.Errorf("planar channel split wrong: L=%f R=%f", chans[0][0], chans[1][0])
	}
}

func TestReadChannelsShortPlane(t *testing.T) {
	if _, err := readChannels([][]byte{{0x01}}, 4, 2, malgo.FormatS16); err == nil {
		t.Error("expected error for undersized interleaved plane")
	}
	if _, err := readChannels([][]byte{{0x01, 0x02}}, 1, 2, malgo.FormatS16); err == nil {
		t.Error("expected error for missing planar plane")
	}
}

func TestMixChannels(t *testing.T) {
	t.Run("mono to stereo duplicates", func(t *testing.T) {
		out := mixChannels([][]float64{{0.5, -0.5}}, 2)
		if len(out) != 2 {
			t.Fatalf("got %d channels", len(out))
		}
		if out[0][0] != 0.5 || out[1][0] != 0.5 {
			t.Errorf("duplication lost: %f / %f", out[0][0], out[1][0])
		}
	})

	t.Run("stereo to mono averages", func(t *testing.T) {
		out := mixChannels([][]float64{{1.0}, {0.0}}, 1)
		if len(out) != 1 {
			t.Fatalf("got %d channels", len(out))
		}
		if math.Abs(out[0][0]-0.5) > 1e-9 {
			t.Errorf("mixdown = %f, want 0.5", out[0][0])
		}
	})

	t.Run("matching count passes through", func(t *testing.T) {
		in := [][]float64{{0.1}, {0.2}}
		out := mixChannels(in, 2)
		if &out[0][0] != &in[0][0] {
			t.Error("expected passthrough without copying")
		}
	})

	t.Run("upmix pads with silence", func(t *testing.T) {
		out := mixChannels([][]float64{{0.1}, {0.2}}, 6)
		if len(out) != 6 {
			t.Fatalf("got %d channels", len(out))
		}
		if out[5][0] != 0 {
			t.Errorf("expected silence in padded channel, got %f", out[5][0])
		}
	})
}

func TestWriteS16ClampsAndInterleaves(t *testing.T) {
	chans := [][]float64{{2.0, 0.0}, {-2.0, 0.5}}
	out := make([]byte, 8)
	writeS16(out, chans, 2)

	read := func(i int) int16 {
		return int16(out[2*i]) | int16(out[2*i+1])<<8
	}
	if read(0) != 32767 {
		t.Errorf("positive clamp: got %d", read(0))
	}
	if read(1) != -32767 {
		t.Errorf("negative clamp: got %d", read(1))
	}
	if read(2) != 0 {
		t.Errorf("zero sample: got %d", read(2))
	}
	if read(3) != 16383 {
		t.Errorf("interleave order: got %d", read(3))
	}
}
