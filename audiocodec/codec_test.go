package audiocodec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 2, 3, 17, 256, 4096} {
		b := make([]byte, n)
		rnd.Read(b)
		got, err := Decode(Encode(b))
		if err != nil {
			t.Fatalf("Decode(Encode(%d bytes)): %v", n, err)
		}
		if !bytes.Equal(got, b) {
			t.Fatalf("round trip mismatch at %d bytes", n)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode("not*base64!")
	if err == nil {
		t.Fatal("expected error for malformed input")
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
}

func TestToFloat32Normalization(t *testing.T) {
	// -32768, 0, 32767 as LE bytes
	b := []byte{0x00, 0x80, 0x00, 0x00, 0xff, 0x7f}
	f := ToFloat32(b)
	if len(f) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(f))
	}
	if f[0] != -1.0 {
		t.Errorf("min sample: got %v, want -1", f[0])
	}
	if f[1] != 0 {
		t.Errorf("zero sample: got %v, want 0", f[1])
	}
	if f[2] <= 0.999 || f[2] > 1.0 {
		t.Errorf("max sample: got %v, want ~1", f[2])
	}
}

func TestOddTrailingByteDropped(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03}
	if got := len(ToFloat32(b)); got != 1 {
		t.Fatalf("ToFloat32: expected 1 sample, got %d", got)
	}
	if got := len(ToInt16(b)); got != 1 {
		t.Fatalf("ToInt16: expected 1 sample, got %d", got)
	}
}

func TestInt16RoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768, 12345}
	out := ToInt16(FromInt16(in))
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d != %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("sample %d: %d != %d", i, out[i], in[i])
		}
	}
}

func TestDuration(t *testing.T) {
	// 24kHz mono, 1 second of 16-bit samples = 48000 bytes
	if d := Duration(48000, 24000, 1); d != time.Second {
		t.Fatalf("got %v, want 1s", d)
	}
	if d := Duration(100, 0, 1); d != 0 {
		t.Fatalf("zero rate: got %v, want 0", d)
	}
}
