package encoder

import (
	"bytes"
	"math"
	"testing"
)

func sineBlock(n int, freq float64, rate float64) []int16 {
	block := make([]int16, n)
	for i := range block {
		block[i] = int16(math.Sin(2*math.Pi*freq*float64(i)/rate) * 16000)
	}
	return block
}

func TestFlacEncodesBlocks(t *testing.T) {
	e, err := NewFlac(24000)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if err := e.EncodeBlock(sineBlock(BlockSize, 440, 24000)); err != nil {
			t.Fatalf("block %d: %v", i, err)
		}
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	out := e.Bytes()
	if !bytes.HasPrefix(out, []byte("fLaC")) {
		t.Error("output missing FLAC magic")
	}
	if want := uint64(4 * BlockSize); e.TotalFrames() != want {
		t.Errorf("total frames: got %d, want %d", e.TotalFrames(), want)
	}
}

func TestFlacShortFinalBlock(t *testing.T) {
	e, err := NewFlac(24000)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeBlock(sineBlock(100, 440, 24000)); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if e.TotalFrames() != 100 {
		t.Errorf("total frames: got %d, want 100", e.TotalFrames())
	}
}
