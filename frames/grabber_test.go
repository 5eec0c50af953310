package frames

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"chartwatch/audiocodec"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestEncodeJPEGScalesWideImages(t *testing.T) {
	data, err := EncodeJPEG(testImage(2048, 512))
	if err != nil {
		t.Fatal(err)
	}
	raw, err := audiocodec.Decode(data)
	if err != nil {
		t.Fatalf("payload not valid transport text: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("payload not valid JPEG: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != MaxWidth {
		t.Errorf("width: got %d, want %d", b.Dx(), MaxWidth)
	}
	if b.Dy() != 256 {
		t.Errorf("height: got %d, want 256 (aspect preserved)", b.Dy())
	}
}

func TestEncodeJPEGKeepsNarrowImages(t *testing.T) {
	data, err := EncodeJPEG(testImage(640, 480))
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := audiocodec.Decode(data)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Dx(); got != 640 {
		t.Errorf("width: got %d, want 640 unchanged", got)
	}
}

func TestEncodeJPEGEmptyImage(t *testing.T) {
	if _, err := EncodeJPEG(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Fatal("expected error for empty image")
	}
}

func TestGrabberEmitsFrames(t *testing.T) {
	src := &FakeSource{}
	src.Set(testImage(64, 64))

	var mu sync.Mutex
	var got []string
	g := NewGrabber(src, 100, func(mime, data string) {
		mu.Lock()
		got = append(got, mime)
		mu.Unlock()
	})
	g.Start()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("only %d frames after 2s", n)
		case <-time.After(5 * time.Millisecond):
		}
	}
	g.Stop()

	mu.Lock()
	defer mu.Unlock()
	for _, m := range got {
		if m != MIMEType {
			t.Errorf("mime: got %q, want %q", m, MIMEType)
		}
	}
}

func TestGrabberSkipsUnreadySource(t *testing.T) {
	src := &FakeSource{} // never set: Next returns ok=false
	fired := make(chan struct{}, 1)
	g := NewGrabber(src, 200, func(string, string) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	g.Start()

	time.Sleep(100 * time.Millisecond)
	g.Stop()

	select {
	case <-fired:
		t.Fatal("emit fired with no frame available")
	default:
	}
	if src.Calls() == 0 {
		t.Fatal("source was never polled")
	}
}

func TestGrabberStopIdempotent(t *testing.T) {
	src := &FakeSource{}
	g := NewGrabber(src, 50, func(string, string) {})
	g.Start()
	g.Stop()
	g.Stop() // should not panic or block
}
