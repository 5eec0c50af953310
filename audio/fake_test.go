package audio

import "testing"

func TestFakeCaptureStopBeforeStart(t *testing.T) {
	fctx := NewFakeContext(nil, 16000, false)
	dev, err := fctx.NewCapture(nil, CaptureConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatal(err)
	}
	// Teardown paths run Stop unconditionally, even when Start never happened.
	dev.Stop()
	dev.Stop()
}

func TestFakeCaptureStopIdempotentAfterStart(t *testing.T) {
	fctx := NewFakeContext(make([]byte, fakeFrameSize*fakeBytesPerFrame), 16000, false)
	dev, err := fctx.NewCapture(nil, CaptureConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatal(err)
	}
	var got int
	dev.SetCallback(func(data []byte, _ uint32) { got += len(data) })
	if err := dev.Start(); err != nil {
		t.Fatal(err)
	}
	dev.Stop()
	dev.Stop()
	if got == 0 {
		t.Error("canned buffer never fed through callback")
	}
}
