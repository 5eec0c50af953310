package frames

import (
	"image"
	"sync"
)

// FakeSource serves whatever image tests set, counting Next calls.
type FakeSource struct {
	mu    sync.Mutex
	img   image.Image
	calls int
}

func (f *FakeSource) Set(img image.Image) {
	f.mu.Lock()
	f.img = img
	f.mu.Unlock()
}

func (f *FakeSource) Next() (image.Image, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.img == nil {
		return nil, false
	}
	return f.img, true
}

func (f *FakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeSource) Close() error { return nil }
