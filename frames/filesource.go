package frames

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileSource replays still images from a directory in name order, one per
// tick. With loop set it wraps around; otherwise it sticks on the last frame.
// Useful for testing the pipeline against saved chart screenshots.
type FileSource struct {
	paths []string
	loop  bool

	mu  sync.Mutex
	pos int
}

func NewFileSource(dir string, loop bool) (*FileSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("frames: no images in %s", dir)
	}
	sort.Strings(paths)
	return &FileSource{paths: paths, loop: loop}, nil
}

func (f *FileSource) Next() (image.Image, bool) {
	f.mu.Lock()
	i := f.pos
	if f.pos < len(f.paths)-1 {
		f.pos++
	} else if f.loop {
		f.pos = 0
	}
	f.mu.Unlock()

	file, err := os.Open(f.paths[i])
	if err != nil {
		return nil, false
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, false
	}
	return img, true
}

func (f *FileSource) Close() error { return nil }
