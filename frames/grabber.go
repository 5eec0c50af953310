package frames

import (
	"image"
	"sync"
	"time"

	"chartwatch/log"
)

// DefaultFPS matches the scan cadence the analysis model is tuned for.
const DefaultFPS = 1.5

// EmitFunc receives one encoded frame. Data is transport text.
type EmitFunc func(mimeType, data string)

// Grabber samples a Source at a fixed rate and hands encoded frames to emit.
// Encoding runs on a single worker; when a tick lands while the worker is
// still busy the frame is dropped, so a slow encode can never back up the
// capture clock.
type Grabber struct {
	src      Source
	interval time.Duration
	emit     EmitFunc

	jobs chan image.Image
	stop chan struct{}
	done chan struct{}

	mu      sync.Mutex
	sent    int
	dropped int
}

func NewGrabber(src Source, fps float64, emit EmitFunc) *Grabber {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Grabber{
		src:      src,
		interval: time.Duration(float64(time.Second) / fps),
		emit:     emit,
	}
}

func (g *Grabber) Start() {
	g.jobs = make(chan image.Image, 1)
	g.stop = make(chan struct{})
	g.done = make(chan struct{})

	go g.encodeLoop()
	go g.tickLoop()
}

// Stop halts sampling and waits for an in-flight encode to finish. Safe to
// call more than once.
func (g *Grabber) Stop() {
	if g.stop == nil {
		return
	}
	select {
	case <-g.stop:
	default:
		close(g.stop)
	}
	<-g.done
}

// Stats reports frames emitted and frames dropped since Start.
func (g *Grabber) Stats() (sent, dropped int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sent, g.dropped
}

func (g *Grabber) tickLoop() {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	defer close(g.jobs)

	for {
		select {
		case <-g.stop:
			return
		case <-ticker.C:
		}

		img, ok := g.src.Next()
		if !ok {
			continue // source not ready yet
		}

		select {
		case g.jobs <- img:
		default:
			g.mu.Lock()
			g.dropped++
			g.mu.Unlock()
		}
	}
}

func (g *Grabber) encodeLoop() {
	defer close(g.done)
	for img := range g.jobs {
		data, err := EncodeJPEG(img)
		if err != nil {
			log.Errorf("frame encode error: %v", err)
			continue
		}
		g.emit(MIMEType, data)
		g.mu.Lock()
		g.sent++
		g.mu.Unlock()
	}
}
