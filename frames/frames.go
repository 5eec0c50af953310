// Package frames turns a stream of chart images into transport-ready JPEG
// payloads at a fixed scan rate.
package frames

import "image"

// A Source hands out the most recent chart frame. Next returns ok=false while
// no frame has arrived yet; the grabber skips that tick.
type Source interface {
	Next() (image.Image, bool)
	Close() error
}

const (
	// Frames wider than this are scaled down before encoding to keep the
	// payload small enough for the realtime channel.
	MaxWidth = 1024

	JPEGQuality = 70

	MIMEType = "image/jpeg"
)
