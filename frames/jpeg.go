package frames

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"chartwatch/audiocodec"
)

// EncodeJPEG scales img down to at most MaxWidth preserving aspect ratio and
// returns the JPEG bytes as transport text. Images already narrow enough are
// encoded as-is.
func EncodeJPEG(img image.Image) (string, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return "", fmt.Errorf("frames: empty image %dx%d", w, h)
	}

	if w > MaxWidth {
		scaled := image.NewRGBA(image.Rect(0, 0, MaxWidth, h*MaxWidth/w))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)
		img = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return "", fmt.Errorf("frames: jpeg encode: %w", err)
	}
	return audiocodec.Encode(buf.Bytes()), nil
}
