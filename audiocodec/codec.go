// Package audiocodec converts raw linear PCM between the transport text
// encoding used on the wire and sample formats the audio pipeline can play.
package audiocodec

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

// DecodeError wraps any malformed transport payload. A trusted transport never
// produces one, but corrupt data must not take the session down.
type DecodeError struct {
	err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("audiocodec: malformed payload: %v", e.err) }

func (e *DecodeError) Unwrap() error { return e.err }

// Decode reverses the transport text encoding into raw bytes.
func Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{err: err}
	}
	return b, nil
}

// Encode is the forward transport encoding, used for outbound frames.
// Decode(Encode(b)) == b for every byte buffer.
func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// ToFloat32 reinterprets b as 16-bit little-endian PCM and normalizes each
// sample to [-1, 1], for consumers that do sample math (level metering). The
// device playback path stays on ToInt16. An odd trailing byte is dropped
// rather than rejected.
func ToFloat32(b []byte) []float32 {
	n := len(b) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(b[i*2:]))
		out[i] = float32(s) / 32768.0
	}
	return out
}

// ToInt16 reinterprets b as 16-bit little-endian PCM samples. An odd trailing
// byte is dropped.
func ToInt16(b []byte) []int16 {
	n := len(b) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

// FromInt16 packs samples back into 16-bit little-endian PCM bytes.
func FromInt16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// Duration reports the playback time of a PCM byte buffer.
func Duration(nbytes, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := nbytes / (2 * channels)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
