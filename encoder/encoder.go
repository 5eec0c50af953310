// Package encoder archives model speech as FLAC so a session's commentary can
// be reviewed after the fact.
package encoder

const (
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}
