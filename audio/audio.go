// Package audio owns the platform capture and playback devices. The context is
// created once at startup and reused across scan sessions; devices are
// started/stopped, never recreated, to stay clear of host allocation limits.
package audio

type DataCallback func(data []byte, frameCount uint32)

// PullCallback fills out with interleaved S16 samples. It must always fill the
// whole slice; write zeroes when there is nothing to play.
type PullCallback func(out []int16)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type PlaybackConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	NewPlayback(config PlaybackConfig, pull PullCallback) (PlaybackDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

type PlaybackDevice interface {
	Start() error
	Stop()
	Close()
}
