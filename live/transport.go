// Package live owns the lifetime of one realtime analysis session: the
// bidirectional model stream, gapless playback of returned speech, and
// transcript accumulation up to each turn boundary.
package live

import "context"

// OutboundFrame is one unit of outbound media. Data is transport text; the
// mime type tells the remote side how to interpret the decoded bytes.
type OutboundFrame struct {
	MIMEType string
	Data     string
}

// Events are the inbound callbacks a transport delivers. All callbacks are
// invoked from the transport's receive goroutine, never concurrently with
// each other.
type Events struct {
	OnOpen         func()
	OnAudio        func(data string)
	OnTranscript   func(text string)
	OnTurnComplete func()
	OnInterrupted  func()
	OnError        func(err error)
	OnClose        func()
}

// TransportConfig carries the model-facing session parameters.
type TransportConfig struct {
	Model             string
	SystemInstruction string
	Voice             string
}

// Transport is the narrow surface the session needs from the remote stream.
type Transport interface {
	Send(frame OutboundFrame) error
	Close() error
}

// Dialer opens a transport. The session treats dial failure as terminal for
// the attempt.
type Dialer func(ctx context.Context, cfg TransportConfig, ev Events) (Transport, error)
