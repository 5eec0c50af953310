package live

import (
	"context"
	"sync"
)

// FakeTransport records outbound frames and lets tests drive inbound events
// through the captured Events.
type FakeTransport struct {
	Events Events

	mu      sync.Mutex
	sent    []OutboundFrame
	closed  int
	sendErr error
}

// NewFakeDialer returns a dialer that always hands out t, wiring the
// session's events into it.
func NewFakeDialer(t *FakeTransport) Dialer {
	return func(_ context.Context, _ TransportConfig, ev Events) (Transport, error) {
		t.Events = ev
		if ev.OnOpen != nil {
			ev.OnOpen()
		}
		return t, nil
	}
}

// FailDialer always fails with err.
func FailDialer(err error) Dialer {
	return func(context.Context, TransportConfig, Events) (Transport, error) {
		return nil, err
	}
}

func (t *FakeTransport) Send(frame OutboundFrame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	t.sent = append(t.sent, frame)
	return nil
}

func (t *FakeTransport) Close() error {
	t.mu.Lock()
	t.closed++
	t.mu.Unlock()
	return nil
}

func (t *FakeTransport) FailSends(err error) {
	t.mu.Lock()
	t.sendErr = err
	t.mu.Unlock()
}

func (t *FakeTransport) Sent() []OutboundFrame {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]OutboundFrame, len(t.sent))
	copy(out, t.sent)
	return out
}

func (t *FakeTransport) Closed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
