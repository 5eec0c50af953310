package live

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"chartwatch/audiocodec"
	"chartwatch/log"
)

type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusActive
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusActive:
		return "active"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// CaptureSampleRate is the rate microphone audio is sent at.
const CaptureSampleRate = 16000

// Hooks are the session's outward notifications. They are called without the
// session lock held and may be nil.
type Hooks struct {
	OnStatus    func(st Status, err error)
	OnTurn      func(text string)
	OnRemaining func(d time.Duration)
}

type Config struct {
	TransportConfig
	Duration time.Duration
}

// Session drives one scan: Idle -> Connecting -> Active -> (Idle | Error).
// Error is terminal for the attempt; a new Start begins a fresh session.
type Session struct {
	dial   Dialer
	player *Player
	hooks  Hooks

	// tap, when set, sees every decoded inbound audio chunk. Used for the
	// session archive recorder.
	tap func(pcm []byte)

	mu         sync.Mutex
	status     Status
	transport  Transport
	transcript strings.Builder
	remaining  time.Duration
	countdown  chan struct{}
	startedAt  time.Time
	turns      int

	// per-turn counters, reset at each turn boundary
	turnStarted time.Time
	audioChunks int
	audioBytes  int64
	sentFrames  int
	sentBytes   int64
}

func NewSession(dial Dialer, player *Player, hooks Hooks) *Session {
	return &Session{dial: dial, player: player, hooks: hooks}
}

// SetAudioTap installs the inbound audio tap. Call before Start.
func (s *Session) SetAudioTap(fn func(pcm []byte)) {
	s.tap = fn
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Start opens the stream and runs the countdown. It returns once the session
// is Active or has failed; a failed open leaves no timers or audio running.
func (s *Session) Start(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	if s.status == StatusConnecting || s.status == StatusActive {
		s.mu.Unlock()
		return fmt.Errorf("session already running")
	}
	s.status = StatusConnecting
	s.transcript.Reset()
	s.mu.Unlock()
	s.notifyStatus(StatusConnecting, nil)

	transport, err := s.dial(ctx, cfg.TransportConfig, Events{
		OnAudio:        s.handleAudio,
		OnTranscript:   s.handleTranscript,
		OnTurnComplete: s.handleTurnComplete,
		OnInterrupted:  s.handleInterrupted,
		OnError:        s.handleError,
	})
	if err != nil {
		s.mu.Lock()
		s.status = StatusError
		s.mu.Unlock()
		s.notifyStatus(StatusError, err)
		return err
	}

	if err := s.player.Start(); err != nil {
		transport.Close()
		s.mu.Lock()
		s.status = StatusError
		s.mu.Unlock()
		s.notifyStatus(StatusError, err)
		return err
	}

	s.mu.Lock()
	s.transport = transport
	s.status = StatusActive
	s.remaining = cfg.Duration
	s.startedAt = time.Now()
	s.turnStarted = s.startedAt
	s.turns = 0
	s.countdown = make(chan struct{})
	stop := s.countdown
	s.mu.Unlock()
	s.notifyStatus(StatusActive, nil)

	go s.runCountdown(stop)
	return nil
}

func (s *Session) runCountdown(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		s.remaining -= time.Second
		r := s.remaining
		s.mu.Unlock()

		if s.hooks.OnRemaining != nil {
			s.hooks.OnRemaining(r)
		}
		if r <= 0 {
			s.Stop()
			return
		}
	}
}

// SendFrame forwards one outbound media unit. A no-op when no stream is open,
// so captures racing a stop are dropped silently.
func (s *Session) SendFrame(mimeType, data string) {
	s.mu.Lock()
	if s.status != StatusActive || s.transport == nil {
		s.mu.Unlock()
		return
	}
	t := s.transport
	s.sentFrames++
	s.sentBytes += int64(len(data))
	s.mu.Unlock()

	if err := t.Send(OutboundFrame{MIMEType: mimeType, Data: data}); err != nil {
		s.handleError(err)
	}
}

// SendAudio forwards one raw microphone chunk.
func (s *Session) SendAudio(pcm []byte) {
	s.SendFrame(fmt.Sprintf("audio/pcm;rate=%d", CaptureSampleRate), audiocodec.Encode(pcm))
}

// Stop tears the session down and returns to Idle. Idempotent; safe from any
// goroutine, including the countdown's expiry path.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.status == StatusIdle {
		s.mu.Unlock()
		return
	}
	wasActive := s.status == StatusActive
	t := s.transport
	s.transport = nil
	s.closeCountdownLocked()
	s.status = StatusIdle
	s.remaining = 0
	turns := s.turns
	elapsed := time.Since(s.startedAt)
	s.transcript.Reset()
	s.mu.Unlock()

	s.player.Interrupt()
	s.player.Stop()
	if t != nil {
		t.Close()
	}
	if wasActive {
		log.SessionEnd(turns, elapsed)
	}
	s.notifyStatus(StatusIdle, nil)
}

func (s *Session) closeCountdownLocked() {
	if s.countdown != nil {
		select {
		case <-s.countdown:
		default:
			close(s.countdown)
		}
	}
}

func (s *Session) handleAudio(data string) {
	pcm, err := audiocodec.Decode(data)
	if err != nil {
		// Corrupt chunk: drop it, playback continues with the next one.
		log.Warnf("inbound audio decode error: %v", err)
		return
	}
	s.mu.Lock()
	active := s.status == StatusActive
	if active {
		s.audioChunks++
		s.audioBytes += int64(len(pcm))
	}
	s.mu.Unlock()
	if !active {
		return
	}
	s.player.Schedule(pcm)
	if s.tap != nil {
		s.tap(pcm)
	}
}

func (s *Session) handleTranscript(text string) {
	s.mu.Lock()
	if s.status == StatusActive {
		s.transcript.WriteString(text)
	}
	s.mu.Unlock()
}

func (s *Session) handleTurnComplete() {
	s.mu.Lock()
	if s.status != StatusActive {
		s.mu.Unlock()
		return
	}
	text := s.transcript.String()
	s.transcript.Reset()
	s.turns++

	now := time.Now()
	m := log.TurnMetricsData{
		AudioS:         audiocodec.Duration(int(s.audioBytes), PlaybackSampleRate, 1).Seconds(),
		AudioChunks:    s.audioChunks,
		SentFrames:     s.sentFrames,
		SentKB:         float64(s.sentBytes) / 1024,
		TranscriptLen:  len(text),
		TurnDurationMs: float64(now.Sub(s.turnStarted).Milliseconds()),
	}
	s.audioChunks, s.audioBytes, s.sentFrames, s.sentBytes = 0, 0, 0, 0
	s.turnStarted = now
	s.mu.Unlock()

	log.TurnMetrics(m)
	if text != "" {
		log.AnalysisText(text)
	}
	if s.hooks.OnTurn != nil {
		s.hooks.OnTurn(text)
	}
}

func (s *Session) handleInterrupted() {
	s.player.Interrupt()
}

func (s *Session) handleError(err error) {
	s.mu.Lock()
	if s.status != StatusActive && s.status != StatusConnecting {
		s.mu.Unlock()
		return
	}
	s.status = StatusError
	t := s.transport
	s.transport = nil
	s.closeCountdownLocked()
	s.mu.Unlock()

	s.player.Interrupt()
	s.player.Stop()
	if t != nil {
		t.Close()
	}
	log.Errorf("session error: %v", err)
	s.notifyStatus(StatusError, err)
}

func (s *Session) notifyStatus(st Status, err error) {
	if s.hooks.OnStatus != nil {
		s.hooks.OnStatus(st, err)
	}
}
