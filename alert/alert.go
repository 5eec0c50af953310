// Package alert fires the audible and spoken cues for classified signals,
// debounced so a repeated signal does not re-fire.
package alert

import (
	"sync"
	"time"

	"chartwatch/classify"
	"chartwatch/log"
)

const (
	buyPhrase   = "Strong Buy Signal Identified! Abhi entry lein."
	sellPhrase  = "Strong Sell Signal Identified! Exit or sell karein."
	levelPhrase = "Price level test ho raha hai."
)

// DefaultMarkerDuration is how long the on-screen cross marker stays up.
const DefaultMarkerDuration = 4 * time.Second

// Alerter tracks the last seen signal and fires once per change to BUY or
// SELL. The mute flag is consulted at fire time, so muting mid-session
// silences the very next alert.
type Alerter struct {
	voice    Voice
	playTone func(samples []int16)
	onMarker func(sig classify.Signal, visible bool)

	MarkerDuration time.Duration

	mu          sync.Mutex
	muted       bool
	last        classify.Signal
	markerTimer *time.Timer
}

// New wires the alerter to a voice, a tone sink and an optional marker hook.
func New(voice Voice, playTone func([]int16), onMarker func(classify.Signal, bool)) *Alerter {
	return &Alerter{
		voice:          voice,
		playTone:       playTone,
		onMarker:       onMarker,
		MarkerDuration: DefaultMarkerDuration,
		last:           classify.SignalWait,
	}
}

func (a *Alerter) SetMuted(muted bool) {
	a.mu.Lock()
	a.muted = muted
	a.mu.Unlock()
}

func (a *Alerter) Muted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.muted
}

// Observe records the turn's signal and fires the emergency alert when it
// changed to BUY or SELL. The last-seen signal updates every turn, including
// WAIT and CANCEL.
func (a *Alerter) Observe(sig classify.Signal) {
	a.mu.Lock()
	fire := sig != a.last && (sig == classify.SignalBuy || sig == classify.SignalSell)
	a.last = sig
	muted := a.muted
	a.mu.Unlock()

	if !fire {
		return
	}

	log.Alert(string(sig))
	a.showMarker(sig)

	if muted {
		return
	}
	if sig == classify.SignalBuy {
		a.voice.Speak(buyPhrase)
		a.playTone(buyTone())
	} else {
		a.voice.Speak(sellPhrase)
		a.playTone(sellTone())
	}
}

// Level fires the price-level cue. Not debounced: it may repeat every turn
// while the marker persists in the transcript.
func (a *Alerter) Level() {
	a.mu.Lock()
	muted := a.muted
	a.mu.Unlock()
	if muted {
		return
	}
	log.Alert("level")
	a.playTone(levelTone())
	a.voice.Speak(levelPhrase)
}

// Cancel stops any in-flight speech. Called on session teardown.
func (a *Alerter) Cancel() {
	a.voice.Cancel()
}

func (a *Alerter) showMarker(sig classify.Signal) {
	if a.onMarker == nil {
		return
	}
	a.onMarker(sig, true)

	a.mu.Lock()
	if a.markerTimer != nil {
		a.markerTimer.Stop()
	}
	a.markerTimer = time.AfterFunc(a.MarkerDuration, func() {
		a.onMarker(sig, false)
	})
	a.mu.Unlock()
}
