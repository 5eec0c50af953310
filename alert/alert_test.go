package alert

import (
	"sync"
	"testing"
	"time"

	"chartwatch/classify"
)

type fakeVoice struct {
	mu      sync.Mutex
	spoken  []string
	cancels int
}

func (f *fakeVoice) Speak(text string) {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
}

func (f *fakeVoice) Cancel() {
	f.mu.Lock()
	f.cancels++
	f.mu.Unlock()
}

func (f *fakeVoice) Spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.spoken))
	copy(out, f.spoken)
	return out
}

type toneSink struct {
	mu    sync.Mutex
	tones [][]int16
}

func (s *toneSink) play(samples []int16) {
	s.mu.Lock()
	s.tones = append(s.tones, samples)
	s.mu.Unlock()
}

func (s *toneSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tones)
}

func TestDebounce(t *testing.T) {
	v := &fakeVoice{}
	s := &toneSink{}
	a := New(v, s.play, nil)

	// WAIT -> BUY -> BUY -> SELL fires exactly twice.
	for _, sig := range []classify.Signal{
		classify.SignalWait,
		classify.SignalBuy,
		classify.SignalBuy,
		classify.SignalSell,
	} {
		a.Observe(sig)
	}

	if got := s.count(); got != 2 {
		t.Errorf("tones fired: got %d, want 2", got)
	}
	spoken := v.Spoken()
	if len(spoken) != 2 || spoken[0] != buyPhrase || spoken[1] != sellPhrase {
		t.Errorf("spoken: got %v", spoken)
	}
}

func TestWaitAndCancelNeverFire(t *testing.T) {
	v := &fakeVoice{}
	s := &toneSink{}
	a := New(v, s.play, nil)

	a.Observe(classify.SignalWait)
	a.Observe(classify.SignalCancel)
	a.Observe(classify.SignalWait)

	if s.count() != 0 || len(v.Spoken()) != 0 {
		t.Error("alert fired for non-actionable signal")
	}
}

func TestRefireAfterIntermediateSignal(t *testing.T) {
	v := &fakeVoice{}
	s := &toneSink{}
	a := New(v, s.play, nil)

	a.Observe(classify.SignalBuy)
	a.Observe(classify.SignalWait)
	a.Observe(classify.SignalBuy)

	// The WAIT in between updates the last-seen signal, so BUY fires again.
	if got := s.count(); got != 2 {
		t.Errorf("tones fired: got %d, want 2", got)
	}
}

func TestMuteCheckedAtFireTime(t *testing.T) {
	v := &fakeVoice{}
	s := &toneSink{}
	a := New(v, s.play, nil)

	a.SetMuted(true)
	a.Observe(classify.SignalBuy)
	if s.count() != 0 || len(v.Spoken()) != 0 {
		t.Fatal("muted alert still sounded")
	}

	// Still debounced while muted: the signal was recorded.
	a.SetMuted(false)
	a.Observe(classify.SignalBuy)
	if s.count() != 0 {
		t.Error("repeated BUY fired after unmute")
	}

	a.Observe(classify.SignalSell)
	if s.count() != 1 {
		t.Error("SELL did not fire after unmute")
	}
}

func TestMarkerSelfClears(t *testing.T) {
	v := &fakeVoice{}
	s := &toneSink{}

	type event struct {
		sig     classify.Signal
		visible bool
	}
	var mu sync.Mutex
	var events []event
	a := New(v, s.play, func(sig classify.Signal, visible bool) {
		mu.Lock()
		events = append(events, event{sig, visible})
		mu.Unlock()
	})
	a.MarkerDuration = 30 * time.Millisecond

	a.Observe(classify.SignalBuy)

	deadline := time.After(time.Second)
	for {
		mu.Lock()
		n := len(events)
		mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("marker never cleared")
		case <-time.After(5 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if events[0] != (event{classify.SignalBuy, true}) {
		t.Errorf("first event: got %+v, want visible BUY", events[0])
	}
	if events[1] != (event{classify.SignalBuy, false}) {
		t.Errorf("second event: got %+v, want cleared BUY", events[1])
	}
}

func TestMarkerShownEvenWhenMuted(t *testing.T) {
	var mu sync.Mutex
	shown := false
	a := New(&fakeVoice{}, (&toneSink{}).play, func(_ classify.Signal, visible bool) {
		mu.Lock()
		if visible {
			shown = true
		}
		mu.Unlock()
	})
	a.SetMuted(true)
	a.Observe(classify.SignalSell)

	mu.Lock()
	defer mu.Unlock()
	if !shown {
		t.Error("marker suppressed by mute; mute gates sound only")
	}
}

func TestLevelNotDebounced(t *testing.T) {
	v := &fakeVoice{}
	s := &toneSink{}
	a := New(v, s.play, nil)

	a.Level()
	a.Level()
	a.Level()

	if got := s.count(); got != 3 {
		t.Errorf("level tones: got %d, want 3", got)
	}

	a.SetMuted(true)
	a.Level()
	if got := s.count(); got != 3 {
		t.Error("muted level alert still sounded")
	}
}

func TestTonesDiffer(t *testing.T) {
	b, sl := buyTone(), sellTone()
	if len(b) == 0 || len(sl) == 0 {
		t.Fatal("empty tone")
	}
	same := len(b) == len(sl)
	if same {
		for i := range b {
			if b[i] != sl[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("buy and sell tones are identical")
	}
}
