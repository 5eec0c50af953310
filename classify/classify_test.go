package classify

import (
	"math/rand"
	"testing"
)

func newTest(min int) *Interpreter {
	return NewInterpreter(min, rand.New(rand.NewSource(42)))
}

func TestSignalPriority(t *testing.T) {
	tests := []struct {
		text string
		want Signal
	}{
		{"Market structure broken, BUY now but SELL if it fails", SignalBuy},
		{"SELL signal confirmed, cancel previous orders", SignalSell},
		{"CANCEL the pending order", SignalCancel},
		{"Market is choppy, no clear setup", SignalWait},
		{"strong buy setup forming", SignalBuy}, // case-insensitive
		{"", SignalWait},
	}
	for _, tt := range tests {
		it := newTest(90)
		if got := it.Interpret(tt.text).Signal; got != tt.want {
			t.Errorf("Interpret(%q).Signal = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestWaitConfidenceZero(t *testing.T) {
	it := newTest(90)
	r := it.Interpret("nothing actionable here")
	if r.Signal != SignalWait {
		t.Fatalf("signal: got %v, want WAIT", r.Signal)
	}
	if r.Confidence != 0 {
		t.Errorf("confidence: got %d, want 0", r.Confidence)
	}
}

func TestConfidenceBounds(t *testing.T) {
	it := newTest(90)
	for i := 0; i < 200; i++ {
		r := it.Interpret("BUY signal")
		if r.Confidence < 90 || r.Confidence > 100 {
			t.Fatalf("confidence %d out of [90, 100]", r.Confidence)
		}
	}
}

func TestDeterministicGivenSameSeed(t *testing.T) {
	a := newTest(85)
	b := newTest(85)
	for i := 0; i < 20; i++ {
		ra := a.Interpret("BULLISH structure, BUY")
		rb := b.Interpret("BULLISH structure, BUY")
		if !readoutsEqual(ra, rb) {
			t.Fatalf("turn %d diverged: %+v vs %+v", i, ra, rb)
		}
	}
}

func readoutsEqual(a, b Readout) bool {
	if a.Signal != b.Signal || a.Trend != b.Trend || a.Confidence != b.Confidence ||
		a.Analysis != b.Analysis || a.EmergencyAlert != b.EmergencyAlert || a.LevelAlert != b.LevelAlert {
		return false
	}
	if len(a.Checklist) != len(b.Checklist) {
		return false
	}
	for i := range a.Checklist {
		if a.Checklist[i] != b.Checklist[i] {
			return false
		}
	}
	return true
}

func TestTrendCarriesForward(t *testing.T) {
	it := newTest(90)

	r := it.Interpret("Market looks BULLISH, wait for entry")
	if r.Trend != TrendBullish {
		t.Fatalf("turn 1 trend: got %v, want BULLISH", r.Trend)
	}

	r = it.Interpret("Price consolidating near resistance")
	if r.Trend != TrendBullish {
		t.Errorf("turn 2 trend: got %v, want BULLISH carried forward", r.Trend)
	}

	r = it.Interpret("BEARISH divergence on RSI, SELL")
	if r.Trend != TrendBearish {
		t.Errorf("turn 3 trend: got %v, want BEARISH", r.Trend)
	}
}

func TestTrendStartsUnknown(t *testing.T) {
	it := newTest(90)
	if r := it.Interpret("quiet market"); r.Trend != TrendUnknown {
		t.Errorf("trend: got %v, want UNKNOWN", r.Trend)
	}
}

func TestLevelAlertMarkerStripped(t *testing.T) {
	it := newTest(90)
	r := it.Interpret("[LEVEL_ALERT] Price testing support")
	if !r.LevelAlert {
		t.Error("level alert not detected")
	}
	if r.Analysis != "Price testing support" {
		t.Errorf("analysis: got %q, want marker stripped and trimmed", r.Analysis)
	}

	r = it.Interpret("Price testing support")
	if r.LevelAlert {
		t.Error("level alert detected without marker")
	}
}

func TestEmergencyAlertFlag(t *testing.T) {
	it := newTest(90)
	if !it.Interpret("BUY now").EmergencyAlert {
		t.Error("BUY should set emergency alert")
	}
	if it.Interpret("CANCEL order").EmergencyAlert {
		t.Error("CANCEL should not set emergency alert")
	}
	if it.Interpret("hold on").EmergencyAlert {
		t.Error("WAIT should not set emergency alert")
	}
}

func TestChecklistVerificationIsSticky(t *testing.T) {
	it := newTest(90)

	r := it.Interpret("Institutional order flow visible, volume rising")
	verified := map[string]bool{}
	for _, c := range r.Checklist {
		verified[c.ID] = c.Verified
	}
	if !verified["structure"] || !verified["volatility"] {
		t.Fatalf("expected structure and volatility verified, got %+v", r.Checklist)
	}
	if verified["levels"] || verified["indicators"] {
		t.Fatalf("unexpected verification: %+v", r.Checklist)
	}

	// Later turns never revert verified items.
	r = it.Interpret("quiet market")
	for _, c := range r.Checklist {
		if (c.ID == "structure" || c.ID == "volatility") && !c.Verified {
			t.Errorf("%s reverted to pending", c.ID)
		}
	}

	r = it.Interpret("Golden ratio retracement holding, multi-timeframe alignment")
	for _, c := range r.Checklist {
		if c.ID == "levels" && !c.Verified {
			t.Error("levels not verified by GOLDEN keyword")
		}
	}
}

func TestMinConfidenceClamped(t *testing.T) {
	it := NewInterpreter(150, rand.New(rand.NewSource(1)))
	r := it.Interpret("BUY")
	if r.Confidence != 100 {
		t.Errorf("confidence with clamped floor: got %d, want 100", r.Confidence)
	}
	it = NewInterpreter(-5, rand.New(rand.NewSource(1)))
	r = it.Interpret("BUY")
	if r.Confidence < 0 || r.Confidence > 100 {
		t.Errorf("confidence: got %d, want within [0, 100]", r.Confidence)
	}
}
