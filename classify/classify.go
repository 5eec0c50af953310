// Package classify derives the trading read-out from each completed model
// turn. Interpretation is plain keyword matching on the transcript; it renders
// the model's commentary, it is not a trading engine. A phrase like "do not
// buy" still matches BUY; that ambiguity is inherent to the approach.
package classify

import (
	"math/rand"
	"strings"
	"time"
)

type Signal string

const (
	SignalBuy    Signal = "BUY"
	SignalSell   Signal = "SELL"
	SignalCancel Signal = "CANCEL"
	SignalWait   Signal = "WAIT"
)

type Trend string

const (
	TrendBullish  Trend = "BULLISH"
	TrendBearish  Trend = "BEARISH"
	TrendSideways Trend = "SIDEWAYS"
	TrendUnknown  Trend = "UNKNOWN"
)

// LevelAlertMarker is the token the model emits when price is testing a
// tracked level. It is stripped from the display text.
const LevelAlertMarker = "[LEVEL_ALERT]"

// Check is one item of the technical confirmation checklist. Once verified it
// never reverts to pending.
type Check struct {
	ID       string
	Label    string
	Verified bool
}

func DefaultChecklist() []Check {
	return []Check{
		{ID: "structure", Label: "Institutional Market Structure"},
		{ID: "levels", Label: "Golden Fibonacci Levels"},
		{ID: "indicators", Label: "Multi-Timeframe RSI/MACD"},
		{ID: "volatility", Label: "Volume Spread Analysis"},
	}
}

// Readout is the derived, display-facing interpretation of one turn.
type Readout struct {
	Signal         Signal
	Trend          Trend
	Confidence     int
	Analysis       string
	EmergencyAlert bool
	LevelAlert     bool
	Checklist      []Check
}

// Interpreter classifies turn transcripts. It carries the detected trend and
// checklist state forward between turns; signal and confidence are computed
// fresh every turn.
type Interpreter struct {
	MinConfidence int

	rng       *rand.Rand
	trend     Trend
	checklist []Check
}

// NewInterpreter builds an interpreter with the admin-configured confidence
// floor. rng may be nil; tests pass a seeded source for determinism.
func NewInterpreter(minConfidence int, rng *rand.Rand) *Interpreter {
	if minConfidence < 0 {
		minConfidence = 0
	}
	if minConfidence > 100 {
		minConfidence = 100
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Interpreter{
		MinConfidence: minConfidence,
		rng:           rng,
		trend:         TrendUnknown,
		checklist:     DefaultChecklist(),
	}
}

func (it *Interpreter) Trend() Trend { return it.trend }

func (it *Interpreter) Checklist() []Check {
	out := make([]Check, len(it.checklist))
	copy(out, it.checklist)
	return out
}

// Interpret classifies one completed turn. Signal priority is BUY, SELL,
// CANCEL, WAIT: the earliest listed keyword present wins.
func (it *Interpreter) Interpret(text string) Readout {
	up := strings.ToUpper(text)

	sig := SignalWait
	switch {
	case strings.Contains(up, "BUY"):
		sig = SignalBuy
	case strings.Contains(up, "SELL"):
		sig = SignalSell
	case strings.Contains(up, "CANCEL"):
		sig = SignalCancel
	}

	switch {
	case strings.Contains(up, string(TrendBullish)):
		it.trend = TrendBullish
	case strings.Contains(up, string(TrendBearish)):
		it.trend = TrendBearish
		// otherwise the previous trend carries forward; it never resets to
		// UNKNOWN once established
	}

	confidence := 0
	if sig != SignalWait {
		confidence = it.MinConfidence + it.rng.Intn(101-it.MinConfidence)
	}

	for i := range it.checklist {
		if it.checklist[i].Verified {
			continue
		}
		if strings.Contains(up, leadingKeyword(it.checklist[i].Label)) {
			it.checklist[i].Verified = true
		}
	}

	return Readout{
		Signal:         sig,
		Trend:          it.trend,
		Confidence:     confidence,
		Analysis:       strings.TrimSpace(strings.ReplaceAll(text, LevelAlertMarker, "")),
		EmergencyAlert: sig == SignalBuy || sig == SignalSell,
		LevelAlert:     strings.Contains(up, LevelAlertMarker),
		Checklist:      it.Checklist(),
	}
}

func leadingKeyword(label string) string {
	word, _, _ := strings.Cut(label, " ")
	return strings.ToUpper(word)
}
