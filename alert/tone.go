package alert

import (
	"math"

	"chartwatch/live"
)

const toneRate = live.PlaybackSampleRate

const (
	// Buy cue: high pitch double beep
	buyFreq   = 1000
	buyVolume = 0.5
	buyDecay  = 40

	// Sell cue: lower pitch, square wave so it reads differently by ear
	sellFreq   = 600
	sellVolume = 0.5
	sellDecay  = 40

	// Level cue: soft short ping
	levelFreq   = 1200
	levelVolume = 0.05
	levelDecay  = 20
)

func generateTick(freq, duration, volume, decay float64, square bool) []int16 {
	n := int(toneRate * duration)
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		t := float64(i) / toneRate
		envelope := math.Exp(-t * decay)
		w := math.Sin(2 * math.Pi * freq * t)
		if square {
			if w >= 0 {
				w = 1
			} else {
				w = -1
			}
		}
		samples[i] = int16(w * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(freq, beepDur, gapDur, volume, decay float64, square bool) []int16 {
	beep := generateTick(freq, beepDur, volume, decay, square)
	gap := make([]int16, int(toneRate*gapDur))
	result := make([]int16, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}

func buyTone() []int16 {
	return generateDoubleBeep(buyFreq, 0.12, 0.06, buyVolume, buyDecay, false)
}

func sellTone() []int16 {
	return generateDoubleBeep(sellFreq, 0.12, 0.06, sellVolume, sellDecay, true)
}

func levelTone() []int16 {
	return generateTick(levelFreq, 0.2, levelVolume, levelDecay, false)
}
