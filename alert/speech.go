package alert

import (
	"context"
	"sync"
	"time"

	"google.golang.org/genai"

	"chartwatch/audiocodec"
	"chartwatch/log"
)

// Voice speaks short alert phrases. Speak returns immediately; a new Speak
// cancels whatever the previous one was still producing.
type Voice interface {
	Speak(text string)
	Cancel()
}

// GenaiVoice synthesizes phrases through the TTS model and hands the PCM to
// play (the shared output device).
type GenaiVoice struct {
	client *genai.Client
	model  string
	voice  string
	play   func(samples []int16)

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewGenaiVoice(client *genai.Client, model, voiceName string, play func([]int16)) *GenaiVoice {
	return &GenaiVoice{client: client, model: model, voice: voiceName, play: play}
}

func (v *GenaiVoice) Speak(text string) {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	v.cancel = cancel
	v.mu.Unlock()

	go func() {
		defer cancel()
		resp, err := v.client.Models.GenerateContent(ctx, v.model, genai.Text(text), &genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: v.voice},
				},
			},
		})
		if err != nil {
			log.Warnf("speech synthesis error: %v", err)
			return
		}
		if ctx.Err() != nil {
			return // cancelled while generating, discard
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					v.play(audiocodec.ToInt16(part.InlineData.Data))
					return
				}
			}
		}
	}()
}

func (v *GenaiVoice) Cancel() {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.mu.Unlock()
}
