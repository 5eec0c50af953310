package live

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"chartwatch/audiocodec"
	"chartwatch/log"
)

// genaiTransport adapts a Gemini Live session to the Transport interface. The
// wire carries raw bytes; transport text is decoded on send and re-encoded on
// receive so everything above this layer stays on the text encoding.
type genaiTransport struct {
	session *genai.Session
	cancel  context.CancelFunc
}

// NewGenaiDialer returns a Dialer backed by the Gemini Live API.
func NewGenaiDialer(client *genai.Client) Dialer {
	return func(ctx context.Context, cfg TransportConfig, ev Events) (Transport, error) {
		connectCfg := &genai.LiveConnectConfig{
			ResponseModalities: []genai.Modality{genai.ModalityAudio},
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: cfg.SystemInstruction}},
			},
			OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
		}
		if cfg.Voice != "" {
			connectCfg.SpeechConfig = &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: cfg.Voice},
				},
			}
		}

		session, err := client.Live.Connect(ctx, cfg.Model, connectCfg)
		if err != nil {
			return nil, fmt.Errorf("live connect: %w", err)
		}

		recvCtx, cancel := context.WithCancel(context.Background())
		t := &genaiTransport{session: session, cancel: cancel}
		go t.receive(recvCtx, ev)

		if ev.OnOpen != nil {
			ev.OnOpen()
		}
		return t, nil
	}
}

func (t *genaiTransport) Send(frame OutboundFrame) error {
	data, err := audiocodec.Decode(frame.Data)
	if err != nil {
		return err
	}
	// A write failure here is fatal to the session; the caller escalates it.
	return t.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{MIMEType: frame.MIMEType, Data: data},
	})
}

func (t *genaiTransport) Close() error {
	t.cancel()
	return t.session.Close()
}

func (t *genaiTransport) receive(ctx context.Context, ev Events) {
	for {
		msg, err := t.session.Receive()
		if err != nil {
			if ctx.Err() != nil {
				// Closed locally; not a transport failure.
				if ev.OnClose != nil {
					ev.OnClose()
				}
				return
			}
			log.Errorf("live receive error: %v", err)
			if ev.OnError != nil {
				ev.OnError(err)
			}
			return
		}

		sc := msg.ServerContent
		if sc == nil {
			continue
		}

		if sc.Interrupted && ev.OnInterrupted != nil {
			ev.OnInterrupted()
		}

		if sc.ModelTurn != nil && ev.OnAudio != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					ev.OnAudio(audiocodec.Encode(part.InlineData.Data))
				}
			}
		}

		if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" && ev.OnTranscript != nil {
			ev.OnTranscript(sc.OutputTranscription.Text)
		}

		if sc.TurnComplete && ev.OnTurnComplete != nil {
			ev.OnTurnComplete()
		}
	}
}
