package live

import (
	"chartwatch/audio"
	"chartwatch/audiocodec"
)

// Player binds a Scheduler to the platform playback device. The device is
// opened once and started/stopped across sessions.
type Player struct {
	sched *Scheduler
	dev   audio.PlaybackDevice
}

func NewPlayer(ctx audio.Context) (*Player, error) {
	sched := NewScheduler()
	dev, err := ctx.NewPlayback(audio.PlaybackConfig{
		SampleRate: PlaybackSampleRate,
		Channels:   1,
	}, sched.Render)
	if err != nil {
		return nil, err
	}
	return &Player{sched: sched, dev: dev}, nil
}

func (p *Player) Start() error { return p.dev.Start() }
func (p *Player) Stop()        { p.dev.Stop() }
func (p *Player) Close()       { p.dev.Close() }

// Schedule queues one model speech chunk for gapless playback.
func (p *Player) Schedule(pcm []byte) {
	p.sched.Schedule(audiocodec.ToInt16(pcm))
}

// PlayNow mixes samples in at the live clock, bypassing the speech queue.
func (p *Player) PlayNow(samples []int16) {
	p.sched.Mix(samples)
}

// Interrupt drops all queued speech.
func (p *Player) Interrupt() {
	p.sched.Interrupt()
}

func (p *Player) Scheduler() *Scheduler { return p.sched }
