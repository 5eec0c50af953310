package live

import (
	"sync"
	"time"
)

// PlaybackSampleRate is the rate of model speech audio.
const PlaybackSampleRate = 24000

// Scheduler lines up PCM chunks on a sample-domain timeline. The playback
// device advances the clock by pulling rendered samples; Schedule places each
// chunk at max(watermark, clock) so chunks play back-to-back without gaps or
// overlaps regardless of arrival jitter.
type Scheduler struct {
	mu        sync.Mutex
	clock     int64 // samples rendered so far
	watermark int64 // next scheduled start
	chunks    []scheduledChunk
}

type scheduledChunk struct {
	start   int64
	samples []int16
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule places samples on the timeline and returns their start position.
func (s *Scheduler) Schedule(samples []int16) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.watermark
	if s.clock > start {
		start = s.clock
	}
	s.chunks = append(s.chunks, scheduledChunk{start: start, samples: samples})
	s.watermark = start + int64(len(samples))
	return start
}

// Mix places samples at the current clock without moving the watermark, so
// cues can sound over (or during pauses in) model speech.
func (s *Scheduler) Mix(samples []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, scheduledChunk{start: s.clock, samples: samples})
}

// Interrupt discards everything in flight and rewinds the watermark, so the
// next chunk schedules at the live clock. Models a barge-in from the remote
// side.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.watermark = 0
}

// Pending reports how many chunks have not finished playing.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// Remaining reports how much scheduled audio is still ahead of the clock.
func (s *Scheduler) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watermark <= s.clock {
		return 0
	}
	return time.Duration(s.watermark-s.clock) * time.Second / PlaybackSampleRate
}

// Render fills out with the next len(out) samples of the timeline, advancing
// the clock. Overlapping chunks are summed and clamped. This is the playback
// device's pull callback.
func (s *Scheduler) Render(out []int16) {
	for i := range out {
		out[i] = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lo := s.clock
	hi := lo + int64(len(out))

	live := s.chunks[:0]
	for _, c := range s.chunks {
		end := c.start + int64(len(c.samples))
		if end <= lo {
			continue // fully played, drop
		}
		from := max(c.start, lo)
		to := min(end, hi)
		for p := from; p < to; p++ {
			sum := int32(out[p-lo]) + int32(c.samples[p-c.start])
			if sum > 32767 {
				sum = 32767
			} else if sum < -32768 {
				sum = -32768
			}
			out[p-lo] = int16(sum)
		}
		live = append(live, c)
	}
	s.chunks = live
	s.clock = hi
}
