package audio

import (
	"sync/atomic"
	"time"
)

// Clock reports the transport position that drives beatmap playback.
type Clock interface {
	Position() time.Duration
}

// ManualClock is a Clock advanced explicitly, used for offline rendering
// and tests.
type ManualClock struct {
	pos atomic.Int64
}

func (c *ManualClock) Position() time.Duration { return time.Duration(c.pos.Load()) }

func (c *ManualClock) Set(d time.Duration) { c.pos.Store(int64(d)) }

func (c *ManualClock) Advance(d time.Duration) { c.pos.Add(int64(d)) }

// FramesToDuration converts a frame count at sampleRate to a duration.
func FramesToDuration(frames int64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames * int64(time.Second) / int64(sampleRate))
}

// DurationToFrames converts d to a frame count at sampleRate, rounding down.
func DurationToFrames(d time.Duration, sampleRate int) int64 {
	return int64(d) * int64(sampleRate) / int64(time.Second)
}
