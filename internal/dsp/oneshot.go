package dsp

import "sync/atomic"

// OneShot mixes a pre-decoded stereo sample into the stream each time it is
// triggered. Triggering while playing restarts the sample.
type OneShot struct {
	sample []float32
	gain   param
	// cursor is the next frame to play, -1 when idle
	cursor atomic.Int64
}

// NewOneShot wraps interleaved stereo sample data.
func NewOneShot(sample []float32, gain float64) *OneShot {
	o := &OneShot{sample: sample}
	o.gain.Store(gain)
	o.cursor.Store(-1)
	return o
}

// Trigger starts the sample from the beginning. Safe from any goroutine.
func (o *OneShot) Trigger() {
	if len(o.sample) >= 2 {
		o.cursor.Store(0)
	}
}

func (o *OneShot) SetGain(g float64) { o.gain.Store(g) }
func (o *OneShot) Gain() float64     { return o.gain.Load() }

// Playing reports whether the sample is still sounding.
func (o *OneShot) Playing() bool { return o.cursor.Load() >= 0 }

func (o *OneShot) Process(buf []float32) {
	start := o.cursor.Load()
	if start < 0 {
		return
	}
	g := float32(o.gain.Load())
	total := int64(len(o.sample) / 2)
	pos := start
	for i := 0; i < frames(buf) && pos < total; i++ {
		buf[i*2] += o.sample[pos*2] * g
		buf[i*2+1] += o.sample[pos*2+1] * g
		pos++
	}
	next := pos
	if pos >= total {
		next = -1
	}
	// a Trigger during this block wins
	o.cursor.CompareAndSwap(start, next)
}

func (o *OneShot) Reset() { o.cursor.Store(-1) }
