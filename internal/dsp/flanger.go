package dsp

import (
	"sync"

	"github.com/cbegin/fxtrack-go/internal/lfo"
)

// Flanger mixes the input with a copy delayed by a sine-swept number of frames.
type Flanger struct {
	sampleRate int
	duration   param

	mu       sync.Mutex
	minDelay int
	maxDelay int
	buf      []float32
	pos      int
	sweep    lfo.LFO
}

// NewFlanger creates a flanger.
// duration: sweep period in seconds
// minDelay, maxDelay: delay range in frames
func NewFlanger(sampleRate int, duration float64, minDelay, maxDelay int) *Flanger {
	f := &Flanger{sampleRate: sampleRate}
	f.sweep.Set(1, 0, lfo.WaveSine)
	f.SetDuration(duration)
	f.SetDelayRange(minDelay, maxDelay)
	return f
}

// SetDuration sets the sweep period. Non-positive values freeze the sweep.
func (f *Flanger) SetDuration(seconds float64) { f.duration.Store(seconds) }
func (f *Flanger) Duration() float64           { return f.duration.Load() }

// SetDelayRange resizes the delay line to hold maxDelay frames. The history is discarded.
func (f *Flanger) SetDelayRange(minDelay, maxDelay int) {
	minDelay = max(minDelay, 1)
	maxDelay = max(maxDelay, minDelay+1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minDelay, f.maxDelay = minDelay, maxDelay
	f.buf = make([]float32, maxDelay*2)
	f.pos = 0
}

// DelayRange returns the current delay range in frames.
func (f *Flanger) DelayRange() (minDelay, maxDelay int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.minDelay, f.maxDelay
}

func (f *Flanger) Process(buf []float32) {
	sr := float64(f.sampleRate)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweep.SetPeriod(f.duration.Load())
	span := float64(f.maxDelay - 1 - f.minDelay)
	n := len(f.buf)
	for i := 0; i < frames(buf); i++ {
		d := f.minDelay + int(span*(f.sweep.Sample(sr)*0.5+0.5))
		read := f.pos - d*2
		if read < 0 {
			read += n
		}
		l, r := buf[i*2], buf[i*2+1]
		f.buf[f.pos] = l
		f.buf[f.pos+1] = r
		buf[i*2] = (f.buf[read] + l) * 0.5
		buf[i*2+1] = (f.buf[read+1] + r) * 0.5
		f.pos += 2
		if f.pos >= n {
			f.pos = 0
		}
	}
}

func (f *Flanger) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.buf)
	f.pos = 0
	f.sweep.Reset()
}
