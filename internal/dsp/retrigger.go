package dsp

import "sync"

// Retrigger captures one slice of input and replays it in a loop.
type Retrigger struct {
	sampleRate int
	loopCount  param
	gating     param
	mix        param

	mu           sync.Mutex
	duration     float64
	buf          []float32
	sliceFrames  int
	currentFrame int
	currentLoop  int
}

// NewRetrigger creates a retrigger.
// duration: slice length in seconds
// loopCount: replays before a new slice is captured, 0 loops forever
// gating: fraction of each slice that is muted, 0..1
func NewRetrigger(sampleRate int, duration float64, loopCount int, gating float64) *Retrigger {
	r := &Retrigger{sampleRate: sampleRate}
	r.SetLoopCount(loopCount)
	r.SetGating(gating)
	r.SetMix(1)
	r.SetDuration(duration)
	return r
}

// SetDuration resizes the capture buffer and restarts capture.
func (r *Retrigger) SetDuration(seconds float64) {
	n := max(int(float64(r.sampleRate)*seconds), 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.duration = seconds
	r.sliceFrames = n
	r.buf = make([]float32, n*2)
	r.currentFrame = 0
	r.currentLoop = 0
}

func (r *Retrigger) Duration() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration
}

func (r *Retrigger) SetLoopCount(n int)  { r.loopCount.Store(float64(max(n, 0))) }
func (r *Retrigger) SetGating(g float64) { r.gating.Store(clamp(g, 0, 1)) }
func (r *Retrigger) SetMix(m float64)    { r.mix.Store(clamp(m, 0, 1)) }

func (r *Retrigger) Mix() float64 { return r.mix.Load() }

func (r *Retrigger) Process(buf []float32) {
	loopCount := int(r.loopCount.Load())
	gating := r.gating.Load()
	mix := float32(r.mix.Load())
	dry := 1 - mix
	r.mu.Lock()
	defer r.mu.Unlock()
	gateFrames := int(float64(r.sampleRate) * r.duration * (1 - gating))
	for i := 0; i < frames(buf); i++ {
		k := r.currentFrame * 2
		if r.currentLoop == 0 {
			if r.currentFrame > gateFrames {
				r.buf[k], r.buf[k+1] = 0, 0
			} else {
				r.buf[k], r.buf[k+1] = buf[i*2], buf[i*2+1]
			}
		}
		buf[i*2] = r.buf[k]*mix + buf[i*2]*dry
		buf[i*2+1] = r.buf[k+1]*mix + buf[i*2+1]*dry

		r.currentFrame++
		if r.currentFrame >= r.sliceFrames {
			r.currentFrame = 0
			r.currentLoop++
			if loopCount != 0 && r.currentLoop >= loopCount {
				r.currentLoop = 0
			}
		}
	}
}

func (r *Retrigger) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.buf)
	r.currentFrame = 0
	r.currentLoop = 0
}

// Gate periodically mutes the input. The first (1-gating) of every period
// passes unchanged and the rest is silent.
type Gate struct {
	sampleRate int
	duration   param
	gating     param

	position int
}

func NewGate(sampleRate int, duration, gating float64) *Gate {
	g := &Gate{sampleRate: sampleRate}
	g.SetDuration(duration)
	g.SetGating(gating)
	return g
}

func (g *Gate) SetDuration(seconds float64) { g.duration.Store(seconds) }
func (g *Gate) Duration() float64           { return g.duration.Load() }
func (g *Gate) SetGating(v float64)         { g.gating.Store(clamp(v, 0, 1)) }
func (g *Gate) Gating() float64             { return g.gating.Load() }

func (g *Gate) Process(buf []float32) {
	length := int(float64(g.sampleRate) * g.duration.Load())
	if length < 1 {
		return
	}
	open := int(float64(length) * (1 - g.gating.Load()))
	for i := 0; i < frames(buf); i++ {
		if g.position >= length {
			g.position = 0
		}
		if g.position >= open {
			buf[i*2], buf[i*2+1] = 0, 0
		}
		g.position++
	}
}

func (g *Gate) Reset() { g.position = 0 }
