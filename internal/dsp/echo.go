package dsp

import "sync"

// Echo repeats what it heard during its first pass. After one buffer length
// the output is only the delay line, and each repeat is the previous one
// scaled by feedback.
type Echo struct {
	sampleRate int
	feedback   param

	mu       sync.Mutex
	duration float64
	buf      []float32
	pos      int
	loops    int
}

// NewEcho creates an echo.
// duration: delay time in seconds
// feedback: gain of each repeat, 0..1
func NewEcho(sampleRate int, duration, feedback float64) *Echo {
	e := &Echo{sampleRate: sampleRate}
	e.SetFeedback(feedback)
	e.SetDuration(duration)
	return e
}

func (e *Echo) SetFeedback(f float64) { e.feedback.Store(clamp(f, 0, 1)) }
func (e *Echo) Feedback() float64     { return e.feedback.Load() }

// SetDuration resizes the delay line. The history is discarded.
func (e *Echo) SetDuration(seconds float64) {
	n := int(seconds * float64(e.sampleRate))
	if n < 1 {
		n = 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.duration = seconds
	e.buf = make([]float32, n*2)
	e.pos = 0
	e.loops = 0
}

func (e *Echo) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *Echo) Process(buf []float32) {
	fb := float32(e.feedback.Load())
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i < frames(buf); i++ {
		// insert one frame behind the read cursor
		ins := e.pos - 2
		if ins < 0 {
			ins += len(e.buf)
		}
		if e.loops > 0 {
			buf[i*2], buf[i*2+1] = e.buf[e.pos], e.buf[e.pos+1]
		}
		e.buf[ins] = buf[i*2] * fb
		e.buf[ins+1] = buf[i*2+1] * fb
		e.pos += 2
		if e.pos >= len(e.buf) {
			e.pos = 0
			e.loops++
		}
	}
}

func (e *Echo) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.buf)
	e.pos = 0
	e.loops = 0
}
