package dsp

import "sync"

// TapeStop slows playback down to a halt over its duration, then stays silent.
type TapeStop struct {
	sampleRate int

	mu       sync.Mutex
	duration float64
	buf      []float32
	position int
	readPos  float64
}

func NewTapeStop(sampleRate int, duration float64) *TapeStop {
	t := &TapeStop{sampleRate: sampleRate}
	t.SetDuration(duration)
	return t
}

// SetDuration resizes the recording buffer and restarts the stop.
func (t *TapeStop) SetDuration(seconds float64) {
	n := max(int(seconds*float64(t.sampleRate)), 1)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.duration = seconds
	t.buf = make([]float32, n*2)
	t.position = 0
	t.readPos = 0
}

func (t *TapeStop) Duration() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

func (t *TapeStop) Process(buf []float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	length := len(t.buf) / 2
	for i := 0; i < frames(buf); i++ {
		rate := 1 - float64(t.position)/float64(length)
		if rate <= 0 {
			buf[i*2], buf[i*2+1] = 0, 0
			continue
		}
		t.buf[t.position*2] = buf[i*2]
		t.buf[t.position*2+1] = buf[i*2+1]

		k := int(t.readPos) * 2
		buf[i*2] = t.buf[k]
		buf[i*2+1] = t.buf[k+1]

		t.readPos += rate
		t.position++
	}
}

func (t *TapeStop) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.buf)
	t.position = 0
	t.readPos = 0
}
