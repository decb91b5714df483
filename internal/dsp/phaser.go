package dsp

import "github.com/cbegin/fxtrack-go/internal/lfo"

const phaserStages = 6

// allPass is a first order all pass stage.
type allPass struct {
	a1 float32
	za float32
}

func (a *allPass) update(in float32) float32 {
	y := in*-a.a1 + a.za
	a.za = y*a.a1 + in
	return y
}

// Phaser sweeps six cascaded all pass stages per channel between two frequencies.
type Phaser struct {
	sampleRate int
	duration   param
	feedback   param
	minFreq    param
	maxFreq    param

	stages [2][phaserStages]allPass
	fbBuf  [2]float32
	sweep  lfo.LFO
}

// NewPhaser creates a phaser.
// duration: sweep period in seconds
// feedback: 0..1
// minFreq, maxFreq: sweep range in Hz
func NewPhaser(sampleRate int, duration, feedback, minFreq, maxFreq float64) *Phaser {
	p := &Phaser{sampleRate: sampleRate}
	p.sweep.Set(1, 0, lfo.WaveSine)
	p.SetDuration(duration)
	p.SetFeedback(feedback)
	p.SetFrequencyRange(minFreq, maxFreq)
	return p
}

func (p *Phaser) SetDuration(seconds float64) { p.duration.Store(seconds) }
func (p *Phaser) Duration() float64           { return p.duration.Load() }

// SetFeedback clamps f to 0..1.
func (p *Phaser) SetFeedback(f float64) { p.feedback.Store(clamp(f, 0, 1)) }
func (p *Phaser) Feedback() float64     { return p.feedback.Load() }

func (p *Phaser) SetFrequencyRange(minFreq, maxFreq float64) {
	p.minFreq.Store(minFreq)
	p.maxFreq.Store(maxFreq)
}

func (p *Phaser) FrequencyRange() (minFreq, maxFreq float64) {
	return p.minFreq.Load(), p.maxFreq.Load()
}

func (p *Phaser) Process(buf []float32) {
	sr := float64(p.sampleRate)
	p.sweep.SetPeriod(p.duration.Load())
	fb := float32(p.feedback.Load())
	minFreq := p.minFreq.Load()
	delta := p.maxFreq.Load() - minFreq
	for i := 0; i < frames(buf); i++ {
		d := float32((minFreq + delta*(p.sweep.Sample(sr)+1)/2) / sr)
		a1 := (1 - d) / (1 + d)
		for ch := 0; ch < 2; ch++ {
			stages := &p.stages[ch]
			x := buf[i*2+ch]
			y := x + p.fbBuf[ch]*fb
			for j := phaserStages - 1; j >= 0; j-- {
				stages[j].a1 = a1
				y = stages[j].update(y)
			}
			p.fbBuf[ch] = y
			buf[i*2+ch] = x + y
		}
	}
}

func (p *Phaser) Reset() {
	p.stages = [2][phaserStages]allPass{}
	p.fbBuf = [2]float32{}
	p.sweep.Reset()
}
