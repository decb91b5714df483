package dsp

import "github.com/cbegin/fxtrack-go/internal/lfo"

// sideChainAttack is the fraction of the cycle spent ducking down.
const sideChainAttack = 0.08

// SideChain ducks the input once per cycle and releases it linearly, like a
// compressor keyed from a kick drum.
type SideChain struct {
	sampleRate int
	duration   param
	amount     param

	cycle lfo.LFO
}

// NewSideChain creates a side chain.
// duration: cycle length in seconds
// amount: maximum gain reduction, 0..1
func NewSideChain(sampleRate int, duration, amount float64) *SideChain {
	s := &SideChain{sampleRate: sampleRate}
	s.cycle.Set(1, 0, lfo.WaveSaw)
	s.SetDuration(duration)
	s.SetAmount(amount)
	return s
}

func (s *SideChain) SetDuration(seconds float64) { s.duration.Store(seconds) }
func (s *SideChain) Duration() float64           { return s.duration.Load() }
func (s *SideChain) SetAmount(a float64)         { s.amount.Store(clamp(a, 0, 1)) }
func (s *SideChain) Amount() float64             { return s.amount.Load() }

// envelope maps the cycle phase to 1 (no ducking) .. 0 (full ducking).
func envelope(phase float64) float64 {
	if phase < sideChainAttack {
		return 1 - phase/sideChainAttack
	}
	return (phase - sideChainAttack) / (1 - sideChainAttack)
}

func (s *SideChain) Process(buf []float32) {
	d := s.duration.Load()
	if d <= 0 {
		return
	}
	s.cycle.SetPeriod(d)
	amount := s.amount.Load()
	sr := float64(s.sampleRate)
	for i := 0; i < frames(buf); i++ {
		gain := float32(1 - amount*(1-envelope(s.cycle.Phase())))
		buf[i*2] *= gain
		buf[i*2+1] *= gain
		s.cycle.Advance(sr)
	}
}

func (s *SideChain) Reset() { s.cycle.Reset() }
