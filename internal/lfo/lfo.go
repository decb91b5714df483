package lfo

import "math"

// Waveform constants.
const (
	WaveSine     = 0
	WaveSaw      = 1
	WaveSquare   = 2
	WaveTriangle = 3
)

// LFO is a low-frequency oscillator that sweeps effect parameters once per period.
// It is owned by the audio goroutine of the effect that embeds it.
type LFO struct {
	depth    float64 // output is in [-depth, +depth]
	rateHz   float64 // oscillation rate in Hz
	waveform int
	phase    float64 // current phase [0, 1)
}

// Set configures the LFO parameters.
func (l *LFO) Set(depth, rateHz float64, waveform int) {
	l.depth = depth
	l.rateHz = rateHz
	if waveform < WaveSine || waveform > WaveTriangle {
		waveform = WaveSine
	}
	l.waveform = waveform
}

// SetPeriod sets the rate so that one cycle lasts seconds. Non-positive
// periods stop the oscillator.
func (l *LFO) SetPeriod(seconds float64) {
	if seconds <= 0 {
		l.rateHz = 0
		return
	}
	l.rateHz = 1 / seconds
}

// Phase returns the position within the current cycle, in [0, 1).
func (l *LFO) Phase() float64 { return l.phase }

// Value returns the waveform at the current phase without advancing.
func (l *LFO) Value() float64 {
	var waveVal float64
	switch l.waveform {
	case WaveSaw:
		waveVal = 1.0 - 2.0*l.phase
	case WaveSquare:
		if l.phase < 0.5 {
			waveVal = 1.0
		} else {
			waveVal = -1.0
		}
	case WaveTriangle:
		if l.phase < 0.5 {
			waveVal = 4.0*l.phase - 1.0
		} else {
			waveVal = 3.0 - 4.0*l.phase
		}
	default:
		waveVal = math.Sin(2 * math.Pi * l.phase)
	}
	return waveVal * l.depth
}

// Sample returns the value at the current phase and advances by one sample.
func (l *LFO) Sample(sampleRate float64) float64 {
	v := l.Value()
	l.Advance(sampleRate)
	return v
}

// Advance moves the phase forward by one sample.
func (l *LFO) Advance(sampleRate float64) {
	if l.rateHz == 0 || sampleRate == 0 {
		return
	}
	l.phase += l.rateHz / sampleRate
	for l.phase >= 1.0 {
		l.phase -= 1.0
	}
}

// Active returns true if the LFO has non-zero depth and rate.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz != 0
}

// Reset zeros the LFO phase.
func (l *LFO) Reset() {
	l.phase = 0
}
