package dsp

import (
	"math"
	"sync/atomic"
)

// FilterType selects the response of a BiQuadFilter.
type FilterType int

const (
	LowPass FilterType = iota
	HighPass
	Peaking
)

func (t FilterType) String() string {
	switch t {
	case LowPass:
		return "lowpass"
	case HighPass:
		return "highpass"
	case Peaking:
		return "peaking"
	}
	return "unknown"
}

// Coefficients are the raw, unnormalised biquad coefficients.
type Coefficients struct {
	B0, B1, B2 float64
	A0, A1, A2 float64
}

const minQ = 0.01

func prewarp(q, freq float64, sampleRate int) (cw, alpha float64) {
	q = math.Max(q, minQ)
	nyquist := float64(sampleRate) / 2
	freq = clamp(freq, 1, nyquist*0.999)
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	return math.Cos(w0), math.Sin(w0) / (2 * q)
}

// LowPassCoefficients computes a second order low pass.
func LowPassCoefficients(q, freq float64, sampleRate int) Coefficients {
	cw, alpha := prewarp(q, freq, sampleRate)
	return Coefficients{
		B0: (1 - cw) / 2,
		B1: 1 - cw,
		B2: (1 - cw) / 2,
		A0: 1 + alpha,
		A1: -2 * cw,
		A2: 1 - alpha,
	}
}

// HighPassCoefficients computes a second order high pass.
func HighPassCoefficients(q, freq float64, sampleRate int) Coefficients {
	cw, alpha := prewarp(q, freq, sampleRate)
	return Coefficients{
		B0: (1 + cw) / 2,
		B1: -(1 + cw),
		B2: (1 + cw) / 2,
		A0: 1 + alpha,
		A1: -2 * cw,
		A2: 1 - alpha,
	}
}

// PeakingCoefficients computes a peaking EQ with gain in dB.
func PeakingCoefficients(q, freq, gain float64, sampleRate int) Coefficients {
	cw, alpha := prewarp(q, freq, sampleRate)
	a := math.Pow(10, gain/40)
	return Coefficients{
		B0: 1 + alpha*a,
		B1: -2 * cw,
		B2: 1 - alpha*a,
		A0: 1 + alpha/a,
		A1: -2 * cw,
		A2: 1 - alpha/a,
	}
}

// normalized holds coefficients divided by a0, ready for the audio goroutine.
type normalized struct {
	raw                Coefficients
	b0, b1, b2, a1, a2 float32
}

// BiQuadFilter is a stereo second order IIR filter. Coefficient updates are
// published atomically and picked up on the next Process call.
type BiQuadFilter struct {
	sampleRate int
	coef       atomic.Pointer[normalized]
	// per channel history x1, x2, y1, y2
	state [2][4]float32
}

// NewBiQuadFilter creates a pass-through filter.
func NewBiQuadFilter(sampleRate int) *BiQuadFilter {
	f := &BiQuadFilter{sampleRate: sampleRate}
	f.SetCoefficients(Coefficients{B0: 1, A0: 1})
	return f
}

func (f *BiQuadFilter) SampleRate() int { return f.sampleRate }

// SetCoefficients publishes raw coefficients. A zero A0 is ignored.
func (f *BiQuadFilter) SetCoefficients(c Coefficients) {
	if c.A0 == 0 {
		return
	}
	f.coef.Store(&normalized{
		raw: c,
		b0:  float32(c.B0 / c.A0),
		b1:  float32(c.B1 / c.A0),
		b2:  float32(c.B2 / c.A0),
		a1:  float32(c.A1 / c.A0),
		a2:  float32(c.A2 / c.A0),
	})
}

// Coefficients returns the raw coefficients currently in use.
func (f *BiQuadFilter) Coefficients() Coefficients { return f.coef.Load().raw }

func (f *BiQuadFilter) SetLowPass(q, freq float64) {
	f.SetCoefficients(LowPassCoefficients(q, freq, f.sampleRate))
}

func (f *BiQuadFilter) SetHighPass(q, freq float64) {
	f.SetCoefficients(HighPassCoefficients(q, freq, f.sampleRate))
}

func (f *BiQuadFilter) SetPeaking(q, freq, gain float64) {
	f.SetCoefficients(PeakingCoefficients(q, freq, gain, f.sampleRate))
}

// Set selects the coefficients for t. gain is ignored by the pass filters.
func (f *BiQuadFilter) Set(t FilterType, q, freq, gain float64) {
	switch t {
	case HighPass:
		f.SetHighPass(q, freq)
	case Peaking:
		f.SetPeaking(q, freq, gain)
	default:
		f.SetLowPass(q, freq)
	}
}

func (f *BiQuadFilter) Process(buf []float32) {
	c := f.coef.Load()
	for i := 0; i < frames(buf); i++ {
		for ch := 0; ch < 2; ch++ {
			s := &f.state[ch]
			x := buf[i*2+ch]
			y := c.b0*x + c.b1*s[0] + c.b2*s[1] - c.a1*s[2] - c.a2*s[3]
			s[1], s[0] = s[0], x
			s[3], s[2] = s[2], y
			buf[i*2+ch] = y
		}
	}
}

func (f *BiQuadFilter) Reset() {
	f.state = [2][4]float32{}
}
