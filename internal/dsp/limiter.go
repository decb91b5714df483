package dsp

import "math"

// Limiter keeps the summed output of a track chain out of hard clipping.
// It is a fast-attack compressor with a high ratio and linked stereo envelope.
type Limiter struct {
	threshold float32
	ratio     float32
	attack    float32 // coefficient
	release   float32 // coefficient
	env       float32
}

// NewLimiter creates a limiter.
// thresholdDB: threshold in dB (e.g., -1)
// ratio: compression ratio above the threshold (e.g., 20)
// attackMs, releaseMs: envelope times in ms
func NewLimiter(sampleRate int, thresholdDB, ratio, attackMs, releaseMs float32) *Limiter {
	sr := float64(sampleRate)
	return &Limiter{
		threshold: float32(math.Pow(10, float64(thresholdDB)/20)),
		ratio:     ratio,
		attack:    float32(1.0 - math.Exp(-1.0/(float64(attackMs)*sr/1000.0))),
		release:   float32(1.0 - math.Exp(-1.0/(float64(releaseMs)*sr/1000.0))),
	}
}

func (c *Limiter) Process(buf []float32) {
	for i := 0; i < frames(buf); i++ {
		l, r := buf[i*2], buf[i*2+1]
		peak := max(float32(math.Abs(float64(l))), float32(math.Abs(float64(r))))
		if peak > c.env {
			c.env += c.attack * (peak - c.env)
		} else {
			c.env += c.release * (peak - c.env)
		}
		g := c.computeGain(c.env)
		buf[i*2] = l * g
		buf[i*2+1] = r * g
	}
}

func (c *Limiter) computeGain(env float32) float32 {
	if env <= c.threshold || c.threshold <= 0 {
		return 1.0
	}
	over := env / c.threshold
	return float32(math.Pow(float64(over), float64(1.0/c.ratio-1)))
}

func (c *Limiter) Reset() {
	c.env = 0
}
