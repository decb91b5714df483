// Package dsp implements the real-time audio effects applied to a track.
//
// Process runs on the audio goroutine and never allocates. Parameter setters
// are called from the simulation goroutine: scalar parameters are stored
// atomically and buffer resizes take a per-effect lock that Process also holds.
package dsp

import (
	"math"
	"sync/atomic"
)

// Dsp processes interleaved stereo audio in place.
type Dsp interface {
	Process(buf []float32)
	Reset()
}

// Chain is an immutable ordered list of effects. Adding or removing an
// effect returns a new Chain so the audio goroutine can keep iterating the
// snapshot it loaded.
type Chain struct {
	effects []Dsp
}

func NewChain(effects ...Dsp) *Chain {
	return &Chain{effects: append([]Dsp(nil), effects...)}
}

func (c *Chain) Process(buf []float32) {
	if c == nil {
		return
	}
	for _, e := range c.effects {
		e.Process(buf)
	}
}

func (c *Chain) Reset() {
	if c == nil {
		return
	}
	for _, e := range c.effects {
		e.Reset()
	}
}

// Len returns the number of effects.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.effects)
}

// Effects returns a copy of the effect list.
func (c *Chain) Effects() []Dsp {
	if c == nil {
		return nil
	}
	return append([]Dsp(nil), c.effects...)
}

// With returns a chain with e appended.
func (c *Chain) With(e Dsp) *Chain {
	n := c.Len()
	effects := make([]Dsp, n, n+1)
	if c != nil {
		copy(effects, c.effects)
	}
	return &Chain{effects: append(effects, e)}
}

// Without returns a chain with the first occurrence of e removed, and whether it was found.
func (c *Chain) Without(e Dsp) (*Chain, bool) {
	if c == nil {
		return c, false
	}
	for i, x := range c.effects {
		if x == e {
			effects := make([]Dsp, 0, len(c.effects)-1)
			effects = append(effects, c.effects[:i]...)
			effects = append(effects, c.effects[i+1:]...)
			return &Chain{effects: effects}, true
		}
	}
	return c, false
}

// param is a float64 readable from the audio goroutine without locking.
type param struct {
	bits atomic.Uint64
}

func (p *param) Load() float64   { return math.Float64frombits(p.bits.Load()) }
func (p *param) Store(v float64) { p.bits.Store(math.Float64bits(v)) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// frames returns the number of stereo frames in buf.
func frames(buf []float32) int { return len(buf) / 2 }
