// Package demo generates audition charts that exercise every effect, for
// trying the engine without a chart file.
package demo

import (
	"fmt"

	"github.com/cbegin/fxtrack-go/internal/beatmap"
	"github.com/cbegin/fxtrack-go/internal/effect"
)

type Options struct {
	BPM    float64
	Offset float64
	// Effects gets one section each, in order. Empty means every built-in effect.
	Effects []beatmap.EffectType
}

var laserCycle = []beatmap.EffectType{
	beatmap.EffectLowPassFilter,
	beatmap.EffectHighPassFilter,
	beatmap.EffectPeakingFilter,
}

// MeasuresPerSection is the length of one audition section.
const MeasuresPerSection = 2

// Audition builds a chart with one lead-in measure followed by a two-measure
// section per effect. The first measure of a section has quarter-note
// buttons under an FX hold carrying the effect. The second sweeps a laser
// across, ending in a slam, with a laser effect event selecting the filter.
// Zoom control points ramp over the whole chart.
func Audition(opts Options) (*beatmap.Beatmap, error) {
	if opts.BPM <= 0 {
		opts.BPM = 120
	}
	effects := opts.Effects
	if len(effects) == 0 {
		effects = effect.BuiltinTypes
	}

	bm := beatmap.New()
	bm.Metadata = beatmap.Metadata{
		Title:    "Effect Audition",
		Artist:   "fxtrack",
		Effector: "demo",
		Level:    1,
	}
	effect.RegisterDefaults(bm.Effects())
	tp := bm.AddTimingPoint(beatmap.NewTimingPoint(opts.Offset, opts.BPM, 4, 4))

	first := bm.AddMeasure(tp)
	bm.AddControlPoint(first, beatmap.Div(0, 1), beatmap.ControlZoom, 0)

	var last *beatmap.Measure
	for i, et := range effects {
		a := bm.AddMeasure(tp)
		b := bm.AddMeasure(tp)
		last = b
		for q := 0; q < 4; q++ {
			bm.AddButton(a, beatmap.Div(q, 4), q)
		}
		bm.AddHold(a, beatmap.Div(0, 1), b, beatmap.Div(0, 1), beatmap.HoldSpec{
			Index:            4 + i%2,
			EffectType:       et,
			EffectParameter0: holdParameter(et),
		})

		chain := i % 2
		from, to := float32(0), float32(1)
		if chain == 1 {
			from, to = 1, 0
		}
		bm.AddLaserEffectType(b, beatmap.Div(0, 1), laserCycle[i%len(laserCycle)])
		l := bm.AddLaserRoot(b, beatmap.Div(0, 1), chain, from, false)
		l = bm.AddLaser(l, b, beatmap.Div(1, 2), to)
		l = bm.AddLaser(l, b, beatmap.Div(3, 4), to)
		bm.AddLaser(l, b, beatmap.Div(3, 4), from)
	}
	bm.AddControlPoint(last, beatmap.Div(3, 4), beatmap.ControlZoom, 1)

	if err := bm.Build(); err != nil {
		return nil, fmt.Errorf("demo: build audition: %w", err)
	}
	return bm, nil
}

// holdParameter returns a per-note override that differs from the default
// settings, so both code paths are heard.
func holdParameter(t beatmap.EffectType) int16 {
	switch t {
	case beatmap.EffectBitcrush:
		return 24
	case beatmap.EffectEcho, beatmap.EffectRetrigger, beatmap.EffectGate:
		return 8
	default:
		return 0
	}
}

// Duration returns the chart length in seconds at opts.
func Duration(opts Options) float64 {
	if opts.BPM <= 0 {
		opts.BPM = 120
	}
	n := len(opts.Effects)
	if n == 0 {
		n = len(effect.BuiltinTypes)
	}
	measure := 4 * 60 / opts.BPM
	return opts.Offset + float64(1+n*MeasuresPerSection)*measure
}
