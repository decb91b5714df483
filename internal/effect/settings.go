package effect

import (
	"math"
	"time"

	"github.com/cbegin/fxtrack-go/internal/beatmap"
	"github.com/cbegin/fxtrack-go/internal/dsp"
)

// BiQuadFilterSettings drives a filter from a control value. The response
// curve input^1.6 spends more of the laser travel near the unfiltered end.
type BiQuadFilterSettings struct {
	FilterType dsp.FilterType
	Q          ParameterRange
	Frequency  ParameterRange
	Gain       ParameterRange
}

func (s *BiQuadFilterSettings) SettingsName() string { return "biquad-" + s.FilterType.String() }

// Interpolate maps a 0..1 control value to filter parameters.
func (s *BiQuadFilterSettings) Interpolate(input float64) (freq, q, gain float64) {
	input = math.Pow(max(input, 0), 1.6)
	return s.Frequency.Lerp(input), s.Q.Lerp(input), s.Gain.Lerp(input)
}

func (s *BiQuadFilterSettings) newState(ctx *Context) *State {
	f := dsp.NewBiQuadFilter(ctx.Track.SampleRate())
	modulate := func(v float32) {
		freq, q, gain := s.Interpolate(float64(v))
		f.Set(s.FilterType, q, freq, gain)
	}
	return &State{
		dsp:      f,
		modulate: modulate,
		apply: func(ref beatmap.ObjectReference) {
			if ctx.hold(ref) != nil {
				modulate(1)
			}
		},
	}
}

// BitCrusherSettings holds the reduction range in frames.
type BitCrusherSettings struct {
	Reduction ParameterRange
}

func (s *BitCrusherSettings) SettingsName() string { return "bitcrusher" }

func (s *BitCrusherSettings) newState(ctx *Context) *State {
	b := dsp.NewBitCrusher(s.Reduction.Min)
	return &State{
		dsp: b,
		apply: func(ref beatmap.ObjectReference) {
			if h := ctx.hold(ref); h != nil {
				b.SetReduction(float64(h.EffectParameter0))
			}
		},
		modulate: func(v float32) { b.SetReduction(s.Reduction.Lerp(float64(v))) },
	}
}

type EchoSettings struct {
	Duration TimeParameter
	Feedback float64
}

func (s *EchoSettings) SettingsName() string { return "echo" }

func (s *EchoSettings) newState(ctx *Context) *State {
	e := dsp.NewEcho(ctx.Track.SampleRate(), ctx.seconds(s.Duration), s.Feedback)
	return &State{
		dsp: e,
		apply: func(ref beatmap.ObjectReference) {
			if d, ok := ctx.holdDivision(ref); ok {
				e.SetDuration(d)
			}
		},
	}
}

// FlangerSettings delays are in frames.
type FlangerSettings struct {
	Duration     TimeParameter
	MinimumDelay int
	MaximumDelay int
}

func (s *FlangerSettings) SettingsName() string { return "flanger" }

func (s *FlangerSettings) newState(ctx *Context) *State {
	f := dsp.NewFlanger(ctx.Track.SampleRate(), ctx.seconds(s.Duration), s.MinimumDelay, s.MaximumDelay)
	return &State{dsp: f}
}

type PhaserSettings struct {
	Duration         TimeParameter
	Feedback         float64
	MinimumFrequency float64
	MaximumFrequency float64
}

func (s *PhaserSettings) SettingsName() string { return "phaser" }

func (s *PhaserSettings) newState(ctx *Context) *State {
	p := dsp.NewPhaser(ctx.Track.SampleRate(), ctx.seconds(s.Duration), s.Feedback, s.MinimumFrequency, s.MaximumFrequency)
	return &State{dsp: p}
}

type RetriggerSettings struct {
	Duration  TimeParameter
	LoopCount int
	Gating    float64
}

func (s *RetriggerSettings) SettingsName() string { return "retrigger" }

func (s *RetriggerSettings) newState(ctx *Context) *State {
	r := dsp.NewRetrigger(ctx.Track.SampleRate(), ctx.seconds(s.Duration), s.LoopCount, s.Gating)
	return &State{
		dsp: r,
		apply: func(ref beatmap.ObjectReference) {
			if d, ok := ctx.holdDivision(ref); ok {
				r.SetDuration(d)
			}
		},
		modulate: func(v float32) { r.SetMix(float64(v)) },
	}
}

type GateSettings struct {
	Duration TimeParameter
	Gating   float64
}

func (s *GateSettings) SettingsName() string { return "gate" }

func (s *GateSettings) newState(ctx *Context) *State {
	g := dsp.NewGate(ctx.Track.SampleRate(), ctx.seconds(s.Duration), s.Gating)
	return &State{
		dsp: g,
		apply: func(ref beatmap.ObjectReference) {
			if d, ok := ctx.holdDivision(ref); ok {
				g.SetDuration(d)
			}
		},
	}
}

type SideChainSettings struct {
	Duration TimeParameter
	Amount   float64
}

func (s *SideChainSettings) SettingsName() string { return "sidechain" }

func (s *SideChainSettings) newState(ctx *Context) *State {
	sc := dsp.NewSideChain(ctx.Track.SampleRate(), ctx.seconds(s.Duration), s.Amount)
	return &State{
		dsp: sc,
		apply: func(ref beatmap.ObjectReference) {
			if d, ok := ctx.holdDivision(ref); ok {
				sc.SetDuration(d)
			}
		},
		modulate: func(v float32) { sc.SetAmount(float64(v) * s.Amount) },
	}
}

// WobbleSettings sweeps a low pass filter once per Duration. The sweep is
// driven by Update so it follows simulation time.
type WobbleSettings struct {
	Duration  TimeParameter
	Q         float64
	Frequency ParameterRange
}

func (s *WobbleSettings) SettingsName() string { return "wobble" }

func (s *WobbleSettings) newState(ctx *Context) *State {
	f := dsp.NewBiQuadFilter(ctx.Track.SampleRate())
	period := ctx.seconds(s.Duration)
	var elapsed float64
	sweep := func() {
		phase := 0.0
		if period > 0 {
			phase = math.Mod(elapsed, period) / period
		}
		f.SetLowPass(s.Q, s.Frequency.Lerp((1+math.Cos(2*math.Pi*phase))/2))
	}
	sweep()
	return &State{
		dsp: f,
		apply: func(ref beatmap.ObjectReference) {
			if d, ok := ctx.holdDivision(ref); ok {
				period = d
				sweep()
			}
		},
		update: func(d time.Duration) {
			elapsed += d.Seconds()
			sweep()
		},
	}
}

// TapeStopSettings duration is replaced by the hold length when bound to a hold.
type TapeStopSettings struct {
	Duration TimeParameter
}

func (s *TapeStopSettings) SettingsName() string { return "tapestop" }

func (s *TapeStopSettings) newState(ctx *Context) *State {
	t := dsp.NewTapeStop(ctx.Track.SampleRate(), ctx.seconds(s.Duration))
	return &State{
		dsp: t,
		apply: func(ref beatmap.ObjectReference) {
			if h := ctx.hold(ref); h != nil {
				bm := ctx.Timeline.Beatmap()
				t.SetDuration(bm.Position(h.End) - bm.Position(ref))
			}
		},
	}
}
