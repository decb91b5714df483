package effect

import (
	"github.com/cbegin/fxtrack-go/internal/beatmap"
	"github.com/cbegin/fxtrack-go/internal/dsp"
)

// Defaults returns fresh default settings for a built-in effect type.
// Panning and PitchShift have no Dsp and report false.
func Defaults(t beatmap.EffectType) (Settings, bool) {
	switch t {
	case beatmap.EffectRetrigger:
		return &RetriggerSettings{Duration: Div(1, 4), LoopCount: 0, Gating: 0.1}, true
	case beatmap.EffectFlanger:
		return &FlangerSettings{Duration: Relative(4), MinimumDelay: 20, MaximumDelay: 40}, true
	case beatmap.EffectPhaser:
		return &PhaserSettings{Duration: Relative(4), Feedback: 0.2, MinimumFrequency: 15000, MaximumFrequency: 5000}, true
	case beatmap.EffectGate:
		return &GateSettings{Duration: Div(1, 4), Gating: 0.5}, true
	case beatmap.EffectTapeStop:
		return &TapeStopSettings{Duration: Div(1, 1)}, true
	case beatmap.EffectBitcrush:
		return &BitCrusherSettings{Reduction: ParameterRange{Min: 1, Max: 40}}, true
	case beatmap.EffectWobble:
		return &WobbleSettings{Duration: Div(1, 3), Q: 1.4, Frequency: ParameterRange{Min: 200, Max: 10000}}, true
	case beatmap.EffectSideChain:
		return &SideChainSettings{Duration: Div(1, 4), Amount: 1}, true
	case beatmap.EffectEcho:
		return &EchoSettings{Duration: Div(1, 4), Feedback: 0.2}, true
	case beatmap.EffectLowPassFilter:
		return &BiQuadFilterSettings{
			FilterType: dsp.LowPass,
			Q:          ParameterRange{Min: 0.5, Max: 1},
			Frequency:  ParameterRange{Min: 15000, Max: 500},
			Gain:       Value(0),
		}, true
	case beatmap.EffectHighPassFilter:
		return &BiQuadFilterSettings{
			FilterType: dsp.HighPass,
			Q:          ParameterRange{Min: 0.5, Max: 1},
			Frequency:  ParameterRange{Min: 20, Max: 4000},
			Gain:       Value(0),
		}, true
	case beatmap.EffectPeakingFilter:
		return &BiQuadFilterSettings{
			FilterType: dsp.Peaking,
			Q:          ParameterRange{Min: 0.5, Max: 1},
			Frequency:  ParameterRange{Min: 200, Max: 10000},
			Gain:       Value(20),
		}, true
	}
	return nil, false
}

// BuiltinTypes lists the effect types Defaults can produce.
var BuiltinTypes = []beatmap.EffectType{
	beatmap.EffectRetrigger,
	beatmap.EffectFlanger,
	beatmap.EffectPhaser,
	beatmap.EffectGate,
	beatmap.EffectTapeStop,
	beatmap.EffectBitcrush,
	beatmap.EffectWobble,
	beatmap.EffectSideChain,
	beatmap.EffectEcho,
	beatmap.EffectLowPassFilter,
	beatmap.EffectHighPassFilter,
	beatmap.EffectPeakingFilter,
}

// RegisterDefaults fills reg with default settings for every built-in type
// that has no entry yet.
func RegisterDefaults(reg *beatmap.EffectRegistry) {
	for _, t := range BuiltinTypes {
		if _, ok := reg.Get(t); ok {
			continue
		}
		s, _ := Defaults(t)
		reg.Set(t, s)
	}
}
