package effect

import (
	"fmt"

	"github.com/cbegin/fxtrack-go/internal/beatmap"
)

// Preset overrides fields of an effect's settings. Unset fields keep the
// current value. Base names the built-in type a user-defined slot derives from.
type Preset struct {
	Base         string      `yaml:"base,omitempty"`
	Duration     string      `yaml:"duration,omitempty"`
	Feedback     *float64    `yaml:"feedback,omitempty"`
	LoopCount    *int        `yaml:"loop_count,omitempty"`
	Gating       *float64    `yaml:"gating,omitempty"`
	Amount       *float64    `yaml:"amount,omitempty"`
	Q            *[2]float64 `yaml:"q,omitempty"`
	Frequency    *[2]float64 `yaml:"frequency,omitempty"`
	Gain         *[2]float64 `yaml:"gain,omitempty"`
	Reduction    *[2]float64 `yaml:"reduction,omitempty"`
	MinimumDelay *int        `yaml:"min_delay,omitempty"`
	MaximumDelay *int        `yaml:"max_delay,omitempty"`
}

func toRange(v *[2]float64, cur ParameterRange) ParameterRange {
	if v == nil {
		return cur
	}
	return ParameterRange{Min: v[0], Max: v[1]}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// Apply merges p into the settings registered for t and stores the result.
// The registered value is replaced, never mutated, so states created
// earlier keep their configuration.
func (p Preset) Apply(reg *beatmap.EffectRegistry, t beatmap.EffectType) error {
	base, err := p.base(reg, t)
	if err != nil {
		return err
	}
	var dur TimeParameter
	if p.Duration != "" {
		if dur, err = ParseTime(p.Duration); err != nil {
			return fmt.Errorf("effect: preset %v: %w", t, err)
		}
	}
	pickDur := func(cur TimeParameter) TimeParameter {
		if dur != nil {
			return dur
		}
		return cur
	}

	var out Settings
	switch s := base.(type) {
	case *BiQuadFilterSettings:
		c := *s
		c.Q, c.Frequency, c.Gain = toRange(p.Q, c.Q), toRange(p.Frequency, c.Frequency), toRange(p.Gain, c.Gain)
		out = &c
	case *BitCrusherSettings:
		c := *s
		c.Reduction = toRange(p.Reduction, c.Reduction)
		out = &c
	case *EchoSettings:
		c := *s
		c.Duration = pickDur(c.Duration)
		setFloat(&c.Feedback, p.Feedback)
		out = &c
	case *FlangerSettings:
		c := *s
		c.Duration = pickDur(c.Duration)
		if p.MinimumDelay != nil {
			c.MinimumDelay = *p.MinimumDelay
		}
		if p.MaximumDelay != nil {
			c.MaximumDelay = *p.MaximumDelay
		}
		out = &c
	case *PhaserSettings:
		c := *s
		c.Duration = pickDur(c.Duration)
		setFloat(&c.Feedback, p.Feedback)
		if p.Frequency != nil {
			c.MinimumFrequency, c.MaximumFrequency = p.Frequency[0], p.Frequency[1]
		}
		out = &c
	case *RetriggerSettings:
		c := *s
		c.Duration = pickDur(c.Duration)
		setFloat(&c.Gating, p.Gating)
		if p.LoopCount != nil {
			c.LoopCount = *p.LoopCount
		}
		out = &c
	case *GateSettings:
		c := *s
		c.Duration = pickDur(c.Duration)
		setFloat(&c.Gating, p.Gating)
		out = &c
	case *SideChainSettings:
		c := *s
		c.Duration = pickDur(c.Duration)
		setFloat(&c.Amount, p.Amount)
		out = &c
	case *WobbleSettings:
		c := *s
		c.Duration = pickDur(c.Duration)
		c.Frequency = toRange(p.Frequency, c.Frequency)
		if p.Q != nil {
			c.Q = p.Q[0]
		}
		out = &c
	case *TapeStopSettings:
		c := *s
		c.Duration = pickDur(c.Duration)
		out = &c
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedSettings, base)
	}
	reg.Set(t, out)
	return nil
}

func (p Preset) base(reg *beatmap.EffectRegistry, t beatmap.EffectType) (beatmap.EffectSettings, error) {
	if p.Base != "" {
		bt, err := beatmap.ParseEffectType(p.Base)
		if err != nil {
			return nil, fmt.Errorf("effect: preset %v: %w", t, err)
		}
		if s, ok := Defaults(bt); ok {
			return s, nil
		}
		return nil, fmt.Errorf("effect: preset %v: base %v has no settings", t, bt)
	}
	if s, ok := reg.Get(t); ok {
		return s, nil
	}
	if s, ok := Defaults(t); ok {
		return s, nil
	}
	return nil, fmt.Errorf("effect: preset %v: no settings to derive from", t)
}
