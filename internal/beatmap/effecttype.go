package beatmap

import (
	"fmt"
	"sort"
)

// EffectType is the ordinal of an audio effect. Values from UserDefined up
// are free slots for custom effects.
type EffectType int

const (
	EffectNone EffectType = iota
	EffectRetrigger
	EffectFlanger
	EffectPhaser
	EffectGate
	EffectTapeStop
	EffectBitcrush
	EffectWobble
	EffectSideChain
	EffectEcho
	EffectPanning
	EffectPitchShift
	EffectLowPassFilter
	EffectHighPassFilter
	EffectPeakingFilter

	EffectUserDefined EffectType = 0x40
)

var effectNames = map[EffectType]string{
	EffectNone:           "none",
	EffectRetrigger:      "retrigger",
	EffectFlanger:        "flanger",
	EffectPhaser:         "phaser",
	EffectGate:           "gate",
	EffectTapeStop:       "tapestop",
	EffectBitcrush:       "bitcrush",
	EffectWobble:         "wobble",
	EffectSideChain:      "sidechain",
	EffectEcho:           "echo",
	EffectPanning:        "panning",
	EffectPitchShift:     "pitchshift",
	EffectLowPassFilter:  "lpf",
	EffectHighPassFilter: "hpf",
	EffectPeakingFilter:  "peak",
}

func (t EffectType) String() string {
	if n, ok := effectNames[t]; ok {
		return n
	}
	if t >= EffectUserDefined {
		return fmt.Sprintf("user%d", int(t-EffectUserDefined))
	}
	return fmt.Sprintf("effect(%d)", int(t))
}

// IsUserDefined reports whether t is in the custom slot range.
func (t EffectType) IsUserDefined() bool { return t >= EffectUserDefined }

// UserEffect returns the n-th user-defined effect slot.
func UserEffect(n int) EffectType { return EffectUserDefined + EffectType(n) }

// ParseEffectType accepts the names printed by String, including "userN".
func ParseEffectType(name string) (EffectType, error) {
	for t, n := range effectNames {
		if n == name {
			return t, nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(name, "user%d", &n); err == nil && n >= 0 {
		return UserEffect(n), nil
	}
	return EffectNone, fmt.Errorf("beatmap: unknown effect type %q", name)
}

// EffectSettings is the static configuration of one effect type. Concrete
// settings live in the effect package; the registry only stores them.
type EffectSettings interface {
	SettingsName() string
}

// EffectRegistry maps effect types to their settings.
type EffectRegistry struct {
	settings map[EffectType]EffectSettings
}

func NewEffectRegistry() *EffectRegistry {
	return &EffectRegistry{settings: make(map[EffectType]EffectSettings)}
}

// Set registers settings for t. nil removes the entry.
func (r *EffectRegistry) Set(t EffectType, s EffectSettings) {
	if s == nil {
		delete(r.settings, t)
		return
	}
	r.settings[t] = s
}

// Get returns the settings for t. Unregistered types produce no effect.
func (r *EffectRegistry) Get(t EffectType) (EffectSettings, bool) {
	s, ok := r.settings[t]
	return s, ok
}

// Types lists registered effect types in ascending order.
func (r *EffectRegistry) Types() []EffectType {
	out := make([]EffectType, 0, len(r.settings))
	for t := range r.settings {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
