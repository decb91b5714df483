package demo

import (
	"math"
	"testing"

	"github.com/cbegin/fxtrack-go/internal/beatmap"
	"github.com/cbegin/fxtrack-go/internal/effect"
)

func TestAuditionLayout(t *testing.T) {
	bm, err := Audition(Options{BPM: 120})
	if err != nil {
		t.Fatalf("audition: %v", err)
	}
	n := len(effect.BuiltinTypes)
	if got := len(bm.Measures()); got != 1+n*MeasuresPerSection {
		t.Fatalf("measures = %d, want %d", got, 1+n*MeasuresPerSection)
	}

	var holds []*beatmap.Hold
	slams := 0
	for _, m := range bm.Measures() {
		for _, ref := range m.Objects() {
			switch o := bm.Object(ref).(type) {
			case *beatmap.Hold:
				holds = append(holds, o)
			case *beatmap.Laser, *beatmap.LaserRoot:
				if bm.IsInstant(ref) {
					slams++
				}
			}
		}
	}
	if len(holds) != n {
		t.Fatalf("holds = %d, want %d", len(holds), n)
	}
	for i, h := range holds {
		if h.EffectType != effect.BuiltinTypes[i] {
			t.Errorf("hold %d effect = %v, want %v", i, h.EffectType, effect.BuiltinTypes[i])
		}
		if _, ok := bm.Effects().Get(h.EffectType); !ok {
			t.Errorf("effect %v not registered", h.EffectType)
		}
	}
	if slams != n {
		t.Errorf("slams = %d, want %d", slams, n)
	}
}

func TestAuditionLaserEffectEvents(t *testing.T) {
	bm, err := Audition(Options{BPM: 120, Effects: []beatmap.EffectType{beatmap.EffectEcho, beatmap.EffectGate}})
	if err != nil {
		t.Fatal(err)
	}
	// sections start at measures 1 and 3, 2s each
	if got := bm.LaserEffectType(4.5, beatmap.EffectNone); got != beatmap.EffectLowPassFilter {
		t.Errorf("first section laser effect = %v, want lpf", got)
	}
	if got := bm.LaserEffectType(8.5, beatmap.EffectNone); got != beatmap.EffectHighPassFilter {
		t.Errorf("second section laser effect = %v, want hpf", got)
	}
	if got := bm.LaserEffectType(0.5, beatmap.EffectPeakingFilter); got != beatmap.EffectPeakingFilter {
		t.Errorf("before any event = %v, want default", got)
	}
}

func TestAuditionZoomRamp(t *testing.T) {
	opts := Options{BPM: 240, Effects: []beatmap.EffectType{beatmap.EffectFlanger}}
	bm, err := Audition(opts)
	if err != nil {
		t.Fatal(err)
	}
	// 1s measures, ramp from 0 at 0s to 1 at 2.75s
	v, ok := bm.ControlValue(beatmap.ControlZoom, 1.375)
	if !ok {
		t.Fatal("no zoom value")
	}
	if math.Abs(float64(v)-0.5) > 1e-6 {
		t.Errorf("zoom = %f, want 0.5", v)
	}
	if got := Duration(opts); got != 3 {
		t.Errorf("duration = %f, want 3", got)
	}
	last, ok := bm.LastObject()
	if !ok || bm.Position(last) > Duration(opts) {
		t.Errorf("last object at %f past duration", bm.Position(last))
	}
}
