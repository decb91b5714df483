package controller

import (
	"math"
	"testing"

	"github.com/cbegin/fxtrack-go/internal/beatmap"
	"github.com/cbegin/fxtrack-go/internal/dsp"
	"github.com/cbegin/fxtrack-go/internal/effect"
	"github.com/cbegin/fxtrack-go/internal/playback"
)

type fakeTrack struct {
	chain []dsp.Dsp
}

func (t *fakeTrack) AddDsp(d dsp.Dsp) { t.chain = append(t.chain, d) }
func (t *fakeTrack) RemoveDsp(d dsp.Dsp) {
	for i, x := range t.chain {
		if x == d {
			t.chain = append(t.chain[:i], t.chain[i+1:]...)
			return
		}
	}
}
func (t *fakeTrack) SampleRate() int { return 48000 }

type counter struct{ n int }

func (c *counter) Trigger() { c.n++ }

// newMap returns a 120 BPM map with four 2s measures and default effects.
func newMap() (*beatmap.Beatmap, []*beatmap.Measure) {
	bm := beatmap.New()
	tp := bm.AddTimingPoint(beatmap.NewTimingPoint(0, 120, 4, 4))
	var ms []*beatmap.Measure
	for i := 0; i < 4; i++ {
		ms = append(ms, bm.AddMeasure(tp))
	}
	effect.RegisterDefaults(bm.Effects())
	return bm, ms
}

func start(t *testing.T, bm *beatmap.Beatmap, opts ...Option) (*Controller, *playback.Playback, *fakeTrack) {
	t.Helper()
	if err := bm.Build(); err != nil {
		t.Fatal(err)
	}
	pb := playback.New()
	pb.Bind(bm)
	track := &fakeTrack{}
	c := New(opts...)
	c.Init(pb, track)
	return c, pb, track
}

func TestHoldEffectLifecycle(t *testing.T) {
	bm, ms := newMap()
	hold, _ := bm.AddHold(ms[0], beatmap.Div(1, 4), ms[0], beatmap.Div(3, 4), beatmap.HoldSpec{
		Index:            4,
		EffectType:       beatmap.EffectEcho,
		EffectParameter0: 4,
	})
	bm.AddHold(ms[1], beatmap.Start, ms[1], beatmap.Div(1, 2), beatmap.HoldSpec{Index: 5})
	c, pb, track := start(t, bm)

	pb.SetPosition(0.4)
	if c.HoldEffects() != 0 {
		t.Fatal("hold has not started yet")
	}
	pb.SetPosition(0.6)
	st, ok := c.HoldEffect(hold)
	if !ok || len(track.chain) != 1 || track.chain[0] != st.Dsp() {
		t.Fatal("expected one echo in the chain")
	}
	if d := st.Dsp().(*dsp.Echo).Duration(); d != 0.5 {
		t.Errorf("hold override: got %f, want 2/4", d)
	}
	pb.SetPosition(1.6)
	if c.HoldEffects() != 0 || len(track.chain) != 0 {
		t.Error("effect should be removed after the hold ends")
	}
	pb.SetPosition(2.2)
	if c.HoldEffects() != 0 {
		t.Error("holds without an effect type create nothing")
	}
}

func TestUnregisteredEffectIsIgnored(t *testing.T) {
	bm, ms := newMap()
	bm.AddHold(ms[0], beatmap.Start, ms[1], beatmap.Start, beatmap.HoldSpec{EffectType: beatmap.EffectPanning})
	c, pb, track := start(t, bm)
	pb.SetPosition(1)
	if c.HoldEffects() != 0 || len(track.chain) != 0 {
		t.Error("unregistered effect types produce no effect")
	}
}

func addChain(bm *beatmap.Beatmap, ms []*beatmap.Measure, chain int, x float32) {
	root := bm.AddLaserRoot(ms[0], beatmap.Start, chain, x, false)
	bm.AddLaser(root, ms[2], beatmap.Start, x)
}

func TestLaserValuesAverage(t *testing.T) {
	bm, ms := newMap()
	addChain(bm, ms, 0, 0.2)
	addChain(bm, ms, 1, 0.2) // mirrored to 0.8
	c, pb, track := start(t, bm)

	pb.SetPosition(1)
	c.Update()
	v, ok := c.LaserValue()
	if !ok || math.Abs(float64(v)-0.5) > 1e-6 {
		t.Fatalf("got %f %v, want 0.5", v, ok)
	}
	st := c.LaserEffect()
	if st == nil || len(track.chain) != 1 {
		t.Fatal("expected one shared laser effect")
	}
	s, _ := bm.Effects().Get(beatmap.EffectPeakingFilter)
	freq, q, gain := s.(*effect.BiQuadFilterSettings).Interpolate(float64(v))
	want := dsp.PeakingCoefficients(q, freq, gain, 48000)
	if got := st.Dsp().(*dsp.BiQuadFilter).Coefficients(); got != want {
		t.Errorf("filter coefficients: got %+v, want %+v", got, want)
	}

	pb.SetPosition(4.5)
	c.Update()
	if c.LaserEffect() != nil || len(track.chain) != 0 {
		t.Error("laser effect should be released when all lasers end")
	}
}

func TestExtendedLaserCompressesRange(t *testing.T) {
	bm, ms := newMap()
	root := bm.AddLaserRoot(ms[0], beatmap.Start, 0, 1, true)
	bm.AddLaser(root, ms[1], beatmap.Start, 1)
	c, pb, _ := start(t, bm)
	pb.SetPosition(0.5)
	c.Update()
	if v, _ := c.LaserValue(); v != 0.75 {
		t.Errorf("got %f, want 0.75", v)
	}
}

func TestLaserEffectTypeEvent(t *testing.T) {
	bm, ms := newMap()
	bm.AddLaserEffectType(ms[0], beatmap.Start, beatmap.EffectLowPassFilter)
	addChain(bm, ms, 0, 0.5)
	c, pb, _ := start(t, bm)
	pb.SetPosition(1)
	c.Update()
	st := c.LaserEffect()
	if st == nil {
		t.Fatal("expected a laser effect")
	}
	if _, ok := st.Settings().(*effect.BiQuadFilterSettings); !ok || st.Settings().SettingsName() != "biquad-lowpass" {
		t.Errorf("got %s, want the lowpass from the event", st.Settings().SettingsName())
	}
}

func TestSlamTriggersAtItsPosition(t *testing.T) {
	bm, ms := newMap()
	root := bm.AddLaserRoot(ms[0], beatmap.Start, 0, 0, false)
	a := bm.AddLaser(root, ms[0], beatmap.Div(1, 2), 0)
	b := bm.AddLaser(a, ms[0], beatmap.Div(1, 2), 1)
	bm.AddLaser(b, ms[1], beatmap.Start, 1)
	slam := &counter{}
	c, pb, _ := start(t, bm, WithSlam(slam))

	pb.SetPosition(0.5)
	c.Update()
	if slam.n != 0 {
		t.Fatal("slam must wait for its position")
	}
	pb.SetPosition(1.01)
	c.Update()
	c.Update()
	if slam.n != 1 {
		t.Errorf("got %d slams, want 1", slam.n)
	}
}

func TestSlamAtChainRootTriggers(t *testing.T) {
	bm, ms := newMap()
	root := bm.AddLaserRoot(ms[1], beatmap.Start, 0, 0, false)
	a := bm.AddLaser(root, ms[1], beatmap.Start, 1)
	bm.AddLaser(a, ms[1], beatmap.Div(1, 2), 1)
	slam := &counter{}
	c, pb, _ := start(t, bm, WithSlam(slam))

	for i := 0; i <= 6*240; i++ {
		pb.SetPosition(float64(i) / 240)
		c.Update()
		if pb.Position() < 2 && slam.n != 0 {
			t.Fatalf("slam fired early at %.3f", pb.Position())
		}
	}
	if slam.n != 1 {
		t.Errorf("got %d slams, want 1", slam.n)
	}
}

func TestSlamSkippedBySeekBetweenUpdates(t *testing.T) {
	bm, ms := newMap()
	root := bm.AddLaserRoot(ms[1], beatmap.Start, 0, 0, false)
	bm.AddLaser(root, ms[1], beatmap.Start, 1)
	slam := &counter{}
	c, pb, _ := start(t, bm, WithSlam(slam))

	pb.SetPosition(1.5)
	c.Update()
	pb.SetPosition(2.5)
	c.Update()
	if slam.n != 1 {
		t.Errorf("got %d slams, want 1", slam.n)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	bm, ms := newMap()
	bm.AddHold(ms[0], beatmap.Start, ms[1], beatmap.Start, beatmap.HoldSpec{EffectType: beatmap.EffectFlanger})
	addChain(bm, ms, 0, 0.3)
	c, pb, track := start(t, bm)
	pb.SetPosition(1)
	c.Update()
	if len(track.chain) != 2 {
		t.Fatalf("got %d effects, want 2", len(track.chain))
	}
	c.Close()
	c.Close()
	if len(track.chain) != 0 || c.HoldEffects() != 0 {
		t.Error("close should release everything")
	}
	pb.SetPosition(0)
	pb.SetPosition(1)
	if len(track.chain) != 0 {
		t.Error("closed controller must not react to playback")
	}
}

func TestInitTwicePanics(t *testing.T) {
	bm, _ := newMap()
	c, pb, track := start(t, bm)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	c.Init(pb, track)
}

func TestRebindReleasesEffects(t *testing.T) {
	bm, ms := newMap()
	bm.AddHold(ms[0], beatmap.Start, ms[1], beatmap.Start, beatmap.HoldSpec{EffectType: beatmap.EffectGate})
	c, pb, track := start(t, bm)
	pb.SetPosition(1)
	if c.HoldEffects() != 1 {
		t.Fatal("expected a gate")
	}
	pb.Bind(nil)
	if c.HoldEffects() != 0 || len(track.chain) != 0 {
		t.Error("unbinding should deactivate and release effects")
	}
}
