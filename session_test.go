package fxtrack

import (
	"errors"
	"testing"
	"time"

	intaudio "github.com/cbegin/fxtrack-go/internal/audio"
	"github.com/cbegin/fxtrack-go/internal/beatmap"
	"github.com/cbegin/fxtrack-go/internal/config"
	"github.com/cbegin/fxtrack-go/internal/demo"
	"github.com/cbegin/fxtrack-go/internal/effect"
)

// echoMap is a 120 BPM audition with one section: an echo hold from 2s to
// 4s, then a laser from 4s with a slam at 5.5s.
func echoMap(t *testing.T) *beatmap.Beatmap {
	t.Helper()
	bm, err := demo.Audition(demo.Options{BPM: 120, Effects: []beatmap.EffectType{beatmap.EffectEcho}})
	if err != nil {
		t.Fatalf("audition: %v", err)
	}
	return bm
}

func TestNewSessionValidates(t *testing.T) {
	if _, err := NewSession(echoMap(t), 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := NewSession(beatmap.New(), 48000); err == nil {
		t.Error("expected error for unbuilt beatmap")
	}
	if _, err := NewSession(echoMap(t), 48000, WithViewDuration(0)); err == nil {
		t.Error("expected error for zero view duration")
	}
}

func TestSessionEffectsFollowPosition(t *testing.T) {
	s, err := NewSession(echoMap(t), 48000)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if got := s.ActiveEffects(); got != 0 {
		t.Fatalf("effects at start = %d, want 0", got)
	}
	if err := s.SetPosition(2.5); err != nil {
		t.Fatal(err)
	}
	if got := s.ActiveEffects(); got != 1 {
		t.Fatalf("effects during hold = %d, want 1", got)
	}
	if err := s.SetPosition(4.6); err != nil {
		t.Fatal(err)
	}
	if got := s.ActiveEffects(); got != 1 {
		t.Fatalf("effects during laser = %d, want 1", got)
	}
	if err := s.SetPosition(1); err != nil {
		t.Fatal(err)
	}
	if got := s.ActiveEffects(); got != 0 {
		t.Fatalf("effects after rewind = %d, want 0", got)
	}
	if got := s.Position(); got != 1 {
		t.Errorf("position = %f, want 1", got)
	}
}

func TestSessionWatchEvents(t *testing.T) {
	s, err := NewSession(echoMap(t), 8000)
	if err != nil {
		t.Fatal(err)
	}
	events := s.Watch()
	if _, err := s.Render(7, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	counts := map[EventKind]int{}
	var slamAt float64
	for ev := range events {
		counts[ev.Kind]++
		if ev.Kind == EventSlam {
			slamAt = ev.Position
		}
	}
	if counts[EventSlam] != 1 {
		t.Errorf("slams = %d, want 1", counts[EventSlam])
	}
	if slamAt < 5.5 || slamAt > 5.6 {
		t.Errorf("slam at %f, want just after 5.5", slamAt)
	}
	if counts[EventPlaybackEnded] != 1 {
		t.Errorf("ended events = %d, want 1", counts[EventPlaybackEnded])
	}
	if counts[EventMeasureEntered] < 2 {
		t.Errorf("measure events = %d, want at least 2", counts[EventMeasureEntered])
	}
	if counts[EventObjectActivated] == 0 || counts[EventObjectActivated] != counts[EventObjectDeactivated] {
		t.Errorf("activations %d, deactivations %d", counts[EventObjectActivated], counts[EventObjectDeactivated])
	}
}

func TestSessionSlamSample(t *testing.T) {
	sample := []float32{0.5, 0.5, 0.5, 0.5}
	s, err := NewSession(echoMap(t), 8000, WithSlamSample(sample, 1))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	out, err := s.Render(6, 0)
	if err != nil {
		t.Fatal(err)
	}
	nonZero := 0
	for _, v := range out {
		if v != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Fatal("slam sample never sounded over a silent track")
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	s, err := NewSession(echoMap(t), 48000)
	if err != nil {
		t.Fatal(err)
	}
	events := s.Watch()
	if err := s.SetPosition(2.5); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if got := s.ActiveEffects(); got != 0 {
		t.Errorf("effects after close = %d, want 0", got)
	}
	if err := s.Tick(); !errors.Is(err, ErrClosed) {
		t.Errorf("tick after close = %v, want ErrClosed", err)
	}
	for range events {
	}
}

func TestSessionWatchChannelsAlwaysClose(t *testing.T) {
	s, err := NewSession(echoMap(t), 48000)
	if err != nil {
		t.Fatal(err)
	}
	first := s.Watch()
	second := s.Watch()
	if _, ok := <-first; ok {
		t.Error("replaced watch channel should be closed")
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	for range second {
	}
	late := s.Watch()
	if _, ok := <-late; ok {
		t.Error("watch after close should return a closed channel")
	}
}

func TestSessionOffsetAndClock(t *testing.T) {
	var clock intaudio.ManualClock
	s, err := NewSession(echoMap(t), 48000, WithClock(&clock), WithOffset(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	clock.Set(3500 * time.Millisecond)
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	if got := s.Position(); got != 2.5 {
		t.Errorf("position = %f, want 2.5", got)
	}
	if got := s.ActiveEffects(); got != 1 {
		t.Errorf("effects = %d, want 1", got)
	}
}

func TestSessionApplyConfig(t *testing.T) {
	s, err := NewSession(echoMap(t), 48000)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	cfg, err := config.Parse([]byte("view_duration: 1\nmaster_eq: [1, 0.25, 1, 1, 1]\neffects:\n  echo:\n    feedback: 0.9\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ApplyConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if got := s.EQBand(1); got != 0.25 {
		t.Errorf("eq band 1 = %f, want 0.25", got)
	}
	settings, _ := s.Beatmap().Effects().Get(beatmap.EffectEcho)
	if got := settings.(*effect.EchoSettings).Feedback; got != 0.9 {
		t.Errorf("echo feedback = %f, want 0.9", got)
	}
}

func TestEventKindString(t *testing.T) {
	if EventSlam.String() != "slam" || EventKind(42).String() != "event(42)" {
		t.Errorf("unexpected names %q %q", EventSlam, EventKind(42))
	}
}
