// Package effect turns static effect settings into live effect states bound
// to a track.
package effect

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cbegin/fxtrack-go/internal/beatmap"
	"github.com/cbegin/fxtrack-go/internal/dsp"
	"github.com/google/uuid"
)

// ErrUnsupportedSettings is returned when a registry entry was not created by this package.
var ErrUnsupportedSettings = errors.New("effect: unsupported settings")

// Track is the audio chain effects are inserted into.
type Track interface {
	AddDsp(d dsp.Dsp)
	RemoveDsp(d dsp.Dsp)
	SampleRate() int
}

// Timeline exposes the playback state effects read their timing from.
type Timeline interface {
	Beatmap() *beatmap.Beatmap
	CurrentTimingPoint() *beatmap.TimingPoint
}

// Context is what an effect state needs from its surroundings.
type Context struct {
	Timeline Timeline
	Track    Track
	Logger   *slog.Logger
}

func (c *Context) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Context) timingPoint() *beatmap.TimingPoint {
	if c.Timeline == nil {
		return nil
	}
	return c.Timeline.CurrentTimingPoint()
}

func (c *Context) seconds(t TimeParameter) float64 {
	if t == nil {
		return 0
	}
	return t.Seconds(c.timingPoint())
}

// hold resolves ref to a hold note, nil for anything else.
func (c *Context) hold(ref beatmap.ObjectReference) *beatmap.Hold {
	if c.Timeline == nil || c.Timeline.Beatmap() == nil {
		return nil
	}
	h, _ := c.Timeline.Beatmap().Object(ref).(*beatmap.Hold)
	return h
}

// holdDivision returns measureDuration/param0 for a hold with a positive
// first parameter.
func (c *Context) holdDivision(ref beatmap.ObjectReference) (float64, bool) {
	h := c.hold(ref)
	if h == nil || h.EffectParameter0 <= 0 {
		return 0, false
	}
	tp := c.timingPoint()
	if tp == nil {
		tp = c.Timeline.Beatmap().Measure(ref.Measure).TimingPoint
	}
	return tp.MeasureDuration() / float64(h.EffectParameter0), true
}

// Settings is implemented by every settings type of this package.
type Settings interface {
	beatmap.EffectSettings
	newState(ctx *Context) *State
}

// State is one live instance of an effect: a Dsp inserted into the track
// plus the hooks that drive it. Close removes the Dsp again.
type State struct {
	id       uuid.UUID
	settings Settings
	ctx      *Context
	dsp      dsp.Dsp
	closed   bool

	apply    func(beatmap.ObjectReference)
	modulate func(float32)
	update   func(time.Duration)
}

// New instantiates settings and inserts the resulting Dsp into ctx.Track.
func New(ctx *Context, settings beatmap.EffectSettings) (*State, error) {
	s, ok := settings.(Settings)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedSettings, settings)
	}
	st := s.newState(ctx)
	st.id = uuid.New()
	st.settings = s
	st.ctx = ctx
	ctx.Track.AddDsp(st.dsp)
	ctx.logger().Debug("effect created", "id", st.id, "effect", s.SettingsName())
	return st, nil
}

func (s *State) ID() uuid.UUID      { return s.id }
func (s *State) Dsp() dsp.Dsp       { return s.dsp }
func (s *State) Settings() Settings { return s.settings }
func (s *State) Closed() bool       { return s.closed }

// ApplyObjectParameters applies per-note overrides carried by the object, if any.
func (s *State) ApplyObjectParameters(ref beatmap.ObjectReference) {
	if s.apply != nil && !s.closed {
		s.apply(ref)
	}
}

// Modulate drives the effect with a 0..1 control value.
func (s *State) Modulate(v float32) {
	if s.modulate != nil && !s.closed {
		s.modulate(v)
	}
}

// Update advances time based effect parameters.
func (s *State) Update(elapsed time.Duration) {
	if s.update != nil && !s.closed {
		s.update(elapsed)
	}
}

// Close removes the Dsp from the track. Further calls do nothing.
func (s *State) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.ctx.Track.RemoveDsp(s.dsp)
	s.ctx.logger().Debug("effect removed", "id", s.id, "effect", s.settings.SettingsName())
}
