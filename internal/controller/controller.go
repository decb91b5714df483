// Package controller binds playback lifecycle events to live audio effects:
// one effect per hold note with an effect type, one shared effect driven by
// all active lasers, and a one-shot sample for laser slams.
package controller

import (
	"log/slog"
	"time"

	"github.com/cbegin/fxtrack-go/internal/beatmap"
	"github.com/cbegin/fxtrack-go/internal/effect"
	"github.com/cbegin/fxtrack-go/internal/playback"
)

// Trigger plays a one-shot sound.
type Trigger interface {
	Trigger()
}

// Controller owns every effect state it creates and releases them on
// deactivation or Close. It is driven from the simulation goroutine.
type Controller struct {
	logger      *slog.Logger
	laserEffect beatmap.EffectType
	slam        Trigger

	playback    *playback.Playback
	ctx         *effect.Context
	unsubscribe func()
	closed      bool

	holds        map[beatmap.ObjectID]*effect.State
	laser        *laserBinding
	pendingSlams map[beatmap.ObjectID]beatmap.ObjectReference
	lastPosition float64
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithLaserEffect sets the laser effect used before any laser effect type event.
func WithLaserEffect(t beatmap.EffectType) Option {
	return func(c *Controller) { c.laserEffect = t }
}

// WithSlam sets the sound triggered when a laser slam is reached.
func WithSlam(t Trigger) Option {
	return func(c *Controller) { c.slam = t }
}

func New(opts ...Option) *Controller {
	c := &Controller{
		logger:       slog.Default(),
		laserEffect:  beatmap.EffectPeakingFilter,
		holds:        make(map[beatmap.ObjectID]*effect.State),
		pendingSlams: make(map[beatmap.ObjectID]beatmap.ObjectReference),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init subscribes to pb and inserts effects into track from now on.
// Calling Init twice is a programming error and panics.
func (c *Controller) Init(pb *playback.Playback, track effect.Track) {
	if c.playback != nil || c.closed {
		panic("controller: already initialised")
	}
	c.playback = pb
	c.ctx = &effect.Context{Timeline: pb, Track: track, Logger: c.logger}
	c.lastPosition = pb.Position()
	c.unsubscribe = pb.Subscribe(playback.Handlers{
		ObjectEntered:     c.onEntered,
		ObjectActivated:   c.onActivated,
		ObjectDeactivated: c.onDeactivated,
		ObjectLeft:        c.onLeft,
	})
	// objects already visible or active at bind time
	for _, r := range pb.ObjectsInView() {
		c.onEntered(r)
	}
	for _, r := range pb.ActiveObjects() {
		c.onActivated(r)
	}
}

// Close tears down every effect and unsubscribes. Further calls do nothing.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	for id, st := range c.holds {
		st.Close()
		delete(c.holds, id)
	}
	if c.laser != nil {
		c.laser.close()
		c.laser = nil
	}
	clear(c.pendingSlams)
}

// Update advances every effect by the time elapsed since the previous call,
// fires due slams and modulates the laser effect with the current laser positions.
func (c *Controller) Update() {
	if c.playback == nil || c.closed {
		return
	}
	pos := c.playback.Position()
	elapsed := time.Duration(max(pos-c.lastPosition, 0) * float64(time.Second))
	c.lastPosition = pos
	bm := c.playback.Beatmap()

	for _, ref := range c.pendingSlams {
		if pos >= bm.Position(ref) {
			c.fireSlam(ref)
		}
	}
	for _, st := range c.holds {
		st.Update(elapsed)
	}
	if c.laser != nil {
		c.laser.update(bm, pos, elapsed)
	}
}

// HoldEffects returns the number of live hold effects.
func (c *Controller) HoldEffects() int { return len(c.holds) }

// HoldEffect returns the effect bound to a hold, if any.
func (c *Controller) HoldEffect(ref beatmap.ObjectReference) (*effect.State, bool) {
	st, ok := c.holds[ref.Object]
	return st, ok
}

// LaserEffect returns the shared laser effect state, nil while no laser is active
// or the laser effect type has no settings.
func (c *Controller) LaserEffect() *effect.State {
	if c.laser == nil {
		return nil
	}
	return c.laser.state
}

// LaserValue returns the combined laser position applied at the last Update.
func (c *Controller) LaserValue() (float32, bool) {
	if c.laser == nil || !c.laser.sampled {
		return 0, false
	}
	return c.laser.value, true
}

// onEntered queues slams as soon as they are visible. A slam at the root of
// a chain has an empty lifetime and is never activated.
func (c *Controller) onEntered(ref beatmap.ObjectReference) {
	bm := c.playback.Beatmap()
	switch bm.Object(ref).(type) {
	case *beatmap.Laser, *beatmap.LaserRoot:
		if bm.IsInstant(ref) {
			c.pendingSlams[ref.Object] = ref
		}
	}
}

func (c *Controller) onLeft(ref beatmap.ObjectReference) {
	if _, ok := c.pendingSlams[ref.Object]; !ok {
		return
	}
	// a slam passed between two updates still sounds
	at := c.playback.Beatmap().Position(ref)
	if at >= c.lastPosition && c.playback.Position() >= at {
		c.fireSlam(ref)
	}
	delete(c.pendingSlams, ref.Object)
}

func (c *Controller) onActivated(ref beatmap.ObjectReference) {
	bm := c.playback.Beatmap()
	switch o := bm.Object(ref).(type) {
	case *beatmap.Hold:
		if o.EffectType == beatmap.EffectNone {
			return
		}
		if _, ok := c.holds[ref.Object]; ok {
			return
		}
		settings, ok := bm.Effects().Get(o.EffectType)
		if !ok {
			c.logger.Debug("no settings for hold effect", "effect", o.EffectType, "object", ref)
			return
		}
		st, err := effect.New(c.ctx, settings)
		if err != nil {
			c.logger.Warn("hold effect", "effect", o.EffectType, "err", err)
			return
		}
		st.ApplyObjectParameters(ref)
		c.holds[ref.Object] = st
	case *beatmap.Laser, *beatmap.LaserRoot:
		if bm.IsInstant(ref) {
			return
		}
		if c.laser == nil {
			c.laser = c.newLaserBinding(bm)
		}
		c.laser.attach(bm, ref)
	}
}

func (c *Controller) onDeactivated(ref beatmap.ObjectReference) {
	if st, ok := c.holds[ref.Object]; ok {
		st.Close()
		delete(c.holds, ref.Object)
		return
	}
	if _, ok := c.pendingSlams[ref.Object]; ok {
		return
	}
	if c.laser != nil && c.laser.detach(ref) {
		c.laser.close()
		c.laser = nil
	}
}

func (c *Controller) fireSlam(ref beatmap.ObjectReference) {
	delete(c.pendingSlams, ref.Object)
	if c.slam != nil {
		c.slam.Trigger()
	}
}

func (c *Controller) newLaserBinding(bm *beatmap.Beatmap) *laserBinding {
	t := bm.LaserEffectType(c.playback.Position(), c.laserEffect)
	b := newLaserBinding()
	settings, ok := bm.Effects().Get(t)
	if !ok {
		c.logger.Debug("no settings for laser effect", "effect", t)
		return b
	}
	st, err := effect.New(c.ctx, settings)
	if err != nil {
		c.logger.Warn("laser effect", "effect", t, "err", err)
		return b
	}
	b.state = st
	return b
}
