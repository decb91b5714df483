// Package playback maintains the sliding view window over a beatmap and
// reports objects and measures entering, activating, deactivating and leaving it.
package playback

import (
	"log/slog"
	"sort"

	"github.com/cbegin/fxtrack-go/internal/beatmap"
)

// DefaultViewDuration is the look-ahead used by New, in seconds.
const DefaultViewDuration = 2.0

// Handlers receives lifecycle events. Nil fields are skipped.
type Handlers struct {
	ObjectEntered       func(beatmap.ObjectReference)
	ObjectActivated     func(beatmap.ObjectReference)
	ObjectDeactivated   func(beatmap.ObjectReference)
	ObjectLeft          func(beatmap.ObjectReference)
	MeasureEntered      func(*beatmap.Measure)
	MeasureLeft         func(*beatmap.Measure)
	ViewDurationChanged func(float64)
}

type subscription struct {
	id int
	h  Handlers
}

// Playback tracks which objects fall inside [position, position+viewDuration).
// It is driven from a single simulation goroutine and is not safe for concurrent use.
type Playback struct {
	beatmap      *beatmap.Beatmap
	position     float64
	viewDuration float64

	currentMeasure *beatmap.Measure

	objectsInView  []beatmap.ObjectReference
	inView         map[beatmap.ObjectID]struct{}
	active         map[beatmap.ObjectID]struct{}
	measuresInView []*beatmap.Measure
	measureSet     map[beatmap.MeasureID]struct{}

	first, last beatmap.ObjectReference
	hasEnded    bool

	subs   []subscription
	nextID int
	logger *slog.Logger

	// scratch reused across updates
	added   []beatmap.ObjectReference
	walked  []*beatmap.Measure
	walkSet map[beatmap.MeasureID]struct{}
}

// Option configures a Playback.
type Option func(*Playback)

// WithViewDuration sets the initial look-ahead in seconds.
func WithViewDuration(d float64) Option {
	return func(p *Playback) { p.viewDuration = d }
}

// WithLogger routes debug output to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Playback) { p.logger = logger }
}

// New creates an unbound playback.
func New(opts ...Option) *Playback {
	p := &Playback{
		viewDuration: DefaultViewDuration,
		inView:       make(map[beatmap.ObjectID]struct{}),
		active:       make(map[beatmap.ObjectID]struct{}),
		measureSet:   make(map[beatmap.MeasureID]struct{}),
		walkSet:      make(map[beatmap.MeasureID]struct{}),
		hasEnded:     true,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe registers handlers and returns a function that removes them.
// Calling the returned function more than once is a no-op.
func (p *Playback) Subscribe(h Handlers) (unsubscribe func()) {
	id := p.nextID
	p.nextID++
	p.subs = append(p.subs, subscription{id: id, h: h})
	return func() {
		for i, s := range p.subs {
			if s.id == id {
				p.subs = append(p.subs[:i:i], p.subs[i+1:]...)
				return
			}
		}
	}
}

// Bind replaces the beatmap. Prior membership is torn down with the usual
// Deactivate and Leave events before the new beatmap is scanned at the current position.
// The beatmap must already be built.
func (p *Playback) Bind(bm *beatmap.Beatmap) {
	if bm != nil && !bm.Built() {
		panic("playback: Bind with unbuilt beatmap")
	}
	for _, r := range p.objectsInView {
		if _, ok := p.active[r.Object]; ok {
			p.emitDeactivated(r)
		}
		p.emitLeft(r)
	}
	for _, m := range p.measuresInView {
		p.emitMeasureLeft(m)
	}
	p.objectsInView = p.objectsInView[:0]
	p.measuresInView = p.measuresInView[:0]
	clear(p.inView)
	clear(p.active)
	clear(p.measureSet)
	p.currentMeasure = nil
	p.first, p.last = beatmap.ObjectReference{}, beatmap.ObjectReference{}

	p.beatmap = bm
	if bm == nil {
		p.hasEnded = true
		return
	}
	p.first, _ = bm.FirstObject()
	p.last, _ = bm.LastObject()
	p.logger.Debug("playback bound", "measures", len(bm.Measures()), "objects", bm.ObjectCount())
	p.updateView()
}

func (p *Playback) Beatmap() *beatmap.Beatmap { return p.beatmap }

func (p *Playback) Position() float64 { return p.position }

// SetPosition moves the window and emits the resulting events synchronously.
func (p *Playback) SetPosition(t float64) {
	p.position = t
	p.updateView()
}

func (p *Playback) ViewDuration() float64 { return p.viewDuration }

// SetViewDuration changes the look-ahead. ViewDurationChanged fires before
// the window is recomputed.
func (p *Playback) SetViewDuration(d float64) {
	if d < 0 {
		d = 0
	}
	p.viewDuration = d
	for _, s := range p.snapshot() {
		if s.h.ViewDurationChanged != nil {
			s.h.ViewDurationChanged(d)
		}
	}
	p.updateView()
}

// ObjectsInView returns the objects whose lifetime intersects the window,
// in the order they entered.
func (p *Playback) ObjectsInView() []beatmap.ObjectReference {
	return append([]beatmap.ObjectReference(nil), p.objectsInView...)
}

// ActiveObjects returns the in-view objects that have started.
func (p *Playback) ActiveObjects() []beatmap.ObjectReference {
	out := make([]beatmap.ObjectReference, 0, len(p.active))
	for _, r := range p.objectsInView {
		if _, ok := p.active[r.Object]; ok {
			out = append(out, r)
		}
	}
	return out
}

// IsActive reports whether r is currently active.
func (p *Playback) IsActive(r beatmap.ObjectReference) bool {
	_, ok := p.active[r.Object]
	return ok
}

// IsInView reports whether r is currently in the window.
func (p *Playback) IsInView(r beatmap.ObjectReference) bool {
	_, ok := p.inView[r.Object]
	return ok
}

// MeasuresInView returns the measures overlapping the window in playback order.
func (p *Playback) MeasuresInView() []*beatmap.Measure {
	return append([]*beatmap.Measure(nil), p.measuresInView...)
}

// CurrentMeasure returns the measure containing the position, nil when unbound.
func (p *Playback) CurrentMeasure() *beatmap.Measure { return p.currentMeasure }

// CurrentTimingPoint returns the timing point of the current measure.
func (p *Playback) CurrentTimingPoint() *beatmap.TimingPoint {
	if p.currentMeasure != nil {
		return p.currentMeasure.TimingPoint
	}
	if p.beatmap != nil {
		if tps := p.beatmap.TimingPoints(); len(tps) > 0 {
			return selectTimingPoint(tps, p.position)
		}
	}
	return nil
}

func (p *Playback) FirstObject() beatmap.ObjectReference { return p.first }
func (p *Playback) LastObject() beatmap.ObjectReference  { return p.last }

// HasEnded reports whether nothing is in view and the position is past the last object.
func (p *Playback) HasEnded() bool { return p.hasEnded }

func (p *Playback) snapshot() []subscription {
	return append([]subscription(nil), p.subs...)
}

func (p *Playback) emitEntered(r beatmap.ObjectReference) {
	for _, s := range p.snapshot() {
		if s.h.ObjectEntered != nil {
			s.h.ObjectEntered(r)
		}
	}
}

func (p *Playback) emitActivated(r beatmap.ObjectReference) {
	p.active[r.Object] = struct{}{}
	for _, s := range p.snapshot() {
		if s.h.ObjectActivated != nil {
			s.h.ObjectActivated(r)
		}
	}
}

func (p *Playback) emitDeactivated(r beatmap.ObjectReference) {
	delete(p.active, r.Object)
	for _, s := range p.snapshot() {
		if s.h.ObjectDeactivated != nil {
			s.h.ObjectDeactivated(r)
		}
	}
}

func (p *Playback) emitLeft(r beatmap.ObjectReference) {
	for _, s := range p.snapshot() {
		if s.h.ObjectLeft != nil {
			s.h.ObjectLeft(r)
		}
	}
}

func (p *Playback) emitMeasureEntered(m *beatmap.Measure) {
	for _, s := range p.snapshot() {
		if s.h.MeasureEntered != nil {
			s.h.MeasureEntered(m)
		}
	}
}

func (p *Playback) emitMeasureLeft(m *beatmap.Measure) {
	for _, s := range p.snapshot() {
		if s.h.MeasureLeft != nil {
			s.h.MeasureLeft(m)
		}
	}
}

// selectTimingPoint returns the last timing point whose offset is at or before t,
// or the first one when t precedes them all.
func selectTimingPoint(tps []*beatmap.TimingPoint, t float64) *beatmap.TimingPoint {
	i := sort.Search(len(tps), func(i int) bool { return tps[i].Offset() > t })
	if i == 0 {
		return tps[0]
	}
	return tps[i-1]
}
