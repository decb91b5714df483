package beatmap

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidGraph is wrapped by every error Build returns.
var ErrInvalidGraph = errors.New("beatmap: invalid object graph")

// Beatmap owns timing points, measures and objects. Objects are stored in an
// arena and addressed by ObjectReference so chains and hold pairs need no
// pointer cycles.
//
// Populate it with the Add* methods and call Build once. After Build the
// timing and object graph is read-only. The effect registry returned by
// Effects stays mutable (presets, config reloads) and must only be touched
// from the simulation goroutine.
type Beatmap struct {
	Metadata Metadata

	timingPoints []*TimingPoint
	measures     []*Measure // index 0 unused
	objects      []Object   // index 0 unused
	effects      *EffectRegistry

	events [numEventGroups][]ObjectReference
	built  bool
}

// New returns an empty beatmap with an empty effect registry.
func New() *Beatmap {
	return &Beatmap{
		measures: []*Measure{nil},
		objects:  []Object{nil},
		effects:  NewEffectRegistry(),
	}
}

// Effects returns the effect registry used to instantiate hold and laser effects.
func (b *Beatmap) Effects() *EffectRegistry { return b.effects }

// Built reports whether Build completed successfully.
func (b *Beatmap) Built() bool { return b.built }

// TimingPoints returns timing points ordered by offset.
func (b *Beatmap) TimingPoints() []*TimingPoint { return b.timingPoints }

// Measures returns every measure in playback order.
func (b *Beatmap) Measures() []*Measure {
	out := make([]*Measure, 0, len(b.measures)-1)
	for _, tp := range b.timingPoints {
		out = append(out, tp.measures...)
	}
	return out
}

// Measure resolves a MeasureID; nil for the zero id.
func (b *Beatmap) Measure(id MeasureID) *Measure {
	if id <= 0 || int(id) >= len(b.measures) {
		return nil
	}
	return b.measures[id]
}

// Object resolves a reference; nil for invalid references.
func (b *Beatmap) Object(r ObjectReference) Object {
	if r.Object <= 0 || int(r.Object) >= len(b.objects) {
		return nil
	}
	return b.objects[r.Object]
}

// ObjectCount returns the number of objects in the arena.
func (b *Beatmap) ObjectCount() int { return len(b.objects) - 1 }

// Position returns the absolute anchor position of an object in seconds.
func (b *Beatmap) Position(r ObjectReference) float64 {
	o := b.Object(r)
	if o == nil {
		return 0
	}
	m := b.measures[o.base().Measure]
	return m.AbsolutePosition() + m.TimingPoint.DivisionDuration(o.base().Position)
}

// Lifetime returns the interval during which an object is relevant to playback.
// Lasers span from their chain root to their next node, holds span to their end,
// everything else is a point.
func (b *Beatmap) Lifetime(r ObjectReference) (start, end float64) {
	switch o := b.Object(r).(type) {
	case *Hold:
		return b.Position(r), b.Position(o.End)
	case *Laser:
		return b.laserLifetime(r, o)
	case *LaserRoot:
		return b.laserLifetime(r, &o.Laser)
	}
	p := b.Position(r)
	return p, p
}

func (b *Beatmap) laserLifetime(r ObjectReference, l *Laser) (float64, float64) {
	start := b.Position(l.Root)
	if l.Next.Valid() {
		return start, b.Position(l.Next)
	}
	return start, b.Position(r)
}

// AddTimingPoint appends tp. Timing points must be added in offset order.
func (b *Beatmap) AddTimingPoint(tp *TimingPoint) *TimingPoint {
	b.mustBeMutable()
	tp.beatmap = b
	tp.index = len(b.timingPoints)
	b.timingPoints = append(b.timingPoints, tp)
	return tp
}

// AddMeasure appends a measure to tp.
func (b *Beatmap) AddMeasure(tp *TimingPoint) *Measure {
	b.mustBeMutable()
	m := &Measure{
		ID:          MeasureID(len(b.measures)),
		Index:       len(tp.measures),
		TimingPoint: tp,
	}
	b.measures = append(b.measures, m)
	tp.measures = append(tp.measures, m)
	return m
}

func (b *Beatmap) add(m *Measure, pos TimeDivision, o Object) ObjectReference {
	b.mustBeMutable()
	base := o.base()
	base.ID = ObjectID(len(b.objects))
	base.Measure = m.ID
	base.Position = pos
	b.objects = append(b.objects, o)
	ref := base.Ref()
	m.objects = append(m.objects, ref)
	return ref
}

// AddButton places a tap note.
func (b *Beatmap) AddButton(m *Measure, pos TimeDivision, index int) ObjectReference {
	return b.add(m, pos, &Button{Index: index})
}

// HoldSpec describes a hold note for AddHold.
type HoldSpec struct {
	Index            int
	EffectType       EffectType
	EffectParameter0 int16
	EffectParameter1 int16
}

// AddHold places a hold and its end marker and links them.
func (b *Beatmap) AddHold(m *Measure, pos TimeDivision, endMeasure *Measure, endPos TimeDivision, hs HoldSpec) (start, end ObjectReference) {
	h := &Hold{
		Index:            hs.Index,
		EffectType:       hs.EffectType,
		EffectParameter0: hs.EffectParameter0,
		EffectParameter1: hs.EffectParameter1,
	}
	start = b.add(m, pos, h)
	he := &HoldEnd{Start: start}
	end = b.add(endMeasure, endPos, he)
	h.End = end
	return start, end
}

// AddLaserRoot starts a new chain on the given laser index (0 left, 1 right).
func (b *Beatmap) AddLaserRoot(m *Measure, pos TimeDivision, chain int, x float32, extended bool) ObjectReference {
	root := &LaserRoot{Chain: chain, Extended: extended}
	root.HorizontalPosition = x
	ref := b.add(m, pos, root)
	root.Root = ref
	return ref
}

// AddLaser appends a node after prev in prev's chain. A node placed at the
// same position as prev makes the segment between them a slam.
func (b *Beatmap) AddLaser(prev ObjectReference, m *Measure, pos TimeDivision, x float32) ObjectReference {
	pl := LaserOf(b.Object(prev))
	if pl == nil {
		panic(fmt.Sprintf("beatmap: AddLaser after non-laser %v", prev))
	}
	l := &Laser{HorizontalPosition: x, Root: pl.Root, Previous: prev}
	ref := b.add(m, pos, l)
	pl.Next = ref
	return ref
}

// AddControlPoint places a control key and links it to the previous key of the same type.
func (b *Beatmap) AddControlPoint(m *Measure, pos TimeDivision, typ ControlPointType, value float32) ObjectReference {
	cp := &ControlPoint{Type: typ, Value: value}
	ref := b.add(m, pos, cp)
	for i := len(b.objects) - 2; i > 0; i-- {
		if prev, ok := b.objects[i].(*ControlPoint); ok && prev.Type == typ && !prev.Next.Valid() {
			prev.Next = ref
			cp.Previous = prev.Ref()
			break
		}
	}
	return ref
}

func (b *Beatmap) AddRollModifier(m *Measure, pos TimeDivision, lock bool) ObjectReference {
	return b.add(m, pos, &RollModifier{Lock: lock})
}

func (b *Beatmap) AddLaserEffectType(m *Measure, pos TimeDivision, t EffectType) ObjectReference {
	return b.add(m, pos, &LaserEffectTypeEvent{EffectType: t})
}

func (b *Beatmap) mustBeMutable() {
	if b.built {
		panic("beatmap: modified after Build")
	}
}

// Build validates the object graph, sorts measures and computes the derived
// indexes used during playback. It must be called exactly once.
func (b *Beatmap) Build() error {
	if b.built {
		return fmt.Errorf("%w: already built", ErrInvalidGraph)
	}
	if err := b.validateTiming(); err != nil {
		return err
	}
	if err := b.validateObjects(); err != nil {
		return err
	}
	for _, m := range b.measures[1:] {
		m.sort(b)
	}
	if err := b.validateOrder(); err != nil {
		return err
	}
	b.updateCrossingObjects()
	b.buildEventIndex()
	b.built = true
	return nil
}

func (b *Beatmap) validateTiming() error {
	for i, tp := range b.timingPoints {
		if tp.bpm <= 0 {
			return fmt.Errorf("%w: timing point %d has bpm %g", ErrInvalidGraph, i, tp.bpm)
		}
		if tp.numerator <= 0 || tp.denominator <= 0 {
			return fmt.Errorf("%w: timing point %d has signature %d/%d", ErrInvalidGraph, i, tp.numerator, tp.denominator)
		}
		if i > 0 && tp.offset <= b.timingPoints[i-1].offset {
			return fmt.Errorf("%w: timing point %d offset %g not after %g", ErrInvalidGraph, i, tp.offset, b.timingPoints[i-1].offset)
		}
	}
	return nil
}

func (b *Beatmap) validateObjects() error {
	for _, o := range b.objects[1:] {
		ref := o.Ref()
		pos := o.base().Position
		if pos.Denominator <= 0 || pos.Numerator < 0 || pos.Compare(End) >= 0 {
			return fmt.Errorf("%w: %v position %v outside measure", ErrInvalidGraph, ref, pos)
		}
		switch v := o.(type) {
		case *Hold:
			he, ok := b.Object(v.End).(*HoldEnd)
			if !ok || he.Start != ref {
				return fmt.Errorf("%w: hold %v has no matching end", ErrInvalidGraph, ref)
			}
		case *HoldEnd:
			if h, ok := b.Object(v.Start).(*Hold); !ok || h.End != ref {
				return fmt.Errorf("%w: hold end %v has no matching start", ErrInvalidGraph, ref)
			}
		case *Laser:
			if err := b.validateLaser(ref, v); err != nil {
				return err
			}
			if !v.Previous.Valid() {
				return fmt.Errorf("%w: laser %v has no previous node", ErrInvalidGraph, ref)
			}
		case *LaserRoot:
			if err := b.validateLaser(ref, &v.Laser); err != nil {
				return err
			}
			if v.Previous.Valid() {
				return fmt.Errorf("%w: laser root %v has a previous node", ErrInvalidGraph, ref)
			}
			if v.Chain < 0 || v.Chain > 1 {
				return fmt.Errorf("%w: laser root %v on chain %d", ErrInvalidGraph, ref, v.Chain)
			}
		}
	}
	return nil
}

func (b *Beatmap) validateLaser(ref ObjectReference, l *Laser) error {
	if _, ok := b.Object(l.Root).(*LaserRoot); !ok {
		return fmt.Errorf("%w: laser %v root %v is not a laser root", ErrInvalidGraph, ref, l.Root)
	}
	if l.Next.Valid() {
		n := LaserOf(b.Object(l.Next))
		if n == nil || n.Previous != ref || n.Root != l.Root {
			return fmt.Errorf("%w: laser %v next link is broken", ErrInvalidGraph, ref)
		}
	}
	if l.HorizontalPosition < 0 || l.HorizontalPosition > 1 {
		return fmt.Errorf("%w: laser %v position %g outside 0..1", ErrInvalidGraph, ref, l.HorizontalPosition)
	}
	return nil
}

// validateOrder checks that holds and laser links never point backwards in time.
func (b *Beatmap) validateOrder() error {
	for _, o := range b.objects[1:] {
		ref := o.Ref()
		switch v := o.(type) {
		case *Hold:
			if b.Position(v.End) < b.Position(ref) {
				return fmt.Errorf("%w: hold %v ends before it starts", ErrInvalidGraph, ref)
			}
		case *Laser, *LaserRoot:
			if l := LaserOf(v); l.Next.Valid() && b.Position(l.Next) < b.Position(ref) {
				return fmt.Errorf("%w: laser %v next node is earlier", ErrInvalidGraph, ref)
			}
		}
	}
	return nil
}

// updateCrossingObjects records for each measure which holds and laser
// segments started earlier and are still running when it begins.
func (b *Beatmap) updateCrossingObjects() {
	var active []ObjectReference
	remove := func(r ObjectReference) {
		for i, a := range active {
			if a.Object == r.Object {
				active = append(active[:i], active[i+1:]...)
				return
			}
		}
	}
	for _, tp := range b.timingPoints {
		for _, m := range tp.measures {
			m.crossing = append([]ObjectReference(nil), active...)
			for _, ref := range m.objects {
				switch v := b.Object(ref).(type) {
				case *Hold:
					active = append(active, ref)
				case *HoldEnd:
					remove(v.Start)
				case *Laser, *LaserRoot:
					l := LaserOf(v)
					if l.Previous.Valid() {
						remove(l.Previous)
					}
					if l.Next.Valid() {
						active = append(active, ref)
					}
				}
			}
		}
	}
}

func (b *Beatmap) buildEventIndex() {
	for _, tp := range b.timingPoints {
		for _, m := range tp.measures {
			for _, ref := range m.objects {
				if g, ok := eventGroupOf(b.Object(ref)); ok {
					b.events[g] = append(b.events[g], ref)
				}
			}
		}
	}
}

// Events returns the events of a group sorted by position.
func (b *Beatmap) Events(g EventGroup) []ObjectReference {
	if g < 0 || g >= numEventGroups {
		return nil
	}
	return b.events[g]
}

// ActiveEvent returns the last event of group g at or before t.
func (b *Beatmap) ActiveEvent(g EventGroup, t float64) (ObjectReference, bool) {
	evs := b.Events(g)
	i := sort.Search(len(evs), func(i int) bool { return b.Position(evs[i]) > t })
	if i == 0 {
		return ObjectReference{}, false
	}
	return evs[i-1], true
}

// LaserEffectType returns the laser effect in force at t, or def when no
// LaserEffectTypeEvent precedes t.
func (b *Beatmap) LaserEffectType(t float64, def EffectType) EffectType {
	if r, ok := b.ActiveEvent(GroupLaserEffectType, t); ok {
		return b.Object(r).(*LaserEffectTypeEvent).EffectType
	}
	return def
}

// ControlValue interpolates the control curve of typ at t.
func (b *Beatmap) ControlValue(typ ControlPointType, t float64) (float32, bool) {
	evs := b.Events(typ.Group())
	i := sort.Search(len(evs), func(i int) bool { return b.Position(evs[i]) > t })
	// Groups may be shared between control types.
	for i--; i >= 0; i-- {
		cp, ok := b.Object(evs[i]).(*ControlPoint)
		if !ok || cp.Type != typ {
			continue
		}
		next, ok := b.Object(cp.Next).(*ControlPoint)
		if !ok {
			return cp.Value, true
		}
		p0, p1 := b.Position(evs[i]), b.Position(cp.Next)
		if p1 <= p0 {
			return next.Value, true
		}
		f := float32((t - p0) / (p1 - p0))
		return cp.Value + (next.Value-cp.Value)*f, true
	}
	return 0, false
}

// FirstObject returns the earliest gameplay object, skipping events.
func (b *Beatmap) FirstObject() (ObjectReference, bool) {
	for _, tp := range b.timingPoints {
		for _, m := range tp.measures {
			for _, r := range m.objects {
				if !IsEvent(b.Object(r)) {
					return r, true
				}
			}
		}
	}
	return ObjectReference{}, false
}

// LastObject returns the latest gameplay object, skipping events.
func (b *Beatmap) LastObject() (ObjectReference, bool) {
	for i := len(b.timingPoints) - 1; i >= 0; i-- {
		ms := b.timingPoints[i].measures
		for j := len(ms) - 1; j >= 0; j-- {
			objs := ms[j].objects
			for k := len(objs) - 1; k >= 0; k-- {
				if !IsEvent(b.Object(objs[k])) {
					return objs[k], true
				}
			}
		}
	}
	return ObjectReference{}, false
}
