package beatmap

import "fmt"

// ObjectID addresses an object inside its Beatmap. The zero value is "no object".
type ObjectID int32

// ObjectReference locates an object and the measure that owns it.
// Two references are the same object when their Object ids match.
type ObjectReference struct {
	Object  ObjectID
	Measure MeasureID
}

// Valid reports whether the reference points at an object.
func (r ObjectReference) Valid() bool { return r.Object != 0 }

func (r ObjectReference) String() string {
	if !r.Valid() {
		return "ref(none)"
	}
	return fmt.Sprintf("ref(%d@%d)", r.Object, r.Measure)
}

// Kind identifies the concrete type behind an Object.
type Kind int

const (
	KindButton Kind = iota
	KindHold
	KindHoldEnd
	KindLaser
	KindLaserRoot
	KindControlPoint
	KindRollModifier
	KindLaserEffectType
)

var kindNames = [...]string{"button", "hold", "hold-end", "laser", "laser-root", "control-point", "roll-modifier", "laser-effect-type"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Object is the closed set of things that can be placed in a measure.
// Switch on the concrete pointer type to access variant data.
type Object interface {
	Kind() Kind
	Ref() ObjectReference
	base() *Base
}

// Base carries the fields every object shares.
type Base struct {
	ID       ObjectID
	Measure  MeasureID
	Position TimeDivision
}

func (b *Base) base() *Base { return b }

// Ref returns the reference addressing this object.
func (b *Base) Ref() ObjectReference { return ObjectReference{Object: b.ID, Measure: b.Measure} }

// Button is a single tap note. Index 0..3 are BT lanes, 4..5 are FX lanes.
type Button struct {
	Base
	Index int
}

func (*Button) Kind() Kind { return KindButton }

// Hold is a long note. Its End references the matching HoldEnd.
type Hold struct {
	Base
	Index            int
	End              ObjectReference
	EffectType       EffectType
	EffectParameter0 int16
	EffectParameter1 int16
}

func (*Hold) Kind() Kind { return KindHold }

// HoldEnd marks where a Hold stops.
type HoldEnd struct {
	Base
	Start ObjectReference
}

func (*HoldEnd) Kind() Kind { return KindHoldEnd }

// Laser is one node of a laser chain. HorizontalPosition is 0..1.
// Root points at the first node of the chain; the root points at itself.
type Laser struct {
	Base
	HorizontalPosition float32
	Root               ObjectReference
	Previous           ObjectReference
	Next               ObjectReference
}

func (*Laser) Kind() Kind { return KindLaser }

// LaserRoot starts a laser chain.
type LaserRoot struct {
	Laser
	Chain    int
	Extended bool
}

func (*LaserRoot) Kind() Kind { return KindLaserRoot }

// LaserOf returns the Laser node part of o, or nil if o is not a laser.
func LaserOf(o Object) *Laser {
	switch v := o.(type) {
	case *Laser:
		return v
	case *LaserRoot:
		return &v.Laser
	}
	return nil
}

// IsEvent reports whether o is a non-gameplay event object.
func IsEvent(o Object) bool {
	switch o.(type) {
	case *ControlPoint, *RollModifier, *LaserEffectTypeEvent:
		return true
	}
	return false
}
