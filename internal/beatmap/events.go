package beatmap

import "fmt"

// EventGroup partitions event objects for lookup by time.
type EventGroup int

const (
	GroupCameraZoom EventGroup = iota
	GroupCameraTilt
	GroupCameraRotation
	GroupLaserEffectType
	GroupRoll
	GroupSlamVolume
	GroupFilterGain
	GroupSplitOffset
	numEventGroups
)

// ControlPointType selects which continuous value a ControlPoint drives.
type ControlPointType int

const (
	ControlZoom ControlPointType = iota
	ControlTilt
	ControlRotation
	ControlSlamVolume
	ControlFilterGain
	ControlSplitOffset
)

var controlNames = [...]string{"zoom", "tilt", "rotation", "slam-volume", "filter-gain", "split-offset"}

func (t ControlPointType) String() string {
	if t >= 0 && int(t) < len(controlNames) {
		return controlNames[t]
	}
	return fmt.Sprintf("control(%d)", int(t))
}

// Group returns the event group this control type is indexed under.
func (t ControlPointType) Group() EventGroup {
	switch t {
	case ControlZoom:
		return GroupCameraZoom
	case ControlTilt:
		return GroupCameraTilt
	case ControlRotation:
		return GroupCameraRotation
	case ControlSlamVolume:
		return GroupSlamVolume
	case ControlFilterGain:
		return GroupFilterGain
	}
	return GroupSplitOffset
}

// ControlPoint is one key of a piecewise-linear control curve.
type ControlPoint struct {
	Base
	Type     ControlPointType
	Value    float32
	Previous ObjectReference
	Next     ObjectReference
}

func (*ControlPoint) Kind() Kind { return KindControlPoint }

// RollModifier locks or unlocks camera roll from lasers.
type RollModifier struct {
	Base
	Lock bool
}

func (*RollModifier) Kind() Kind { return KindRollModifier }

// LaserEffectTypeEvent changes the effect applied while lasers are held.
type LaserEffectTypeEvent struct {
	Base
	EffectType EffectType
}

func (*LaserEffectTypeEvent) Kind() Kind { return KindLaserEffectType }

func eventGroupOf(o Object) (EventGroup, bool) {
	switch v := o.(type) {
	case *ControlPoint:
		return v.Type.Group(), true
	case *RollModifier:
		return GroupRoll, true
	case *LaserEffectTypeEvent:
		return GroupLaserEffectType, true
	}
	return 0, false
}
