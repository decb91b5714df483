package beatmap

import (
	"fmt"
	"slices"
)

// MeasureID addresses a measure inside its Beatmap. The zero value is "no measure".
type MeasureID int32

// Measure is one bar of music.
type Measure struct {
	ID          MeasureID
	Index       int
	TimingPoint *TimingPoint

	objects  []ObjectReference
	crossing []ObjectReference
}

// AbsolutePosition is the start of the measure in seconds.
func (m *Measure) AbsolutePosition() float64 {
	return m.TimingPoint.MeasureOffset(m.Index)
}

// EndPosition is the start of the following measure in seconds.
func (m *Measure) EndPosition() float64 {
	return m.AbsolutePosition() + m.TimingPoint.MeasureDuration()
}

// Objects returns the objects anchored in this measure, sorted by position.
func (m *Measure) Objects() []ObjectReference { return m.objects }

// CrossingObjects returns objects anchored in an earlier measure whose
// lifetime still spans this one. Filled by Beatmap.Build.
func (m *Measure) CrossingObjects() []ObjectReference { return m.crossing }

func (m *Measure) Previous() *Measure {
	if m.Index > 0 {
		return m.TimingPoint.measures[m.Index-1]
	}
	return nil
}

func (m *Measure) Next() *Measure {
	if next := m.Index + 1; next < len(m.TimingPoint.measures) {
		return m.TimingPoint.measures[next]
	}
	return nil
}

func (m *Measure) String() string {
	return fmt.Sprintf("measure %d (%d objects)", m.Index, len(m.objects))
}

// sort orders objects by position. Two laser nodes at the same position are
// ordered so that the node whose predecessor is the other one comes last.
func (m *Measure) sort(b *Beatmap) {
	slices.SortStableFunc(m.objects, func(l, r ObjectReference) int {
		lo, ro := b.Object(l), b.Object(r)
		if c := lo.base().Position.Compare(ro.base().Position); c != 0 {
			return c
		}
		ll, rl := LaserOf(lo), LaserOf(ro)
		if ll == nil || rl == nil {
			return 0
		}
		if rl.Previous.Object == l.Object {
			return -1
		}
		if ll.Previous.Object == r.Object {
			return 1
		}
		return 0
	})
}
