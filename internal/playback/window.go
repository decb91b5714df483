package playback

import "github.com/cbegin/fxtrack-go/internal/beatmap"

func (p *Playback) windowEnd() float64 { return p.position + p.viewDuration }

// inWindow is the membership rule: the lifetime has not finished before the
// position and the anchor lies before the window end. For everything but
// laser nodes the anchor is the lifetime start.
func (p *Playback) inWindow(r beatmap.ObjectReference) (start float64, ok bool) {
	start, end := p.beatmap.Lifetime(r)
	anchor := p.beatmap.Position(r)
	return start, end >= p.position && anchor < p.windowEnd()
}

func (p *Playback) updateView() {
	if p.beatmap == nil {
		return
	}
	p.currentMeasure = p.selectMeasure(p.position)

	p.added = p.added[:0]
	p.walked = p.walked[:0]
	clear(p.walkSet)
	p.walk()

	// measures
	for _, m := range p.walked {
		if _, ok := p.measureSet[m.ID]; !ok {
			p.measureSet[m.ID] = struct{}{}
			p.emitMeasureEntered(m)
		}
	}
	for _, m := range p.measuresInView {
		if _, ok := p.walkSet[m.ID]; !ok {
			delete(p.measureSet, m.ID)
			p.emitMeasureLeft(m)
		}
	}
	p.measuresInView = append(p.measuresInView[:0], p.walked...)

	p.markPassed()

	for _, r := range p.added {
		p.objectsInView = append(p.objectsInView, r)
		if start, _ := p.beatmap.Lifetime(r); start < p.position {
			p.emitActivated(r)
		}
	}

	p.hasEnded = len(p.objectsInView) == 0 &&
		(!p.last.Valid() || p.position > p.beatmap.Position(p.last))
}

// walk visits measures from the current one forward until the window end and
// collects objects that should enter the view.
func (p *Playback) walk() {
	m := p.currentMeasure
	end := p.windowEnd()
	for m != nil && m.AbsolutePosition() < end {
		if m.EndPosition() > p.position {
			p.walked = append(p.walked, m)
			p.walkSet[m.ID] = struct{}{}
		}

		endReached := false
		for _, r := range m.Objects() {
			if p.IsInView(r) || p.isAdded(r) {
				continue
			}
			if p.beatmap.Position(r) >= end {
				endReached = true
				break
			}
			if _, ok := p.inWindow(r); ok {
				p.enter(r)
			}
		}
		for _, r := range m.CrossingObjects() {
			if p.IsInView(r) || p.isAdded(r) {
				continue
			}
			if _, ok := p.inWindow(r); ok {
				p.enter(r)
			}
		}
		if endReached {
			break
		}
		m = nextMeasure(m)
	}
}

func (p *Playback) enter(r beatmap.ObjectReference) {
	p.inView[r.Object] = struct{}{}
	p.added = append(p.added, r)
	p.emitEntered(r)
}

func (p *Playback) isAdded(r beatmap.ObjectReference) bool {
	for _, a := range p.added {
		if a.Object == r.Object {
			return true
		}
	}
	return false
}

// markPassed evicts previously visible objects that left the window and
// updates activation of the ones that stay.
func (p *Playback) markPassed() {
	kept := p.objectsInView[:0]
	for _, r := range p.objectsInView {
		start, ok := p.inWindow(r)
		_, isActive := p.active[r.Object]
		switch {
		case !ok:
			if isActive {
				p.emitDeactivated(r)
			}
			delete(p.inView, r.Object)
			p.emitLeft(r)
			continue
		case start < p.position && !isActive:
			p.emitActivated(r)
		case start >= p.position && isActive:
			p.emitDeactivated(r)
		}
		kept = append(kept, r)
	}
	clear(p.objectsInView[len(kept):])
	p.objectsInView = kept
}

// selectMeasure finds the measure containing t, reusing the current one when
// it still applies.
func (p *Playback) selectMeasure(t float64) *beatmap.Measure {
	if m := p.currentMeasure; m != nil && p.measureValid(m, t) {
		return m
	}
	tps := p.beatmap.TimingPoints()
	if len(tps) == 0 {
		return nil
	}
	tp := selectTimingPoint(tps, t)
	for len(tp.Measures()) == 0 {
		if prev := tp.Previous(); prev != nil {
			tp = prev
			continue
		}
		// nothing before, take the first timing point that has measures
		for next := tp.Next(); next != nil; next = next.Next() {
			if len(next.Measures()) > 0 {
				return next.Measures()[0]
			}
		}
		return nil
	}
	ms := tp.Measures()
	for i := 1; i < len(ms); i++ {
		if ms[i].AbsolutePosition() > t {
			return ms[i-1]
		}
	}
	return ms[len(ms)-1]
}

func (p *Playback) measureValid(m *beatmap.Measure, t float64) bool {
	if t < m.AbsolutePosition() || t >= m.EndPosition() {
		return false
	}
	tp := m.TimingPoint
	if next := tp.Next(); next != nil && next.Offset() <= t {
		return false
	}
	if tp.Previous() != nil && tp.Offset() > t {
		return false
	}
	return true
}

// nextMeasure follows measures across timing point boundaries.
func nextMeasure(m *beatmap.Measure) *beatmap.Measure {
	if n := m.Next(); n != nil {
		return n
	}
	for tp := m.TimingPoint.Next(); tp != nil; tp = tp.Next() {
		if ms := tp.Measures(); len(ms) > 0 {
			return ms[0]
		}
	}
	return nil
}
