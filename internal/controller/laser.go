package controller

import (
	"time"

	"github.com/cbegin/fxtrack-go/internal/beatmap"
	"github.com/cbegin/fxtrack-go/internal/effect"
)

type segment struct {
	ref  beatmap.ObjectReference
	root beatmap.ObjectID
}

// laserBinding is the single effect shared by all active laser segments.
type laserBinding struct {
	state    *effect.State
	segments map[beatmap.ObjectID]segment
	// hint keeps one attached segment per root to start curve sampling from
	hint map[beatmap.ObjectID]beatmap.ObjectReference

	value   float32
	sampled bool
}

func newLaserBinding() *laserBinding {
	return &laserBinding{
		segments: make(map[beatmap.ObjectID]segment),
		hint:     make(map[beatmap.ObjectID]beatmap.ObjectReference),
	}
}

func (b *laserBinding) attach(bm *beatmap.Beatmap, ref beatmap.ObjectReference) {
	l := beatmap.LaserOf(bm.Object(ref))
	root := l.Root.Object
	b.segments[ref.Object] = segment{ref: ref, root: root}
	if _, ok := b.hint[root]; !ok {
		b.hint[root] = ref
	}
}

// detach removes a segment and reports whether the binding became empty.
func (b *laserBinding) detach(ref beatmap.ObjectReference) bool {
	seg, ok := b.segments[ref.Object]
	if !ok {
		return false
	}
	delete(b.segments, ref.Object)
	if h := b.hint[seg.root]; h.Object == ref.Object {
		delete(b.hint, seg.root)
		for _, other := range b.segments {
			if other.root == seg.root {
				b.hint[seg.root] = other.ref
				break
			}
		}
	}
	return len(b.segments) == 0
}

// update samples every distinct chain at pos and averages them. Extended
// lasers are compressed into the middle of the range and the right laser is
// mirrored so moving outwards always means more effect.
func (b *laserBinding) update(bm *beatmap.Beatmap, pos float64, elapsed time.Duration) {
	if len(b.hint) == 0 {
		return
	}
	var sum float32
	for rootID, hint := range b.hint {
		root := bm.Object(beatmap.ObjectReference{Object: rootID}).(*beatmap.LaserRoot)
		v := bm.SampleLaser(hint, pos)
		if root.Extended {
			v = (v + 0.5) * 0.5
		}
		if root.Chain == 1 {
			v = 1 - v
		}
		sum += v
	}
	b.value = sum / float32(len(b.hint))
	b.sampled = true
	if b.state != nil {
		b.state.Modulate(b.value)
		b.state.Update(elapsed)
	}
}

func (b *laserBinding) close() {
	if b.state != nil {
		b.state.Close()
	}
}
