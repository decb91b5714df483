package beatmap

// slamThreshold is the largest segment duration, in seconds, treated as instantaneous.
const slamThreshold = 1e-6

// IsInstant reports whether the segment starting at r is a slam, that is its
// next node sits at the same position.
func (b *Beatmap) IsInstant(r ObjectReference) bool {
	l := LaserOf(b.Object(r))
	if l == nil || !l.Next.Valid() {
		return false
	}
	return b.Position(l.Next)-b.Position(r) <= slamThreshold
}

// Root returns the chain root of a laser node.
func (b *Beatmap) Root(r ObjectReference) (*LaserRoot, bool) {
	l := LaserOf(b.Object(r))
	if l == nil {
		return nil, false
	}
	root, ok := b.Object(l.Root).(*LaserRoot)
	return root, ok
}

// SampleLaser returns the horizontal position of the chain containing from at
// time t. The walk starts at from, so passing a nearby node keeps it short.
// Positions before the chain clamp to the root, after it to the last node.
func (b *Beatmap) SampleLaser(from ObjectReference, t float64) float32 {
	cur := from
	l := LaserOf(b.Object(cur))
	if l == nil {
		return 0
	}
	for l.Previous.Valid() && b.Position(cur) > t {
		cur = l.Previous
		l = LaserOf(b.Object(cur))
	}
	for l.Next.Valid() && b.Position(l.Next) <= t {
		cur = l.Next
		l = LaserOf(b.Object(cur))
	}
	start := b.Position(cur)
	if !l.Next.Valid() || t <= start {
		return l.HorizontalPosition
	}
	next := LaserOf(b.Object(l.Next))
	end := b.Position(l.Next)
	f := float32((t - start) / (end - start))
	return l.HorizontalPosition + (next.HorizontalPosition-l.HorizontalPosition)*f
}
