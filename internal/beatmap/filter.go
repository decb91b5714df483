package beatmap

// ObjectFilter selects objects by lane. Bits 0..3 are BT lanes, 4..5 FX
// lanes, 6..7 laser chains and 8 event objects.
type ObjectFilter uint16

const (
	FilterButtons ObjectFilter = 0x0f
	FilterFX      ObjectFilter = 0x30
	FilterLasers  ObjectFilter = 0xc0
	FilterEvents  ObjectFilter = 0x100
	FilterAll     ObjectFilter = 0x1ff
)

// FilterLane returns the bit for a button or FX lane.
func FilterLane(index int) ObjectFilter { return 1 << uint(index) }

// FilterLaser returns the bit for a laser chain.
func FilterLaser(chain int) ObjectFilter { return 1 << uint(6+chain) }

// Match reports whether r passes the filter.
func (f ObjectFilter) Match(b *Beatmap, r ObjectReference) bool {
	switch o := b.Object(r).(type) {
	case *Button:
		return f&FilterLane(o.Index) != 0
	case *Hold:
		return f&FilterLane(o.Index) != 0
	case *HoldEnd:
		if h, ok := b.Object(o.Start).(*Hold); ok {
			return f&FilterLane(h.Index) != 0
		}
	case *Laser, *LaserRoot:
		if root, ok := b.Root(r); ok {
			return f&FilterLaser(root.Chain) != 0
		}
	case nil:
		return false
	default:
		return f&FilterEvents != 0
	}
	return false
}
