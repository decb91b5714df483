package beatmap

import "fmt"

// TimingPoint is a tempo/signature segment. It owns the measures that follow
// its offset until the next timing point.
type TimingPoint struct {
	beatmap *Beatmap
	index   int

	offset                       float64
	bpm                          float64
	numerator                    int
	denominator                  int
	firstMeasureOffsetPercentage float64

	// cached
	beatDuration      float64
	wholeNoteDuration float64
	measureDuration   float64
	actualOffset      float64

	measures []*Measure
}

// NewTimingPoint creates a detached timing point. Add it to a Beatmap with AddTimingPoint.
func NewTimingPoint(offset, bpm float64, numerator, denominator int) *TimingPoint {
	tp := &TimingPoint{
		offset:      offset,
		bpm:         bpm,
		numerator:   numerator,
		denominator: denominator,
		index:       -1,
	}
	tp.update()
	return tp
}

func (tp *TimingPoint) Offset() float64 { return tp.offset }
func (tp *TimingPoint) BPM() float64    { return tp.bpm }
func (tp *TimingPoint) Numerator() int  { return tp.numerator }
func (tp *TimingPoint) Denominator() int {
	return tp.denominator
}

// FirstMeasureOffsetPercentage shifts the first measure backwards by this
// fraction of a measure. Used when a tempo change lands in the middle of a measure.
func (tp *TimingPoint) FirstMeasureOffsetPercentage() float64 {
	return tp.firstMeasureOffsetPercentage
}

// BeatDuration is the duration of a quarter note in seconds.
func (tp *TimingPoint) BeatDuration() float64      { return tp.beatDuration }
func (tp *TimingPoint) WholeNoteDuration() float64 { return tp.wholeNoteDuration }
func (tp *TimingPoint) MeasureDuration() float64   { return tp.measureDuration }

func (tp *TimingPoint) SetOffset(offset float64) {
	tp.offset = offset
	tp.update()
}

func (tp *TimingPoint) SetBPM(bpm float64) {
	tp.bpm = bpm
	tp.update()
}

func (tp *TimingPoint) SetSignature(numerator, denominator int) {
	tp.numerator = numerator
	tp.denominator = denominator
	tp.update()
}

func (tp *TimingPoint) SetFirstMeasureOffsetPercentage(p float64) {
	tp.firstMeasureOffsetPercentage = p
	tp.update()
}

// MeasureOffset returns the absolute start of the measure with the given index.
func (tp *TimingPoint) MeasureOffset(index int) float64 {
	return tp.actualOffset + tp.measureDuration*float64(index)
}

// DivisionDuration returns the duration of a fraction of a measure.
func (tp *TimingPoint) DivisionDuration(d TimeDivision) float64 {
	return tp.measureDuration * d.Relative()
}

// Measures returns the owned measures ordered by index.
func (tp *TimingPoint) Measures() []*Measure { return tp.measures }

// Index is the position of this timing point in the beatmap ordering, -1 when detached.
func (tp *TimingPoint) Index() int { return tp.index }

func (tp *TimingPoint) Previous() *TimingPoint {
	if tp.beatmap == nil || tp.index <= 0 {
		return nil
	}
	return tp.beatmap.timingPoints[tp.index-1]
}

func (tp *TimingPoint) Next() *TimingPoint {
	if tp.beatmap == nil || tp.index < 0 || tp.index+1 >= len(tp.beatmap.timingPoints) {
		return nil
	}
	return tp.beatmap.timingPoints[tp.index+1]
}

func (tp *TimingPoint) String() string {
	return fmt.Sprintf("timing offset=%g bpm=%g signature=%d/%d firstMeasureOffset=%g",
		tp.offset, tp.bpm, tp.numerator, tp.denominator, tp.firstMeasureOffsetPercentage)
}

func (tp *TimingPoint) update() {
	if tp.bpm > 0 {
		tp.beatDuration = 60.0 / tp.bpm
	} else {
		tp.beatDuration = 0
	}
	tp.wholeNoteDuration = tp.beatDuration * 4
	if tp.denominator > 0 {
		tp.measureDuration = tp.wholeNoteDuration / float64(tp.denominator) * float64(tp.numerator)
	} else {
		tp.measureDuration = 0
	}
	tp.actualOffset = tp.offset - tp.firstMeasureOffsetPercentage*tp.measureDuration
}
