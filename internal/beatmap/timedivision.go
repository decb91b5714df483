package beatmap

import "fmt"

// TimeDivision is a rational position inside a measure, Numerator/Denominator in [0,1).
// Comparisons cross-multiply so unreduced fractions compare equal to their reduced form.
type TimeDivision struct {
	Numerator   int
	Denominator int
}

var (
	// Start is the first instant of a measure.
	Start = TimeDivision{Numerator: 0, Denominator: 1}
	// End is the first instant of the following measure.
	End = TimeDivision{Numerator: 1, Denominator: 1}
)

// Div builds a TimeDivision.
func Div(numerator, denominator int) TimeDivision {
	return TimeDivision{Numerator: numerator, Denominator: denominator}
}

// Relative returns the position as a 0..1 fraction of the measure.
func (t TimeDivision) Relative() float64 {
	if t.Denominator == 0 {
		return 0
	}
	return float64(t.Numerator) / float64(t.Denominator)
}

func (t TimeDivision) Equal(o TimeDivision) bool {
	if t.Denominator == o.Denominator {
		return t.Numerator == o.Numerator
	}
	return int64(t.Numerator)*int64(o.Denominator) == int64(o.Numerator)*int64(t.Denominator)
}

// Compare returns -1, 0 or +1 comparing n1*d2 against n2*d1.
func (t TimeDivision) Compare(o TimeDivision) int {
	l := int64(t.Numerator) * int64(o.Denominator)
	r := int64(o.Numerator) * int64(t.Denominator)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

func (t TimeDivision) String() string {
	return fmt.Sprintf("%d/%d", t.Numerator, t.Denominator)
}
