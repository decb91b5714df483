package effect

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cbegin/fxtrack-go/internal/beatmap"
)

// ParameterRange is the span a parameter is interpolated over when an
// effect is modulated. Min may exceed Max to invert the response.
type ParameterRange struct {
	Min float64
	Max float64
}

// Value returns a range with Min and Max both set to v.
func Value(v float64) ParameterRange { return ParameterRange{Min: v, Max: v} }

// Lerp interpolates between Min (t=0) and Max (t=1).
func (r ParameterRange) Lerp(t float64) float64 {
	return r.Min + (r.Max-r.Min)*t
}

// TimeParameter resolves to a duration in seconds against a timing point.
type TimeParameter interface {
	Seconds(tp *beatmap.TimingPoint) float64
	String() string
}

// Absolute is a fixed duration in seconds.
type Absolute float64

func (a Absolute) Seconds(*beatmap.TimingPoint) float64 { return float64(a) }
func (a Absolute) String() string                        { return (time.Duration(float64(a) * float64(time.Second))).String() }

// Relative is a duration in measures.
type Relative float64

func (r Relative) Seconds(tp *beatmap.TimingPoint) float64 {
	if tp == nil {
		return 0
	}
	return float64(r) * tp.MeasureDuration()
}

func (r Relative) String() string { return strconv.FormatFloat(float64(r), 'g', -1, 64) + "m" }

// Division is a fraction of a measure.
type Division beatmap.TimeDivision

// Div builds a Division.
func Div(n, d int) Division { return Division(beatmap.Div(n, d)) }

func (d Division) Seconds(tp *beatmap.TimingPoint) float64 {
	if tp == nil {
		return 0
	}
	return tp.DivisionDuration(beatmap.TimeDivision(d))
}

func (d Division) String() string { return beatmap.TimeDivision(d).String() }

// ParseTime reads "1/4" as a Division, "2m" as a Relative number of
// measures and any time.ParseDuration string ("250ms", "1.5s") as Absolute.
func ParseTime(s string) (TimeParameter, error) {
	s = strings.TrimSpace(s)
	if n, d, ok := strings.Cut(s, "/"); ok {
		num, err1 := strconv.Atoi(n)
		den, err2 := strconv.Atoi(d)
		if err1 != nil || err2 != nil || den <= 0 || num < 0 {
			return nil, fmt.Errorf("effect: invalid division %q", s)
		}
		return Div(num, den), nil
	}
	if m, ok := strings.CutSuffix(s, "m"); ok {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return Relative(v), nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf("effect: invalid time %q: %w", s, err)
	}
	return Absolute(d.Seconds()), nil
}
