package density

import (
	"fmt"
	"math"
	"sort"
)

// Spline is a cubic Hermite spline over a density coordinate. Values at the
// control points are either constants or nested splines. All arithmetic is
// single precision.
type Spline struct {
	Coordinate NodeID
	Points     []SplinePoint
}

// SplinePoint is one control point. Locations must be strictly increasing.
type SplinePoint struct {
	Location   float32
	Value      SplineValue
	Derivative float32
}

// SplineValue is a constant unless Spline is set.
type SplineValue struct {
	Constant float32
	Spline   *Spline
}

// Const returns a constant spline value.
func Const(v float32) SplineValue { return SplineValue{Constant: v} }

// Nested returns a spline-valued control point value.
func Nested(s *Spline) SplineValue { return SplineValue{Spline: s} }

func (s *Spline) validate() error {
	if len(s.Points) == 0 {
		return fmt.Errorf("spline has no points")
	}
	for i := 1; i < len(s.Points); i++ {
		if s.Points[i].Location <= s.Points[i-1].Location {
			return fmt.Errorf("spline locations must be strictly increasing (%v after %v)",
				s.Points[i].Location, s.Points[i-1].Location)
		}
	}
	for _, p := range s.Points {
		if p.Value.Spline != nil {
			if err := p.Value.Spline.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v SplineValue) apply(coord func(NodeID) float64) float32 {
	if v.Spline != nil {
		return v.Spline.apply(coord)
	}
	return v.Constant
}

func lerp32(delta, a, b float32) float32 { return a + delta*(b-a) }

func (s *Spline) linearExtend(f float32, value float32, i int) float32 {
	d := s.Points[i].Derivative
	if d == 0 {
		return value
	}
	return value + d*(f-s.Points[i].Location)
}

// intervalStart returns the index of the last location <= f, or -1.
func (s *Spline) intervalStart(f float32) int {
	return sort.Search(len(s.Points), func(i int) bool { return f < s.Points[i].Location }) - 1
}

func (s *Spline) apply(coord func(NodeID) float64) float32 {
	f := float32(coord(s.Coordinate))
	i := s.intervalStart(f)
	last := len(s.Points) - 1
	if i < 0 {
		return s.linearExtend(f, s.Points[0].Value.apply(coord), 0)
	}
	if i == last {
		return s.linearExtend(f, s.Points[last].Value.apply(coord), last)
	}
	p0, p1 := &s.Points[i], &s.Points[i+1]
	span := p1.Location - p0.Location
	k := (f - p0.Location) / span
	n := p0.Value.apply(coord)
	o := p1.Value.apply(coord)
	p := p0.Derivative*span - (o - n)
	q := -p1.Derivative*span + (o - n)
	return lerp32(k, n, o) + k*(1-k)*lerp32(k, p, q)
}

// bounds returns conservative output bounds given the coordinate bounds.
func (s *Spline) bounds(coordBounds func(NodeID) (float64, float64)) (float32, float32) {
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	valueBounds := func(v SplineValue) (float32, float32) {
		if v.Spline != nil {
			return v.Spline.bounds(coordBounds)
		}
		return v.Constant, v.Constant
	}
	cmin, cmax := coordBounds(s.Coordinate)
	fmin, fmax := float32(cmin), float32(cmax)
	last := len(s.Points) - 1

	if fmin < s.Points[0].Location {
		vlo, vhi := valueBounds(s.Points[0].Value)
		a, b := s.linearExtend(fmin, vlo, 0), s.linearExtend(fmin, vhi, 0)
		lo, hi = min(lo, a, b), max(hi, a, b)
	}
	if fmax > s.Points[last].Location {
		vlo, vhi := valueBounds(s.Points[last].Value)
		a, b := s.linearExtend(fmax, vlo, last), s.linearExtend(fmax, vhi, last)
		lo, hi = min(lo, a, b), max(hi, a, b)
	}
	for _, p := range s.Points {
		vlo, vhi := valueBounds(p.Value)
		lo, hi = min(lo, vlo), max(hi, vhi)
	}
	for j := 0; j < last; j++ {
		p0, p1 := &s.Points[j], &s.Points[j+1]
		if p0.Derivative == 0 && p1.Derivative == 0 {
			continue
		}
		m := p1.Location - p0.Location
		n, o := valueBounds(p0.Value)
		p, q := valueBounds(p1.Value)
		t := p0.Derivative * m
		u := p1.Derivative * m
		v := min(n, p)
		w := max(o, q)
		x := t - q + n
		y := t - p + o
		z := -u + p - o
		aa := -u + q - n
		lo = min(lo, v+0.25*min(x, z))
		hi = max(hi, w+0.25*max(y, aa))
	}
	return lo, hi
}
