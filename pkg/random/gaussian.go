package random

import "math"

// gaussian caches the second value of the polar method.
type gaussian struct {
	nextValue float64
	hasNext   bool
}

func (g *gaussian) reset() { g.hasNext = false }

func (g *gaussian) next(r Random) float64 {
	if g.hasNext {
		g.hasNext = false
		return g.nextValue
	}
	for {
		v1 := 2*r.NextDouble() - 1
		v2 := 2*r.NextDouble() - 1
		s := v1*v1 + v2*v2
		if s >= 1 || s == 0 {
			continue
		}
		m := math.Sqrt(-2 * math.Log(s) / s)
		g.nextValue = v2 * m
		g.hasNext = true
		return v1 * m
	}
}
