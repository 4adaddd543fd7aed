package noise

import "math"

// Floor rounds toward negative infinity.
func Floor(d float64) int {
	i := int(d)
	if d < float64(i) {
		return i - 1
	}
	return i
}

// Lerp interpolates between a and b.
func Lerp(delta, a, b float64) float64 { return a + delta*(b-a) }

// Lerp2 interpolates bilinearly over four corners.
func Lerp2(dx, dy, x0y0, x1y0, x0y1, x1y1 float64) float64 {
	return Lerp(dy, Lerp(dx, x0y0, x1y0), Lerp(dx, x0y1, x1y1))
}

// Lerp3 interpolates trilinearly over eight corners.
func Lerp3(dx, dy, dz, x0y0z0, x1y0z0, x0y1z0, x1y1z0, x0y0z1, x1y0z1, x0y1z1, x1y1z1 float64) float64 {
	return Lerp(dz,
		Lerp2(dx, dy, x0y0z0, x1y0z0, x0y1z0, x1y1z0),
		Lerp2(dx, dy, x0y0z1, x1y0z1, x0y1z1, x1y1z1))
}

// ClampedLerp clamps delta to [0, 1] before interpolating.
func ClampedLerp(a, b, delta float64) float64 {
	if delta < 0 {
		return a
	}
	if delta > 1 {
		return b
	}
	return Lerp(delta, a, b)
}

// InverseLerp returns where v lies between a and b.
func InverseLerp(v, a, b float64) float64 { return (v - a) / (b - a) }

// ClampedMap maps v from [inMin, inMax] onto [outMin, outMax], clamping.
func ClampedMap(v, inMin, inMax, outMin, outMax float64) float64 {
	return ClampedLerp(outMin, outMax, InverseLerp(v, inMin, inMax))
}

// Map maps v from [inMin, inMax] onto [outMin, outMax] without clamping.
func Map(v, inMin, inMax, outMin, outMax float64) float64 {
	return Lerp(InverseLerp(v, inMin, inMax), outMin, outMax)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func smoothstep(d float64) float64 { return d * d * d * (d*(d*6-15) + 10) }

// wrap keeps large coordinates inside the range where double precision still
// resolves the fractional part.
func wrap(d float64) float64 {
	return d - float64(lfloor(d/33554432+0.5))*33554432
}

func lfloor(d float64) int64 {
	l := int64(d)
	if d < float64(l) {
		return l - 1
	}
	return l
}

// saturate converts like a Java (long) cast.
func saturate(d float64) int64 {
	switch {
	case math.IsNaN(d):
		return 0
	case d >= math.MaxInt64:
		return math.MaxInt64
	case d <= math.MinInt64:
		return math.MinInt64
	}
	return int64(d)
}

var gradients = [16][3]float64{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
	{1, 1, 0}, {0, -1, 1}, {-1, 1, 0}, {0, -1, -1},
}

func dot(g [3]float64, x, y, z float64) float64 { return g[0]*x + g[1]*y + g[2]*z }
