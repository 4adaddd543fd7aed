package noise

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-theft-craft/worldgen/pkg/random"
)

var (
	skewF2   = 0.5 * (math.Sqrt(3) - 1)
	unskewG2 = (3 - math.Sqrt(3)) / 6
)

const (
	skewF3   = 1.0 / 3.0
	unskewG3 = 1.0 / 6.0
)

// Simplex is a single simplex noise octave.
type Simplex struct {
	OriginX, OriginY, OriginZ float64
	perm                      [256]int
}

// NewSimplex draws the origin and permutation table from r.
func NewSimplex(r random.Random) *Simplex {
	s := &Simplex{
		OriginX: r.NextDouble() * 256,
		OriginY: r.NextDouble() * 256,
		OriginZ: r.NextDouble() * 256,
	}
	for i := range s.perm {
		s.perm[i] = i
	}
	for i := range 256 {
		j := r.NextBoundedInt(256 - i)
		s.perm[i], s.perm[i+j] = s.perm[i+j], s.perm[i]
	}
	return s
}

func (s *Simplex) hash(i int) int { return s.perm[i&255] }

func corner(g int, x, y, z, falloff float64) float64 {
	t := falloff - x*x - y*y - z*z
	if t < 0 {
		return 0
	}
	t *= t
	return t * t * dot(gradients[g], x, y, z)
}

// Sample2D evaluates two dimensional simplex noise.
func (s *Simplex) Sample2D(x, y float64) float64 {
	f := (x + y) * skewF2
	i, j := Floor(x+f), Floor(y+f)
	g := float64(i+j) * unskewG2
	x0 := x - (float64(i) - g)
	y0 := y - (float64(j) - g)

	var i1, j1 int
	if x0 > y0 {
		i1 = 1
	} else {
		j1 = 1
	}
	x1 := x0 - float64(i1) + unskewG2
	y1 := y0 - float64(j1) + unskewG2
	x2 := x0 - 1 + 2*unskewG2
	y2 := y0 - 1 + 2*unskewG2

	ii, jj := i&255, j&255
	g0 := s.hash(ii+s.hash(jj)) % 12
	g1 := s.hash(ii+i1+s.hash(jj+j1)) % 12
	g2 := s.hash(ii+1+s.hash(jj+1)) % 12

	return 70 * (corner(g0, x0, y0, 0, 0.5) + corner(g1, x1, y1, 0, 0.5) + corner(g2, x2, y2, 0, 0.5))
}

// Sample3D evaluates three dimensional simplex noise.
func (s *Simplex) Sample3D(x, y, z float64) float64 {
	h := (x + y + z) * skewF3
	i, j, k := Floor(x+h), Floor(y+h), Floor(z+h)
	m := float64(i+j+k) * unskewG3
	x0 := x - (float64(i) - m)
	y0 := y - (float64(j) - m)
	z0 := z - (float64(k) - m)

	var i1, j1, k1, i2, j2, k2 int
	switch {
	case x0 >= y0 && y0 >= z0:
		i1, i2, j2 = 1, 1, 1
	case x0 >= y0 && x0 >= z0:
		i1, i2, k2 = 1, 1, 1
	case x0 >= y0:
		k1, i2, k2 = 1, 1, 1
	case y0 < z0:
		k1, j2, k2 = 1, 1, 1
	case x0 < z0:
		j1, j2, k2 = 1, 1, 1
	default:
		j1, i2, j2 = 1, 1, 1
	}

	x1 := x0 - float64(i1) + unskewG3
	y1 := y0 - float64(j1) + unskewG3
	z1 := z0 - float64(k1) + unskewG3
	x2 := x0 - float64(i2) + 2*unskewG3
	y2 := y0 - float64(j2) + 2*unskewG3
	z2 := z0 - float64(k2) + 2*unskewG3
	x3 := x0 - 1 + 0.5
	y3 := y0 - 1 + 0.5
	z3 := z0 - 1 + 0.5

	ii, jj, kk := i&255, j&255, k&255
	g0 := s.hash(ii+s.hash(jj+s.hash(kk))) % 12
	g1 := s.hash(ii+i1+s.hash(jj+j1+s.hash(kk+k1))) % 12
	g2 := s.hash(ii+i2+s.hash(jj+j2+s.hash(kk+k2))) % 12
	g3 := s.hash(ii+1+s.hash(jj+1+s.hash(kk+1))) % 12

	return 32 * (corner(g0, x0, y0, z0, 0.6) + corner(g1, x1, y1, z1, 0.6) +
		corner(g2, x2, y2, z2, 0.6) + corner(g3, x3, y3, z3, 0.6))
}

// OctaveSimplex sums simplex octaves. Octave indices are relative to zero,
// positive octaves being higher frequency.
type OctaveSimplex struct {
	octaves   []*Simplex
	inFactor  float64
	valFactor float64
}

// NewOctaveSimplex seeds one simplex layer per requested octave.
func NewOctaveSimplex(r random.Random, octaves []int) (*OctaveSimplex, error) {
	if len(octaves) == 0 {
		return nil, fmt.Errorf("octave simplex needs at least one octave")
	}
	set := slices.Clone(octaves)
	slices.Sort(set)
	set = slices.Compact(set)
	has := func(o int) bool { _, ok := slices.BinarySearch(set, o); return ok }

	lowest := -set[0]
	highest := set[len(set)-1]
	n := lowest + highest + 1
	if n < 1 {
		return nil, fmt.Errorf("octave simplex needs a non-empty octave range")
	}

	base := NewSimplex(r)
	o := &OctaveSimplex{octaves: make([]*Simplex, n)}
	if highest >= 0 && highest < n && has(0) {
		o.octaves[highest] = base
	}
	for m := highest + 1; m < n; m++ {
		if m >= 0 && has(highest-m) {
			o.octaves[m] = NewSimplex(r)
		} else {
			r.Skip(262)
		}
	}
	if highest > 0 {
		seed := saturate(base.Sample3D(base.OriginX, base.OriginY, base.OriginZ) * float64(float32(9.223372e18)))
		hr := random.NewLegacy(seed)
		for m := highest - 1; m >= 0; m-- {
			if m < n && has(highest-m) {
				o.octaves[m] = NewSimplex(hr)
			} else {
				hr.Skip(262)
			}
		}
	}
	o.inFactor = math.Pow(2, float64(highest))
	o.valFactor = 1 / (math.Pow(2, float64(n)) - 1)
	return o, nil
}

// Sample evaluates the sum. With offsets each octave is shifted by its
// origin.
func (o *OctaveSimplex) Sample(x, z float64, offsets bool) float64 {
	var sum float64
	in, val := o.inFactor, o.valFactor
	for _, s := range o.octaves {
		if s != nil {
			sx, sz := x*in, z*in
			if offsets {
				sx += s.OriginX
				sz += s.OriginY
			}
			sum += s.Sample2D(sx, sz) * val
		}
		in /= 2
		val *= 2
	}
	return sum
}
