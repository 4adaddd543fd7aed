// Package noise implements the gradient noise samplers terrain generation is
// built from: improved Perlin noise, its octave and double variants, simplex
// noise and the legacy blended terrain noise.
package noise

import "github.com/go-theft-craft/worldgen/pkg/random"

// Perlin is a single improved Perlin noise octave.
type Perlin struct {
	OriginX, OriginY, OriginZ float64
	perm                      [256]uint8
}

// NewPerlin draws the origin and permutation table from r.
func NewPerlin(r random.Random) *Perlin {
	p := &Perlin{
		OriginX: r.NextDouble() * 256,
		OriginY: r.NextDouble() * 256,
		OriginZ: r.NextDouble() * 256,
	}
	for i := range p.perm {
		p.perm[i] = uint8(i)
	}
	for i := range 256 {
		j := r.NextBoundedInt(256 - i)
		p.perm[i], p.perm[i+j] = p.perm[i+j], p.perm[i]
	}
	return p
}

func (p *Perlin) hash(i int) int { return int(p.perm[i&255]) }

// Sample evaluates the noise at (x, y, z).
func (p *Perlin) Sample(x, y, z float64) float64 {
	return p.SampleSmeared(x, y, z, 0, 0)
}

// SampleSmeared evaluates the noise with the legacy vertical smear: the
// gradient y offset is snapped to multiples of yScale, limited by yMax.
func (p *Perlin) SampleSmeared(x, y, z, yScale, yMax float64) float64 {
	dx, dy, dz := x+p.OriginX, y+p.OriginY, z+p.OriginZ
	ix, iy, iz := Floor(dx), Floor(dy), Floor(dz)
	fx, fy, fz := dx-float64(ix), dy-float64(iy), dz-float64(iz)

	var snapped float64
	if yScale != 0 {
		m := fy
		if yMax >= 0 && yMax < fy {
			m = yMax
		}
		snapped = float64(Floor(m/yScale+1e-7)) * yScale
	}
	return p.sampleAndLerp(ix, iy, iz, fx, fy-snapped, fz, fy)
}

func (p *Perlin) sampleAndLerp(ix, iy, iz int, fx, fy, fz, fade float64) float64 {
	a := p.hash(ix)
	b := p.hash(ix + 1)
	aa := p.hash(a + iy)
	ab := p.hash(a + iy + 1)
	ba := p.hash(b + iy)
	bb := p.hash(b + iy + 1)

	g000 := dot(gradients[p.hash(aa+iz)&15], fx, fy, fz)
	g100 := dot(gradients[p.hash(ba+iz)&15], fx-1, fy, fz)
	g010 := dot(gradients[p.hash(ab+iz)&15], fx, fy-1, fz)
	g110 := dot(gradients[p.hash(bb+iz)&15], fx-1, fy-1, fz)
	g001 := dot(gradients[p.hash(aa+iz+1)&15], fx, fy, fz-1)
	g101 := dot(gradients[p.hash(ba+iz+1)&15], fx-1, fy, fz-1)
	g011 := dot(gradients[p.hash(ab+iz+1)&15], fx, fy-1, fz-1)
	g111 := dot(gradients[p.hash(bb+iz+1)&15], fx-1, fy-1, fz-1)

	return Lerp3(smoothstep(fx), smoothstep(fade), smoothstep(fz),
		g000, g100, g010, g110, g001, g101, g011, g111)
}
