package noise

import (
	"math"

	"github.com/go-theft-craft/worldgen/pkg/random"
)

// BlendedConfig scales the legacy terrain noise.
type BlendedConfig struct {
	XZScale              float64 `json:"xz_scale"`
	YScale               float64 `json:"y_scale"`
	XZFactor             float64 `json:"xz_factor"`
	YFactor              float64 `json:"y_factor"`
	SmearScaleMultiplier float64 `json:"smear_scale_multiplier"`
}

// Blended is the pre-1.18 terrain density: a main noise selects between a
// lower and an upper limit noise.
type Blended struct {
	lower, upper, main *OctavePerlin

	xzMultiplier float64
	yMultiplier  float64
	xzFactor     float64
	yFactor      float64
	smearScale   float64
	maxValue     float64
}

// NewBlended seeds the three octave sets sequentially from r.
func NewBlended(r random.Random, c BlendedConfig) (*Blended, error) {
	lower, err := NewLegacyOctavePerlinRange(r, -15, 0)
	if err != nil {
		return nil, err
	}
	upper, err := NewLegacyOctavePerlinRange(r, -15, 0)
	if err != nil {
		return nil, err
	}
	main, err := NewLegacyOctavePerlinRange(r, -7, 0)
	if err != nil {
		return nil, err
	}
	b := &Blended{
		lower:        lower,
		upper:        upper,
		main:         main,
		xzMultiplier: 684.412 * c.XZScale,
		yMultiplier:  684.412 * c.YScale,
		xzFactor:     c.XZFactor,
		yFactor:      c.YFactor,
		smearScale:   c.SmearScaleMultiplier,
	}
	b.maxValue = lower.EdgeValue(b.yMultiplier + 2)
	return b, nil
}

// Sample evaluates the density at a block position.
func (b *Blended) Sample(x, y, z int) float64 {
	dx := float64(x) * b.xzMultiplier
	dy := float64(y) * b.yMultiplier
	dz := float64(z) * b.xzMultiplier
	mx, my, mz := dx/b.xzFactor, dy/b.yFactor, dz/b.xzFactor
	smear := b.yMultiplier * b.smearScale
	mainSmear := smear / b.yFactor

	var lo, hi, mainSum float64
	scale := 1.0
	for i := range 8 {
		if p := b.main.Octave(i); p != nil {
			mainSum += p.SampleSmeared(wrap(mx*scale), wrap(my*scale), wrap(mz*scale), mainSmear*scale, my*scale) / scale
		}
		scale /= 2
	}

	delta := (mainSum/10 + 1) / 2
	skipLower := delta >= 1
	skipUpper := delta <= 0
	scale = 1
	for i := range 16 {
		sx, sy, sz := wrap(dx*scale), wrap(dy*scale), wrap(dz*scale)
		ys := smear * scale
		if !skipLower {
			if p := b.lower.Octave(i); p != nil {
				lo += p.SampleSmeared(sx, sy, sz, ys, dy*scale) / scale
			}
		}
		if !skipUpper {
			if p := b.upper.Octave(i); p != nil {
				hi += p.SampleSmeared(sx, sy, sz, ys, dy*scale) / scale
			}
		}
		scale /= 2
	}
	return ClampedLerp(lo/512, hi/512, delta) / 128
}

// MaxValue bounds the output magnitude.
func (b *Blended) MaxValue() float64 { return b.maxValue }

// EndIslands is the analytic island falloff of the End dimension.
type EndIslands struct {
	simplex *Simplex
}

// NewEndIslands seeds the island simplex from the world seed.
func NewEndIslands(seed int64) *EndIslands {
	r := random.NewLegacy(seed)
	r.Skip(17292)
	return &EndIslands{simplex: NewSimplex(r)}
}

func sqrt32(f float32) float32 { return float32(math.Sqrt(float64(f))) }

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// Height returns the island height value for a column in 8-block units.
func (e *EndIslands) Height(x, z int) float32 {
	hx, hz := x/2, z/2
	ox, oz := x%2, z%2
	h := clamp32(100-sqrt32(float32(x*x+z*z))*8, -100, 80)
	for i := -12; i <= 12; i++ {
		for j := -12; j <= 12; j++ {
			cx, cz := int64(hx+i), int64(hz+j)
			if cx*cx+cz*cz <= 4096 {
				continue
			}
			if e.simplex.Sample2D(float64(cx), float64(cz)) >= float64(float32(-0.9)) {
				continue
			}
			falloff := float32(math.Mod(float64(abs32(float32(cx))*3439+abs32(float32(cz))*147), 13)) + 9
			px := float32(ox - i*2)
			pz := float32(oz - j*2)
			t := clamp32(100-sqrt32(px*px+pz*pz)*falloff, -100, 80)
			h = max(h, t)
		}
	}
	return h
}

// Sample evaluates the island density at a block position.
func (e *EndIslands) Sample(x, z int) float64 {
	return (float64(e.Height(x/8, z/8)) - 8) / 128
}
