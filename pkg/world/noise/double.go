package noise

import (
	"math"

	"github.com/go-theft-craft/worldgen/pkg/random"
)

const doubleInputFactor = 1.0181268882175227

// DoublePerlin adds two octave sets, the second sampled at a slightly
// stretched position, and normalizes by the octave span.
type DoublePerlin struct {
	Params      Parameters
	first       *OctavePerlin
	second      *OctavePerlin
	valueFactor float64
}

// NewDoublePerlin builds a double noise using positional octave seeding.
func NewDoublePerlin(r random.Random, p Parameters) *DoublePerlin {
	d := &DoublePerlin{
		Params: p,
		first:  NewOctavePerlin(r, p),
		second: NewOctavePerlin(r, p),
	}
	d.valueFactor = valueFactor(p)
	return d
}

// NewLegacyDoublePerlin builds a double noise by sequential octave seeding.
// Nether and End biome noises of legacy-seeded dimensions use it.
func NewLegacyDoublePerlin(r random.Random, p Parameters) (*DoublePerlin, error) {
	first, err := NewLegacyOctavePerlin(r, p)
	if err != nil {
		return nil, err
	}
	second, err := NewLegacyOctavePerlin(r, p)
	if err != nil {
		return nil, err
	}
	return &DoublePerlin{Params: p, first: first, second: second, valueFactor: valueFactor(p)}, nil
}

func valueFactor(p Parameters) float64 {
	lo, hi := int32(math.MaxInt32), int32(math.MinInt32)
	for i, a := range p.Amplitudes {
		if a != 0 {
			lo = min(lo, int32(i))
			hi = max(hi, int32(i))
		}
	}
	span := hi - lo // wraps for an all-zero list, whose factor is never observable
	return (1.0 / 6.0) / expectedDeviation(int(span))
}

func expectedDeviation(octaves int) float64 {
	return 0.1 * (1 + 1/float64(octaves+1))
}

// Sample evaluates the noise at (x, y, z).
func (d *DoublePerlin) Sample(x, y, z float64) float64 {
	return (d.first.Sample(x, y, z) +
		d.second.Sample(x*doubleInputFactor, y*doubleInputFactor, z*doubleInputFactor)) * d.valueFactor
}

// MaxValue is the largest magnitude Sample can return.
func (d *DoublePerlin) MaxValue() float64 {
	return (d.first.MaxValue() + d.second.MaxValue()) * d.valueFactor
}
