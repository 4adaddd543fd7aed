package noise

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-theft-craft/worldgen/pkg/random"
)

// Parameters configure a noise: the lowest octave and one amplitude per
// octave from there upward. A zero amplitude disables that octave.
type Parameters struct {
	FirstOctave int       `json:"firstOctave"`
	Amplitudes  []float64 `json:"amplitudes"`
}

// OctavePerlin sums Perlin octaves with halving amplitude and doubling
// frequency.
type OctavePerlin struct {
	octaves     []*Perlin
	amplitudes  []float64
	lacunarity  float64
	persistence float64
}

// NewOctavePerlin builds octaves from a positional splitter forked off r,
// one "octave_<n>" stream per enabled octave.
func NewOctavePerlin(r random.Random, p Parameters) *OctavePerlin {
	o := newOctavePerlin(p)
	split := r.NextSplitter()
	for i, a := range p.Amplitudes {
		if a != 0 {
			o.octaves[i] = NewPerlin(split.SplitString("octave_" + strconv.Itoa(p.FirstOctave+i)))
		}
	}
	return o
}

// NewLegacyOctavePerlin builds octaves by consuming r sequentially from the
// highest frequency downward, as pre-splitter worlds did. Octaves above zero
// cannot be represented this way.
func NewLegacyOctavePerlin(r random.Random, p Parameters) (*OctavePerlin, error) {
	n := len(p.Amplitudes)
	start := -p.FirstOctave
	if start < n-1 {
		return nil, fmt.Errorf("positive octaves are not allowed with legacy random (first octave %d, %d amplitudes)", p.FirstOctave, n)
	}
	o := newOctavePerlin(p)

	first := NewPerlin(r)
	if start >= 0 && start < n && p.Amplitudes[start] != 0 {
		o.octaves[start] = first
	}
	for i := start - 1; i >= 0; i-- {
		if i < n && p.Amplitudes[i] != 0 {
			o.octaves[i] = NewPerlin(r)
		} else {
			r.Skip(262)
		}
	}
	return o, nil
}

// NewLegacyOctavePerlinRange builds a legacy octave set with unit amplitude
// for each octave in [lo, hi].
func NewLegacyOctavePerlinRange(r random.Random, lo, hi int) (*OctavePerlin, error) {
	amps := make([]float64, hi-lo+1)
	for i := range amps {
		amps[i] = 1
	}
	return NewLegacyOctavePerlin(r, Parameters{FirstOctave: lo, Amplitudes: amps})
}

func newOctavePerlin(p Parameters) *OctavePerlin {
	n := len(p.Amplitudes)
	return &OctavePerlin{
		octaves:     make([]*Perlin, n),
		amplitudes:  p.Amplitudes,
		lacunarity:  math.Pow(2, float64(p.FirstOctave)),
		persistence: math.Pow(2, float64(n-1)) / (math.Pow(2, float64(n)) - 1),
	}
}

// Sample evaluates the octave sum at (x, y, z).
func (o *OctavePerlin) Sample(x, y, z float64) float64 {
	return o.SampleSmeared(x, y, z, 0, 0, false)
}

// SampleSmeared evaluates the sum with the legacy vertical smear. With
// fixedY every octave samples at its own origin height.
func (o *OctavePerlin) SampleSmeared(x, y, z, yScale, yMax float64, fixedY bool) float64 {
	var sum float64
	freq := o.lacunarity
	amp := o.persistence
	for i, p := range o.octaves {
		if p != nil {
			sy := wrap(y * freq)
			if fixedY {
				sy = -p.OriginY
			}
			v := p.SampleSmeared(wrap(x*freq), sy, wrap(z*freq), yScale*freq, yMax*freq)
			sum += o.amplitudes[i] * v * amp
		}
		freq *= 2
		amp /= 2
	}
	return sum
}

// Octave returns the i-th octave counting from the highest frequency, or nil
// when that octave is disabled.
func (o *OctavePerlin) Octave(i int) *Perlin {
	return o.octaves[len(o.octaves)-1-i]
}

// EdgeValue bounds the sum if every octave returned v.
func (o *OctavePerlin) EdgeValue(v float64) float64 {
	var sum float64
	amp := o.persistence
	for i, p := range o.octaves {
		if p != nil {
			sum += o.amplitudes[i] * v * amp
		}
		amp /= 2
	}
	return sum
}

// MaxValue is the largest magnitude Sample can return.
func (o *OctavePerlin) MaxValue() float64 { return o.EdgeValue(2) }
