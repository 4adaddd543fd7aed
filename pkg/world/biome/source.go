package biome

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-theft-craft/worldgen/pkg/world/density"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

// Source assigns a biome to a biome cell using the chunk's router.
type Source interface {
	Biome(biomeX, biomeY, biomeZ int, r *density.ChunkRouter) *Biome
}

// Parameter is a closed interval of quantized climate values.
type Parameter struct {
	Min, Max int64
}

// Point returns the degenerate interval at v.
func Point(v float32) Parameter {
	q := density.Quantize(float64(v))
	return Parameter{Min: q, Max: q}
}

// Span returns the interval [lo, hi].
func Span(lo, hi float32) Parameter {
	return Parameter{Min: density.Quantize(float64(lo)), Max: density.Quantize(float64(hi))}
}

// Distance is zero inside the interval and the gap to the nearest bound
// outside it.
func (p Parameter) Distance(v int64) int64 {
	if above := v - p.Max; above > 0 {
		return above
	}
	return max(p.Min-v, 0)
}

// UnmarshalJSON accepts a number or a [min, max] pair.
func (p *Parameter) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var pair []float32
		if err := json.Unmarshal(b, &pair); err != nil {
			return err
		}
		if len(pair) != 2 || pair[0] > pair[1] {
			return fmt.Errorf("climate parameter: want [min, max], got %v", pair)
		}
		*p = Span(pair[0], pair[1])
		return nil
	}
	var v float32
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Point(v)
	return nil
}

// ParameterPoint is the climate region a biome occupies.
type ParameterPoint struct {
	Temperature     Parameter `json:"temperature"`
	Humidity        Parameter `json:"humidity"`
	Continentalness Parameter `json:"continentalness"`
	Erosion         Parameter `json:"erosion"`
	Depth           Parameter `json:"depth"`
	Weirdness       Parameter `json:"weirdness"`
	Offset          float32   `json:"offset"`
}

func sq(v int64) int64 { return v * v }

// Fitness is the squared distance from p to target. Lower is closer.
func (p *ParameterPoint) Fitness(t density.ClimatePoint) int64 {
	return sq(p.Temperature.Distance(t.Temperature)) +
		sq(p.Humidity.Distance(t.Humidity)) +
		sq(p.Continentalness.Distance(t.Continentalness)) +
		sq(p.Erosion.Distance(t.Erosion)) +
		sq(p.Depth.Distance(t.Depth)) +
		sq(p.Weirdness.Distance(t.Weirdness)) +
		sq(density.Quantize(float64(p.Offset)))
}

type entry struct {
	point ParameterPoint
	biome *Biome
}

// MultiNoiseSource picks the biome whose parameter point is closest to the
// sampled climate.
type MultiNoiseSource struct {
	entries []entry
}

// ParseMultiNoise decodes a list of {"biome", "parameters"} entries.
func ParseMultiNoise(reg *Registry, raw json.RawMessage) (*MultiNoiseSource, error) {
	var list []struct {
		Biome      string         `json:"biome"`
		Parameters ParameterPoint `json:"parameters"`
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode multi noise biome source: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("multi noise biome source has no entries")
	}
	s := &MultiNoiseSource{}
	for _, e := range list {
		b, ok := reg.ByName(e.Biome)
		if !ok {
			return nil, fmt.Errorf("multi noise biome source: unknown biome %s", e.Biome)
		}
		s.entries = append(s.entries, entry{point: e.Parameters, biome: b})
	}
	return s, nil
}

// Search returns the closest biome. Ties keep the earliest entry.
func (s *MultiNoiseSource) Search(t density.ClimatePoint) *Biome {
	best := s.entries[0].biome
	bestFit := int64(math.MaxInt64)
	for i := range s.entries {
		if f := s.entries[i].point.Fitness(t); f < bestFit {
			best, bestFit = s.entries[i].biome, f
		}
	}
	return best
}

func (s *MultiNoiseSource) Biome(x, y, z int, r *density.ChunkRouter) *Biome {
	return s.Search(r.Climate().Sample(x, y, z))
}

// EndSource places the main island at the origin and rings of islands
// classified by the End islands density beyond it.
type EndSource struct {
	End, Highlands, Midlands, SmallIslands, Barrens *Biome
}

// NewEndSource resolves the five End biomes.
func NewEndSource(reg *Registry) (*EndSource, error) {
	s := &EndSource{}
	for _, f := range []struct {
		dst  **Biome
		name string
	}{
		{&s.End, "the_end"},
		{&s.Highlands, "end_highlands"},
		{&s.Midlands, "end_midlands"},
		{&s.SmallIslands, "small_end_islands"},
		{&s.Barrens, "end_barrens"},
	} {
		b, ok := reg.ByName(f.name)
		if !ok {
			return nil, fmt.Errorf("end biome source: unknown biome %s", f.name)
		}
		*f.dst = b
	}
	return s, nil
}

func (s *EndSource) Biome(x, y, z int, r *density.ChunkRouter) *Biome {
	bx, by, bz := pos.BiomeToBlock(x), pos.BiomeToBlock(y), pos.BiomeToBlock(z)
	sx, sz := int64(pos.SectionFromBlock(bx)), int64(pos.SectionFromBlock(bz))
	if sx*sx+sz*sz <= 4096 {
		return s.End
	}
	cx := (pos.SectionFromBlock(bx)*2 + 1) * 8
	cz := (pos.SectionFromBlock(bz)*2 + 1) * 8
	d := r.SampleAt(density.EntryErosion, cx, by, cz)
	switch {
	case d > 0.25:
		return s.Highlands
	case d >= -0.0625:
		return s.Midlands
	case d < -0.21875:
		return s.SmallIslands
	default:
		return s.Barrens
	}
}
