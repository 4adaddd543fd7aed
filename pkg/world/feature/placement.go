package feature

import (
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"math"

	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// Modifier turns one candidate position into zero or more. Positions is
// called once per incoming position, so any random draws happen in chain
// order.
type Modifier interface {
	Positions(c *Context, p pos.Block) iter.Seq[pos.Block]
}

func repeat(n int, p pos.Block) iter.Seq[pos.Block] {
	return func(yield func(pos.Block) bool) {
		for range n {
			if !yield(p) {
				return
			}
		}
	}
}

func only(ok bool, p pos.Block) iter.Seq[pos.Block] {
	return func(yield func(pos.Block) bool) {
		if ok {
			yield(p)
		}
	}
}

func each(ps []pos.Block) iter.Seq[pos.Block] {
	return func(yield func(pos.Block) bool) {
		for _, p := range ps {
			if !yield(p) {
				return
			}
		}
	}
}

// Count repeats the position a sampled number of times.
type Count struct{ Count provider.Int }

func (m Count) Positions(c *Context, p pos.Block) iter.Seq[pos.Block] {
	return repeat(m.Count.Get(c.Random), p)
}

// NoiseBasedCount repeats the position by the biome info noise.
type NoiseBasedCount struct {
	Ratio  int
	Factor float64
	Offset float64
}

func (m NoiseBasedCount) Positions(_ *Context, p pos.Block) iter.Seq[pos.Block] {
	d := biome.InfoNoise(float64(p.X)/m.Factor, float64(p.Z)/m.Factor)
	return repeat(int(math.Ceil((d+m.Offset)*float64(m.Ratio))), p)
}

// NoiseThresholdCount repeats the position Below or Above times depending
// on the biome info noise.
type NoiseThresholdCount struct {
	Level        float64
	Below, Above int
}

func (m NoiseThresholdCount) Positions(_ *Context, p pos.Block) iter.Seq[pos.Block] {
	n := m.Above
	if biome.InfoNoise(float64(p.X)/200, float64(p.Z)/200) < m.Level {
		n = m.Below
	}
	return repeat(n, p)
}

// CountOnEveryLayer picks positions on each floor of a column, scanning
// down from the motion blocking height, one layer deeper per pass until a
// pass finds nothing.
type CountOnEveryLayer struct{ Count provider.Int }

func (m CountOnEveryLayer) Positions(c *Context, p pos.Block) iter.Seq[pos.Block] {
	var out []pos.Block
	for layer := 0; ; layer++ {
		found := false
		for j := 0; j < m.Count.Get(c.Random); j++ {
			x := c.Random.NextBoundedInt(16) + p.X
			z := c.Random.NextBoundedInt(16) + p.Z
			top := c.World.Top(heightmap.MotionBlocking, x, z)
			if y, ok := onGroundY(c, x, top, z, layer); ok {
				out = append(out, pos.Block{X: x, Y: y, Z: z})
				found = true
			}
		}
		if !found {
			break
		}
	}
	return each(out)
}

// onGroundY returns the height above the layer-th transition from an empty
// block to a non-empty one, scanning down from y.
func onGroundY(c *Context, x, y, z, layer int) (int, bool) {
	empty := func(p pos.Block) bool {
		s := c.state(p)
		return s.IsAir() || s.IsLiquid()
	}
	minY := c.World.HeightContext().MinY
	above := empty(pos.Block{X: x, Y: y, Z: z})
	seen := 0
	for j := y; j >= minY+1; j-- {
		p := pos.Block{X: x, Y: j - 1, Z: z}
		cur := empty(p)
		if !cur && above && c.state(p).Name() != "minecraft:bedrock" {
			if seen == layer {
				return j, true
			}
			seen++
		}
		above = cur
	}
	return 0, false
}

// RarityFilter keeps the position with probability 1/Chance.
type RarityFilter struct{ Chance int }

func (m RarityFilter) Positions(c *Context, p pos.Block) iter.Seq[pos.Block] {
	return only(c.Random.NextFloat() < 1/float32(m.Chance), p)
}

// InSquare moves the position to a random column of the chunk.
type InSquare struct{}

func (InSquare) Positions(c *Context, p pos.Block) iter.Seq[pos.Block] {
	x := c.Random.NextBoundedInt(16) + p.X
	z := c.Random.NextBoundedInt(16) + p.Z
	return only(true, pos.Block{X: x, Y: p.Y, Z: z})
}

// BiomeFilter keeps positions whose biome lists the placed feature being
// generated.
type BiomeFilter struct{}

func (BiomeFilter) Positions(c *Context, p pos.Block) iter.Seq[pos.Block] {
	if c.Placed == "" {
		return only(true, p)
	}
	b := c.World.Biome(p)
	return only(b != nil && b.HasFeature(c.Placed), p)
}

// HeightRange sets the height from a height provider. An empty range is
// logged to Log and yields its lower anchor.
type HeightRange struct {
	Height provider.Height
	Log    *slog.Logger
}

func (m HeightRange) Positions(c *Context, p pos.Block) iter.Seq[pos.Block] {
	hc := c.World.HeightContext()
	if lo, hi, empty := m.Height.EmptyRange(hc); empty && m.Log != nil {
		m.Log.Warn("empty height range", "min", lo, "max", hi)
	}
	p.Y = m.Height.Get(c.Random, hc)
	return only(true, p)
}

// Heightmap moves the position onto a heightmap.
type Heightmap struct{ Kind heightmap.Kind }

func (m Heightmap) Positions(c *Context, p pos.Block) iter.Seq[pos.Block] {
	y := c.World.Top(m.Kind, p.X, p.Z)
	return only(y > c.World.HeightContext().MinY, pos.Block{X: p.X, Y: y, Z: p.Z})
}

// EnvironmentScan walks in Direction until Target holds, giving up after
// MaxSteps or where Allowed fails.
type EnvironmentScan struct {
	Direction pos.Direction
	Target    Predicate
	Allowed   Predicate
	MaxSteps  int
}

func (m EnvironmentScan) Positions(c *Context, p pos.Block) iter.Seq[pos.Block] {
	if !m.Allowed.Test(c, p) {
		return only(false, p)
	}
	for range m.MaxSteps {
		if m.Target.Test(c, p) {
			return only(true, p)
		}
		p = p.Offset(m.Direction)
		if c.outOfHeight(p.Y) {
			return only(false, p)
		}
		if !m.Allowed.Test(c, p) {
			break
		}
	}
	return only(m.Target.Test(c, p), p)
}

// RandomOffset jitters the position.
type RandomOffset struct {
	XZ, Y provider.Int
}

func (m RandomOffset) Positions(c *Context, p pos.Block) iter.Seq[pos.Block] {
	x := p.X + m.XZ.Get(c.Random)
	y := p.Y + m.Y.Get(c.Random)
	z := p.Z + m.XZ.Get(c.Random)
	return only(true, pos.Block{X: x, Y: y, Z: z})
}

// PredicateFilter keeps positions where the predicate holds.
type PredicateFilter struct{ Predicate Predicate }

func (m PredicateFilter) Positions(c *Context, p pos.Block) iter.Seq[pos.Block] {
	return only(m.Predicate.Test(c, p), p)
}

// SurfaceRelativeThreshold keeps positions within a band around the
// heightmap.
type SurfaceRelativeThreshold struct {
	Kind     heightmap.Kind
	Min, Max int
}

func (m SurfaceRelativeThreshold) Positions(c *Context, p pos.Block) iter.Seq[pos.Block] {
	top := int64(c.World.Top(m.Kind, p.X, p.Z))
	y := int64(p.Y)
	return only(top+int64(m.Min) <= y && y <= top+int64(m.Max), p)
}

// SurfaceWaterDepth keeps positions where the water over the ocean floor
// is at most MaxDepth deep.
type SurfaceWaterDepth struct{ MaxDepth int }

func (m SurfaceWaterDepth) Positions(c *Context, p pos.Block) iter.Seq[pos.Block] {
	floor := c.World.Top(heightmap.OceanFloor, p.X, p.Z)
	surface := c.World.Top(heightmap.WorldSurface, p.X, p.Z)
	return only(surface-floor <= m.MaxDepth, p)
}

// FixedPlacement yields the listed positions that fall in the chunk of the
// incoming position.
type FixedPlacement struct{ Fixed []pos.Block }

func (m FixedPlacement) Positions(_ *Context, p pos.Block) iter.Seq[pos.Block] {
	cp := p.Chunk()
	var out []pos.Block
	for _, q := range m.Fixed {
		if q.Chunk() == cp {
			out = append(out, q)
		}
	}
	return each(out)
}

type modifierData struct {
	Type string `json:"type"`

	Count provider.Int `json:"count"`

	NoiseToCountRatio int     `json:"noise_to_count_ratio"`
	NoiseFactor       float64 `json:"noise_factor"`
	NoiseOffset       float64 `json:"noise_offset"`

	NoiseLevel float64 `json:"noise_level"`
	BelowNoise int     `json:"below_noise"`
	AboveNoise int     `json:"above_noise"`

	Chance int `json:"chance"`

	Height    provider.Height `json:"height"`
	Heightmap heightmap.Kind  `json:"heightmap"`

	Direction pos.Direction   `json:"direction_of_search"`
	Target    json.RawMessage `json:"target_condition"`
	Allowed   json.RawMessage `json:"allowed_search_condition"`
	MaxSteps  int             `json:"max_steps"`

	XZSpread provider.Int `json:"xz_spread"`
	YSpread  provider.Int `json:"y_spread"`

	Predicate json.RawMessage `json:"predicate"`

	MinInclusive *int `json:"min_inclusive"`
	MaxInclusive *int `json:"max_inclusive"`

	MaxWaterDepth int `json:"max_water_depth"`

	Positions [][3]int `json:"positions"`
}

func (d *decoder) modifier(raw json.RawMessage) (Modifier, error) {
	var v modifierData
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("placement modifier: %w", err)
	}
	typ := provider.Namespaced(v.Type)
	switch typ {
	case "minecraft:count":
		return Count{Count: v.Count}, nil
	case "minecraft:count_on_every_layer":
		return CountOnEveryLayer{Count: v.Count}, nil
	case "minecraft:noise_based_count":
		if v.NoiseFactor == 0 {
			return nil, fmt.Errorf("placement %s: noise_factor must not be zero", typ)
		}
		return NoiseBasedCount{Ratio: v.NoiseToCountRatio, Factor: v.NoiseFactor, Offset: v.NoiseOffset}, nil
	case "minecraft:noise_threshold_count":
		return NoiseThresholdCount{Level: v.NoiseLevel, Below: v.BelowNoise, Above: v.AboveNoise}, nil
	case "minecraft:rarity_filter":
		if v.Chance <= 0 {
			return nil, fmt.Errorf("placement %s: chance must be positive, got %d", typ, v.Chance)
		}
		return RarityFilter{Chance: v.Chance}, nil
	case "minecraft:in_square":
		return InSquare{}, nil
	case "minecraft:biome":
		return BiomeFilter{}, nil
	case "minecraft:height_range":
		if v.Height.HeightProvider == nil {
			return nil, fmt.Errorf("placement %s: missing height", typ)
		}
		return HeightRange{Height: v.Height, Log: d.log}, nil
	case "minecraft:heightmap":
		return Heightmap{Kind: v.Heightmap}, nil
	case "minecraft:environment_scan":
		if v.Target == nil {
			return nil, fmt.Errorf("placement %s: missing target_condition", typ)
		}
		target, err := d.predicate(v.Target)
		if err != nil {
			return nil, fmt.Errorf("placement %s: %w", typ, err)
		}
		var allowed Predicate = True{}
		if v.Allowed != nil {
			if allowed, err = d.predicate(v.Allowed); err != nil {
				return nil, fmt.Errorf("placement %s: %w", typ, err)
			}
		}
		return EnvironmentScan{Direction: v.Direction, Target: target, Allowed: allowed, MaxSteps: v.MaxSteps}, nil
	case "minecraft:random_offset":
		return RandomOffset{XZ: v.XZSpread, Y: v.YSpread}, nil
	case "minecraft:block_predicate_filter":
		if v.Predicate == nil {
			return nil, fmt.Errorf("placement %s: missing predicate", typ)
		}
		p, err := d.predicate(v.Predicate)
		if err != nil {
			return nil, fmt.Errorf("placement %s: %w", typ, err)
		}
		return PredicateFilter{Predicate: p}, nil
	case "minecraft:surface_relative_threshold_filter":
		m := SurfaceRelativeThreshold{Kind: v.Heightmap, Min: math.MinInt32, Max: math.MaxInt32}
		if v.MinInclusive != nil {
			m.Min = *v.MinInclusive
		}
		if v.MaxInclusive != nil {
			m.Max = *v.MaxInclusive
		}
		return m, nil
	case "minecraft:surface_water_depth_filter":
		return SurfaceWaterDepth{MaxDepth: v.MaxWaterDepth}, nil
	case "minecraft:fixed_placement":
		m := FixedPlacement{Fixed: make([]pos.Block, 0, len(v.Positions))}
		for _, q := range v.Positions {
			m.Fixed = append(m.Fixed, pos.Block{X: q[0], Y: q[1], Z: q[2]})
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown placement modifier %q", v.Type)
	}
}
