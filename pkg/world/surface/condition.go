package surface

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/noise"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// Condition is a predicate over the current context position.
type Condition interface {
	Test(c *Context) bool
}

// BiomeCondition holds when the biome at the position is one of Biomes.
type BiomeCondition struct{ Biomes []*biome.Biome }

func (b BiomeCondition) Test(c *Context) bool {
	cur := c.Biome()
	for _, want := range b.Biomes {
		if cur == want {
			return true
		}
	}
	return false
}

// NoiseThreshold holds when the 2D noise value at the column lies in
// [Min, Max].
type NoiseThreshold struct {
	Noise    *noise.DoublePerlin
	Min, Max float64
}

func (n NoiseThreshold) Test(c *Context) bool {
	v := n.Noise.Sample(float64(c.X), 0, float64(c.Z))
	return v >= n.Min && v <= n.Max
}

// VerticalGradient is always true at and below TrueAtAndBelow, never at or
// above FalseAtAndAbove, and fades by a positional random in between.
type VerticalGradient struct {
	Random          random.Splitter
	TrueAtAndBelow  provider.YOffset
	FalseAtAndAbove provider.YOffset
}

func (g VerticalGradient) Test(c *Context) bool {
	lo := g.TrueAtAndBelow.Y(c.height)
	hi := g.FalseAtAndAbove.Y(c.height)
	if c.Y <= lo {
		return true
	}
	if c.Y >= hi {
		return false
	}
	f := noise.Map(float64(c.Y), float64(lo), float64(hi), 1, 0)
	return float64(g.Random.SplitPos(c.X, c.Y, c.Z).NextFloat()) < f
}

// YAbove holds at or above the anchor, shifted by the run depth.
type YAbove struct {
	Anchor                 provider.YOffset
	SurfaceDepthMultiplier int
	AddStoneDepth          bool
}

func (a YAbove) Test(c *Context) bool {
	y := c.Y
	if a.AddStoneDepth {
		y += c.StoneDepthAbove
	}
	return y >= a.Anchor.Y(c.height)+c.SurfaceDepth*a.SurfaceDepthMultiplier
}

// Water holds when there is no fluid above or the position is high enough
// relative to it.
type Water struct {
	Offset                 int
	SurfaceDepthMultiplier int
	AddStoneDepth          bool
}

func (w Water) Test(c *Context) bool {
	if c.WaterHeight == math.MinInt {
		return true
	}
	y := c.Y
	if w.AddStoneDepth {
		y += c.StoneDepthAbove
	}
	return y >= c.WaterHeight+w.Offset+c.SurfaceDepth*w.SurfaceDepthMultiplier
}

// Temperature holds where precipitation would fall as snow.
type Temperature struct{}

func (Temperature) Test(c *Context) bool {
	return c.Biome().ColdEnoughToSnow(c.Pos(), c.builder.SeaLevel)
}

// Steep holds on columns with a height step of four or more to a neighbour
// within the chunk.
type Steep struct{}

func (Steep) Test(c *Context) bool {
	lx, lz := c.X&15, c.Z&15
	sx, sz := c.X-lx, c.Z-lz
	top := func(x, z int) int { return c.chunk.Top(heightmap.WorldSurfaceWG, sx+x, sz+z) }

	north := top(lx, max(lz-1, 0))
	south := top(lx, min(lz+1, 15))
	if south >= north+4 {
		return true
	}
	west := top(max(lx-1, 0), lz)
	east := top(min(lx+1, 15), lz)
	return west >= east+4
}

// Not inverts a condition.
type Not struct{ Invert Condition }

func (n Not) Test(c *Context) bool { return !n.Invert.Test(c) }

// Hole holds where the run depth is not positive.
type Hole struct{}

func (Hole) Test(c *Context) bool { return c.SurfaceDepth <= 0 }

// AbovePreliminarySurface holds at or above the estimated surface height.
type AbovePreliminarySurface struct{}

func (AbovePreliminarySurface) Test(c *Context) bool { return c.Y >= c.MinSurfaceLevel() }

// StoneDepth holds within a band of solid blocks below the nearest air or
// fluid above (floor) or above the nearest cavity below (ceiling).
type StoneDepth struct {
	Offset              int
	AddSurfaceDepth     bool
	SecondaryDepthRange int
	Ceiling             bool
}

func (s StoneDepth) Test(c *Context) bool {
	depth := c.StoneDepthAbove
	if s.Ceiling {
		depth = c.StoneDepthBelow
	}
	limit := 1 + s.Offset
	if s.AddSurfaceDepth {
		limit += c.SurfaceDepth
	}
	if s.SecondaryDepthRange != 0 {
		limit += int(noise.Map(c.SurfaceSecondary(), -1, 1, 0, float64(s.SecondaryDepthRange)))
	}
	return depth <= limit
}

type conditionData struct {
	Type string `json:"type"`

	BiomeIs []string `json:"biome_is"`

	Noise        string  `json:"noise"`
	MinThreshold float64 `json:"min_threshold"`
	MaxThreshold float64 `json:"max_threshold"`

	RandomName      string            `json:"random_name"`
	TrueAtAndBelow  *provider.YOffset `json:"true_at_and_below"`
	FalseAtAndAbove *provider.YOffset `json:"false_at_and_above"`

	Anchor                 *provider.YOffset `json:"anchor"`
	SurfaceDepthMultiplier int               `json:"surface_depth_multiplier"`
	AddStoneDepth          bool              `json:"add_stone_depth"`
	Offset                 int               `json:"offset"`

	Invert json.RawMessage `json:"invert"`

	AddSurfaceDepth     bool   `json:"add_surface_depth"`
	SecondaryDepthRange int    `json:"secondary_depth_range"`
	SurfaceType         string `json:"surface_type"`
}

// ParseCondition decodes a material condition.
func ParseCondition(env Env, raw json.RawMessage) (Condition, error) {
	var d conditionData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("surface condition: %w", err)
	}
	typ := provider.Namespaced(d.Type)
	switch typ {
	case "minecraft:biome":
		cond := BiomeCondition{Biomes: make([]*biome.Biome, 0, len(d.BiomeIs))}
		for _, name := range d.BiomeIs {
			b, ok := env.Biomes.ByName(name)
			if !ok {
				return nil, fmt.Errorf("surface condition %s: unknown biome %q", typ, name)
			}
			cond.Biomes = append(cond.Biomes, b)
		}
		return cond, nil
	case "minecraft:noise_threshold":
		n, err := env.Noises.Get(d.Noise)
		if err != nil {
			return nil, fmt.Errorf("surface condition %s: %w", typ, err)
		}
		return NoiseThreshold{Noise: n, Min: d.MinThreshold, Max: d.MaxThreshold}, nil
	case "minecraft:vertical_gradient":
		if d.RandomName == "" || d.TrueAtAndBelow == nil || d.FalseAtAndAbove == nil {
			return nil, fmt.Errorf("surface condition %s: needs random_name, true_at_and_below and false_at_and_above", typ)
		}
		return VerticalGradient{
			Random:          env.Random.Splitter(provider.Namespaced(d.RandomName)),
			TrueAtAndBelow:  *d.TrueAtAndBelow,
			FalseAtAndAbove: *d.FalseAtAndAbove,
		}, nil
	case "minecraft:y_above":
		if d.Anchor == nil {
			return nil, fmt.Errorf("surface condition %s: missing anchor", typ)
		}
		return YAbove{Anchor: *d.Anchor, SurfaceDepthMultiplier: d.SurfaceDepthMultiplier, AddStoneDepth: d.AddStoneDepth}, nil
	case "minecraft:water":
		return Water{Offset: d.Offset, SurfaceDepthMultiplier: d.SurfaceDepthMultiplier, AddStoneDepth: d.AddStoneDepth}, nil
	case "minecraft:temperature":
		return Temperature{}, nil
	case "minecraft:steep":
		return Steep{}, nil
	case "minecraft:not":
		if d.Invert == nil {
			return nil, fmt.Errorf("surface condition %s: missing invert", typ)
		}
		inner, err := ParseCondition(env, d.Invert)
		if err != nil {
			return nil, err
		}
		return Not{Invert: inner}, nil
	case "minecraft:hole":
		return Hole{}, nil
	case "minecraft:above_preliminary_surface":
		return AbovePreliminarySurface{}, nil
	case "minecraft:stone_depth":
		var ceiling bool
		switch d.SurfaceType {
		case "floor":
		case "ceiling":
			ceiling = true
		default:
			return nil, fmt.Errorf("surface condition %s: unknown surface_type %q", typ, d.SurfaceType)
		}
		return StoneDepth{
			Offset:              d.Offset,
			AddSurfaceDepth:     d.AddSurfaceDepth,
			SecondaryDepthRange: d.SecondaryDepthRange,
			Ceiling:             ceiling,
		}, nil
	default:
		return nil, fmt.Errorf("unknown surface condition %q", d.Type)
	}
}
