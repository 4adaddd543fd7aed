package feature

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

const dripstoneReplaceable = "dripstone_replaceable_blocks"

// PointedDripstone hangs or stands a short dripstone spike off the
// ceiling or floor next to the origin and spreads dripstone blocks around
// its base.
type PointedDripstone struct {
	TallerChance   float32
	SpreadChance   float32
	SpreadRadius2  float32
	SpreadRadius3  float32
	Block, Pointed *block.State
}

func (f PointedDripstone) base(s *block.State) bool {
	return s.Block == f.Block.Block || s.HasTag(dripstoneReplaceable)
}

func (f PointedDripstone) placeBlock(c *Context, p pos.Block) {
	if c.state(p).HasTag(dripstoneReplaceable) {
		c.set(p, f.Block)
	}
}

// tipDirection is the way the spike grows: down from a ceiling, up from a
// floor, or a coin toss when both are present.
func (f PointedDripstone) tipDirection(c *Context, p pos.Block) (pos.Direction, bool) {
	up, down := f.base(c.state(p.Up())), f.base(c.state(p.Down()))
	switch {
	case up && down:
		if c.Random.NextBool() {
			return pos.Down, true
		}
		return pos.Up, true
	case up:
		return pos.Down, true
	case down:
		return pos.Up, true
	}
	return 0, false
}

func (f PointedDripstone) Generate(c *Context, origin pos.Block) bool {
	dir, ok := f.tipDirection(c, origin)
	if !ok {
		return false
	}
	base := origin.Offset(dir.Opposite())
	f.placeBlock(c, base)
	for _, h := range pos.Horizontal {
		if c.Random.NextFloat() > f.SpreadChance {
			continue
		}
		p := base.Offset(h)
		f.placeBlock(c, p)
		if c.Random.NextFloat() > f.SpreadRadius2 {
			continue
		}
		p = p.Offset(pick(c.Random, pos.Directions[:]))
		f.placeBlock(c, p)
		if c.Random.NextFloat() > f.SpreadRadius3 {
			continue
		}
		p = p.Offset(pick(c.Random, pos.Directions[:]))
		f.placeBlock(c, p)
	}

	height := 1
	if c.Random.NextFloat() < f.TallerChance {
		if tip := origin.Offset(dir); c.isAir(tip) || c.isWater(tip) {
			height = 2
		}
	}
	if !f.base(c.state(base)) {
		return true
	}
	p := origin
	for _, thickness := range dripstoneColumn(height) {
		s := f.Pointed.With("vertical_direction", dir.String()).With("thickness", thickness)
		s = s.With("waterlogged", strconv.FormatBool(c.isWater(p)))
		c.set(p, s)
		p = p.Offset(dir)
	}
	return true
}

// dripstoneColumn lists the thickness of each segment from base to tip.
func dripstoneColumn(height int) []string {
	var out []string
	if height >= 3 {
		out = append(out, "base")
		for range height - 3 {
			out = append(out, "middle")
		}
	}
	if height >= 2 {
		out = append(out, "frustum")
	}
	if height >= 1 {
		out = append(out, "tip")
	}
	return out
}

func (d *decoder) pointedDripstone(raw json.RawMessage) (Feature, error) {
	v := struct {
		TallerChance  float32 `json:"chance_of_taller_dripstone"`
		SpreadChance  float32 `json:"chance_of_directional_spread"`
		SpreadRadius2 float32 `json:"chance_of_spread_radius2"`
		SpreadRadius3 float32 `json:"chance_of_spread_radius3"`
	}{0.2, 0.7, 0.5, 0.5}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	f := PointedDripstone{
		TallerChance:  v.TallerChance,
		SpreadChance:  v.SpreadChance,
		SpreadRadius2: v.SpreadRadius2,
		SpreadRadius3: v.SpreadRadius3,
		Block:         d.defaultState("dripstone_block"),
		Pointed:       d.defaultState("pointed_dripstone"),
	}
	if f.Block == nil || f.Pointed == nil {
		return nil, fmt.Errorf("needs dripstone_block and pointed_dripstone blocks")
	}
	return f, nil
}
