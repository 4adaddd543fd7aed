package feature

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/rule"
)

// OreTarget replaces blocks matching Test with State.
type OreTarget struct {
	Test  rule.Test
	State *block.State
}

// Ore carves a blob of ore along a random segment through the origin.
type Ore struct {
	Size               int
	DiscardOnAirChance float32
	Targets            []OreTarget
}

func (o Ore) Generate(c *Context, origin pos.Block) bool {
	r := c.Random
	angle := r.NextFloat() * math.Pi
	spread := float32(o.Size) / 8
	pad := int(math.Ceil(float64((float32(o.Size)/16*2 + 1) / 2)))
	sin := math.Sin(float64(angle)) * float64(spread)
	cos := math.Cos(float64(angle)) * float64(spread)
	x0, x1 := float64(origin.X)+sin, float64(origin.X)-sin
	z0, z1 := float64(origin.Z)+cos, float64(origin.Z)-cos
	y0 := float64(origin.Y + r.NextBoundedInt(3) - 2)
	y1 := float64(origin.Y + r.NextBoundedInt(3) - 2)

	reach := int(math.Ceil(float64(spread)))
	minX := origin.X - reach - pad
	minY := origin.Y - 2 - pad
	minZ := origin.Z - reach - pad
	width := 2 * (reach + pad)
	height := 2 * (2 + pad)
	for x := minX; x <= minX+width; x++ {
		for z := minZ; z <= minZ+width; z++ {
			if minY <= c.World.Top(heightmap.OceanFloorWG, x, z) {
				return o.place(c, [2][3]float64{{x0, y0, z0}, {x1, y1, z1}}, pos.Block{X: minX, Y: minY, Z: minZ}, width, height)
			}
		}
	}
	return false
}

// place fills overlapping spheres strung along the segment ends.
func (o Ore) place(c *Context, ends [2][3]float64, corner pos.Block, width, height int) bool {
	r := c.Random
	n := o.Size
	type sphere struct{ x, y, z, radius float64 }
	spheres := make([]sphere, n)
	for k := range spheres {
		t := float32(k) / float32(n)
		radius := r.NextDouble() * float64(n) / 16
		spheres[k] = sphere{
			x:      lerp(float64(t), ends[0][0], ends[1][0]),
			y:      lerp(float64(t), ends[0][1], ends[1][1]),
			z:      lerp(float64(t), ends[0][2], ends[1][2]),
			radius: (float64(float32(math.Sin(float64(math.Pi*t)))+1)*radius + 1) / 2,
		}
	}
	for k := 0; k < n-1; k++ {
		if spheres[k].radius <= 0 {
			continue
		}
		for m := k + 1; m < n; m++ {
			if spheres[m].radius <= 0 {
				continue
			}
			dx := spheres[k].x - spheres[m].x
			dy := spheres[k].y - spheres[m].y
			dz := spheres[k].z - spheres[m].z
			dr := spheres[k].radius - spheres[m].radius
			if dr*dr > dx*dx+dy*dy+dz*dz {
				if dr > 0 {
					spheres[m].radius = -1
				} else {
					spheres[k].radius = -1
				}
			}
		}
	}

	seen := make([]bool, width*height*width)
	placed := 0
	for _, s := range spheres {
		if s.radius < 0 {
			continue
		}
		x0 := max(floor(s.x-s.radius), corner.X)
		y0 := max(floor(s.y-s.radius), corner.Y)
		z0 := max(floor(s.z-s.radius), corner.Z)
		x1 := max(floor(s.x+s.radius), x0)
		y1 := max(floor(s.y+s.radius), y0)
		z1 := max(floor(s.z+s.radius), z0)
		for x := x0; x <= x1; x++ {
			u := (float64(x) + 0.5 - s.x) / s.radius
			if u*u >= 1 {
				continue
			}
			for y := y0; y <= y1; y++ {
				v := (float64(y) + 0.5 - s.y) / s.radius
				if u*u+v*v >= 1 {
					continue
				}
				for z := z0; z <= z1; z++ {
					w := (float64(z) + 0.5 - s.z) / s.radius
					if u*u+v*v+w*w >= 1 || c.outOfHeight(y) {
						continue
					}
					i := x - corner.X + (y-corner.Y)*width + (z-corner.Z)*width*height
					if i < 0 || i >= len(seen) || seen[i] {
						continue
					}
					seen[i] = true
					if o.replace(c, pos.Block{X: x, Y: y, Z: z}) {
						placed++
					}
				}
			}
		}
	}
	return placed > 0
}

// replace writes the first matching target at p.
func (o Ore) replace(c *Context, p pos.Block) bool {
	s := c.state(p)
	for _, t := range o.Targets {
		if o.canPlace(c, s, t, p) {
			return c.set(p, t.State)
		}
	}
	return false
}

func (o Ore) canPlace(c *Context, s *block.State, t OreTarget, p pos.Block) bool {
	if !t.Test.Test(s, c.Random) {
		return false
	}
	if skipAirCheck(c.Random, o.DiscardOnAirChance) {
		return true
	}
	return !adjacentToAir(c, p)
}

func skipAirCheck(r random.Random, chance float32) bool {
	if chance <= 0 {
		return true
	}
	if chance >= 1 {
		return false
	}
	return r.NextFloat() >= chance
}

func adjacentToAir(c *Context, p pos.Block) bool {
	for _, d := range pos.Directions {
		if c.isAir(p.Offset(d)) {
			return true
		}
	}
	return false
}

func lerp(t, a, b float64) float64 { return a + t*(b-a) }

func floor(v float64) int { return int(math.Floor(v)) }

// ScatteredOre places single ore blocks in a widening cloud around the
// origin.
type ScatteredOre struct{ Ore }

func (o ScatteredOre) Generate(c *Context, origin pos.Block) bool {
	r := c.Random
	n := r.NextBoundedInt(o.Size + 1)
	for j := range n {
		spread := float32(min(j, 7))
		dx := roundF((r.NextFloat() - r.NextFloat()) * spread)
		dy := roundF((r.NextFloat() - r.NextFloat()) * spread)
		dz := roundF((r.NextFloat() - r.NextFloat()) * spread)
		p := origin.Add(dx, dy, dz)
		s := c.state(p)
		for _, t := range o.Targets {
			if o.canPlace(c, s, t, p) {
				c.set(p, t.State)
				break
			}
		}
	}
	return true
}

func roundF(v float32) int { return int(math.Floor(float64(v + 0.5))) }

type oreData struct {
	Size    int     `json:"size"`
	Discard float32 `json:"discard_chance_on_air_exposure"`
	Targets []struct {
		Target json.RawMessage `json:"target"`
		State  block.StateData `json:"state"`
	} `json:"targets"`
}

func (d *decoder) ore(raw json.RawMessage, scattered bool) (Feature, error) {
	var v oreData
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if v.Size < 0 || v.Size > 64 {
		return nil, fmt.Errorf("size %d out of range [0, 64]", v.Size)
	}
	o := Ore{Size: v.Size, DiscardOnAirChance: v.Discard}
	for i, t := range v.Targets {
		test, err := rule.Parse(d.blocks, t.Target)
		if err != nil {
			return nil, fmt.Errorf("targets[%d]: %w", i, err)
		}
		s, err := d.blocks.Resolve(t.State)
		if err != nil {
			return nil, fmt.Errorf("targets[%d]: %w", i, err)
		}
		o.Targets = append(o.Targets, OreTarget{Test: test, State: s})
	}
	if scattered {
		return ScatteredOre{o}, nil
	}
	return o, nil
}
