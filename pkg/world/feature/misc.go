package feature

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// blockSet is a set of blocks decoded from names and #tags.
type blockSet map[*block.Block]struct{}

func (s blockSet) has(st *block.State) bool {
	_, ok := s[st.Block]
	return ok
}

func (d *decoder) blockSet(names nameList) (blockSet, error) {
	set := make(blockSet)
	for _, name := range names {
		if strings.HasPrefix(name, "#") {
			for _, b := range d.blocks.Tagged(strings.TrimPrefix(name, "#")) {
				set[b] = struct{}{}
			}
			continue
		}
		b, err := d.block(name)
		if err != nil {
			return nil, err
		}
		set[b] = struct{}{}
	}
	return set, nil
}

// Spring places a fluid source in a pocket enclosed by Valid blocks with
// exactly the configured number of open sides.
type Spring struct {
	State              *block.State
	Valid              blockSet
	RockCount          int
	HoleCount          int
	RequiresBlockBelow bool
}

var springSides = [...]pos.Direction{pos.West, pos.East, pos.North, pos.South, pos.Down}

func (f Spring) Generate(c *Context, origin pos.Block) bool {
	if !f.Valid.has(c.state(origin.Up())) {
		return false
	}
	if f.RequiresBlockBelow && !f.Valid.has(c.state(origin.Down())) {
		return false
	}
	if s := c.state(origin); !s.IsAir() && !f.Valid.has(s) {
		return false
	}
	rock, hole := 0, 0
	for _, d := range springSides {
		if f.Valid.has(c.state(origin.Offset(d))) {
			rock++
		}
	}
	for _, d := range springSides {
		if c.isAir(origin.Offset(d)) {
			hole++
		}
	}
	if rock != f.RockCount || hole != f.HoleCount {
		return false
	}
	return c.set(origin, f.State)
}

func (d *decoder) spring(raw json.RawMessage) (Feature, error) {
	v := struct {
		State              block.StateData `json:"state"`
		ValidBlocks        nameList        `json:"valid_blocks"`
		RockCount          int             `json:"rock_count"`
		HoleCount          int             `json:"hole_count"`
		RequiresBlockBelow bool            `json:"requires_block_below"`
	}{RockCount: 4, HoleCount: 1, RequiresBlockBelow: true}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	b, err := d.block(v.State.Name)
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}
	valid, err := d.blockSet(v.ValidBlocks)
	if err != nil {
		return nil, fmt.Errorf("valid_blocks: %w", err)
	}
	return Spring{
		State:              b.DefaultState,
		Valid:              valid,
		RockCount:          v.RockCount,
		HoleCount:          v.HoleCount,
		RequiresBlockBelow: v.RequiresBlockBelow,
	}, nil
}

// DesertWell builds the small sandstone well of desert biomes.
type DesertWell struct {
	sand, sandstone, slab, water *block.State
	suspicious                   *block.State
}

func (f DesertWell) Generate(c *Context, origin pos.Block) bool {
	hc := c.World.HeightContext()
	p := origin.Up()
	for c.isAir(p) && p.Y > hc.MinY+2 {
		p = p.Down()
	}
	if !c.state(p).Is(f.sand.Block) {
		return false
	}
	for dx := -2; dx <= 2; dx++ {
		for dz := -2; dz <= 2; dz++ {
			if c.isAir(p.Add(dx, -1, dz)) && c.isAir(p.Add(dx, -2, dz)) {
				return false
			}
		}
	}
	for dy := -2; dy <= 0; dy++ {
		for dx := -2; dx <= 2; dx++ {
			for dz := -2; dz <= 2; dz++ {
				c.set(p.Add(dx, dy, dz), f.sandstone)
			}
		}
	}
	c.set(p, f.water)
	for _, d := range pos.Horizontal {
		c.set(p.Offset(d), f.water)
	}
	below := p.Down()
	c.set(below, f.sand)
	for _, d := range pos.Horizontal {
		c.set(below.Offset(d), f.sand)
	}
	for dx := -2; dx <= 2; dx++ {
		for dz := -2; dz <= 2; dz++ {
			if dx == -2 || dx == 2 || dz == -2 || dz == 2 {
				c.set(p.Add(dx, 1, dz), f.sandstone)
			}
		}
	}
	c.set(p.Add(2, 1, 0), f.slab)
	c.set(p.Add(-2, 1, 0), f.slab)
	c.set(p.Add(0, 1, 2), f.slab)
	c.set(p.Add(0, 1, -2), f.slab)
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			if dx == 0 && dz == 0 {
				c.set(p.Add(dx, 4, dz), f.sandstone)
			} else {
				c.set(p.Add(dx, 4, dz), f.slab)
			}
		}
	}
	for dy := 1; dy <= 3; dy++ {
		c.set(p.Add(-1, dy, -1), f.sandstone)
		c.set(p.Add(-1, dy, 1), f.sandstone)
		c.set(p.Add(1, dy, -1), f.sandstone)
		c.set(p.Add(1, dy, 1), f.sandstone)
	}
	spots := [...]pos.Block{p, p.Offset(pos.East), p.Offset(pos.South), p.Offset(pos.West), p.Offset(pos.North)}
	first := spots[c.Random.NextBoundedInt(len(spots))].DownN(1)
	second := spots[c.Random.NextBoundedInt(len(spots))].DownN(2)
	if f.suspicious != nil {
		c.set(first, f.suspicious)
		c.set(second, f.suspicious)
	}
	return true
}

func (d *decoder) desertWell() (Feature, error) {
	f := DesertWell{
		sand:       d.defaultState("sand"),
		sandstone:  d.defaultState("sandstone"),
		slab:       d.defaultState("sandstone_slab"),
		water:      d.blocks.Water,
		suspicious: d.defaultState("suspicious_sand"),
	}
	if f.sand == nil || f.sandstone == nil {
		return nil, fmt.Errorf("needs sand and sandstone blocks")
	}
	if f.slab == nil {
		f.slab = f.sandstone
	}
	return f, nil
}

// EndPlatform clears the obsidian landing platform of the End.
type EndPlatform struct{ obsidian, air *block.State }

func (f EndPlatform) Generate(c *Context, origin pos.Block) bool {
	for dz := -2; dz <= 2; dz++ {
		for dx := -2; dx <= 2; dx++ {
			for dy := -1; dy < 3; dy++ {
				p := origin.Add(dx, dy, dz)
				want := f.air
				if dy == -1 {
					want = f.obsidian
				}
				if c.state(p) != want {
					c.set(p, want)
				}
			}
		}
	}
	return true
}

func (d *decoder) endPlatform() (Feature, error) {
	obsidian := d.defaultState("obsidian")
	if obsidian == nil {
		return nil, fmt.Errorf("needs the obsidian block")
	}
	return EndPlatform{obsidian: obsidian, air: d.blocks.Air}, nil
}

// Spike is one obsidian pillar around the central End island.
type Spike struct {
	CenterX int  `json:"centerX"`
	CenterZ int  `json:"centerZ"`
	Radius  int  `json:"radius"`
	Height  int  `json:"height"`
	Guarded bool `json:"guarded"`
}

func (s Spike) inChunk(p pos.Block) bool {
	return p.X>>4 == s.CenterX>>4 && p.Z>>4 == s.CenterZ>>4
}

// SeedSpikes derives the ten pillars of a world seed.
func SeedSpikes(seed int64) []Spike {
	key := random.NewLegacy(seed).NextLong() & 65535
	order := [10]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	r := random.NewLegacy(key)
	for i := len(order); i > 1; i-- {
		j := r.NextBoundedInt(i)
		order[i-1], order[j] = order[j], order[i-1]
	}
	spikes := make([]Spike, len(order))
	for i, idx := range order {
		angle := 2 * (-math.Pi + math.Pi/10*float64(i))
		spikes[i] = Spike{
			CenterX: int(math.Floor(42 * math.Cos(angle))),
			CenterZ: int(math.Floor(42 * math.Sin(angle))),
			Radius:  2 + idx/3,
			Height:  76 + idx*3,
			Guarded: idx == 1 || idx == 2,
		}
	}
	return spikes
}

// EndSpike raises the pillars whose center lies in the origin chunk.
type EndSpike struct {
	Spikes                 []Spike
	obsidian, air, bedrock *block.State
	bars, fire             *block.State
}

func (f EndSpike) Generate(c *Context, origin pos.Block) bool {
	spikes := f.Spikes
	if len(spikes) == 0 {
		spikes = SeedSpikes(c.World.Seed())
	}
	for _, s := range spikes {
		if s.inChunk(origin) {
			f.place(c, s)
		}
	}
	return true
}

func (f EndSpike) place(c *Context, s Spike) {
	hc := c.World.HeightContext()
	r := s.Radius
	for y := hc.MinY; y <= s.Height+10; y++ {
		for x := s.CenterX - r; x <= s.CenterX+r; x++ {
			for z := s.CenterZ - r; z <= s.CenterZ+r; z++ {
				dx, dz := x-s.CenterX, z-s.CenterZ
				p := pos.Block{X: x, Y: y, Z: z}
				if dx*dx+dz*dz <= r*r+1 && y < s.Height {
					c.set(p, f.obsidian)
				} else if y > 65 {
					c.set(p, f.air)
				}
			}
		}
	}
	if s.Guarded && f.bars != nil {
		for dx := -2; dx <= 2; dx++ {
			for dz := -2; dz <= 2; dz++ {
				for dy := 0; dy <= 3; dy++ {
					edgeX, edgeZ, top := abs(dx) == 2, abs(dz) == 2, dy == 3
					if !edgeX && !edgeZ && !top {
						continue
					}
					ns := edgeX || top
					ew := edgeZ || top
					bars := f.bars.
						With("north", boolString(ns && dz != -2)).
						With("south", boolString(ns && dz != 2)).
						With("west", boolString(ew && dx != -2)).
						With("east", boolString(ew && dx != 2))
					c.set(pos.Block{X: s.CenterX + dx, Y: s.Height + dy, Z: s.CenterZ + dz}, bars)
				}
			}
		}
	}
	top := pos.Block{X: s.CenterX, Y: s.Height, Z: s.CenterZ}
	c.set(top, f.bedrock)
	if f.fire != nil {
		c.set(top.Up(), f.fire)
	}
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func (d *decoder) endSpike(raw json.RawMessage) (Feature, error) {
	var v struct {
		Spikes []Spike `json:"spikes"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	f := EndSpike{
		Spikes:   v.Spikes,
		obsidian: d.defaultState("obsidian"),
		bedrock:  d.defaultState("bedrock"),
		air:      d.blocks.Air,
		bars:     d.defaultState("iron_bars"),
		fire:     d.defaultState("fire"),
	}
	if f.obsidian == nil || f.bedrock == nil {
		return nil, fmt.Errorf("needs obsidian and bedrock blocks")
	}
	return f, nil
}

// ReplaceBlobs swaps Target for State in a diamond shaped blob around the
// first Target block at or below the origin.
type ReplaceBlobs struct {
	Target *block.Block
	State  *block.State
	Radius provider.Int
}

func (f ReplaceBlobs) Generate(c *Context, origin pos.Block) bool {
	hc := c.World.HeightContext()
	p := origin
	p.Y = min(max(p.Y, hc.MinY+1), hc.MaxY())
	found := false
	for ; p.Y > hc.MinY+1; p = p.Down() {
		if c.state(p).Is(f.Target) {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	r := c.Random
	rx, ry, rz := f.Radius.Get(r), f.Radius.Get(r), f.Radius.Get(r)
	limit := max(rx, ry, rz)
	replaced := false
	for dy := -ry; dy <= ry; dy++ {
		for dx := -rx; dx <= rx; dx++ {
			for dz := -rz; dz <= rz; dz++ {
				if abs(dx)+abs(dy)+abs(dz) > limit {
					continue
				}
				q := p.Add(dx, dy, dz)
				if c.state(q).Is(f.Target) {
					c.set(q, f.State)
					replaced = true
				}
			}
		}
	}
	return replaced
}

func (d *decoder) replaceBlobs(raw json.RawMessage) (Feature, error) {
	var v struct {
		Target block.StateData `json:"target"`
		State  block.StateData `json:"state"`
		Radius provider.Int    `json:"radius"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	target, err := d.blocks.Resolve(v.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	state, err := d.blocks.Resolve(v.State)
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}
	return ReplaceBlobs{Target: target.Block, State: state, Radius: v.Radius}, nil
}
