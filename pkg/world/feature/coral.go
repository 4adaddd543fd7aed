package feature

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

// coralBlocks holds the block sets every coral shape draws from.
type coralBlocks struct {
	Blocks   []*block.State
	Corals   []*block.State
	WallFans []*block.State
	Pickle   *block.State
}

func (d *decoder) coralBlocks() (coralBlocks, error) {
	var cb coralBlocks
	for _, t := range []struct {
		tag string
		out *[]*block.State
	}{
		{"coral_blocks", &cb.Blocks},
		{"corals", &cb.Corals},
		{"wall_corals", &cb.WallFans},
	} {
		for _, b := range d.blocks.Tagged(t.tag) {
			*t.out = append(*t.out, b.DefaultState)
		}
		if len(*t.out) == 0 {
			return cb, fmt.Errorf("no blocks tagged %s", t.tag)
		}
	}
	if cb.Pickle = d.defaultState("sea_pickle"); cb.Pickle == nil {
		return cb, fmt.Errorf("needs the sea_pickle block")
	}
	return cb, nil
}

func (d *decoder) coral(typ string) (Feature, error) {
	cb, err := d.coralBlocks()
	if err != nil {
		return nil, err
	}
	switch typ {
	case "minecraft:coral_tree":
		return CoralTree{cb}, nil
	case "minecraft:coral_claw":
		return CoralClaw{cb}, nil
	default:
		return CoralMushroom{cb}, nil
	}
}

func pick[T any](r random.Random, from []T) T { return from[r.NextBoundedInt(len(from))] }

// piece places one coral block at p when p is water or coral with water
// above. It may crown the block with a coral or pickles and sets wall fans
// on open water sides.
func (cb coralBlocks) piece(c *Context, p pos.Block, s *block.State) bool {
	if cur := c.state(p); !c.isWater(p) && !cur.HasTag("corals") || !c.isWater(p.Up()) {
		return false
	}
	c.set(p, s)
	if c.Random.NextFloat() < 0.25 {
		c.set(p.Up(), pick(c.Random, cb.Corals))
	} else if c.Random.NextFloat() < 0.05 {
		c.set(p.Up(), cb.Pickle.With("pickles", strconv.Itoa(c.Random.NextBoundedInt(4)+1)))
	}
	for _, dir := range pos.Horizontal {
		if c.Random.NextFloat() >= 0.2 {
			continue
		}
		side := p.Offset(dir)
		if c.isWater(side) {
			c.set(side, pick(c.Random, cb.WallFans).With("facing", dir.String()))
		}
	}
	return true
}

// shuffled returns a copy of dirs permuted by the game's list shuffle.
func shuffled(r random.Random, dirs ...pos.Direction) []pos.Direction {
	out := slices.Clone(dirs)
	for i := len(out); i > 1; i-- {
		j := r.NextBoundedInt(i)
		out[i-1], out[j] = out[j], out[i-1]
	}
	return out
}

// CoralTree grows a short trunk with two to four branches climbing away
// from its top.
type CoralTree struct{ coralBlocks }

func (f CoralTree) Generate(c *Context, origin pos.Block) bool {
	s := pick(c.Random, f.Blocks)
	p := origin
	for range c.Random.NextBoundedInt(3) + 1 {
		if !f.piece(c, p, s) {
			return true
		}
		p = p.Up()
	}
	top := p
	branches := c.Random.NextBoundedInt(3) + 2
	for _, dir := range shuffled(c.Random, pos.Horizontal[:]...)[:branches] {
		p = top.Offset(dir)
		length := c.Random.NextBoundedInt(5) + 2
		run := 0
		for i := 0; i < length && f.piece(c, p, s); i++ {
			run++
			p = p.Up()
			if i == 0 || run >= 2 && c.Random.NextFloat() < 0.25 {
				p = p.Offset(dir)
				run = 0
			}
		}
	}
	return true
}

// CoralClaw grows up to three arms that curl back over the origin.
type CoralClaw struct{ coralBlocks }

func (f CoralClaw) Generate(c *Context, origin pos.Block) bool {
	s := pick(c.Random, f.Blocks)
	if !f.piece(c, origin, s) {
		return false
	}
	facing := pick(c.Random, pos.Horizontal[:])
	arms := c.Random.NextBoundedInt(2) + 2
	for _, dir := range shuffled(c.Random, facing, facing.Clockwise(), facing.CounterClockwise())[:arms] {
		p := origin
		reach := c.Random.NextBoundedInt(2) + 1
		p = p.Offset(dir)
		var step pos.Direction
		var length int
		if dir == facing {
			step = facing
			length = c.Random.NextBoundedInt(3) + 2
		} else {
			p = p.Up()
			step = pick(c.Random, []pos.Direction{dir, pos.Up})
			length = c.Random.NextBoundedInt(3) + 3
		}
		for i := 0; i < reach && f.piece(c, p, s); i++ {
			p = p.Offset(step)
		}
		p = p.Offset(step.Opposite()).Up()
		for range length {
			p = p.Offset(facing)
			if !f.piece(c, p, s) {
				break
			}
			if c.Random.NextFloat() < 0.25 {
				p = p.Up()
			}
		}
	}
	return true
}

// CoralMushroom grows a hollow box of coral with its bottom partly buried.
type CoralMushroom struct{ coralBlocks }

func (f CoralMushroom) Generate(c *Context, origin pos.Block) bool {
	s := pick(c.Random, f.Blocks)
	height := c.Random.NextBoundedInt(3) + 3
	sizeX := c.Random.NextBoundedInt(3) + 3
	sizeZ := c.Random.NextBoundedInt(3) + 3
	sink := c.Random.NextBoundedInt(3) + 1
	edge := func(v, max int) bool { return v == 0 || v == max }
	for x := 0; x <= sizeX; x++ {
		for y := 0; y <= height; y++ {
			for z := 0; z <= sizeZ; z++ {
				ex, ey, ez := edge(x, sizeX), edge(y, height), edge(z, sizeZ)
				// Shell only, without the twelve box edges.
				if ex && ey || ez && ey || ex && ez || !ex && !ey && !ez {
					continue
				}
				if c.Random.NextFloat() < 0.1 {
					continue
				}
				f.piece(c, origin.Add(x, y-sink, z), s)
			}
		}
	}
	return true
}
