// Package feature places decorations such as trees, ore blobs and plant
// patches into chunks whose terrain and surface are already built.
//
// Configured features hold the placement algorithm and its settings. Placed
// features wrap a configured feature with a chain of placement modifiers
// that turn the chunk origin into zero or more candidate positions. Both are
// decoded once into a Registry and shared read-only by every chunk.
package feature

import (
	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// World is the block access features generate against. Reads outside the
// generating chunk may see neighbours or air; writes outside it are dropped.
type World interface {
	block.Reader
	// SetBlockState writes s at p and reports whether the write landed.
	SetBlockState(p pos.Block, s *block.State) bool
	// Top returns the exclusive height of the column holding (x, z).
	Top(k heightmap.Kind, x, z int) int
	Biome(p pos.Block) *biome.Biome
	HeightContext() provider.HeightContext
	Seed() int64
}

// Context carries one feature placement. Nested features share it.
type Context struct {
	World  World
	Blocks *block.Registry
	Random random.Random
	// Placed names the top level placed feature of the current step. Biome
	// filters test it against the biome at each candidate position.
	Placed string
}

func (c *Context) state(p pos.Block) *block.State { return c.World.BlockState(p) }

func (c *Context) isAir(p pos.Block) bool { return c.World.BlockState(p).IsAir() }

func (c *Context) set(p pos.Block, s *block.State) bool { return c.World.SetBlockState(p, s) }

func (c *Context) outOfHeight(y int) bool {
	hc := c.World.HeightContext()
	return y < hc.MinY || y > hc.MaxY()
}

func (c *Context) canSurvive(s *block.State, p pos.Block) bool {
	return c.Blocks.CanPlaceAt(s.Block, c.World, p, pos.Up)
}

// Feature generates at a position and reports whether any block changed.
type Feature interface {
	Generate(c *Context, origin pos.Block) bool
}

// ConfiguredFeature is a named feature algorithm with its settings.
type ConfiguredFeature struct {
	Name string
	Type string
	Feature
}

// PlacedFeature runs a configured feature at every position its placement
// chain produces.
type PlacedFeature struct {
	Name      string
	Feature   *ConfiguredFeature
	Placement []Modifier
}

// Generate walks the placement chain depth first: each position a modifier
// yields passes through the remaining modifiers and is generated before the
// modifier produces its next position. It reports whether any placement
// succeeded.
func (f *PlacedFeature) Generate(c *Context, origin pos.Block) bool {
	placed := false
	var walk func(i int, p pos.Block)
	walk = func(i int, p pos.Block) {
		if i == len(f.Placement) {
			if f.Feature.Generate(c, p) {
				placed = true
			}
			return
		}
		for q := range f.Placement[i].Positions(c, p) {
			walk(i+1, q)
		}
	}
	walk(0, origin)
	return placed
}

func (f *PlacedFeature) String() string { return f.Name }

// Noop stands in for feature kinds that are not generated. It never changes
// anything.
type Noop struct{}

func (Noop) Generate(*Context, pos.Block) bool { return false }
