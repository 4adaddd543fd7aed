package gen

import (
	"fmt"

	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// FlatLayer is Height blocks of State.
type FlatLayer struct {
	State  *block.State
	Height int
}

// FlatGenerator generates a superflat world: the same layers stacked from
// the bottom of every column and one biome everywhere.
type FlatGenerator struct {
	blocks *block.Registry
	biomes *biome.Registry
	height provider.HeightContext
	biome  *biome.Biome
	column []*block.State
}

var _ Generator = (*FlatGenerator)(nil)

// NewFlatGenerator stacks layers bottom up from hc.MinY.
func NewFlatGenerator(blocks *block.Registry, biomes *biome.Registry, hc provider.HeightContext, b *biome.Biome, layers ...FlatLayer) (*FlatGenerator, error) {
	if hc.Height <= 0 || hc.Height%16 != 0 || hc.MinY%16 != 0 {
		return nil, fmt.Errorf("flat generator: height range %d+%d is not section aligned", hc.MinY, hc.Height)
	}
	g := &FlatGenerator{blocks: blocks, biomes: biomes, height: hc, biome: b}
	for _, l := range layers {
		for range l.Height {
			g.column = append(g.column, l.State)
		}
	}
	if len(g.column) > hc.Height {
		return nil, fmt.Errorf("flat generator: %d layer blocks exceed height %d", len(g.column), hc.Height)
	}
	return g, nil
}

func (g *FlatGenerator) HeightContext() provider.HeightContext { return g.height }

func (g *FlatGenerator) Blocks() *block.Registry { return g.blocks }

func (g *FlatGenerator) Generate(cp pos.Chunk, _ Neighbours) *ChunkData {
	c := &ChunkData{
		Pos:      cp,
		MinY:     g.height.MinY,
		Sections: make([]*Section, g.height.Height/16),
		Heights:  heightmap.NewSet(g.height.MinY),
		blocks:   g.blocks,
		biomes:   g.biomes,
	}
	for i := range c.Sections {
		s := &Section{}
		for j := range s.Biomes {
			s.Biomes[j] = uint16(g.biome.ID)
		}
		c.Sections[i] = s
	}
	for x := range 16 {
		for z := range 16 {
			for i, st := range g.column {
				if st.IsAir() {
					continue
				}
				y := g.height.MinY + i
				s := c.Sections[i>>4]
				s.Blocks[blockIndex(x, y, z)] = st.ID
				s.NonAir++
				c.Heights.Update(x, y, z, st, func(y int) *block.State {
					return c.BlockState(pos.Block{X: x, Y: y, Z: z})
				})
			}
		}
	}
	return c
}

// HeightAt returns the y of the top layer block.
func (g *FlatGenerator) HeightAt(_, _ int) int {
	return g.height.MinY + len(g.column) - 1
}
