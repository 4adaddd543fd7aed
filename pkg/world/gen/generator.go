// Package gen turns a seeded dimension into chunks. A ProtoChunk runs the
// passes in a fixed order: noise, biomes, surface and features. The finished
// blocks, biomes and heightmaps are handed out as an immutable ChunkData.
package gen

import (
	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// Section holds block and biome data for a 16×16×16 vertical slice of a
// chunk. Block index = y*256 + z*16 + x, biome index = y*16 + z*4 + x in
// 4×4×4 cells. Values are state and biome ids of the dimension's registries.
type Section struct {
	Blocks [4096]uint16
	Biomes [64]uint16
	// NonAir counts the blocks that are not air.
	NonAir int
}

// Empty reports whether every block of the section is air.
func (s *Section) Empty() bool { return s.NonAir == 0 }

// EmptySections counts the sections holding nothing but air.
func (c *ChunkData) EmptySections() int {
	n := 0
	for _, s := range c.Sections {
		if s.Empty() {
			n++
		}
	}
	return n
}

func blockIndex(x, y, z int) int { return (y&15)<<8 | (z&15)<<4 | x&15 }

func biomeIndex(bx, by, bz int) int { return (by&3)<<4 | (bz&3)<<2 | bx&3 }

// ChunkData is a fully generated chunk column. It is never mutated after
// generation and may be read from any goroutine.
type ChunkData struct {
	Pos      pos.Chunk
	MinY     int
	Sections []*Section // bottom up, one per 16 blocks of height
	Heights  *heightmap.Set

	blocks *block.Registry
	biomes *biome.Registry
}

// HeightContext returns the vertical range of the chunk.
func (c *ChunkData) HeightContext() provider.HeightContext {
	return provider.HeightContext{MinY: c.MinY, Height: len(c.Sections) * 16}
}

func (c *ChunkData) section(y int) *Section {
	i := (y - c.MinY) >> 4
	if y < c.MinY || i >= len(c.Sections) {
		return nil
	}
	return c.Sections[i]
}

// GetBlock returns the state id at chunk local x, z and absolute y. Heights
// outside the chunk read as air.
func (c *ChunkData) GetBlock(x, y, z int) uint16 {
	s := c.section(y)
	if s == nil {
		return 0
	}
	return s.Blocks[blockIndex(x, y, z)]
}

// BlockState returns the state at p, which must lie in this column.
func (c *ChunkData) BlockState(p pos.Block) *block.State {
	return c.blocks.State(c.GetBlock(p.X, p.Y, p.Z))
}

// NoiseBiome returns the biome of the 4×4×4 cell at biome coordinates. The
// height is clamped to the chunk and x, z wrap inside it.
func (c *ChunkData) NoiseBiome(bx, by, bz int) *biome.Biome {
	minB := pos.BiomeFromBlock(c.MinY)
	by = min(max(by, minB), minB+len(c.Sections)*4-1)
	s := c.section(pos.BiomeToBlock(by))
	return c.biomes.ByID(int(s.Biomes[biomeIndex(bx, by, bz)]))
}

// Top returns the exclusive height of the column holding (x, z).
func (c *ChunkData) Top(k heightmap.Kind, x, z int) int { return c.Heights.Top(k, x, z) }

// Registry returns the block registry the state ids refer to.
func (c *ChunkData) Registry() *block.Registry { return c.blocks }

// Biomes returns the biome registry the biome ids refer to.
func (c *ChunkData) Biomes() *biome.Registry { return c.biomes }

// Neighbours looks up chunks that finished generating. Chunk returns nil
// for a chunk that is not done yet; it never waits.
type Neighbours interface {
	Chunk(cp pos.Chunk) *ChunkData
}

// Generator produces chunk data deterministically from a seed. Generate may
// be called concurrently for different chunks.
type Generator interface {
	Generate(cp pos.Chunk, nb Neighbours) *ChunkData
	HeightContext() provider.HeightContext
	// Blocks returns the registry the generated state ids refer to.
	Blocks() *block.Registry
	// HeightAt estimates the terrain height of a column.
	HeightAt(blockX, blockZ int) int
}
