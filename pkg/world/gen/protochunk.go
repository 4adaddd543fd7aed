package gen

import (
	"fmt"

	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/density"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// Stage is the last pass a ProtoChunk completed.
type Stage uint8

const (
	StageEmpty Stage = iota
	StageNoise
	StageBiomes
	StageSurface
	StageFeatures
)

var stageNames = [...]string{"empty", "noise", "biomes", "surface", "features"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", s)
}

// ProtoChunk is a chunk under generation. It is owned by one goroutine from
// creation until Data hands the result out.
type ProtoChunk struct {
	gen    *NoiseGenerator
	pos    pos.Chunk
	height provider.HeightContext
	stage  Stage

	sections []*Section
	heights  *heightmap.Set
	router   *density.ChunkRouter

	// outside memoizes biome cells of neighbouring chunks sampled from
	// the biome source for edge lookups.
	outside map[[3]int]*biome.Biome
}

func newProtoChunk(g *NoiseGenerator, cp pos.Chunk) *ProtoChunk {
	hc := g.dim.Settings.HeightContext()
	n := g.dim.Settings.Noise
	c := &ProtoChunk{
		gen:      g,
		pos:      cp,
		height:   hc,
		sections: make([]*Section, hc.Height/16),
		heights:  heightmap.NewSet(hc.MinY),
		outside:  make(map[[3]int]*biome.Biome),
	}
	for i := range c.sections {
		c.sections[i] = &Section{}
	}
	c.router = density.NewChunkRouter(g.proto, density.ChunkOptions{
		StartX:      cp.StartX(),
		StartZ:      cp.StartZ(),
		CellWidth:   n.CellWidth(),
		CellHeight:  n.CellHeight(),
		CellCountXZ: 16 / n.CellWidth(),
		CellCountY:  n.Height / n.CellHeight(),
		MinY:        n.MinY,
	})
	return c
}

// Pos returns the chunk coordinates.
func (c *ProtoChunk) Pos() pos.Chunk { return c.pos }

// HeightContext returns the vertical range of the chunk.
func (c *ProtoChunk) HeightContext() provider.HeightContext { return c.height }

// Stage returns the last completed pass.
func (c *ProtoChunk) Stage() Stage { return c.stage }

// Seed returns the world seed.
func (c *ProtoChunk) Seed() int64 { return c.gen.seed }

// Router returns the chunk's density router.
func (c *ProtoChunk) Router() *density.ChunkRouter { return c.router }

func (c *ProtoChunk) advance(from, to Stage) {
	if c.stage != from {
		panic(fmt.Sprintf("gen: chunk %v: %s pass needs stage %s, have %s", c.pos, to, from, c.stage))
	}
	c.stage = to
}

func (c *ProtoChunk) checkColumn(p pos.Block) {
	if !c.pos.Contains(p.X, p.Z) {
		panic(fmt.Sprintf("gen: block %v outside chunk %v", p, c.pos))
	}
}

func (c *ProtoChunk) sectionAt(y int) *Section {
	if y < c.height.MinY || y > c.height.MaxY() {
		return nil
	}
	return c.sections[(y-c.height.MinY)>>4]
}

// BlockState returns the state at p. p must lie in the chunk's column;
// heights outside the chunk read as air.
func (c *ProtoChunk) BlockState(p pos.Block) *block.State {
	c.checkColumn(p)
	s := c.sectionAt(p.Y)
	if s == nil {
		return c.gen.dim.Blocks.Air
	}
	return c.gen.dim.Blocks.State(s.Blocks[blockIndex(p.X, p.Y, p.Z)])
}

// SetBlockState writes s at p and updates every heightmap. Writes outside
// the height range are ignored and report false.
func (c *ProtoChunk) SetBlockState(p pos.Block, s *block.State) bool {
	c.checkColumn(p)
	sec := c.sectionAt(p.Y)
	if sec == nil {
		return false
	}
	i := blockIndex(p.X, p.Y, p.Z)
	old := sec.Blocks[i]
	if old == s.ID {
		return true
	}
	sec.Blocks[i] = s.ID
	switch wasAir := c.gen.dim.Blocks.State(old).IsAir(); {
	case wasAir && !s.IsAir():
		sec.NonAir++
	case !wasAir && s.IsAir():
		sec.NonAir--
	}
	c.heights.Update(p.X, p.Y, p.Z, s, func(y int) *block.State {
		return c.BlockState(pos.Block{X: p.X, Y: y, Z: p.Z})
	})
	return true
}

// Top returns the exclusive height of the column holding (x, z).
func (c *ProtoChunk) Top(k heightmap.Kind, x, z int) int { return c.heights.Top(k, x, z) }

// Heightmaps returns the chunk's heightmaps.
func (c *ProtoChunk) Heightmaps() *heightmap.Set { return c.heights }

// NoiseBiome returns the biome of a 4×4×4 cell. Cells of neighbouring
// chunks are sampled from the biome source, so lookups near the border
// match what the neighbour generates.
func (c *ProtoChunk) NoiseBiome(bx, by, bz int) *biome.Biome {
	minB := pos.BiomeFromBlock(c.height.MinY)
	by = min(max(by, minB), minB+c.height.Height/4-1)
	if pos.BiomeToBlock(bx)>>4 != c.pos.X || pos.BiomeToBlock(bz)>>4 != c.pos.Z || c.stage < StageBiomes {
		key := [3]int{bx, by, bz}
		if b, ok := c.outside[key]; ok {
			return b
		}
		b := c.gen.dim.Source.Biome(bx, by, bz, c.router)
		c.outside[key] = b
		return b
	}
	s := c.sectionAt(pos.BiomeToBlock(by))
	return c.gen.dim.Biomes.ByID(int(s.Biomes[biomeIndex(bx, by, bz)]))
}

// Biome returns the zoomed biome at a block position.
func (c *ProtoChunk) Biome(p pos.Block) *biome.Biome {
	return biome.Zoom(c.gen.zoomSeed, p, c.NoiseBiome)
}

// Data hands the finished chunk out. The ProtoChunk must not be used
// afterwards.
func (c *ProtoChunk) Data() *ChunkData {
	return &ChunkData{
		Pos:      c.pos,
		MinY:     c.height.MinY,
		Sections: c.sections,
		Heights:  c.heights,
		blocks:   c.gen.dim.Blocks,
		biomes:   c.gen.dim.Biomes,
	}
}
