package surface

import (
	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/density"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/noise"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// Chunk is the block buffer a surface pass rewrites.
type Chunk interface {
	Pos() pos.Chunk
	HeightContext() provider.HeightContext
	BlockState(p pos.Block) *block.State
	// SetBlockState writes s at p and reports whether the write landed.
	SetBlockState(p pos.Block, s *block.State) bool
	// Top returns the exclusive height of the column holding (x, z).
	Top(k heightmap.Kind, x, z int) int
}

// BiomeFunc returns the biome at a block position.
type BiomeFunc func(p pos.Block) *biome.Biome

// Context is the per-position state rules and conditions read. One context
// walks the columns of a single chunk.
type Context struct {
	builder *Builder
	chunk   Chunk
	router  *density.ChunkRouter
	biomeAt BiomeFunc
	height  provider.HeightContext

	X, Y, Z int
	// SurfaceDepth is the run depth of the current column.
	SurfaceDepth    int
	StoneDepthAbove int
	StoneDepthBelow int
	// WaterHeight is one above the lowest fluid block of the fluid body over
	// the position, or math.MinInt when there is none.
	WaterHeight int

	biome *biome.Biome

	secondary   float64
	hasSecond   bool
	minSurface  int
	hasMin      bool
	cellOrigin  pos.Chunk
	hasCell     bool
	cellSurface [4]int
}

// Pos returns the current position.
func (c *Context) Pos() pos.Block { return pos.Block{X: c.X, Y: c.Y, Z: c.Z} }

// Biome returns the biome at the current position.
func (c *Context) Biome() *biome.Biome {
	if c.biome == nil {
		c.biome = c.biomeAt(c.Pos())
	}
	return c.biome
}

// SurfaceSecondary returns the secondary depth noise of the column.
func (c *Context) SurfaceSecondary() float64 {
	if !c.hasSecond {
		c.secondary = c.builder.secondary.Sample(float64(c.X), 0, float64(c.Z))
		c.hasSecond = true
	}
	return c.secondary
}

// MinSurfaceLevel interpolates the preliminary surface between the corners
// of the surrounding chunk-sized cell and lowers it by eight minus the run
// depth.
func (c *Context) MinSurfaceLevel() int {
	if c.hasMin {
		return c.minSurface
	}
	cell := pos.Chunk{X: c.X >> 4, Z: c.Z >> 4}
	if !c.hasCell || cell != c.cellOrigin {
		x0, z0 := cell.X<<4, cell.Z<<4
		c.cellSurface = [4]int{
			c.router.PreliminarySurface(x0, z0),
			c.router.PreliminarySurface(x0+16, z0),
			c.router.PreliminarySurface(x0, z0+16),
			c.router.PreliminarySurface(x0+16, z0+16),
		}
		c.cellOrigin, c.hasCell = cell, true
	}
	v := noise.Lerp2(
		float64(float32(c.X&15)/16), float64(float32(c.Z&15)/16),
		float64(c.cellSurface[0]), float64(c.cellSurface[1]),
		float64(c.cellSurface[2]), float64(c.cellSurface[3]),
	)
	c.minSurface = noise.Floor(v) + c.SurfaceDepth - 8
	c.hasMin = true
	return c.minSurface
}

func (c *Context) updateXZ(x, z int) {
	c.X, c.Z = x, z
	c.SurfaceDepth = c.builder.surfaceDepth(x, z)
	c.hasSecond = false
	c.hasMin = false
}

func (c *Context) updateY(stoneAbove, stoneBelow, waterHeight, y int) {
	c.Y = y
	c.StoneDepthAbove = stoneAbove
	c.StoneDepthBelow = stoneBelow
	c.WaterHeight = waterHeight
	c.biome = nil
}
