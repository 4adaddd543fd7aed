package gen

import "github.com/go-theft-craft/worldgen/pkg/world/pos"

// PopulateBiomes samples the biome source once per 4×4×4 cell of every
// section.
func (c *ProtoChunk) PopulateBiomes() {
	c.advance(StageNoise, StageBiomes)
	src := c.gen.dim.Source
	bx0 := pos.BiomeFromBlock(c.pos.StartX())
	bz0 := pos.BiomeFromBlock(c.pos.StartZ())
	for i, s := range c.sections {
		by0 := pos.BiomeFromBlock(c.height.MinY + i*16)
		for by := range 4 {
			for bz := range 4 {
				for bx := range 4 {
					b := src.Biome(bx0+bx, by0+by, bz0+bz, c.router)
					s.Biomes[biomeIndex(bx, by, bz)] = uint16(b.ID)
				}
			}
		}
	}
}
