package gen

// BuildSurface replaces the raw default block near the terrain surface
// with the blocks the surface rule picks for each column's biome.
func (c *ProtoChunk) BuildSurface() {
	c.advance(StageBiomes, StageSurface)
	c.gen.surface.Build(c, c.router, c.Biome)
}
