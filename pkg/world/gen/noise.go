package gen

import (
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

// PopulateNoise fills the chunk from the final density: the aquifer decides
// open space, ore veins then the default block fill solid space. Cells run
// top down so each column's heightmaps settle on the first write.
func (c *ProtoChunk) PopulateNoise() {
	c.advance(StageEmpty, StageNoise)
	g := c.gen
	r := c.router
	o := r.Options()
	w, h := o.CellWidth, o.CellHeight
	cellMinY := pos.FloorDiv(o.MinY, h)

	var aquifer Aquifer
	if g.dim.Settings.AquifersEnabled {
		aquifer = newNoiseAquifer(r, c.pos, o.MinY, o.CellCountY*h, g.proto.Random.Aquifer, g.fluids, g.dim.Blocks.Air, g.dim.Blocks.Lava)
	} else {
		aquifer = disabledAquifer{picker: g.fluids, air: g.dim.Blocks.Air}
	}

	r.BeginInterpolation()
	for cx := 0; cx < o.CellCountXZ; cx++ {
		r.AdvanceCellX(cx)
		for cz := 0; cz < o.CellCountXZ; cz++ {
			for cy := o.CellCountY - 1; cy >= 0; cy-- {
				r.SelectCellYZ(cy, cz)
				for ly := h - 1; ly >= 0; ly-- {
					y := (cellMinY+cy)*h + ly
					r.UpdateY(y, float64(ly)/float64(h))
					for lx := 0; lx < w; lx++ {
						x := o.StartX + cx*w + lx
						r.UpdateX(x, float64(lx)/float64(w))
						for lz := 0; lz < w; lz++ {
							z := o.StartZ + cz*w + lz
							r.UpdateZ(z, float64(lz)/float64(w))
							s := c.sample(aquifer, x, y, z)
							if !s.IsAir() {
								c.SetBlockState(pos.Block{X: x, Y: y, Z: z}, s)
							}
						}
					}
				}
			}
		}
		r.SwapSlices()
	}
	r.EndInterpolation()
}

func (c *ProtoChunk) sample(aquifer Aquifer, x, y, z int) *block.State {
	g := c.gen
	if s := aquifer.Substance(c.router, x, y, z, c.router.FinalDensity()); s != nil {
		return s
	}
	if g.veins != nil {
		if s := g.veins.State(c.router, x, y, z); s != nil {
			return s
		}
	}
	return g.dim.DefaultBlock
}
