package gen

import (
	"fmt"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/density"
	"github.com/go-theft-craft/worldgen/pkg/world/noise"
)

type veinType struct {
	ore, raw, filler *block.State
	minY, maxY       int
}

// OreVeins carves the large copper and iron veins that wind through the
// solid terrain. The vein_toggle entry picks the type, vein_ridged shapes
// the ribbon and vein_gap thins the ore inside it.
type OreVeins struct {
	copper, iron veinType
	random       random.Splitter
}

var (
	veinThreshold    = float64(float32(0.4))
	veinSkip         = float32(0.7)
	veinRichMin      = float64(float32(0.4))
	veinRichMax      = float64(float32(0.6))
	veinChanceMin    = float64(float32(0.1))
	veinChanceMax    = float64(float32(0.3))
	veinGapThreshold = float64(float32(-0.3))
	veinRawChance    = float32(0.02)
)

// NewOreVeins resolves the vein blocks from blocks.
func NewOreVeins(blocks *block.Registry, splitter random.Splitter) (*OreVeins, error) {
	states := make(map[string]*block.State)
	for _, name := range []string{
		"copper_ore", "raw_copper_block", "granite",
		"deepslate_iron_ore", "raw_iron_block", "tuff",
	} {
		b, ok := blocks.ByName(name)
		if !ok {
			return nil, fmt.Errorf("ore veins need the %s block", name)
		}
		states[name] = b.DefaultState
	}
	return &OreVeins{
		copper: veinType{states["copper_ore"], states["raw_copper_block"], states["granite"], 0, 50},
		iron:   veinType{states["deepslate_iron_ore"], states["raw_iron_block"], states["tuff"], -60, -8},
		random: splitter,
	}, nil
}

// State returns the vein block at the interpolation cursor of r, or nil
// outside a vein.
func (v *OreVeins) State(r *density.ChunkRouter, x, y, z int) *block.State {
	toggle := r.Sample(density.EntryVeinToggle)
	vt := &v.iron
	if toggle > 0 {
		vt = &v.copper
	}
	strength := abs64(toggle)
	above, below := vt.maxY-y, y-vt.minY
	if below < 0 || above < 0 {
		return nil
	}
	edge := noise.ClampedMap(float64(min(above, below)), 0, 20, -0.2, 0)
	if strength+edge < veinThreshold {
		return nil
	}
	rnd := v.random.SplitPos(x, y, z)
	if rnd.NextFloat() > veinSkip {
		return nil
	}
	if r.Sample(density.EntryVeinRidged) >= 0 {
		return nil
	}
	chance := noise.ClampedMap(strength, veinRichMin, veinRichMax, veinChanceMin, veinChanceMax)
	if float64(rnd.NextFloat()) < chance && r.Sample(density.EntryVeinGap) > veinGapThreshold {
		if rnd.NextFloat() < veinRawChance {
			return vt.raw
		}
		return vt.ore
	}
	return vt.filler
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
