package block

import (
	"encoding/json"
	"fmt"

	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

// Support names the survival rule a block needs from its surroundings.
type Support uint8

const (
	SupportNone Support = iota
	SupportSturdyBelow
	SupportSoil
	SupportSand
	SupportSugarCane
	SupportBamboo
	SupportNylium
	SupportWall
	SupportSnow
	SupportWaterSurface
	SupportUnderwater
)

var supportNames = map[string]Support{
	"":              SupportNone,
	"none":          SupportNone,
	"sturdy_below":  SupportSturdyBelow,
	"soil":          SupportSoil,
	"sand":          SupportSand,
	"sugar_cane":    SupportSugarCane,
	"bamboo":        SupportBamboo,
	"nylium":        SupportNylium,
	"wall":          SupportWall,
	"snow":          SupportSnow,
	"water_surface": SupportWaterSurface,
	"underwater":    SupportUnderwater,
}

func (s *Support) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, ok := supportNames[name]
	if !ok {
		return fmt.Errorf("unknown support rule %q", name)
	}
	*s = v
	return nil
}

// Reader is read access to placed blocks.
type Reader interface {
	BlockState(p pos.Block) *State
}

// Placer decides whether a block survives at a position. face points from p
// to the neighbor the block attaches to; ground rules ignore it.
type Placer interface {
	CanPlaceAt(b *Block, r Reader, p pos.Block, face pos.Direction) bool
}

// CanPlaceAt implements Placer using each block's Support rule.
func (r *Registry) CanPlaceAt(b *Block, rd Reader, p pos.Block, face pos.Direction) bool {
	below := rd.BlockState(p.Down())
	switch b.Support {
	case SupportNone:
		return true
	case SupportSturdyBelow:
		return below.HasSturdyFace()
	case SupportSoil:
		return below.HasTag("minecraft:dirt") || below.Block.Name == "minecraft:farmland"
	case SupportSand:
		if !below.HasTag("minecraft:sand") && !below.Is(b) {
			return false
		}
		for _, d := range pos.Horizontal {
			if rd.BlockState(p.Offset(d)).IsSolid() {
				return false
			}
		}
		return !rd.BlockState(p.Up()).IsLiquid()
	case SupportSugarCane:
		if below.Is(b) {
			return true
		}
		if !below.HasTag("minecraft:dirt") && !below.HasTag("minecraft:sand") {
			return false
		}
		for _, d := range pos.Horizontal {
			if rd.BlockState(p.Down().Offset(d)).IsLiquid() {
				return true
			}
		}
		return false
	case SupportBamboo:
		return below.HasTag("minecraft:bamboo_plantable_on")
	case SupportNylium:
		return below.HasTag("minecraft:nylium") || below.Block.Name == "minecraft:soul_soil" || below.HasTag("minecraft:dirt")
	case SupportWall:
		if face == pos.Down {
			return false
		}
		return rd.BlockState(p.Offset(face)).IsFullCube()
	case SupportSnow:
		if below.HasTag("minecraft:ice") {
			return false
		}
		return below.HasSturdyFace() || below.HasTag("minecraft:leaves")
	case SupportWaterSurface:
		return below.IsLiquid() && below.Block.Name == "minecraft:water" && rd.BlockState(p).IsAir()
	case SupportUnderwater:
		return below.HasSturdyFace() && below.Block.Name != "minecraft:magma_block"
	}
	return true
}
