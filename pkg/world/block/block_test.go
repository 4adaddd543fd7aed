package block

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

const testTable = `[
	{"name": "air", "flags": ["air"]},
	{"name": "stone", "flags": ["solid", "full_cube"], "tags": ["base_stone_overworld"]},
	{"name": "water", "flags": ["liquid"]},
	{"name": "lava", "flags": ["liquid"]},
	{"name": "grass_block", "properties": {"snowy": ["false", "true"]}, "flags": ["solid", "full_cube"], "tags": ["dirt"]},
	{"name": "sand", "flags": ["solid", "full_cube"], "tags": ["sand"]},
	{"name": "short_grass", "flags": ["replaceable"], "support": "soil"},
	{"name": "cactus", "properties": {"age": ["0","1","2","3"]}, "flags": ["solid"], "support": "sand"},
	{"name": "vine", "properties": {"east": ["false","true"], "north": ["false","true"], "up": ["false","true"]},
	 "property_order": ["up", "north", "east"], "flags": ["replaceable"], "support": "wall"}
]`

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	var defs []Definition
	require.NoError(t, json.Unmarshal([]byte(testTable), &defs))
	r, err := NewRegistry(defs)
	require.NoError(t, err)
	return r
}

type mapReader struct {
	r      *Registry
	blocks map[pos.Block]*State
}

func (m mapReader) BlockState(p pos.Block) *State {
	if s, ok := m.blocks[p]; ok {
		return s
	}
	return m.r.Air
}

func TestRegistryStates(t *testing.T) {
	r := testRegistry(t)

	assert.Equal(t, uint16(0), r.Air.ID)
	assert.True(t, r.Air.IsAir())
	assert.True(t, r.Water.IsLiquid())
	assert.Equal(t, 1+1+1+1+2+1+1+4+8, r.StateCount())

	grass := r.MustDefault("grass_block")
	assert.Equal(t, "false", grass.Get("snowy"))
	snowy := grass.With("snowy", "true")
	assert.NotSame(t, grass, snowy)
	assert.Equal(t, "minecraft:grass_block[snowy=true]", snowy.String())
	assert.Same(t, grass, snowy.With("snowy", "false"))
	assert.Same(t, snowy, snowy.With("color", "red"))
	assert.Same(t, r.State(snowy.ID), snowy)
	assert.True(t, grass.HasTag("#minecraft:dirt"))
	assert.Len(t, r.Tagged("dirt"), 1)
}

func TestParseState(t *testing.T) {
	r := testRegistry(t)

	s, err := r.ParseState("minecraft:vine", map[string]string{"north": "true", "up": "true"})
	require.NoError(t, err)
	assert.Equal(t, "minecraft:vine[up=true,north=true,east=false]", s.String())
	assert.Equal(t, map[string]string{"up": "true", "north": "true", "east": "false"}, s.Properties())

	_, err = r.ParseState("vine", map[string]string{"west": "true"})
	assert.Error(t, err)
	_, err = r.ParseState("vine", map[string]string{"up": "maybe"})
	assert.Error(t, err)
	_, err = r.ParseState("obsidian", nil)
	assert.Error(t, err)
}

func TestNewRegistryErrors(t *testing.T) {
	_, err := NewRegistry([]Definition{{Name: "stone"}})
	assert.Error(t, err, "missing air")

	_, err = NewRegistry([]Definition{{Name: "air"}, {Name: "air"}})
	assert.Error(t, err, "duplicate")

	_, err = NewRegistry([]Definition{{Name: "air", Flags: []string{"glowing"}}})
	assert.Error(t, err, "bad flag")

	var s Support
	assert.Error(t, json.Unmarshal([]byte(`"floating"`), &s))
}

func TestCanPlaceAt(t *testing.T) {
	r := testRegistry(t)
	grassBlock := r.MustDefault("grass_block")
	sand := r.MustDefault("sand")
	stone := r.MustDefault("stone")
	short, _ := r.ByName("short_grass")
	cactus, _ := r.ByName("cactus")
	vine, _ := r.ByName("vine")

	p := pos.Block{X: 0, Y: 64, Z: 0}
	world := mapReader{r: r, blocks: map[pos.Block]*State{p.Down(): grassBlock}}
	assert.True(t, r.CanPlaceAt(short, world, p, pos.Up))
	assert.False(t, r.CanPlaceAt(cactus, world, p, pos.Up))

	world.blocks[p.Down()] = sand
	assert.True(t, r.CanPlaceAt(cactus, world, p, pos.Up))
	world.blocks[p.Offset(pos.East)] = stone
	assert.False(t, r.CanPlaceAt(cactus, world, p, pos.Up))

	assert.True(t, r.CanPlaceAt(vine, world, p, pos.East))
	assert.False(t, r.CanPlaceAt(vine, world, p, pos.West))
	assert.False(t, r.CanPlaceAt(vine, world, p, pos.Down))
}
