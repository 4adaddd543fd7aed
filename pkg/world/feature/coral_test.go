package feature

import (
	"encoding/json"
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/block/blocktest"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

const seaFloor = 40

// newSeaWorld is sand below seaFloor, water up to y 100 and air above.
func newSeaWorld(t *testing.T) *flatWorld {
	w := newFlatWorld(t)
	w.layers = func(y int) string {
		switch {
		case y < seaFloor:
			return "sand"
		case y <= 100:
			return "water"
		}
		return "air"
	}
	return w
}

func waterTrees(t *testing.T) *Registry {
	configured := map[string]json.RawMessage{
		"tree":     raw(`{"type": "minecraft:coral_tree", "config": {}}`),
		"claw":     raw(`{"type": "minecraft:coral_claw", "config": {}}`),
		"mushroom": raw(`{"type": "minecraft:coral_mushroom", "config": {}}`),
		"spike": raw(`{"type": "minecraft:pointed_dripstone", "config": {"chance_of_taller_dripstone": 1,
			"chance_of_directional_spread": 1, "chance_of_spread_radius2": 0, "chance_of_spread_radius3": 0}}`),
	}
	reg, err := NewRegistry(blocktest.Registry(t), nil, configured, nil)
	require.NoError(t, err)
	return reg
}

func TestCoralKindsDecode(t *testing.T) {
	reg := waterTrees(t)
	for name, want := range map[string]any{
		"tree": CoralTree{}, "claw": CoralClaw{}, "mushroom": CoralMushroom{}, "spike": PointedDripstone{},
	} {
		cf, ok := reg.Configured(name)
		require.True(t, ok, name)
		assert.IsType(t, want, cf.Feature, name)
	}
}

func TestCoralNeedsItsBlocks(t *testing.T) {
	defs := []block.Definition{{Name: "air", Flags: []string{"air"}}, {Name: "water", Flags: []string{"liquid"}}}
	blocks, err := block.NewRegistry(defs)
	require.NoError(t, err)

	_, err = NewRegistry(blocks, nil, map[string]json.RawMessage{
		"tree": raw(`{"type": "minecraft:coral_tree", "config": {}}`),
	}, nil)
	assert.ErrorContains(t, err, "coral_blocks")

	_, err = NewRegistry(blocks, nil, map[string]json.RawMessage{
		"spike": raw(`{"type": "minecraft:pointed_dripstone", "config": {}}`),
	}, nil)
	assert.ErrorContains(t, err, "dripstone_block")
}

func TestCoralShapes(t *testing.T) {
	reg := waterTrees(t)
	origin := pos.Block{X: 8, Y: seaFloor, Z: 8}

	for _, name := range []string{"tree", "claw", "mushroom"} {
		t.Run(name, func(t *testing.T) {
			cf, _ := reg.Configured(name)
			for seed := range int64(8) {
				w := newSeaWorld(t)
				require.True(t, cf.Generate(w.context(seed), origin))

				var coral *block.Block
				for p, s := range w.changed {
					switch {
					case s.HasTag("coral_blocks"):
						if coral == nil {
							coral = s.Block
						}
						assert.Same(t, coral, s.Block, "one coral block per shape")
					case s.HasTag("wall_corals"):
						facing, err := pos.ParseDirection(s.Get("facing"))
						require.NoError(t, err)
						behind := w.BlockState(p.Offset(facing.Opposite()))
						assert.True(t, behind.HasTag("coral_blocks"), "wall fan at %v hangs off a coral block", p)
					case s.HasTag("corals"), s.Name() == "minecraft:sea_pickle":
						assert.True(t, w.BlockState(p.Down()).HasTag("coral_blocks"), "%s at %v sits on coral", s, p)
					default:
						t.Fatalf("unexpected %s at %v", s, p)
					}
				}
				if name != "mushroom" {
					assert.True(t, w.BlockState(origin).HasTag("coral_blocks"), "seed %d", seed)
				}
			}
		})
	}
}

func TestCoralClawNeedsWater(t *testing.T) {
	reg := waterTrees(t)
	claw, _ := reg.Configured("claw")
	w := newSeaWorld(t)

	assert.False(t, claw.Generate(w.context(3), pos.Block{X: 8, Y: seaFloor - 1, Z: 8}))
	assert.False(t, claw.Generate(w.context(3), pos.Block{X: 8, Y: 100, Z: 8}), "no water above")
	assert.Empty(t, w.changed)
}

func TestCoralIsDeterministic(t *testing.T) {
	reg := waterTrees(t)
	mushroom, _ := reg.Configured("mushroom")
	origin := pos.Block{X: 0, Y: seaFloor, Z: 0}

	a, b := newSeaWorld(t), newSeaWorld(t)
	mushroom.Generate(a.context(11), origin)
	mushroom.Generate(b.context(11), origin)
	assert.NotEmpty(t, a.changed)
	assert.True(t, maps.Equal(a.changed, b.changed))
}

// newCaveWorld is stone with an air gap between floor and ceiling.
func newCaveWorld(t *testing.T, floor, ceiling int) *flatWorld {
	w := newFlatWorld(t)
	w.layers = func(y int) string {
		if y < floor || y >= ceiling {
			return "stone"
		}
		return "air"
	}
	return w
}

func TestPointedDripstoneHangsFromCeiling(t *testing.T) {
	reg := waterTrees(t)
	spike, _ := reg.Configured("spike")
	w := newCaveWorld(t, 60, 70)
	origin := pos.Block{X: 4, Y: 69, Z: 4}

	require.True(t, spike.Generate(w.context(1), origin))

	assert.Equal(t, "minecraft:dripstone_block", w.BlockState(origin.Up()).Name())
	for _, h := range pos.Horizontal {
		assert.Equal(t, "minecraft:dripstone_block", w.BlockState(origin.Up().Offset(h)).Name(), h.String())
	}
	frustum, tip := w.BlockState(origin), w.BlockState(origin.Down())
	assert.Equal(t, "minecraft:pointed_dripstone", frustum.Name())
	assert.Equal(t, "down", frustum.Get("vertical_direction"))
	assert.Equal(t, "frustum", frustum.Get("thickness"))
	assert.Equal(t, "false", frustum.Get("waterlogged"))
	assert.Equal(t, "tip", tip.Get("thickness"))
}

func TestPointedDripstoneInNarrowGap(t *testing.T) {
	reg := waterTrees(t)
	spike, _ := reg.Configured("spike")

	for seed := range int64(6) {
		w := newCaveWorld(t, 60, 61)
		origin := pos.Block{X: 0, Y: 60, Z: 0}
		require.True(t, spike.Generate(w.context(seed), origin))

		s := w.BlockState(origin)
		assert.Equal(t, "tip", s.Get("thickness"), "no room to grow taller")
		dir, err := pos.ParseDirection(s.Get("vertical_direction"))
		require.NoError(t, err)
		assert.Equal(t, "minecraft:dripstone_block", w.BlockState(origin.Offset(dir.Opposite())).Name())
	}
}

func TestPointedDripstoneNeedsBase(t *testing.T) {
	reg := waterTrees(t)
	spike, _ := reg.Configured("spike")
	w := newCaveWorld(t, 60, 70)

	assert.False(t, spike.Generate(w.context(1), pos.Block{X: 0, Y: 65, Z: 0}))
	assert.Empty(t, w.changed)
}

func TestDripstoneColumn(t *testing.T) {
	assert.Equal(t, []string{"tip"}, dripstoneColumn(1))
	assert.Equal(t, []string{"frustum", "tip"}, dripstoneColumn(2))
	assert.Equal(t, []string{"base", "middle", "frustum", "tip"}, dripstoneColumn(4))
	assert.Empty(t, dripstoneColumn(0))
}
