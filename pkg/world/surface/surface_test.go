package surface

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/block/blocktest"
	"github.com/go-theft-craft/worldgen/pkg/world/density"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/noise"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

type testChunk struct {
	pos    pos.Chunk
	height provider.HeightContext
	air    *block.State
	blocks map[pos.Block]*block.State
	hm     *heightmap.Set
}

func newTestChunk(reg *block.Registry) *testChunk {
	hc := provider.HeightContext{MinY: -16, Height: 64}
	return &testChunk{
		height: hc,
		air:    reg.Air,
		blocks: make(map[pos.Block]*block.State),
		hm:     heightmap.NewSet(hc.MinY),
	}
}

func (c *testChunk) Pos() pos.Chunk                        { return c.pos }
func (c *testChunk) HeightContext() provider.HeightContext { return c.height }
func (c *testChunk) Top(k heightmap.Kind, x, z int) int    { return c.hm.Top(k, x, z) }

func (c *testChunk) BlockState(p pos.Block) *block.State {
	if s, ok := c.blocks[p]; ok {
		return s
	}
	return c.air
}

func (c *testChunk) SetBlockState(p pos.Block, s *block.State) bool {
	c.blocks[p] = s
	c.hm.Update(p.X, p.Y, p.Z, s, func(y int) *block.State {
		return c.BlockState(pos.Block{X: p.X, Y: y, Z: p.Z})
	})
	return true
}

func (c *testChunk) fill(x, z, from, to int, s *block.State) {
	for y := from; y <= to; y++ {
		c.SetBlockState(pos.Block{X: x, Y: y, Z: z}, s)
	}
}

func testEnv(t *testing.T, seed int64) Env {
	t.Helper()
	biomes, err := biome.NewRegistry(json.RawMessage(`{
		"minecraft:plains": {"temperature": 0.8, "downfall": 0.4, "has_precipitation": true},
		"minecraft:snowy_plains": {"temperature": 0, "has_precipitation": true}
	}`))
	require.NoError(t, err)
	cfg := density.NewGlobalRandomConfig(seed, false)
	params := make(map[string]noise.Parameters)
	for _, key := range []string{"surface", "surface_secondary", "clay_bands_offset", "badlands_pillar",
		"badlands_pillar_roof", "badlands_surface", "iceberg_pillar", "iceberg_pillar_roof", "iceberg_surface"} {
		params["minecraft:"+key] = noise.Parameters{FirstOctave: -6, Amplitudes: []float64{1, 1, 1}}
	}
	return Env{
		Blocks: blocktest.Registry(t),
		Biomes: biomes,
		Noises: density.NewNoises(cfg, params),
		Random: cfg,
	}
}

func TestSequenceFirstMatchWins(t *testing.T) {
	reg := blocktest.Registry(t)
	dirt := BlockRule{State: reg.MustDefault("dirt")}
	sand := BlockRule{State: reg.MustDefault("sand")}
	never := ConditionRule{If: Hole{}, Then: BlockRule{State: reg.MustDefault("gravel")}}
	ctx := &Context{SurfaceDepth: 3}

	assert.Same(t, dirt.State, SequenceRule{never, dirt}.Apply(ctx))
	assert.Same(t, sand.State, SequenceRule{sand, dirt}.Apply(ctx))
	assert.Same(t, dirt.State, SequenceRule{dirt, sand}.Apply(ctx))
	assert.Nil(t, SequenceRule{never}.Apply(ctx))
	assert.Nil(t, SequenceRule{}.Apply(ctx))

	ctx.SurfaceDepth = 0
	assert.Same(t, reg.MustDefault("gravel"), SequenceRule{never, dirt}.Apply(ctx))
}

func TestConditions(t *testing.T) {
	hc := provider.HeightContext{MinY: -64, Height: 384}
	ctx := func(mut func(c *Context)) *Context {
		c := &Context{height: hc, Y: 63, SurfaceDepth: 2, WaterHeight: math.MinInt}
		mut(c)
		return c
	}
	tests := []struct {
		name string
		cond Condition
		ctx  *Context
		want bool
	}{
		{"stone depth top", StoneDepth{}, ctx(func(c *Context) { c.StoneDepthAbove = 1 }), true},
		{"stone depth second", StoneDepth{}, ctx(func(c *Context) { c.StoneDepthAbove = 2 }), false},
		{"stone depth offset", StoneDepth{Offset: 2}, ctx(func(c *Context) { c.StoneDepthAbove = 3 }), true},
		{"stone depth surface depth", StoneDepth{AddSurfaceDepth: true}, ctx(func(c *Context) { c.StoneDepthAbove = 3 }), true},
		{"stone depth ceiling", StoneDepth{Ceiling: true}, ctx(func(c *Context) { c.StoneDepthAbove, c.StoneDepthBelow = 1, 4 }), false},
		{"water none above", Water{}, ctx(func(*Context) {}), true},
		{"water at level", Water{Offset: -1}, ctx(func(c *Context) { c.WaterHeight = 64 }), true},
		{"water below", Water{Offset: -1}, ctx(func(c *Context) { c.WaterHeight, c.Y = 64, 62 }), false},
		{"water stone depth", Water{Offset: -1, AddStoneDepth: true}, ctx(func(c *Context) { c.WaterHeight, c.Y, c.StoneDepthAbove = 64, 62, 1 }), true},
		{"y above", YAbove{Anchor: provider.Absolute(61), SurfaceDepthMultiplier: 1}, ctx(func(*Context) {}), true},
		{"y below", YAbove{Anchor: provider.Absolute(62), SurfaceDepthMultiplier: 1}, ctx(func(*Context) {}), false},
		{"y above stone depth", YAbove{Anchor: provider.Absolute(62), SurfaceDepthMultiplier: 1, AddStoneDepth: true}, ctx(func(c *Context) { c.StoneDepthAbove = 1 }), true},
		{"hole", Hole{}, ctx(func(c *Context) { c.SurfaceDepth = 0 }), true},
		{"not hole", Not{Invert: Hole{}}, ctx(func(*Context) {}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Test(tt.ctx))
		})
	}
}

func TestVerticalGradient(t *testing.T) {
	cfg := density.NewGlobalRandomConfig(7, false)
	g := VerticalGradient{
		Random:          cfg.Splitter("minecraft:bedrock_floor"),
		TrueAtAndBelow:  provider.AboveBottom(0),
		FalseAtAndAbove: provider.AboveBottom(5),
	}
	c := &Context{height: provider.HeightContext{MinY: -64, Height: 384}}

	c.Y = -64
	assert.True(t, g.Test(c))
	c.Y = -59
	assert.False(t, g.Test(c))

	hits := 0
	for x := range 64 {
		c.X, c.Y = x, -62
		first := g.Test(c)
		assert.Equal(t, first, g.Test(c), "same position, same answer")
		if first {
			hits++
		}
	}
	assert.Greater(t, hits, 0)
	assert.Less(t, hits, 64)
}

func TestBands(t *testing.T) {
	env := testEnv(t, 42)
	b, err := NewBuilder(env, SequenceRule{}, env.Blocks.MustDefault("stone"), 63)
	require.NoError(t, err)
	again, err := NewBuilder(testEnv(t, 42), SequenceRule{}, env.Blocks.MustDefault("stone"), 63)
	require.NoError(t, err)
	other, err := NewBuilder(testEnv(t, 43), SequenceRule{}, env.Blocks.MustDefault("stone"), 63)
	require.NoError(t, err)

	names := func(b *Builder) []string {
		out := make([]string, bandCount)
		for i, s := range b.bands {
			out[i] = s.Name()
		}
		return out
	}
	assert.Equal(t, names(b), names(again))
	assert.NotEqual(t, names(b), names(other))

	seen := map[string]bool{}
	for _, s := range b.bands {
		assert.True(t, s.HasTag("terracotta"), s.Name())
		seen[s.Name()] = true
	}
	assert.True(t, seen["minecraft:orange_terracotta"])
	assert.True(t, seen["minecraft:white_terracotta"])

	ctx := &Context{builder: b, X: 10, Y: 70, Z: -4}
	assert.True(t, BandlandsRule{}.Apply(ctx).HasTag("terracotta"))
	assert.Same(t, BandlandsRule{}.Apply(ctx), b.band(10, 70, -4))
}

const testRule = `{"type": "minecraft:sequence", "sequence": [
	{"type": "minecraft:condition",
	 "if_true": {"type": "minecraft:vertical_gradient", "random_name": "minecraft:bedrock_floor",
	             "true_at_and_below": {"above_bottom": 0}, "false_at_and_above": {"above_bottom": 5}},
	 "then_run": {"type": "minecraft:block", "result_state": {"Name": "minecraft:bedrock"}}},
	{"type": "minecraft:condition",
	 "if_true": {"type": "minecraft:stone_depth", "offset": 0, "surface_type": "floor"},
	 "then_run": {"type": "minecraft:sequence", "sequence": [
		{"type": "minecraft:condition",
		 "if_true": {"type": "minecraft:water", "offset": -1, "surface_depth_multiplier": 0},
		 "then_run": {"type": "minecraft:block", "result_state": {"Name": "minecraft:grass_block", "Properties": {"snowy": "false"}}}},
		{"type": "minecraft:block", "result_state": {"Name": "minecraft:gravel"}}
	 ]}},
	{"type": "minecraft:condition",
	 "if_true": {"type": "minecraft:stone_depth", "offset": 2, "surface_type": "floor"},
	 "then_run": {"type": "minecraft:block", "result_state": {"Name": "minecraft:dirt"}}}
]}`

func buildTestChunk(t *testing.T) *testChunk {
	t.Helper()
	env := testEnv(t, 0)
	rule, err := ParseRule(env, json.RawMessage(testRule))
	require.NoError(t, err)
	stone := env.Blocks.MustDefault("stone")
	b, err := NewBuilder(env, rule, stone, 12)
	require.NoError(t, err)

	c := newTestChunk(env.Blocks)
	for x := range 16 {
		for z := range 16 {
			if x < 8 {
				c.fill(x, z, -16, 10, stone)
				continue
			}
			c.fill(x, z, -16, 5, stone)
			c.fill(x, z, 6, 12, env.Blocks.Water)
		}
	}
	plains, _ := env.Biomes.ByName("plains")
	b.Build(c, nil, func(pos.Block) *biome.Biome { return plains })
	return c
}

func TestBuildColumns(t *testing.T) {
	c := buildTestChunk(t)
	at := func(x, y, z int) string { return c.BlockState(pos.Block{X: x, Y: y, Z: z}).Name() }

	for _, z := range []int{0, 7, 15} {
		assert.Equal(t, "minecraft:grass_block", at(2, 10, z))
		assert.Equal(t, "minecraft:dirt", at(2, 9, z))
		assert.Equal(t, "minecraft:dirt", at(2, 8, z))
		assert.Equal(t, "minecraft:stone", at(2, 7, z))

		assert.Equal(t, "minecraft:gravel", at(12, 5, z), "under water")
		assert.Equal(t, "minecraft:dirt", at(12, 4, z))
		assert.Equal(t, "minecraft:water", at(12, 6, z))

		assert.Equal(t, "minecraft:bedrock", at(2, -16, z))
		assert.Equal(t, "minecraft:stone", at(2, -11, z))
	}
	assert.Equal(t, "false", c.BlockState(pos.Block{X: 0, Y: 10, Z: 0}).Get("snowy"))

	// Writes keep the heightmaps in step.
	for x := range 16 {
		for z := range 16 {
			col := func(y int) *block.State { return c.BlockState(pos.Block{X: x, Y: y, Z: z}) }
			for _, k := range heightmap.Kinds {
				assert.Equal(t, heightmap.Rescan(k, -16, 47, col), c.Top(k, x, z))
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a := buildTestChunk(t)
	b := buildTestChunk(t)
	require.Equal(t, len(a.blocks), len(b.blocks))
	for p, s := range a.blocks {
		require.Contains(t, b.blocks, p)
		assert.Equal(t, s.ID, b.blocks[p].ID, "%v", p)
	}
}

func TestParseErrors(t *testing.T) {
	env := testEnv(t, 0)
	for name, raw := range map[string]string{
		"unknown rule":      `{"type": "minecraft:paint"}`,
		"unknown block":     `{"type": "minecraft:block", "result_state": {"Name": "minecraft:unobtainium"}}`,
		"missing then":      `{"type": "minecraft:condition", "if_true": {"type": "minecraft:hole"}}`,
		"unknown condition": `{"type": "minecraft:condition", "if_true": {"type": "minecraft:moon"}, "then_run": {"type": "minecraft:bandlands"}}`,
		"unknown biome":     `{"type": "minecraft:condition", "if_true": {"type": "minecraft:biome", "biome_is": ["minecraft:moon"]}, "then_run": {"type": "minecraft:bandlands"}}`,
		"unknown noise":     `{"type": "minecraft:condition", "if_true": {"type": "minecraft:noise_threshold", "noise": "minecraft:moon"}, "then_run": {"type": "minecraft:bandlands"}}`,
		"bad surface type":  `{"type": "minecraft:condition", "if_true": {"type": "minecraft:stone_depth", "surface_type": "wall"}, "then_run": {"type": "minecraft:bandlands"}}`,
		"nested error":      `{"type": "minecraft:sequence", "sequence": [{"type": "minecraft:bandlands"}, {"type": "nope"}]}`,
	} {
		_, err := ParseRule(env, json.RawMessage(raw))
		assert.Error(t, err, name)
	}

	rule, err := ParseRule(env, json.RawMessage(`{"type": "condition", "if_true": {"type": "not", "invert": {"type": "biome", "biome_is": ["plains"]}}, "then_run": {"type": "bandlands"}}`))
	require.NoError(t, err)
	assert.IsType(t, ConditionRule{}, rule)
}
