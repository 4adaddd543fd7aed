package gen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/block/blocktest"
	"github.com/go-theft-craft/worldgen/pkg/world/density"
	"github.com/go-theft-craft/worldgen/pkg/world/feature"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/noise"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

const testSurfaceRule = `{"type": "minecraft:sequence", "sequence": [
	{"type": "minecraft:condition",
	 "if_true": {"type": "minecraft:vertical_gradient", "random_name": "minecraft:bedrock_floor",
	             "true_at_and_below": {"above_bottom": 0}, "false_at_and_above": {"above_bottom": 1}},
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

// flatDensity is solid up to y 63.
const flatDensity = `{"type": "minecraft:y_clamped_gradient", "from_y": 0, "to_y": 128, "from_value": 1, "to_value": -1}`

const hillyDensity = `{"type": "minecraft:add", "argument1": ` + flatDensity + `,
	"argument2": {"type": "minecraft:mul", "argument1": 0.5,
		"argument2": {"type": "minecraft:interpolated", "argument": {"type": "minecraft:noise", "noise": "minecraft:test", "xz_scale": 1, "y_scale": 1}}}}`

type dimOptions struct {
	density  string
	seaLevel int
	aquifers bool
}

func settingsJSON(o dimOptions) json.RawMessage {
	return json.RawMessage(`{
		"sea_level": ` + itoa(o.seaLevel) + `,
		"aquifers_enabled": ` + btoa(o.aquifers) + `,
		"ore_veins_enabled": false,
		"legacy_random_source": false,
		"default_block": {"Name": "minecraft:stone"},
		"default_fluid": {"Name": "minecraft:water", "Properties": {"level": "0"}},
		"noise": {"min_y": -16, "height": 128, "size_horizontal": 1, "size_vertical": 2},
		"noise_router": ` + routerJSON(o.density) + `,
		"surface_rule": ` + testSurfaceRule + `
	}`)
}

// routerJSON is a noise_router with the given final density and every other
// entry zero.
func routerJSON(final string) string {
	m := make(map[string]json.RawMessage)
	for _, e := range density.Entries() {
		m[e.String()] = json.RawMessage("0")
	}
	m[density.EntryFinalDensity.String()] = json.RawMessage(final)
	b, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func itoa(v int) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func btoa(v bool) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func testDimension(t testing.TB, o dimOptions) *Dimension {
	t.Helper()
	blocks := blocktest.Registry(t)
	biomes, err := biome.NewRegistry(json.RawMessage(`{
		"minecraft:plains": {"temperature": 0.8, "downfall": 0.4, "has_precipitation": true,
			"features": [[], ["minecraft:test_ore"], ["minecraft:test_flowers"]]}
	}`))
	require.NoError(t, err)
	source, err := biome.ParseMultiNoise(biomes, json.RawMessage(`[{"biome": "minecraft:plains", "parameters":
		{"temperature": 0, "humidity": 0, "continentalness": 0, "erosion": 0, "depth": 0, "weirdness": 0, "offset": 0}}]`))
	require.NoError(t, err)

	features, err := feature.NewRegistry(blocks, nil, map[string]json.RawMessage{
		"test_ore": json.RawMessage(`{"type": "minecraft:ore", "config": {"size": 9, "discard_chance_on_air_exposure": 0,
			"targets": [{"target": {"predicate_type": "minecraft:block_match", "block": "minecraft:stone"},
				"state": {"Name": "minecraft:iron_ore"}}]}}`),
		"test_flowers": json.RawMessage(`{"type": "minecraft:flower", "config": {"tries": 8, "xz_spread": 0, "y_spread": 0,
			"feature": {"feature": {"type": "minecraft:simple_block", "config": {"to_place":
				{"type": "minecraft:simple_state_provider", "state": {"Name": "minecraft:dandelion"}}}}, "placement": []}}}`),
	}, map[string]json.RawMessage{
		"test_ore": json.RawMessage(`{"feature": "test_ore", "placement": [
			{"type": "minecraft:count", "count": 10}, {"type": "minecraft:in_square"},
			{"type": "minecraft:height_range", "height": {"type": "minecraft:uniform",
				"min_inclusive": {"absolute": 0}, "max_inclusive": {"absolute": 40}}},
			{"type": "minecraft:biome"}]}`),
		"test_flowers": json.RawMessage(`{"feature": "test_flowers", "placement": [
			{"type": "minecraft:count", "count": 4}, {"type": "minecraft:in_square"},
			{"type": "minecraft:heightmap", "heightmap": "WORLD_SURFACE_WG"}, {"type": "minecraft:biome"}]}`),
	})
	require.NoError(t, err)

	noises := map[string]noise.Parameters{
		"minecraft:test": {FirstOctave: -5, Amplitudes: []float64{1, 1}},
	}
	for _, key := range []string{"surface", "surface_secondary", "clay_bands_offset", "badlands_pillar",
		"badlands_pillar_roof", "badlands_surface", "iceberg_pillar", "iceberg_pillar_roof", "iceberg_surface"} {
		noises["minecraft:"+key] = noise.Parameters{FirstOctave: -6, Amplitudes: []float64{1, 1, 1}}
	}

	s, err := ParseSettings(settingsJSON(o))
	require.NoError(t, err)
	d, err := NewDimension("test", s, Tables{
		Blocks:   blocks,
		Biomes:   biomes,
		Noises:   noises,
		Source:   source,
		Features: features,
	})
	require.NoError(t, err)
	return d
}

func testGenerator(t testing.TB, o dimOptions, seed int64) *NoiseGenerator {
	t.Helper()
	g, err := NewNoiseGenerator(testDimension(t, o), seed, nil)
	require.NoError(t, err)
	return g
}

func blockName(c *ChunkData, x, y, z int) string {
	return c.BlockState(pos.Block{X: x, Y: y, Z: z}).Name()
}

func requireHeightmapsMatch(t *testing.T, c *ChunkData) {
	t.Helper()
	hc := c.HeightContext()
	for x := range 16 {
		for z := range 16 {
			bx, bz := c.Pos.StartX()+x, c.Pos.StartZ()+z
			col := func(y int) *block.State { return c.BlockState(pos.Block{X: bx, Y: y, Z: bz}) }
			for _, k := range heightmap.Kinds {
				require.Equal(t, heightmap.Rescan(k, hc.MinY, hc.MaxY(), col), c.Top(k, bx, bz), "%s at %d %d", k, x, z)
			}
		}
	}
}

func TestPopulateNoise(t *testing.T) {
	tests := []struct {
		name     string
		seaLevel int
		surface  int
		ocean    int
	}{
		{"dry", 40, 64, 64},
		{"flooded", 70, 70, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGenerator(t, dimOptions{density: flatDensity, seaLevel: tt.seaLevel}, 1)
			c := g.NewChunk(pos.Chunk{X: 2, Z: -3})
			c.PopulateNoise()
			assert.Equal(t, StageNoise, c.Stage())

			for _, p := range []pos.Block{{X: 32, Y: 63, Z: -48}, {X: 47, Y: -16, Z: -33}} {
				assert.Equal(t, "minecraft:stone", c.BlockState(p).Name(), "%v", p)
			}
			for y := 64; y < tt.seaLevel; y++ {
				assert.Equal(t, "minecraft:water", c.BlockState(pos.Block{X: 40, Y: y, Z: -40}).Name())
			}
			assert.True(t, c.BlockState(pos.Block{X: 40, Y: max(64, tt.seaLevel), Z: -40}).IsAir())
			assert.Equal(t, tt.surface, c.Top(heightmap.WorldSurfaceWG, 33, -47))
			assert.Equal(t, tt.ocean, c.Top(heightmap.OceanFloorWG, 33, -47))
		})
	}
}

func TestGenerate(t *testing.T) {
	g := testGenerator(t, dimOptions{density: flatDensity, seaLevel: 40}, 7)
	c := g.Generate(pos.Chunk{X: 0, Z: 0}, nil)

	for x := range 16 {
		for z := range 16 {
			assert.Equal(t, "minecraft:bedrock", blockName(c, x, -16, z))
			assert.Equal(t, "minecraft:dirt", blockName(c, x, 62, z))
			assert.Equal(t, "minecraft:grass_block", blockName(c, x, 63, z), "column %d %d", x, z)
		}
	}

	counts := make(map[string]int)
	for y := -16; y < 112; y++ {
		for x := range 16 {
			for z := range 16 {
				counts[blockName(c, x, y, z)]++
			}
		}
	}
	assert.Positive(t, counts["minecraft:iron_ore"], "ore step ran")
	assert.Positive(t, counts["minecraft:dandelion"], "flower step ran")
	requireHeightmapsMatch(t, c)

	plains, _ := g.Dimension().Biomes.ByName("plains")
	assert.Same(t, plains, c.NoiseBiome(1, 3, 2))
	assert.Same(t, plains, c.NoiseBiome(0, 1000, 0), "height is clamped")
}

func TestGenerateIsDeterministic(t *testing.T) {
	o := dimOptions{density: hillyDensity, seaLevel: 60, aquifers: true}
	a := testGenerator(t, o, 99).Generate(pos.Chunk{X: -1, Z: 4}, nil)
	b := testGenerator(t, o, 99).Generate(pos.Chunk{X: -1, Z: 4}, nil)
	other := testGenerator(t, o, 100).Generate(pos.Chunk{X: -1, Z: 4}, nil)

	require.Len(t, b.Sections, len(a.Sections))
	differs := false
	for i := range a.Sections {
		assert.Equal(t, a.Sections[i].Blocks, b.Sections[i].Blocks, "section %d", i)
		assert.Equal(t, a.Sections[i].Biomes, b.Sections[i].Biomes, "section %d", i)
		differs = differs || a.Sections[i].Blocks != other.Sections[i].Blocks
	}
	for _, k := range heightmap.Kinds {
		assert.Equal(t, a.Heights.Raw(k), b.Heights.Raw(k))
	}
	assert.True(t, differs, "seeds 99 and 100 should differ")
	requireHeightmapsMatch(t, a)
}

func TestPassesRunInOrder(t *testing.T) {
	g := testGenerator(t, dimOptions{density: flatDensity, seaLevel: 40}, 1)
	c := g.NewChunk(pos.Chunk{})
	assert.Panics(t, func() { c.BuildSurface() })
	c.PopulateNoise()
	assert.Panics(t, func() { c.PopulateNoise() })
	assert.Panics(t, func() { c.GenerateFeatures(nil) })
	c.PopulateBiomes()
	c.BuildSurface()
	c.GenerateFeatures(nil)
	assert.Equal(t, StageFeatures, c.Stage())
	assert.Equal(t, "features", c.Stage().String())
}

func TestProtoChunkBounds(t *testing.T) {
	g := testGenerator(t, dimOptions{density: flatDensity, seaLevel: 40}, 1)
	c := g.NewChunk(pos.Chunk{X: 1, Z: 1})
	stone := g.Dimension().Blocks.MustDefault("stone")

	assert.Panics(t, func() { c.BlockState(pos.Block{X: 0, Y: 0, Z: 16}) })
	assert.Panics(t, func() { c.SetBlockState(pos.Block{X: 32, Y: 0, Z: 16}, stone) })
	assert.True(t, c.BlockState(pos.Block{X: 16, Y: -17, Z: 16}).IsAir())
	assert.True(t, c.BlockState(pos.Block{X: 16, Y: 112, Z: 16}).IsAir())
	assert.False(t, c.SetBlockState(pos.Block{X: 16, Y: 112, Z: 16}, stone))

	require.True(t, c.SetBlockState(pos.Block{X: 20, Y: 30, Z: 17}, stone))
	assert.Equal(t, 31, c.Top(heightmap.MotionBlocking, 20, 17))
	assert.Equal(t, 1, c.sections[(30+16)>>4].NonAir)
	require.True(t, c.SetBlockState(pos.Block{X: 20, Y: 30, Z: 17}, g.Dimension().Blocks.Air))
	assert.Equal(t, -16, c.Top(heightmap.MotionBlocking, 20, 17))
	assert.True(t, c.sections[(30+16)>>4].Empty())
}

func TestProtoChunkCountsAirKinds(t *testing.T) {
	g := testGenerator(t, dimOptions{density: flatDensity, seaLevel: 40}, 1)
	c := g.NewChunk(pos.Chunk{})
	blocks := g.Dimension().Blocks
	stone, caveAir := blocks.MustDefault("stone"), blocks.MustDefault("cave_air")
	p := pos.Block{X: 3, Y: 70, Z: 5}
	sec := c.sections[(p.Y+16)>>4]
	require.True(t, sec.Empty())

	require.True(t, c.SetBlockState(p, caveAir))
	assert.Equal(t, 0, sec.NonAir, "air to cave_air")

	require.True(t, c.SetBlockState(p, stone))
	assert.Equal(t, 1, sec.NonAir)
	require.True(t, c.SetBlockState(p, caveAir))
	assert.Equal(t, 0, sec.NonAir, "stone to cave_air")
	require.True(t, c.SetBlockState(p, stone))
	assert.Equal(t, 1, sec.NonAir, "cave_air to stone")
	require.True(t, c.SetBlockState(p, blocks.Air))
	assert.True(t, sec.Empty())
}

type fakeNeighbours map[pos.Chunk]*ChunkData

func (f fakeNeighbours) Chunk(cp pos.Chunk) *ChunkData { return f[cp] }

func TestDecorationWorld(t *testing.T) {
	g := testGenerator(t, dimOptions{density: flatDensity, seaLevel: 40}, 3)
	east := g.Generate(pos.Chunk{X: 1, Z: 0}, nil)

	c := g.NewChunk(pos.Chunk{X: 0, Z: 0})
	c.PopulateNoise()
	c.PopulateBiomes()
	c.BuildSurface()
	w := &decorationWorld{chunk: c, nb: fakeNeighbours{{X: 1, Z: 0}: east}, seen: make(map[pos.Chunk]*ChunkData)}

	assert.Equal(t, "minecraft:grass_block", w.BlockState(pos.Block{X: 20, Y: 63, Z: 4}).Name(), "finished neighbour")
	assert.Equal(t, 64, w.Top(heightmap.OceanFloorWG, 20, 4))
	assert.True(t, w.BlockState(pos.Block{X: -4, Y: 10, Z: 4}).IsAir(), "missing neighbour reads air")
	assert.Equal(t, -16, w.Top(heightmap.OceanFloorWG, -4, 4))

	stone := g.Dimension().Blocks.MustDefault("stone")
	assert.False(t, w.SetBlockState(pos.Block{X: 20, Y: 80, Z: 4}, stone), "writes outside the chunk drop")
	assert.True(t, east.BlockState(pos.Block{X: 20, Y: 80, Z: 4}).IsAir())
	assert.True(t, w.SetBlockState(pos.Block{X: 4, Y: 80, Z: 4}, stone))
	assert.Equal(t, int64(3), w.Seed())
	assert.Equal(t, provider.HeightContext{MinY: -16, Height: 128}, w.HeightContext())
}

func TestFluidPicker(t *testing.T) {
	reg := blocktest.Registry(t)
	p := newFluidPicker(63, reg.Water, reg.Lava)
	assert.Equal(t, FluidStatus{Level: -54, State: reg.Lava}, p.at(0, -55, 0))
	assert.Equal(t, FluidStatus{Level: 63, State: reg.Water}, p.at(0, -54, 0))
	assert.Same(t, reg.Water, p.at(0, 10, 0).at(62, reg.Air))
	assert.Same(t, reg.Air, p.at(0, 10, 0).at(63, reg.Air))

	// A sea below the lava line pulls the lava line down with it.
	low := newFluidPicker(-60, reg.Water, reg.Lava)
	assert.Same(t, reg.Water, low.at(0, -58, 0).State)
	assert.Same(t, reg.Lava, low.at(0, -61, 0).State)

	a := disabledAquifer{picker: p, air: reg.Air}
	assert.Nil(t, a.Substance(nil, 0, 10, 0, 0.1))
	assert.Same(t, reg.Water, a.Substance(nil, 0, 10, 0, 0))
	assert.Same(t, reg.Air, a.Substance(nil, 0, 70, 0, -1))
	assert.Same(t, reg.Lava, a.Substance(nil, 0, -60, 0, -1))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity(40, 40))
	assert.InDelta(t, -0.76, similarity(100, 144), 1e-12)
	assert.Equal(t, 0.0, similarity(25, 50))
}

func TestParseSettingsErrors(t *testing.T) {
	tests := []struct {
		name, noise string
	}{
		{"height not aligned", `{"min_y": 0, "height": 100, "size_horizontal": 1, "size_vertical": 2}`},
		{"min y not aligned", `{"min_y": -8, "height": 128, "size_horizontal": 1, "size_vertical": 2}`},
		{"cell wider than chunk", `{"min_y": 0, "height": 128, "size_horizontal": 3, "size_vertical": 2}`},
		{"cell taller than height", `{"min_y": 0, "height": 16, "size_horizontal": 1, "size_vertical": 3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings(json.RawMessage(`{"noise": ` + tt.noise + `, "noise_router": {}, "surface_rule": {}}`))
			assert.Error(t, err)
		})
	}
	_, err := ParseSettings(json.RawMessage(`{"noise": {"min_y": 0, "height": 16, "size_horizontal": 1, "size_vertical": 1}, "surface_rule": {}}`))
	assert.ErrorContains(t, err, "noise_router")
}

func TestUnknownBiomeFeature(t *testing.T) {
	d := testDimension(t, dimOptions{density: flatDensity, seaLevel: 40})
	biomes, err := biome.NewRegistry(json.RawMessage(`{"minecraft:plains": {"features": [["minecraft:nope"]]}}`))
	require.NoError(t, err)
	tables := d.Tables
	tables.Biomes = biomes
	_, err = NewDimension("broken", d.Settings, tables)
	assert.ErrorContains(t, err, "minecraft:nope")
}

func TestFlatGeneratorLayers(t *testing.T) {
	reg := blocktest.Registry(t)
	biomes, err := biome.NewRegistry(json.RawMessage(`{"minecraft:plains": {}}`))
	require.NoError(t, err)
	plains, _ := biomes.ByName("plains")
	g, err := NewFlatGenerator(reg, biomes, provider.HeightContext{MinY: 0, Height: 64}, plains,
		FlatLayer{State: reg.MustDefault("bedrock"), Height: 1},
		FlatLayer{State: reg.MustDefault("stone"), Height: 2},
		FlatLayer{State: reg.MustDefault("dirt"), Height: 1},
		FlatLayer{State: reg.MustDefault("grass_block"), Height: 1},
	)
	require.NoError(t, err)
	c := g.Generate(pos.Chunk{X: 3, Z: -2}, nil)

	tests := []struct {
		y    int
		want string
	}{
		{0, "minecraft:bedrock"},
		{1, "minecraft:stone"},
		{2, "minecraft:stone"},
		{3, "minecraft:dirt"},
		{4, "minecraft:grass_block"},
		{5, "minecraft:air"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, blockName(c, 48, tt.y, -32), "y=%d", tt.y)
	}
	assert.Equal(t, 4, g.HeightAt(0, 0))
	assert.Equal(t, 5, c.Top(heightmap.WorldSurface, 48, -32))
	assert.Equal(t, 256*5, c.Sections[0].NonAir)
	assert.True(t, c.Sections[1].Empty())
	assert.Equal(t, len(c.Sections)-1, c.EmptySections())
	assert.Same(t, plains, c.NoiseBiome(12, 3, -8))
	requireHeightmapsMatch(t, c)

	_, err = NewFlatGenerator(reg, biomes, provider.HeightContext{MinY: 0, Height: 16}, plains,
		FlatLayer{State: reg.MustDefault("stone"), Height: 17})
	assert.Error(t, err)
}

func BenchmarkGenerate(b *testing.B) {
	g := testGenerator(b, dimOptions{density: hillyDensity, seaLevel: 60, aquifers: true}, 5)
	b.ResetTimer()
	for i := range b.N {
		g.Generate(pos.Chunk{X: i % 16, Z: i / 16}, nil)
	}
}
