package feature

import (
	"bytes"
	"encoding/json"
	"iter"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/block/blocktest"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

const groundY = 64

// flatWorld is stone below a grass layer at groundY-1 and air above, with
// writes kept in a map.
type flatWorld struct {
	reg     *block.Registry
	changed map[pos.Block]*block.State
	hc      provider.HeightContext
	// layers, when set, replaces the grass and stone profile.
	layers func(y int) string
}

func newFlatWorld(t *testing.T) *flatWorld {
	return &flatWorld{
		reg:     blocktest.Registry(t),
		changed: make(map[pos.Block]*block.State),
		hc:      provider.HeightContext{MinY: 0, Height: 128},
	}
}

func (w *flatWorld) BlockState(p pos.Block) *block.State {
	if s, ok := w.changed[p]; ok {
		return s
	}
	if w.layers != nil {
		return w.reg.MustDefault(w.layers(p.Y))
	}
	switch {
	case p.Y < groundY-1:
		return w.reg.MustDefault("stone")
	case p.Y == groundY-1:
		return w.reg.MustDefault("grass_block")
	}
	return w.reg.Air
}

func (w *flatWorld) SetBlockState(p pos.Block, s *block.State) bool {
	if w.hc.MinY > p.Y || p.Y > w.hc.MaxY() {
		return false
	}
	w.changed[p] = s
	return true
}

func (w *flatWorld) Top(k heightmap.Kind, x, z int) int {
	return heightmap.Rescan(k, w.hc.MinY, w.hc.MaxY(), func(y int) *block.State {
		return w.BlockState(pos.Block{X: x, Y: y, Z: z})
	})
}

func (w *flatWorld) Biome(pos.Block) *biome.Biome          { return nil }
func (w *flatWorld) HeightContext() provider.HeightContext { return w.hc }
func (w *flatWorld) Seed() int64                           { return 0 }

func (w *flatWorld) context(seed int64) *Context {
	return &Context{World: w, Blocks: w.reg, Random: random.NewLegacy(seed)}
}

func (w *flatWorld) count(name string) int {
	n := 0
	for _, s := range w.changed {
		if s.Name() == block.NormalizeName(name) {
			n++
		}
	}
	return n
}

type countingFeature struct {
	calls  int
	result bool
}

func (f *countingFeature) Generate(*Context, pos.Block) bool {
	f.calls++
	return f.result
}

func TestRandomPatchTries(t *testing.T) {
	tests := []struct {
		name   string
		result bool
	}{
		{"always succeeds", true},
		{"always fails", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newFlatWorld(t)
			inner := &countingFeature{result: tt.result}
			patch := RandomPatch{Tries: 12, XZSpread: 7, YSpread: 3, Feature: inner}

			got := patch.Generate(w.context(42), pos.Block{X: 8, Y: groundY, Z: 8})

			assert.Equal(t, tt.result, got)
			assert.Equal(t, 12, inner.calls)
		})
	}
}

func TestSelectors(t *testing.T) {
	w := newFlatWorld(t)
	a, b := &countingFeature{result: true}, &countingFeature{result: false}

	sel := RandomSelector{Features: []Chance{{Feature: a, Chance: 0}}, Default: b}
	assert.False(t, sel.Generate(w.context(1), pos.Block{}))
	assert.Equal(t, 0, a.calls)
	assert.Equal(t, 1, b.calls)

	sel = RandomSelector{Features: []Chance{{Feature: a, Chance: 1}}, Default: b}
	assert.True(t, sel.Generate(w.context(1), pos.Block{}))
	assert.Equal(t, 1, a.calls)

	simple := SimpleRandomSelector{Features: []Feature{a, b}}
	for range 20 {
		simple.Generate(w.context(7), pos.Block{})
	}
	assert.Equal(t, 1+1+20, a.calls+b.calls)
}

// traceModifier yields its input twice and logs each yield.
type traceModifier struct {
	name string
	log  *[]string
}

func (m traceModifier) Positions(_ *Context, p pos.Block) iter.Seq[pos.Block] {
	return func(yield func(pos.Block) bool) {
		for range 2 {
			*m.log = append(*m.log, m.name)
			if !yield(p) {
				return
			}
		}
	}
}

type traceFeature struct{ log *[]string }

func (f traceFeature) Generate(*Context, pos.Block) bool {
	*f.log = append(*f.log, "gen")
	return true
}

func TestPlacedFeatureIsDepthFirst(t *testing.T) {
	w := newFlatWorld(t)
	var log []string
	pf := &PlacedFeature{
		Feature:   &ConfiguredFeature{Feature: traceFeature{log: &log}},
		Placement: []Modifier{traceModifier{"a", &log}, traceModifier{"b", &log}},
	}

	require.True(t, pf.Generate(w.context(0), pos.Block{}))
	assert.Equal(t, []string{
		"a", "b", "gen", "b", "gen",
		"a", "b", "gen", "b", "gen",
	}, log)
}

func TestPredicates(t *testing.T) {
	w := newFlatWorld(t)
	c := w.context(0)
	reg := w.reg
	stone, _ := reg.ByName("stone")
	grass, _ := reg.ByName("grass_block")
	ground := pos.Block{X: 3, Y: groundY - 1, Z: 3}
	above := ground.Up()

	tests := []struct {
		name string
		p    Predicate
		at   pos.Block
		want bool
	}{
		{"matching block", MatchingBlocks{Blocks: []*block.Block{grass}}, ground, true},
		{"matching block offset", MatchingBlocks{Offset: Offset{0, -1, 0}, Blocks: []*block.Block{stone}}, ground, true},
		{"matching tag", MatchingTag{Tag: "minecraft:dirt"}, ground, true},
		{"matching tag in list", MatchingBlocks{Tags: []string{"minecraft:dirt"}}, above, false},
		{"solid", Solid{}, ground, true},
		{"replaceable air", Replaceable{}, above, true},
		{"sturdy face", HasSturdyFace{Offset: Offset{0, -1, 0}}, above, true},
		{"would survive", WouldSurvive{State: reg.MustDefault("dandelion")}, above, true},
		{"would not survive", WouldSurvive{State: reg.MustDefault("dandelion")}, ground.Down(), false},
		{"inside bounds", InsideWorldBounds{}, above, true},
		{"outside bounds", InsideWorldBounds{Offset: Offset{0, 200, 0}}, above, false},
		{"not", Not{Predicate: Solid{}}, above, true},
		{"any of", AnyOf{Solid{}, True{}}, above, true},
		{"all of", AllOf{Solid{}, True{}}, above, false},
		{"empty all of", AllOf{}, above, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Test(c, tt.at))
		})
	}
}

func TestStateProviders(t *testing.T) {
	reg := blocktest.Registry(t)
	r := random.NewLegacy(5)
	log := reg.MustDefault("oak_log")

	rotated := RotatedState{S: log}
	axes := map[string]bool{}
	for range 50 {
		axes[rotated.State(r, pos.Block{}).Get("axis")] = true
	}
	assert.Len(t, axes, 3)

	weighted := WeightedState{Entries: provider.Pool[*block.State]{
		{Data: reg.MustDefault("stone"), Weight: 1},
		{Data: reg.MustDefault("dirt"), Weight: 3},
	}}
	for range 20 {
		s := weighted.State(r, pos.Block{})
		assert.Contains(t, []string{"minecraft:stone", "minecraft:dirt"}, s.Name())
	}

	cactus := RandomizedIntState{
		Source:   SimpleState{S: reg.MustDefault("cactus")},
		Property: "age",
		Values:   provider.Const(7),
	}
	assert.Equal(t, "7", cactus.State(r, pos.Block{}).Get("age"))
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

const oakTree = `{"type": "minecraft:tree", "config": {
	"trunk_provider": {"type": "minecraft:simple_state_provider", "state": {"Name": "minecraft:oak_log", "Properties": {"axis": "y"}}},
	"foliage_provider": {"type": "minecraft:simple_state_provider", "state": {"Name": "minecraft:oak_leaves"}},
	"dirt_provider": {"type": "minecraft:simple_state_provider", "state": {"Name": "minecraft:dirt"}},
	"trunk_placer": {"type": "minecraft:straight_trunk_placer", "base_height": 5, "height_rand_a": 0, "height_rand_b": 0},
	"foliage_placer": {"type": "minecraft:blob_foliage_placer", "radius": 2, "offset": 0, "height": 3},
	"minimum_size": {"type": "minecraft:two_layers_feature_size", "limit": 1, "lower_size": 0, "upper_size": 1},
	"decorators": [{"type": "minecraft:beehive", "probability": 0.05}],
	"ignore_vines": true
}}`

func testRegistry(t *testing.T) (*Registry, *block.Registry) {
	blocks := blocktest.Registry(t)
	configured := map[string]json.RawMessage{
		"oak": raw(oakTree),
		"ore_iron": raw(`{"type": "ore", "config": {"size": 20, "discard_chance_on_air_exposure": 0,
			"targets": [{"target": {"predicate_type": "minecraft:tag_match", "tag": "minecraft:stone_ore_replaceables"},
				"state": {"Name": "minecraft:iron_ore"}}]}}`),
		"geode": raw(`{"type": "minecraft:geode", "config": {}}`),
		"flowers": raw(`{"type": "minecraft:flower", "config": {"tries": 8, "xz_spread": 0, "y_spread": 0,
			"feature": {"feature": {"type": "minecraft:simple_block", "config": {"to_place":
				{"type": "minecraft:simple_state_provider", "state": {"Name": "minecraft:dandelion"}}}}, "placement": []}}}`),
	}
	placed := map[string]json.RawMessage{
		"minecraft:oak_checked": raw(`{"feature": "oak", "placement": [{"type": "minecraft:count", "count": 1}, {"type": "minecraft:biome"}]}`),
		"ore_iron_upper":        raw(`{"feature": "minecraft:ore_iron", "placement": [{"type": "minecraft:in_square"}]}`),
	}
	reg, err := NewRegistry(blocks, nil, configured, placed)
	require.NoError(t, err)
	return reg, blocks
}

func TestRegistryDecodes(t *testing.T) {
	reg, _ := testRegistry(t)

	oak, ok := reg.Configured("minecraft:oak")
	require.True(t, ok)
	assert.Equal(t, "minecraft:tree", oak.Type)

	pf, ok := reg.Placed("oak_checked")
	require.True(t, ok)
	assert.Same(t, oak, pf.Feature)
	assert.Len(t, pf.Placement, 2)

	assert.Equal(t, []string{"minecraft:oak_checked", "minecraft:ore_iron_upper"}, reg.PlacedNames())
}

func TestUnknownKindIsNoop(t *testing.T) {
	reg, _ := testRegistry(t)
	w := newFlatWorld(t)

	geode, ok := reg.Configured("geode")
	require.True(t, ok)
	assert.False(t, geode.Generate(w.context(0), pos.Block{X: 8, Y: 30, Z: 8}))
	assert.Empty(t, w.changed)
}

func TestRegistryErrors(t *testing.T) {
	blocks := blocktest.Registry(t)
	tests := []struct {
		name       string
		configured map[string]json.RawMessage
		placed     map[string]json.RawMessage
	}{
		{
			name: "dangling reference",
			placed: map[string]json.RawMessage{
				"p": raw(`{"feature": "missing", "placement": []}`),
			},
		},
		{
			name: "cycle",
			configured: map[string]json.RawMessage{
				"a": raw(`{"type": "minecraft:random_boolean_selector", "config": {"feature_true": "pa", "feature_false": "pa"}}`),
			},
			placed: map[string]json.RawMessage{
				"pa": raw(`{"feature": "a", "placement": []}`),
			},
		},
		{
			name: "unknown block",
			configured: map[string]json.RawMessage{
				"b": raw(`{"type": "minecraft:simple_block", "config": {"to_place": {"type": "simple_state_provider", "state": {"Name": "minecraft:nope"}}}}`),
			},
		},
		{
			name: "bad rarity",
			placed: map[string]json.RawMessage{
				"p": raw(`{"feature": {"type": "minecraft:geode"}, "placement": [{"type": "minecraft:rarity_filter", "chance": 0}]}`),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(blocks, nil, tt.configured, tt.placed)
			assert.Error(t, err)
		})
	}
}

func TestTreeGrowsOnGrass(t *testing.T) {
	reg, blocks := testRegistry(t)
	w := newFlatWorld(t)
	origin := pos.Block{X: 8, Y: groundY, Z: 8}

	oak, _ := reg.Placed("oak_checked")
	require.True(t, oak.Generate(w.context(99), origin))

	assert.Equal(t, "minecraft:dirt", w.BlockState(origin.Down()).Name())
	for i := range 5 {
		assert.Equal(t, "minecraft:oak_log", w.BlockState(origin.UpN(i)).Name(), "log at +%d", i)
	}
	assert.Equal(t, "minecraft:oak_leaves", w.BlockState(origin.UpN(5)).Name())
	assert.Equal(t, "minecraft:oak_leaves", w.BlockState(origin.Add(1, 4, 0)).Name())
	assert.Equal(t, "minecraft:oak_leaves", w.BlockState(origin.Add(-2, 3, 0)).Name())
	assert.Equal(t, blocks.Air, w.BlockState(origin.UpN(6)))
}

func TestTreeNeedsRoom(t *testing.T) {
	reg, _ := testRegistry(t)
	w := newFlatWorld(t)
	origin := pos.Block{X: 8, Y: groundY, Z: 8}
	w.changed[origin.UpN(2)] = w.reg.MustDefault("stone")

	oak, _ := reg.Configured("oak")
	assert.False(t, oak.Generate(w.context(99), origin))
	assert.Len(t, w.changed, 1)
}

func TestTreeIsDeterministic(t *testing.T) {
	reg, _ := testRegistry(t)
	oak, _ := reg.Configured("oak")
	origin := pos.Block{X: 8, Y: groundY, Z: 8}

	a, b := newFlatWorld(t), newFlatWorld(t)
	oak.Generate(a.context(3), origin)
	oak.Generate(b.context(3), origin)

	require.Equal(t, len(a.changed), len(b.changed))
	for p, s := range a.changed {
		assert.Same(t, s, b.changed[p], "block at %v", p)
	}
}

const fancyOak = `{"type": "minecraft:tree", "config": {
	"trunk_provider": {"type": "minecraft:simple_state_provider", "state": {"Name": "minecraft:oak_log", "Properties": {"axis": "y"}}},
	"foliage_provider": {"type": "minecraft:simple_state_provider", "state": {"Name": "minecraft:oak_leaves"}},
	"dirt_provider": {"type": "minecraft:simple_state_provider", "state": {"Name": "minecraft:dirt"}},
	"trunk_placer": {"type": "minecraft:fancy_trunk_placer", "base_height": 8, "height_rand_a": 0, "height_rand_b": 0},
	"foliage_placer": {"type": "minecraft:fancy_foliage_placer", "radius": 2, "offset": 4, "height": 4},
	"minimum_size": {"type": "minecraft:two_layers_feature_size", "limit": 0, "lower_size": 0, "upper_size": 0, "min_clipped_height": 4},
	"decorators": [],
	"ignore_vines": true
}}`

func TestTreeFancy(t *testing.T) {
	reg, err := NewRegistry(blocktest.Registry(t), nil, map[string]json.RawMessage{"fancy": raw(fancyOak)}, nil)
	require.NoError(t, err)
	fancy, _ := reg.Configured("fancy")
	origin := pos.Block{X: 8, Y: groundY, Z: 8}

	for seed := range int64(5) {
		w := newFlatWorld(t)
		require.True(t, fancy.Generate(w.context(seed), origin))

		assert.Equal(t, "minecraft:dirt", w.BlockState(origin.Down()).Name())
		// Trunk is floor((8+2)*0.618)+1 logs tall.
		for i := range 7 {
			s := w.BlockState(origin.UpN(i))
			assert.Equal(t, "minecraft:oak_log", s.Name(), "seed %d log at +%d", seed, i)
			assert.Equal(t, "y", s.Get("axis"))
		}
		assert.Positive(t, w.count("oak_leaves"), "seed %d", seed)
		for p, s := range w.changed {
			if p == origin.Down() {
				continue
			}
			assert.Contains(t, []string{"minecraft:oak_log", "minecraft:oak_leaves"}, s.Name())
			if s.Name() == "minecraft:oak_log" {
				assert.LessOrEqual(t, abs(p.X-origin.X), 4, "limb at %v", p)
				assert.LessOrEqual(t, abs(p.Z-origin.Z), 4, "limb at %v", p)
			}
		}
	}

	a, b := newFlatWorld(t), newFlatWorld(t)
	fancy.Generate(a.context(21), origin)
	fancy.Generate(b.context(21), origin)
	assert.Equal(t, a.changed, b.changed)
}

func TestFancyLimbGeometry(t *testing.T) {
	o := pos.Block{}
	assert.Equal(t, "x", limbAxis(o, pos.Block{X: 2, Y: 1, Z: -1}))
	assert.Equal(t, "z", limbAxis(o, pos.Block{X: 1, Y: 3, Z: -2}))
	assert.Equal(t, "y", limbAxis(o, pos.Block{Y: 4}))

	assert.Equal(t, float32(-1), fancyShape(10, 2))
	assert.Equal(t, float32(2.5), fancyShape(10, 5))
	assert.Equal(t, float32(0), fancyShape(10, 10))
	assert.InDelta(t, 2.449, fancyShape(10, 4), 1e-3)

	assert.True(t, limbHighEnough(10, 2))
	assert.False(t, limbHighEnough(10, 1))
}

func TestOreReplacesStoneOnly(t *testing.T) {
	reg, _ := testRegistry(t)
	w := newFlatWorld(t)

	ore, _ := reg.Configured("ore_iron")
	require.True(t, ore.Generate(w.context(11), pos.Block{X: 8, Y: 20, Z: 8}))

	assert.Positive(t, w.count("iron_ore"))
	for p, s := range w.changed {
		assert.Equal(t, "minecraft:iron_ore", s.Name())
		assert.Less(t, p.Y, groundY-1, "ore above the stone at %v", p)
	}
}

func TestScatteredOreAlwaysSucceeds(t *testing.T) {
	w := newFlatWorld(t)
	sand, _ := w.reg.ByName("sand")
	ore := ScatteredOre{Ore{Size: 6, Targets: []OreTarget{{Test: ruleBlock{sand}, State: w.reg.MustDefault("iron_ore")}}}}

	assert.True(t, ore.Generate(w.context(1), pos.Block{X: 8, Y: 30, Z: 8}))
	assert.Empty(t, w.changed)
}

// ruleBlock matches one block without consuming randomness.
type ruleBlock struct{ b *block.Block }

func (r ruleBlock) Test(s *block.State, _ random.Random) bool { return s.Is(r.b) }

func TestFlowerPatch(t *testing.T) {
	reg, _ := testRegistry(t)
	w := newFlatWorld(t)

	flowers, _ := reg.Configured("flowers")
	assert.True(t, flowers.Generate(w.context(0), pos.Block{X: 4, Y: groundY, Z: 4}))
	assert.Equal(t, "minecraft:dandelion", w.BlockState(pos.Block{X: 4, Y: groundY, Z: 4}).Name())

	assert.False(t, flowers.Generate(w.context(0), pos.Block{X: 4, Y: groundY + 5, Z: 4}))
}

func TestBlockColumnTruncates(t *testing.T) {
	w := newFlatWorld(t)
	air, _ := w.reg.ByName("air")
	origin := pos.Block{X: 2, Y: groundY, Z: 2}
	w.changed[origin.UpN(3)] = w.reg.MustDefault("stone")

	col := BlockColumn{
		Layers:    []ColumnLayer{{Height: provider.Const(5), Provider: SimpleState{S: w.reg.MustDefault("oak_log")}}},
		Direction: pos.Up,
		Allowed:   MatchingBlocks{Blocks: []*block.Block{air}},
	}
	require.True(t, col.Generate(w.context(0), origin))

	assert.Equal(t, "minecraft:oak_log", w.BlockState(origin).Name())
	assert.Equal(t, "minecraft:oak_log", w.BlockState(origin.Up()).Name())
	assert.Equal(t, "minecraft:oak_log", w.BlockState(origin.UpN(2)).Name())
	assert.Equal(t, "minecraft:stone", w.BlockState(origin.UpN(3)).Name())
	assert.True(t, w.BlockState(origin.UpN(4)).IsAir())
}

func TestVinesAttachToSide(t *testing.T) {
	w := newFlatWorld(t)
	vine := Vines{Vine: w.reg.MustDefault("vine")}
	origin := pos.Block{X: 5, Y: groundY + 2, Z: 5}

	assert.False(t, vine.Generate(w.context(0), origin))

	w.changed[origin.Offset(pos.South)] = w.reg.MustDefault("stone")
	require.True(t, vine.Generate(w.context(0), origin))
	assert.Equal(t, "true", w.BlockState(origin).Get("south"))
	assert.Equal(t, "false", w.BlockState(origin).Get("north"))
}

func TestReplaceBlobs(t *testing.T) {
	w := newFlatWorld(t)
	f := ReplaceBlobs{
		Target: w.reg.MustDefault("stone").Block,
		State:  w.reg.MustDefault("blackstone"),
		Radius: provider.Const(2),
	}
	require.True(t, f.Generate(w.context(0), pos.Block{X: 8, Y: 100, Z: 8}))

	// The blob centers on the first stone below the origin.
	assert.Equal(t, "minecraft:blackstone", w.BlockState(pos.Block{X: 8, Y: groundY - 2, Z: 8}).Name())
	// Stone fills the lower three layers of the radius 2 diamond.
	assert.Equal(t, 13+5+1, w.count("blackstone"))
}

func TestSeedSpikes(t *testing.T) {
	spikes := SeedSpikes(0)
	require.Len(t, spikes, 10)

	guarded := 0
	heights := map[int]bool{}
	for _, s := range spikes {
		assert.GreaterOrEqual(t, s.Radius, 2)
		assert.LessOrEqual(t, s.Radius, 5)
		heights[s.Height] = true
		if s.Guarded {
			guarded++
		}
	}
	assert.Equal(t, 2, guarded)
	assert.Len(t, heights, 10)
	assert.Equal(t, spikes, SeedSpikes(0))
}

func TestPlacementModifiers(t *testing.T) {
	w := newFlatWorld(t)
	c := w.context(4)
	origin := pos.Block{X: 32, Y: 0, Z: 48}

	collect := func(m Modifier, p pos.Block) []pos.Block {
		var out []pos.Block
		for q := range m.Positions(c, p) {
			out = append(out, q)
		}
		return out
	}

	assert.Len(t, collect(Count{Count: provider.Const(3)}, origin), 3)

	for range 10 {
		got := collect(InSquare{}, origin)
		require.Len(t, got, 1)
		assert.Equal(t, origin.Chunk(), got[0].Chunk())
	}

	got := collect(Heightmap{Kind: heightmap.WorldSurfaceWG}, origin)
	require.Len(t, got, 1)
	assert.Equal(t, groundY, got[0].Y)

	surface := pos.Block{X: 32, Y: groundY, Z: 48}
	filter := SurfaceRelativeThreshold{Kind: heightmap.WorldSurfaceWG, Min: -2, Max: 0}
	assert.Len(t, collect(filter, surface), 1)
	assert.Empty(t, collect(filter, surface.UpN(1)))

	assert.Len(t, collect(FixedPlacement{Fixed: []pos.Block{{X: 33, Y: 5, Z: 49}, {X: 100, Y: 5, Z: 49}}}, origin), 1)
	assert.Empty(t, collect(PredicateFilter{Predicate: Solid{}}, surface))
}

func TestHeightRangeLogsEmptyRange(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	reg, err := NewRegistry(blocktest.Registry(t), log, nil, map[string]json.RawMessage{
		"inverted": raw(`{"feature": {"type": "minecraft:geode"}, "placement": [{"type": "minecraft:height_range",
			"height": {"type": "minecraft:trapezoid", "min_inclusive": {"absolute": 100}, "max_inclusive": {"absolute": 10}}}]}`),
		"upright": raw(`{"feature": {"type": "minecraft:geode"}, "placement": [{"type": "minecraft:height_range",
			"height": {"type": "minecraft:trapezoid", "min_inclusive": {"absolute": 10}, "max_inclusive": {"absolute": 100}}}]}`),
	})
	require.NoError(t, err)
	w := newFlatWorld(t)

	upright, _ := reg.Placed("upright")
	for range upright.Placement[0].Positions(w.context(1), pos.Block{}) {
	}
	assert.NotContains(t, buf.String(), "empty height range")

	inverted, _ := reg.Placed("inverted")
	var ys []int
	for p := range inverted.Placement[0].Positions(w.context(1), pos.Block{}) {
		ys = append(ys, p.Y)
	}
	assert.Equal(t, []int{100}, ys)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "empty height range")
	assert.Contains(t, buf.String(), "min=100 max=10")
}
