// Package blocktest provides a small block registry for unit tests of the
// generation packages.
package blocktest

import (
	"testing"

	"github.com/go-theft-craft/worldgen/pkg/world/block"
)

var solid = []string{"solid", "full_cube"}

// Definitions is the block table behind Registry.
var Definitions = []block.Definition{
	{Name: "air", Flags: []string{"air"}},
	{Name: "cave_air", Flags: []string{"air"}},
	{Name: "stone", Flags: solid, Tags: []string{"base_stone_overworld", "stone_ore_replaceables", "dripstone_replaceable_blocks"}},
	{Name: "deepslate", Flags: solid, Tags: []string{"base_stone_overworld", "deepslate_ore_replaceables"},
		Properties: map[string][]string{"axis": {"x", "y", "z"}}, Default: map[string]string{"axis": "y"}},
	{Name: "bedrock", Flags: solid, Tags: []string{"features_cannot_replace"}},
	{Name: "dirt", Flags: solid, Tags: []string{"dirt"}},
	{Name: "grass_block", Flags: solid, Tags: []string{"dirt"},
		Properties: map[string][]string{"snowy": {"false", "true"}}},
	{Name: "podzol", Flags: solid, Tags: []string{"dirt"},
		Properties: map[string][]string{"snowy": {"false", "true"}}},
	{Name: "sand", Flags: solid, Tags: []string{"sand"}},
	{Name: "gravel", Flags: solid},
	{Name: "sandstone", Flags: solid},
	{Name: "water", Flags: []string{"liquid"}, Properties: map[string][]string{"level": {"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15"}}},
	{Name: "lava", Flags: []string{"liquid"}, Properties: map[string][]string{"level": {"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15"}}},
	{Name: "ice", Flags: solid, Tags: []string{"ice"}},
	{Name: "snow", Flags: []string{"replaceable"}, Support: block.SupportSnow,
		Properties: map[string][]string{"layers": {"1", "2", "3", "4", "5", "6", "7", "8"}}},
	{Name: "iron_ore", Flags: solid},
	{Name: "deepslate_iron_ore", Flags: solid},
	{Name: "oak_log", Flags: solid, Tags: []string{"logs"},
		Properties: map[string][]string{"axis": {"x", "y", "z"}}, Default: map[string]string{"axis": "y"}},
	{Name: "oak_leaves", Flags: solid, Tags: []string{"leaves", "replaceable_by_trees"},
		Properties: map[string][]string{"persistent": {"false", "true"}, "distance": {"1", "2", "3", "4", "5", "6", "7"}},
		Default:    map[string]string{"distance": "7"}},
	{Name: "short_grass", Flags: []string{"replaceable"}, Tags: []string{"replaceable_by_trees"}, Support: block.SupportSoil},
	{Name: "dandelion", Support: block.SupportSoil, Tags: []string{"flowers"}},
	{Name: "vine", Flags: []string{"replaceable"}, Tags: []string{"replaceable_by_trees"}, Support: block.SupportWall,
		Properties: map[string][]string{"up": {"false", "true"}, "north": {"false", "true"}, "east": {"false", "true"},
			"south": {"false", "true"}, "west": {"false", "true"}}},
	{Name: "cactus", Flags: []string{"solid"}, Support: block.SupportSand,
		Properties: map[string][]string{"age": {"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15"}}},
	{Name: "netherrack", Flags: solid, Tags: []string{"base_stone_nether"}},
	{Name: "blackstone", Flags: solid},
	{Name: "basalt", Flags: solid, Properties: map[string][]string{"axis": {"x", "y", "z"}}, Default: map[string]string{"axis": "y"}},
	{Name: "obsidian", Flags: solid},
	{Name: "end_stone", Flags: solid},
	{Name: "terracotta", Flags: solid, Tags: []string{"terracotta"}},
	{Name: "orange_terracotta", Flags: solid, Tags: []string{"terracotta"}},
	{Name: "yellow_terracotta", Flags: solid, Tags: []string{"terracotta"}},
	{Name: "brown_terracotta", Flags: solid, Tags: []string{"terracotta"}},
	{Name: "red_terracotta", Flags: solid, Tags: []string{"terracotta"}},
	{Name: "white_terracotta", Flags: solid, Tags: []string{"terracotta"}},
	{Name: "light_gray_terracotta", Flags: solid, Tags: []string{"terracotta"}},
	{Name: "packed_ice", Flags: solid, Tags: []string{"ice"}},
	{Name: "snow_block", Flags: solid},
	{Name: "tube_coral_block", Flags: solid, Tags: []string{"coral_blocks"}},
	{Name: "brain_coral_block", Flags: solid, Tags: []string{"coral_blocks"}},
	{Name: "tube_coral", Tags: []string{"corals"}, Support: block.SupportSturdyBelow,
		Properties: map[string][]string{"waterlogged": {"false", "true"}}, Default: map[string]string{"waterlogged": "true"}},
	{Name: "brain_coral_fan", Tags: []string{"corals"}, Support: block.SupportSturdyBelow,
		Properties: map[string][]string{"waterlogged": {"false", "true"}}, Default: map[string]string{"waterlogged": "true"}},
	{Name: "tube_coral_wall_fan", Tags: []string{"wall_corals"},
		Properties: map[string][]string{"facing": {"north", "south", "west", "east"}, "waterlogged": {"false", "true"}},
		Default:    map[string]string{"waterlogged": "true"}},
	{Name: "brain_coral_wall_fan", Tags: []string{"wall_corals"},
		Properties: map[string][]string{"facing": {"north", "south", "west", "east"}, "waterlogged": {"false", "true"}},
		Default:    map[string]string{"waterlogged": "true"}},
	{Name: "sea_pickle", Support: block.SupportSturdyBelow,
		Properties: map[string][]string{"pickles": {"1", "2", "3", "4"}, "waterlogged": {"false", "true"}},
		Default:    map[string]string{"waterlogged": "true"}},
	{Name: "dripstone_block", Flags: solid},
	{Name: "pointed_dripstone",
		Properties: map[string][]string{"thickness": {"tip_merge", "tip", "frustum", "middle", "base"},
			"vertical_direction": {"up", "down"}, "waterlogged": {"false", "true"}},
		Default: map[string]string{"vertical_direction": "up"}},
}

// Registry builds the test registry, failing the test on error.
func Registry(t testing.TB) *block.Registry {
	t.Helper()
	r, err := block.NewRegistry(Definitions)
	if err != nil {
		t.Fatalf("blocktest: %v", err)
	}
	return r
}

// Must resolves a state by name with optional "key", "value" pairs.
func Must(r *block.Registry, name string, kv ...string) *block.State {
	s := r.MustDefault(name)
	for i := 0; i+1 < len(kv); i += 2 {
		s = s.With(kv[i], kv[i+1])
	}
	return s
}
