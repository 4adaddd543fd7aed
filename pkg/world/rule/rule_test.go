package rule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/block/blocktest"
)

func TestParseAndTest(t *testing.T) {
	reg := blocktest.Registry(t)
	deepslate := reg.MustDefault("deepslate")
	states := map[string]*block.State{
		"stone":     reg.MustDefault("stone"),
		"deepslate": deepslate,
		"tilted":    deepslate.With("axis", "x"),
	}

	tests := []struct {
		name  string
		json  string
		match map[string]bool
	}{
		{"always", `{"predicate_type": "minecraft:always_true"}`,
			map[string]bool{"stone": true, "deepslate": true, "tilted": true}},
		{"block", `{"predicate_type": "minecraft:block_match", "block": "minecraft:deepslate"}`,
			map[string]bool{"stone": false, "deepslate": true, "tilted": true}},
		{"state", `{"predicate_type": "minecraft:blockstate_match", "block_state": {"Name": "minecraft:deepslate", "Properties": {"axis": "x"}}}`,
			map[string]bool{"stone": false, "deepslate": false, "tilted": true}},
		{"tag", `{"predicate_type": "tag_match", "tag": "minecraft:stone_ore_replaceables"}`,
			map[string]bool{"stone": true, "deepslate": false, "tilted": false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := Parse(reg, json.RawMessage(tt.json))
			require.NoError(t, err)
			for name, want := range tt.match {
				assert.Equal(t, want, rt.Test(states[name], nil), name)
			}
		})
	}
}

func TestRandomMatchConsumesOneDraw(t *testing.T) {
	reg := blocktest.Registry(t)
	stone := reg.MustDefault("stone")
	gravel := reg.MustDefault("gravel")

	rt, err := Parse(reg, json.RawMessage(`{"predicate_type": "minecraft:random_block_match", "block": "stone", "probability": 0.5}`))
	require.NoError(t, err)

	r := random.NewLegacy(11)
	ref := random.NewLegacy(11)
	for range 50 {
		want := ref.NextFloat() < 0.5
		assert.Equal(t, want, rt.Test(stone, r))
	}

	// A non-matching block short-circuits before the draw.
	before := random.NewLegacy(11)
	after := random.NewLegacy(11)
	assert.False(t, rt.Test(gravel, after))
	assert.Equal(t, before.NextLong(), after.NextLong())

	never, err := Parse(reg, json.RawMessage(`{"predicate_type": "minecraft:random_blockstate_match", "block_state": {"Name": "stone"}, "probability": 0}`))
	require.NoError(t, err)
	assert.False(t, never.Test(stone, random.NewXoroshiro(1)))
}

func TestParseErrors(t *testing.T) {
	reg := blocktest.Registry(t)
	for _, src := range []string{
		`{"predicate_type": "minecraft:block_match", "block": "minecraft:unobtainium"}`,
		`{"predicate_type": "minecraft:blockstate_match", "block_state": {"Name": "stone", "Properties": {"axis": "x"}}}`,
		`{"predicate_type": "minecraft:position_match"}`,
		`[]`,
	} {
		_, err := Parse(reg, json.RawMessage(src))
		assert.Error(t, err, src)
	}
}
