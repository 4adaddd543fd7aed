package snapshot

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block/blocktest"
	"github.com/go-theft-craft/worldgen/pkg/world/gen"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

func flat(t *testing.T, top string, cps ...pos.Chunk) []*gen.ChunkData {
	t.Helper()
	reg := blocktest.Registry(t)
	biomes, err := biome.NewRegistry(json.RawMessage(`{"minecraft:plains": {}, "minecraft:desert": {}}`))
	require.NoError(t, err)
	plains, _ := biomes.ByName("plains")
	g, err := gen.NewFlatGenerator(reg, biomes, provider.HeightContext{MinY: 0, Height: 32}, plains,
		gen.FlatLayer{State: reg.MustDefault("bedrock"), Height: 1},
		gen.FlatLayer{State: reg.MustDefault(top), Height: 2},
	)
	require.NoError(t, err)
	out := make([]*gen.ChunkData, len(cps))
	for i, cp := range cps {
		out[i] = g.Generate(cp, nil)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	s := FromChunks("overworld", 42, flat(t, "dirt", pos.Chunk{X: 1}, pos.Chunk{X: 0}))
	require.Len(t, s.Chunks, 2)
	assert.Equal(t, 0, s.Chunks[0].X, "chunks are sorted")
	assert.Equal(t, []string{"minecraft:bedrock", "minecraft:dirt", "minecraft:air"}, s.BlockPalette)
	assert.Equal(t, []string{"minecraft:plains"}, s.BiomePalette)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, s.Header, got.Header)
	assert.Equal(t, s.BlockPalette, got.BlockPalette)
	assert.Equal(t, s.Chunks, got.Chunks)
	assert.Empty(t, Diff(s, got, 0))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "area.snap.zst")
	s := FromChunks("nether", -7, flat(t, "netherrack", pos.Chunk{Z: -3}))
	require.NoError(t, Save(path, s))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nether", got.Header.Dimension)
	assert.Equal(t, int64(-7), got.Header.Seed)
	assert.Empty(t, Diff(s, got, 0))
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not a snapshot")))
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	a := FromChunks("overworld", 1, flat(t, "dirt", pos.Chunk{}))
	b := FromChunks("overworld", 1, flat(t, "sand", pos.Chunk{}))

	all := Diff(a, b, 0)
	// 256 columns of two blocks each differ.
	assert.Len(t, all, 512)
	assert.Contains(t, all[0], "minecraft:dirt != minecraft:sand")

	assert.Len(t, Diff(a, b, 3), 3)

	c := FromChunks("overworld", 2, flat(t, "dirt", pos.Chunk{}))
	d := Diff(a, c, 0)
	require.Len(t, d, 1)
	assert.Contains(t, d[0], "header")

	e := FromChunks("overworld", 1, flat(t, "dirt", pos.Chunk{}, pos.Chunk{X: 1}))
	assert.NotEmpty(t, Diff(a, e, 0))
}
