package heightmap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/block/blocktest"
)

func TestUpdateMatchesRescan(t *testing.T) {
	reg := blocktest.Registry(t)
	const minY, maxY = -8, 23
	col := make(map[int]*block.State)
	read := func(y int) *block.State {
		if s, ok := col[y]; ok {
			return s
		}
		return reg.Air
	}
	set := NewSet(minY)
	write := func(y int, name string) {
		s := reg.MustDefault(name)
		col[y] = s
		set.Update(3, y, 5, s, read)
	}

	steps := []struct {
		y    int
		name string
	}{
		{0, "stone"}, {1, "stone"}, {2, "water"}, {3, "water"}, {4, "oak_leaves"},
		{10, "short_grass"}, {4, "air"}, {10, "air"}, {3, "air"}, {1, "air"}, {-8, "bedrock"},
		{0, "air"}, {20, "oak_leaves"}, {23, "stone"}, {23, "air"},
	}
	for _, st := range steps {
		write(st.y, st.name)
		for _, k := range Kinds {
			assert.Equal(t, Rescan(k, minY, maxY, read), set.Top(k, 3, 5), "%s after %s at %d", k, st.name, st.y)
		}
	}
}

func TestKindPredicates(t *testing.T) {
	reg := blocktest.Registry(t)
	water := reg.MustDefault("water")
	leaves := reg.MustDefault("oak_leaves")
	grass := reg.MustDefault("short_grass")

	assert.True(t, WorldSurfaceWG.Matches(grass))
	assert.False(t, OceanFloor.Matches(water))
	assert.True(t, MotionBlocking.Matches(water))
	assert.True(t, MotionBlocking.Matches(leaves))
	assert.False(t, MotionBlockingNoLeaves.Matches(leaves))
	assert.False(t, WorldSurface.Matches(reg.Air))
}

func TestParseKind(t *testing.T) {
	var k Kind
	require.NoError(t, json.Unmarshal([]byte(`"OCEAN_FLOOR_WG"`), &k))
	assert.Equal(t, OceanFloorWG, k)
	assert.Equal(t, "OCEAN_FLOOR_WG", k.String())
	assert.Error(t, json.Unmarshal([]byte(`"ROOF"`), &k))
}
