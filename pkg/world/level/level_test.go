package level

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block/blocktest"
	"github.com/go-theft-craft/worldgen/pkg/world/gen"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// countingGen wraps a flat generator, counting calls and recording which
// west neighbours were visible.
type countingGen struct {
	*gen.FlatGenerator
	calls atomic.Int32
	gate  chan struct{}

	mu      sync.Mutex
	sawWest map[pos.Chunk]bool
}

func (g *countingGen) Generate(cp pos.Chunk, nb gen.Neighbours) *gen.ChunkData {
	g.calls.Add(1)
	if g.gate != nil {
		<-g.gate
	}
	west := nb.Chunk(pos.Chunk{X: cp.X - 1, Z: cp.Z}) != nil
	g.mu.Lock()
	g.sawWest[cp] = west
	g.mu.Unlock()
	return g.FlatGenerator.Generate(cp, nb)
}

func newCountingGen(t *testing.T) *countingGen {
	t.Helper()
	reg := blocktest.Registry(t)
	biomes, err := biome.NewRegistry(json.RawMessage(`{"minecraft:plains": {}}`))
	require.NoError(t, err)
	plains, _ := biomes.ByName("plains")
	flat, err := gen.NewFlatGenerator(reg, biomes, provider.HeightContext{MinY: -16, Height: 32}, plains,
		gen.FlatLayer{State: reg.MustDefault("bedrock"), Height: 1},
		gen.FlatLayer{State: reg.MustDefault("stone"), Height: 3},
		gen.FlatLayer{State: reg.MustDefault("grass_block"), Height: 1},
	)
	require.NoError(t, err)
	return &countingGen{FlatGenerator: flat, sawWest: make(map[pos.Chunk]bool)}
}

func TestGenerateCaches(t *testing.T) {
	g := newCountingGen(t)
	l := New(g, nil, WithWorkers(2))
	cp := pos.Chunk{X: 3, Z: -1}

	assert.Nil(t, l.Chunk(cp))
	c, err := l.Generate(context.Background(), cp)
	require.NoError(t, err)
	assert.Equal(t, cp, c.Pos)
	assert.Same(t, c, l.Chunk(cp))

	again, err := l.Generate(context.Background(), cp)
	require.NoError(t, err)
	assert.Same(t, c, again)
	assert.Equal(t, int32(1), g.calls.Load())

	select {
	case <-l.Done(cp):
	default:
		t.Fatal("done channel still open after generation")
	}
}

func TestConcurrentGenerateSharesWork(t *testing.T) {
	g := newCountingGen(t)
	g.gate = make(chan struct{})
	l := New(g, nil, WithWorkers(4))
	cp := pos.Chunk{X: 0, Z: 0}

	const callers = 8
	results := make([]*gen.ChunkData, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := l.Generate(context.Background(), cp)
			assert.NoError(t, err)
			results[i] = c
		}()
	}
	close(g.gate)
	wg.Wait()

	for _, c := range results {
		assert.Same(t, results[0], c)
	}
	assert.Equal(t, int32(1), g.calls.Load())
}

func TestGenerateCancelled(t *testing.T) {
	g := newCountingGen(t)
	g.gate = make(chan struct{})
	l := New(g, nil, WithWorkers(1))
	cp := pos.Chunk{X: 5, Z: 5}

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := l.Generate(ctx, cp)
		errs <- err
	}()
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errs, context.Canceled)

	// The running generation still lands in the cache.
	close(g.gate)
	c, err := l.Wait(context.Background(), cp)
	require.NoError(t, err)
	assert.Equal(t, cp, c.Pos)
}

func TestGenerateArea(t *testing.T) {
	g := newCountingGen(t)
	l := New(g, nil, WithWorkers(1))

	chunks, err := l.GenerateArea(context.Background(), pos.Chunk{X: 10, Z: 10}, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 25)
	assert.Equal(t, pos.Chunk{X: 10, Z: 10}, chunks[0].Pos)
	assert.Equal(t, int32(25), g.calls.Load())
	assert.Len(t, l.Chunks(), 25)
	assert.Equal(t, pos.Chunk{X: 8, Z: 8}, l.Chunks()[0].Pos)

	// One worker generates in Area order, so the centre is visible to its
	// east neighbour and nothing is visible to the centre.
	assert.False(t, g.sawWest[pos.Chunk{X: 10, Z: 10}])
	assert.True(t, g.sawWest[pos.Chunk{X: 11, Z: 10}])

	_, err = l.GenerateArea(context.Background(), pos.Chunk{}, -1)
	assert.Error(t, err)
}

func TestArea(t *testing.T) {
	area := Area(pos.Chunk{X: 1, Z: 2}, 1)
	require.Len(t, area, 9)
	assert.Equal(t, pos.Chunk{X: 1, Z: 2}, area[0])
	for _, c := range area[1:] {
		assert.LessOrEqual(t, abs(c.X-1), 1)
		assert.LessOrEqual(t, abs(c.Z-2), 1)
	}
	assert.Equal(t, []pos.Chunk{{X: 0, Z: 0}}, Area(pos.Chunk{}, 0))
}

func TestLevelReads(t *testing.T) {
	g := newCountingGen(t)
	l := New(g, nil)

	p := pos.Block{X: 40, Y: -12, Z: 7}
	assert.True(t, l.IsAir(p), "ungenerated chunks read as air")
	assert.Equal(t, -16, l.TopBlockHeightExclusive(40, 7))

	_, err := l.Generate(context.Background(), p.Chunk())
	require.NoError(t, err)
	assert.Equal(t, "minecraft:grass_block", l.BlockState(p).Name())
	assert.Equal(t, "minecraft:bedrock", l.BlockState(pos.Block{X: 40, Y: -16, Z: 7}).Name())
	assert.Equal(t, -11, l.TopBlockHeightExclusive(40, 7))
	assert.Equal(t, -11, l.OceanFloorHeightExclusive(40, 7))
	assert.Equal(t, -11, l.Top(heightmap.MotionBlocking, 40, 7))
	assert.Equal(t, -11, l.SpawnHeight())
	assert.Positive(t, l.Workers())
}
