// Package level owns the generated chunks of one world and schedules their
// generation across goroutines.
package level

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/gen"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

// task is one chunk's slot. done closes once data is set.
type task struct {
	done chan struct{}
	data *gen.ChunkData
}

// Level caches generated chunks. Each chunk is generated at most once, no
// matter how many goroutines ask for it.
type Level struct {
	gen     gen.Generator
	log     *slog.Logger
	workers int
	sem     *semaphore.Weighted

	mu     sync.RWMutex
	chunks map[pos.Chunk]*task
	group  singleflight.Group
}

var _ gen.Neighbours = (*Level)(nil)

// Option configures a Level.
type Option func(*Level)

// WithWorkers caps how many chunks generate at once. Values below one mean
// one per CPU.
func WithWorkers(n int) Option {
	return func(l *Level) { l.workers = n }
}

// New creates an empty level backed by g.
func New(g gen.Generator, log *slog.Logger, opts ...Option) *Level {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	l := &Level{
		gen:    g,
		log:    log,
		chunks: make(map[pos.Chunk]*task),
	}
	for _, o := range opts {
		o(l)
	}
	if l.workers < 1 {
		l.workers = runtime.GOMAXPROCS(0)
	}
	l.sem = semaphore.NewWeighted(int64(l.workers))
	return l
}

// Generator returns the generator chunks come from.
func (l *Level) Generator() gen.Generator { return l.gen }

// Workers returns the generation concurrency limit.
func (l *Level) Workers() int { return l.workers }

// slot returns the task for cp, creating a pending one if needed.
func (l *Level) slot(cp pos.Chunk) *task {
	l.mu.RLock()
	t, ok := l.chunks[cp]
	l.mu.RUnlock()
	if ok {
		return t
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check after acquiring write lock.
	if t, ok := l.chunks[cp]; ok {
		return t
	}
	t = &task{done: make(chan struct{})}
	l.chunks[cp] = t
	return t
}

// Chunk returns the finished chunk at cp, or nil if it has not finished
// generating. It never blocks on generation.
func (l *Level) Chunk(cp pos.Chunk) *gen.ChunkData {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if t, ok := l.chunks[cp]; ok {
		return t.data
	}
	return nil
}

// Done returns a channel that closes once the chunk at cp has generated.
// Asking does not start generation.
func (l *Level) Done(cp pos.Chunk) <-chan struct{} { return l.slot(cp).done }

// Wait blocks until the chunk at cp has been generated by someone else or
// ctx ends.
func (l *Level) Wait(ctx context.Context, cp pos.Chunk) (*gen.ChunkData, error) {
	select {
	case <-l.Done(cp):
		return l.Chunk(cp), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Generate returns the chunk at cp, generating it first if needed.
// Concurrent calls for one chunk share a single generation. A cancelled ctx
// stops the wait; a generation already running still completes and is
// cached.
func (l *Level) Generate(ctx context.Context, cp pos.Chunk) (*gen.ChunkData, error) {
	if c := l.Chunk(cp); c != nil {
		return c, nil
	}
	ch := l.group.DoChan(cp.String(), func() (any, error) {
		if c := l.Chunk(cp); c != nil {
			return c, nil
		}
		if err := l.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer l.sem.Release(1)

		start := time.Now()
		c := l.gen.Generate(cp, l)
		t := l.slot(cp)
		l.mu.Lock()
		t.data = c
		l.mu.Unlock()
		close(t.done)
		l.log.Debug("chunk generated", "chunk", cp.String(), "took", time.Since(start))
		return c, nil
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, fmt.Errorf("generate chunk %s: %w", cp, r.Err)
		}
		return r.Val.(*gen.ChunkData), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Area lists the chunks within radius of center, nearest first. Chunks at
// the same distance keep x then z order.
func Area(center pos.Chunk, radius int) []pos.Chunk {
	out := make([]pos.Chunk, 0, (2*radius+1)*(2*radius+1))
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			out = append(out, pos.Chunk{X: center.X + dx, Z: center.Z + dz})
		}
	}
	ring := func(c pos.Chunk) int { return max(abs(c.X-center.X), abs(c.Z-center.Z)) }
	slices.SortStableFunc(out, func(a, b pos.Chunk) int { return ring(a) - ring(b) })
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// GenerateArea generates every chunk within radius of center, spreading the
// work over the level's workers. It returns the chunks in Area order.
func (l *Level) GenerateArea(ctx context.Context, center pos.Chunk, radius int) ([]*gen.ChunkData, error) {
	if radius < 0 {
		return nil, fmt.Errorf("generate area: negative radius %d", radius)
	}
	area := Area(center, radius)
	out := make([]*gen.ChunkData, len(area))

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, cp := range area {
		g.Go(func() error {
			c, err := l.Generate(ctx, cp)
			if err != nil {
				return err
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	l.log.Info("area generated",
		"center", center.String(),
		"radius", radius,
		"chunks", len(area),
		"workers", l.workers,
		"took", time.Since(start))
	return out, nil
}

// Chunks returns every finished chunk ordered by x then z.
func (l *Level) Chunks() []*gen.ChunkData {
	l.mu.RLock()
	out := make([]*gen.ChunkData, 0, len(l.chunks))
	for _, t := range l.chunks {
		if t.data != nil {
			out = append(out, t.data)
		}
	}
	l.mu.RUnlock()
	slices.SortFunc(out, func(a, b *gen.ChunkData) int {
		if a.Pos.X != b.Pos.X {
			return a.Pos.X - b.Pos.X
		}
		return a.Pos.Z - b.Pos.Z
	})
	return out
}

// BlockState returns the block at p. Chunks that have not generated read
// as air.
func (l *Level) BlockState(p pos.Block) *block.State {
	if c := l.Chunk(p.Chunk()); c != nil {
		return c.BlockState(p)
	}
	return l.gen.Blocks().Air
}

// IsAir reports whether the block at p is air.
func (l *Level) IsAir(p pos.Block) bool { return l.BlockState(p).IsAir() }

// Top returns the exclusive height of the column at (x, z) for k, or the
// bottom of the world if the chunk has not generated.
func (l *Level) Top(k heightmap.Kind, x, z int) int {
	if c := l.Chunk(pos.Chunk{X: x >> 4, Z: z >> 4}); c != nil {
		return c.Top(k, x, z)
	}
	return l.gen.HeightContext().MinY
}

// TopBlockHeightExclusive is the WORLD_SURFACE height of the column.
func (l *Level) TopBlockHeightExclusive(x, z int) int { return l.Top(heightmap.WorldSurface, x, z) }

// OceanFloorHeightExclusive is the OCEAN_FLOOR height of the column.
func (l *Level) OceanFloorHeightExclusive(x, z int) int { return l.Top(heightmap.OceanFloor, x, z) }

// SpawnHeight returns the terrain height at spawn (0, 0) + 1 for a player to
// stand on.
func (l *Level) SpawnHeight() int {
	return l.gen.HeightAt(0, 0) + 1
}
