package gen

import (
	"slices"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/feature"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// GenerateFeatures runs every placed feature the chunk's biomes list, step
// by step. Each feature gets its own random seeded from the chunk origin,
// its step and its index in the step. nb may be nil; reads of chunks it
// does not return see air.
func (c *ProtoChunk) GenerateFeatures(nb Neighbours) {
	c.advance(StageSurface, StageFeatures)
	d := c.gen.dim
	w := &decorationWorld{chunk: c, nb: nb, seen: make(map[pos.Chunk]*ChunkData)}
	origin := pos.Block{X: c.pos.StartX(), Y: c.height.MinY, Z: c.pos.StartZ()}
	population := random.PopulationSeed(c.gen.seed, origin.X, origin.Z)
	present := c.presentBiomes()

	for step, features := range d.steps {
		var indices []int
		for _, b := range present {
			if step >= len(b.Features) {
				continue
			}
			for _, name := range b.Features[step] {
				i := d.index[step][provider.Namespaced(name)]
				if !slices.Contains(indices, i) {
					indices = append(indices, i)
				}
			}
		}
		slices.Sort(indices)
		for _, i := range indices {
			f := features[i]
			ctx := &feature.Context{
				World:  w,
				Blocks: d.Blocks,
				Random: random.NewXoroshiro(random.DecoratorSeed(population, i, step)),
				Placed: f.Name,
			}
			f.Generate(ctx, origin)
		}
	}
}

// presentBiomes lists the distinct biomes of the chunk in id order.
func (c *ProtoChunk) presentBiomes() []*biome.Biome {
	var ids []int
	for _, s := range c.sections {
		for _, id := range s.Biomes {
			if !slices.Contains(ids, int(id)) {
				ids = append(ids, int(id))
			}
		}
	}
	slices.Sort(ids)
	out := make([]*biome.Biome, len(ids))
	for i, id := range ids {
		out[i] = c.gen.dim.Biomes.ByID(id)
	}
	return out
}

// decorationWorld is the feature view of a chunk: writes land only in the
// chunk, reads outside it go to finished neighbours.
type decorationWorld struct {
	chunk *ProtoChunk
	nb    Neighbours
	// seen pins each neighbour lookup so the chunk sees one consistent
	// view even if a neighbour finishes mid pass.
	seen map[pos.Chunk]*ChunkData
}

func (w *decorationWorld) neighbour(cp pos.Chunk) *ChunkData {
	if w.nb == nil {
		return nil
	}
	if d, ok := w.seen[cp]; ok {
		return d
	}
	d := w.nb.Chunk(cp)
	w.seen[cp] = d
	return d
}

func (w *decorationWorld) BlockState(p pos.Block) *block.State {
	if w.chunk.pos.Contains(p.X, p.Z) {
		return w.chunk.BlockState(p)
	}
	if d := w.neighbour(p.Chunk()); d != nil {
		return d.BlockState(p)
	}
	return w.chunk.gen.dim.Blocks.Air
}

func (w *decorationWorld) SetBlockState(p pos.Block, s *block.State) bool {
	if !w.chunk.pos.Contains(p.X, p.Z) {
		return false
	}
	return w.chunk.SetBlockState(p, s)
}

func (w *decorationWorld) Top(k heightmap.Kind, x, z int) int {
	if w.chunk.pos.Contains(x, z) {
		return w.chunk.Top(k, x, z)
	}
	if d := w.neighbour(pos.Chunk{X: x >> 4, Z: z >> 4}); d != nil {
		return d.Top(k, x, z)
	}
	return w.chunk.height.MinY
}

func (w *decorationWorld) Biome(p pos.Block) *biome.Biome { return w.chunk.Biome(p) }

func (w *decorationWorld) HeightContext() provider.HeightContext { return w.chunk.height }

func (w *decorationWorld) Seed() int64 { return w.chunk.gen.seed }
