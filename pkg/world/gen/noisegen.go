package gen

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/density"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
	"github.com/go-theft-craft/worldgen/pkg/world/surface"
)

// NoiseGenerator generates chunks of one dimension for one seed. Everything
// it holds is read-only after construction; each chunk gets its own
// ProtoChunk and density router.
type NoiseGenerator struct {
	dim      *Dimension
	seed     int64
	log      *slog.Logger
	proto    *density.ProtoRouters
	surface  *surface.Builder
	veins    *OreVeins
	fluids   fluidPicker
	zoomSeed int64
}

var _ Generator = (*NoiseGenerator)(nil)

// NewNoiseGenerator seeds dim. It instantiates every noise the router and
// surface rule reference.
func NewNoiseGenerator(dim *Dimension, seed int64, log *slog.Logger) (*NoiseGenerator, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := dim.Settings
	cfg := density.NewGlobalRandomConfig(seed, s.LegacyRandomSource)
	noises := density.NewNoises(cfg, dim.Noises)
	proto, err := density.NewProtoRouters(dim.Router, noises)
	if err != nil {
		return nil, fmt.Errorf("seed %s routers: %w", dim.Name, err)
	}
	env := surface.Env{Blocks: dim.Blocks, Biomes: dim.Biomes, Noises: noises, Random: cfg}
	rule, err := surface.ParseRule(env, s.SurfaceRule)
	if err != nil {
		return nil, fmt.Errorf("seed %s surface rule: %w", dim.Name, err)
	}
	builder, err := surface.NewBuilder(env, rule, dim.DefaultBlock, s.SeaLevel)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", dim.Name, err)
	}
	g := &NoiseGenerator{
		dim:      dim,
		seed:     seed,
		log:      log,
		proto:    proto,
		surface:  builder,
		fluids:   newFluidPicker(s.SeaLevel, dim.DefaultFluid, dim.Blocks.Lava),
		zoomSeed: biome.ZoomSeed(seed),
	}
	if s.OreVeinsEnabled {
		if g.veins, err = NewOreVeins(dim.Blocks, cfg.Ore); err != nil {
			return nil, fmt.Errorf("seed %s: %w", dim.Name, err)
		}
	}
	log.Debug("noise generator ready",
		"dimension", dim.Name,
		"seed", seed,
		"aquifers", s.AquifersEnabled,
		"ore_veins", s.OreVeinsEnabled,
		"feature_steps", dim.Steps())
	return g, nil
}

// Dimension returns the dimension the generator was built from.
func (g *NoiseGenerator) Dimension() *Dimension { return g.dim }

// Seed returns the world seed.
func (g *NoiseGenerator) Seed() int64 { return g.seed }

// HeightContext returns the vertical range of generated chunks.
func (g *NoiseGenerator) HeightContext() provider.HeightContext {
	return g.dim.Settings.HeightContext()
}

// Blocks returns the dimension's block registry.
func (g *NoiseGenerator) Blocks() *block.Registry { return g.dim.Blocks }

// NewChunk starts an empty chunk at cp. Callers run the passes in order.
func (g *NoiseGenerator) NewChunk(cp pos.Chunk) *ProtoChunk { return newProtoChunk(g, cp) }

// Generate runs every pass for cp.
func (g *NoiseGenerator) Generate(cp pos.Chunk, nb Neighbours) *ChunkData {
	c := g.NewChunk(cp)
	c.PopulateNoise()
	c.PopulateBiomes()
	c.BuildSurface()
	c.GenerateFeatures(nb)
	return c.Data()
}

// HeightAt estimates the terrain height of a column from the preliminary
// surface, without generating the chunk.
func (g *NoiseGenerator) HeightAt(blockX, blockZ int) int {
	c := g.NewChunk(pos.Block{X: blockX, Z: blockZ}.Chunk())
	h := c.router.PreliminarySurface(blockX, blockZ)
	if h == density.NoSurface {
		return g.HeightContext().MinY
	}
	return h
}
