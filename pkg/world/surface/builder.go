package surface

import (
	"fmt"
	"math"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/density"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/noise"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

const bandCount = 192

// Builder runs a rule tree over chunks of one seeded dimension. It is
// immutable after NewBuilder and safe for concurrent use.
type Builder struct {
	Rule     Rule
	Default  *block.State
	SeaLevel int
	legacy   bool

	random random.Splitter

	depth          *noise.DoublePerlin
	secondary      *noise.DoublePerlin
	clayOffset     *noise.DoublePerlin
	badlandsPillar *noise.DoublePerlin
	badlandsRoof   *noise.DoublePerlin
	badlandsTop    *noise.DoublePerlin
	icebergPillar  *noise.DoublePerlin
	icebergRoof    *noise.DoublePerlin
	icebergTop     *noise.DoublePerlin

	bands [bandCount]*block.State

	air, water, packedIce, snowBlock *block.State

	erodedBadlands, frozenOcean, deepFrozenOcean *biome.Biome
}

// NewBuilder binds rule to the seeded noises of env.
func NewBuilder(env Env, rule Rule, defaultState *block.State, seaLevel int) (*Builder, error) {
	b := &Builder{
		Rule:     rule,
		Default:  defaultState,
		SeaLevel: seaLevel,
		legacy:   env.Random.Legacy,
		random:   env.Random.Base,
		water:    env.Blocks.Water,
		air:      env.Blocks.Air,
	}
	for key, dst := range map[string]**noise.DoublePerlin{
		"minecraft:surface":              &b.depth,
		"minecraft:surface_secondary":    &b.secondary,
		"minecraft:clay_bands_offset":    &b.clayOffset,
		"minecraft:badlands_pillar":      &b.badlandsPillar,
		"minecraft:badlands_pillar_roof": &b.badlandsRoof,
		"minecraft:badlands_surface":     &b.badlandsTop,
		"minecraft:iceberg_pillar":       &b.icebergPillar,
		"minecraft:iceberg_pillar_roof":  &b.icebergRoof,
		"minecraft:iceberg_surface":      &b.icebergTop,
	} {
		n, err := env.Noises.Get(key)
		if err != nil {
			return nil, fmt.Errorf("surface builder: %w", err)
		}
		*dst = n
	}

	named := make(map[string]*block.State)
	for _, name := range []string{"packed_ice", "snow_block", "terracotta", "orange_terracotta", "yellow_terracotta",
		"brown_terracotta", "red_terracotta", "white_terracotta", "light_gray_terracotta"} {
		blk, ok := env.Blocks.ByName(name)
		if !ok {
			return nil, fmt.Errorf("surface builder: registry is missing %s", name)
		}
		named[name] = blk.DefaultState
	}
	b.packedIce, b.snowBlock = named["packed_ice"], named["snow_block"]
	b.bands = generateBands(env.Random.Base.SplitString("minecraft:clay_bands"), named)

	b.erodedBadlands, _ = env.Biomes.ByName("eroded_badlands")
	b.frozenOcean, _ = env.Biomes.ByName("frozen_ocean")
	b.deepFrozenOcean, _ = env.Biomes.ByName("deep_frozen_ocean")
	return b, nil
}

func generateBands(r random.Random, s map[string]*block.State) [bandCount]*block.State {
	var bands [bandCount]*block.State
	for i := range bands {
		bands[i] = s["terracotta"]
	}
	for i := 0; i < bandCount; i++ {
		i += r.NextBoundedInt(5) + 1
		if i < bandCount {
			bands[i] = s["orange_terracotta"]
		}
	}
	makeBands(r, &bands, 1, s["yellow_terracotta"])
	makeBands(r, &bands, 2, s["brown_terracotta"])
	makeBands(r, &bands, 1, s["red_terracotta"])

	white := r.NextInBetween(9, 15)
	for n, k := 0, 0; n < white && k < bandCount; k += r.NextBoundedInt(16) + 4 {
		bands[k] = s["white_terracotta"]
		if k-1 > 0 && r.NextBool() {
			bands[k-1] = s["light_gray_terracotta"]
		}
		if k+1 < bandCount && r.NextBool() {
			bands[k+1] = s["light_gray_terracotta"]
		}
		n++
	}
	return bands
}

func makeBands(r random.Random, bands *[bandCount]*block.State, minWidth int, s *block.State) {
	count := r.NextInBetween(6, 15)
	for range count {
		width := minWidth + r.NextBoundedInt(3)
		start := r.NextBoundedInt(bandCount)
		for m := 0; start+m < bandCount && m < width; m++ {
			bands[start+m] = s
		}
	}
}

func (b *Builder) band(x, y, z int) *block.State {
	off := int(math.Floor(b.clayOffset.Sample(float64(x), 0, float64(z))*4 + 0.5))
	i := (y + off + bandCount) % bandCount
	if i < 0 {
		i += bandCount
	}
	return b.bands[i]
}

func (b *Builder) surfaceDepth(x, z int) int {
	d := b.depth.Sample(float64(x), 0, float64(z))
	return int(d*2.75 + 3 + b.random.SplitPos(x, 0, z).NextDouble()*0.25)
}

// column reads blocks of one column and reports air outside the world.
type column struct {
	chunk      Chunk
	x, z       int
	minY, maxY int
	air        *block.State
}

func (c column) get(y int) *block.State {
	if y < c.minY || y > c.maxY {
		return c.air
	}
	return c.chunk.BlockState(pos.Block{X: c.x, Y: y, Z: c.z})
}

func (c column) set(y int, s *block.State) {
	if y < c.minY || y > c.maxY {
		return
	}
	c.chunk.SetBlockState(pos.Block{X: c.x, Y: y, Z: c.z}, s)
}

func isStone(s *block.State) bool { return !s.IsAir() && !s.IsLiquid() }

// Build rewrites every column of chunk top down. router supplies the
// preliminary surface estimate and biomeAt the zoomed biome of a block.
func (b *Builder) Build(chunk Chunk, router *density.ChunkRouter, biomeAt BiomeFunc) {
	hc := chunk.HeightContext()
	cp := chunk.Pos()
	ctx := &Context{builder: b, chunk: chunk, router: router, biomeAt: biomeAt, height: hc}
	minY := hc.MinY

	for lx := range 16 {
		for lz := range 16 {
			x, z := cp.StartX()+lx, cp.StartZ()+lz
			col := column{chunk: chunk, x: x, z: z, minY: minY, maxY: hc.MaxY(), air: b.air}

			top := chunk.Top(heightmap.WorldSurfaceWG, x, z)
			lookupY := top
			if b.legacy {
				lookupY = 0
			}
			colBiome := biomeAt(pos.Block{X: x, Y: lookupY, Z: z})
			if colBiome != nil && colBiome == b.erodedBadlands {
				b.erodedBadlandsPillar(col, x, z, top)
			}
			start := chunk.Top(heightmap.WorldSurfaceWG, x, z)
			ctx.updateXZ(x, z)

			stoneAbove := 0
			waterHeight := math.MinInt
			stoneFloor := math.MaxInt
			for y := start; y >= minY; y-- {
				s := col.get(y)
				if s.IsAir() {
					stoneAbove = 0
					waterHeight = math.MinInt
					continue
				}
				if s.IsLiquid() {
					if waterHeight == math.MinInt {
						waterHeight = y + 1
					}
					continue
				}
				if stoneFloor >= y {
					stoneFloor = minY
					for v := y - 1; v >= minY-1; v-- {
						if !isStone(col.get(v)) {
							stoneFloor = v + 1
							break
						}
					}
				}
				stoneAbove++
				ctx.updateY(stoneAbove, y-stoneFloor+1, waterHeight, y)
				if s != b.Default {
					continue
				}
				if r := b.Rule.Apply(ctx); r != nil {
					col.set(y, r)
				}
			}

			if colBiome != nil && (colBiome == b.frozenOcean || colBiome == b.deepFrozenOcean) {
				b.frozenOceanIceberg(ctx.MinSurfaceLevel(), colBiome, col, x, z, top)
			}
		}
	}
}

func (b *Builder) erodedBadlandsPillar(col column, x, z, top int) {
	fx, fz := float64(x), float64(z)
	e := min(math.Abs(b.badlandsTop.Sample(fx, 0, fz)*8.25), b.badlandsPillar.Sample(fx*0.2, 0, fz*0.2)*15)
	if e <= 0 {
		return
	}
	g := math.Abs(b.badlandsRoof.Sample(fx*0.75, 0, fz*0.75) * 1.5)
	h := 64 + min(e*e*2.5, math.Ceil(g*50)+24)
	peak := noise.Floor(h)
	if top > peak {
		return
	}
	for y := peak; y >= col.minY; y-- {
		s := col.get(y)
		if s.Block == b.Default.Block {
			break
		}
		if s.Block == b.water.Block {
			return
		}
	}
	for y := peak; y >= col.minY && col.get(y).IsAir(); y-- {
		col.set(y, b.Default)
	}
}

func (b *Builder) frozenOceanIceberg(minSurface int, bm *biome.Biome, col column, x, z, top int) {
	fx, fz := float64(x), float64(z)
	e := min(math.Abs(b.icebergTop.Sample(fx, 0, fz)*8.25), b.icebergPillar.Sample(fx*1.28, 0, fz*1.28)*15)
	if e <= 1.8 {
		return
	}
	h := math.Abs(b.icebergRoof.Sample(fx*1.17, 0, fz*1.17) * 1.5)
	peak := min(e*e*1.2, math.Ceil(h*40)+14)
	if bm.ShouldMeltFrozenOceanIcebergSlightly(pos.Block{X: x, Y: 63, Z: z}, b.SeaLevel) {
		peak -= 2
	}
	var floor float64
	if peak > 2 {
		floor = float64(b.SeaLevel) - peak - 7
		peak += float64(b.SeaLevel)
	} else {
		peak, floor = 0, 0
	}

	r := b.random.SplitPos(x, 0, z)
	maxSnow := 2 + r.NextBoundedInt(4)
	snowLine := b.SeaLevel + 18 + r.NextBoundedInt(10)
	snow := 0
	for y := max(top, int(peak)+1); y >= minSurface; y-- {
		s := col.get(y)
		fill := s.IsAir() && y < int(peak) && r.NextDouble() > 0.01
		if !fill {
			fill = s.Block == b.water.Block && y > int(floor) && y < b.SeaLevel && floor != 0 && r.NextDouble() > 0.15
		}
		if !fill {
			continue
		}
		if snow <= maxSnow && y > snowLine {
			col.set(y, b.snowBlock)
			snow++
			continue
		}
		col.set(y, b.packedIce)
	}
}
