package density

import (
	"math"

	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

// ClimatePoint is a quantized climate sample in biome parameter space.
type ClimatePoint struct {
	Temperature     int64
	Humidity        int64
	Continentalness int64
	Erosion         int64
	Depth           int64
	Weirdness       int64
}

// Quantize converts a climate value to biome parameter units.
func Quantize(v float64) int64 {
	return int64(float32(v) * 10000)
}

// MultiNoiseSampler samples the climate entries of a chunk router.
type MultiNoiseSampler struct {
	c *ChunkRouter
}

// Climate returns the climate sampler backed by c.
func (c *ChunkRouter) Climate() MultiNoiseSampler { return MultiNoiseSampler{c: c} }

// Sample evaluates the climate at a biome coordinate.
func (s MultiNoiseSampler) Sample(biomeX, biomeY, biomeZ int) ClimatePoint {
	x, y, z := pos.BiomeToBlock(biomeX), pos.BiomeToBlock(biomeY), pos.BiomeToBlock(biomeZ)
	return ClimatePoint{
		Temperature:     Quantize(s.c.SampleAt(EntryTemperature, x, y, z)),
		Humidity:        Quantize(s.c.SampleAt(EntryVegetation, x, y, z)),
		Continentalness: Quantize(s.c.SampleAt(EntryContinents, x, y, z)),
		Erosion:         Quantize(s.c.SampleAt(EntryErosion, x, y, z)),
		Depth:           Quantize(s.c.SampleAt(EntryDepth, x, y, z)),
		Weirdness:       Quantize(s.c.SampleAt(EntryRidges, x, y, z)),
	}
}

// NoSurface is the preliminary surface of a column with no solid cell.
const NoSurface = math.MaxInt32

const surfaceThreshold = 0.390625

// PreliminarySurface estimates the terrain height of the biome-aligned column
// containing (x, z) by scanning initial_density_without_jaggedness down from
// the top one cell at a time.
func (c *ChunkRouter) PreliminarySurface(x, z int) int {
	bx := pos.BiomeToBlock(pos.BiomeFromBlock(x))
	bz := pos.BiomeToBlock(pos.BiomeFromBlock(z))
	key := [2]int{bx, bz}
	if c.surface == nil {
		c.surface = make(map[[2]int]int)
	}
	if v, ok := c.surface[key]; ok {
		return v
	}
	v := NoSurface
	minY := c.opts.MinY
	top := minY + c.opts.CellCountY*c.opts.CellHeight
	id := c.proto.Entry(EntryInitialDensityWithoutJaggedness)
	for y := top; y >= minY; y -= c.opts.CellHeight {
		if c.sampleDirect(id, bx, y, bz) > surfaceThreshold {
			v = y
			break
		}
	}
	c.surface[key] = v
	return v
}
