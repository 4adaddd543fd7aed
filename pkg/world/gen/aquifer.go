package gen

import (
	"math"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/density"
	"github.com/go-theft-craft/worldgen/pkg/world/noise"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

// wayBelowMinY marks a fluid level no block can be under.
const wayBelowMinY = -32512

// FluidStatus fills every block below Level with State.
type FluidStatus struct {
	Level int
	State *block.State
}

func (f FluidStatus) at(y int, air *block.State) *block.State {
	if y < f.Level {
		return f.State
	}
	return air
}

// fluidPicker is the dimension wide fluid level: a lava sea deep down and
// the default fluid up to sea level.
type fluidPicker struct {
	lava, sea FluidStatus
	lavaBelow int
}

const lavaLevel = -54

func newFluidPicker(seaLevel int, fluid, lava *block.State) fluidPicker {
	return fluidPicker{
		lava:      FluidStatus{Level: lavaLevel, State: lava},
		sea:       FluidStatus{Level: seaLevel, State: fluid},
		lavaBelow: min(lavaLevel, seaLevel),
	}
}

func (p fluidPicker) at(_, y, _ int) FluidStatus {
	if y < p.lavaBelow {
		return p.lava
	}
	return p.sea
}

// Aquifer decides what fills the open parts of the terrain. Substance
// returns nil where the terrain is solid, otherwise the fluid or air at the
// interpolation cursor of r.
type Aquifer interface {
	Substance(r *density.ChunkRouter, x, y, z int, density float64) *block.State
}

// disabledAquifer floods every open block below sea level.
type disabledAquifer struct {
	picker fluidPicker
	air    *block.State
}

func (a disabledAquifer) Substance(_ *density.ChunkRouter, x, y, z int, d float64) *block.State {
	if d > 0 {
		return nil
	}
	return a.picker.at(x, y, z).at(y, a.air)
}

const (
	aquiferGridX = 16
	aquiferGridY = 12
	aquiferGridZ = 16
)

var surfaceSamplingOffsets = [13][2]int{
	{0, 0}, {-2, -1}, {-1, -1}, {0, -1}, {1, -1}, {-3, 0}, {-2, 0}, {-1, 0}, {1, 0}, {-2, 1}, {-1, 1}, {0, 1}, {1, 1},
}

func similarity(a, b int) float64 { return 1 - float64(abs(b-a))/25 }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type gridPoint struct {
	x, y, z int
	ok      bool
}

type cachedStatus struct {
	FluidStatus
	ok bool
}

// noiseAquifer scatters one fluid source per grid cell and fills open
// space from the closest sources, walling off sources at different levels
// with pressure barriers.
type noiseAquifer struct {
	router *density.ChunkRouter
	random random.Splitter
	picker fluidPicker

	air, lava *block.State

	minGridX, minGridY, minGridZ int
	sizeX, sizeZ                 int

	locations []gridPoint
	statuses  []cachedStatus
}

func newNoiseAquifer(r *density.ChunkRouter, cp pos.Chunk, minY, height int, splitter random.Splitter, picker fluidPicker, air, lava *block.State) *noiseAquifer {
	a := &noiseAquifer{
		router:   r,
		random:   splitter,
		picker:   picker,
		air:      air,
		lava:     lava,
		minGridX: gridX(cp.StartX()) - 1,
		minGridY: gridY(minY) - 1,
		minGridZ: gridZ(cp.StartZ()) - 1,
	}
	a.sizeX = gridX(cp.StartX()+15) + 1 - a.minGridX + 1
	a.sizeZ = gridZ(cp.StartZ()+15) + 1 - a.minGridZ + 1
	sizeY := gridY(minY+height) + 1 - a.minGridY + 1
	n := a.sizeX * sizeY * a.sizeZ
	a.locations = make([]gridPoint, n)
	a.statuses = make([]cachedStatus, n)
	return a
}

func gridX(x int) int { return pos.FloorDiv(x, aquiferGridX) }
func gridY(y int) int { return pos.FloorDiv(y, aquiferGridY) }
func gridZ(z int) int { return pos.FloorDiv(z, aquiferGridZ) }

func (a *noiseAquifer) index(gx, gy, gz int) int {
	return ((gy-a.minGridY)*a.sizeZ+gz-a.minGridZ)*a.sizeX + gx - a.minGridX
}

// location returns the fluid source of a grid cell.
func (a *noiseAquifer) location(gx, gy, gz int) gridPoint {
	i := a.index(gx, gy, gz)
	if p := a.locations[i]; p.ok {
		return p
	}
	r := a.random.SplitPos(gx, gy, gz)
	p := gridPoint{
		x:  gx*aquiferGridX + r.NextBoundedInt(10),
		y:  gy*aquiferGridY + r.NextBoundedInt(9),
		z:  gz*aquiferGridZ + r.NextBoundedInt(10),
		ok: true,
	}
	a.locations[i] = p
	return p
}

func (a *noiseAquifer) Substance(r *density.ChunkRouter, x, y, z int, d float64) *block.State {
	if d > 0 {
		return nil
	}
	if a.picker.at(x, y, z).at(y, a.air) == a.lava {
		return a.lava
	}
	gx, gy, gz := gridX(x-5), gridY(y+1), gridZ(z-5)

	var closest [3]gridPoint
	dist := [3]int{math.MaxInt, math.MaxInt, math.MaxInt}
	for ox := 0; ox <= 1; ox++ {
		for oy := -1; oy <= 1; oy++ {
			for oz := 0; oz <= 1; oz++ {
				p := a.location(gx+ox, gy+oy, gz+oz)
				dx, dy, dz := p.x-x, p.y-y, p.z-z
				dd := dx*dx + dy*dy + dz*dz
				switch {
				case dist[0] >= dd:
					closest[2], closest[1], closest[0] = closest[1], closest[0], p
					dist[2], dist[1], dist[0] = dist[1], dist[0], dd
				case dist[1] >= dd:
					closest[2], closest[1] = closest[1], p
					dist[2], dist[1] = dist[1], dd
				case dist[2] >= dd:
					closest[2] = p
					dist[2] = dd
				}
			}
		}
	}

	first := a.status(closest[0])
	s01 := similarity(dist[0], dist[1])
	state := first.at(y, a.air)
	if s01 <= 0 {
		return state
	}
	if state != a.lava && state != a.air && a.picker.at(x, y-1, z).at(y-1, a.air) == a.lava {
		return state
	}

	barrier := math.NaN()
	second := a.status(closest[1])
	if d+s01*a.pressure(r, y, &barrier, first, second) > 0 {
		return nil
	}
	third := a.status(closest[2])
	if s02 := similarity(dist[0], dist[2]); s02 > 0 {
		if d+s01*s02*a.pressure(r, y, &barrier, first, third) > 0 {
			return nil
		}
	}
	if s12 := similarity(dist[1], dist[2]); s12 > 0 {
		if d+s01*s12*a.pressure(r, y, &barrier, second, third) > 0 {
			return nil
		}
	}
	return state
}

// pressure is positive where a barrier must separate two fluid bodies at y.
// The barrier noise is sampled at most once per block.
func (a *noiseAquifer) pressure(r *density.ChunkRouter, y int, barrier *float64, s1, s2 FluidStatus) float64 {
	b1, b2 := s1.at(y, a.air), s2.at(y, a.air)
	if (b1 == a.lava && b2 != a.lava && b2 != a.air) || (b2 == a.lava && b1 != a.lava && b1 != a.air) {
		return 2
	}
	diff := abs(s1.Level - s2.Level)
	if diff == 0 {
		return 0
	}
	mid := 0.5 * float64(s1.Level+s2.Level)
	off := float64(y) + 0.5 - mid
	half := float64(diff) / 2
	o := half - math.Abs(off)
	var q float64
	if off > 0 {
		if o > 0 {
			q = o / 1.5
		} else {
			q = o / 2.5
		}
	} else {
		p := 3 + o
		if p > 0 {
			q = p / 3
		} else {
			q = p / 10
		}
	}
	n := 0.0
	if q >= -2 && q <= 2 {
		if math.IsNaN(*barrier) {
			*barrier = r.Sample(density.EntryBarrier)
		}
		n = *barrier
	}
	return 2 * (n + q)
}

// status returns the fluid of the grid cell a source lies in.
func (a *noiseAquifer) status(p gridPoint) FluidStatus {
	i := a.index(gridX(p.x), gridY(p.y), gridZ(p.z))
	if c := a.statuses[i]; c.ok {
		return c.FluidStatus
	}
	s := a.computeFluid(p.x, p.y, p.z)
	a.statuses[i] = cachedStatus{FluidStatus: s, ok: true}
	return s
}

func (a *noiseAquifer) computeFluid(x, y, z int) FluidStatus {
	global := a.picker.at(x, y, z)
	minSurface := math.MaxInt
	above, below := y+12, y-12
	flooded := false
	for _, off := range surfaceSamplingOffsets {
		sx := x + pos.SectionToBlock(off[0])
		sz := z + pos.SectionToBlock(off[1])
		surface := a.router.PreliminarySurface(sx, sz)
		top := surface + 8
		center := off[0] == 0 && off[1] == 0
		if center && below > top {
			return global
		}
		over := above > top
		if over || center {
			s := a.picker.at(sx, top, sz)
			if s.at(top, a.air) != a.air {
				if center {
					flooded = true
				}
				if over {
					return s
				}
			}
		}
		minSurface = min(minSurface, surface)
	}
	level := a.surfaceLevel(x, y, z, global, minSurface, flooded)
	return FluidStatus{Level: level, State: a.fluidType(x, y, z, global, level)}
}

var (
	deepDarkErosion = float64(float32(-0.225))
	deepDarkDepth   = float64(float32(0.9))
)

func (a *noiseAquifer) surfaceLevel(x, y, z int, global FluidStatus, minSurface int, flooded bool) int {
	r := a.router
	var partial, full float64
	if r.SampleAt(density.EntryErosion, x, y, z) < deepDarkErosion && r.SampleAt(density.EntryDepth, x, y, z) > deepDarkDepth {
		partial, full = -1, -1
	} else {
		f := 0.0
		if flooded {
			f = noise.ClampedMap(float64(minSurface+8-y), 0, 64, 1, 0)
		}
		g := noise.Clamp(r.SampleAt(density.EntryFluidLevelFloodedness, x, y, z), -1, 1)
		full = g - noise.Map(f, 1, 0, -0.3, 0.8)
		partial = g - noise.Map(f, 1, 0, -0.8, 0.4)
	}
	switch {
	case full > 0:
		return global.Level
	case partial > 0:
		return a.randomizedLevel(x, y, z, minSurface)
	}
	return wayBelowMinY
}

func (a *noiseAquifer) randomizedLevel(x, y, z, minSurface int) int {
	gx, gy, gz := pos.FloorDiv(x, 16), pos.FloorDiv(y, 40), pos.FloorDiv(z, 16)
	base := gy*40 + 20
	spread := a.router.SampleAt(density.EntryFluidLevelSpread, gx, gy, gz) * 10
	return min(minSurface, base+int(math.Floor(spread/3))*3)
}

func (a *noiseAquifer) fluidType(x, y, z int, global FluidStatus, level int) *block.State {
	s := global.State
	if level <= -10 && level != wayBelowMinY && s != a.lava {
		v := a.router.SampleAt(density.EntryLava, pos.FloorDiv(x, 64), pos.FloorDiv(y, 40), pos.FloorDiv(z, 64))
		if math.Abs(v) > 0.3 {
			s = a.lava
		}
	}
	return s
}
