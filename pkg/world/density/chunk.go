package density

import (
	"math"

	"github.com/go-theft-craft/worldgen/pkg/world/noise"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

// ChunkOptions sizes the per-chunk caches.
type ChunkOptions struct {
	// StartX and StartZ are the minimum block coordinates of the chunk.
	StartX, StartZ int
	// CellWidth and CellHeight are the interpolation cell size in blocks.
	CellWidth, CellHeight int
	// CellCountXZ and CellCountY are the number of cells per axis.
	CellCountXZ, CellCountY int
	// MinY is the lowest block of the dimension.
	MinY int
}

type mode uint8

const (
	// modeDirect evaluates a single point; only flat and 2D caches apply.
	modeDirect mode = iota
	// modeCorner fills interpolator slices at cell corners.
	modeCorner
	// modeCellFill fills per-cell caches from interpolated corners.
	modeCellFill
	// modeInterpolate evaluates at the block cursor inside the loop.
	modeInterpolate
)

type nodeState struct {
	// interpolated
	start, end []float64
	corners    [8]float64
	xz00, xz10 float64
	xz01, xz11 float64
	z0, z1     float64
	value      float64

	// cache_all_in_cell
	cell []float64

	// cache_once
	onceIndex uint64
	onceValue float64

	// cache_2d
	has2D   bool
	x2D     int
	z2D     int
	value2D float64

	// flat_cache
	flat []float64
}

// ChunkRouter evaluates a ProtoRouters graph for one chunk. It holds mutable
// cache state and must be used by a single goroutine.
type ChunkRouter struct {
	proto *ProtoRouters
	graph *Graph
	opts  ChunkOptions

	states  []nodeState
	interps []NodeID
	cells   []NodeID

	firstCellX, firstCellZ int
	cellMinY               int
	firstBiomeX            int
	firstBiomeZ            int
	flatSize               int

	mode          mode
	index         uint64
	counter       uint64
	interpolating bool

	cellStartX, cellStartY, cellStartZ int
	blockX, blockY, blockZ             int

	surface map[[2]int]int

	// trace, when set, is called for every node evaluation.
	trace func(NodeID)
}

// NewChunkRouter specializes proto for one chunk and fills its flat caches.
func NewChunkRouter(proto *ProtoRouters, o ChunkOptions) *ChunkRouter {
	g := proto.Graph
	c := &ChunkRouter{
		proto:       proto,
		graph:       g,
		opts:        o,
		states:      make([]nodeState, g.Len()),
		firstCellX:  pos.FloorDiv(o.StartX, o.CellWidth),
		firstCellZ:  pos.FloorDiv(o.StartZ, o.CellWidth),
		cellMinY:    pos.FloorDiv(o.MinY, o.CellHeight),
		firstBiomeX: pos.BiomeFromBlock(o.StartX),
		firstBiomeZ: pos.BiomeFromBlock(o.StartZ),
		flatSize:    pos.BiomeFromBlock(o.CellCountXZ*o.CellWidth) + 1,
	}
	slice := (o.CellCountXZ + 1) * (o.CellCountY + 1)
	cell := o.CellWidth * o.CellWidth * o.CellHeight
	for i := range g.Nodes {
		s := &c.states[i]
		switch g.Nodes[i].Kind {
		case KindInterpolated:
			s.start = make([]float64, slice)
			s.end = make([]float64, slice)
			c.interps = append(c.interps, NodeID(i))
		case KindCacheAllInCell:
			s.cell = make([]float64, cell)
			c.cells = append(c.cells, NodeID(i))
		case KindFlatCache:
			flat := make([]float64, c.flatSize*c.flatSize)
			in := g.Nodes[i].Input
			for bx := 0; bx < c.flatSize; bx++ {
				for bz := 0; bz < c.flatSize; bz++ {
					flat[bx*c.flatSize+bz] = c.eval(in,
						pos.BiomeToBlock(c.firstBiomeX+bx), 0, pos.BiomeToBlock(c.firstBiomeZ+bz))
				}
			}
			s.flat = flat
		}
	}
	return c
}

// Proto returns the seeded routers this chunk router evaluates.
func (c *ChunkRouter) Proto() *ProtoRouters { return c.proto }

// Options returns the chunk geometry.
func (c *ChunkRouter) Options() ChunkOptions { return c.opts }

func (c *ChunkRouter) nextIndex() uint64 {
	c.counter++
	return c.counter
}

// SampleAt evaluates e at an arbitrary block position. Per-cell and
// interpolation caches are bypassed.
func (c *ChunkRouter) SampleAt(e Entry, x, y, z int) float64 {
	return c.sampleDirect(c.proto.Entry(e), x, y, z)
}

// SampleNodeAt evaluates any node at an arbitrary block position.
func (c *ChunkRouter) SampleNodeAt(id NodeID, x, y, z int) float64 {
	return c.sampleDirect(id, x, y, z)
}

func (c *ChunkRouter) sampleDirect(id NodeID, x, y, z int) float64 {
	saved, savedIndex := c.mode, c.index
	c.mode, c.index = modeDirect, 0
	v := c.eval(id, x, y, z)
	c.mode, c.index = saved, savedIndex
	return v
}

// Sample evaluates e at the interpolation cursor. It panics outside the
// interpolation loop.
func (c *ChunkRouter) Sample(e Entry) float64 {
	return c.sampleCursor(c.proto.Entry(e))
}

// FinalDensity evaluates the cell cached final density at the cursor.
func (c *ChunkRouter) FinalDensity() float64 {
	return c.sampleCursor(c.proto.cellFinal)
}

func (c *ChunkRouter) sampleCursor(id NodeID) float64 {
	if !c.interpolating {
		panic("density: sampling the cursor outside the interpolation loop")
	}
	return c.eval(id, c.blockX, c.blockY, c.blockZ)
}

// BlockPos returns the interpolation cursor.
func (c *ChunkRouter) BlockPos() pos.Block { return pos.Block{X: c.blockX, Y: c.blockY, Z: c.blockZ} }

// BeginInterpolation fills the start slice at the first cell column.
func (c *ChunkRouter) BeginInterpolation() {
	if c.interpolating {
		panic("density: interpolation already started")
	}
	c.interpolating = true
	c.fillSlice(true, c.firstCellX)
}

// EndInterpolation leaves the block loop.
func (c *ChunkRouter) EndInterpolation() {
	c.interpolating = false
	c.mode = modeDirect
	c.index = 0
}

// AdvanceCellX fills the end slice for the cell column after cellX, which is
// relative to the chunk.
func (c *ChunkRouter) AdvanceCellX(cellX int) {
	c.fillSlice(false, c.firstCellX+cellX+1)
	c.cellStartX = (c.firstCellX + cellX) * c.opts.CellWidth
}

func (c *ChunkRouter) fillSlice(start bool, cellX int) {
	c.mode = modeCorner
	x := cellX * c.opts.CellWidth
	rows := c.opts.CellCountY + 1
	for z := 0; z <= c.opts.CellCountXZ; z++ {
		bz := (c.firstCellZ + z) * c.opts.CellWidth
		for y := 0; y < rows; y++ {
			by := (y + c.cellMinY) * c.opts.CellHeight
			c.index = c.nextIndex()
			for _, id := range c.interps {
				s := &c.states[id]
				v := c.eval(c.graph.Nodes[id].Input, x, by, bz)
				if start {
					s.start[z*rows+y] = v
				} else {
					s.end[z*rows+y] = v
				}
			}
		}
	}
	c.mode = modeInterpolate
}

// SelectCellYZ loads the eight corners of cell (cellY, cellZ) into every
// interpolator and fills the per-cell caches. Both are chunk relative.
func (c *ChunkRouter) SelectCellYZ(cellY, cellZ int) {
	rows := c.opts.CellCountY + 1
	i0 := cellZ*rows + cellY
	i1 := (cellZ+1)*rows + cellY
	for _, id := range c.interps {
		s := &c.states[id]
		s.corners = [8]float64{
			s.start[i0], s.end[i0], s.start[i0+1], s.end[i0+1],
			s.start[i1], s.end[i1], s.start[i1+1], s.end[i1+1],
		}
	}
	c.cellStartY = (cellY + c.cellMinY) * c.opts.CellHeight
	c.cellStartZ = (c.firstCellZ + cellZ) * c.opts.CellWidth
	if len(c.cells) == 0 {
		return
	}

	c.mode = modeCellFill
	w, h := c.opts.CellWidth, c.opts.CellHeight
	for iy := h - 1; iy >= 0; iy-- {
		for ix := 0; ix < w; ix++ {
			for iz := 0; iz < w; iz++ {
				c.index = c.nextIndex()
				x, y, z := c.cellStartX+ix, c.cellStartY+iy, c.cellStartZ+iz
				for _, id := range c.cells {
					c.states[id].cell[((h-1-iy)*w+ix)*w+iz] = c.eval(c.graph.Nodes[id].Input, x, y, z)
				}
			}
		}
	}
	c.mode = modeInterpolate
}

// UpdateY moves the cursor to blockY, delta of the way up the cell.
func (c *ChunkRouter) UpdateY(blockY int, delta float64) {
	c.blockY = blockY
	for _, id := range c.interps {
		s := &c.states[id]
		s.xz00 = noise.Lerp(delta, s.corners[0], s.corners[2])
		s.xz10 = noise.Lerp(delta, s.corners[1], s.corners[3])
		s.xz01 = noise.Lerp(delta, s.corners[4], s.corners[6])
		s.xz11 = noise.Lerp(delta, s.corners[5], s.corners[7])
	}
}

// UpdateX moves the cursor to blockX.
func (c *ChunkRouter) UpdateX(blockX int, delta float64) {
	c.blockX = blockX
	for _, id := range c.interps {
		s := &c.states[id]
		s.z0 = noise.Lerp(delta, s.xz00, s.xz10)
		s.z1 = noise.Lerp(delta, s.xz01, s.xz11)
	}
}

// UpdateZ moves the cursor to blockZ and starts a new sample.
func (c *ChunkRouter) UpdateZ(blockZ int, delta float64) {
	c.blockZ = blockZ
	c.index = c.nextIndex()
	for _, id := range c.interps {
		s := &c.states[id]
		s.value = noise.Lerp(delta, s.z0, s.z1)
	}
}

// SwapSlices makes the end slice the next cell column's start slice.
func (c *ChunkRouter) SwapSlices() {
	for _, id := range c.interps {
		s := &c.states[id]
		s.start, s.end = s.end, s.start
	}
}

func (c *ChunkRouter) eval(id NodeID, x, y, z int) float64 {
	if c.trace != nil {
		c.trace(id)
	}
	n := &c.graph.Nodes[id]
	p := c.proto
	switch n.Kind {
	case KindConstant:
		return n.Value
	case KindNoise:
		return p.noises[id].Sample(float64(x)*n.XZScale, float64(y)*n.YScale, float64(z)*n.XZScale)
	case KindShiftedNoise:
		dx := float64(x)*n.XZScale + c.eval(n.Input, x, y, z)
		dy := float64(y)*n.YScale + c.eval(n.Input2, x, y, z)
		dz := float64(z)*n.XZScale + c.eval(n.Input3, x, y, z)
		return p.noises[id].Sample(dx, dy, dz)
	case KindShiftA:
		return p.noises[id].Sample(float64(x)*0.25, 0, float64(z)*0.25) * 4
	case KindShiftB:
		return p.noises[id].Sample(float64(z)*0.25, float64(x)*0.25, 0) * 4
	case KindShift:
		return p.noises[id].Sample(float64(x)*0.25, float64(y)*0.25, float64(z)*0.25) * 4
	case KindBlendedNoise:
		return p.blended[id].Sample(x, y, z)
	case KindEndIslands:
		return p.islands.Sample(x, z)
	case KindWeirdScaled:
		e := n.Mapper.rarity(c.eval(n.Input, x, y, z))
		return e * math.Abs(p.noises[id].Sample(float64(x)/e, float64(y)/e, float64(z)/e))
	case KindYClampedGradient:
		return noise.ClampedMap(float64(y), float64(n.FromY), float64(n.ToY), n.Min, n.Max)
	case KindRangeChoice:
		v := c.eval(n.Input, x, y, z)
		if v >= n.Min && v < n.Max {
			return c.eval(n.Input2, x, y, z)
		}
		return c.eval(n.Input3, x, y, z)
	case KindClamp:
		return noise.Clamp(c.eval(n.Input, x, y, z), n.Min, n.Max)
	case KindAdd:
		return c.eval(n.Input, x, y, z) + c.eval(n.Input2, x, y, z)
	case KindMul:
		a := c.eval(n.Input, x, y, z)
		if a == 0 {
			return 0
		}
		return a * c.eval(n.Input2, x, y, z)
	case KindMin:
		a := c.eval(n.Input, x, y, z)
		if a < p.lo[n.Input2] {
			return a
		}
		return min(a, c.eval(n.Input2, x, y, z))
	case KindMax:
		a := c.eval(n.Input, x, y, z)
		if a > p.hi[n.Input2] {
			return a
		}
		return max(a, c.eval(n.Input2, x, y, z))
	case KindSpline:
		return float64(n.Spline.apply(func(coord NodeID) float64 { return c.eval(coord, x, y, z) }))
	case KindInterpolated:
		return c.interpolated(id, n, x, y, z)
	case KindFlatCache:
		return c.flatCache(id, n, x, y, z)
	case KindCache2D:
		if c.states == nil {
			return c.eval(n.Input, x, y, z)
		}
		s := &c.states[id]
		if s.has2D && s.x2D == x && s.z2D == z {
			return s.value2D
		}
		s.has2D, s.x2D, s.z2D = true, x, z
		s.value2D = c.eval(n.Input, x, y, z)
		return s.value2D
	case KindCacheOnce:
		if c.states == nil || c.index == 0 {
			return c.eval(n.Input, x, y, z)
		}
		s := &c.states[id]
		if s.onceIndex == c.index {
			return s.onceValue
		}
		s.onceIndex = c.index
		s.onceValue = c.eval(n.Input, x, y, z)
		return s.onceValue
	case KindCacheAllInCell:
		if c.states != nil && c.mode == modeInterpolate {
			w, h := c.opts.CellWidth, c.opts.CellHeight
			ix, iy, iz := x-c.cellStartX, y-c.cellStartY, z-c.cellStartZ
			if ix >= 0 && iy >= 0 && iz >= 0 && ix < w && iy < h && iz < w {
				return c.states[id].cell[((h-1-iy)*w+ix)*w+iz]
			}
		}
		return c.eval(n.Input, x, y, z)
	case KindBlendAlpha:
		return 1
	case KindBlendOffset, KindBeardifier:
		return 0
	case KindBlendDensity:
		return c.eval(n.Input, x, y, z)
	}
	return mapped(n.Kind, c.eval(n.Input, x, y, z))
}

func (c *ChunkRouter) interpolated(id NodeID, n *Node, x, y, z int) float64 {
	if c.states == nil {
		return c.eval(n.Input, x, y, z)
	}
	s := &c.states[id]
	switch c.mode {
	case modeCellFill:
		w, h := float64(c.opts.CellWidth), float64(c.opts.CellHeight)
		k := s.corners
		return noise.Lerp3(
			float64(x-c.cellStartX)/w, float64(y-c.cellStartY)/h, float64(z-c.cellStartZ)/w,
			k[0], k[1], k[2], k[3], k[4], k[5], k[6], k[7])
	case modeInterpolate:
		return s.value
	}
	return c.eval(n.Input, x, y, z)
}

func (c *ChunkRouter) flatCache(id NodeID, n *Node, x, y, z int) float64 {
	if c.states != nil {
		if flat := c.states[id].flat; flat != nil {
			bx := pos.BiomeFromBlock(x) - c.firstBiomeX
			bz := pos.BiomeFromBlock(z) - c.firstBiomeZ
			if bx >= 0 && bz >= 0 && bx < c.flatSize && bz < c.flatSize {
				return flat[bx*c.flatSize+bz]
			}
		}
	}
	return c.eval(n.Input, x, y, z)
}
