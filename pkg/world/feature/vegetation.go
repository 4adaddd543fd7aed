package feature

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// SimpleBlock places one state if it survives there. Two block tall plants
// also need room for their upper half.
type SimpleBlock struct{ Provider StateProvider }

func (f SimpleBlock) Generate(c *Context, origin pos.Block) bool {
	s := f.Provider.State(c.Random, origin)
	if !c.canSurvive(s, origin) {
		return false
	}
	if s.Get("half") == "lower" {
		if !c.isAir(origin.Up()) {
			return false
		}
		c.set(origin, s)
		c.set(origin.Up(), s.With("half", "upper"))
		return true
	}
	c.set(origin, s)
	return true
}

func (d *decoder) simpleBlock(raw json.RawMessage) (Feature, error) {
	var v struct {
		ToPlace json.RawMessage `json:"to_place"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	sp, err := d.stateProvider(v.ToPlace)
	if err != nil {
		return nil, fmt.Errorf("to_place: %w", err)
	}
	return SimpleBlock{Provider: sp}, nil
}

// ColumnLayer is one stretch of a block column.
type ColumnLayer struct {
	Height   provider.Int
	Provider StateProvider
}

// BlockColumn stacks layers from the origin along Direction, shortening
// them when Allowed fails.
type BlockColumn struct {
	Layers        []ColumnLayer
	Direction     pos.Direction
	Allowed       Predicate
	PrioritizeTip bool
}

func (f BlockColumn) Generate(c *Context, origin pos.Block) bool {
	heights := make([]int, len(f.Layers))
	total := 0
	for i, l := range f.Layers {
		heights[i] = l.Height.Get(c.Random)
		total += heights[i]
	}
	if total == 0 {
		return false
	}
	cursor := origin
	for i := range total {
		if !f.Allowed.Test(c, cursor) {
			f.truncate(heights, total-i)
			break
		}
		cursor = cursor.Offset(f.Direction)
	}
	p := origin
	for i, l := range f.Layers {
		for range heights[i] {
			c.set(p, l.Provider.State(c.Random, p))
			p = p.Offset(f.Direction)
		}
	}
	return true
}

// truncate removes excess blocks from the base, or from the tip unless the
// tip is prioritized.
func (f BlockColumn) truncate(heights []int, excess int) {
	if f.PrioritizeTip {
		for i := 0; i < len(heights) && excess > 0; i++ {
			n := min(heights[i], excess)
			excess -= n
			heights[i] -= n
		}
		return
	}
	for i := len(heights) - 1; i >= 0 && excess > 0; i-- {
		n := min(heights[i], excess)
		excess -= n
		heights[i] -= n
	}
}

func (d *decoder) blockColumn(raw json.RawMessage) (Feature, error) {
	var v struct {
		Layers []struct {
			Height   provider.Int    `json:"height"`
			Provider json.RawMessage `json:"provider"`
		} `json:"layers"`
		Direction     pos.Direction   `json:"direction"`
		Allowed       json.RawMessage `json:"allowed_placement"`
		PrioritizeTip bool            `json:"prioritize_tip"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	f := BlockColumn{Direction: v.Direction, PrioritizeTip: v.PrioritizeTip}
	for i, l := range v.Layers {
		sp, err := d.stateProvider(l.Provider)
		if err != nil {
			return nil, fmt.Errorf("layers[%d]: %w", i, err)
		}
		f.Layers = append(f.Layers, ColumnLayer{Height: l.Height, Provider: sp})
	}
	if v.Allowed == nil {
		f.Allowed = True{}
		return f, nil
	}
	pr, err := d.predicate(v.Allowed)
	if err != nil {
		return nil, fmt.Errorf("allowed_placement: %w", err)
	}
	f.Allowed = pr
	return f, nil
}

// Vines hangs a vine on the first full block face next to an air origin.
type Vines struct{ Vine *block.State }

func (f Vines) Generate(c *Context, origin pos.Block) bool {
	if !c.isAir(origin) {
		return false
	}
	for _, d := range pos.Directions {
		if d == pos.Down {
			continue
		}
		if c.state(origin.Offset(d)).IsFullCube() {
			return c.set(origin, f.Vine.With(d.String(), "true"))
		}
	}
	return false
}

func (d *decoder) vines() (Feature, error) {
	s := d.defaultState("vine")
	if s == nil {
		return nil, fmt.Errorf("needs the vine block")
	}
	return Vines{Vine: s}, nil
}

// jitter8 draws the triangular offset underwater plants use.
func jitter8(c *Context) (int, int) {
	r := c.Random
	dx := r.NextBoundedInt(8) - r.NextBoundedInt(8)
	dz := r.NextBoundedInt(8) - r.NextBoundedInt(8)
	return dx, dz
}

func oceanFloor(c *Context, origin pos.Block, dx, dz int) pos.Block {
	x, z := origin.X+dx, origin.Z+dz
	return pos.Block{X: x, Y: c.World.Top(heightmap.OceanFloor, x, z), Z: z}
}

func (c *Context) isWater(p pos.Block) bool { return c.state(p).Block == c.Blocks.Water.Block }

// Seagrass plants short or tall seagrass on the ocean floor near the origin.
type Seagrass struct {
	Probability float32
	Short, Tall *block.State
}

func (f Seagrass) Generate(c *Context, origin pos.Block) bool {
	dx, dz := jitter8(c)
	p := oceanFloor(c, origin, dx, dz)
	if !c.isWater(p) {
		return false
	}
	tall := c.Random.NextDouble() < float64(f.Probability)
	s := f.Short
	if tall {
		s = f.Tall
	}
	if !c.canSurvive(s, p) {
		return false
	}
	if !tall {
		c.set(p, s)
		return true
	}
	if c.isWater(p.Up()) {
		c.set(p, s)
		c.set(p.Up(), s.With("half", "upper"))
	}
	return true
}

func (d *decoder) seagrass(raw json.RawMessage) (Feature, error) {
	var v struct {
		Probability float32 `json:"probability"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	short, tall := d.defaultState("seagrass"), d.defaultState("tall_seagrass")
	if short == nil || tall == nil {
		return nil, fmt.Errorf("needs seagrass and tall_seagrass blocks")
	}
	return Seagrass{Probability: v.Probability, Short: short, Tall: tall}, nil
}

// SeaPickle scatters pickle clusters over the ocean floor.
type SeaPickle struct {
	Count  provider.Int
	Pickle *block.State
}

func (f SeaPickle) Generate(c *Context, origin pos.Block) bool {
	placed := 0
	for range f.Count.Get(c.Random) {
		dx, dz := jitter8(c)
		p := oceanFloor(c, origin, dx, dz)
		s := f.Pickle.With("pickles", strconv.Itoa(c.Random.NextBoundedInt(4)+1))
		if c.isWater(p) && c.canSurvive(s, p) {
			c.set(p, s)
			placed++
		}
	}
	return placed > 0
}

func (d *decoder) seaPickle(raw json.RawMessage) (Feature, error) {
	var v struct {
		Count provider.Int `json:"count"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	s := d.defaultState("sea_pickle")
	if s == nil {
		return nil, fmt.Errorf("needs the sea_pickle block")
	}
	return SeaPickle{Count: v.Count, Pickle: s}, nil
}

// Bamboo grows one bamboo stalk, sometimes on a podzol patch.
type Bamboo struct {
	Probability float32
	Trunk       *block.State
	Podzol      *block.State
}

func (f Bamboo) Generate(c *Context, origin pos.Block) bool {
	if !c.isAir(origin) {
		return false
	}
	if !c.canSurvive(f.Trunk, origin) {
		return true
	}
	r := c.Random
	height := r.NextBoundedInt(12) + 5
	if r.NextFloat() < f.Probability && f.Podzol != nil {
		radius := r.NextBoundedInt(4) + 1
		for x := origin.X - radius; x <= origin.X+radius; x++ {
			for z := origin.Z - radius; z <= origin.Z+radius; z++ {
				dx, dz := x-origin.X, z-origin.Z
				if dx*dx+dz*dz > radius*radius {
					continue
				}
				ground := pos.Block{X: x, Y: c.World.Top(heightmap.WorldSurface, x, z) - 1, Z: z}
				if c.state(ground).HasTag(tagDirt) {
					c.set(ground, f.Podzol)
				}
			}
		}
	}
	p := origin
	for i := 0; i < height && c.isAir(p); i++ {
		c.set(p, f.Trunk)
		p = p.Up()
	}
	if p.Y-origin.Y >= 3 {
		c.set(p, f.Trunk.With("leaves", "large").With("stage", "1"))
		p = p.Down()
		c.set(p, f.Trunk.With("leaves", "large"))
		p = p.Down()
		c.set(p, f.Trunk.With("leaves", "small"))
	}
	return true
}

func (d *decoder) bamboo(raw json.RawMessage) (Feature, error) {
	var v struct {
		Probability float32 `json:"probability"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	b := d.defaultState("bamboo")
	if b == nil {
		return nil, fmt.Errorf("needs the bamboo block")
	}
	trunk := b.With("age", "1").With("leaves", "none").With("stage", "0")
	return Bamboo{Probability: v.Probability, Trunk: trunk, Podzol: d.defaultState("podzol")}, nil
}

// NetherForestVegetation scatters plants over nylium around the origin.
type NetherForestVegetation struct {
	Provider     StateProvider
	SpreadWidth  int
	SpreadHeight int
}

func (f NetherForestVegetation) Generate(c *Context, origin pos.Block) bool {
	if !c.state(origin.Down()).HasTag("minecraft:nylium") {
		return false
	}
	hc := c.World.HeightContext()
	if origin.Y < hc.MinY+1 || origin.Y+1 > hc.MaxY() {
		return false
	}
	r := c.Random
	w, h := f.SpreadWidth, f.SpreadHeight
	placed := 0
	for range w * w {
		dx := r.NextBoundedInt(w) - r.NextBoundedInt(w)
		dy := r.NextBoundedInt(h) - r.NextBoundedInt(h)
		dz := r.NextBoundedInt(w) - r.NextBoundedInt(w)
		p := origin.Add(dx, dy, dz)
		s := f.Provider.State(r, p)
		if c.isAir(p) && p.Y > hc.MinY && c.canSurvive(s, p) {
			c.set(p, s)
			placed++
		}
	}
	return placed > 0
}

func (d *decoder) netherForestVegetation(raw json.RawMessage) (Feature, error) {
	var v struct {
		StateProvider json.RawMessage `json:"state_provider"`
		SpreadWidth   int             `json:"spread_width"`
		SpreadHeight  int             `json:"spread_height"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if v.SpreadWidth < 1 || v.SpreadHeight < 1 {
		return nil, fmt.Errorf("spread must be positive")
	}
	sp, err := d.stateProvider(v.StateProvider)
	if err != nil {
		return nil, fmt.Errorf("state_provider: %w", err)
	}
	return NetherForestVegetation{Provider: sp, SpreadWidth: v.SpreadWidth, SpreadHeight: v.SpreadHeight}, nil
}
