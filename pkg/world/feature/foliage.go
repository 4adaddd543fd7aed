package feature

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// FoliagePlacer grows leaves around each trunk attachment.
type FoliagePlacer struct {
	Radius provider.Int
	Offset provider.Int
	Kind   foliageKind
}

type foliageKind interface {
	// height returns the foliage height for a trunk of the given height.
	height(r random.Random, trunkHeight int) int
	place(f *foliageRun)
	// skip decides on a row cell given its distance from the row center.
	skip(r random.Random, dx, y, dz, radius int, giant bool) bool
}

// signedSkipper is implemented by kinds that need the signed row offsets.
type signedSkipper interface {
	skipSigned(r random.Random, dx, y, dz, radius int, giant bool) bool
}

// radiusSampler is implemented by kinds that widen the rolled radius.
type radiusSampler interface {
	radius(r random.Random, base provider.Int, trunkHeight int) int
}

func (f FoliagePlacer) radius(r random.Random, trunkHeight int) int {
	if s, ok := f.Kind.(radiusSampler); ok {
		return s.radius(r, f.Radius, trunkHeight)
	}
	return f.Radius.Get(r)
}

func (f FoliagePlacer) create(b *treeBuilder, treeHeight int, a attachment, foliageHeight, radius int) {
	run := &foliageRun{
		b:          b,
		kind:       f.Kind,
		treeHeight: treeHeight,
		a:          a,
		height:     foliageHeight,
		radius:     radius,
		offset:     f.Offset.Get(b.c.Random),
	}
	f.Kind.place(run)
}

// foliageRun is one foliage placement around one attachment.
type foliageRun struct {
	b          *treeBuilder
	kind       foliageKind
	treeHeight int
	a          attachment
	height     int
	radius     int
	offset     int
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (f *foliageRun) skipSigned(dx, y, dz, radius int) bool {
	r := f.b.c.Random
	if s, ok := f.kind.(signedSkipper); ok {
		return s.skipSigned(r, dx, y, dz, radius, f.a.giant)
	}
	x, z := abs(dx), abs(dz)
	if f.a.giant {
		x = min(abs(dx), abs(dx-1))
		z = min(abs(dz), abs(dz-1))
	}
	return f.kind.skip(r, x, y, z, radius, f.a.giant)
}

// row places a square layer of leaves at center.Y+y. Giant attachments
// widen the square by one to cover a two by two trunk.
func (f *foliageRun) row(center pos.Block, radius, y int) {
	ext := 0
	if f.a.giant {
		ext = 1
	}
	for dx := -radius; dx <= radius+ext; dx++ {
		for dz := -radius; dz <= radius+ext; dz++ {
			if !f.skipSigned(dx, y, dz, radius) {
				f.b.placeLeaf(center.Add(dx, y, dz))
			}
		}
	}
}

type blobFoliage struct{ Height int }

func (k blobFoliage) height(random.Random, int) int { return k.Height }

func (blobFoliage) place(f *foliageRun) {
	for y := f.offset; y >= f.offset-f.height; y-- {
		f.row(f.a.pos, max(f.radius+f.a.radius-1-y/2, 0), y)
	}
}

func (blobFoliage) skip(r random.Random, dx, y, dz, radius int, _ bool) bool {
	return dx == radius && dz == radius && (r.NextBoundedInt(2) == 0 || y == 0)
}

type bushFoliage struct{ blobFoliage }

func (bushFoliage) place(f *foliageRun) {
	for y := f.offset; y >= f.offset-f.height; y-- {
		f.row(f.a.pos, f.radius+f.a.radius-1-y, y)
	}
}

func (bushFoliage) skip(r random.Random, dx, _, dz, radius int, _ bool) bool {
	return dx == radius && dz == radius && r.NextBoundedInt(2) == 0
}

type fancyFoliage struct{ blobFoliage }

func (fancyFoliage) place(f *foliageRun) {
	for y := f.offset; y >= f.offset-f.height; y-- {
		radius := f.radius
		if y != f.offset && y != f.offset-f.height {
			radius++
		}
		f.row(f.a.pos, radius, y)
	}
}

func (fancyFoliage) skip(_ random.Random, dx, _, dz, radius int, _ bool) bool {
	x, z := float32(dx)+0.5, float32(dz)+0.5
	return x*x+z*z > float32(radius*radius)
}

type spruceFoliage struct{ TrunkHeight provider.Int }

func (k spruceFoliage) height(r random.Random, trunkHeight int) int {
	return max(4, trunkHeight-k.TrunkHeight.Get(r))
}

func (spruceFoliage) place(f *foliageRun) {
	r := f.b.c.Random
	radius, limit, reset := r.NextBoundedInt(2), 1, 0
	for y := f.offset; y >= -f.height; y-- {
		f.row(f.a.pos, radius, y)
		if radius >= limit {
			radius = reset
			reset = 1
			limit = min(limit+1, f.radius+f.a.radius)
		} else {
			radius++
		}
	}
}

func (spruceFoliage) skip(_ random.Random, dx, _, dz, radius int, _ bool) bool {
	return dx == radius && dz == radius && radius > 0
}

type pineFoliage struct{ Height provider.Int }

func (k pineFoliage) height(r random.Random, _ int) int { return k.Height.Get(r) }

func (pineFoliage) radius(r random.Random, base provider.Int, trunkHeight int) int {
	return base.Get(r) + r.NextBoundedInt(max(trunkHeight+1, 1))
}

func (pineFoliage) place(f *foliageRun) {
	radius := 0
	for y := f.offset; y >= f.offset-f.height; y-- {
		f.row(f.a.pos, radius, y)
		if radius >= 1 && y == f.offset-f.height+1 {
			radius--
		} else if radius < f.radius+f.a.radius {
			radius++
		}
	}
}

func (pineFoliage) skip(_ random.Random, dx, _, dz, radius int, _ bool) bool {
	return dx == radius && dz == radius && radius > 0
}

type acaciaFoliage struct{}

func (acaciaFoliage) height(random.Random, int) int { return 0 }

func (acaciaFoliage) place(f *foliageRun) {
	center := f.a.pos.UpN(f.offset)
	f.row(center, f.radius+f.a.radius, -1-f.height)
	f.row(center, f.radius-1, -f.height)
	f.row(center, f.radius+f.a.radius-1, 0)
}

func (acaciaFoliage) skip(_ random.Random, dx, y, dz, radius int, _ bool) bool {
	if y == 0 {
		return (dx > 1 || dz > 1) && dx != 0 && dz != 0
	}
	return dx == radius && dz == radius && radius > 0
}

type jungleFoliage struct{ Height int }

func (k jungleFoliage) height(random.Random, int) int { return k.Height }

func (jungleFoliage) place(f *foliageRun) {
	layers := 1 + f.b.c.Random.NextBoundedInt(2)
	if f.a.giant {
		layers = f.height
	}
	for y := f.offset; y >= f.offset-layers; y-- {
		f.row(f.a.pos, f.radius+f.a.radius+1-y, y)
	}
}

func roundCrownSkip(dx, dz, radius int) bool {
	if dx+dz >= 7 {
		return true
	}
	return dx*dx+dz*dz > radius*radius
}

func (jungleFoliage) skip(_ random.Random, dx, _, dz, radius int, _ bool) bool {
	return roundCrownSkip(dx, dz, radius)
}

type megaPineFoliage struct{ CrownHeight provider.Int }

func (k megaPineFoliage) height(r random.Random, _ int) int { return k.CrownHeight.Get(r) }

func (megaPineFoliage) place(f *foliageRun) {
	p := f.a.pos
	prev := 0
	for y := p.Y - f.height + f.offset; y <= p.Y+f.offset; y++ {
		depth := p.Y - y
		radius := f.radius + f.a.radius
		if f.height > 0 {
			radius += int(math.Floor(float64(float32(depth) / float32(f.height) * 3.5)))
		}
		r := radius
		if depth > 0 && radius == prev && y&1 == 0 {
			r++
		}
		f.row(pos.Block{X: p.X, Y: y, Z: p.Z}, r, 0)
		prev = radius
	}
}

func (megaPineFoliage) skip(_ random.Random, dx, _, dz, radius int, _ bool) bool {
	return roundCrownSkip(dx, dz, radius)
}

type darkOakFoliage struct{}

func (darkOakFoliage) height(random.Random, int) int { return 4 }

func (darkOakFoliage) place(f *foliageRun) {
	center := f.a.pos.UpN(f.offset)
	if f.a.giant {
		f.row(center, f.radius+2, -1)
		f.row(center, f.radius+3, 0)
		f.row(center, f.radius+2, 1)
		if f.b.c.Random.NextBool() {
			f.row(center, f.radius, 2)
		}
		return
	}
	f.row(center, f.radius+2, -1)
	f.row(center, f.radius+1, 0)
}

func (k darkOakFoliage) skipSigned(r random.Random, dx, y, dz, radius int, giant bool) bool {
	if y == 0 && giant && (dx == -radius || dx >= radius) && (dz == -radius || dz >= radius) {
		return true
	}
	x, z := abs(dx), abs(dz)
	if giant {
		x = min(abs(dx), abs(dx-1))
		z = min(abs(dz), abs(dz-1))
	}
	return k.skip(r, x, y, z, radius, giant)
}

func (darkOakFoliage) skip(_ random.Random, dx, y, dz, radius int, giant bool) bool {
	if y == -1 && !giant {
		return dx == radius && dz == radius
	}
	if y == 1 {
		return dx+dz > radius*2-2
	}
	return false
}

type randomSpreadFoliage struct {
	FoliageHeight provider.Int
	Attempts      int
}

func (k randomSpreadFoliage) height(r random.Random, _ int) int { return k.FoliageHeight.Get(r) }

func (k randomSpreadFoliage) place(f *foliageRun) {
	if f.radius <= 0 || f.height <= 0 {
		return
	}
	r := f.b.c.Random
	for range k.Attempts {
		dx := r.NextBoundedInt(f.radius) - r.NextBoundedInt(f.radius)
		dy := r.NextBoundedInt(f.height) - r.NextBoundedInt(f.height)
		dz := r.NextBoundedInt(f.radius) - r.NextBoundedInt(f.radius)
		f.b.placeLeaf(f.a.pos.Add(dx, dy, dz))
	}
}

func (randomSpreadFoliage) skip(random.Random, int, int, int, int, bool) bool { return false }

type cherryFoliage struct {
	Height              provider.Int
	WideBottomHole      float32
	CornerHole          float32
	HangingLeaves       float32
	HangingLeavesExtend float32
}

func (k cherryFoliage) height(r random.Random, _ int) int { return k.Height.Get(r) }

func (k cherryFoliage) place(f *foliageRun) {
	center := f.a.pos.UpN(f.offset)
	radius := f.radius + f.a.radius - 1
	f.row(center, radius-2, f.height-3)
	f.row(center, radius-1, f.height-4)
	for y := f.height - 5; y >= 0; y-- {
		f.row(center, radius, y)
	}
	k.hangingRow(f, center, radius, -1)
	k.hangingRow(f, center, radius-1, -2)
}

// clockwise turns a horizontal direction a quarter to the right.
func clockwise(d pos.Direction) pos.Direction {
	switch d {
	case pos.North:
		return pos.East
	case pos.East:
		return pos.South
	case pos.South:
		return pos.West
	default:
		return pos.North
	}
}

// hangingRow places a leaf row and lets leaves dangle below its rim.
func (k cherryFoliage) hangingRow(f *foliageRun, center pos.Block, radius, y int) {
	f.row(center, radius, y)
	ext := 0
	if f.a.giant {
		ext = 1
	}
	trunk := center.Down()
	for _, d := range pos.Horizontal {
		side := clockwise(d)
		reach := radius
		if side == pos.East || side == pos.South {
			reach += ext
		}
		p := center.UpN(y-1).OffsetN(side, reach).OffsetN(d, -radius)
		for i := -radius; i < radius+ext; i++ {
			if f.b.isLeaf(p.Up()) && k.extend(f, k.HangingLeaves, trunk, p) {
				k.extend(f, k.HangingLeavesExtend, trunk, p.Down())
			}
			p = p.Offset(d)
		}
	}
}

func (cherryFoliage) extend(f *foliageRun, chance float32, trunk, p pos.Block) bool {
	if p.ManhattanDistance(trunk) >= 7 {
		return false
	}
	if f.b.c.Random.NextFloat() > chance {
		return false
	}
	return f.b.placeLeaf(p)
}

func (k cherryFoliage) skip(r random.Random, dx, y, dz, radius int, _ bool) bool {
	if y == -1 && (dx == radius || dz == radius) && r.NextFloat() < k.WideBottomHole {
		return true
	}
	corner := dx == radius && dz == radius
	if radius > 2 {
		return corner || (dx+dz > radius*2-2 && r.NextFloat() < k.CornerHole)
	}
	return corner && r.NextFloat() < k.CornerHole
}

type foliageData struct {
	Type     string          `json:"type"`
	Radius   provider.Int    `json:"radius"`
	Offset   provider.Int    `json:"offset"`
	Height   json.RawMessage `json:"height"`
	Trunk    provider.Int    `json:"trunk_height"`
	Crown    provider.Int    `json:"crown_height"`
	Foliage  provider.Int    `json:"foliage_height"`
	Attempts int             `json:"leaf_placement_attempts"`

	WideBottomHole float32 `json:"wide_bottom_layer_hole_chance"`
	CornerHole     float32 `json:"corner_hole_chance"`
	Hanging        float32 `json:"hanging_leaves_chance"`
	HangingExtend  float32 `json:"hanging_leaves_extension_chance"`
}

func (v foliageData) fixedHeight() (int, error) {
	if v.Height == nil {
		return 0, fmt.Errorf("missing height")
	}
	var h int
	err := json.Unmarshal(v.Height, &h)
	return h, err
}

func (v foliageData) heightProvider() (provider.Int, error) {
	var h provider.Int
	if v.Height == nil {
		return h, fmt.Errorf("missing height")
	}
	err := json.Unmarshal(v.Height, &h)
	return h, err
}

func (d *decoder) foliagePlacer(raw json.RawMessage) (FoliagePlacer, error) {
	var v foliageData
	if err := json.Unmarshal(raw, &v); err != nil {
		return FoliagePlacer{}, fmt.Errorf("foliage_placer: %w", err)
	}
	f := FoliagePlacer{Radius: v.Radius, Offset: v.Offset}
	typ := provider.Namespaced(v.Type)
	var err error
	switch typ {
	case "minecraft:blob_foliage_placer", "minecraft:bush_foliage_placer", "minecraft:fancy_foliage_placer",
		"minecraft:jungle_foliage_placer":
		var h int
		if h, err = v.fixedHeight(); err != nil {
			break
		}
		switch typ {
		case "minecraft:blob_foliage_placer":
			f.Kind = blobFoliage{Height: h}
		case "minecraft:bush_foliage_placer":
			f.Kind = bushFoliage{blobFoliage{Height: h}}
		case "minecraft:fancy_foliage_placer":
			f.Kind = fancyFoliage{blobFoliage{Height: h}}
		default:
			f.Kind = jungleFoliage{Height: h}
		}
	case "minecraft:spruce_foliage_placer":
		f.Kind = spruceFoliage{TrunkHeight: v.Trunk}
	case "minecraft:pine_foliage_placer", "minecraft:cherry_foliage_placer":
		var h provider.Int
		if h, err = v.heightProvider(); err != nil {
			break
		}
		if typ == "minecraft:pine_foliage_placer" {
			f.Kind = pineFoliage{Height: h}
			break
		}
		f.Kind = cherryFoliage{
			Height:              h,
			WideBottomHole:      v.WideBottomHole,
			CornerHole:          v.CornerHole,
			HangingLeaves:       v.Hanging,
			HangingLeavesExtend: v.HangingExtend,
		}
	case "minecraft:acacia_foliage_placer":
		f.Kind = acaciaFoliage{}
	case "minecraft:mega_pine_foliage_placer":
		f.Kind = megaPineFoliage{CrownHeight: v.Crown}
	case "minecraft:dark_oak_foliage_placer":
		f.Kind = darkOakFoliage{}
	case "minecraft:random_spread_foliage_placer":
		f.Kind = randomSpreadFoliage{FoliageHeight: v.Foliage, Attempts: v.Attempts}
	default:
		return f, fmt.Errorf("unknown foliage placer %q", v.Type)
	}
	if err != nil {
		return f, fmt.Errorf("foliage_placer %s: %w", typ, err)
	}
	return f, nil
}
