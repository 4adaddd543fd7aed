package feature

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// TrunkPlacer rolls the trunk height and places the logs.
type TrunkPlacer struct {
	BaseHeight int
	RandA      int
	RandB      int
	Kind       trunkKind
}

func (t TrunkPlacer) height(r random.Random) int {
	return t.BaseHeight + r.NextBoundedInt(t.RandA+1) + r.NextBoundedInt(t.RandB+1)
}

type trunkKind interface {
	place(b *treeBuilder, height int, start pos.Block) []attachment
}

func randomHorizontal(r random.Random) pos.Direction {
	return pos.Horizontal[r.NextBoundedInt(len(pos.Horizontal))]
}

// setDirt2x2 prepares the ground under a two by two trunk.
func setDirt2x2(b *treeBuilder, start pos.Block) {
	below := start.Down()
	b.setDirt(below)
	b.setDirt(below.Offset(pos.East))
	b.setDirt(below.Offset(pos.South))
	b.setDirt(below.Offset(pos.South).Offset(pos.East))
}

type straightTrunk struct{}

func (straightTrunk) place(b *treeBuilder, height int, start pos.Block) []attachment {
	b.setDirt(start.Down())
	for i := range height {
		b.placeLog(start.UpN(i))
	}
	return []attachment{{pos: start.UpN(height)}}
}

type forkingTrunk struct{}

func (forkingTrunk) place(b *treeBuilder, height int, start pos.Block) []attachment {
	r := b.c.Random
	b.setDirt(start.Down())
	var out []attachment

	dir := randomHorizontal(r)
	bendAt := height - r.NextBoundedInt(4) - 1
	steps := 3 - r.NextBoundedInt(3)
	x, z := start.X, start.Z
	top, ok := 0, false
	for i := range height {
		y := start.Y + i
		if i >= bendAt && steps > 0 {
			off := dir.Offset()
			x += off.X
			z += off.Z
			steps--
		}
		if b.placeLog(pos.Block{X: x, Y: y, Z: z}) {
			top, ok = y+1, true
		}
	}
	if ok {
		out = append(out, attachment{pos: pos.Block{X: x, Y: top, Z: z}, radius: 1})
	}

	x, z = start.X, start.Z
	branch := randomHorizontal(r)
	if branch != dir {
		from := bendAt - r.NextBoundedInt(2) - 1
		length := 1 + r.NextBoundedInt(3)
		ok = false
		for i := from; i < height && length > 0; length-- {
			if i >= 1 {
				y := start.Y + i
				off := branch.Offset()
				x += off.X
				z += off.Z
				if b.placeLog(pos.Block{X: x, Y: y, Z: z}) {
					top, ok = y+1, true
				}
			}
			i++
		}
		if ok {
			out = append(out, attachment{pos: pos.Block{X: x, Y: top, Z: z}})
		}
	}
	return out
}

type giantTrunk struct{}

func (giantTrunk) place(b *treeBuilder, height int, start pos.Block) []attachment {
	setDirt2x2(b, start)
	for i := range height {
		b.placeLogIfFree(start.Add(0, i, 0))
		if i < height-1 {
			b.placeLogIfFree(start.Add(1, i, 0))
			b.placeLogIfFree(start.Add(1, i, 1))
			b.placeLogIfFree(start.Add(0, i, 1))
		}
	}
	return []attachment{{pos: start.UpN(height), giant: true}}
}

type megaJungleTrunk struct{}

func (megaJungleTrunk) place(b *treeBuilder, height int, start pos.Block) []attachment {
	r := b.c.Random
	out := giantTrunk{}.place(b, height, start)
	for i := height - 2 - r.NextBoundedInt(4); i > height/2; i -= 2 + r.NextBoundedInt(4) {
		angle := r.NextFloat() * (2 * math.Pi)
		var dx, dz int
		for l := range 5 {
			dx = int(1.5 + float32(math.Cos(float64(angle)))*float32(l))
			dz = int(1.5 + float32(math.Sin(float64(angle)))*float32(l))
			b.placeLog(start.Add(dx, i-3+l/2, dz))
		}
		out = append(out, attachment{pos: start.Add(dx, i, dz), radius: -2})
	}
	return out
}

type darkOakTrunk struct{}

func (darkOakTrunk) place(b *treeBuilder, height int, start pos.Block) []attachment {
	r := b.c.Random
	setDirt2x2(b, start)
	dir := randomHorizontal(r)
	bendAt := height - r.NextBoundedInt(4)
	steps := 2 - r.NextBoundedInt(3)
	x, z := start.X, start.Z
	top := start.Y + height - 1
	for i := range height {
		if i >= bendAt && steps > 0 {
			off := dir.Offset()
			x += off.X
			z += off.Z
			steps--
		}
		p := pos.Block{X: x, Y: start.Y + i, Z: z}
		if b.isAirOrLeaves(p) {
			b.placeLog(p)
			b.placeLog(p.Offset(pos.East))
			b.placeLog(p.Offset(pos.South))
			b.placeLog(p.Offset(pos.East).Offset(pos.South))
		}
	}
	out := []attachment{{pos: pos.Block{X: x, Y: top, Z: z}, giant: true}}
	for dx := -1; dx <= 2; dx++ {
		for dz := -1; dz <= 2; dz++ {
			if dx >= 0 && dx <= 1 && dz >= 0 && dz <= 1 {
				continue
			}
			if r.NextBoundedInt(3) > 0 {
				continue
			}
			n := r.NextBoundedInt(3) + 2
			for t := range n {
				b.placeLog(pos.Block{X: start.X + dx, Y: top - t - 1, Z: start.Z + dz})
			}
			out = append(out, attachment{pos: pos.Block{X: x + dx, Y: top, Z: z + dz}})
		}
	}
	return out
}

type bendingTrunk struct {
	MinHeightForLeaves int
	BendLength         provider.Int
}

func (t bendingTrunk) place(b *treeBuilder, height int, start pos.Block) []attachment {
	r := b.c.Random
	dir := randomHorizontal(r)
	last := height - 1
	p := start
	b.setDirt(p.Down())
	var out []attachment
	for j := 0; j <= last; j++ {
		if j+1 >= last+r.NextBoundedInt(2) {
			p = p.Offset(dir)
		}
		if b.validTreePos(p) {
			b.placeLog(p)
		}
		if j >= t.MinHeightForLeaves {
			out = append(out, attachment{pos: p})
		}
		p = p.Up()
	}
	n := t.BendLength.Get(r)
	for k := 0; k <= n; k++ {
		if b.validTreePos(p) {
			b.placeLog(p)
		}
		out = append(out, attachment{pos: p})
		p = p.Offset(dir)
	}
	return out
}

// fancyTrunk grows a tall trunk with sloped limbs, each ending in a
// foliage cluster.
type fancyTrunk struct{}

type fancyLimb struct {
	end  pos.Block
	base int
}

func (fancyTrunk) place(b *treeBuilder, height int, start pos.Block) []attachment {
	r := b.c.Random
	h := height + 2
	trunkTop := int(math.Floor(float64(h) * 0.618))
	b.setDirt(start.Down())
	perLayer := min(1, int(math.Floor(1.382+math.Pow(float64(h)/13, 2))))
	baseCap := start.Y + trunkTop

	limbs := []fancyLimb{{end: start.UpN(trunkTop), base: baseCap}}
	for y := h - 5; y >= 0; y-- {
		size := fancyShape(h, y)
		if size < 0 {
			continue
		}
		for range perLayer {
			reach := float64(size) * (float64(r.NextFloat()) + 0.328)
			angle := float64(r.NextFloat()*2) * math.Pi
			end := start.Add(
				int(math.Floor(reach*math.Sin(angle)+0.5)),
				y-1,
				int(math.Floor(reach*math.Cos(angle)+0.5)),
			)
			if !makeLimb(b, end, end.UpN(5), false) {
				continue
			}
			dx, dz := start.X-end.X, start.Z-end.Z
			slope := float64(end.Y) - math.Sqrt(float64(dx*dx+dz*dz))*0.381
			base := baseCap
			if slope <= float64(baseCap) {
				base = int(slope)
			}
			if makeLimb(b, pos.Block{X: start.X, Y: base, Z: start.Z}, end, false) {
				limbs = append(limbs, fancyLimb{end: end, base: base})
			}
		}
	}

	makeLimb(b, start, start.UpN(trunkTop), true)
	for _, l := range limbs {
		from := pos.Block{X: start.X, Y: l.base, Z: start.Z}
		if from != l.end && limbHighEnough(h, l.base-start.Y) {
			makeLimb(b, from, l.end, true)
		}
	}

	var out []attachment
	for _, l := range limbs {
		if limbHighEnough(h, l.base-start.Y) {
			out = append(out, attachment{pos: l.end})
		}
	}
	return out
}

// makeLimb walks the straight line from..to. With place set it lays logs
// along it, otherwise it reports whether every block on it is free.
func makeLimb(b *treeBuilder, from, to pos.Block, place bool) bool {
	if !place && from == to {
		return true
	}
	d := to.Add(-from.X, -from.Y, -from.Z)
	steps := max(abs(d.X), abs(d.Y), abs(d.Z))
	n := float32(max(steps, 1))
	fx, fy, fz := float32(d.X)/n, float32(d.Y)/n, float32(d.Z)/n
	for i := 0; i <= steps; i++ {
		p := from.Add(
			int(math.Floor(float64(0.5+float32(i)*fx))),
			int(math.Floor(float64(0.5+float32(i)*fy))),
			int(math.Floor(float64(0.5+float32(i)*fz))),
		)
		if !place {
			if !b.isFree(p) {
				return false
			}
			continue
		}
		if b.validTreePos(p) {
			b.placeLogWith(p, b.tree.Trunk.State(b.c.Random, p).With("axis", limbAxis(from, p)))
		}
	}
	return true
}

func limbAxis(from, to pos.Block) string {
	dx, dz := abs(to.X-from.X), abs(to.Z-from.Z)
	switch m := max(dx, dz); {
	case m == 0:
		return "y"
	case dx == m:
		return "x"
	}
	return "z"
}

// fancyShape is the limb length at layer y of a tree h tall, or -1 below
// the crown.
func fancyShape(h, y int) float32 {
	if float32(y) < float32(h)*0.3 {
		return -1
	}
	half := float32(h) / 2
	g := half - float32(y)
	r := float32(math.Sqrt(float64(half*half - g*g)))
	switch {
	case g == 0:
		r = half
	case abs32(g) >= half:
		return 0
	}
	return r * 0.5
}

func limbHighEnough(h, y int) bool { return float64(y) >= float64(h)*0.2 }

func abs32(v float32) float32 { return float32(math.Abs(float64(v))) }

// noTrunk stands in for trunk shapes that are not generated.
type noTrunk struct{}

func (noTrunk) place(*treeBuilder, int, pos.Block) []attachment { return nil }

type trunkData struct {
	Type               string       `json:"type"`
	BaseHeight         int          `json:"base_height"`
	HeightRandA        int          `json:"height_rand_a"`
	HeightRandB        int          `json:"height_rand_b"`
	MinHeightForLeaves *int         `json:"min_height_for_leaves"`
	BendLength         provider.Int `json:"bend_length"`
}

func (d *decoder) trunkPlacer(raw json.RawMessage) (TrunkPlacer, error) {
	var v trunkData
	if err := json.Unmarshal(raw, &v); err != nil {
		return TrunkPlacer{}, fmt.Errorf("trunk_placer: %w", err)
	}
	if v.HeightRandA < 0 || v.HeightRandB < 0 {
		return TrunkPlacer{}, fmt.Errorf("trunk_placer: negative height_rand")
	}
	t := TrunkPlacer{BaseHeight: v.BaseHeight, RandA: v.HeightRandA, RandB: v.HeightRandB}
	switch typ := provider.Namespaced(v.Type); typ {
	case "minecraft:straight_trunk_placer":
		t.Kind = straightTrunk{}
	case "minecraft:forking_trunk_placer":
		t.Kind = forkingTrunk{}
	case "minecraft:giant_trunk_placer":
		t.Kind = giantTrunk{}
	case "minecraft:mega_jungle_trunk_placer":
		t.Kind = megaJungleTrunk{}
	case "minecraft:dark_oak_trunk_placer":
		t.Kind = darkOakTrunk{}
	case "minecraft:fancy_trunk_placer":
		t.Kind = fancyTrunk{}
	case "minecraft:bending_trunk_placer":
		t.Kind = bendingTrunk{MinHeightForLeaves: orDefault(v.MinHeightForLeaves, 1), BendLength: v.BendLength}
	default:
		d.log.Debug("trunk placer not generated", "type", typ)
		t.Kind = noTrunk{}
	}
	return t, nil
}
