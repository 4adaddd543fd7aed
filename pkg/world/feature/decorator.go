package feature

import (
	"encoding/json"
	"fmt"

	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/heightmap"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// Decorator adds blocks around a finished tree.
type Decorator interface {
	decorate(b *treeBuilder)
}

// vineSides lists, for each horizontal neighbour, the vine face that points
// back at the supporting block.
var vineSides = [...]struct{ dir, face pos.Direction }{
	{pos.West, pos.East},
	{pos.East, pos.West},
	{pos.North, pos.South},
	{pos.South, pos.North},
}

func placeVine(b *treeBuilder, vine *block.State, p pos.Block, face pos.Direction) {
	b.c.set(p, vine.With(face.String(), "true"))
}

type trunkVine struct{ vine *block.State }

func (t trunkVine) decorate(b *treeBuilder) {
	r := b.c.Random
	for _, log := range b.logs {
		for _, s := range vineSides {
			if r.NextBoundedInt(3) > 0 {
				if p := log.Offset(s.dir); b.c.isAir(p) {
					placeVine(b, t.vine, p, s.face)
				}
			}
		}
	}
}

type leaveVine struct {
	vine        *block.State
	probability float32
}

func (l leaveVine) decorate(b *treeBuilder) {
	r := b.c.Random
	for _, leaf := range b.leaves {
		for _, s := range vineSides {
			if r.NextFloat() < l.probability {
				if p := leaf.Offset(s.dir); b.c.isAir(p) {
					l.hang(b, p, s.face)
				}
			}
		}
	}
}

func (l leaveVine) hang(b *treeBuilder, p pos.Block, face pos.Direction) {
	placeVine(b, l.vine, p, face)
	p = p.Down()
	for i := 4; i > 0 && b.c.isAir(p); i-- {
		placeVine(b, l.vine, p, face)
		p = p.Down()
	}
}

type attachedToLogs struct {
	probability float32
	provider    StateProvider
	directions  []pos.Direction
}

func (a attachedToLogs) decorate(b *treeBuilder) {
	r := b.c.Random
	logs := append([]pos.Block(nil), b.logs...)
	for i := len(logs); i > 1; i-- {
		j := r.NextBoundedInt(i)
		logs[i-1], logs[j] = logs[j], logs[i-1]
	}
	for _, log := range logs {
		d := a.directions[r.NextBoundedInt(len(a.directions))]
		p := log.Offset(d)
		if r.NextFloat() <= a.probability && b.c.isAir(p) {
			b.c.set(p, a.provider.State(r, p))
		}
	}
}

// lowestLogs returns the logs on the lowest layer of the trunk.
func lowestLogs(b *treeBuilder) []pos.Block {
	if len(b.logs) == 0 {
		return nil
	}
	y := b.logs[0].Y
	var out []pos.Block
	for _, p := range b.logs {
		if p.Y == y {
			out = append(out, p)
		}
	}
	return out
}

type placeOnGround struct {
	tries, radius, height int
	provider              StateProvider
	vine                  *block.Block
}

func (g placeOnGround) decorate(b *treeBuilder) {
	base := lowestLogs(b)
	if len(base) == 0 {
		return
	}
	y := base[0].Y
	minX, maxX, minZ, maxZ := base[0].X, base[0].X, base[0].Z, base[0].Z
	for _, p := range base {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minZ, maxZ = min(minZ, p.Z), max(maxZ, p.Z)
	}
	r := b.c.Random
	for range g.tries {
		p := pos.Block{
			X: r.NextInBetween(minX-g.radius, maxX+g.radius),
			Y: r.NextInBetween(y-g.height, y+g.height),
			Z: r.NextInBetween(minZ-g.radius, maxZ+g.radius),
		}
		above := p.Up()
		s := b.c.state(above)
		if !s.IsAir() && (g.vine == nil || !s.Is(g.vine)) {
			continue
		}
		if !b.c.state(p).IsFullCube() {
			continue
		}
		if b.c.World.Top(heightmap.MotionBlockingNoLeaves, p.X, p.Z) > above.Y {
			continue
		}
		b.c.set(above, g.provider.State(r, above))
	}
}

type alterGround struct{ provider StateProvider }

func (g alterGround) decorate(b *treeBuilder) {
	for _, p := range lowestLogs(b) {
		g.circle(b, p.Add(-1, 0, -1))
		g.circle(b, p.Add(2, 0, -1))
		g.circle(b, p.Add(-1, 0, 2))
		g.circle(b, p.Add(2, 0, 2))
		for range 5 {
			n := b.c.Random.NextBoundedInt(64)
			x, z := n%8, n/8
			if x == 0 || x == 7 || z == 0 || z == 7 {
				g.circle(b, p.Add(-3+x, 0, -3+z))
			}
		}
	}
}

func (g alterGround) circle(b *treeBuilder, center pos.Block) {
	for dx := -2; dx <= 2; dx++ {
		for dz := -2; dz <= 2; dz++ {
			if abs(dx) == 2 && abs(dz) == 2 {
				continue
			}
			g.column(b, center.Add(dx, 0, dz))
		}
	}
}

func (g alterGround) column(b *treeBuilder, p pos.Block) {
	for i := 2; i >= -3; i-- {
		q := p.UpN(i)
		if b.c.state(q).HasTag(tagDirt) {
			b.c.set(q, g.provider.State(b.c.Random, p))
			return
		}
		if !b.c.isAir(q) && i < 0 {
			return
		}
	}
}

type decoratorData struct {
	Type        string          `json:"type"`
	Probability float32         `json:"probability"`
	Provider    json.RawMessage `json:"provider"`
	Block       json.RawMessage `json:"block_provider"`
	StateBlock  json.RawMessage `json:"block_state_provider"`
	Directions  []pos.Direction `json:"directions"`
	Tries       *int            `json:"tries"`
	Radius      *int            `json:"radius"`
	Height      *int            `json:"height"`
}

// decorator decodes a tree decorator. Kinds that are not generated decode
// to nil.
func (d *decoder) decorator(raw json.RawMessage) (Decorator, error) {
	var v decoratorData
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	typ := provider.Namespaced(v.Type)
	vine := func() (*block.State, error) {
		s := d.defaultState("vine")
		if s == nil {
			return nil, fmt.Errorf("%s needs the vine block", typ)
		}
		return s, nil
	}
	switch typ {
	case "minecraft:trunk_vine":
		s, err := vine()
		if err != nil {
			return nil, err
		}
		return trunkVine{vine: s}, nil
	case "minecraft:leave_vine":
		s, err := vine()
		if err != nil {
			return nil, err
		}
		return leaveVine{vine: s, probability: v.Probability}, nil
	case "minecraft:attached_to_logs":
		sp, err := d.stateProvider(v.Block)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", typ, err)
		}
		if len(v.Directions) == 0 {
			return nil, fmt.Errorf("%s: no directions", typ)
		}
		return attachedToLogs{probability: v.Probability, provider: sp, directions: v.Directions}, nil
	case "minecraft:place_on_ground":
		sp, err := d.stateProvider(v.StateBlock)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", typ, err)
		}
		g := placeOnGround{
			tries:    orDefault(v.Tries, 128),
			radius:   orDefault(v.Radius, 2),
			height:   orDefault(v.Height, 1),
			provider: sp,
		}
		if vb, ok := d.blocks.ByName("vine"); ok {
			g.vine = vb
		}
		return g, nil
	case "minecraft:alter_ground":
		sp, err := d.stateProvider(v.Provider)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", typ, err)
		}
		return alterGround{provider: sp}, nil
	default:
		d.log.Debug("tree decorator not generated", "type", typ)
		return nil, nil
	}
}
