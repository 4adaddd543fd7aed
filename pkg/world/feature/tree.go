package feature

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

const (
	tagLogs               = "minecraft:logs"
	tagLeaves             = "minecraft:leaves"
	tagDirt               = "minecraft:dirt"
	tagReplaceableByTrees = "minecraft:replaceable_by_trees"
)

// Tree grows a trunk, hangs foliage on the attachment points the trunk
// reports and finally runs decorators over the placed logs and leaves.
type Tree struct {
	Dirt, Trunk, Foliage StateProvider

	TrunkPlacer   TrunkPlacer
	FoliagePlacer FoliagePlacer
	MinimumSize   FeatureSize
	Decorators    []Decorator

	IgnoreVines bool
	ForceDirt   bool

	vine *block.Block
}

// FeatureSize bounds the clearance a tree needs at each height of its trunk.
type FeatureSize struct {
	Limit      int
	UpperLimit int
	Lower      int
	Middle     int
	Upper      int
	ThreeLayer bool
	// MinClippedHeight lets a tree grow shorter than rolled when its space
	// is obstructed, down to this height.
	MinClippedHeight *int
}

func (s FeatureSize) size(height, y int) int {
	if !s.ThreeLayer {
		if y < s.Limit {
			return s.Lower
		}
		return s.Upper
	}
	switch {
	case y < s.Limit:
		return s.Lower
	case y >= height-s.UpperLimit:
		return s.Upper
	default:
		return s.Middle
	}
}

// attachment is a point foliage grows around.
type attachment struct {
	pos    pos.Block
	radius int
	giant  bool
}

// treeBuilder collects the blocks one tree generation placed.
type treeBuilder struct {
	c      *Context
	tree   *Tree
	logs   []pos.Block
	leaves []pos.Block
	placed map[pos.Block]struct{}
	leafAt map[pos.Block]struct{}
}

func (b *treeBuilder) validTreePos(p pos.Block) bool {
	s := b.c.state(p)
	return s.IsAir() || s.HasTag(tagReplaceableByTrees)
}

func (b *treeBuilder) isFree(p pos.Block) bool {
	return b.validTreePos(p) || b.c.state(p).HasTag(tagLogs)
}

func (b *treeBuilder) isAirOrLeaves(p pos.Block) bool {
	s := b.c.state(p)
	return s.IsAir() || s.HasTag(tagLeaves)
}

func (b *treeBuilder) placeLog(p pos.Block) bool {
	if !b.validTreePos(p) {
		return false
	}
	if b.c.set(p, b.tree.Trunk.State(b.c.Random, p)) {
		b.record(&b.logs, p)
	}
	return true
}

func (b *treeBuilder) placeLogIfFree(p pos.Block) {
	if b.isFree(p) {
		b.placeLog(p)
	}
}

func (b *treeBuilder) placeLogWith(p pos.Block, s *block.State) {
	if b.c.set(p, s) {
		b.record(&b.logs, p)
	}
}

func (b *treeBuilder) placeLeaf(p pos.Block) bool {
	if !b.validTreePos(p) {
		return false
	}
	s := b.tree.Foliage.State(b.c.Random, p)
	if s.Get("waterlogged") != "" && b.c.state(p).Block == b.c.Blocks.Water.Block {
		s = s.With("waterlogged", "true")
	}
	if !b.c.set(p, s) {
		return false
	}
	b.record(&b.leaves, p)
	b.leafAt[p] = struct{}{}
	return true
}

func (b *treeBuilder) isLeaf(p pos.Block) bool {
	_, ok := b.leafAt[p]
	return ok
}

func (b *treeBuilder) record(list *[]pos.Block, p pos.Block) {
	if _, ok := b.placed[p]; ok {
		return
	}
	b.placed[p] = struct{}{}
	*list = append(*list, p)
}

// setDirt turns the ground under a trunk into dirt unless it already is
// plain dirt. The ground block counts as part of the trunk for decorators.
func (b *treeBuilder) setDirt(p pos.Block) {
	s := b.c.state(p)
	keep := s.HasTag(tagDirt) && s.Name() != "minecraft:grass_block" && s.Name() != "minecraft:mycelium"
	if b.tree.ForceDirt || !keep {
		b.placeLogWith(p, b.tree.Dirt.State(b.c.Random, p))
	}
}

func (b *treeBuilder) isVine(p pos.Block) bool {
	return b.tree.vine != nil && b.c.state(p).Is(b.tree.vine)
}

func (t *Tree) maxFreeHeight(b *treeBuilder, height int, origin pos.Block) int {
	for y := 0; y <= height+1; y++ {
		r := t.MinimumSize.size(height, y)
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				p := origin.Add(dx, y, dz)
				if !b.isFree(p) || (!t.IgnoreVines && b.isVine(p)) {
					return y - 2
				}
			}
		}
	}
	return height
}

func (t *Tree) Generate(c *Context, origin pos.Block) bool {
	b := &treeBuilder{
		c:      c,
		tree:   t,
		placed: make(map[pos.Block]struct{}),
		leafAt: make(map[pos.Block]struct{}),
	}
	r := c.Random
	height := t.TrunkPlacer.height(r)
	foliageHeight := t.FoliagePlacer.Kind.height(r, height)
	radius := t.FoliagePlacer.radius(r, height-foliageHeight)

	hc := c.World.HeightContext()
	if origin.Y < hc.MinY+1 || origin.Y+height+1 > hc.MaxY()+1 {
		return false
	}
	free := t.maxFreeHeight(b, height, origin)
	clipped := t.MinimumSize.MinClippedHeight != nil && free >= *t.MinimumSize.MinClippedHeight
	if free < height && !clipped {
		return false
	}
	for _, a := range t.TrunkPlacer.Kind.place(b, free, origin) {
		t.FoliagePlacer.create(b, free, a, foliageHeight, radius)
	}
	if len(b.logs) == 0 && len(b.leaves) == 0 {
		return false
	}
	byY := func(p, q pos.Block) int { return cmp.Compare(p.Y, q.Y) }
	slices.SortStableFunc(b.logs, byY)
	slices.SortStableFunc(b.leaves, byY)
	for _, d := range t.Decorators {
		d.decorate(b)
	}
	return true
}

type featureSizeData struct {
	Type             string `json:"type"`
	Limit            *int   `json:"limit"`
	UpperLimit       *int   `json:"upper_limit"`
	LowerSize        *int   `json:"lower_size"`
	MiddleSize       *int   `json:"middle_size"`
	UpperSize        *int   `json:"upper_size"`
	MinClippedHeight *int   `json:"min_clipped_height"`
}

func orDefault(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func (v featureSizeData) size() (FeatureSize, error) {
	s := FeatureSize{
		Limit:            orDefault(v.Limit, 1),
		UpperLimit:       orDefault(v.UpperLimit, 1),
		Lower:            orDefault(v.LowerSize, 0),
		Middle:           orDefault(v.MiddleSize, 1),
		Upper:            orDefault(v.UpperSize, 1),
		MinClippedHeight: v.MinClippedHeight,
	}
	switch provider.Namespaced(v.Type) {
	case "minecraft:two_layers_feature_size":
	case "minecraft:three_layers_feature_size":
		s.ThreeLayer = true
	default:
		return s, fmt.Errorf("unknown feature size %q", v.Type)
	}
	return s, nil
}

type treeData struct {
	Dirt          json.RawMessage   `json:"dirt_provider"`
	Trunk         json.RawMessage   `json:"trunk_provider"`
	Foliage       json.RawMessage   `json:"foliage_provider"`
	TrunkPlacer   json.RawMessage   `json:"trunk_placer"`
	FoliagePlacer json.RawMessage   `json:"foliage_placer"`
	MinimumSize   featureSizeData   `json:"minimum_size"`
	Decorators    []json.RawMessage `json:"decorators"`
	IgnoreVines   bool              `json:"ignore_vines"`
	ForceDirt     bool              `json:"force_dirt"`
}

func (d *decoder) tree(raw json.RawMessage) (Feature, error) {
	var v treeData
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	t := &Tree{IgnoreVines: v.IgnoreVines, ForceDirt: v.ForceDirt}
	if vine, ok := d.blocks.ByName("vine"); ok {
		t.vine = vine
	}
	var err error
	if v.Dirt == nil {
		dirt := d.defaultState("dirt")
		if dirt == nil {
			return nil, fmt.Errorf("dirt_provider: missing and no dirt block")
		}
		t.Dirt = SimpleState{S: dirt}
	} else if t.Dirt, err = d.stateProvider(v.Dirt); err != nil {
		return nil, fmt.Errorf("dirt_provider: %w", err)
	}
	if t.Trunk, err = d.stateProvider(v.Trunk); err != nil {
		return nil, fmt.Errorf("trunk_provider: %w", err)
	}
	if t.Foliage, err = d.stateProvider(v.Foliage); err != nil {
		return nil, fmt.Errorf("foliage_provider: %w", err)
	}
	if t.TrunkPlacer, err = d.trunkPlacer(v.TrunkPlacer); err != nil {
		return nil, err
	}
	if t.FoliagePlacer, err = d.foliagePlacer(v.FoliagePlacer); err != nil {
		return nil, err
	}
	if t.MinimumSize, err = v.MinimumSize.size(); err != nil {
		return nil, fmt.Errorf("minimum_size: %w", err)
	}
	for i, raw := range v.Decorators {
		dec, err := d.decorator(raw)
		if err != nil {
			return nil, fmt.Errorf("decorators[%d]: %w", i, err)
		}
		if dec != nil {
			t.Decorators = append(t.Decorators, dec)
		}
	}
	return t, nil
}
