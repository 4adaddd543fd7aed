package feature

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// Predicate tests the world at a position.
type Predicate interface {
	Test(c *Context, p pos.Block) bool
}

// Offset shifts the tested position of a predicate.
type Offset [3]int

func (o Offset) apply(p pos.Block) pos.Block { return p.Add(o[0], o[1], o[2]) }

// MatchingBlocks holds when the block at the offset is one of Blocks.
type MatchingBlocks struct {
	Offset Offset
	Blocks []*block.Block
	Tags   []string
}

func (m MatchingBlocks) Test(c *Context, p pos.Block) bool {
	s := c.state(m.Offset.apply(p))
	for _, b := range m.Blocks {
		if s.Block == b {
			return true
		}
	}
	for _, t := range m.Tags {
		if s.HasTag(t) {
			return true
		}
	}
	return false
}

// MatchingTag holds when the block at the offset carries Tag.
type MatchingTag struct {
	Offset Offset
	Tag    string
}

func (m MatchingTag) Test(c *Context, p pos.Block) bool {
	return c.state(m.Offset.apply(p)).HasTag(m.Tag)
}

// MatchingFluids holds when the block at the offset is one of the named
// fluids. Flowing variants match their source block.
type MatchingFluids struct {
	Offset Offset
	Fluids []string
}

func (m MatchingFluids) Test(c *Context, p pos.Block) bool {
	s := c.state(m.Offset.apply(p))
	if !s.IsLiquid() {
		return false
	}
	for _, f := range m.Fluids {
		if s.Block.Name == f {
			return true
		}
	}
	return false
}

// HasSturdyFace holds when the block at the offset offers a full face.
type HasSturdyFace struct {
	Offset    Offset
	Direction pos.Direction
}

func (h HasSturdyFace) Test(c *Context, p pos.Block) bool {
	return c.state(h.Offset.apply(p)).HasSturdyFace()
}

// Solid holds when the block at the offset blocks movement.
type Solid struct{ Offset Offset }

func (s Solid) Test(c *Context, p pos.Block) bool { return c.state(s.Offset.apply(p)).IsSolid() }

// Replaceable holds when the block at the offset may be overwritten.
type Replaceable struct{ Offset Offset }

func (r Replaceable) Test(c *Context, p pos.Block) bool {
	return c.state(r.Offset.apply(p)).IsReplaceable()
}

// WouldSurvive holds when State could stay at the offset position.
type WouldSurvive struct {
	Offset Offset
	State  *block.State
}

func (w WouldSurvive) Test(c *Context, p pos.Block) bool {
	return c.canSurvive(w.State, w.Offset.apply(p))
}

// InsideWorldBounds holds when the offset position lies within the build
// height.
type InsideWorldBounds struct{ Offset Offset }

func (i InsideWorldBounds) Test(c *Context, p pos.Block) bool {
	return !c.outOfHeight(i.Offset.apply(p).Y)
}

// AnyOf holds when one of its predicates holds.
type AnyOf []Predicate

func (a AnyOf) Test(c *Context, p pos.Block) bool {
	for _, pr := range a {
		if pr.Test(c, p) {
			return true
		}
	}
	return false
}

// AllOf holds when every predicate holds.
type AllOf []Predicate

func (a AllOf) Test(c *Context, p pos.Block) bool {
	for _, pr := range a {
		if !pr.Test(c, p) {
			return false
		}
	}
	return true
}

// Not inverts a predicate.
type Not struct{ Predicate Predicate }

func (n Not) Test(c *Context, p pos.Block) bool { return !n.Predicate.Test(c, p) }

// True always holds. Unobstructed decodes to it since generation places no
// entities.
type True struct{}

func (True) Test(*Context, pos.Block) bool { return true }

// nameList decodes either one name or a list of names.
type nameList []string

func (n *nameList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*n = nameList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*n = many
	return nil
}

type predicateData struct {
	Type       string            `json:"type"`
	Offset     Offset            `json:"offset"`
	Blocks     nameList          `json:"blocks"`
	Tag        string            `json:"tag"`
	Fluids     nameList          `json:"fluids"`
	Direction  pos.Direction     `json:"direction"`
	State      block.StateData   `json:"state"`
	Predicates []json.RawMessage `json:"predicates"`
	Predicate  json.RawMessage   `json:"predicate"`
}

func (d *decoder) predicate(raw json.RawMessage) (Predicate, error) {
	var v predicateData
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("block predicate: %w", err)
	}
	switch typ := provider.Namespaced(v.Type); typ {
	case "minecraft:matching_blocks":
		m := MatchingBlocks{Offset: v.Offset}
		for _, name := range v.Blocks {
			if strings.HasPrefix(name, "#") {
				m.Tags = append(m.Tags, block.NormalizeName(name))
				continue
			}
			b, err := d.block(name)
			if err != nil {
				return nil, fmt.Errorf("block predicate %s: %w", typ, err)
			}
			m.Blocks = append(m.Blocks, b)
		}
		return m, nil
	case "minecraft:matching_block_tag":
		return MatchingTag{Offset: v.Offset, Tag: block.NormalizeName(v.Tag)}, nil
	case "minecraft:matching_fluids":
		m := MatchingFluids{Offset: v.Offset}
		for _, f := range v.Fluids {
			f = block.NormalizeName(f)
			m.Fluids = append(m.Fluids, strings.Replace(f, ":flowing_", ":", 1))
		}
		return m, nil
	case "minecraft:has_sturdy_face":
		return HasSturdyFace{Offset: v.Offset, Direction: v.Direction}, nil
	case "minecraft:solid":
		return Solid{Offset: v.Offset}, nil
	case "minecraft:replaceable":
		return Replaceable{Offset: v.Offset}, nil
	case "minecraft:would_survive":
		s, err := d.blocks.Resolve(v.State)
		if err != nil {
			return nil, fmt.Errorf("block predicate %s: %w", typ, err)
		}
		return WouldSurvive{Offset: v.Offset, State: s}, nil
	case "minecraft:inside_world_bounds":
		return InsideWorldBounds{Offset: v.Offset}, nil
	case "minecraft:any_of", "minecraft:all_of":
		list := make([]Predicate, 0, len(v.Predicates))
		for i, r := range v.Predicates {
			p, err := d.predicate(r)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", typ, i, err)
			}
			list = append(list, p)
		}
		if typ == "minecraft:any_of" {
			return AnyOf(list), nil
		}
		return AllOf(list), nil
	case "minecraft:not":
		if v.Predicate == nil {
			return nil, fmt.Errorf("block predicate %s: missing predicate", typ)
		}
		p, err := d.predicate(v.Predicate)
		if err != nil {
			return nil, err
		}
		return Not{Predicate: p}, nil
	case "minecraft:true", "minecraft:unobstructed":
		return True{}, nil
	default:
		return nil, fmt.Errorf("unknown block predicate %q", v.Type)
	}
}
