// Package block holds the block and block-state tables consumed by world
// generation and the placement-validity capability built on them.
package block

import (
	"fmt"
	"sort"
	"strings"
)

// Flag describes a physical trait shared by all states of a block.
type Flag uint16

const (
	FlagAir Flag = 1 << iota
	FlagLiquid
	FlagSolid
	FlagFullCube
	FlagReplaceable
)

var flagNames = map[string]Flag{
	"air":         FlagAir,
	"liquid":      FlagLiquid,
	"solid":       FlagSolid,
	"full_cube":   FlagFullCube,
	"replaceable": FlagReplaceable,
}

// Property is a named block property with its allowed values.
type Property struct {
	Name   string
	Values []string
}

func (p Property) index(v string) int {
	for i, pv := range p.Values {
		if pv == v {
			return i
		}
	}
	return -1
}

// Block is a block type. All of its states are registered up front.
type Block struct {
	ID           int
	Name         string
	Properties   []Property
	States       []*State
	DefaultState *State
	Support      Support

	flags   Flag
	tags    map[string]struct{}
	strides []int
}

// HasTag reports whether the block carries the given tag.
func (b *Block) HasTag(tag string) bool {
	_, ok := b.tags[NormalizeName(tag)]
	return ok
}

// Tags returns the block's tags in sorted order.
func (b *Block) Tags() []string {
	out := make([]string, 0, len(b.tags))
	for t := range b.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (b *Block) String() string { return b.Name }

func (b *Block) propertyIndex(name string) int {
	for i, p := range b.Properties {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// State is one concrete state of a block.
type State struct {
	ID     uint16
	Block  *Block
	values []uint8
}

func (s *State) has(f Flag) bool { return s.Block.flags&f != 0 }

// IsAir reports whether the state is one of the air blocks.
func (s *State) IsAir() bool { return s.has(FlagAir) }

// IsLiquid reports whether the state is a fluid source.
func (s *State) IsLiquid() bool { return s.has(FlagLiquid) }

// BlocksMovement reports whether entities collide with the state.
func (s *State) BlocksMovement() bool { return s.has(FlagSolid) }

// IsSolid is the generation notion of solidity.
func (s *State) IsSolid() bool { return s.has(FlagSolid) }

// IsFullCube reports whether the state occupies its whole block.
func (s *State) IsFullCube() bool { return s.has(FlagFullCube) }

// IsReplaceable reports whether placing a block may overwrite the state.
func (s *State) IsReplaceable() bool { return s.has(FlagAir | FlagLiquid | FlagReplaceable) }

// HasSturdyFace approximates face sturdiness by full-cube shape.
func (s *State) HasSturdyFace() bool { return s.IsFullCube() }

// Is reports whether s is a state of b.
func (s *State) Is(b *Block) bool { return s.Block == b }

// HasTag reports whether the state's block carries tag.
func (s *State) HasTag(tag string) bool { return s.Block.HasTag(tag) }

// Name returns the block name.
func (s *State) Name() string { return s.Block.Name }

// Get returns the value of a property, or "" when the block lacks it.
func (s *State) Get(property string) string {
	i := s.Block.propertyIndex(property)
	if i < 0 {
		return ""
	}
	return s.Block.Properties[i].Values[s.values[i]]
}

// With returns the sibling state with property set to value. Unknown
// properties or values leave the state unchanged.
func (s *State) With(property, value string) *State {
	b := s.Block
	i := b.propertyIndex(property)
	if i < 0 {
		return s
	}
	v := b.Properties[i].index(value)
	if v < 0 {
		return s
	}
	idx := 0
	for j := range b.Properties {
		cur := int(s.values[j])
		if j == i {
			cur = v
		}
		idx += cur * b.strides[j]
	}
	return b.States[idx]
}

// Properties returns the state's property assignments.
func (s *State) Properties() map[string]string {
	if len(s.values) == 0 {
		return nil
	}
	m := make(map[string]string, len(s.values))
	for i, p := range s.Block.Properties {
		m[p.Name] = p.Values[s.values[i]]
	}
	return m
}

func (s *State) String() string {
	if len(s.values) == 0 {
		return s.Block.Name
	}
	parts := make([]string, len(s.values))
	for i, p := range s.Block.Properties {
		parts[i] = p.Name + "=" + p.Values[s.values[i]]
	}
	return s.Block.Name + "[" + strings.Join(parts, ",") + "]"
}

// NormalizeName adds the default namespace to bare identifiers and strips a
// leading '#' tag marker.
func NormalizeName(name string) string {
	name = strings.TrimPrefix(name, "#")
	if !strings.Contains(name, ":") {
		return "minecraft:" + name
	}
	return name
}

// Definition is the table form of a block.
type Definition struct {
	Name       string              `json:"name"`
	Properties map[string][]string `json:"properties,omitempty"`
	Order      []string            `json:"property_order,omitempty"`
	Default    map[string]string   `json:"default,omitempty"`
	Flags      []string            `json:"flags,omitempty"`
	Tags       []string            `json:"tags,omitempty"`
	Support    Support             `json:"support,omitempty"`
}

func newBlock(id int, def Definition) (*Block, error) {
	b := &Block{
		ID:      id,
		Name:    NormalizeName(def.Name),
		Support: def.Support,
		tags:    make(map[string]struct{}, len(def.Tags)),
	}
	for _, f := range def.Flags {
		v, ok := flagNames[f]
		if !ok {
			return nil, fmt.Errorf("block %s: unknown flag %q", b.Name, f)
		}
		b.flags |= v
	}
	for _, t := range def.Tags {
		b.tags[NormalizeName(t)] = struct{}{}
	}

	order := def.Order
	if len(order) == 0 {
		for name := range def.Properties {
			order = append(order, name)
		}
		sort.Strings(order)
	}
	for _, name := range order {
		values, ok := def.Properties[name]
		if !ok || len(values) == 0 {
			return nil, fmt.Errorf("block %s: property %q has no values", b.Name, name)
		}
		b.Properties = append(b.Properties, Property{Name: name, Values: values})
	}

	total := 1
	b.strides = make([]int, len(b.Properties))
	for i := len(b.Properties) - 1; i >= 0; i-- {
		b.strides[i] = total
		total *= len(b.Properties[i].Values)
	}
	b.States = make([]*State, total)
	for idx := range total {
		values := make([]uint8, len(b.Properties))
		for i := range b.Properties {
			values[i] = uint8((idx / b.strides[i]) % len(b.Properties[i].Values))
		}
		b.States[idx] = &State{Block: b, values: values}
	}

	def0 := 0
	for i, p := range b.Properties {
		v := 0
		if want, ok := def.Default[p.Name]; ok {
			v = p.index(want)
			if v < 0 {
				return nil, fmt.Errorf("block %s: default %s=%s is not allowed", b.Name, p.Name, want)
			}
		}
		def0 += v * b.strides[i]
	}
	b.DefaultState = b.States[def0]
	return b, nil
}
