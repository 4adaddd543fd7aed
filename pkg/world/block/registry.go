package block

import (
	"fmt"
	"sort"
)

// Registry is the immutable table of every block and state. It is built once
// at startup and shared by all generation tasks.
type Registry struct {
	blocks []*Block
	byName map[string]*Block
	states []*State
	tags   map[string][]*Block

	Air   *State
	Water *State
	Lava  *State
}

// NewRegistry assigns ids in definition order and expands every state.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*Block, len(defs)),
		tags:   make(map[string][]*Block),
	}
	for i, def := range defs {
		b, err := newBlock(i, def)
		if err != nil {
			return nil, err
		}
		if _, dup := r.byName[b.Name]; dup {
			return nil, fmt.Errorf("duplicate block %s", b.Name)
		}
		for _, s := range b.States {
			if len(r.states) > 0xFFFF {
				return nil, fmt.Errorf("too many block states")
			}
			s.ID = uint16(len(r.states))
			r.states = append(r.states, s)
		}
		r.blocks = append(r.blocks, b)
		r.byName[b.Name] = b
		for _, t := range b.Tags() {
			r.tags[t] = append(r.tags[t], b)
		}
	}

	for name, dst := range map[string]**State{
		"minecraft:air":   &r.Air,
		"minecraft:water": &r.Water,
		"minecraft:lava":  &r.Lava,
	} {
		b, ok := r.byName[name]
		if !ok {
			return nil, fmt.Errorf("registry is missing required block %s", name)
		}
		*dst = b.DefaultState
	}
	if r.Air.ID != 0 {
		return nil, fmt.Errorf("minecraft:air must be the first block, has state id %d", r.Air.ID)
	}
	return r, nil
}

// ByID returns the block with the given numeric id.
func (r *Registry) ByID(id int) (*Block, bool) {
	if id < 0 || id >= len(r.blocks) {
		return nil, false
	}
	return r.blocks[id], true
}

// ByName returns the block with the given identifier.
func (r *Registry) ByName(name string) (*Block, bool) {
	b, ok := r.byName[NormalizeName(name)]
	return b, ok
}

// All returns every block in id order.
func (r *Registry) All() []*Block { return r.blocks }

// StateCount returns the number of registered states.
func (r *Registry) StateCount() int { return len(r.states) }

// State resolves a state id. Unknown ids are a programming error.
func (r *Registry) State(id uint16) *State {
	return r.states[id]
}

// MustDefault returns the default state of a block that must exist.
func (r *Registry) MustDefault(name string) *State {
	b, ok := r.ByName(name)
	if !ok {
		panic(fmt.Sprintf("block: unknown block %s", name))
	}
	return b.DefaultState
}

// ParseState resolves a block name and property assignment.
func (r *Registry) ParseState(name string, props map[string]string) (*State, error) {
	b, ok := r.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown block %s", name)
	}
	s := b.DefaultState
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		i := b.propertyIndex(k)
		if i < 0 {
			return nil, fmt.Errorf("block %s has no property %s", b.Name, k)
		}
		if b.Properties[i].index(props[k]) < 0 {
			return nil, fmt.Errorf("block %s: invalid value %s=%s", b.Name, k, props[k])
		}
		s = s.With(k, props[k])
	}
	return s, nil
}

// Tagged returns the blocks carrying tag.
func (r *Registry) Tagged(tag string) []*Block {
	return r.tags[NormalizeName(tag)]
}

// StateData is the data form of a block state.
type StateData struct {
	Name       string            `json:"Name"`
	Properties map[string]string `json:"Properties,omitempty"`
}

// Resolve looks up the state described by d.
func (r *Registry) Resolve(d StateData) (*State, error) {
	return r.ParseState(d.Name, d.Properties)
}
