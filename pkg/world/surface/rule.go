// Package surface replaces the raw stone of a noise-filled chunk with biome
// specific surface blocks by walking a tree of material rules per column.
package surface

import (
	"encoding/json"
	"fmt"

	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/density"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// Rule picks the block for the current context position, or nil when it
// does not apply.
type Rule interface {
	Apply(c *Context) *block.State
}

// BlockRule always yields State.
type BlockRule struct{ State *block.State }

func (r BlockRule) Apply(*Context) *block.State { return r.State }

// SequenceRule tries its rules in order; the first non-nil result wins.
type SequenceRule []Rule

func (r SequenceRule) Apply(c *Context) *block.State {
	for _, rule := range r {
		if s := rule.Apply(c); s != nil {
			return s
		}
	}
	return nil
}

// ConditionRule applies Then only where If holds.
type ConditionRule struct {
	If   Condition
	Then Rule
}

func (r ConditionRule) Apply(c *Context) *block.State {
	if !r.If.Test(c) {
		return nil
	}
	return r.Then.Apply(c)
}

// BandlandsRule yields the terracotta band at the current height.
type BandlandsRule struct{}

func (BandlandsRule) Apply(c *Context) *block.State {
	return c.builder.band(c.X, c.Y, c.Z)
}

// Env is what rule parsing resolves names against. Noises and splitters
// are bound once here so evaluation never touches shared mutable state.
type Env struct {
	Blocks *block.Registry
	Biomes *biome.Registry
	Noises *density.Noises
	Random *density.GlobalRandomConfig
}

type ruleData struct {
	Type        string            `json:"type"`
	ResultState block.StateData   `json:"result_state"`
	Sequence    []json.RawMessage `json:"sequence"`
	IfTrue      json.RawMessage   `json:"if_true"`
	ThenRun     json.RawMessage   `json:"then_run"`
}

// ParseRule decodes a material rule tree.
func ParseRule(env Env, raw json.RawMessage) (Rule, error) {
	var d ruleData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("surface rule: %w", err)
	}
	switch typ := provider.Namespaced(d.Type); typ {
	case "minecraft:block":
		s, err := env.Blocks.Resolve(d.ResultState)
		if err != nil {
			return nil, fmt.Errorf("surface rule %s: %w", typ, err)
		}
		return BlockRule{State: s}, nil
	case "minecraft:sequence":
		seq := make(SequenceRule, 0, len(d.Sequence))
		for i, r := range d.Sequence {
			rule, err := ParseRule(env, r)
			if err != nil {
				return nil, fmt.Errorf("sequence[%d]: %w", i, err)
			}
			seq = append(seq, rule)
		}
		return seq, nil
	case "minecraft:condition":
		if d.IfTrue == nil || d.ThenRun == nil {
			return nil, fmt.Errorf("surface rule %s: needs if_true and then_run", typ)
		}
		cond, err := ParseCondition(env, d.IfTrue)
		if err != nil {
			return nil, err
		}
		then, err := ParseRule(env, d.ThenRun)
		if err != nil {
			return nil, err
		}
		return ConditionRule{If: cond, Then: then}, nil
	case "minecraft:bandlands":
		return BandlandsRule{}, nil
	default:
		return nil, fmt.Errorf("unknown surface rule %q", d.Type)
	}
}
