// Package rule implements block-state rule tests, the closed set of
// predicates ore and replacement features use to decide what they may
// overwrite.
package rule

import (
	"encoding/json"
	"fmt"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// Test is a predicate over a block state. Probability-gated tests consume one
// draw from r per call, so callers must evaluate them in a fixed order.
type Test interface {
	Test(s *block.State, r random.Random) bool
}

// AlwaysTrue matches every state.
type AlwaysTrue struct{}

func (AlwaysTrue) Test(*block.State, random.Random) bool { return true }

// BlockMatch matches any state of Block.
type BlockMatch struct{ Block *block.Block }

func (t BlockMatch) Test(s *block.State, _ random.Random) bool { return s.Is(t.Block) }

// StateMatch matches exactly State.
type StateMatch struct{ State *block.State }

func (t StateMatch) Test(s *block.State, _ random.Random) bool { return s == t.State }

// TagMatch matches states whose block carries Tag.
type TagMatch struct{ Tag string }

func (t TagMatch) Test(s *block.State, _ random.Random) bool { return s.HasTag(t.Tag) }

// RandomBlockMatch matches Block with the given probability.
type RandomBlockMatch struct {
	Block       *block.Block
	Probability float32
}

func (t RandomBlockMatch) Test(s *block.State, r random.Random) bool {
	return s.Is(t.Block) && r.NextFloat() < t.Probability
}

// RandomStateMatch matches State with the given probability.
type RandomStateMatch struct {
	State       *block.State
	Probability float32
}

func (t RandomStateMatch) Test(s *block.State, r random.Random) bool {
	return s == t.State && r.NextFloat() < t.Probability
}

type ruleData struct {
	Type        string          `json:"predicate_type"`
	Block       string          `json:"block"`
	BlockState  block.StateData `json:"block_state"`
	Tag         string          `json:"tag"`
	Probability float32         `json:"probability"`
}

// Parse decodes a rule test against reg.
func Parse(reg *block.Registry, raw json.RawMessage) (Test, error) {
	var d ruleData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("rule test: %w", err)
	}
	lookup := func() (*block.Block, error) {
		b, ok := reg.ByName(d.Block)
		if !ok {
			return nil, fmt.Errorf("rule test %s: unknown block %q", d.Type, d.Block)
		}
		return b, nil
	}
	switch typ := provider.Namespaced(d.Type); typ {
	case "minecraft:always_true":
		return AlwaysTrue{}, nil
	case "minecraft:block_match":
		b, err := lookup()
		if err != nil {
			return nil, err
		}
		return BlockMatch{Block: b}, nil
	case "minecraft:blockstate_match":
		s, err := reg.Resolve(d.BlockState)
		if err != nil {
			return nil, fmt.Errorf("rule test %s: %w", typ, err)
		}
		return StateMatch{State: s}, nil
	case "minecraft:tag_match":
		return TagMatch{Tag: block.NormalizeName(d.Tag)}, nil
	case "minecraft:random_block_match":
		b, err := lookup()
		if err != nil {
			return nil, err
		}
		return RandomBlockMatch{Block: b, Probability: d.Probability}, nil
	case "minecraft:random_blockstate_match":
		s, err := reg.Resolve(d.BlockState)
		if err != nil {
			return nil, fmt.Errorf("rule test %s: %w", typ, err)
		}
		return RandomStateMatch{State: s, Probability: d.Probability}, nil
	default:
		return nil, fmt.Errorf("unknown rule test %q", d.Type)
	}
}
