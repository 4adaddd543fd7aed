package feature

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/noise"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// StateProvider picks the block state a feature writes at a position.
type StateProvider interface {
	State(r random.Random, p pos.Block) *block.State
}

// SimpleState always yields one state.
type SimpleState struct{ S *block.State }

func (s SimpleState) State(random.Random, pos.Block) *block.State { return s.S }

// WeightedState picks from a weighted pool.
type WeightedState struct{ Entries provider.Pool[*block.State] }

func (w WeightedState) State(r random.Random, _ pos.Block) *block.State {
	s, _ := w.Entries.Pick(r)
	return s
}

// RotatedState gives a pillar block a random axis.
type RotatedState struct{ S *block.State }

var axes = [...]string{"x", "y", "z"}

func (s RotatedState) State(r random.Random, _ pos.Block) *block.State {
	return s.S.With("axis", axes[r.NextBoundedInt(len(axes))])
}

// RandomizedIntState overrides an integer property of the source state
// with a sampled value.
type RandomizedIntState struct {
	Source   StateProvider
	Property string
	Values   provider.Int
}

func (s RandomizedIntState) State(r random.Random, p pos.Block) *block.State {
	st := s.Source.State(r, p)
	if st.Get(s.Property) == "" {
		return st
	}
	return st.With(s.Property, strconv.Itoa(s.Values.Get(r)))
}

// noiseBase is the seeded noise shared by the noise driven providers.
type noiseBase struct {
	noise *noise.DoublePerlin
	scale float64
}

func (n noiseBase) value(p pos.Block, scale float64) float64 {
	return n.noise.Sample(float64(p.X)*scale, float64(p.Y)*scale, float64(p.Z)*scale)
}

// pickByNoise maps a noise value in [-1, 1] onto the list.
func pickByNoise(states []*block.State, v float64) *block.State {
	d := noise.Clamp((1+v)/2, 0, 0.9999)
	return states[int(d*float64(len(states)))]
}

// NoiseState picks from States by a 3D noise.
type NoiseState struct {
	noiseBase
	States []*block.State
}

func (s NoiseState) State(_ random.Random, p pos.Block) *block.State {
	return pickByNoise(s.States, s.value(p, s.scale))
}

// NoiseThresholdState picks a low state below the threshold and otherwise
// a high state with HighChance or the default.
type NoiseThresholdState struct {
	noiseBase
	Threshold  float64
	HighChance float32
	Default    *block.State
	Low, High  []*block.State
}

func (s NoiseThresholdState) State(r random.Random, p pos.Block) *block.State {
	if s.value(p, s.scale) < s.Threshold {
		return s.Low[r.NextBoundedInt(len(s.Low))]
	}
	if r.NextFloat() < s.HighChance {
		return s.High[r.NextBoundedInt(len(s.High))]
	}
	return s.Default
}

// DualNoiseState narrows States to a slowly varying subset before picking
// by the fast noise.
type DualNoiseState struct {
	noiseBase
	States     []*block.State
	VarietyMin int
	VarietyMax int
	slow       *noise.DoublePerlin
	slowScale  float64
}

func (s DualNoiseState) slowValue(p pos.Block) float64 {
	return s.slow.Sample(float64(p.X)*s.slowScale, float64(p.Y)*s.slowScale, float64(p.Z)*s.slowScale)
}

func (s DualNoiseState) State(_ random.Random, p pos.Block) *block.State {
	n := int(noise.ClampedMap(s.slowValue(p), -1, 1, float64(s.VarietyMin), float64(s.VarietyMax+1)))
	n = max(n, 1)
	subset := make([]*block.State, n)
	for j := range subset {
		subset[j] = pickByNoise(s.States, s.slowValue(p.Add(j*54545, 0, j*34234)))
	}
	return pickByNoise(subset, s.value(p, s.scale))
}

// intRange decodes either [min, max] or {min_inclusive, max_inclusive}.
type intRange struct{ Min, Max int }

func (r *intRange) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("range needs two values, got %d", len(pair))
		}
		r.Min, r.Max = pair[0], pair[1]
		return nil
	}
	var obj struct {
		Min int `json:"min_inclusive"`
		Max int `json:"max_inclusive"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	r.Min, r.Max = obj.Min, obj.Max
	return nil
}

type stateProviderData struct {
	Type     string                         `json:"type"`
	State    block.StateData                `json:"state"`
	Entries  provider.Pool[block.StateData] `json:"entries"`
	Source   json.RawMessage                `json:"source"`
	Property string                         `json:"property"`
	Values   provider.Int                   `json:"values"`

	Seed       int64             `json:"seed"`
	Noise      noise.Parameters  `json:"noise"`
	Scale      float32           `json:"scale"`
	States     []block.StateData `json:"states"`
	Threshold  float32           `json:"threshold"`
	HighChance float32           `json:"high_chance"`
	Default    block.StateData   `json:"default_state"`
	LowStates  []block.StateData `json:"low_states"`
	HighStates []block.StateData `json:"high_states"`
	Variety    intRange          `json:"variety"`
	SlowNoise  noise.Parameters  `json:"slow_noise"`
	SlowScale  float32           `json:"slow_scale"`
}

func (d *decoder) states(list []block.StateData) ([]*block.State, error) {
	out := make([]*block.State, 0, len(list))
	for _, sd := range list {
		s, err := d.blocks.Resolve(sd)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) stateProvider(raw json.RawMessage) (StateProvider, error) {
	var v stateProviderData
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("state provider: %w", err)
	}
	typ := provider.Namespaced(v.Type)
	wrap := func(err error) error { return fmt.Errorf("state provider %s: %w", typ, err) }
	seeded := func(p noise.Parameters) *noise.DoublePerlin {
		return noise.NewDoublePerlin(random.NewLegacy(v.Seed), p)
	}

	switch typ {
	case "minecraft:simple_state_provider", "minecraft:rotated_block_provider":
		s, err := d.blocks.Resolve(v.State)
		if err != nil {
			return nil, wrap(err)
		}
		if typ == "minecraft:rotated_block_provider" {
			return RotatedState{S: s}, nil
		}
		return SimpleState{S: s}, nil
	case "minecraft:weighted_state_provider":
		pool := make(provider.Pool[*block.State], 0, len(v.Entries))
		for _, e := range v.Entries {
			s, err := d.blocks.Resolve(e.Data)
			if err != nil {
				return nil, wrap(err)
			}
			pool = append(pool, provider.Weighted[*block.State]{Data: s, Weight: e.Weight})
		}
		if pool.TotalWeight() <= 0 {
			return nil, wrap(fmt.Errorf("empty pool"))
		}
		return WeightedState{Entries: pool}, nil
	case "minecraft:randomized_int_state_provider":
		if v.Source == nil || v.Property == "" {
			return nil, wrap(fmt.Errorf("needs source and property"))
		}
		src, err := d.stateProvider(v.Source)
		if err != nil {
			return nil, wrap(err)
		}
		return RandomizedIntState{Source: src, Property: v.Property, Values: v.Values}, nil
	case "minecraft:noise_provider":
		states, err := d.states(v.States)
		if err != nil {
			return nil, wrap(err)
		}
		if len(states) == 0 {
			return nil, wrap(fmt.Errorf("no states"))
		}
		return NoiseState{noiseBase: noiseBase{seeded(v.Noise), float64(v.Scale)}, States: states}, nil
	case "minecraft:noise_threshold_provider":
		low, err := d.states(v.LowStates)
		if err != nil {
			return nil, wrap(err)
		}
		high, err := d.states(v.HighStates)
		if err != nil {
			return nil, wrap(err)
		}
		def, err := d.blocks.Resolve(v.Default)
		if err != nil {
			return nil, wrap(err)
		}
		if len(low) == 0 || len(high) == 0 {
			return nil, wrap(fmt.Errorf("low_states and high_states must not be empty"))
		}
		return NoiseThresholdState{
			noiseBase:  noiseBase{seeded(v.Noise), float64(v.Scale)},
			Threshold:  float64(v.Threshold),
			HighChance: v.HighChance,
			Default:    def,
			Low:        low,
			High:       high,
		}, nil
	case "minecraft:dual_noise_provider":
		states, err := d.states(v.States)
		if err != nil {
			return nil, wrap(err)
		}
		if len(states) == 0 {
			return nil, wrap(fmt.Errorf("no states"))
		}
		return DualNoiseState{
			noiseBase:  noiseBase{seeded(v.Noise), float64(v.Scale)},
			States:     states,
			VarietyMin: v.Variety.Min,
			VarietyMax: v.Variety.Max,
			slow:       seeded(v.SlowNoise),
			slowScale:  float64(v.SlowScale),
		}, nil
	default:
		return nil, fmt.Errorf("unknown state provider %q", v.Type)
	}
}
