package provider

import (
	"encoding/json"
	"fmt"

	"github.com/go-theft-craft/worldgen/pkg/random"
)

// HeightProvider yields a y coordinate inside a height context.
type HeightProvider interface {
	Get(r random.Random, c HeightContext) int
}

// ConstantHeight always yields its anchor.
type ConstantHeight struct {
	Value YOffset `json:"value"`
}

func (h ConstantHeight) Get(_ random.Random, c HeightContext) int { return h.Value.Y(c) }

// UniformHeight yields uniformly between two anchors.
type UniformHeight struct {
	MinInclusive YOffset `json:"min_inclusive"`
	MaxInclusive YOffset `json:"max_inclusive"`
}

func (h UniformHeight) Get(r random.Random, c HeightContext) int {
	lo, hi := h.MinInclusive.Y(c), h.MaxInclusive.Y(c)
	if lo > hi {
		return lo
	}
	return r.NextInBetween(lo, hi)
}

// BiasedToBottomHeight favours the lower anchor.
type BiasedToBottomHeight struct {
	MinInclusive YOffset `json:"min_inclusive"`
	MaxInclusive YOffset `json:"max_inclusive"`
	Inner        *int    `json:"inner,omitempty"`
}

func innerOr1(p *int) int {
	if p == nil {
		return 1
	}
	return *p
}

func (h BiasedToBottomHeight) Get(r random.Random, c HeightContext) int {
	lo, hi := h.MinInclusive.Y(c), h.MaxInclusive.Y(c)
	inner := innerOr1(h.Inner)
	if hi-lo-inner+1 <= 0 {
		return lo
	}
	k := r.NextBoundedInt(hi - lo - inner + 1)
	return r.NextBoundedInt(k+inner) + lo
}

// VeryBiasedToBottomHeight nests the bias twice.
type VeryBiasedToBottomHeight struct {
	MinInclusive YOffset `json:"min_inclusive"`
	MaxInclusive YOffset `json:"max_inclusive"`
	Inner        *int    `json:"inner,omitempty"`
}

func (h VeryBiasedToBottomHeight) Get(r random.Random, c HeightContext) int {
	lo, hi := h.MinInclusive.Y(c), h.MaxInclusive.Y(c)
	inner := innerOr1(h.Inner)
	if hi-lo-inner+1 <= 0 {
		return lo
	}
	a := r.NextInBetween(lo+inner, hi)
	b := r.NextInBetween(lo, a-1)
	return r.NextInBetween(lo, b-1+inner)
}

// TrapezoidHeight sums two uniform draws with a flat middle of Plateau.
type TrapezoidHeight struct {
	MinInclusive YOffset `json:"min_inclusive"`
	MaxInclusive YOffset `json:"max_inclusive"`
	Plateau      int     `json:"plateau"`
}

func (h TrapezoidHeight) Get(r random.Random, c HeightContext) int {
	lo, hi := h.MinInclusive.Y(c), h.MaxInclusive.Y(c)
	if lo > hi {
		return lo
	}
	span := hi - lo
	if h.Plateau >= span {
		return r.NextInBetween(lo, hi)
	}
	ramp := (span - h.Plateau) / 2
	rest := span - ramp
	return lo + r.NextInBetween(0, rest) + r.NextInBetween(0, ramp)
}

// WeightedListHeight picks a weighted height provider.
type WeightedListHeight struct {
	Distribution Pool[Height] `json:"distribution"`
}

func (h WeightedListHeight) Get(r random.Random, c HeightContext) int {
	p, ok := h.Distribution.Pick(r)
	if !ok {
		return c.MinY
	}
	return p.Get(r, c)
}

// Height is the data form of a HeightProvider. A bare anchor is a constant.
type Height struct{ HeightProvider }

func (h Height) Get(r random.Random, c HeightContext) int {
	if h.HeightProvider == nil {
		return c.MinY
	}
	return h.HeightProvider.Get(r, c)
}

// EmptyRange resolves the anchors of a uniform or trapezoid provider and
// reports whether min lies above max. Get then yields min.
func (h Height) EmptyRange(c HeightContext) (lo, hi int, empty bool) {
	switch p := h.HeightProvider.(type) {
	case UniformHeight:
		lo, hi = p.MinInclusive.Y(c), p.MaxInclusive.Y(c)
	case TrapezoidHeight:
		lo, hi = p.MinInclusive.Y(c), p.MaxInclusive.Y(c)
	default:
		return 0, 0, false
	}
	return lo, hi, lo > hi
}

func (h *Height) UnmarshalJSON(b []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return fmt.Errorf("height provider: %w", err)
	}
	if head.Type == "" {
		var y YOffset
		if err := json.Unmarshal(b, &y); err != nil {
			return fmt.Errorf("height provider: %w", err)
		}
		h.HeightProvider = ConstantHeight{Value: y}
		return nil
	}

	var err error
	switch typ := Namespaced(head.Type); typ {
	case "minecraft:constant":
		var v ConstantHeight
		err = json.Unmarshal(b, &v)
		h.HeightProvider = v
	case "minecraft:uniform":
		var v UniformHeight
		err = json.Unmarshal(b, &v)
		h.HeightProvider = v
	case "minecraft:biased_to_bottom":
		var v BiasedToBottomHeight
		err = json.Unmarshal(b, &v)
		h.HeightProvider = v
	case "minecraft:very_biased_to_bottom":
		var v VeryBiasedToBottomHeight
		err = json.Unmarshal(b, &v)
		h.HeightProvider = v
	case "minecraft:trapezoid":
		var v TrapezoidHeight
		err = json.Unmarshal(b, &v)
		h.HeightProvider = v
	case "minecraft:weighted_list":
		var v WeightedListHeight
		err = json.Unmarshal(b, &v)
		h.HeightProvider = v
	default:
		return fmt.Errorf("unknown height provider %q", typ)
	}
	if err != nil {
		return fmt.Errorf("height provider %s: %w", head.Type, err)
	}
	return nil
}
