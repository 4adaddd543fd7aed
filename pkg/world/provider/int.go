package provider

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/go-theft-craft/worldgen/pkg/random"
)

// IntProvider yields integers.
type IntProvider interface {
	Get(r random.Random) int
	Min() int
	Max() int
}

// ConstantInt always yields Value.
type ConstantInt struct{ Value int }

func (c ConstantInt) Get(random.Random) int { return c.Value }
func (c ConstantInt) Min() int              { return c.Value }
func (c ConstantInt) Max() int              { return c.Value }

// UniformInt yields uniformly in [MinInclusive, MaxInclusive].
type UniformInt struct {
	MinInclusive int `json:"min_inclusive"`
	MaxInclusive int `json:"max_inclusive"`
}

func (u UniformInt) Get(r random.Random) int { return r.NextInBetween(u.MinInclusive, u.MaxInclusive) }
func (u UniformInt) Min() int                { return u.MinInclusive }
func (u UniformInt) Max() int                { return u.MaxInclusive }

// BiasedToBottomInt favours values near MinInclusive.
type BiasedToBottomInt struct {
	MinInclusive int `json:"min_inclusive"`
	MaxInclusive int `json:"max_inclusive"`
}

func (b BiasedToBottomInt) Get(r random.Random) int {
	return b.MinInclusive + r.NextBoundedInt(r.NextBoundedInt(b.MaxInclusive-b.MinInclusive+1)+1)
}
func (b BiasedToBottomInt) Min() int { return b.MinInclusive }
func (b BiasedToBottomInt) Max() int { return b.MaxInclusive }

// ClampedInt clamps another provider.
type ClampedInt struct {
	Source       Int `json:"source"`
	MinInclusive int `json:"min_inclusive"`
	MaxInclusive int `json:"max_inclusive"`
}

func (c ClampedInt) Get(r random.Random) int {
	return min(max(c.Source.Get(r), c.MinInclusive), c.MaxInclusive)
}
func (c ClampedInt) Min() int { return max(c.MinInclusive, c.Source.Min()) }
func (c ClampedInt) Max() int { return min(c.MaxInclusive, c.Source.Max()) }

// ClampedNormalInt draws from a clamped normal distribution, truncated.
type ClampedNormalInt struct {
	Mean         float32 `json:"mean"`
	Deviation    float32 `json:"deviation"`
	MinInclusive int     `json:"min_inclusive"`
	MaxInclusive int     `json:"max_inclusive"`
}

func (c ClampedNormalInt) Get(r random.Random) int {
	v := c.Mean + float32(r.NextGaussian())*c.Deviation
	return int(min(max(v, float32(c.MinInclusive)), float32(c.MaxInclusive)))
}
func (c ClampedNormalInt) Min() int { return c.MinInclusive }
func (c ClampedNormalInt) Max() int { return c.MaxInclusive }

// WeightedListInt picks a weighted provider, then samples it.
type WeightedListInt struct {
	Distribution Pool[Int] `json:"distribution"`
}

func (w WeightedListInt) Get(r random.Random) int {
	p, ok := w.Distribution.Pick(r)
	if !ok {
		return 0
	}
	return p.Get(r)
}

func (w WeightedListInt) Min() int {
	if len(w.Distribution) == 0 {
		return 0
	}
	m := math.MaxInt
	for _, e := range w.Distribution {
		m = min(m, e.Data.Min())
	}
	return m
}

func (w WeightedListInt) Max() int {
	if len(w.Distribution) == 0 {
		return 0
	}
	m := math.MinInt
	for _, e := range w.Distribution {
		m = max(m, e.Data.Max())
	}
	return m
}

// Int is the data form of an IntProvider: a bare number or a typed object.
type Int struct{ IntProvider }

// Const wraps a constant as an Int.
func Const(v int) Int { return Int{ConstantInt{Value: v}} }

func (i Int) Get(r random.Random) int {
	if i.IntProvider == nil {
		return 0
	}
	return i.IntProvider.Get(r)
}

func (i Int) Min() int {
	if i.IntProvider == nil {
		return 0
	}
	return i.IntProvider.Min()
}

func (i Int) Max() int {
	if i.IntProvider == nil {
		return 0
	}
	return i.IntProvider.Max()
}

func (i *Int) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		i.IntProvider = ConstantInt{Value: n}
		return nil
	}
	typ, err := typeOf(b)
	if err != nil {
		return fmt.Errorf("int provider: %w", err)
	}
	switch typ {
	case "minecraft:constant":
		var v struct {
			Value int `json:"value"`
		}
		err = json.Unmarshal(b, &v)
		i.IntProvider = ConstantInt{Value: v.Value}
	case "minecraft:uniform":
		var v UniformInt
		err = json.Unmarshal(b, &v)
		i.IntProvider = v
	case "minecraft:biased_to_bottom":
		var v BiasedToBottomInt
		err = json.Unmarshal(b, &v)
		i.IntProvider = v
	case "minecraft:clamped":
		var v ClampedInt
		err = json.Unmarshal(b, &v)
		i.IntProvider = v
	case "minecraft:clamped_normal":
		var v ClampedNormalInt
		err = json.Unmarshal(b, &v)
		i.IntProvider = v
	case "minecraft:weighted_list":
		var v WeightedListInt
		err = json.Unmarshal(b, &v)
		i.IntProvider = v
	default:
		return fmt.Errorf("unknown int provider %q", typ)
	}
	if err != nil {
		return fmt.Errorf("int provider %s: %w", typ, err)
	}
	return nil
}

// typeOf extracts the namespaced "type" field of a typed object.
func typeOf(b []byte) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return "", err
	}
	if head.Type == "" {
		return "", fmt.Errorf("missing type")
	}
	return Namespaced(head.Type), nil
}

// Namespaced adds the default namespace to a bare identifier.
func Namespaced(id string) string {
	if strings.Contains(id, ":") {
		return id
	}
	return "minecraft:" + id
}
