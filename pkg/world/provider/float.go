package provider

import (
	"encoding/json"
	"fmt"

	"github.com/go-theft-craft/worldgen/pkg/random"
)

// FloatProvider yields floats.
type FloatProvider interface {
	Get(r random.Random) float32
	Min() float32
	Max() float32
}

// ConstantFloat always yields Value.
type ConstantFloat struct{ Value float32 }

func (c ConstantFloat) Get(random.Random) float32 { return c.Value }
func (c ConstantFloat) Min() float32              { return c.Value }
func (c ConstantFloat) Max() float32              { return c.Value }

// UniformFloat yields uniformly in [MinInclusive, MaxExclusive).
type UniformFloat struct {
	MinInclusive float32 `json:"min_inclusive"`
	MaxExclusive float32 `json:"max_exclusive"`
}

func (u UniformFloat) Get(r random.Random) float32 {
	return r.NextFloat()*(u.MaxExclusive-u.MinInclusive) + u.MinInclusive
}
func (u UniformFloat) Min() float32 { return u.MinInclusive }
func (u UniformFloat) Max() float32 { return u.MaxExclusive }

// ClampedNormalFloat draws from a clamped normal distribution.
type ClampedNormalFloat struct {
	Mean      float32 `json:"mean"`
	Deviation float32 `json:"deviation"`
	MinValue  float32 `json:"min"`
	MaxValue  float32 `json:"max"`
}

func (c ClampedNormalFloat) Get(r random.Random) float32 {
	v := c.Mean + float32(r.NextGaussian())*c.Deviation
	return min(max(v, c.MinValue), c.MaxValue)
}
func (c ClampedNormalFloat) Min() float32 { return c.MinValue }
func (c ClampedNormalFloat) Max() float32 { return c.MaxValue }

// TrapezoidFloat sums two uniform draws so the middle Plateau is flat.
type TrapezoidFloat struct {
	MinValue float32 `json:"min"`
	MaxValue float32 `json:"max"`
	Plateau  float32 `json:"plateau"`
}

func (t TrapezoidFloat) Get(r random.Random) float32 {
	span := t.MaxValue - t.MinValue
	ramp := (span - t.Plateau) / 2
	rest := span - ramp
	return t.MinValue + r.NextFloat()*rest + r.NextFloat()*ramp
}
func (t TrapezoidFloat) Min() float32 { return t.MinValue }
func (t TrapezoidFloat) Max() float32 { return t.MaxValue }

// Float is the data form of a FloatProvider.
type Float struct{ FloatProvider }

// ConstF wraps a constant as a Float.
func ConstF(v float32) Float { return Float{ConstantFloat{Value: v}} }

func (f Float) Get(r random.Random) float32 {
	if f.FloatProvider == nil {
		return 0
	}
	return f.FloatProvider.Get(r)
}

func (f *Float) UnmarshalJSON(b []byte) error {
	var n float32
	if err := json.Unmarshal(b, &n); err == nil {
		f.FloatProvider = ConstantFloat{Value: n}
		return nil
	}
	typ, err := typeOf(b)
	if err != nil {
		return fmt.Errorf("float provider: %w", err)
	}
	switch typ {
	case "minecraft:constant":
		var v struct {
			Value float32 `json:"value"`
		}
		err = json.Unmarshal(b, &v)
		f.FloatProvider = ConstantFloat{Value: v.Value}
	case "minecraft:uniform":
		var v UniformFloat
		err = json.Unmarshal(b, &v)
		f.FloatProvider = v
	case "minecraft:clamped_normal":
		var v ClampedNormalFloat
		err = json.Unmarshal(b, &v)
		f.FloatProvider = v
	case "minecraft:trapezoid":
		var v TrapezoidFloat
		err = json.Unmarshal(b, &v)
		f.FloatProvider = v
	default:
		return fmt.Errorf("unknown float provider %q", typ)
	}
	if err != nil {
		return fmt.Errorf("float provider %s: %w", typ, err)
	}
	return nil
}
