// Package provider holds the randomized value sources referenced from
// generation data: vertical anchors, integer, float and height providers and
// weighted pools.
package provider

import (
	"encoding/json"
	"fmt"
)

// HeightContext is the vertical extent a provider resolves against.
type HeightContext struct {
	MinY   int
	Height int
}

// MaxY returns the highest buildable y.
func (c HeightContext) MaxY() int { return c.MinY + c.Height - 1 }

// YOffset is a vertical anchor: absolute, or relative to the bottom or top of
// the world.
type YOffset struct {
	kind  yOffsetKind
	value int
}

type yOffsetKind uint8

const (
	absolute yOffsetKind = iota
	aboveBottom
	belowTop
)

// Absolute anchors at y.
func Absolute(y int) YOffset { return YOffset{kind: absolute, value: y} }

// AboveBottom anchors n blocks above the bottom of the world.
func AboveBottom(n int) YOffset { return YOffset{kind: aboveBottom, value: n} }

// BelowTop anchors n blocks below the top of the world.
func BelowTop(n int) YOffset { return YOffset{kind: belowTop, value: n} }

// Y resolves the anchor.
func (o YOffset) Y(c HeightContext) int {
	switch o.kind {
	case aboveBottom:
		return c.MinY + o.value
	case belowTop:
		return c.MaxY() - o.value
	}
	return o.value
}

func (o YOffset) String() string {
	switch o.kind {
	case aboveBottom:
		return fmt.Sprintf("%d above bottom", o.value)
	case belowTop:
		return fmt.Sprintf("%d below top", o.value)
	}
	return fmt.Sprintf("%d absolute", o.value)
}

func (o *YOffset) UnmarshalJSON(b []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("vertical anchor: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("vertical anchor needs exactly one of absolute, above_bottom, below_top")
	}
	for k, v := range raw {
		switch k {
		case "absolute":
			*o = Absolute(v)
		case "above_bottom":
			*o = AboveBottom(v)
		case "below_top":
			*o = BelowTop(v)
		default:
			return fmt.Errorf("unknown vertical anchor %q", k)
		}
	}
	return nil
}
