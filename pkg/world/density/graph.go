// Package density implements the density function graph that shapes terrain.
//
// A Graph is an immutable arena of nodes addressed by index. ProtoRouters
// binds a graph to a world seed by instantiating the noises it references,
// and ChunkRouter evaluates it for one chunk with per-node cache state held in
// slices parallel to the arena.
package density

import (
	"fmt"
	"math"

	"github.com/go-theft-craft/worldgen/pkg/world/noise"
)

// NodeID addresses a node in a Graph.
type NodeID int32

// None marks an absent input.
const None NodeID = -1

// Kind is the closed set of density function node types.
type Kind uint8

const (
	KindConstant Kind = iota
	KindNoise
	KindShiftedNoise
	KindShiftA
	KindShiftB
	KindShift
	KindBlendedNoise
	KindEndIslands
	KindWeirdScaled
	KindYClampedGradient
	KindRangeChoice
	KindClamp
	KindAbs
	KindSquare
	KindCube
	KindHalfNegative
	KindQuarterNegative
	KindSqueeze
	KindAdd
	KindMul
	KindMin
	KindMax
	KindSpline
	KindInterpolated
	KindFlatCache
	KindCache2D
	KindCacheOnce
	KindCacheAllInCell
	KindBlendAlpha
	KindBlendOffset
	KindBlendDensity
	KindBeardifier
)

var kindNames = map[string]Kind{
	"minecraft:constant":             KindConstant,
	"minecraft:noise":                KindNoise,
	"minecraft:shifted_noise":        KindShiftedNoise,
	"minecraft:shift_a":              KindShiftA,
	"minecraft:shift_b":              KindShiftB,
	"minecraft:shift":                KindShift,
	"minecraft:old_blended_noise":    KindBlendedNoise,
	"minecraft:end_islands":          KindEndIslands,
	"minecraft:weird_scaled_sampler": KindWeirdScaled,
	"minecraft:y_clamped_gradient":   KindYClampedGradient,
	"minecraft:range_choice":         KindRangeChoice,
	"minecraft:clamp":                KindClamp,
	"minecraft:abs":                  KindAbs,
	"minecraft:square":               KindSquare,
	"minecraft:cube":                 KindCube,
	"minecraft:half_negative":        KindHalfNegative,
	"minecraft:quarter_negative":     KindQuarterNegative,
	"minecraft:squeeze":              KindSqueeze,
	"minecraft:add":                  KindAdd,
	"minecraft:mul":                  KindMul,
	"minecraft:min":                  KindMin,
	"minecraft:max":                  KindMax,
	"minecraft:spline":               KindSpline,
	"minecraft:interpolated":         KindInterpolated,
	"minecraft:flat_cache":           KindFlatCache,
	"minecraft:cache_2d":             KindCache2D,
	"minecraft:cache_once":           KindCacheOnce,
	"minecraft:cache_all_in_cell":    KindCacheAllInCell,
	"minecraft:blend_alpha":          KindBlendAlpha,
	"minecraft:blend_offset":         KindBlendOffset,
	"minecraft:blend_density":        KindBlendDensity,
	"minecraft:beardifier":           KindBeardifier,
}

func (k Kind) String() string {
	for name, v := range kindNames {
		if v == k {
			return name
		}
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// RarityMapper selects the weird scaled sampler's rarity curve.
type RarityMapper uint8

const (
	// RarityTunnels is type_1, used for 3D spaghetti caves.
	RarityTunnels RarityMapper = iota
	// RarityCaves is type_2, used for 2D spaghetti caves.
	RarityCaves
)

func (m RarityMapper) rarity(v float64) float64 {
	if m == RarityTunnels {
		switch {
		case v < -0.5:
			return 0.75
		case v < 0:
			return 1
		case v < 0.5:
			return 1.5
		default:
			return 2
		}
	}
	switch {
	case v < -0.75:
		return 0.5
	case v < -0.5:
		return 0.75
	case v < 0.5:
		return 1
	case v < 0.75:
		return 2
	default:
		return 3
	}
}

func (m RarityMapper) maxRarity() float64 {
	if m == RarityTunnels {
		return 2
	}
	return 3
}

// Node is one density function. Which fields are meaningful depends on Kind.
type Node struct {
	Kind Kind

	// Input is the unary argument, the first binary argument, the
	// range_choice selector or the shifted_noise x shift.
	Input NodeID
	// Input2 is the second binary argument, the in-range branch or the
	// shifted_noise y shift.
	Input2 NodeID
	// Input3 is the out-of-range branch or the shifted_noise z shift.
	Input3 NodeID

	// Value is the constant value.
	Value float64
	// Min and Max bound clamp, range_choice and y_clamped_gradient values.
	Min, Max float64
	// FromY and ToY are the y_clamped_gradient range.
	FromY, ToY int

	Noise   string
	XZScale float64
	YScale  float64
	Mapper  RarityMapper
	Blended noise.BlendedConfig
	Spline  *Spline
}

// Graph is the shared immutable node arena. Children always precede their
// parents, so ascending ids are a valid evaluation order.
type Graph struct {
	Nodes []Node
}

func (g *Graph) add(n Node) NodeID {
	g.Nodes = append(g.Nodes, n)
	return NodeID(len(g.Nodes) - 1)
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) *Node { return &g.Nodes[id] }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.Nodes) }

// Constant appends a constant node.
func (g *Graph) Constant(v float64) NodeID {
	return g.add(Node{Kind: KindConstant, Value: v, Input: None, Input2: None, Input3: None})
}

// Unary appends a node of kind k over in.
func (g *Graph) Unary(k Kind, in NodeID) NodeID {
	return g.add(Node{Kind: k, Input: in, Input2: None, Input3: None})
}

// Binary appends a node of kind k over a and b.
func (g *Graph) Binary(k Kind, a, b NodeID) NodeID {
	return g.add(Node{Kind: k, Input: a, Input2: b, Input3: None})
}

// NoiseNode appends a noise lookup.
func (g *Graph) NoiseNode(key string, xzScale, yScale float64) NodeID {
	return g.add(Node{Kind: KindNoise, Noise: key, XZScale: xzScale, YScale: yScale, Input: None, Input2: None, Input3: None})
}

// YGradient appends a y_clamped_gradient.
func (g *Graph) YGradient(fromY, toY int, from, to float64) NodeID {
	return g.add(Node{Kind: KindYClampedGradient, FromY: fromY, ToY: toY, Min: from, Max: to, Input: None, Input2: None, Input3: None})
}

// RangeChoice appends a range_choice.
func (g *Graph) RangeChoice(in NodeID, minInclusive, maxExclusive float64, inRange, outOfRange NodeID) NodeID {
	return g.add(Node{Kind: KindRangeChoice, Input: in, Input2: inRange, Input3: outOfRange, Min: minInclusive, Max: maxExclusive})
}

// Clamp appends a clamp.
func (g *Graph) Clamp(in NodeID, lo, hi float64) NodeID {
	return g.add(Node{Kind: KindClamp, Input: in, Min: lo, Max: hi, Input2: None, Input3: None})
}

func mapped(k Kind, v float64) float64 {
	switch k {
	case KindAbs:
		return math.Abs(v)
	case KindSquare:
		return v * v
	case KindCube:
		return v * v * v
	case KindHalfNegative:
		if v > 0 {
			return v
		}
		return v * 0.5
	case KindQuarterNegative:
		if v > 0 {
			return v
		}
		return v * 0.25
	case KindSqueeze:
		e := max(-1, min(1, v))
		return e/2 - e*e*e/24
	}
	return v
}

func isMapped(k Kind) bool {
	return k >= KindAbs && k <= KindSqueeze
}
