// Package heightmap tracks the highest block of each column that satisfies
// one of several predicates.
package heightmap

import (
	"encoding/json"
	"fmt"

	"github.com/go-theft-craft/worldgen/pkg/world/block"
)

// Kind selects which blocks count as the top of a column.
type Kind uint8

const (
	WorldSurfaceWG Kind = iota
	WorldSurface
	OceanFloorWG
	OceanFloor
	MotionBlocking
	MotionBlockingNoLeaves

	kindCount
)

// Kinds lists every heightmap kind.
var Kinds = [kindCount]Kind{WorldSurfaceWG, WorldSurface, OceanFloorWG, OceanFloor, MotionBlocking, MotionBlockingNoLeaves}

var kindNames = [kindCount]string{
	"WORLD_SURFACE_WG",
	"WORLD_SURFACE",
	"OCEAN_FLOOR_WG",
	"OCEAN_FLOOR",
	"MOTION_BLOCKING",
	"MOTION_BLOCKING_NO_LEAVES",
}

func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("heightmap(%d)", uint8(k))
	}
	return kindNames[k]
}

// ParseKind resolves a heightmap name.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown heightmap %q", s)
}

func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Matches reports whether s counts as a column top for k.
func (k Kind) Matches(s *block.State) bool {
	switch k {
	case WorldSurfaceWG, WorldSurface:
		return !s.IsAir()
	case OceanFloorWG, OceanFloor:
		return s.BlocksMovement()
	case MotionBlocking:
		return s.BlocksMovement() || s.IsLiquid()
	case MotionBlockingNoLeaves:
		return (s.BlocksMovement() || s.IsLiquid()) && !s.HasTag("minecraft:leaves")
	}
	return false
}

// Column reads block states of one column by absolute y.
type Column func(y int) *block.State

// Set holds every heightmap of one chunk. Values are exclusive: the y just
// above the top matching block, or MinY for an empty column.
type Set struct {
	minY   int
	values [kindCount][256]int32
}

// NewSet returns heightmaps for an empty chunk starting at minY.
func NewSet(minY int) *Set {
	s := &Set{minY: minY}
	for k := range s.values {
		for i := range s.values[k] {
			s.values[k][i] = int32(minY)
		}
	}
	return s
}

func index(x, z int) int { return (z&15)<<4 | x&15 }

// Top returns the exclusive height of column (x, z).
func (s *Set) Top(k Kind, x, z int) int { return int(s.values[k][index(x, z)]) }

// SetTop overrides the exclusive height of a column.
func (s *Set) SetTop(k Kind, x, z, v int) { s.values[k][index(x, z)] = int32(v) }

// Update applies a block write at (x, y, z) to every kind. col reads the
// column after the write.
func (s *Set) Update(x, y, z int, state *block.State, col Column) {
	for k := Kind(0); k < kindCount; k++ {
		s.update(k, x, y, z, state, col)
	}
}

func (s *Set) update(k Kind, x, y, z int, state *block.State, col Column) {
	i := index(x, z)
	top := int(s.values[k][i])
	if y <= top-2 {
		return
	}
	if k.Matches(state) {
		if y >= top {
			s.values[k][i] = int32(y + 1)
		}
		return
	}
	if top-1 != y {
		return
	}
	for j := y - 1; j >= s.minY; j-- {
		if k.Matches(col(j)) {
			s.values[k][i] = int32(j + 1)
			return
		}
	}
	s.values[k][i] = int32(s.minY)
}

// Rescan recomputes a column from scratch, scanning down from maxY.
func Rescan(k Kind, minY, maxY int, col Column) int {
	for y := maxY; y >= minY; y-- {
		if k.Matches(col(y)) {
			return y + 1
		}
	}
	return minY
}

// Raw returns the exclusive heights of k in z-major order.
func (s *Set) Raw(k Kind) []int32 { return s.values[k][:] }
