package pos

import (
	"encoding/json"
	"fmt"
)

// Direction is one of the six block faces.
type Direction uint8

const (
	Down Direction = iota
	Up
	North
	South
	West
	East
)

var directionNames = [...]string{"down", "up", "north", "south", "west", "east"}

// Directions lists every direction in declaration order.
var Directions = [...]Direction{Down, Up, North, South, West, East}

// Horizontal lists the four horizontal directions in the order the game
// iterates them.
var Horizontal = [...]Direction{North, East, South, West}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Offset returns the unit step of d.
func (d Direction) Offset() Block {
	switch d {
	case Down:
		return Block{0, -1, 0}
	case Up:
		return Block{0, 1, 0}
	case North:
		return Block{0, 0, -1}
	case South:
		return Block{0, 0, 1}
	case West:
		return Block{-1, 0, 0}
	case East:
		return Block{1, 0, 0}
	}
	return Block{}
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case Down:
		return Up
	case Up:
		return Down
	case North:
		return South
	case South:
		return North
	case West:
		return East
	default:
		return West
	}
}

// IsHorizontal reports whether d lies in the XZ plane.
func (d Direction) IsHorizontal() bool { return d >= North }

// ParseDirection maps a lowercase direction name.
func ParseDirection(s string) (Direction, error) {
	for i, n := range directionNames {
		if n == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Clockwise rotates a horizontal direction a quarter turn clockwise seen
// from above. Vertical directions are returned unchanged.
func (d Direction) Clockwise() Direction {
	switch d {
	case North:
		return East
	case East:
		return South
	case South:
		return West
	case West:
		return North
	}
	return d
}

// CounterClockwise is the inverse of Clockwise.
func (d Direction) CounterClockwise() Direction {
	switch d {
	case North:
		return West
	case West:
		return South
	case South:
		return East
	case East:
		return North
	}
	return d
}
