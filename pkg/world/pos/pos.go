// Package pos holds the world coordinate types and the conversions between
// block, biome, section and chunk space.
package pos

import "fmt"

// Block is an absolute block position.
type Block struct {
	X, Y, Z int
}

func (b Block) String() string { return fmt.Sprintf("(%d, %d, %d)", b.X, b.Y, b.Z) }

func (b Block) Add(dx, dy, dz int) Block { return Block{b.X + dx, b.Y + dy, b.Z + dz} }

func (b Block) Up() Block { return Block{b.X, b.Y + 1, b.Z} }
func (b Block) Down() Block { return Block{b.X, b.Y - 1, b.Z} }
func (b Block) UpN(n int) Block { return Block{b.X, b.Y + n, b.Z} }
func (b Block) DownN(n int) Block { return Block{b.X, b.Y - n, b.Z} }

func (b Block) Offset(d Direction) Block {
	o := d.Offset()
	return Block{b.X + o.X, b.Y + o.Y, b.Z + o.Z}
}

// OffsetN moves n blocks along d.
func (b Block) OffsetN(d Direction, n int) Block {
	o := d.Offset()
	return Block{b.X + o.X*n, b.Y + o.Y*n, b.Z + o.Z*n}
}

// Chunk returns the chunk containing b.
func (b Block) Chunk() Chunk { return Chunk{X: b.X >> 4, Z: b.Z >> 4} }

// ManhattanDistance returns |dx|+|dy|+|dz|.
func (b Block) ManhattanDistance(o Block) int {
	return abs(b.X-o.X) + abs(b.Y-o.Y) + abs(b.Z-o.Z)
}

// SquaredDistance returns the squared euclidean distance to (x, y, z).
func (b Block) SquaredDistance(x, y, z int) int {
	dx, dy, dz := b.X-x, b.Y-y, b.Z-z
	return dx*dx + dy*dy + dz*dz
}

// Chunk identifies a chunk column by its X and Z coordinates.
type Chunk struct{ X, Z int }

func (c Chunk) String() string { return fmt.Sprintf("[%d, %d]", c.X, c.Z) }

// StartX returns the minimum block X inside the chunk.
func (c Chunk) StartX() int { return c.X << 4 }

// StartZ returns the minimum block Z inside the chunk.
func (c Chunk) StartZ() int { return c.Z << 4 }

// Contains reports whether the block column (x, z) lies in the chunk.
func (c Chunk) Contains(x, z int) bool { return x>>4 == c.X && z>>4 == c.Z }

// Vec3 is a double precision vector.
type Vec3 struct{ X, Y, Z float64 }

// BiomeFromBlock converts a block coordinate to biome (quart) space.
func BiomeFromBlock(v int) int { return v >> 2 }

// BiomeToBlock converts a biome coordinate to the minimum block coordinate.
func BiomeToBlock(v int) int { return v << 2 }

// SectionFromBlock converts a block coordinate to section space.
func SectionFromBlock(v int) int { return v >> 4 }

// SectionToBlock converts a section coordinate to its minimum block coordinate.
func SectionToBlock(v int) int { return v << 4 }

// SectionLocal returns the block offset within its section.
func SectionLocal(v int) int { return v & 15 }

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod returns a modulus with the sign of b.
func FloorMod(a, b int) int {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
