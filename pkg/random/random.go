// Package random implements the deterministic generators used by world
// generation. Both variants reproduce the reference output sequences bit for
// bit, so the same seed always yields the same world.
package random

import (
	"fmt"
	"math"
)

// Random is a seeded pseudo random source.
type Random interface {
	SetSeed(seed int64)
	NextInt() int32
	// NextBoundedInt returns a uniform value in [0, bound). It panics when
	// bound is not in [1, math.MaxInt32].
	NextBoundedInt(bound int) int
	// NextInBetween returns a uniform value in [min, max], both inclusive.
	NextInBetween(min, max int) int
	// NextBetweenExclusive returns a uniform value in [min, max).
	NextBetweenExclusive(min, max int) int
	NextLong() int64
	NextFloat() float32
	NextDouble() float64
	NextBool() bool
	NextGaussian() float64
	// NextTriangle returns mode + spread*(NextDouble()-NextDouble()).
	NextTriangle(mode, spread float64) float64
	Skip(count int)
	// Fork derives an independent generator from the next output.
	Fork() Random
	// NextSplitter derives a positional splitter from the next output.
	NextSplitter() Splitter
}

// Splitter derives generators keyed by a position, a name or a seed without
// consuming from any shared stream.
type Splitter interface {
	SplitPos(x, y, z int) Random
	SplitString(name string) Random
	SplitLong(seed int64) Random
}

// checkBound panics unless bound fits the positive int32 range the
// generators draw from.
func checkBound(bound int) {
	if bound <= 0 || bound > math.MaxInt32 {
		panic(fmt.Sprintf("random: bound must be in [1, %d], got %d", math.MaxInt32, bound))
	}
}

// HashPos mixes a block position into a 64 bit seed.
func HashPos(x, y, z int) int64 {
	l := int64(int32(x)*3129871) ^ int64(z)*116129781 ^ int64(y)
	l = l*l*42317861 + l*11
	return l >> 16
}

// PopulationSeed derives the per-chunk feature seed from the world seed and
// the chunk's minimum block coordinates.
func PopulationSeed(worldSeed int64, blockX, blockZ int) int64 {
	r := NewXoroshiro(worldSeed)
	l := r.NextLong() | 1
	m := r.NextLong() | 1
	return (int64(blockX)*l + int64(blockZ)*m) ^ worldSeed
}

// DecoratorSeed derives the seed of one placed feature within a generation
// step.
func DecoratorSeed(populationSeed int64, index, step int) int64 {
	return populationSeed + int64(index) + int64(10000*step)
}

// javaStringHash mirrors String.hashCode over UTF-16 code units.
func javaStringHash(s string) int32 {
	var h int32
	for _, r := range s {
		if r >= 0x10000 {
			r -= 0x10000
			h = 31*h + int32(0xD800+(r>>10))
			h = 31*h + int32(0xDC00+(r&0x3FF))
			continue
		}
		h = 31*h + int32(r)
	}
	return h
}
