package random

import (
	"crypto/md5"
	"encoding/binary"
	"math/bits"
)

const (
	goldenRatio64 = 0x9E3779B97F4A7C15
	silverRatio64 = 0x6A09E667F3BCC909
)

// Xoroshiro is the xoroshiro128++ generator with the seed upgrade used by the
// modern world generator.
type Xoroshiro struct {
	lo, hi   uint64
	gaussian gaussian
}

// NewXoroshiro returns a generator whose 128 bit state is expanded from seed.
func NewXoroshiro(seed int64) *Xoroshiro {
	lo, hi := upgradeSeed(seed)
	return NewXoroshiroFrom(lo, hi)
}

// NewXoroshiroFrom returns a generator with an explicit state. An all-zero
// state is replaced by the canonical non-zero one.
func NewXoroshiroFrom(lo, hi uint64) *Xoroshiro {
	if lo|hi == 0 {
		lo, hi = goldenRatio64, silverRatio64
	}
	return &Xoroshiro{lo: lo, hi: hi}
}

func upgradeSeed(seed int64) (uint64, uint64) {
	l := uint64(seed) ^ silverRatio64
	m := l + goldenRatio64
	return mixStafford13(l), mixStafford13(m)
}

func mixStafford13(z uint64) uint64 {
	z = (z ^ z>>30) * 0xBF58476D1CE4E5B9
	z = (z ^ z>>27) * 0x94D049BB133111EB
	return z ^ z>>31
}

func (r *Xoroshiro) SetSeed(seed int64) {
	r.lo, r.hi = upgradeSeed(seed)
	if r.lo|r.hi == 0 {
		r.lo, r.hi = goldenRatio64, silverRatio64
	}
	r.gaussian.reset()
}

func (r *Xoroshiro) next() uint64 {
	l, m := r.lo, r.hi
	n := bits.RotateLeft64(l+m, 17) + l
	m ^= l
	r.lo = bits.RotateLeft64(l, 49) ^ m ^ (m << 21)
	r.hi = bits.RotateLeft64(m, 28)
	return n
}

func (r *Xoroshiro) NextInt() int32 { return int32(r.next()) }

func (r *Xoroshiro) NextBoundedInt(bound int) int {
	checkBound(bound)
	b := uint64(uint32(bound))
	m := uint64(uint32(r.NextInt())) * b
	low := m & 0xFFFFFFFF
	if low < b {
		threshold := uint64(uint32(-int32(bound)) % uint32(bound))
		for low < threshold {
			m = uint64(uint32(r.NextInt())) * b
			low = m & 0xFFFFFFFF
		}
	}
	return int(int32(m >> 32))
}

func (r *Xoroshiro) NextInBetween(min, max int) int {
	return r.NextBoundedInt(max-min+1) + min
}

func (r *Xoroshiro) NextBetweenExclusive(min, max int) int {
	return min + r.NextBoundedInt(max-min)
}

func (r *Xoroshiro) NextLong() int64 { return int64(r.next()) }

func (r *Xoroshiro) NextFloat() float32 {
	return float32(r.next()>>40) * 5.9604645e-8
}

func (r *Xoroshiro) NextDouble() float64 {
	return float64(r.next()>>11) * 1.1102230246251565e-16
}

func (r *Xoroshiro) NextBool() bool { return r.next()&1 != 0 }

func (r *Xoroshiro) NextGaussian() float64 { return r.gaussian.next(r) }

func (r *Xoroshiro) NextTriangle(mode, spread float64) float64 {
	return mode + spread*(r.NextDouble()-r.NextDouble())
}

func (r *Xoroshiro) Skip(count int) {
	for range count {
		r.next()
	}
}

func (r *Xoroshiro) Fork() Random { return NewXoroshiroFrom(r.next(), r.next()) }

func (r *Xoroshiro) NextSplitter() Splitter {
	lo := r.next()
	return XoroshiroSplitter{lo: lo, hi: r.next()}
}

// XoroshiroSplitter derives Xoroshiro generators.
type XoroshiroSplitter struct {
	lo, hi uint64
}

func (s XoroshiroSplitter) SplitPos(x, y, z int) Random {
	return NewXoroshiroFrom(uint64(HashPos(x, y, z))^s.lo, s.hi)
}

func (s XoroshiroSplitter) SplitString(name string) Random {
	sum := md5.Sum([]byte(name))
	lo := binary.BigEndian.Uint64(sum[0:8])
	hi := binary.BigEndian.Uint64(sum[8:16])
	return NewXoroshiroFrom(lo^s.lo, hi^s.hi)
}

func (s XoroshiroSplitter) SplitLong(seed int64) Random {
	return NewXoroshiroFrom(uint64(seed)^s.lo, uint64(seed)^s.hi)
}
