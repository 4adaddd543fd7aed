package random

const (
	legacyMultiplier = 0x5DEECE66D
	legacyAddend     = 0xB
	legacyMask       = (1 << 48) - 1
)

// Legacy is the 48 bit linear congruential generator of java.util.Random.
type Legacy struct {
	seed     int64
	gaussian gaussian
}

// NewLegacy returns a Legacy generator seeded with seed.
func NewLegacy(seed int64) *Legacy {
	r := &Legacy{}
	r.SetSeed(seed)
	return r
}

func (r *Legacy) SetSeed(seed int64) {
	r.seed = (seed ^ legacyMultiplier) & legacyMask
	r.gaussian.reset()
}

func (r *Legacy) next(bits uint) int32 {
	r.seed = (r.seed*legacyMultiplier + legacyAddend) & legacyMask
	return int32(r.seed >> (48 - bits))
}

func (r *Legacy) NextInt() int32 { return r.next(32) }

func (r *Legacy) NextBoundedInt(bound int) int {
	checkBound(bound)
	b := int32(bound)
	if b&-b == b {
		return int(int32((int64(b) * int64(r.next(31))) >> 31))
	}
	for {
		bits := r.next(31)
		val := bits % b
		if bits-val+(b-1) >= 0 {
			return int(val)
		}
	}
}

func (r *Legacy) NextInBetween(min, max int) int {
	return r.NextBoundedInt(max-min+1) + min
}

func (r *Legacy) NextBetweenExclusive(min, max int) int {
	return min + r.NextBoundedInt(max-min)
}

func (r *Legacy) NextLong() int64 {
	hi := int64(r.next(32)) << 32
	return hi + int64(r.next(32))
}

func (r *Legacy) NextFloat() float32 {
	return float32(r.next(24)) * (1.0 / (1 << 24))
}

func (r *Legacy) NextDouble() float64 {
	hi := int64(r.next(26)) << 27
	return float64(hi+int64(r.next(27))) * 0x1p-53
}

func (r *Legacy) NextBool() bool { return r.next(1) != 0 }

func (r *Legacy) NextGaussian() float64 { return r.gaussian.next(r) }

func (r *Legacy) NextTriangle(mode, spread float64) float64 {
	return mode + spread*(r.NextDouble()-r.NextDouble())
}

func (r *Legacy) Skip(count int) {
	for range count {
		r.NextInt()
	}
}

func (r *Legacy) Fork() Random { return NewLegacy(r.NextLong()) }

func (r *Legacy) NextSplitter() Splitter { return LegacySplitter{seed: r.NextLong()} }

// LegacySplitter derives Legacy generators.
type LegacySplitter struct {
	seed int64
}

func (s LegacySplitter) SplitPos(x, y, z int) Random {
	return NewLegacy(HashPos(x, y, z) ^ s.seed)
}

func (s LegacySplitter) SplitString(name string) Random {
	return NewLegacy(int64(javaStringHash(name)) ^ s.seed)
}

func (s LegacySplitter) SplitLong(seed int64) Random {
	return NewLegacy(seed)
}
