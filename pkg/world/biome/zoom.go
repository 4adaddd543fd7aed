package biome

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

// ZoomSeed obfuscates the world seed for biome zooming.
func ZoomSeed(seed int64) int64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(seed))
	sum := sha256.Sum256(b[:])
	return int64(binary.LittleEndian.Uint64(sum[:8]))
}

func lcg(seed, add int64) int64 {
	seed *= seed*6364136223846793005 + 1442695040888963407
	return seed + add
}

func fiddle(seed int64) float64 {
	d := float64(floorMod(seed>>24, 1024)) / 1024
	return (d - 0.5) * 0.9
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func fiddledDistance(seed int64, x, y, z int, dx, dy, dz float64) float64 {
	m := lcg(seed, int64(x))
	m = lcg(m, int64(y))
	m = lcg(m, int64(z))
	m = lcg(m, int64(x))
	m = lcg(m, int64(y))
	m = lcg(m, int64(z))
	fx := fiddle(m)
	m = lcg(m, seed)
	fy := fiddle(m)
	m = lcg(m, seed)
	fz := fiddle(m)
	return (dz+fz)*(dz+fz) + (dy+fy)*(dy+fy) + (dx+fx)*(dx+fx)
}

// Zoom picks the biome for a block by jittered nearest neighbour over the
// surrounding eight biome cells, so biome borders are not cell aligned.
func Zoom(zoomSeed int64, p pos.Block, lookup func(biomeX, biomeY, biomeZ int) *Biome) *Biome {
	i, j, k := p.X-2, p.Y-2, p.Z-2
	l, m, n := i>>2, j>>2, k>>2
	d := float64(i&3) / 4
	e := float64(j&3) / 4
	f := float64(k&3) / 4

	best, bestDist := 0, math.Inf(1)
	for c := 0; c < 8; c++ {
		qx, qy, qz := l, m, n
		dx, dy, dz := d, e, f
		if c&4 != 0 {
			qx, dx = l+1, d-1
		}
		if c&2 != 0 {
			qy, dy = m+1, e-1
		}
		if c&1 != 0 {
			qz, dz = n+1, f-1
		}
		if v := fiddledDistance(zoomSeed, qx, qy, qz, dx, dy, dz); bestDist > v {
			best, bestDist = c, v
		}
	}
	if best&4 != 0 {
		l++
	}
	if best&2 != 0 {
		m++
	}
	if best&1 != 0 {
		n++
	}
	return lookup(l, m, n)
}
