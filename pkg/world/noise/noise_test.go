package noise

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-theft-craft/worldgen/pkg/random"
)

func TestPerlinDeterministicAndBounded(t *testing.T) {
	a := NewPerlin(random.NewXoroshiro(7))
	b := NewPerlin(random.NewXoroshiro(7))
	for x := -20.0; x < 20; x += 1.37 {
		for z := -20.0; z < 20; z += 2.11 {
			va := a.Sample(x, x*0.5, z)
			assert.Equal(t, va, b.Sample(x, x*0.5, z))
			assert.LessOrEqual(t, math.Abs(va), 1.1)
		}
	}
}

func TestPerlinSmearWithoutScaleIsPlain(t *testing.T) {
	p := NewPerlin(random.NewLegacy(3))
	assert.Equal(t, p.Sample(1.5, 2.25, -3.75), p.SampleSmeared(1.5, 2.25, -3.75, 0, 0))
}

func TestFloorAndWrap(t *testing.T) {
	assert.Equal(t, -1, Floor(-0.5))
	assert.Equal(t, 2, Floor(2))
	assert.Equal(t, -3, Floor(-3))
	assert.InDelta(t, 1.5, wrap(33554432+1.5), 1e-9)
	assert.InDelta(t, -1.5, wrap(-33554432-1.5), 1e-9)
}

func TestLegacyOctavesRejectPositive(t *testing.T) {
	_, err := NewLegacyOctavePerlin(random.NewLegacy(1), Parameters{FirstOctave: -1, Amplitudes: []float64{1, 1, 1}})
	assert.Error(t, err)

	o, err := NewLegacyOctavePerlin(random.NewLegacy(1), Parameters{FirstOctave: -3, Amplitudes: []float64{1, 0, 1}})
	require.NoError(t, err)
	assert.NotNil(t, o.Octave(0))
	assert.Nil(t, o.Octave(1))
	assert.NotNil(t, o.Octave(2))
}

func TestOctavePerlinWithinMaxValue(t *testing.T) {
	p := Parameters{FirstOctave: -4, Amplitudes: []float64{1, 1, 0.5, 0, 1}}
	o := NewOctavePerlin(random.NewXoroshiro(99), p)
	assert.Greater(t, o.MaxValue(), 0.0)
	for x := 0.0; x < 200; x += 13.3 {
		assert.LessOrEqual(t, math.Abs(o.Sample(x, 64, -x)), o.MaxValue())
	}
}

func TestDoublePerlin(t *testing.T) {
	p := Parameters{FirstOctave: -7, Amplitudes: []float64{1, 1}}
	a := NewDoublePerlin(random.NewXoroshiro(0).NextSplitter().SplitString("minecraft:temperature"), p)
	b := NewDoublePerlin(random.NewXoroshiro(0).NextSplitter().SplitString("minecraft:temperature"), p)

	assert.InDelta(t, (1.0/6.0)/(0.1*(1+1.0/2)), a.valueFactor, 1e-12)
	for x := -500.0; x < 500; x += 77 {
		v := a.Sample(x, 0, x/3)
		assert.Equal(t, v, b.Sample(x, 0, x/3))
		assert.LessOrEqual(t, math.Abs(v), a.MaxValue())
	}

	legacy, err := NewLegacyDoublePerlin(random.NewLegacy(5), p)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(legacy.Sample(10, 0, 10)))

	zero := NewDoublePerlin(random.NewXoroshiro(1), Parameters{Amplitudes: []float64{0}})
	assert.Equal(t, 0.0, zero.Sample(12, 34, 56))
}

func TestSimplex(t *testing.T) {
	s := NewSimplex(random.NewLegacy(1234))
	for x := -10.0; x < 10; x += 0.77 {
		v2 := s.Sample2D(x, x*1.3)
		v3 := s.Sample3D(x, -x, x*0.2)
		assert.LessOrEqual(t, math.Abs(v2), 1.0)
		assert.LessOrEqual(t, math.Abs(v3), 1.0)
	}
}

func TestOctaveSimplex(t *testing.T) {
	_, err := NewOctaveSimplex(random.NewLegacy(1), nil)
	assert.Error(t, err)

	single, err := NewOctaveSimplex(random.NewLegacy(1234), []int{0})
	require.NoError(t, err)
	require.Len(t, single.octaves, 1)
	assert.Equal(t, 1.0, single.valFactor)

	multi, err := NewOctaveSimplex(random.NewLegacy(3457), []int{-2, -1, 0})
	require.NoError(t, err)
	require.Len(t, multi.octaves, 3)
	for _, s := range multi.octaves {
		assert.NotNil(t, s)
	}

	pos, err := NewOctaveSimplex(random.NewLegacy(3457), []int{0, 1})
	require.NoError(t, err)
	assert.NotNil(t, pos.octaves[0])
	assert.NotNil(t, pos.octaves[1])
	assert.False(t, math.IsNaN(pos.Sample(3.5, -2.5, true)))
}

func TestBlended(t *testing.T) {
	c := BlendedConfig{XZScale: 1, YScale: 1, XZFactor: 80, YFactor: 160, SmearScaleMultiplier: 8}
	a, err := NewBlended(random.NewXoroshiro(0).NextSplitter().SplitString("minecraft:terrain"), c)
	require.NoError(t, err)
	b, err := NewBlended(random.NewXoroshiro(0).NextSplitter().SplitString("minecraft:terrain"), c)
	require.NoError(t, err)
	for y := -64; y < 320; y += 37 {
		v := a.Sample(5, y, -9)
		assert.Equal(t, v, b.Sample(5, y, -9))
		assert.False(t, math.IsNaN(v))
	}
	assert.Greater(t, a.MaxValue(), 0.0)
}

func TestEndIslands(t *testing.T) {
	e := NewEndIslands(0)
	assert.Equal(t, float32(80), e.Height(0, 0))
	assert.InDelta(t, 0.5625, e.Sample(0, 0), 1e-12)
	for x := 1000; x < 3000; x += 313 {
		v := e.Sample(x*8, -x*8)
		assert.GreaterOrEqual(t, v, (-100.0-8)/128)
		assert.LessOrEqual(t, v, (80.0-8)/128)
	}
}
