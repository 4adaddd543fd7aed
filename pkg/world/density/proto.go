package density

import (
	"fmt"
	"math"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/noise"
)

// GlobalRandomConfig is the seed material shared by every router of one
// dimension.
type GlobalRandomConfig struct {
	Seed   int64
	Legacy bool
	// Base derives every named noise and positional random.
	Base    random.Splitter
	Aquifer random.Splitter
	Ore     random.Splitter
}

// NewGlobalRandomConfig forks the positional splitters for seed.
func NewGlobalRandomConfig(seed int64, legacy bool) *GlobalRandomConfig {
	var r random.Random
	if legacy {
		r = random.NewLegacy(seed)
	} else {
		r = random.NewXoroshiro(seed)
	}
	base := r.NextSplitter()
	return &GlobalRandomConfig{
		Seed:    seed,
		Legacy:  legacy,
		Base:    base,
		Aquifer: base.SplitString("minecraft:aquifer").NextSplitter(),
		Ore:     base.SplitString("minecraft:ore").NextSplitter(),
	}
}

// Splitter returns the positional splitter derived from name, as used by
// surface gradients and clay bands.
func (c *GlobalRandomConfig) Splitter(name string) random.Splitter {
	return c.Base.SplitString(name).NextSplitter()
}

// Noises instantiates named noises for one seed, each at most once.
type Noises struct {
	cfg    *GlobalRandomConfig
	params map[string]noise.Parameters
	cache  map[string]*noise.DoublePerlin
}

// NewNoises returns a noise table over params, keyed by namespaced name.
func NewNoises(cfg *GlobalRandomConfig, params map[string]noise.Parameters) *Noises {
	return &Noises{cfg: cfg, params: params, cache: make(map[string]*noise.DoublePerlin)}
}

// Get returns the seeded noise for key. Legacy dimensions keep their pre
// splitter temperature, vegetation and shift noises.
func (n *Noises) Get(key string) (*noise.DoublePerlin, error) {
	key = namespaced(key)
	if d, ok := n.cache[key]; ok {
		return d, nil
	}
	var d *noise.DoublePerlin
	if n.cfg.Legacy {
		var err error
		switch key {
		case "minecraft:temperature":
			d, err = noise.NewLegacyDoublePerlin(random.NewLegacy(n.cfg.Seed), netherBiomeNoise)
		case "minecraft:vegetation":
			d, err = noise.NewLegacyDoublePerlin(random.NewLegacy(n.cfg.Seed+1), netherBiomeNoise)
		case "minecraft:offset":
			d = noise.NewDoublePerlin(n.cfg.Base.SplitString(key), noise.Parameters{Amplitudes: []float64{0}})
		}
		if err != nil {
			return nil, fmt.Errorf("noise %s: %w", key, err)
		}
	}
	if d == nil {
		p, ok := n.params[key]
		if !ok {
			return nil, fmt.Errorf("unknown noise %s", key)
		}
		d = noise.NewDoublePerlin(n.cfg.Base.SplitString(key), p)
	}
	n.cache[key] = d
	return d, nil
}

var netherBiomeNoise = noise.Parameters{FirstOctave: -7, Amplitudes: []float64{1, 1}}

// ProtoRouters binds a BaseRouter to a seed. It is immutable after
// construction and shared by all chunk tasks.
type ProtoRouters struct {
	*BaseRouter
	Random *GlobalRandomConfig
	Noises *Noises

	noises  []*noise.DoublePerlin
	blended []*noise.Blended
	islands *noise.EndIslands
	lo, hi  []float64
}

// NewProtoRouters instantiates every noise base references.
func NewProtoRouters(base *BaseRouter, noises *Noises) (*ProtoRouters, error) {
	g := base.Graph
	p := &ProtoRouters{
		BaseRouter: base,
		Random:     noises.cfg,
		Noises:     noises,
		noises:     make([]*noise.DoublePerlin, g.Len()),
		blended:    make([]*noise.Blended, g.Len()),
		lo:         make([]float64, g.Len()),
		hi:         make([]float64, g.Len()),
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		switch n.Kind {
		case KindNoise, KindShiftedNoise, KindShiftA, KindShiftB, KindShift, KindWeirdScaled:
			d, err := noises.Get(n.Noise)
			if err != nil {
				return nil, err
			}
			p.noises[i] = d
		case KindBlendedNoise:
			var r random.Random
			if noises.cfg.Legacy {
				r = random.NewLegacy(noises.cfg.Seed)
			} else {
				r = noises.cfg.Base.SplitString("minecraft:terrain")
			}
			b, err := noise.NewBlended(r, n.Blended)
			if err != nil {
				return nil, fmt.Errorf("old blended noise: %w", err)
			}
			p.blended[i] = b
		case KindEndIslands:
			if p.islands == nil {
				p.islands = noise.NewEndIslands(noises.cfg.Seed)
			}
		}
		p.lo[i], p.hi[i] = p.bounds(NodeID(i))
	}
	return p, nil
}

// Bounds returns the value range of a node.
func (p *ProtoRouters) Bounds(id NodeID) (float64, float64) { return p.lo[id], p.hi[id] }

func (p *ProtoRouters) bounds(id NodeID) (float64, float64) {
	n := &p.Graph.Nodes[id]
	in := func(i NodeID) (float64, float64) { return p.lo[i], p.hi[i] }
	switch n.Kind {
	case KindConstant:
		return n.Value, n.Value
	case KindNoise, KindShiftedNoise:
		m := p.noises[id].MaxValue()
		return -m, m
	case KindShiftA, KindShiftB, KindShift:
		m := p.noises[id].MaxValue() * 4
		return -m, m
	case KindBlendedNoise:
		m := p.blended[id].MaxValue()
		return -m, m
	case KindEndIslands:
		return -0.84375, 0.5625
	case KindWeirdScaled:
		return 0, n.Mapper.maxRarity() * p.noises[id].MaxValue()
	case KindYClampedGradient:
		return min(n.Min, n.Max), max(n.Min, n.Max)
	case KindRangeChoice:
		alo, ahi := in(n.Input2)
		blo, bhi := in(n.Input3)
		return min(alo, blo), max(ahi, bhi)
	case KindClamp:
		return n.Min, n.Max
	case KindAdd:
		alo, ahi := in(n.Input)
		blo, bhi := in(n.Input2)
		return alo + blo, ahi + bhi
	case KindMul:
		alo, ahi := in(n.Input)
		blo, bhi := in(n.Input2)
		a, b, c, d := alo*blo, alo*bhi, ahi*blo, ahi*bhi
		return min(a, b, c, d), max(a, b, c, d)
	case KindMin:
		alo, ahi := in(n.Input)
		blo, bhi := in(n.Input2)
		return min(alo, blo), min(ahi, bhi)
	case KindMax:
		alo, ahi := in(n.Input)
		blo, bhi := in(n.Input2)
		return max(alo, blo), max(ahi, bhi)
	case KindSpline:
		lo, hi := n.Spline.bounds(in)
		return float64(lo), float64(hi)
	case KindBlendAlpha:
		return 1, 1
	case KindBlendOffset, KindBeardifier:
		return 0, 0
	}
	if isMapped(n.Kind) {
		lo, hi := in(n.Input)
		a, b := mapped(n.Kind, lo), mapped(n.Kind, hi)
		if n.Kind == KindAbs || n.Kind == KindSquare {
			return math.Max(0, lo), max(a, b)
		}
		return a, b
	}
	return in(n.Input)
}

// Sample evaluates id at a single point with every cache bypassed.
func (p *ProtoRouters) Sample(id NodeID, x, y, z int) float64 {
	c := &ChunkRouter{proto: p, graph: p.Graph}
	return c.eval(id, x, y, z)
}
