// Package biome holds biome definitions and the sources that assign a biome
// to every 4x4x4 biome cell.
package biome

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-theft-craft/worldgen/pkg/random"
	"github.com/go-theft-craft/worldgen/pkg/world/noise"
	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

// TemperatureModifier adjusts a biome's base temperature by position.
type TemperatureModifier uint8

const (
	ModifierNone TemperatureModifier = iota
	ModifierFrozen
)

func (m *TemperatureModifier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "", "none":
		*m = ModifierNone
	case "frozen":
		*m = ModifierFrozen
	default:
		return fmt.Errorf("unknown temperature modifier %q", s)
	}
	return nil
}

// Biome is one biome definition.
type Biome struct {
	ID   int    `json:"-"`
	Name string `json:"-"`

	Temperature         float32             `json:"temperature"`
	Downfall            float32             `json:"downfall"`
	HasPrecipitation    bool                `json:"has_precipitation"`
	TemperatureModifier TemperatureModifier `json:"temperature_modifier"`
	// Features lists placed feature names per generation step.
	Features [][]string `json:"features"`

	featureSet map[string]struct{}
}

func (b *Biome) String() string { return b.Name }

// HasFeature reports whether any generation step of b lists the placed
// feature name.
func (b *Biome) HasFeature(name string) bool {
	if !strings.Contains(name, ":") {
		name = "minecraft:" + name
	}
	_, ok := b.featureSet[name]
	return ok
}

// Is reports whether b has the given name, with or without namespace.
func (b *Biome) Is(name string) bool {
	if !strings.Contains(name, ":") {
		name = "minecraft:" + name
	}
	return b.Name == name
}

var (
	temperatureNoise       = mustSimplex(1234, []int{0})
	frozenTemperatureNoise = mustSimplex(3456, []int{-2, -1, 0})
	biomeInfoNoise         = mustSimplex(2345, []int{0})
)

func mustSimplex(seed int64, octaves []int) *noise.OctaveSimplex {
	n, err := noise.NewOctaveSimplex(random.NewLegacy(seed), octaves)
	if err != nil {
		panic(err)
	}
	return n
}

// InfoNoise samples the world-independent 2D noise that count placements
// and frozen temperatures read.
func InfoNoise(x, z float64) float64 { return biomeInfoNoise.Sample(x, z, false) }

func (b *Biome) modifiedTemperature(p pos.Block) float32 {
	if b.TemperatureModifier != ModifierFrozen {
		return b.Temperature
	}
	x, z := float64(p.X), float64(p.Z)
	d := frozenTemperatureNoise.Sample(x*0.05, z*0.05, false) * 7
	e := biomeInfoNoise.Sample(x*0.2, z*0.2, false)
	if d+e < 0.3 && biomeInfoNoise.Sample(x*0.09, z*0.09, false) < 0.8 {
		return 0.2
	}
	return b.Temperature
}

// TemperatureAt returns the height adjusted temperature at p. Above
// seaLevel+17 the temperature drops with altitude.
func (b *Biome) TemperatureAt(p pos.Block, seaLevel int) float32 {
	f := b.modifiedTemperature(p)
	limit := seaLevel + 17
	if p.Y > limit {
		g := float32(temperatureNoise.Sample(float64(float32(p.X)/8), float64(float32(p.Z)/8), false) * 8)
		return f - (g+float32(p.Y)-float32(limit))*0.05/40
	}
	return f
}

// ColdEnoughToSnow reports whether precipitation at p falls as snow.
func (b *Biome) ColdEnoughToSnow(p pos.Block, seaLevel int) bool {
	return b.TemperatureAt(p, seaLevel) < 0.15
}

// ShouldMeltFrozenOceanIcebergSlightly lowers icebergs in warmer frozen oceans.
func (b *Biome) ShouldMeltFrozenOceanIcebergSlightly(p pos.Block, seaLevel int) bool {
	return b.TemperatureAt(p, seaLevel) > 0.1
}

// Registry is the immutable biome table.
type Registry struct {
	biomes []*Biome
	byName map[string]*Biome
}

// NewRegistry decodes a name to definition object. IDs follow name order.
func NewRegistry(raw json.RawMessage) (*Registry, error) {
	var defs map[string]*Biome
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("decode biomes: %w", err)
	}
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	r := &Registry{byName: make(map[string]*Biome, len(defs))}
	for i, name := range names {
		b := defs[name]
		if b == nil {
			return nil, fmt.Errorf("biome %s: empty definition", name)
		}
		full := name
		if !strings.Contains(full, ":") {
			full = "minecraft:" + full
		}
		b.ID, b.Name = i, full
		b.featureSet = make(map[string]struct{})
		for _, step := range b.Features {
			for _, f := range step {
				if !strings.Contains(f, ":") {
					f = "minecraft:" + f
				}
				b.featureSet[f] = struct{}{}
			}
		}
		r.biomes = append(r.biomes, b)
		r.byName[full] = b
	}
	return r, nil
}

// ByName looks a biome up by name, with or without namespace.
func (r *Registry) ByName(name string) (*Biome, bool) {
	if !strings.Contains(name, ":") {
		name = "minecraft:" + name
	}
	b, ok := r.byName[name]
	return b, ok
}

// ByID returns the biome with the given id.
func (r *Registry) ByID(id int) *Biome {
	if id < 0 || id >= len(r.biomes) {
		return nil
	}
	return r.biomes[id]
}

// All returns every biome in id order.
func (r *Registry) All() []*Biome { return r.biomes }
