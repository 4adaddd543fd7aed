package gen

import (
	"encoding/json"
	"fmt"

	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/density"
	"github.com/go-theft-craft/worldgen/pkg/world/feature"
	"github.com/go-theft-craft/worldgen/pkg/world/noise"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// NoiseSettings sizes the terrain volume and its interpolation cells.
type NoiseSettings struct {
	MinY           int `json:"min_y"`
	Height         int `json:"height"`
	SizeHorizontal int `json:"size_horizontal"`
	SizeVertical   int `json:"size_vertical"`
}

// CellWidth is the horizontal interpolation cell size in blocks.
func (n NoiseSettings) CellWidth() int { return n.SizeHorizontal * 4 }

// CellHeight is the vertical interpolation cell size in blocks.
func (n NoiseSettings) CellHeight() int { return n.SizeVertical * 4 }

// Settings is one noise_settings table.
type Settings struct {
	SeaLevel           int             `json:"sea_level"`
	AquifersEnabled    bool            `json:"aquifers_enabled"`
	OreVeinsEnabled    bool            `json:"ore_veins_enabled"`
	LegacyRandomSource bool            `json:"legacy_random_source"`
	DefaultBlock       block.StateData `json:"default_block"`
	DefaultFluid       block.StateData `json:"default_fluid"`
	Noise              NoiseSettings   `json:"noise"`
	NoiseRouter        json.RawMessage `json:"noise_router"`
	SurfaceRule        json.RawMessage `json:"surface_rule"`
}

// ParseSettings decodes and checks a noise_settings table.
func ParseSettings(raw json.RawMessage) (*Settings, error) {
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode noise settings: %w", err)
	}
	n := s.Noise
	switch {
	case n.Height <= 0 || n.Height%16 != 0:
		return nil, fmt.Errorf("noise height %d must be a positive multiple of 16", n.Height)
	case n.MinY%16 != 0:
		return nil, fmt.Errorf("noise min_y %d must be a multiple of 16", n.MinY)
	case n.SizeHorizontal < 1 || 16%n.CellWidth() != 0:
		return nil, fmt.Errorf("noise size_horizontal %d does not divide a chunk", n.SizeHorizontal)
	case n.SizeVertical < 1 || n.Height%n.CellHeight() != 0:
		return nil, fmt.Errorf("noise size_vertical %d does not divide the height", n.SizeVertical)
	case s.NoiseRouter == nil:
		return nil, fmt.Errorf("noise settings have no noise_router")
	case s.SurfaceRule == nil:
		return nil, fmt.Errorf("noise settings have no surface_rule")
	}
	return &s, nil
}

// HeightContext returns the vertical range the settings generate.
func (s *Settings) HeightContext() provider.HeightContext {
	return provider.HeightContext{MinY: s.Noise.MinY, Height: s.Noise.Height}
}

// Tables are the decoded static tables a dimension is built from.
type Tables struct {
	Blocks   *block.Registry
	Biomes   *biome.Registry
	Noises   map[string]noise.Parameters
	Library  map[string]json.RawMessage // named density functions
	Source   biome.Source
	Features *feature.Registry
}

// Dimension is the seed independent description of one world type. It is
// immutable and shared by every generator built from it.
type Dimension struct {
	Name     string
	Settings *Settings
	Tables

	Router       *density.BaseRouter
	DefaultBlock *block.State
	DefaultFluid *block.State

	// steps lists, per generation step, every placed feature any biome
	// uses. A feature's index in its step seeds its random.
	steps [][]*feature.PlacedFeature
	index []map[string]int
}

// NewDimension resolves the settings against the tables.
func NewDimension(name string, s *Settings, t Tables) (*Dimension, error) {
	d := &Dimension{Name: name, Settings: s, Tables: t}
	var err error
	if d.Router, err = density.ParseRouter(t.Library, s.NoiseRouter); err != nil {
		return nil, fmt.Errorf("dimension %s: %w", name, err)
	}
	if d.DefaultBlock, err = t.Blocks.Resolve(s.DefaultBlock); err != nil {
		return nil, fmt.Errorf("dimension %s: default_block: %w", name, err)
	}
	if d.DefaultFluid, err = t.Blocks.Resolve(s.DefaultFluid); err != nil {
		return nil, fmt.Errorf("dimension %s: default_fluid: %w", name, err)
	}
	if d.steps, d.index, err = featureSteps(t.Biomes, t.Features); err != nil {
		return nil, fmt.Errorf("dimension %s: %w", name, err)
	}
	return d, nil
}

// featureSteps orders the placed features of each step by their first
// appearance across the biome registry.
func featureSteps(biomes *biome.Registry, features *feature.Registry) ([][]*feature.PlacedFeature, []map[string]int, error) {
	var (
		steps [][]*feature.PlacedFeature
		index []map[string]int
	)
	for _, b := range biomes.All() {
		for step, names := range b.Features {
			for len(steps) <= step {
				steps = append(steps, nil)
				index = append(index, make(map[string]int))
			}
			for _, name := range names {
				name = provider.Namespaced(name)
				if _, ok := index[step][name]; ok {
					continue
				}
				f, ok := features.Placed(name)
				if !ok {
					return nil, nil, fmt.Errorf("biome %s: unknown placed feature %s", b.Name, name)
				}
				index[step][name] = len(steps[step])
				steps[step] = append(steps[step], f)
			}
		}
	}
	return steps, index, nil
}

// Steps returns the number of feature generation steps.
func (d *Dimension) Steps() int { return len(d.steps) }
