// Package datapack loads the static worldgen tables: blocks, biomes, noise
// parameters, density functions, noise settings, biome parameter lists and
// features. Every table is checked against its JSON schema before it is
// decoded.
package datapack

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/go-theft-craft/worldgen/pkg/world/biome"
	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/feature"
	"github.com/go-theft-craft/worldgen/pkg/world/gen"
	"github.com/go-theft-craft/worldgen/pkg/world/noise"
)

//go:embed data
var embedded embed.FS

// Pack holds the decoded tables shared by every dimension.
type Pack struct {
	Blocks   *block.Registry
	Biomes   *biome.Registry
	Noises   map[string]noise.Parameters
	Library  map[string]json.RawMessage
	Features *feature.Registry

	settings   map[string]*gen.Settings
	multiNoise map[string]json.RawMessage

	mu   sync.Mutex
	dims map[string]*gen.Dimension
}

// Source builds the biome source of a dimension from the pack.
type Source func(p *Pack, name string) (biome.Source, error)

var dimensions = map[string]Source{}

// Register binds a dimension name to the biome source it generates with.
// The dimension also needs noise_settings/<name>.json in the pack.
func Register(name string, src Source) {
	dimensions[name] = src
}

// RegisteredDimensions returns the registered dimension names, sorted.
func RegisteredDimensions() []string {
	names := make([]string, 0, len(dimensions))
	for name := range dimensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("overworld", MultiNoise)
	Register("nether", MultiNoise)
	Register("end", func(p *Pack, _ string) (biome.Source, error) {
		return biome.NewEndSource(p.Biomes)
	})
}

// MultiNoise builds a climate-driven source from multi_noise/<name>.json.
func MultiNoise(p *Pack, name string) (biome.Source, error) {
	raw, ok := p.multiNoise[name]
	if !ok {
		return nil, fmt.Errorf("no multi_noise table for %s", name)
	}
	return biome.ParseMultiNoise(p.Biomes, raw)
}

// Default returns the embedded pack. It is decoded once.
var Default = sync.OnceValues(func() (*Pack, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub, nil)
})

// Load returns a dimension of the embedded pack.
func Load(name string) (*gen.Dimension, error) {
	p, err := Default()
	if err != nil {
		return nil, err
	}
	return p.Dimension(name)
}

// LoadDir reads a pack laid out like the embedded one from dir. Schemas
// missing from dir fall back to the embedded ones.
func LoadDir(dir string, log *slog.Logger) (*Pack, error) {
	return LoadFS(os.DirFS(dir), log)
}

// LoadFS reads and validates every table in fsys.
func LoadFS(fsys fs.FS, log *slog.Logger) (*Pack, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	v, err := newValidator(fsys)
	if err != nil {
		return nil, err
	}
	r := reader{fsys: fsys, v: v}
	p := &Pack{
		Library:    make(map[string]json.RawMessage),
		settings:   make(map[string]*gen.Settings),
		multiNoise: make(map[string]json.RawMessage),
		dims:       make(map[string]*gen.Dimension),
	}

	var defs []block.Definition
	if err := r.decode("blocks.json", "blocks", &defs); err != nil {
		return nil, err
	}
	if p.Blocks, err = block.NewRegistry(defs); err != nil {
		return nil, fmt.Errorf("blocks.json: %w", err)
	}

	raw, err := r.raw("biomes.json", "biomes")
	if err != nil {
		return nil, err
	}
	if p.Biomes, err = biome.NewRegistry(raw); err != nil {
		return nil, fmt.Errorf("biomes.json: %w", err)
	}

	if err := r.decode("noise.json", "noise", &p.Noises); err != nil {
		return nil, err
	}

	err = fs.WalkDir(fsys, "density_function", func(file string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(file) != ".json" {
			return err
		}
		raw, err := r.raw(file, "density_function")
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(file, "density_function/"), ".json")
		p.Library["minecraft:"+name] = raw
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, dir := range []struct {
		dir, schema string
		load        func(name string, raw json.RawMessage) error
	}{
		{"noise_settings", "noise_settings", func(name string, raw json.RawMessage) error {
			s, err := gen.ParseSettings(raw)
			if err != nil {
				return err
			}
			p.settings[name] = s
			return nil
		}},
		{"multi_noise", "multi_noise", func(name string, raw json.RawMessage) error {
			p.multiNoise[name] = raw
			return nil
		}},
	} {
		entries, err := fs.ReadDir(fsys, dir.dir)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", dir.dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || path.Ext(e.Name()) != ".json" {
				continue
			}
			file := path.Join(dir.dir, e.Name())
			raw, err := r.raw(file, dir.schema)
			if err != nil {
				return nil, err
			}
			if err := dir.load(strings.TrimSuffix(e.Name(), ".json"), raw); err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
		}
	}

	var configured, placed map[string]json.RawMessage
	if err := r.decode("configured_feature.json", "configured_feature", &configured); err != nil {
		return nil, err
	}
	if err := r.decode("placed_feature.json", "placed_feature", &placed); err != nil {
		return nil, err
	}
	if p.Features, err = feature.NewRegistry(p.Blocks, log, configured, placed); err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}

	log.Debug("datapack loaded",
		"blocks", len(defs),
		"biomes", len(p.Biomes.All()),
		"noises", len(p.Noises),
		"density_functions", len(p.Library),
		"dimensions", p.Dimensions())
	return p, nil
}

// Dimensions returns the dimensions the pack has noise settings for, sorted.
func (p *Pack) Dimensions() []string {
	names := make([]string, 0, len(p.settings))
	for name := range p.settings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dimension resolves a registered dimension against the pack. The result is
// cached; it is immutable and safe to share between generators.
func (p *Pack) Dimension(name string) (*gen.Dimension, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d, ok := p.dims[name]; ok {
		return d, nil
	}
	src, ok := dimensions[name]
	if !ok {
		return nil, fmt.Errorf("unknown dimension: %s", name)
	}
	s, ok := p.settings[name]
	if !ok {
		return nil, fmt.Errorf("dimension %s: no noise settings", name)
	}
	source, err := src(p, name)
	if err != nil {
		return nil, fmt.Errorf("dimension %s: biome source: %w", name, err)
	}
	d, err := gen.NewDimension(name, s, gen.Tables{
		Blocks:   p.Blocks,
		Biomes:   p.Biomes,
		Noises:   p.Noises,
		Library:  p.Library,
		Source:   source,
		Features: p.Features,
	})
	if err != nil {
		return nil, err
	}
	p.dims[name] = d
	return d, nil
}

type reader struct {
	fsys fs.FS
	v    *validator
}

// raw reads file and validates it against the named schema.
func (r reader) raw(file, schema string) (json.RawMessage, error) {
	b, err := fs.ReadFile(r.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	if err := r.v.validate(schema, b); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return b, nil
}

func (r reader) decode(file, schema string, v any) error {
	b, err := r.raw(file, schema)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", file, err)
	}
	return nil
}
