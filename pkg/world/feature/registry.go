package feature

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/go-theft-craft/worldgen/pkg/world/block"
	"github.com/go-theft-craft/worldgen/pkg/world/provider"
)

// Registry holds every decoded configured and placed feature by name.
// It is immutable after NewRegistry and safe for concurrent use.
type Registry struct {
	configured map[string]*ConfiguredFeature
	placed     map[string]*PlacedFeature
}

// NewRegistry decodes the configured and placed feature tables. Keys may omit
// the minecraft namespace. References between entries resolve by name in
// any order; cycles are an error.
func NewRegistry(blocks *block.Registry, log *slog.Logger, configured, placed map[string]json.RawMessage) (*Registry, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d := &decoder{
		blocks:        blocks,
		log:           log,
		rawConfigured: namespacedKeys(configured),
		rawPlaced:     namespacedKeys(placed),
		configured:    make(map[string]*ConfiguredFeature),
		placed:        make(map[string]*PlacedFeature),
		pending:       make(map[string]bool),
		skipped:       make(map[string]bool),
	}
	for _, name := range sortedKeys(d.rawConfigured) {
		if _, err := d.configuredByName(name); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(d.rawPlaced) {
		if _, err := d.placedByName(name); err != nil {
			return nil, err
		}
	}
	log.Debug("feature registry ready", "configured", len(d.configured), "placed", len(d.placed))
	return &Registry{configured: d.configured, placed: d.placed}, nil
}

// Placed returns the placed feature with the given name.
func (r *Registry) Placed(name string) (*PlacedFeature, bool) {
	f, ok := r.placed[provider.Namespaced(name)]
	return f, ok
}

// Configured returns the configured feature with the given name.
func (r *Registry) Configured(name string) (*ConfiguredFeature, bool) {
	f, ok := r.configured[provider.Namespaced(name)]
	return f, ok
}

// PlacedNames lists the placed features in name order.
func (r *Registry) PlacedNames() []string { return sortedKeys(r.placed) }

func namespacedKeys(in map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[provider.Namespaced(k)] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// decoder resolves feature data against the block registry. It memoizes
// named entries so shared references decode to one value.
type decoder struct {
	blocks *block.Registry
	log    *slog.Logger

	rawConfigured map[string]json.RawMessage
	rawPlaced     map[string]json.RawMessage
	configured    map[string]*ConfiguredFeature
	placed        map[string]*PlacedFeature
	pending       map[string]bool
	skipped       map[string]bool
}

func (d *decoder) block(name string) (*block.Block, error) {
	b, ok := d.blocks.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown block %s", name)
	}
	return b, nil
}

// defaultState resolves a block by name when present. Optional blocks such
// as fire or iron bars are skipped by features when missing.
func (d *decoder) defaultState(name string) *block.State {
	b, ok := d.blocks.ByName(name)
	if !ok {
		return nil
	}
	return b.DefaultState
}

func (d *decoder) configuredByName(name string) (*ConfiguredFeature, error) {
	name = provider.Namespaced(name)
	if f, ok := d.configured[name]; ok {
		return f, nil
	}
	raw, ok := d.rawConfigured[name]
	if !ok {
		return nil, fmt.Errorf("unknown configured feature %s", name)
	}
	key := "configured:" + name
	if d.pending[key] {
		return nil, fmt.Errorf("configured feature %s refers to itself", name)
	}
	d.pending[key] = true
	defer delete(d.pending, key)

	f, err := d.configuredFeature(name, raw)
	if err != nil {
		return nil, fmt.Errorf("decode configured feature %s: %w", name, err)
	}
	d.configured[name] = f
	return f, nil
}

func (d *decoder) placedByName(name string) (*PlacedFeature, error) {
	name = provider.Namespaced(name)
	if f, ok := d.placed[name]; ok {
		return f, nil
	}
	raw, ok := d.rawPlaced[name]
	if !ok {
		return nil, fmt.Errorf("unknown placed feature %s", name)
	}
	key := "placed:" + name
	if d.pending[key] {
		return nil, fmt.Errorf("placed feature %s refers to itself", name)
	}
	d.pending[key] = true
	defer delete(d.pending, key)

	f, err := d.placedFeature(name, raw)
	if err != nil {
		return nil, fmt.Errorf("decode placed feature %s: %w", name, err)
	}
	d.placed[name] = f
	return f, nil
}

// refName reports whether raw is a reference by name rather than an inline
// definition.
func refName(raw json.RawMessage) (string, bool) {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", false
	}
	return name, true
}

func (d *decoder) configuredRef(raw json.RawMessage) (*ConfiguredFeature, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing feature")
	}
	if name, ok := refName(raw); ok {
		return d.configuredByName(name)
	}
	return d.configuredFeature("", raw)
}

func (d *decoder) placedRef(raw json.RawMessage) (*PlacedFeature, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing placed feature")
	}
	if name, ok := refName(raw); ok {
		return d.placedByName(name)
	}
	return d.placedFeature("", raw)
}

type placedData struct {
	Feature   json.RawMessage   `json:"feature"`
	Placement []json.RawMessage `json:"placement"`
}

func (d *decoder) placedFeature(name string, raw json.RawMessage) (*PlacedFeature, error) {
	var v placedData
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	cf, err := d.configuredRef(v.Feature)
	if err != nil {
		return nil, err
	}
	mods := make([]Modifier, 0, len(v.Placement))
	for i, m := range v.Placement {
		mod, err := d.modifier(m)
		if err != nil {
			return nil, fmt.Errorf("placement[%d]: %w", i, err)
		}
		mods = append(mods, mod)
	}
	return &PlacedFeature{Name: name, Feature: cf, Placement: mods}, nil
}

type configuredData struct {
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config"`
}

func (d *decoder) configuredFeature(name string, raw json.RawMessage) (*ConfiguredFeature, error) {
	var v configuredData
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	typ := provider.Namespaced(v.Type)
	cfg := v.Config
	if len(cfg) == 0 {
		cfg = json.RawMessage("{}")
	}

	var (
		f   Feature
		err error
	)
	switch typ {
	case "minecraft:tree":
		f, err = d.tree(cfg)
	case "minecraft:ore":
		f, err = d.ore(cfg, false)
	case "minecraft:scattered_ore":
		f, err = d.ore(cfg, true)
	case "minecraft:random_patch", "minecraft:flower", "minecraft:no_bonemeal_flower":
		f, err = d.randomPatch(cfg)
	case "minecraft:random_selector":
		f, err = d.randomSelector(cfg)
	case "minecraft:simple_random_selector":
		f, err = d.simpleRandomSelector(cfg)
	case "minecraft:random_boolean_selector":
		f, err = d.randomBooleanSelector(cfg)
	case "minecraft:simple_block":
		f, err = d.simpleBlock(cfg)
	case "minecraft:block_column":
		f, err = d.blockColumn(cfg)
	case "minecraft:vines":
		f, err = d.vines()
	case "minecraft:seagrass":
		f, err = d.seagrass(cfg)
	case "minecraft:sea_pickle":
		f, err = d.seaPickle(cfg)
	case "minecraft:bamboo":
		f, err = d.bamboo(cfg)
	case "minecraft:nether_forest_vegetation":
		f, err = d.netherForestVegetation(cfg)
	case "minecraft:spring_feature":
		f, err = d.spring(cfg)
	case "minecraft:desert_well":
		f, err = d.desertWell()
	case "minecraft:end_platform":
		f, err = d.endPlatform()
	case "minecraft:end_spike":
		f, err = d.endSpike(cfg)
	case "minecraft:netherrack_replace_blobs", "minecraft:replace_blobs":
		f, err = d.replaceBlobs(cfg)
	case "minecraft:coral_tree", "minecraft:coral_claw", "minecraft:coral_mushroom":
		f, err = d.coral(typ)
	case "minecraft:pointed_dripstone":
		f, err = d.pointedDripstone(cfg)
	case "minecraft:fallen_tree":
		f = Noop{}
	default:
		if !d.skipped[typ] {
			d.skipped[typ] = true
			d.log.Debug("feature kind not generated", "type", typ)
		}
		f = Noop{}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", typ, err)
	}
	return &ConfiguredFeature{Name: name, Type: typ, Feature: f}, nil
}
