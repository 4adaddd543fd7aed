package feature

import (
	"encoding/json"
	"fmt"

	"github.com/go-theft-craft/worldgen/pkg/world/pos"
)

// RandomPatch tries the inner feature at jittered positions around the
// origin. Flower patches decode to it as well.
type RandomPatch struct {
	Tries    int
	XZSpread int
	YSpread  int
	Feature  Feature
}

func (f RandomPatch) Generate(c *Context, origin pos.Block) bool {
	r := c.Random
	xz, y := f.XZSpread+1, f.YSpread+1
	placed := 0
	for range f.Tries {
		dx := r.NextBoundedInt(xz) - r.NextBoundedInt(xz)
		dy := r.NextBoundedInt(y) - r.NextBoundedInt(y)
		dz := r.NextBoundedInt(xz) - r.NextBoundedInt(xz)
		if f.Feature.Generate(c, origin.Add(dx, dy, dz)) {
			placed++
		}
	}
	return placed > 0
}

func (d *decoder) randomPatch(raw json.RawMessage) (Feature, error) {
	v := struct {
		Tries    int             `json:"tries"`
		XZSpread int             `json:"xz_spread"`
		YSpread  int             `json:"y_spread"`
		Feature  json.RawMessage `json:"feature"`
	}{Tries: 128, XZSpread: 7, YSpread: 3}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if v.XZSpread < 0 || v.YSpread < 0 {
		return nil, fmt.Errorf("negative spread")
	}
	inner, err := d.placedRef(v.Feature)
	if err != nil {
		return nil, err
	}
	return RandomPatch{Tries: v.Tries, XZSpread: v.XZSpread, YSpread: v.YSpread, Feature: inner}, nil
}

// Chance pairs a feature with the probability a RandomSelector picks it.
type Chance struct {
	Feature Feature
	Chance  float32
}

// RandomSelector runs the first entry whose chance roll passes, or Default.
type RandomSelector struct {
	Features []Chance
	Default  Feature
}

func (f RandomSelector) Generate(c *Context, origin pos.Block) bool {
	for _, e := range f.Features {
		if c.Random.NextFloat() < e.Chance {
			return e.Feature.Generate(c, origin)
		}
	}
	return f.Default.Generate(c, origin)
}

func (d *decoder) randomSelector(raw json.RawMessage) (Feature, error) {
	var v struct {
		Features []struct {
			Feature json.RawMessage `json:"feature"`
			Chance  float32         `json:"chance"`
		} `json:"features"`
		Default json.RawMessage `json:"default"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	sel := RandomSelector{Features: make([]Chance, 0, len(v.Features))}
	for i, e := range v.Features {
		pf, err := d.placedRef(e.Feature)
		if err != nil {
			return nil, fmt.Errorf("features[%d]: %w", i, err)
		}
		sel.Features = append(sel.Features, Chance{Feature: pf, Chance: e.Chance})
	}
	def, err := d.placedRef(v.Default)
	if err != nil {
		return nil, fmt.Errorf("default: %w", err)
	}
	sel.Default = def
	return sel, nil
}

// SimpleRandomSelector runs one of its features picked uniformly.
type SimpleRandomSelector struct{ Features []Feature }

func (f SimpleRandomSelector) Generate(c *Context, origin pos.Block) bool {
	return f.Features[c.Random.NextBoundedInt(len(f.Features))].Generate(c, origin)
}

func (d *decoder) simpleRandomSelector(raw json.RawMessage) (Feature, error) {
	var v struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if len(v.Features) == 0 {
		return nil, fmt.Errorf("no features")
	}
	sel := SimpleRandomSelector{Features: make([]Feature, 0, len(v.Features))}
	for i, r := range v.Features {
		pf, err := d.placedRef(r)
		if err != nil {
			return nil, fmt.Errorf("features[%d]: %w", i, err)
		}
		sel.Features = append(sel.Features, pf)
	}
	return sel, nil
}

// RandomBooleanSelector runs True or False on a coin flip.
type RandomBooleanSelector struct{ True, False Feature }

func (f RandomBooleanSelector) Generate(c *Context, origin pos.Block) bool {
	if c.Random.NextBool() {
		return f.True.Generate(c, origin)
	}
	return f.False.Generate(c, origin)
}

func (d *decoder) randomBooleanSelector(raw json.RawMessage) (Feature, error) {
	var v struct {
		True  json.RawMessage `json:"feature_true"`
		False json.RawMessage `json:"feature_false"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	t, err := d.placedRef(v.True)
	if err != nil {
		return nil, fmt.Errorf("feature_true: %w", err)
	}
	f, err := d.placedRef(v.False)
	if err != nil {
		return nil, fmt.Errorf("feature_false: %w", err)
	}
	return RandomBooleanSelector{True: t, False: f}, nil
}
