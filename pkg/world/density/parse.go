package density

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-theft-craft/worldgen/pkg/world/noise"
)

// Parser builds a Graph from JSON definitions. Every reference to the same
// named function resolves to a single shared node, so caches on it are shared
// too.
type Parser struct {
	graph   *Graph
	library map[string]json.RawMessage
	named   map[string]NodeID
	active  map[string]bool
}

// NewParser returns a parser resolving string references against library,
// keyed by namespaced function name.
func NewParser(library map[string]json.RawMessage) *Parser {
	return &Parser{
		graph:   &Graph{},
		library: library,
		named:   make(map[string]NodeID),
		active:  make(map[string]bool),
	}
}

// Graph returns the graph built so far.
func (p *Parser) Graph() *Graph { return p.graph }

// Named resolves a library function by name.
func (p *Parser) Named(name string) (NodeID, error) {
	name = namespaced(name)
	if id, ok := p.named[name]; ok {
		return id, nil
	}
	if p.active[name] {
		return None, fmt.Errorf("density function %s references itself", name)
	}
	raw, ok := p.library[name]
	if !ok {
		return None, fmt.Errorf("unknown density function %s", name)
	}
	p.active[name] = true
	id, err := p.Parse(raw)
	delete(p.active, name)
	if err != nil {
		return None, fmt.Errorf("%s: %w", name, err)
	}
	p.named[name] = id
	return id, nil
}

type nodeData struct {
	Type           string          `json:"type"`
	Argument       json.RawMessage `json:"argument"`
	Argument1      json.RawMessage `json:"argument1"`
	Argument2      json.RawMessage `json:"argument2"`
	Input          json.RawMessage `json:"input"`
	WhenInRange    json.RawMessage `json:"when_in_range"`
	WhenOutOfRange json.RawMessage `json:"when_out_of_range"`
	ShiftX         json.RawMessage `json:"shift_x"`
	ShiftY         json.RawMessage `json:"shift_y"`
	ShiftZ         json.RawMessage `json:"shift_z"`
	Spline         json.RawMessage `json:"spline"`

	Noise        string  `json:"noise"`
	XZScale      float64 `json:"xz_scale"`
	YScale       float64 `json:"y_scale"`
	XZFactor     float64 `json:"xz_factor"`
	YFactor      float64 `json:"y_factor"`
	Smear        float64 `json:"smear_scale_multiplier"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	MinInclusive float64 `json:"min_inclusive"`
	MaxExclusive float64 `json:"max_exclusive"`
	FromY        int     `json:"from_y"`
	ToY          int     `json:"to_y"`
	FromValue    float64 `json:"from_value"`
	ToValue      float64 `json:"to_value"`
	Rarity       string  `json:"rarity_value_mapper"`
}

// Parse decodes one density function: a number, a named reference or a
// typed object.
func (p *Parser) Parse(raw json.RawMessage) (NodeID, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return None, fmt.Errorf("missing density function")
	}
	switch raw[0] {
	case '"':
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return None, err
		}
		return p.Named(name)
	case '{':
	default:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return None, fmt.Errorf("density function: %w", err)
		}
		return p.graph.Constant(v), nil
	}

	var d nodeData
	if err := json.Unmarshal(raw, &d); err != nil {
		return None, fmt.Errorf("density function: %w", err)
	}
	kind, ok := kindNames[namespaced(d.Type)]
	if !ok {
		return None, fmt.Errorf("unknown density function type %q", d.Type)
	}
	n := Node{Kind: kind, Input: None, Input2: None, Input3: None}

	var err error
	sub := func(field string, r json.RawMessage) NodeID {
		if err != nil {
			return None
		}
		if len(r) == 0 {
			err = fmt.Errorf("%s: missing %s", kind, field)
			return None
		}
		var id NodeID
		id, err = p.Parse(r)
		return id
	}

	switch kind {
	case KindConstant:
		if err := json.Unmarshal(d.Argument, &n.Value); err != nil {
			return None, fmt.Errorf("%s: %w", kind, err)
		}
	case KindNoise:
		n.Noise, n.XZScale, n.YScale = namespaced(d.Noise), d.XZScale, d.YScale
	case KindShiftedNoise:
		n.Noise, n.XZScale, n.YScale = namespaced(d.Noise), d.XZScale, d.YScale
		n.Input = sub("shift_x", d.ShiftX)
		n.Input2 = sub("shift_y", d.ShiftY)
		n.Input3 = sub("shift_z", d.ShiftZ)
	case KindShiftA, KindShiftB, KindShift:
		var key string
		if err := json.Unmarshal(d.Argument, &key); err != nil {
			return None, fmt.Errorf("%s: noise key: %w", kind, err)
		}
		n.Noise = namespaced(key)
	case KindBlendedNoise:
		n.Blended = noise.BlendedConfig{
			XZScale: d.XZScale, YScale: d.YScale,
			XZFactor: d.XZFactor, YFactor: d.YFactor,
			SmearScaleMultiplier: d.Smear,
		}
	case KindWeirdScaled:
		n.Noise = namespaced(d.Noise)
		switch d.Rarity {
		case "type_1":
			n.Mapper = RarityTunnels
		case "type_2":
			n.Mapper = RarityCaves
		default:
			return None, fmt.Errorf("%s: unknown rarity mapper %q", kind, d.Rarity)
		}
		n.Input = sub("input", d.Input)
	case KindYClampedGradient:
		n.FromY, n.ToY, n.Min, n.Max = d.FromY, d.ToY, d.FromValue, d.ToValue
	case KindRangeChoice:
		n.Min, n.Max = d.MinInclusive, d.MaxExclusive
		n.Input = sub("input", d.Input)
		n.Input2 = sub("when_in_range", d.WhenInRange)
		n.Input3 = sub("when_out_of_range", d.WhenOutOfRange)
	case KindClamp:
		n.Min, n.Max = d.Min, d.Max
		n.Input = sub("input", d.Input)
	case KindAdd, KindMul, KindMin, KindMax:
		n.Input = sub("argument1", d.Argument1)
		n.Input2 = sub("argument2", d.Argument2)
	case KindSpline:
		if len(d.Spline) == 0 {
			return None, fmt.Errorf("%s: missing spline", kind)
		}
		s, perr := p.parseSpline(d.Spline)
		if perr != nil {
			return None, fmt.Errorf("%s: %w", kind, perr)
		}
		n.Spline = s
	case KindEndIslands, KindBlendAlpha, KindBlendOffset, KindBeardifier:
	default:
		n.Input = sub("argument", d.Argument)
	}
	if err != nil {
		return None, err
	}
	return p.graph.add(n), nil
}

type splineData struct {
	Coordinate json.RawMessage `json:"coordinate"`
	Points     []struct {
		Location   float32         `json:"location"`
		Value      json.RawMessage `json:"value"`
		Derivative float32         `json:"derivative"`
	} `json:"points"`
}

func (p *Parser) parseSpline(raw json.RawMessage) (*Spline, error) {
	var d splineData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	if len(d.Coordinate) == 0 {
		return nil, fmt.Errorf("spline: missing coordinate")
	}
	coord, err := p.Parse(d.Coordinate)
	if err != nil {
		return nil, err
	}
	s := &Spline{Coordinate: coord, Points: make([]SplinePoint, len(d.Points))}
	for i, pt := range d.Points {
		s.Points[i] = SplinePoint{Location: pt.Location, Derivative: pt.Derivative}
		v := bytes.TrimSpace(pt.Value)
		if len(v) > 0 && v[0] == '{' {
			nested, err := p.parseSpline(v)
			if err != nil {
				return nil, err
			}
			s.Points[i].Value = Nested(nested)
			continue
		}
		if err := json.Unmarshal(v, &s.Points[i].Value.Constant); err != nil {
			return nil, fmt.Errorf("spline point %d: %w", i, err)
		}
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func namespaced(id string) string {
	if id == "" || strings.Contains(id, ":") {
		return id
	}
	return "minecraft:" + id
}
