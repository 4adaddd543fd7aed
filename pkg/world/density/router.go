package density

import (
	"encoding/json"
	"fmt"
)

// Entry names one output of a noise router.
type Entry int

const (
	EntryBarrier Entry = iota
	EntryFluidLevelFloodedness
	EntryFluidLevelSpread
	EntryLava
	EntryTemperature
	EntryVegetation
	EntryContinents
	EntryErosion
	EntryDepth
	EntryRidges
	EntryInitialDensityWithoutJaggedness
	EntryFinalDensity
	EntryVeinToggle
	EntryVeinRidged
	EntryVeinGap

	entryCount
)

var entryNames = [entryCount]string{
	"barrier",
	"fluid_level_floodedness",
	"fluid_level_spread",
	"lava",
	"temperature",
	"vegetation",
	"continents",
	"erosion",
	"depth",
	"ridges",
	"initial_density_without_jaggedness",
	"final_density",
	"vein_toggle",
	"vein_ridged",
	"vein_gap",
}

func (e Entry) String() string {
	if e < 0 || e >= entryCount {
		return fmt.Sprintf("entry(%d)", int(e))
	}
	return entryNames[e]
}

// BaseRouter is the seed independent router: one graph shared by every
// world using these settings.
type BaseRouter struct {
	Graph   *Graph
	entries [entryCount]NodeID
	// cellFinal wraps final_density in a per-cell cache for the block loop.
	cellFinal NodeID
}

// Entry returns the root node of e.
func (r *BaseRouter) Entry(e Entry) NodeID { return r.entries[e] }

// Entries returns every router entry in declaration order.
func Entries() []Entry {
	out := make([]Entry, entryCount)
	for i := range out {
		out[i] = Entry(i)
	}
	return out
}

// ParseRouter decodes a noise_router object. Named references resolve
// against library. Every entry must be present.
func ParseRouter(library map[string]json.RawMessage, raw json.RawMessage) (*BaseRouter, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("noise router: %w", err)
	}
	for name := range fields {
		if !knownEntry(name) {
			return nil, fmt.Errorf("noise router: unknown entry %q", name)
		}
	}
	for _, e := range Entries() {
		if _, ok := fields[entryNames[e]]; !ok {
			return nil, fmt.Errorf("noise router: missing entry %s", e)
		}
	}
	p := NewParser(library)
	r := &BaseRouter{Graph: p.Graph()}
	for _, e := range Entries() {
		f := fields[entryNames[e]]
		id, err := p.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("noise router %s: %w", entryNames[e], err)
		}
		r.entries[e] = id
	}
	r.cellFinal = p.graph.Unary(KindCacheAllInCell, r.entries[EntryFinalDensity])
	return r, nil
}

// NewRouter builds a router from a graph constructed in code. Entries
// absent from entries are the constant zero.
func NewRouter(g *Graph, entries map[Entry]NodeID) *BaseRouter {
	r := &BaseRouter{Graph: g}
	for e := Entry(0); e < entryCount; e++ {
		id, ok := entries[e]
		if !ok {
			id = g.Constant(0)
		}
		r.entries[e] = id
	}
	r.cellFinal = g.Unary(KindCacheAllInCell, r.entries[EntryFinalDensity])
	return r
}

func knownEntry(name string) bool {
	for _, n := range entryNames {
		if n == name {
			return true
		}
	}
	return false
}
