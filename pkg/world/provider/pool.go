package provider

import "github.com/go-theft-craft/worldgen/pkg/random"

// Weighted pairs a value with its selection weight.
type Weighted[T any] struct {
	Data   T   `json:"data"`
	Weight int `json:"weight"`
}

// Pool is a weighted list.
type Pool[T any] []Weighted[T]

// TotalWeight sums the entry weights.
func (p Pool[T]) TotalWeight() int {
	var total int
	for _, e := range p {
		total += e.Weight
	}
	return total
}

// Pick draws one entry with probability proportional to its weight. It
// reports false for an empty or weightless pool.
func (p Pool[T]) Pick(r random.Random) (T, bool) {
	var zero T
	total := p.TotalWeight()
	if total <= 0 {
		return zero, false
	}
	idx := r.NextBoundedInt(total)
	for _, e := range p {
		idx -= e.Weight
		if idx < 0 {
			return e.Data, true
		}
	}
	return zero, false
}
