package model

import (
	"math/rand/v2"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Select draws one key from a frequency table with probability proportional
// to its count. Keys are visited in sorted order so a seeded rng reproduces
// the same draw. A table with no positive mass yields its smallest key; an
// empty table yields false.
func Select[K constraints.Ordered](table map[K]float64, rng *rand.Rand) (K, bool) {
	var zero K
	if len(table) == 0 {
		return zero, false
	}

	keys := maps.Keys(table)
	slices.Sort(keys)

	total := 0.0
	for _, k := range keys {
		if v := table[k]; v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return keys[0], true
	}

	r := rng.Float64() * total
	for _, k := range keys {
		v := table[k]
		if v <= 0 {
			continue
		}
		r -= v
		if r <= 0 {
			return k, true
		}
	}
	return keys[len(keys)-1], true
}

// Total sums the positive mass of a table.
func Total[K constraints.Ordered](table map[K]float64) float64 {
	total := 0.0
	for _, v := range table {
		if v > 0 {
			total += v
		}
	}
	return total
}
