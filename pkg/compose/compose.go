// Package compose pairs each page's restored background with its text
// placements, in the order a document writer consumes them.
package compose

import (
	"sort"

	"github.com/gardar/slidelayers/pkg/layout"
	"github.com/gardar/slidelayers/pkg/raster"
)

// Pair is everything a writer needs for one page.
type Pair struct {
	Index      int                // 1-based page index
	Background raster.Image       // Zero Image when the page has none
	Placements []layout.Placement // Never nil
}

// HasBackground reports whether the pair carries a background image.
func (p Pair) HasBackground() bool {
	return !p.Background.Empty()
}

// Compose returns one Pair per page in order, sorted ascending with
// duplicates removed. Missing backgrounds become the zero Image and
// missing placements an empty slice. Inputs are not modified.
func Compose(placements map[int][]layout.Placement, backgrounds map[int]raster.Image, order []int) []Pair {
	indices := make([]int, len(order))
	copy(indices, order)
	sort.Ints(indices)

	pairs := make([]Pair, 0, len(indices))
	for i, idx := range indices {
		if i > 0 && idx == indices[i-1] {
			continue
		}

		list := make([]layout.Placement, len(placements[idx]))
		copy(list, placements[idx])

		pairs = append(pairs, Pair{
			Index:      idx,
			Background: backgrounds[idx],
			Placements: list,
		})
	}
	return pairs
}

// Order returns the page indices 1..n.
func Order(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i + 1
	}
	return order
}
