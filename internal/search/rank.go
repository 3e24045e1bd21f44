package search

import (
	"sort"

	"github.com/lukman83/components-radar/internal/models"
)

// Rank orders items by weight, highest first. Weighted items precede
// unweighted ones, which keep their original relative order.
func Rank(items []models.Product) []models.Product {
	out := make([]models.Product, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := out[i].Weight, out[j].Weight
		switch {
		case wi != nil && wj != nil:
			return *wi > *wj
		case wi != nil:
			return true
		default:
			return false
		}
	})
	return out
}
