// Package shopping turns the ingredient lines of a user's cart into a
// shopping list and renders it for download.
package shopping

import (
	"cmp"
	"slices"

	"github.com/sakif/foodgram/internal/model"
)

type itemKey struct {
	name string
	unit string
}

// Aggregate groups cart lines by ingredient name and unit and sums their
// amounts. Two catalog entries sharing a name and unit collapse into one
// item, and repeated lines from the same recipe are summed as well.
//
// Items are ordered by name, then unit. An empty cart yields an empty,
// non-nil slice.
func Aggregate(lines []model.CartLine) []model.ShoppingItem {
	totals := make(map[itemKey]int, len(lines))
	for _, l := range lines {
		totals[itemKey{name: l.Name, unit: l.Unit}] += l.Amount
	}

	items := make([]model.ShoppingItem, 0, len(totals))
	for k, amount := range totals {
		items = append(items, model.ShoppingItem{Name: k.name, Unit: k.unit, Amount: amount})
	}

	slices.SortFunc(items, func(a, b model.ShoppingItem) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Unit, b.Unit)
	})
	return items
}
