package model

// CartLine is one ingredient line of one recipe in a user's cart, already
// joined with the ingredient's name and unit.
type CartLine struct {
	RecipeID string
	Name     string
	Unit     string
	Amount   int
}

// ShoppingItem is one aggregated line of a shopping list.
type ShoppingItem struct {
	Name   string `json:"name"`
	Unit   string `json:"measurement_unit"`
	Amount int    `json:"amount"`
}
