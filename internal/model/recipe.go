package model

import "time"

// Tag labels recipes (breakfast, lunch, ...). Tags are managed from the CLI.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"` // "#RRGGBB"
	Slug  string `json:"slug"`
}

// Ingredient is a catalog entry. Name alone is not unique: "salt" may exist
// both in grams and in pinches.
type Ingredient struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"measurement_unit"`
}

// IngredientLine is one (ingredient, amount) pair as submitted by a client.
type IngredientLine struct {
	IngredientID string `json:"id"`
	Amount       int    `json:"amount"`
}

// RecipeIngredient is a persisted line joined with its catalog entry.
type RecipeIngredient struct {
	IngredientID string `json:"id"`
	Name         string `json:"name"`
	Unit         string `json:"measurement_unit"`
	Amount       int    `json:"amount"`
}

// Recipe is the full read model of a recipe.
type Recipe struct {
	ID          string             `json:"id"`
	AuthorID    string             `json:"-"`
	Author      *UserProfile       `json:"author,omitempty"`
	Name        string             `json:"name"`
	Text        string             `json:"text"`
	Image       string             `json:"image"`
	CookingTime int                `json:"cooking_time"`
	Tags        []Tag              `json:"tags"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	CreatedAt   time.Time          `json:"-"`

	IsFavorited      bool `json:"is_favorited"`
	IsInShoppingCart bool `json:"is_in_shopping_cart"`
}

// RecipeDraft is the write model used for create and replace-all update.
type RecipeDraft struct {
	Name        string
	Text        string
	Image       string
	CookingTime int
	TagIDs      []string
	Ingredients []IngredientLine
}

// RecipeSummary is the short form shown in favourites, carts and subscriptions.
type RecipeSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// Summary returns the short form of r.
func (r *Recipe) Summary() RecipeSummary {
	return RecipeSummary{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}
