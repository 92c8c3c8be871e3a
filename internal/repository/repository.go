// Package repository declares the storage capabilities the services depend on.
// internal/repository/sqlite is the production implementation; service tests
// use in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/foodgram/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// RecipeFilter narrows ListRecipes. ViewerID is required for the
// favourite/cart filters and for the is_* flags on the results.
type RecipeFilter struct {
	ListOptions
	AuthorID      string
	TagSlugs      []string
	ViewerID      string
	OnlyFavorited bool
	OnlyInCart    bool
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	ListUsers(ctx context.Context, opts ListOptions) ([]model.User, error)
}

type TagRepository interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	GetTag(ctx context.Context, id string) (*model.Tag, error)
	ListTags(ctx context.Context) ([]model.Tag, error)
}

type IngredientRepository interface {
	// GetOrCreateIngredient returns the existing entry with the same name and
	// unit, or inserts a new one. created reports which happened.
	GetOrCreateIngredient(ctx context.Context, ing *model.Ingredient) (created bool, err error)
	GetIngredient(ctx context.Context, id string) (*model.Ingredient, error)
	SearchIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error)
	// ExistingIngredients returns the subset of ids present in the catalog.
	ExistingIngredients(ctx context.Context, ids []string) (map[string]bool, error)
}

type RecipeRepository interface {
	// CreateRecipe inserts the recipe with its lines and tags in one transaction.
	CreateRecipe(ctx context.Context, authorID string, draft model.RecipeDraft) (*model.Recipe, error)
	// ReplaceRecipe overwrites the recipe's fields and swaps its lines and tags
	// for the draft's in one transaction.
	ReplaceRecipe(ctx context.Context, id string, draft model.RecipeDraft) error
	GetRecipe(ctx context.Context, id, viewerID string) (*model.Recipe, error)
	ListRecipes(ctx context.Context, filter RecipeFilter) ([]model.Recipe, error)
	CountRecipesByAuthor(ctx context.Context, authorID string) (int, error)
	DeleteRecipe(ctx context.Context, id string) error
	// ExistingTags returns the subset of ids present in the catalog.
	ExistingTags(ctx context.Context, ids []string) (map[string]bool, error)
}

type RelationRepository interface {
	RelationExists(ctx context.Context, rel model.Relation) (bool, error)
	// CreateRelation inserts rel. A storage-level UNIQUE violation is
	// returned as apperror DuplicateRelation.
	CreateRelation(ctx context.Context, rel model.Relation) error
	// DeleteRelation removes rel, returning apperror RelationNotFound when
	// nothing was deleted.
	DeleteRelation(ctx context.Context, rel model.Relation) error
	ListFollowedIDs(ctx context.Context, followerID string, opts ListOptions) ([]string, error)
}

type CartRepository interface {
	// CartLines returns every ingredient line of every recipe in the user's cart.
	CartLines(ctx context.Context, userID string) ([]model.CartLine, error)
}
