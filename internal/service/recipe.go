package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/metrics"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/policy"
	"github.com/sakif/foodgram/internal/repository"
	"github.com/sakif/foodgram/internal/validation"
)

// RecipeService validates and stores recipes.
type RecipeService struct {
	recipes     repository.RecipeRepository
	ingredients repository.IngredientRepository
	users       repository.UserRepository
	logger      *slog.Logger
}

func NewRecipeService(
	recipes repository.RecipeRepository,
	ingredients repository.IngredientRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		ingredients: ingredients,
		users:       users,
		logger:      logger,
	}
}

// recipeFields carries the struct-tag rules of a draft.
type recipeFields struct {
	Name string `json:"name" validate:"required,max=200"`
	Text string `json:"text" validate:"required"`
}

// check collects every problem with draft into one rejection: field shape
// first, then composition in its fixed order, then unknown tags.
func (s *RecipeService) check(ctx context.Context, draft model.RecipeDraft) error {
	var violations []apperror.Violation

	if err := validation.ValidateStruct(&recipeFields{Name: draft.Name, Text: draft.Text}); err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			return err
		}
		violations = append(violations, appErr.Violations...)
	}

	ids := make([]string, len(draft.Ingredients))
	for i, line := range draft.Ingredients {
		ids[i] = line.IngredientID
	}
	known, err := s.ingredients.ExistingIngredients(ctx, ids)
	if err != nil {
		return fmt.Errorf("service/recipe: looking up ingredients: %w", err)
	}
	violations = append(violations, policy.ValidateComposition(policy.CompositionOf(draft), known)...)

	if len(draft.TagIDs) > 0 {
		knownTags, err := s.recipes.ExistingTags(ctx, draft.TagIDs)
		if err != nil {
			return fmt.Errorf("service/recipe: looking up tags: %w", err)
		}
		var unknown []string
		for _, id := range draft.TagIDs {
			if !knownTags[id] {
				unknown = append(unknown, id)
			}
		}
		if len(unknown) > 0 {
			violations = append(violations, apperror.Violation{
				Code:    apperror.CodeUnknownTag,
				Field:   "tags",
				Message: "unknown tag: " + strings.Join(unknown, ", "),
			})
		}
	}

	if len(violations) > 0 {
		return apperror.Rejected(violations)
	}
	return nil
}

func normalize(draft model.RecipeDraft) model.RecipeDraft {
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Text = strings.TrimSpace(draft.Text)
	return draft
}

// Create stores a new recipe by authorID and returns it as the author sees it.
func (s *RecipeService) Create(ctx context.Context, authorID string, draft model.RecipeDraft) (*model.Recipe, error) {
	draft = normalize(draft)
	if err := s.check(ctx, draft); err != nil {
		return nil, err
	}

	recipe, err := s.recipes.CreateRecipe(ctx, authorID, draft)
	if err != nil {
		if !isRejection(err) {
			s.logger.Error("failed to create recipe",
				slog.String("author", authorID),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("service/recipe: creating: %w", err)
	}

	metrics.RecordRecipeWrite("create")
	s.logger.Info("recipe created",
		slog.String("id", recipe.ID),
		slog.String("author", authorID),
	)
	return recipe, nil
}

// Update replaces every field, tag and ingredient line of recipe id. Only
// the author or a staff user may do this. An empty image keeps the stored one.
func (s *RecipeService) Update(ctx context.Context, userID, id string, draft model.RecipeDraft) (*model.Recipe, error) {
	existing, err := s.recipes.GetRecipe(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("service/recipe: %w", err)
	}
	if err := s.authorize(ctx, userID, existing); err != nil {
		return nil, err
	}

	draft = normalize(draft)
	if err := s.check(ctx, draft); err != nil {
		return nil, err
	}

	if err := s.recipes.ReplaceRecipe(ctx, id, draft); err != nil {
		if !isRejection(err) {
			s.logger.Error("failed to update recipe",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("service/recipe: updating %s: %w", id, err)
	}

	metrics.RecordRecipeWrite("update")
	s.logger.Info("recipe updated", slog.String("id", id), slog.String("by", userID))
	return s.Get(ctx, id, userID)
}

// Delete removes recipe id with its lines, tags, favourites and cart entries.
func (s *RecipeService) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.recipes.GetRecipe(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("service/recipe: %w", err)
	}
	if err := s.authorize(ctx, userID, existing); err != nil {
		return err
	}

	if err := s.recipes.DeleteRecipe(ctx, id); err != nil {
		return fmt.Errorf("service/recipe: deleting %s: %w", id, err)
	}

	metrics.RecordRecipeWrite("delete")
	s.logger.Info("recipe deleted", slog.String("id", id), slog.String("by", userID))
	return nil
}

// Get returns recipe id with the flags computed for viewerID.
func (s *RecipeService) Get(ctx context.Context, id, viewerID string) (*model.Recipe, error) {
	recipe, err := s.recipes.GetRecipe(ctx, id, viewerID)
	if err != nil {
		return nil, fmt.Errorf("service/recipe: %w", err)
	}
	return recipe, nil
}

// List returns recipes newest first. The favourite and cart filters match
// nothing for an anonymous viewer.
func (s *RecipeService) List(ctx context.Context, filter repository.RecipeFilter) ([]model.Recipe, error) {
	if filter.ViewerID == "" && (filter.OnlyFavorited || filter.OnlyInCart) {
		return []model.Recipe{}, nil
	}

	recipes, err := s.recipes.ListRecipes(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list recipes", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/recipe: listing: %w", err)
	}
	return recipes, nil
}

func (s *RecipeService) authorize(ctx context.Context, userID string, recipe *model.Recipe) error {
	if userID != "" && recipe.AuthorID == userID {
		return nil
	}
	if userID != "" {
		user, err := s.users.GetUserByID(ctx, userID)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return fmt.Errorf("service/recipe: fetching user %s: %w", userID, err)
		}
		if err == nil && user.IsStaff {
			return nil
		}
	}
	return apperror.Forbidden("only the author can change this recipe")
}

// isRejection reports whether err is a caller-facing rejection rather than a
// storage failure.
func isRejection(err error) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr)
}
