package policy

import (
	"fmt"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
)

// Accepted ranges for cooking time, in minutes, and ingredient amounts. The
// upper bounds keep sums over a shopping cart well inside int range.
const (
	MinCookingTime = 1
	MaxCookingTime = 32767
	MinAmount      = 1
	MaxAmount      = 32767
)

// Range messages, shared with the storage constraint mapping.
var (
	CookingTimeMessage = fmt.Sprintf("cooking time must be between %d and %d minutes", MinCookingTime, MaxCookingTime)
	AmountMessage      = fmt.Sprintf("ingredient amount must be between %d and %d", MinAmount, MaxAmount)
)

// Composition is the part of a recipe submission whose consistency is
// checked before the replace-all write.
type Composition struct {
	CookingTime int
	TagIDs      []string
	Ingredients []model.IngredientLine
}

// CompositionOf extracts the checked fields from a draft.
func CompositionOf(d model.RecipeDraft) Composition {
	return Composition{
		CookingTime: d.CookingTime,
		TagIDs:      d.TagIDs,
		Ingredients: d.Ingredients,
	}
}

// ValidateComposition runs every rule independently and returns all
// violations found, in a fixed order. Each reason appears at most once.
// known holds the catalog IDs among the submitted ingredient IDs.
func ValidateComposition(c Composition, known map[string]bool) []apperror.Violation {
	var out []apperror.Violation

	if c.CookingTime < MinCookingTime || c.CookingTime > MaxCookingTime {
		out = append(out, apperror.Violation{
			Code:    apperror.CodeInvalidCookingTime,
			Field:   "cooking_time",
			Message: CookingTimeMessage,
		})
	}

	if len(c.TagIDs) == 0 {
		out = append(out, apperror.Violation{
			Code:    apperror.CodeMissingTags,
			Field:   "tags",
			Message: "at least one tag is required",
		})
	} else if dup := firstDuplicate(c.TagIDs); dup != "" {
		out = append(out, apperror.Violation{
			Code:    apperror.CodeDuplicateTag,
			Field:   "tags",
			Message: fmt.Sprintf("tag %s is listed more than once", dup),
		})
	}

	if len(c.Ingredients) == 0 {
		out = append(out, apperror.Violation{
			Code:    apperror.CodeMissingIngredients,
			Field:   "ingredients",
			Message: "at least one ingredient is required",
		})
		return out
	}

	ids := make([]string, len(c.Ingredients))
	var unknown []string
	badAmount := false
	for i, line := range c.Ingredients {
		ids[i] = line.IngredientID
		if !known[line.IngredientID] {
			unknown = append(unknown, line.IngredientID)
		}
		if line.Amount < MinAmount || line.Amount > MaxAmount {
			badAmount = true
		}
	}

	if len(unknown) > 0 {
		out = append(out, apperror.Violation{
			Code:    apperror.CodeUnknownIngredient,
			Field:   "ingredients",
			Message: "unknown ingredient: " + strings.Join(unknown, ", "),
		})
	}
	if dup := firstDuplicate(ids); dup != "" {
		out = append(out, apperror.Violation{
			Code:    apperror.CodeDuplicateIngredient,
			Field:   "ingredients",
			Message: fmt.Sprintf("ingredient %s is listed more than once", dup),
		})
	}
	if badAmount {
		out = append(out, apperror.Violation{
			Code:    apperror.CodeInvalidAmount,
			Field:   "ingredients",
			Message: AmountMessage,
		})
	}

	return out
}

// CheckComposition is ValidateComposition folded into a single error.
func CheckComposition(c Composition, known map[string]bool) error {
	if v := ValidateComposition(c, known); len(v) > 0 {
		return apperror.Rejected(v)
	}
	return nil
}

func firstDuplicate(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
	}
	return ""
}
