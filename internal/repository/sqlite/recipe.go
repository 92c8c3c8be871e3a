package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/policy"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.RecipeRepository = (*DB)(nil)

// recipeSelect reads a recipe together with its author and the three
// viewer-dependent flags. The first three arguments are the viewer ID; an
// empty viewer matches no rows, so every flag comes back false.
const recipeSelect = `
	SELECT r.id, r.author_id, r.name, r.text, r.image, r.cooking_time, r.created_at,
	       u.id, COALESCE(u.email, ''), u.username, u.first_name, u.last_name,
	       EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = ? AND f.followed_id = r.author_id),
	       EXISTS (SELECT 1 FROM favourites fv WHERE fv.user_id = ? AND fv.recipe_id = r.id),
	       EXISTS (SELECT 1 FROM purchases p WHERE p.user_id = ? AND p.recipe_id = r.id)
	FROM recipes r
	JOIN users u ON u.id = r.author_id`

func scanRecipe(row interface{ Scan(...any) error }, r *model.Recipe) error {
	author := &model.UserProfile{}
	err := row.Scan(
		&r.ID,
		&r.AuthorID,
		&r.Name,
		&r.Text,
		&r.Image,
		&r.CookingTime,
		&r.CreatedAt,
		&author.ID,
		&author.Email,
		&author.Username,
		&author.FirstName,
		&author.LastName,
		&author.IsSubscribed,
		&r.IsFavorited,
		&r.IsInShoppingCart,
	)
	if err != nil {
		return err
	}
	r.Author = author
	return nil
}

// CreateRecipe writes the recipe row, its ingredient lines and its tags in
// one transaction and returns the stored recipe as seen by its author.
func (db *DB) CreateRecipe(ctx context.Context, authorID string, draft model.RecipeDraft) (*model.Recipe, error) {
	id := xid.New().String()
	now := time.Now()

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (id, author_id, name, text, image, cooking_time, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, authorID, draft.Name, draft.Text, draft.Image, draft.CookingTime, now, now,
		)
		if err != nil {
			switch {
			case isConstraint(err, constraintCheck):
				return cookingTimeRejected()
			case isConstraint(err, constraintForeignKey):
				return apperror.NotFound("user", authorID)
			}
			return fmt.Errorf("sqlite: inserting recipe: %w", err)
		}
		return insertComposition(ctx, tx, id, draft)
	})
	if err != nil {
		return nil, err
	}

	return db.GetRecipe(ctx, id, authorID)
}

// ReplaceRecipe overwrites the scalar fields and swaps the whole ingredient
// and tag sets. An empty draft image keeps the stored one.
func (db *DB) ReplaceRecipe(ctx context.Context, id string, draft model.RecipeDraft) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE recipes
			 SET name = ?, text = ?, image = COALESCE(NULLIF(?, ''), image),
			     cooking_time = ?, updated_at = ?
			 WHERE id = ?`,
			draft.Name, draft.Text, draft.Image, draft.CookingTime, time.Now(), id,
		)
		if err != nil {
			if isConstraint(err, constraintCheck) {
				return cookingTimeRejected()
			}
			return fmt.Errorf("sqlite: updating recipe %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("recipe", id)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: clearing ingredients of recipe %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: clearing tags of recipe %s: %w", id, err)
		}
		return insertComposition(ctx, tx, id, draft)
	})
}

// insertComposition writes the draft's lines and tags. Constraint failures
// are translated to the same violations the policy package produces, so a
// request that slips past the pre-check still gets a meaningful rejection.
func insertComposition(ctx context.Context, tx *sql.Tx, recipeID string, draft model.RecipeDraft) error {
	for i, line := range draft.Ingredients {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount, position)
			 VALUES (?, ?, ?, ?)`,
			recipeID, line.IngredientID, line.Amount, i,
		)
		if err != nil {
			switch {
			case isConstraint(err, constraintUnique):
				return rejected(apperror.CodeDuplicateIngredient, "ingredients",
					fmt.Sprintf("ingredient %s is listed more than once", line.IngredientID))
			case isConstraint(err, constraintForeignKey):
				return rejected(apperror.CodeUnknownIngredient, "ingredients",
					"unknown ingredient: "+line.IngredientID)
			case isConstraint(err, constraintCheck):
				return rejected(apperror.CodeInvalidAmount, "ingredients", policy.AmountMessage)
			}
			return fmt.Errorf("sqlite: inserting ingredient line: %w", err)
		}
	}

	for _, tagID := range draft.TagIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`,
			recipeID, tagID,
		)
		if err != nil {
			switch {
			// SQLite words primary key violations as "UNIQUE constraint failed".
			case isConstraint(err, constraintUnique), isConstraint(err, constraintPrimaryKey):
				return rejected(apperror.CodeDuplicateTag, "tags",
					fmt.Sprintf("tag %s is listed more than once", tagID))
			case isConstraint(err, constraintForeignKey):
				return rejected(apperror.CodeUnknownTag, "tags", "unknown tag: "+tagID)
			}
			return fmt.Errorf("sqlite: inserting recipe tag: %w", err)
		}
	}
	return nil
}

func rejected(code apperror.Code, field, message string) error {
	return apperror.Rejected([]apperror.Violation{{Code: code, Field: field, Message: message}})
}

func cookingTimeRejected() error {
	return rejected(apperror.CodeInvalidCookingTime, "cooking_time", policy.CookingTimeMessage)
}

// GetRecipe returns the recipe with its tags, its ingredients in submission
// order, and the flags for viewerID (empty for anonymous readers).
func (db *DB) GetRecipe(ctx context.Context, id, viewerID string) (*model.Recipe, error) {
	var r model.Recipe
	err := scanRecipe(db.conn.QueryRowContext(ctx,
		recipeSelect+` WHERE r.id = ?`,
		viewerID, viewerID, viewerID, id,
	), &r)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("sqlite: getting recipe %s: %w", id, err)
	}

	recipes := []model.Recipe{r}
	if err := db.loadComposition(ctx, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// ListRecipes returns recipes newest first. Tag slugs match any of the given
// tags; the favourite and cart filters are relative to ViewerID.
func (db *DB) ListRecipes(ctx context.Context, filter repository.RecipeFilter) ([]model.Recipe, error) {
	limit, offset := page(filter.Limit, filter.Offset)

	var (
		where []string
		args  = []any{filter.ViewerID, filter.ViewerID, filter.ViewerID}
	)
	if filter.AuthorID != "" {
		where = append(where, `r.author_id = ?`)
		args = append(args, filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		where = append(where, fmt.Sprintf(
			`r.id IN (SELECT rt.recipe_id FROM recipe_tags rt
			          JOIN tags t ON t.id = rt.tag_id
			          WHERE t.slug IN (%s))`, placeholders(len(filter.TagSlugs))))
		args = append(args, stringArgs(filter.TagSlugs)...)
	}
	if filter.OnlyFavorited {
		where = append(where, `r.id IN (SELECT recipe_id FROM favourites WHERE user_id = ?)`)
		args = append(args, filter.ViewerID)
	}
	if filter.OnlyInCart {
		where = append(where, `r.id IN (SELECT recipe_id FROM purchases WHERE user_id = ?)`)
		args = append(args, filter.ViewerID)
	}

	query := recipeSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes: %w", err)
	}
	defer rows.Close()

	recipes := []model.Recipe{}
	for rows.Next() {
		var r model.Recipe
		if err := scanRecipe(rows, &r); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe row: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipes: %w", err)
	}
	// Release the single :memory: connection before the follow-up queries.
	rows.Close()

	if err := db.loadComposition(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// loadComposition fills Tags and Ingredients for every recipe with one query
// each, rather than two per recipe.
func (db *DB) loadComposition(ctx context.Context, recipes []model.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	index := make(map[string]int, len(recipes))
	ids := make([]string, len(recipes))
	for i := range recipes {
		index[recipes[i].ID] = i
		ids[i] = recipes[i].ID
		recipes[i].Tags = []model.Tag{}
		recipes[i].Ingredients = []model.RecipeIngredient{}
	}

	tagRows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		             FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		             WHERE rt.recipe_id IN (%s)
		             ORDER BY t.name`, placeholders(len(ids))),
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading recipe tags: %w", err)
	}
	for tagRows.Next() {
		var recipeID string
		var t model.Tag
		if err := tagRows.Scan(&recipeID, &t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			tagRows.Close()
			return fmt.Errorf("sqlite: scanning recipe tag: %w", err)
		}
		r := &recipes[index[recipeID]]
		r.Tags = append(r.Tags, t)
	}
	if err := tagRows.Err(); err != nil {
		tagRows.Close()
		return fmt.Errorf("sqlite: iterating recipe tags: %w", err)
	}
	tagRows.Close()

	lineRows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		             FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		             WHERE ri.recipe_id IN (%s)
		             ORDER BY ri.recipe_id, ri.position`, placeholders(len(ids))),
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading recipe ingredients: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var recipeID string
		var ri model.RecipeIngredient
		if err := lineRows.Scan(&recipeID, &ri.IngredientID, &ri.Name, &ri.Unit, &ri.Amount); err != nil {
			return fmt.Errorf("sqlite: scanning recipe ingredient: %w", err)
		}
		r := &recipes[index[recipeID]]
		r.Ingredients = append(r.Ingredients, ri)
	}
	if err := lineRows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating recipe ingredients: %w", err)
	}
	return nil
}

func (db *DB) CountRecipesByAuthor(ctx context.Context, authorID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes WHERE author_id = ?`, authorID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting recipes of %s: %w", authorID, err)
	}
	return n, nil
}

// DeleteRecipe removes the recipe. Lines, tags, favourites and cart entries
// go with it through ON DELETE CASCADE.
func (db *DB) DeleteRecipe(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting recipe %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("recipe", id)
	}
	return nil
}

func (db *DB) ExistingTags(ctx context.Context, ids []string) (map[string]bool, error) {
	return db.existing(ctx, "tags", ids)
}
