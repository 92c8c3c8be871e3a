package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var (
	_ repository.TagRepository        = (*DB)(nil)
	_ repository.IngredientRepository = (*DB)(nil)
)

// CreateTag inserts a tag. Name and slug are unique.
func (db *DB) CreateTag(ctx context.Context, tag *model.Tag) error {
	tag.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tags (id, name, color, slug) VALUES (?, ?, ?, ?)`,
		tag.ID, tag.Name, tag.Color, tag.Slug,
	)
	if err != nil {
		if isConstraint(err, constraintUnique) {
			if containsColumn(err, "tags.slug") {
				return apperror.AlreadyExists("tag", "slug", tag.Slug)
			}
			return apperror.AlreadyExists("tag", "name", tag.Name)
		}
		return fmt.Errorf("sqlite: inserting tag %s: %w", tag.Slug, err)
	}
	return nil
}

func (db *DB) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	var t model.Tag
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, color, slug FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Color, &t.Slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("tag", id)
		}
		return nil, fmt.Errorf("sqlite: getting tag %s: %w", id, err)
	}
	return &t, nil
}

func (db *DB) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, color, slug FROM tags ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}
	return tags, nil
}

// GetOrCreateIngredient relies on the (name, measurement_unit) UNIQUE
// constraint, so concurrent imports of the same row cannot both insert.
func (db *DB) GetOrCreateIngredient(ctx context.Context, ing *model.Ingredient) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO ingredients (id, name, measurement_unit, name_lower) VALUES (?, ?, ?, ?)
		 ON CONFLICT (name, measurement_unit) DO NOTHING`,
		xid.New().String(), ing.Name, ing.Unit, strings.ToLower(ing.Name),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: inserting ingredient %q: %w", ing.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT id FROM ingredients WHERE name = ? AND measurement_unit = ?`,
		ing.Name, ing.Unit,
	).Scan(&ing.ID)
	if err != nil {
		return false, fmt.Errorf("sqlite: reading back ingredient %q: %w", ing.Name, err)
	}
	return n == 1, nil
}

func (db *DB) GetIngredient(ctx context.Context, id string) (*model.Ingredient, error) {
	var i model.Ingredient
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = ?`, id,
	).Scan(&i.ID, &i.Name, &i.Unit)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("ingredient", id)
		}
		return nil, fmt.Errorf("sqlite: getting ingredient %s: %w", id, err)
	}
	return &i, nil
}

// SearchIngredients returns entries whose name starts with namePrefix, ignoring
// case. SQLite's own LIKE folds ASCII only, so the match runs against
// name_lower, which is lowered in Go when the ingredient is stored.
func (db *DB) SearchIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients
		 WHERE name_lower LIKE ? ESCAPE '\'
		 ORDER BY name, measurement_unit`,
		escapeLike(strings.ToLower(namePrefix))+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching ingredients: %w", err)
	}
	defer rows.Close()

	out := []model.Ingredient{}
	for rows.Next() {
		var i model.Ingredient
		if err := rows.Scan(&i.ID, &i.Name, &i.Unit); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ingredient row: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ingredients: %w", err)
	}
	return out, nil
}

func (db *DB) ExistingIngredients(ctx context.Context, ids []string) (map[string]bool, error) {
	return db.existing(ctx, "ingredients", ids)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
