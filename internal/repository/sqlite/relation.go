package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var (
	_ repository.RelationRepository = (*DB)(nil)
	_ repository.CartRepository     = (*DB)(nil)
)

// relationTable maps a relation kind onto its join table.
type relationTable struct {
	name    string
	subject string
	object  string
	target  string // resource named in not-found errors for the object side
}

var relationTables = map[model.RelationKind]relationTable{
	model.Follow:    {name: "follows", subject: "follower_id", object: "followed_id", target: "user"},
	model.Favourite: {name: "favourites", subject: "user_id", object: "recipe_id", target: "recipe"},
	model.Purchase:  {name: "purchases", subject: "user_id", object: "recipe_id", target: "recipe"},
}

func tableFor(kind model.RelationKind) (relationTable, error) {
	t, ok := relationTables[kind]
	if !ok {
		return relationTable{}, apperror.ValidationFailed("kind", "unknown relation kind "+string(kind))
	}
	return t, nil
}

func (db *DB) RelationExists(ctx context.Context, rel model.Relation) (bool, error) {
	t, err := tableFor(rel.Kind)
	if err != nil {
		return false, err
	}

	var exists bool
	err = db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = ? AND %s = ?)`, t.name, t.subject, t.object),
		rel.SubjectID, rel.ObjectID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking %s: %w", t.name, err)
	}
	return exists, nil
}

// CreateRelation inserts rel. The table constraints decide the outcome when
// two requests race past the service pre-check.
func (db *DB) CreateRelation(ctx context.Context, rel model.Relation) error {
	t, err := tableFor(rel.Kind)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES (?, ?)`, t.name, t.subject, t.object),
		rel.SubjectID, rel.ObjectID,
	)
	if err != nil {
		switch {
		case isConstraint(err, constraintUnique):
			return apperror.DuplicateRelation(rel.Kind.Label())
		case isConstraint(err, constraintCheck):
			return apperror.SelfReference(rel.Kind.Label())
		case isConstraint(err, constraintForeignKey):
			return apperror.NotFound(t.target, rel.ObjectID)
		}
		return fmt.Errorf("sqlite: inserting into %s: %w", t.name, err)
	}
	return nil
}

func (db *DB) DeleteRelation(ctx context.Context, rel model.Relation) error {
	t, err := tableFor(rel.Kind)
	if err != nil {
		return err
	}

	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`, t.name, t.subject, t.object),
		rel.SubjectID, rel.ObjectID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting from %s: %w", t.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.RelationNotFound(rel.Kind.Label())
	}
	return nil
}

// ListFollowedIDs returns the authors followerID follows, oldest
// subscription first.
func (db *DB) ListFollowedIDs(ctx context.Context, followerID string, opts repository.ListOptions) ([]string, error) {
	limit, offset := page(opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT followed_id FROM follows
		 WHERE follower_id = ?
		 ORDER BY created_at, rowid
		 LIMIT ? OFFSET ?`,
		followerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing follows: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning follow row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating follows: %w", err)
	}
	return ids, nil
}

// CartLines returns the raw lines behind userID's shopping list. Summing is
// left to the shopping package.
func (db *DB) CartLines(ctx context.Context, userID string) ([]model.CartLine, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT ri.recipe_id, i.name, i.measurement_unit, ri.amount
		 FROM purchases p
		 JOIN recipe_ingredients ri ON ri.recipe_id = p.recipe_id
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE p.user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading cart of %s: %w", userID, err)
	}
	defer rows.Close()

	lines := []model.CartLine{}
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.RecipeID, &l.Name, &l.Unit, &l.Amount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating cart lines: %w", err)
	}
	return lines, nil
}
