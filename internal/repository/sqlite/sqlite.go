// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary builds
// without cgo. Use ":memory:" for a throwaway database in tests.
//
// Uniqueness of relations and recipe lines is enforced here with UNIQUE and
// CHECK constraints. The service layer pre-checks the same rules, but only the
// constraints are safe against two concurrent requests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// Foreign keys are enabled through the DSN so every pooled connection gets
// them, not only the first one.
func New(dbPath string) (*DB, error) {
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write transaction is open.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. Every statement is idempotent.
func (db *DB) migrate() error {
	steps := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				email         TEXT UNIQUE,
				username      TEXT NOT NULL UNIQUE,
				first_name    TEXT NOT NULL DEFAULT '',
				last_name     TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL DEFAULT '',
				github_id     INTEGER UNIQUE,
				is_staff      INTEGER NOT NULL DEFAULT 0,
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
		{"tags", `
			CREATE TABLE IF NOT EXISTS tags (
				id    TEXT PRIMARY KEY,
				name  TEXT NOT NULL UNIQUE,
				color TEXT NOT NULL,
				slug  TEXT NOT NULL UNIQUE
			);`},
		{"ingredients", `
			CREATE TABLE IF NOT EXISTS ingredients (
				id               TEXT PRIMARY KEY,
				name             TEXT NOT NULL,
				measurement_unit TEXT NOT NULL,
				name_lower       TEXT NOT NULL DEFAULT '',
				UNIQUE (name, measurement_unit)
			);
			CREATE INDEX IF NOT EXISTS idx_ingredients_name ON ingredients(name);
			CREATE INDEX IF NOT EXISTS idx_ingredients_name_lower ON ingredients(name_lower);`},
		{"recipes", `
			CREATE TABLE IF NOT EXISTS recipes (
				id           TEXT PRIMARY KEY,
				author_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				name         TEXT NOT NULL,
				text         TEXT NOT NULL DEFAULT '',
				image        TEXT NOT NULL DEFAULT '',
				cooking_time INTEGER NOT NULL CHECK (cooking_time BETWEEN 1 AND 32767),
				created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_recipes_author_id ON recipes(author_id);
			CREATE INDEX IF NOT EXISTS idx_recipes_created_at ON recipes(created_at);`},
		{"recipe_ingredients", `
			CREATE TABLE IF NOT EXISTS recipe_ingredients (
				recipe_id     TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				ingredient_id TEXT NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
				amount        INTEGER NOT NULL CHECK (amount BETWEEN 1 AND 32767),
				position      INTEGER NOT NULL,
				UNIQUE (recipe_id, ingredient_id)
			);`},
		{"recipe_tags", `
			CREATE TABLE IF NOT EXISTS recipe_tags (
				recipe_id TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				tag_id    TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
				PRIMARY KEY (recipe_id, tag_id)
			);`},
		{"follows", `
			CREATE TABLE IF NOT EXISTS follows (
				follower_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				followed_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (follower_id, followed_id),
				CHECK (follower_id <> followed_id)
			);`},
		{"favourites", `
			CREATE TABLE IF NOT EXISTS favourites (
				user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				recipe_id  TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (user_id, recipe_id)
			);`},
		{"purchases", `
			CREATE TABLE IF NOT EXISTS purchases (
				user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				recipe_id  TEXT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (user_id, recipe_id)
			);`},
	}

	for _, step := range steps {
		if _, err := db.conn.Exec(step.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", step.name, err)
		}
	}
	return nil
}

// inTx runs fn inside a transaction, committing on success and rolling back
// on error. Readers never observe a half-applied fn.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// constraint kinds as they appear in SQLite's error text
const (
	constraintUnique     = "UNIQUE"
	constraintPrimaryKey = "PRIMARY KEY"
	constraintForeignKey = "FOREIGN KEY"
	constraintCheck      = "CHECK"
)

// isConstraint reports whether err is a SQLite constraint violation of the
// given kind. The primary result code is compared so it works whether or not
// extended result codes are enabled.
func isConstraint(err error, kind string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), kind)
}

// containsColumn reports whether a constraint error names table.column.
func containsColumn(err error, column string) bool {
	return strings.Contains(err.Error(), column)
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// existing returns which of ids are present in table.id.
func (db *DB) existing(ctx context.Context, table string, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE id IN (%s)`, table, placeholders(len(ids))),
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking %s ids: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s id: %w", table, err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s ids: %w", table, err)
	}
	return found, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// page applies the default and maximum page size and floors the offset at 0.
func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
