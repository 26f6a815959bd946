package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Repository persists the client's only durable state: the auth token.
type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS auth_token (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  token TEXT NOT NULL,
  saved_at TEXT NOT NULL
);
`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CheckWritable fails early when the database file cannot take writes.
func (r *Repository) CheckWritable(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS write_check (id INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("write check: %w", err)
	}
	return nil
}

// LoadToken returns the stored token, or "" when none is stored.
func (r *Repository) LoadToken(ctx context.Context) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx, `SELECT token FROM auth_token WHERE id = 1`).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

func (r *Repository) SaveToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO auth_token (id, token, saved_at)
VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  token=excluded.token,
  saved_at=excluded.saved_at
`, token, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (r *Repository) DeleteToken(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_token WHERE id = 1`); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
