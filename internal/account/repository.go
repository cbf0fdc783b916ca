package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	organization  TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'user',
	account_type  TEXT NOT NULL,
	password_hash BLOB NOT NULL,
	password_salt BLOB NOT NULL,
	verified      INTEGER NOT NULL DEFAULT 0,
	details       TEXT NOT NULL DEFAULT '{}',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_accounts_type ON accounts(account_type);
`

// errNoRow is returned by the repository when a lookup misses.
var errNoRow = errors.New("account: no such account")

// record is one row of the accounts table.
type record struct {
	User
	Hash    []byte
	Salt    []byte
	Details string
}

// Repository stores accounts in a SQLite database.
type Repository struct {
	db *sql.DB
}

// OpenRepository opens (and migrates) the database at path. ":memory:" is
// accepted for tests.
func OpenRepository(path string) (*Repository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("account: ensure db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("account: open %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("account: migrate: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Count returns the number of stored accounts.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("account: count: %w", err)
	}
	return n, nil
}

func (r *Repository) insert(ctx context.Context, rec record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, name, organization, role, account_type,
			password_hash, password_salt, verified, details, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, normalizeEmail(rec.Email), rec.Name, rec.Organization, rec.Role, rec.AccountType,
		rec.Hash, rec.Salt, boolToInt(rec.Verified), rec.Details,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano), rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("account: insert: %w", err)
	}
	return nil
}

func (r *Repository) delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("account: delete: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errNoRow
	}
	return nil
}

func (r *Repository) byEmail(ctx context.Context, email string) (record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, organization, role, account_type,
			password_hash, password_salt, verified, details, created_at, updated_at
		FROM accounts WHERE email = ?`, normalizeEmail(email))
	var (
		rec      record
		verified int
		created  string
		updated  string
	)
	err := row.Scan(&rec.ID, &rec.Email, &rec.Name, &rec.Organization, &rec.Role, &rec.AccountType,
		&rec.Hash, &rec.Salt, &verified, &rec.Details, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record{}, errNoRow
		}
		return record{}, fmt.Errorf("account: lookup: %w", err)
	}
	rec.Verified = verified != 0
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return rec, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
