// Package companystore persists the list of configured companies in a local
// SQLite database. At most one company is active at a time; the active one is
// the default target for remote operations.
package companystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tablekit/remotectl/model"
)

// ErrNotFound is returned when a company id does not exist in the store.
var ErrNotFound = errors.New("companystore: company not found")

// ErrNoActive is returned by Active when no company is marked active.
var ErrNoActive = errors.New("companystore: no active company")

// ErrDuplicateName is returned when adding a company whose name is taken.
var ErrDuplicateName = errors.New("companystore: company name already exists")

// Store is a SQLite-backed company registry. Safe for concurrent use; the
// underlying *sql.DB serializes access.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path. Parent directories are
// created automatically.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("companystore: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("companystore: open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys=ON;`,
		`CREATE TABLE IF NOT EXISTS companies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			url TEXT NOT NULL,
			secret TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("companystore: init schema: %w", err)
		}
	}
	return nil
}

// Add inserts a new company. The first company added becomes active.
func (s *Store) Add(ctx context.Context, c model.Company) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("companystore: begin: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&count); err != nil {
		return fmt.Errorf("companystore: count: %w", err)
	}
	active := 0
	if count == 0 {
		active = 1
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO companies (id, name, url, secret, is_active) VALUES (?, ?, ?, ?, ?)`,
		c.ID.String(), c.Name, c.URL, c.Secret, active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("companystore: insert: %w", err)
	}

	return tx.Commit()
}

// Update rewrites a company's name, url, and secret. The active flag is not
// touched; use SetActive for that.
func (s *Store) Update(ctx context.Context, c model.Company) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET name = ?, url = ?, secret = ? WHERE id = ?`,
		c.Name, c.URL, c.Secret, c.ID.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("companystore: update: %w", err)
	}
	return checkAffected(res)
}

// Delete removes a company. Deleting the active company leaves no company
// active.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("companystore: delete: %w", err)
	}
	return checkAffected(res)
}

// List returns all companies ordered by name.
func (s *Store) List(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, url, secret, is_active FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("companystore: list: %w", err)
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("companystore: list: %w", err)
	}
	return out, nil
}

// Get returns one company by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, url, secret, is_active FROM companies WHERE id = ?`, id.String())
	return scanCompanyRow(row)
}

// GetByName returns one company by its unique name.
func (s *Store) GetByName(ctx context.Context, name string) (model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, url, secret, is_active FROM companies WHERE name = ?`, name)
	return scanCompanyRow(row)
}

// SetActive marks one company active and clears the flag on all others. The
// two statements run in one transaction so there is never more than one
// active row.
func (s *Store) SetActive(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("companystore: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE companies SET is_active = 1 WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("companystore: set active: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE companies SET is_active = 0 WHERE id != ?`, id.String()); err != nil {
		return fmt.Errorf("companystore: clear active: %w", err)
	}

	return tx.Commit()
}

// Active returns the currently active company, or ErrNoActive.
func (s *Store) Active(ctx context.Context) (model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, url, secret, is_active FROM companies WHERE is_active = 1`)
	c, err := scanCompanyRow(row)
	if errors.Is(err, ErrNotFound) {
		return model.Company{}, ErrNoActive
	}
	return c, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (model.Company, error) {
	var (
		c      model.Company
		rawID  string
		active int
	)
	if err := row.Scan(&rawID, &c.Name, &c.URL, &c.Secret, &active); err != nil {
		return model.Company{}, fmt.Errorf("companystore: scan: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return model.Company{}, fmt.Errorf("companystore: corrupt id %q: %w", rawID, err)
	}
	c.ID = id
	c.IsActive = active != 0
	return c, nil
}

func scanCompanyRow(row *sql.Row) (model.Company, error) {
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Company{}, ErrNotFound
	}
	return c, err
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("companystore: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite surfaces these as plain errors with the SQLite message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE")
}
