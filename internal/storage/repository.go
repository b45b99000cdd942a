// Package storage is the SQLite store behind the services: categories,
// expenses, incomes and budgets, plus the grouped sums the budget alerts are
// computed from.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"ems/internal/core"
)

// errUniqueViolation marks a failed insert or update on a unique index.
var errUniqueViolation = errors.New("unique constraint violation")

type SQLiteRepository struct {
	db *sql.DB
}

// DSN builds the modernc.org/sqlite connection string for dbPath with foreign
// keys on, a busy timeout and WAL journaling.
func DSN(dbPath string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + dbPath + "?" + q.Encode()
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// brings its schema up to date.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection; used by the health endpoint.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func recordTable(kind core.CategoryType) (string, error) {
	switch kind {
	case core.CategoryExpense:
		return "expenses", nil
	case core.CategoryIncome:
		return "incomes", nil
	default:
		return "", core.ErrInvalidCategoryType
	}
}

// classify maps driver errors onto the sentinel errors callers test for.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("%w: %v", errUniqueViolation, err)
	}
	return err
}

// expectOne turns a zero-row UPDATE or DELETE into NotFound.
func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.NotFoundf("%s not found", what)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
