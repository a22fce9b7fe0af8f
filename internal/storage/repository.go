// Package storage persists expense records in SQLite for the reference
// API service.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tally/internal/core"
)

// ErrNotFound is returned when no expense matches the requested id.
var ErrNotFound = errors.New("expense not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
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

// Create assigns a fresh id and stores the record.
func (r *SQLiteRepository) Create(ctx context.Context, rec core.Record) (core.Record, error) {
	rec.ID = uuid.NewString()
	rec.Category = core.NormalizeCategory(string(rec.Category))
	if err := rec.Validate(); err != nil {
		return core.Record{}, fmt.Errorf("validate record: %w", err)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, amount_cents, category, spent_on, notes) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Amount.Cents, string(rec.Category), rec.Date.ISO(), rec.Notes)
	if err != nil {
		return core.Record{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", rec.ID,
		"category", rec.Category,
		"amount_cents", rec.Amount.Cents,
		"spent_on", rec.Date.ISO())

	return rec, nil
}

// Update replaces the stored record under the given id.
func (r *SQLiteRepository) Update(ctx context.Context, rec core.Record) (core.Record, error) {
	rec.Category = core.NormalizeCategory(string(rec.Category))
	if err := rec.Validate(); err != nil {
		return core.Record{}, fmt.Errorf("validate record: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET amount_cents = ?, category = ?, spent_on = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		rec.Amount.Cents, string(rec.Category), rec.Date.ISO(), rec.Notes, rec.ID)
	if err != nil {
		return core.Record{}, fmt.Errorf("update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Record{}, ErrNotFound
	}

	return rec, nil
}

// Delete removes the record. Deleting an unknown id is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.DebugContext(ctx, "Delete of unknown expense ignored", "id", id)
	}
	return nil
}

// Get retrieves a single expense by id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, amount_cents, category, spent_on, notes FROM expenses WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get expense: %w", err)
	}
	return rec, nil
}

// List returns all expenses, most recent purchase first.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, category, spent_on, notes FROM expenses ORDER BY spent_on DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.Record, error) {
	var (
		rec      core.Record
		category string
		spentOn  string
	)
	if err := row.Scan(&rec.ID, &rec.Amount.Cents, &category, &spentOn, &rec.Notes); err != nil {
		return core.Record{}, err
	}

	rec.Category = core.NormalizeCategory(category)
	date, err := core.ParseDate(spentOn)
	if err != nil {
		return core.Record{}, fmt.Errorf("parse stored date %q: %w", spentOn, err)
	}
	rec.Date = date

	return rec, nil
}
