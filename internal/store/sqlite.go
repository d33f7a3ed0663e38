package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS history_entries (
  position    INTEGER PRIMARY KEY,
  id          TEXT    NOT NULL,
  date        TEXT    NOT NULL,
  city        TEXT    NOT NULL,
  temperature REAL    NOT NULL,
  condition   TEXT    NOT NULL
);
`

// SQLiteStore keeps the history in one table; position preserves insertion order.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// a single connection keeps ":memory:" databases coherent
	db.SetMaxOpenConns(1)

	s, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore uses an existing handle and ensures the schema exists.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]weather.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, city, temperature, condition FROM history_entries ORDER BY position`)
	if err != nil {
		return nil, &StorageError{Op: "load", Backend: "sqlite", Err: err}
	}
	defer rows.Close()

	var entries []weather.HistoryEntry
	for rows.Next() {
		var (
			e    weather.HistoryEntry
			date string
			cond string
		)
		if err := rows.Scan(&e.ID, &date, &e.City, &e.Temperature, &cond); err != nil {
			return nil, &StorageError{Op: "load", Backend: "sqlite", Err: err}
		}
		ts, err := time.Parse(time.RFC3339Nano, date)
		if err != nil {
			return nil, &StorageError{Op: "load", Backend: "sqlite", Err: err}
		}
		e.Date = ts
		e.Condition = weather.Condition(cond)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "load", Backend: "sqlite", Err: err}
	}
	return entries, nil
}

// Save replaces all rows in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, entries []weather.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "save", Backend: "sqlite", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history_entries`); err != nil {
		return &StorageError{Op: "save", Backend: "sqlite", Err: err}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO history_entries (position, id, date, city, temperature, condition) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return &StorageError{Op: "save", Backend: "sqlite", Err: err}
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, i, e.ID, e.Date.UTC().Format(time.RFC3339Nano), e.City, e.Temperature, string(e.Condition)); err != nil {
			return &StorageError{Op: "save", Backend: "sqlite", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "save", Backend: "sqlite", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
