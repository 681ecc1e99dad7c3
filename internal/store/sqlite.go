package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/seantiz/benchd/internal/model"

	_ "modernc.org/sqlite"
)

const createEnginesTable = `
CREATE TABLE IF NOT EXISTS engines (
    name       TEXT PRIMARY KEY,
    addr       TEXT NOT NULL,
    timeout_s  INTEGER NOT NULL,
    created_at DATETIME NOT NULL
)`

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(createEnginesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create engines table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateEngine registers a new engine endpoint.
func (s *SQLiteStore) CreateEngine(ctx context.Context, e *model.Engine) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO engines (name, addr, timeout_s, created_at) VALUES (?, ?, ?, ?)",
		e.Name, e.Addr, e.TimeoutS, e.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrExists
		}
		return fmt.Errorf("insert engine: %w", err)
	}
	return nil
}

// GetEngine retrieves a registered engine by name.
func (s *SQLiteStore) GetEngine(ctx context.Context, name string) (*model.Engine, error) {
	e := &model.Engine{}
	err := s.db.QueryRowContext(ctx,
		"SELECT name, addr, timeout_s, created_at FROM engines WHERE name = ?", name,
	).Scan(&e.Name, &e.Addr, &e.TimeoutS, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get engine: %w", err)
	}
	return e, nil
}

// ListEngines returns all registered engines ordered by name for a stable
// API response.
func (s *SQLiteStore) ListEngines(ctx context.Context) ([]*model.Engine, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, addr, timeout_s, created_at FROM engines ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list engines: %w", err)
	}
	defer rows.Close()

	var engines []*model.Engine
	for rows.Next() {
		e := &model.Engine{}
		if err := rows.Scan(&e.Name, &e.Addr, &e.TimeoutS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan engine: %w", err)
		}
		engines = append(engines, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate engines: %w", err)
	}

	return engines, nil
}

// DeleteEngine removes a registered engine by name.
func (s *SQLiteStore) DeleteEngine(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM engines WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete engine: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
