package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/borgmon/nudge/pkg/models"
)

// queryTimeout bounds the key-value calls, which have no caller context.
const queryTimeout = 5 * time.Second

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

// TodoFilter controls filtering for todo queries.
type TodoFilter struct {
	Status *string // "open", "complete", or nil (all)
	Limit  int
}

// SQLStore keeps the key-value table and todos in SQLite or PostgreSQL.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// NewSQLStore opens (or creates) the database for driver ("sqlite" or
// "postgres") and runs any pending schema migrations.
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case models.StorageDriverSQLite:
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
	case models.StorageDriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", driver, err)
	}

	if driver == models.StorageDriverSQLite {
		// One connection: ":memory:" databases are per-connection and SQLite
		// has a single writer anyway.
		db.SetMaxOpenConns(1)

		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	var err error
	if s.driver == models.StorageDriverSQLite {
		err = s.db.Get(&tableCount,
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	} else {
		err = s.db.Get(&tableCount,
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_name='schema_version'")
	}
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Get returns the value stored under key.
func (s *SQLStore) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind("SELECT value FROM kv WHERE name = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %q: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the value stored under key.
func (s *SQLStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO kv (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// CreateTodo inserts a new todo. Generates a UUID if ID is empty.
func (s *SQLStore) CreateTodo(ctx context.Context, todo *models.Todo) error {
	if strings.TrimSpace(todo.Title) == "" {
		return fmt.Errorf("todo title must not be empty")
	}
	if todo.ID == "" {
		todo.ID = uuid.New().String()
	}
	if todo.Status == "" {
		todo.Status = models.TodoStatusOpen
	}
	if todo.Priority < models.PriorityHigh || todo.Priority > models.PriorityLow {
		todo.Priority = models.PriorityMedium
	}
	todo.CreatedAt = time.Now().UTC()

	var due *time.Time
	if todo.DueDate != nil {
		d := todo.DueDate.UTC()
		due = &d
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO todos (
			id, title, original_text, status, priority, due_date, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		todo.ID, todo.Title, todo.OriginalText, todo.Status, todo.Priority,
		due, todo.CreatedAt, todo.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("creating todo: %w", err)
	}
	return nil
}

// GetTodos retrieves todos matching the filter, earliest due date first.
// Todos without a due date sort last.
func (s *SQLStore) GetTodos(ctx context.Context, filter TodoFilter) ([]models.Todo, error) {
	query := "SELECT id, title, original_text, status, priority, due_date, created_at, completed_at FROM todos"
	var args []interface{}

	if filter.Status != nil {
		query += " WHERE status = ?"
		args = append(args, *filter.Status)
	}
	query += " ORDER BY CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date, created_at"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var todos []models.Todo
	if err := s.db.SelectContext(ctx, &todos, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}
	return todos, nil
}

// CompleteTodo marks a todo complete.
func (s *SQLStore) CompleteTodo(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(
		"UPDATE todos SET status = ?, completed_at = ? WHERE id = ?"),
		models.TodoStatusComplete, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("completing todo %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteTodo removes a todo by ID.
func (s *SQLStore) DeleteTodo(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM todos WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting todo %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return nil
}
