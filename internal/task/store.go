package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store is the SQLite-backed task collection. Every operation is a
// single-row effect; concurrent updates to the same task are
// last-write-wins.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	log *zap.Logger
}

// NewStore opens (or creates) the database at path and ensures the
// schema. Use ":memory:" for an ephemeral store in tests.
func NewStore(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		log.Debug("failed to set sqlite synchronous=NORMAL", zap.Error(err))
	}

	s := &Store{db: db, log: log}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	log.Info("task store ready", zap.String("path", path))
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		due_date TIMESTAMP,
		subtasks TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const taskColumns = "id, title, description, status, due_date, subtasks, created_at, updated_at"

// List returns every task ordered by created_at descending, newest
// first. The rowid tiebreak keeps the order strict when two creates
// land on the same timestamp.
func (s *Store) List(ctx context.Context) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, &StoreError{Op: "list", Err: err}
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return tasks, nil
}

// Get returns the task with the given id.
func (s *Store) Get(ctx context.Context, id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(ctx, id)
}

func (s *Store) get(ctx context.Context, id string) (Task, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, &NotFoundError{ID: id}
	}
	if err != nil {
		return Task{}, &StoreError{Op: "get", Err: err}
	}
	return t, nil
}

// Create persists a new task. The store assigns id, created_at and
// updated_at; status defaults to pending and subtasks to an empty list.
func (s *Store) Create(ctx context.Context, fields Fields) (Task, error) {
	if strings.TrimSpace(fields.Title) == "" {
		return Task{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	status := fields.Status
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return Task{}, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown value %q", status)}
	}

	now := time.Now().UTC()
	t := Task{
		ID:          uuid.NewString(),
		Title:       fields.Title,
		Description: fields.Description,
		Status:      status,
		DueDate:     fields.DueDate,
		Subtasks:    fields.Subtasks,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Subtasks == nil {
		t.Subtasks = []string{}
	}

	subtasks, err := json.Marshal(t.Subtasks)
	if err != nil {
		return Task{}, &StoreError{Op: "create", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.Title, nullString(t.Description), string(t.Status),
		nullTime(t.DueDate), string(subtasks), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return Task{}, &StoreError{Op: "create", Err: err}
	}
	return t, nil
}

// Update applies a partial patch to the task with the given id and
// bumps updated_at. Unset patch fields are left untouched.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return Task{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return Task{}, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown value %q", *patch.Status)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.get(ctx, id)
	if err != nil {
		return Task{}, err
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		if *patch.Description == "" {
			t.Description = nil
		} else {
			t.Description = patch.Description
		}
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.DueDate != nil {
		if patch.DueDate.IsZero() {
			t.DueDate = nil
		} else {
			t.DueDate = patch.DueDate
		}
	}
	if patch.Subtasks != nil {
		t.Subtasks = *patch.Subtasks
		if t.Subtasks == nil {
			t.Subtasks = []string{}
		}
	}
	t.UpdatedAt = time.Now().UTC()

	subtasks, err := json.Marshal(t.Subtasks)
	if err != nil {
		return Task{}, &StoreError{Op: "update", Err: err}
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, status = ?, due_date = ?,
		 subtasks = ?, updated_at = ? WHERE id = ?`,
		t.Title, nullString(t.Description), string(t.Status), nullTime(t.DueDate),
		string(subtasks), t.UpdatedAt, t.ID)
	if err != nil {
		return Task{}, &StoreError{Op: "update", Err: err}
	}
	return t, nil
}

// Delete removes the task with the given id. Deleting a nonexistent id
// is an error, not a no-op: it returns NotFoundError, consistently.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	if n == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var (
		t        Task
		desc     sql.NullString
		status   string
		due      sql.NullTime
		subtasks string
	)
	err := row.Scan(&t.ID, &t.Title, &desc, &status, &due, &subtasks,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Task{}, err
	}
	if desc.Valid {
		t.Description = &desc.String
	}
	t.Status = Status(status)
	if due.Valid {
		d := due.Time.UTC()
		t.DueDate = &d
	}
	if err := json.Unmarshal([]byte(subtasks), &t.Subtasks); err != nil {
		return Task{}, fmt.Errorf("corrupt subtasks column: %w", err)
	}
	if t.Subtasks == nil {
		t.Subtasks = []string{}
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
