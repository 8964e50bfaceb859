// Package task defines the Task entity and its SQLite-backed store.
package task

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Task is the sole persisted entity, one row in the tasks table.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	Subtasks    []string   `json:"subtasks"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Overdue reports whether the task is past its due date and still pending.
// Derived, never stored.
func (t Task) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.Status == StatusPending && t.DueDate.Before(now)
}

// Fields holds the client-settable fields for task creation.
// ID, CreatedAt and UpdatedAt are always assigned by the store.
type Fields struct {
	Title       string
	Description *string
	Status      Status // empty defaults to pending
	DueDate     *time.Time
	Subtasks    []string
}

// Patch is a partial update. Nil pointers leave the field untouched.
// A pointer to the empty string clears Description; a pointer to the
// zero time clears DueDate.
type Patch struct {
	Title       *string
	Description *string
	Status      *Status
	DueDate     *time.Time
	Subtasks    *[]string
}
