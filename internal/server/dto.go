package server

import (
	"time"

	"taskgenie/internal/task"
)

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Subtasks    []string   `json:"subtasks"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	Subtasks    *[]string  `json:"subtasks"`
}

type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	Overdue     bool       `json:"overdue"`
	Subtasks    []string   `json:"subtasks"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type listTasksResponse struct {
	Tasks []taskResponse `json:"tasks"`
}

type suggestRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type suggestResponse struct {
	Subtasks []string `json:"subtasks"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toTaskResponse(t task.Task, now time.Time) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		Overdue:     t.Overdue(now),
		Subtasks:    t.Subtasks,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
