package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskgenie/internal/task"
)

const (
	msgTitleRequired   = "Task title is required"
	msgSuggestFailed   = "Failed to generate subtasks. Please try again."
	msgTaskNotFound    = "Task not found"
	msgInvalidBody     = "Invalid request body"
	msgInternalFailure = "Internal server error"
)

// handleHealth handles GET /health.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(healthResponse{Status: "ok"})
}

// handleListTasks handles GET /tasks, newest first.
func (s *Server) handleListTasks(c *fiber.Ctx) error {
	tasks, err := s.store.List(c.Context())
	if err != nil {
		return s.taskError(c, err)
	}

	now := time.Now().UTC()
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t, now))
	}
	return c.JSON(listTasksResponse{Tasks: out})
}

// handleCreateTask handles POST /tasks.
func (s *Server) handleCreateTask(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: msgInvalidBody})
	}

	created, err := s.store.Create(c.Context(), task.Fields{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Subtasks:    req.Subtasks,
	})
	if err != nil {
		return s.taskError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTaskResponse(created, time.Now().UTC()))
}

// handleGetTask handles GET /tasks/:id.
func (s *Server) handleGetTask(c *fiber.Ctx) error {
	t, err := s.store.Get(c.Context(), c.Params("id"))
	if err != nil {
		return s.taskError(c, err)
	}
	return c.JSON(toTaskResponse(t, time.Now().UTC()))
}

// handleUpdateTask handles PATCH /tasks/:id. Fields absent from the
// body are left untouched.
func (s *Server) handleUpdateTask(c *fiber.Ctx) error {
	var req updateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: msgInvalidBody})
	}

	patch := task.Patch{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Subtasks:    req.Subtasks,
	}
	if req.Status != nil {
		status := task.Status(*req.Status)
		patch.Status = &status
	}

	updated, err := s.store.Update(c.Context(), c.Params("id"), patch)
	if err != nil {
		return s.taskError(c, err)
	}
	return c.JSON(toTaskResponse(updated, time.Now().UTC()))
}

// handleDeleteTask handles DELETE /tasks/:id.
func (s *Server) handleDeleteTask(c *fiber.Ctx) error {
	if err := s.store.Delete(c.Context(), c.Params("id")); err != nil {
		return s.taskError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleSuggestSubtasks handles POST /suggest-subtasks.
func (s *Server) handleSuggestSubtasks(c *fiber.Ctx) error {
	var req suggestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: msgSuggestFailed})
	}

	if strings.TrimSpace(req.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: msgTitleRequired})
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	subtasks, err := s.suggester.Suggest(c.Context(), req.Title, description)
	if err != nil {
		var verr *task.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: msgTitleRequired})
		}
		s.log.Error("failed to generate subtasks", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: msgSuggestFailed})
	}
	return c.JSON(suggestResponse{Subtasks: subtasks})
}

// taskError maps store failures to status codes. Internal detail is
// logged, never sent to the client.
func (s *Server) taskError(c *fiber.Ctx, err error) error {
	var verr *task.ValidationError
	var nferr *task.NotFoundError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: verr.Error()})
	case errors.As(err, &nferr):
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: msgTaskNotFound})
	default:
		s.log.Error("task store failure", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: msgInternalFailure})
	}
}
