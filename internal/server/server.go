// Package server exposes the task store and the subtask suggestion
// pipeline over HTTP. It is the single place where internal failures
// are mapped to status codes and user-facing text.
package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskgenie/internal/task"
)

// Suggester produces subtask suggestions for a task title and optional
// description.
type Suggester interface {
	Suggest(ctx context.Context, title, description string) ([]string, error)
}

// Server is the taskgenie HTTP server.
type Server struct {
	app       *fiber.App
	store     *task.Store
	suggester Suggester
	log       *zap.Logger
}

// New creates a server wired to the given store and suggester.
func New(store *task.Store, suggester Suggester, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		app:       app,
		store:     store,
		suggester: suggester,
		log:       log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.handleHealth)

	s.app.Post("/suggest-subtasks", s.handleSuggestSubtasks)

	tasks := s.app.Group("/tasks")
	tasks.Get("/", s.handleListTasks)
	tasks.Post("/", s.handleCreateTask)
	tasks.Get("/:id", s.handleGetTask)
	tasks.Patch("/:id", s.handleUpdateTask)
	tasks.Delete("/:id", s.handleDeleteTask)
}

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
