package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"todo-api/internal/logger"
	"todo-api/internal/manager"
	"todo-api/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TaskService is what the HTTP layer needs from the task manager.
type TaskService interface {
	AddTodo(todo models.Todo) (models.Todo, error)
	GetTodoByID(id int) (models.Todo, error)
	GetTodos() ([]models.Todo, error)
	DeleteTodoByID(id int) error
}

type routerConfig struct {
	now         func() time.Time
	metricsPath string
}

type Option func(*routerConfig)

// WithClock replaces time.Now for due date checks and request traces.
func WithClock(now func() time.Time) Option {
	return func(c *routerConfig) {
		c.now = now
	}
}

// WithMetrics exposes Prometheus metrics on path. An empty path disables it.
func WithMetrics(path string) Option {
	return func(c *routerConfig) {
		c.metricsPath = path
	}
}

func NewRouter(svc TaskService, opts ...Option) *chi.Mux {
	cfg := routerConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()

	// order matters: the request trace wraps everything below it,
	// including redirects and recovered panics
	r.Use(
		middleware.RequestID,
		requestLogger(cfg.now),
		middleware.Recoverer,
		instrument,
		redirectTasks,
	)

	r.With(decodeTodo, validateTodo(cfg.now)).Post("/todos", addTodoHandler(svc))
	r.Get("/todos", listTodosHandler(svc))
	r.Get("/todos/{id}", getTodoHandler(svc))
	r.Delete("/todos/{id}", deleteTodoHandler(svc))

	if cfg.metricsPath != "" {
		r.Method(http.MethodGet, cfg.metricsPath, promhttp.Handler())
	}

	return r
}

func addTodoHandler(svc TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		todo, ok := todoFromContext(r.Context())
		if !ok {
			writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "request body was not decoded")
			return
		}

		stored, err := svc.AddTodo(todo)
		if err != nil {
			logger.Error(r.Context(), err, "failed to add todo", "id", todo.ID)
			writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to add todo")
			return
		}

		w.Header().Set("Location", fmt.Sprintf("/todos/%d", stored.ID))
		writeJSON(w, http.StatusCreated, stored)
	}
}

func getTodoHandler(svc TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := todoID(w, r)
		if !ok {
			return
		}

		todo, err := svc.GetTodoByID(id)
		if err != nil {
			if errors.Is(err, manager.ErrTodoNotFound) {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			logger.Error(r.Context(), err, "failed to get todo", "id", id)
			writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to get todo")
			return
		}

		writeJSON(w, http.StatusOK, todo)
	}
}

func listTodosHandler(svc TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		todos, err := svc.GetTodos()
		if err != nil {
			logger.Error(r.Context(), err, "failed to list todos")
			writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to list todos")
			return
		}

		if todos == nil {
			todos = []models.Todo{}
		}
		writeJSON(w, http.StatusOK, todos)
	}
}

func deleteTodoHandler(svc TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := todoID(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteTodoByID(id); err != nil {
			logger.Error(r.Context(), err, "failed to delete todo", "id", id)
			writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to delete todo")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// todoID parses the {id} path parameter and answers 400 when it is not an integer.
func todoID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("todo id %q is not an integer", raw))
		return 0, false
	}
	return id, true
}
