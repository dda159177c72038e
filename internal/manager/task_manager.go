package manager

import (
	"errors"
	"fmt"
	"time"

	"todo-api/internal/models"
	"todo-api/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ErrTodoNotFound = errors.New("todo not found")

var (
	addTodoCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_todos_added_total",
			Help: "Total number of AddTodo operations",
		},
		[]string{"status"},
	)

	deleteTodoCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "todoapp_todos_deleted_total",
			Help: "Total number of todo records removed by DeleteTodoByID",
		},
	)

	lookupCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_todo_lookups_total",
			Help: "Total number of GetTodoByID operations by result",
		},
		[]string{"result"},
	)

	addTodoDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoapp_add_todo_duration_seconds",
			Help:    "Duration of AddTodo operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// TaskManager is the task service. It owns its storage exclusively.
type TaskManager struct {
	storage storage.Storage
}

// NewTaskManager returns a manager backed by a fresh in-memory store.
func NewTaskManager() *TaskManager {
	return &TaskManager{storage: storage.NewMemoryStorage()}
}

func NewTaskManagerWithStorage(s storage.Storage) *TaskManager {
	return &TaskManager{storage: s}
}

// AddTodo stores todo as given and returns it unchanged.
// Ids are not checked for uniqueness.
func (tm *TaskManager) AddTodo(todo models.Todo) (models.Todo, error) {
	startTime := time.Now()
	defer func() {
		addTodoDuration.Observe(time.Since(startTime).Seconds())
	}()

	if err := tm.storage.AddTodo(todo); err != nil {
		addTodoCount.WithLabelValues("error").Inc()
		return models.Todo{}, fmt.Errorf("add todo %d: %w", todo.ID, err)
	}

	addTodoCount.WithLabelValues("success").Inc()
	return todo, nil
}

// GetTodoByID returns the first todo added with id, or ErrTodoNotFound.
func (tm *TaskManager) GetTodoByID(id int) (models.Todo, error) {
	todo, ok, err := tm.storage.GetTodo(id)
	if err != nil {
		return models.Todo{}, fmt.Errorf("get todo %d: %w", id, err)
	}
	if !ok {
		lookupCount.WithLabelValues("miss").Inc()
		return models.Todo{}, fmt.Errorf("todo with id %d: %w", id, ErrTodoNotFound)
	}

	lookupCount.WithLabelValues("hit").Inc()
	return todo, nil
}

func (tm *TaskManager) GetTodos() ([]models.Todo, error) {
	todos, err := tm.storage.GetAllTodos()
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// DeleteTodoByID removes every todo with id. Deleting an unknown id is not an error.
func (tm *TaskManager) DeleteTodoByID(id int) error {
	removed, err := tm.storage.DeleteTodos(id)
	if err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}

	deleteTodoCount.Add(float64(removed))
	return nil
}

func (tm *TaskManager) Close() error {
	return tm.storage.Close()
}
