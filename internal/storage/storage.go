package storage

import (
	"errors"
	"sync"

	"todo-api/internal/models"
)

var ErrClosed = errors.New("storage is closed")

// Storage abstracts where todos are kept. Implementations keep insertion order
// and never enforce id uniqueness.
type Storage interface {
	AddTodo(todo models.Todo) error
	// GetTodo returns the first todo added with the given id.
	GetTodo(id int) (models.Todo, bool, error)
	GetAllTodos() ([]models.Todo, error)
	// DeleteTodos removes every todo with the given id and reports how many went.
	DeleteTodos(id int) (int, error)

	Close() error
}

// MemoryStorage keeps todos in a slice for the lifetime of the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	todos  []models.Todo
	closed bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) AddTodo(todo models.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.todos = append(m.todos, todo)
	return nil
}

func (m *MemoryStorage) GetTodo(id int) (models.Todo, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return models.Todo{}, false, ErrClosed
	}

	for _, todo := range m.todos {
		if todo.ID == id {
			return todo, true, nil
		}
	}
	return models.Todo{}, false, nil
}

func (m *MemoryStorage) GetAllTodos() ([]models.Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	todos := make([]models.Todo, len(m.todos))
	copy(todos, m.todos)
	return todos, nil
}

func (m *MemoryStorage) DeleteTodos(id int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	kept := m.todos[:0]
	for _, todo := range m.todos {
		if todo.ID != id {
			kept = append(kept, todo)
		}
	}
	removed := len(m.todos) - len(kept)

	// clear the tail so dropped records are not held by the backing array
	clear(m.todos[len(kept):])
	m.todos = kept

	return removed, nil
}

func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.todos = nil
	return nil
}
