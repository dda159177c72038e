package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"todo-api/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteStorage keeps todos in a private in-memory SQLite database.
// The database lives on a single connection and disappears on Close.
type SQLiteStorage struct {
	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteStorage() (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// every new connection to :memory: is a new empty database
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStorage{db: db}, nil
}

func createTables(db *sql.DB) error {
	// seq keeps insertion order, id is caller supplied and may repeat
	createTodosTable := `
	CREATE TABLE IF NOT EXISTS todos (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		due_date TEXT NOT NULL,
		is_completed BOOLEAN NOT NULL DEFAULT FALSE
	)`

	if _, err := db.Exec(createTodosTable); err != nil {
		return fmt.Errorf("create table todos: %w", err)
	}

	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_todos_id ON todos (id)"); err != nil {
		return fmt.Errorf("create index idx_todos_id: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) conn() (*sql.DB, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

func (s *SQLiteStorage) AddTodo(todo models.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.conn()
	if err != nil {
		return err
	}

	query := `
	INSERT INTO todos (id, name, due_date, is_completed)
	VALUES (?, ?, ?, ?)`

	_, err = db.Exec(query, todo.ID, todo.Name, formatTime(todo.DueDate), todo.IsCompleted)
	if err != nil {
		return fmt.Errorf("insert todo %d: %w", todo.ID, err)
	}
	return nil
}

func (s *SQLiteStorage) GetTodo(id int) (models.Todo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.conn()
	if err != nil {
		return models.Todo{}, false, err
	}

	query := `
	SELECT id, name, due_date, is_completed
	FROM todos WHERE id = ? ORDER BY seq LIMIT 1`

	rows, err := db.Query(query, id)
	if err != nil {
		return models.Todo{}, false, fmt.Errorf("select todo %d: %w", id, err)
	}
	defer rows.Close()

	todos, err := scanTodos(rows)
	if err != nil {
		return models.Todo{}, false, err
	}
	if len(todos) == 0 {
		return models.Todo{}, false, nil
	}
	return todos[0], true, nil
}

func (s *SQLiteStorage) GetAllTodos() ([]models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query("SELECT id, name, due_date, is_completed FROM todos ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("select todos: %w", err)
	}
	defer rows.Close()

	return scanTodos(rows)
}

func (s *SQLiteStorage) DeleteTodos(id int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.conn()
	if err != nil {
		return 0, err
	}

	result, err := db.Exec("DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("delete todo %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func scanTodos(rows *sql.Rows) ([]models.Todo, error) {
	todos := []models.Todo{}
	for rows.Next() {
		var todo models.Todo
		var dueDate string

		if err := rows.Scan(&todo.ID, &todo.Name, &dueDate, &todo.IsCompleted); err != nil {
			return nil, err
		}

		t, err := time.Parse(time.RFC3339Nano, dueDate)
		if err != nil {
			return nil, fmt.Errorf("parse due_date of todo %d: %w", todo.ID, err)
		}
		todo.DueDate = t

		todos = append(todos, todo)
	}

	return todos, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
