package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"todo-api/internal/models"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const maxBodyBytes = 1 << 20

// Missing properties fall back to zero values; only the types of present
// properties are checked.
const todoSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"id": {"type": "integer"},
		"name": {"type": "string"},
		"dueDate": {"type": "string", "format": "date-time"},
		"isCompleted": {"type": "boolean"}
	}
}`

var todoSchema = mustCompileTodoSchema()

func mustCompileTodoSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	if err := compiler.AddResource("todo.schema.json", strings.NewReader(todoSchemaJSON)); err != nil {
		panic(fmt.Sprintf("add todo schema: %v", err))
	}
	schema, err := compiler.Compile("todo.schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile todo schema: %v", err))
	}
	return schema
}

type todoCtxKey struct{}

func todoFromContext(ctx context.Context) (models.Todo, bool) {
	todo, ok := ctx.Value(todoCtxKey{}).(models.Todo)
	return todo, ok
}

// decodeTodo reads the request body into a Todo and stores it in the request
// context. Bodies that are not a JSON todo are answered with 400.
func decodeTodo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeProblem(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", err.Error())
				return
			}
			writeProblem(w, http.StatusBadRequest, "Malformed request body", err.Error())
			return
		}

		var doc any
		if err := json.Unmarshal(body, &doc); err != nil {
			writeProblem(w, http.StatusBadRequest, "Malformed request body", err.Error())
			return
		}

		if err := todoSchema.Validate(doc); err != nil {
			writeProblem(w, http.StatusBadRequest, "Malformed request body", err.Error())
			return
		}

		var todo models.Todo
		if err := json.Unmarshal(body, &todo); err != nil {
			writeProblem(w, http.StatusBadRequest, "Malformed request body", err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), todoCtxKey{}, todo)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateTodo runs the creation rules before the handler. The handler only
// runs when every rule passes.
func validateTodo(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			todo, ok := todoFromContext(r.Context())
			if !ok {
				writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "request body was not decoded")
				return
			}

			if errs := models.ValidateNew(todo, now()); errs != nil {
				writeValidationProblem(w, errs)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
