package server

import (
	"encoding/json"
	"net/http"

	"todo-api/internal/models"
)

const validationProblemType = "https://tools.ietf.org/html/rfc9110#section-15.5.1"

// problem is an RFC 9457 problem details body.
type problem struct {
	Type   string                  `json:"type,omitempty"`
	Title  string                  `json:"title"`
	Status int                     `json:"status"`
	Detail string                  `json:"detail,omitempty"`
	Errors models.ValidationErrors `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemBody(w, problem{Title: title, Status: status, Detail: detail})
}

func writeValidationProblem(w http.ResponseWriter, errs models.ValidationErrors) {
	writeProblemBody(w, problem{
		Type:   validationProblemType,
		Title:  "One or more validation errors occurred.",
		Status: http.StatusBadRequest,
		Errors: errs,
	})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
