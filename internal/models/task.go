package models

import "time"

// Todo is a single task record. It is passed around by value.
type Todo struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	DueDate     time.Time `json:"dueDate"`
	IsCompleted bool      `json:"isCompleted"`
}

// ValidationErrors maps a field name to the messages that field failed with.
type ValidationErrors map[string][]string

const (
	MsgDueDateInPast  = "Cannot have due date in the past."
	MsgCompletedOnAdd = "Cannot add completed todo."
	FieldDueDate      = "DueDate"
	FieldIsCompleted  = "IsCompleted"
)

// ValidateNew checks a todo that is about to be created. Every rule runs,
// so the result lists all failing fields. It returns nil when the todo is valid.
func ValidateNew(todo Todo, now time.Time) ValidationErrors {
	errs := ValidationErrors{}

	if todo.DueDate.Before(now) {
		errs.add(FieldDueDate, MsgDueDateInPast)
	}

	if todo.IsCompleted {
		errs.add(FieldIsCompleted, MsgCompletedOnAdd)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (v ValidationErrors) add(field, msg string) {
	v[field] = append(v[field], msg)
}
