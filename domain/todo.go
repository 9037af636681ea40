package domain

import (
	"fmt"
	"strings"
)

// Status values a todo moves between. No transition rules are enforced;
// the owner may set any value at any time.
const (
	StatusNotStarted = 0
	StatusInProgress = 1
	StatusDone       = 2
)

// TodoItem is a single todo belonging to one owner.
type TodoItem struct {
	OwnerID       string `json:"ownerId"`
	TodoID        string `json:"todoId"`
	CreatedAt     string `json:"createdAt"`
	Name          string `json:"name"`
	DueDate       string `json:"dueDate"`
	Description   string `json:"description,omitempty"`
	Status        int    `json:"status"`
	AttachmentURL string `json:"attachmentUrl,omitempty"`
}

// CreateTodoRequest carries the caller-supplied fields for a new todo.
// Identifier, creation time and status are assigned by the service.
type CreateTodoRequest struct {
	Name        string `json:"name"`
	DueDate     string `json:"dueDate"`
	Description string `json:"description"`
}

// Validate checks the required fields are present.
func (r CreateTodoRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.DueDate) == "" {
		return fmt.Errorf("%w: dueDate is required", ErrInvalidRequest)
	}
	return nil
}

// UpdateTodoRequest carries the full set of mutable fields. All three must
// be supplied together; Status is a pointer so an omitted value can be told
// apart from zero.
type UpdateTodoRequest struct {
	Name    string `json:"name"`
	DueDate string `json:"dueDate"`
	Status  *int   `json:"status"`
}

// Validate checks all mutable fields are present and the status is known.
func (r UpdateTodoRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.DueDate) == "" {
		return fmt.Errorf("%w: dueDate is required", ErrInvalidRequest)
	}
	if r.Status == nil {
		return fmt.Errorf("%w: status is required", ErrInvalidRequest)
	}
	if *r.Status < StatusNotStarted || *r.Status > StatusDone {
		return fmt.Errorf("%w: status must be one of 0, 1, 2", ErrInvalidRequest)
	}
	return nil
}

// TodoUpdate is the persistence-level shape of an update: exactly the
// mutable fields, written together in a single store call.
type TodoUpdate struct {
	Name    string
	DueDate string
	Status  int
}
