package domain

import "errors"

// The closed set of domain failures. The HTTP layer maps these to response
// codes; nothing anywhere matches on message text.
var (
	// ErrTodoNotFound indicates no todo exists for the given owner and id.
	ErrTodoNotFound = errors.New("todo not found")
	// ErrNotOwner indicates the todo exists but belongs to someone else.
	ErrNotOwner = errors.New("todo does not belong to caller")
	// ErrInvalidRequest indicates caller-supplied fields are missing or malformed.
	ErrInvalidRequest = errors.New("invalid request")
)
