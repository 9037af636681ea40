package api

import (
	"context"

	"todo-api/domain"
)

// Todos abstracts the domain service for handlers.
type Todos interface {
	CreateTodo(ctx context.Context, ownerID string, req domain.CreateTodoRequest) (domain.TodoItem, error)
	ListTodos(ctx context.Context, ownerID string) ([]domain.TodoItem, error)
	UpdateTodo(ctx context.Context, ownerID, todoID string, req domain.UpdateTodoRequest) error
	DeleteTodo(ctx context.Context, ownerID, todoID string) error
	GetUploadURL(ctx context.Context, ownerID, todoID string) (string, error)
}

// Authenticator is implemented by types able to extract owner IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}
