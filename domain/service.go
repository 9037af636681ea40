package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Storage is the persistence surface the service needs. It has no
// authorization awareness; ownership checks live here.
type Storage interface {
	InsertTodo(ctx context.Context, item TodoItem) error
	FetchTodos(ctx context.Context, ownerID string) ([]TodoItem, error)
	GetTodo(ctx context.Context, ownerID, todoID string) (*TodoItem, error)
	UpdateTodo(ctx context.Context, ownerID, todoID string, upd TodoUpdate) error
	SetAttachmentURL(ctx context.Context, ownerID, todoID, url string) error
	DeleteTodo(ctx context.Context, ownerID, todoID string) error
}

// AttachmentStore issues the two URLs of the attachment flow: the stable
// public location of a todo's attachment and a short-lived signed URL the
// caller uploads the binary to.
type AttachmentStore interface {
	AttachmentURL(todoID string) string
	UploadURL(ctx context.Context, todoID string) (string, error)
}

// Service owns the ownership invariant and identifier/timestamp assignment.
type Service struct {
	store       Storage
	attachments AttachmentStore
	log         *log.Logger
}

// NewService creates a Service on top of the given store and attachment locator.
func NewService(store Storage, attachments AttachmentStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{store: store, attachments: attachments, log: logger}
}

// CreateTodo assigns a fresh id, the creation timestamp and the default
// status, then persists the todo. The caller is always the owner, so no
// ownership check applies.
func (s *Service) CreateTodo(ctx context.Context, ownerID string, req CreateTodoRequest) (TodoItem, error) {
	if err := req.Validate(); err != nil {
		return TodoItem{}, err
	}
	item := TodoItem{
		OwnerID:     ownerID,
		TodoID:      uuid.NewString(),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		Name:        req.Name,
		DueDate:     req.DueDate,
		Description: req.Description,
		Status:      StatusNotStarted,
	}
	if err := s.store.InsertTodo(ctx, item); err != nil {
		return TodoItem{}, err
	}
	s.log.WithFields(log.Fields{"owner": ownerID, "todo": item.TodoID}).Debug("todo created")
	return item, nil
}

// ListTodos returns the owner's todos, newest first.
func (s *Service) ListTodos(ctx context.Context, ownerID string) ([]TodoItem, error) {
	return s.store.FetchTodos(ctx, ownerID)
}

// UpdateTodo replaces the mutable fields of the todo after verifying ownership.
func (s *Service) UpdateTodo(ctx context.Context, ownerID, todoID string, req UpdateTodoRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := s.authorize(ctx, ownerID, todoID); err != nil {
		return err
	}
	return s.store.UpdateTodo(ctx, ownerID, todoID, TodoUpdate{
		Name:    req.Name,
		DueDate: req.DueDate,
		Status:  *req.Status,
	})
}

// DeleteTodo removes the todo after verifying ownership. The store delete is
// idempotent, but the ownership check makes a repeated delete surface as
// not-found.
func (s *Service) DeleteTodo(ctx context.Context, ownerID, todoID string) error {
	if err := s.authorize(ctx, ownerID, todoID); err != nil {
		return err
	}
	return s.store.DeleteTodo(ctx, ownerID, todoID)
}

// GetUploadURL persists the deterministic public attachment location on the
// todo and returns a distinct signed upload URL for the binary itself.
func (s *Service) GetUploadURL(ctx context.Context, ownerID, todoID string) (string, error) {
	if err := s.authorize(ctx, ownerID, todoID); err != nil {
		return "", err
	}
	publicURL := s.attachments.AttachmentURL(todoID)
	if err := s.store.SetAttachmentURL(ctx, ownerID, todoID, publicURL); err != nil {
		return "", err
	}
	uploadURL, err := s.attachments.UploadURL(ctx, todoID)
	if err != nil {
		return "", err
	}
	s.log.WithFields(log.Fields{"owner": ownerID, "todo": todoID}).Debug("issued upload url")
	return uploadURL, nil
}

// authorize fetches the todo and verifies the caller owns it. Lookups are
// already owner-scoped, so the ownership branch only fires if the store
// hands back foreign data; it stays as a guard.
func (s *Service) authorize(ctx context.Context, ownerID, todoID string) error {
	item, err := s.store.GetTodo(ctx, ownerID, todoID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: %s", ErrTodoNotFound, todoID)
	}
	if item.OwnerID != ownerID {
		s.log.WithFields(log.Fields{"owner": ownerID, "todo": todoID}).Warn("ownership mismatch")
		return fmt.Errorf("%w: %s", ErrNotOwner, todoID)
	}
	return nil
}
