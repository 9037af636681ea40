package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"todo-api/domain"
)

type backend interface {
	InsertTodo(ctx context.Context, item domain.TodoItem) error
	FetchTodos(ctx context.Context, ownerID string) ([]domain.TodoItem, error)
	GetTodo(ctx context.Context, ownerID, todoID string) (*domain.TodoItem, error)
	UpdateTodo(ctx context.Context, ownerID, todoID string, upd domain.TodoUpdate) error
	SetAttachmentURL(ctx context.Context, ownerID, todoID, url string) error
	DeleteTodo(ctx context.Context, ownerID, todoID string) error
}

// Cache wraps a Storage with Redis-backed caching of list reads. Every
// mutation evicts the owner's cached list. Redis failures degrade to the
// backing storage and never fail the request.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) FetchTodos(ctx context.Context, ownerID string) ([]domain.TodoItem, error) {
	if todos, ok := c.loadTodosFromCache(ctx, ownerID); ok {
		return todos, nil
	}

	todos, err := c.base.FetchTodos(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	c.storeTodos(ctx, ownerID, todos)
	return todos, nil
}

// GetTodo always hits the backing storage: the ownership check runs off this
// read and must not act on stale data.
func (c *Cache) GetTodo(ctx context.Context, ownerID, todoID string) (*domain.TodoItem, error) {
	return c.base.GetTodo(ctx, ownerID, todoID)
}

func (c *Cache) InsertTodo(ctx context.Context, item domain.TodoItem) error {
	if err := c.base.InsertTodo(ctx, item); err != nil {
		return err
	}
	c.evict(ctx, item.OwnerID)
	return nil
}

func (c *Cache) UpdateTodo(ctx context.Context, ownerID, todoID string, upd domain.TodoUpdate) error {
	if err := c.base.UpdateTodo(ctx, ownerID, todoID, upd); err != nil {
		return err
	}
	c.evict(ctx, ownerID)
	return nil
}

func (c *Cache) SetAttachmentURL(ctx context.Context, ownerID, todoID, url string) error {
	if err := c.base.SetAttachmentURL(ctx, ownerID, todoID, url); err != nil {
		return err
	}
	c.evict(ctx, ownerID)
	return nil
}

func (c *Cache) DeleteTodo(ctx context.Context, ownerID, todoID string) error {
	if err := c.base.DeleteTodo(ctx, ownerID, todoID); err != nil {
		return err
	}
	c.evict(ctx, ownerID)
	return nil
}

func (c *Cache) loadTodosFromCache(ctx context.Context, ownerID string) ([]domain.TodoItem, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, todosCacheKey(ownerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors drop the key and fall back to the backing storage.
			_ = c.redis.Del(ctx, todosCacheKey(ownerID)).Err()
		}
		return nil, false
	}
	var todos []domain.TodoItem
	if err := json.Unmarshal(data, &todos); err != nil {
		_ = c.redis.Del(ctx, todosCacheKey(ownerID)).Err()
		return nil, false
	}
	return todos, true
}

func (c *Cache) storeTodos(ctx context.Context, ownerID string, todos []domain.TodoItem) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(todos)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, todosCacheKey(ownerID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, ownerID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, todosCacheKey(ownerID)).Result()
}

func todosCacheKey(ownerID string) string {
	return "todos:" + ownerID
}
