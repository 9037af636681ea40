package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"todo-api/domain"
)

// Storage provides access to the todos table. PartitionKey is the owner id,
// RowKey the todo id, so every read and write is scoped to one owner.
type Storage struct {
	todoTable *aztables.Client
}

// New creates a Storage instance from the given connection string.
func New(connStr, todosTable string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{todoTable: svc.NewClient(todosTable)}, nil
}

const edmInt32 = "Edm.Int32"

type tableEntity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type todoEntity struct {
	tableEntity
	CreatedAt     string `json:"CreatedAt"`
	Name          string `json:"Name"`
	DueDate       string `json:"DueDate"`
	Description   string `json:"Description,omitempty"`
	Status        int    `json:"Status"`
	StatusType    string `json:"Status@odata.type,omitempty"`
	AttachmentUrl string `json:"AttachmentUrl,omitempty"`
}

// todoUpdateEntity carries partial writes; only non-nil properties are merged.
type todoUpdateEntity struct {
	tableEntity
	Name          *string `json:"Name,omitempty"`
	DueDate       *string `json:"DueDate,omitempty"`
	Status        *int    `json:"Status,omitempty"`
	StatusType    *string `json:"Status@odata.type,omitempty"`
	AttachmentUrl *string `json:"AttachmentUrl,omitempty"`
}

func toItem(ent todoEntity) domain.TodoItem {
	return domain.TodoItem{
		OwnerID:       ent.PartitionKey,
		TodoID:        ent.RowKey,
		CreatedAt:     ent.CreatedAt,
		Name:          ent.Name,
		DueDate:       ent.DueDate,
		Description:   ent.Description,
		Status:        ent.Status,
		AttachmentURL: ent.AttachmentUrl,
	}
}

func fromItem(item domain.TodoItem) todoEntity {
	return todoEntity{
		tableEntity:   tableEntity{PartitionKey: item.OwnerID, RowKey: item.TodoID},
		CreatedAt:     item.CreatedAt,
		Name:          item.Name,
		DueDate:       item.DueDate,
		Description:   item.Description,
		Status:        item.Status,
		StatusType:    edmInt32,
		AttachmentUrl: item.AttachmentURL,
	}
}

// InsertTodo writes a new todo entity.
func (s *Storage) InsertTodo(ctx context.Context, item domain.TodoItem) error {
	payload, err := json.Marshal(fromItem(item))
	if err == nil {
		_, err = s.todoTable.AddEntity(ctx, payload, nil)
	}
	return err
}

// FetchTodos retrieves all todos of the owner, newest first. The partition
// is fully materialized; the table cannot order by a property, so ordering
// happens here.
func (s *Storage) FetchTodos(ctx context.Context, ownerID string) ([]domain.TodoItem, error) {
	filter := "PartitionKey eq '" + escapeKey(ownerID) + "'"
	pager := s.todoTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	todos := []domain.TodoItem{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent todoEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			todos = append(todos, toItem(ent))
		}
	}
	sortNewestFirst(todos)
	return todos, nil
}

// sortNewestFirst orders by creation time descending. CreatedAt is RFC-3339
// UTC, so lexical order is chronological order.
func sortNewestFirst(todos []domain.TodoItem) {
	sort.SliceStable(todos, func(i, j int) bool {
		return todos[i].CreatedAt > todos[j].CreatedAt
	})
}

// GetTodo retrieves a todo if present. Absence is (nil, nil), not an error.
func (s *Storage) GetTodo(ctx context.Context, ownerID, todoID string) (*domain.TodoItem, error) {
	ent, err := s.todoTable.GetEntity(ctx, ownerID, todoID, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	var rec todoEntity
	if err := json.Unmarshal(ent.Value, &rec); err != nil {
		return nil, err
	}
	item := toItem(rec)
	return &item, nil
}

// UpdateTodo merges the three mutable properties into an existing entity in
// a single call. A missing entity surfaces the service's 404 verbatim.
func (s *Storage) UpdateTodo(ctx context.Context, ownerID, todoID string, upd domain.TodoUpdate) error {
	st := edmInt32
	return s.merge(ctx, todoUpdateEntity{
		tableEntity: tableEntity{PartitionKey: ownerID, RowKey: todoID},
		Name:        &upd.Name,
		DueDate:     &upd.DueDate,
		Status:      &upd.Status,
		StatusType:  &st,
	})
}

// SetAttachmentURL sets only the attachment location, leaving every other
// property untouched.
func (s *Storage) SetAttachmentURL(ctx context.Context, ownerID, todoID, url string) error {
	return s.merge(ctx, todoUpdateEntity{
		tableEntity:   tableEntity{PartitionKey: ownerID, RowKey: todoID},
		AttachmentUrl: &url,
	})
}

func (s *Storage) merge(ctx context.Context, ent todoUpdateEntity) error {
	payload, err := json.Marshal(ent)
	if err == nil {
		et := azcore.ETagAny
		_, err = s.todoTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{
			IfMatch:    &et,
			UpdateMode: aztables.UpdateModeMerge,
		})
	}
	return err
}

// DeleteTodo removes the entity. Deleting an absent todo is not an error.
func (s *Storage) DeleteTodo(ctx context.Context, ownerID, todoID string) error {
	_, err := s.todoTable.DeleteEntity(ctx, ownerID, todoID, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil
		}
	}
	return err
}

// escapeKey doubles single quotes for use inside an OData string literal.
func escapeKey(k string) string {
	return strings.ReplaceAll(k, "'", "''")
}
