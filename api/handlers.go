package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"todo-api/domain"
)

const todoBodyMaxSize = 64 << 10

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, todos Todos, auth Authenticator, logger *log.Logger) {
	e.GET("/todos", getTodos(todos, auth, logger))
	e.POST("/todos", createTodo(todos, auth))
	e.PATCH("/todos/:todoId", updateTodo(todos, auth))
	e.DELETE("/todos/:todoId", deleteTodo(todos, auth))
	e.POST("/todos/:todoId/attachment", generateUploadURL(todos, auth))
	e.GET("/healthz", healthz())
}

type itemsResponse struct {
	Items []domain.TodoItem `json:"items"`
}

type uploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func getTodos(todos Todos, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTodoRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		ownerID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		fetchStart := time.Now()
		items, fetchErr := todos.ListTodos(ctx, ownerID)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return err
		}
		metrics.SetItemsReturned(len(items))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, itemsResponse{Items: items})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func createTodo(todos Todos, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var req domain.CreateTodoRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}

		item, err := todos.CreateTodo(c.Request().Context(), ownerID, req)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusCreated, item)
	}
}

func updateTodo(todos Todos, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var req domain.UpdateTodoRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}

		if err := todos.UpdateTodo(c.Request().Context(), ownerID, c.Param("todoId"), req); err != nil {
			return writeDomainError(c, err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func deleteTodo(todos Todos, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		if err := todos.DeleteTodo(c.Request().Context(), ownerID, c.Param("todoId")); err != nil {
			return writeDomainError(c, err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func generateUploadURL(todos Todos, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ownerID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		uploadURL, err := todos.GetUploadURL(c.Request().Context(), ownerID, c.Param("todoId"))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusCreated, uploadURLResponse{UploadURL: uploadURL})
	}
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, todoBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeDomainError maps domain failures onto the wire. Not-found and
// not-owner collapse into one 404 so the response does not reveal whether
// the todo exists under another owner.
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrTodoNotFound), errors.Is(err, domain.ErrNotOwner):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
