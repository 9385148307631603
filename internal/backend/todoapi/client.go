// Package todoapi implements the service.Service interface over the
// hosted todo REST API.
package todoapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"todo/internal/api"
	"todo/internal/normalize"
	"todo/internal/service"
)

const (
	// TodosPath is the collection resource.
	TodosPath = "/todos"
)

// ErrNoID means a todo carries none of the known ID fields and cannot be
// addressed.
var ErrNoID = errors.New("todo has no id")

// ErrTimeout means a request ran past its deadline.
var ErrTimeout = errors.New("request timed out")

// Requester sends one authenticated request. *api.Client implements it.
type Requester interface {
	Request(ctx context.Context, method, path string, opts api.RequestOptions) (any, error)
}

// Client implements service.Service over the todo REST API.
type Client struct {
	api    Requester
	logger *slog.Logger
}

// New creates a todo API client. A nil logger discards output.
func New(r Requester, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{api: r, logger: logger}
}

// ListTodos fetches the collection and normalizes whatever shape the
// backend answered with.
func (c *Client) ListTodos(ctx context.Context) ([]service.Task, error) {
	raw, err := c.api.Request(ctx, http.MethodGet, TodosPath, api.RequestOptions{})
	if err != nil {
		return nil, wrapError(err)
	}
	c.logger.Debug("raw list response", "shape", normalize.Classify(raw).String(), "value", raw)

	items := normalize.Normalize(raw)
	c.logger.Debug("normalized list", "count", len(items), "items", items)

	result := make([]service.Task, 0, len(items))
	for _, item := range items {
		result = append(result, toTask(item))
	}
	return result, nil
}

// CreateTodo creates a todo.
func (c *Client) CreateTodo(ctx context.Context, title string) error {
	_, err := c.api.Request(ctx, http.MethodPost, TodosPath, api.RequestOptions{
		Body: map[string]any{"title": title},
	})
	return wrapError(err)
}

// SetDone sets the completion flag of a todo.
func (c *Client) SetDone(ctx context.Context, id string, done bool) error {
	path, err := itemPath(id)
	if err != nil {
		return err
	}
	_, err = c.api.Request(ctx, http.MethodPut, path, api.RequestOptions{
		Body: map[string]any{"done": done},
	})
	return wrapError(err)
}

// DeleteTodo deletes a todo.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	path, err := itemPath(id)
	if err != nil {
		return err
	}
	_, err = c.api.Request(ctx, http.MethodDelete, path, api.RequestOptions{})
	return wrapError(err)
}

func itemPath(id string) (string, error) {
	if id == "" {
		return "", ErrNoID
	}
	return TodosPath + "/" + url.PathEscape(id), nil
}

// toTask reads the display fields of a normalized record. Values that
// are not records still become a task titled by their JSON encoding.
func toTask(item any) service.Task {
	task := service.Task{Title: normalize.Title(item)}
	if id, ok := normalize.ID(item); ok {
		task.ID = id
	}
	if rec, ok := item.(map[string]any); ok {
		task.Done = normalize.Truthy(rec["done"])
		task.Fields = rec
	}
	return task
}

// wrapError keeps the api sentinels matchable and gives deadlines a
// readable message.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
