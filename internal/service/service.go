// Package service defines the backend-agnostic interface for todo operations.
package service

import "context"

// Service defines the interface for todo backend operations.
// Commands never talk HTTP directly.
type Service interface {
	// ListTodos returns every todo in backend order.
	ListTodos(ctx context.Context) ([]Task, error)

	// CreateTodo creates a todo with the given title.
	CreateTodo(ctx context.Context, title string) error

	// SetDone sets the completion flag of the todo with the given ID.
	SetDone(ctx context.Context, id string, done bool) error

	// DeleteTodo deletes the todo with the given ID.
	DeleteTodo(ctx context.Context, id string) error
}
