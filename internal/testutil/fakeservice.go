// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"todo/internal/service"
)

// ErrNotFound is returned when a todo is not found.
var ErrNotFound = errors.New("not found")

// Call records one mutating call made on a FakeService.
type Call struct {
	Method string
	ID     string
	Title  string
	Done   bool
}

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu    sync.RWMutex
	tasks []service.Task
	calls []Call
	lists int

	// Error injection for testing
	ListTodosErr  error
	CreateTodoErr error
	SetDoneErr    error
	DeleteTodoErr error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{}
}

// AddTask adds a todo and returns it.
func (f *FakeService) AddTask(id, title string, done bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	task := service.Task{
		ID:     id,
		Title:  title,
		Done:   done,
		Fields: map[string]any{"id": id, "title": title, "done": done},
	}
	if id == "" {
		delete(task.Fields, "id")
	}
	f.tasks = append(f.tasks, task)
	return task
}

// Tasks returns a copy of the stored todos.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Task(nil), f.tasks...)
}

// Calls returns the mutating calls in order.
func (f *FakeService) Calls() []Call {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Call(nil), f.calls...)
}

// ListCount returns how many times ListTodos was called.
func (f *FakeService) ListCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lists
}

// ListTodos implements service.Service.
func (f *FakeService) ListTodos(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.ListTodosErr != nil {
		return nil, f.ListTodosErr
	}
	return append([]service.Task(nil), f.tasks...), nil
}

// CreateTodo implements service.Service.
func (f *FakeService) CreateTodo(ctx context.Context, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "CreateTodo", Title: title})
	if f.CreateTodoErr != nil {
		return f.CreateTodoErr
	}

	id := uuid.NewString()
	f.tasks = append(f.tasks, service.Task{
		ID:     id,
		Title:  title,
		Fields: map[string]any{"id": id, "title": title, "done": false},
	})
	return nil
}

// SetDone implements service.Service.
func (f *FakeService) SetDone(ctx context.Context, id string, done bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "SetDone", ID: id, Done: done})
	if f.SetDoneErr != nil {
		return f.SetDoneErr
	}

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i].Done = done
			if f.tasks[i].Fields != nil {
				f.tasks[i].Fields["done"] = done
			}
			return nil
		}
	}
	return ErrNotFound
}

// DeleteTodo implements service.Service.
func (f *FakeService) DeleteTodo(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "DeleteTodo", ID: id})
	if f.DeleteTodoErr != nil {
		return f.DeleteTodoErr
	}

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
