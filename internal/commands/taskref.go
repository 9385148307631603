package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"todo/internal/service"
)

// IDPrefix marks a reference by backend ID instead of list number.
const IDPrefix = "id:"

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int    // 1-based position in the list; 0 when ID is set
	ID  string // backend ID from an "id:<id>" reference
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ErrTaskNotFound indicates the reference matched no task.
var ErrTaskNotFound = errors.New("task not found")

// ParseTaskRef parses a task reference from args.
//
// Accepted forms:
//   - all digits: the task's number in the list (1-based)
//   - id:<id>: the task's backend ID, used as-is
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("too many arguments: %s", strings.Join(args[1:], " "))
	}

	arg := args[0]

	if id, ok := strings.CutPrefix(arg, IDPrefix); ok {
		if id == "" {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{ID: id}, nil
	}

	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil || num < 1 {
			return TaskRef{}, fmt.Errorf("task number out of range: %s", arg)
		}
		return TaskRef{Num: num}, nil
	}

	return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
}

// String returns the reference as the user typed it.
func (r TaskRef) String() string {
	if r.ID != "" {
		return IDPrefix + r.ID
	}
	return strconv.Itoa(r.Num)
}

// Resolve finds the referenced task in tasks.
func (r TaskRef) Resolve(tasks []service.Task) (service.Task, error) {
	if r.ID != "" {
		for _, t := range tasks {
			if t.ID == r.ID {
				return t, nil
			}
		}
		return service.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, r)
	}
	if r.Num < 1 || r.Num > len(tasks) {
		return service.Task{}, fmt.Errorf("%w: task number out of range: %d", ErrTaskNotFound, r.Num)
	}
	return tasks[r.Num-1], nil
}

// findTask lists the todos and resolves ref against them. Numbers refer to
// the order of a fresh listing.
func findTask(ctx context.Context, svc service.Service, ref TaskRef) (service.Task, error) {
	tasks, err := svc.ListTodos(ctx)
	if err != nil {
		return service.Task{}, err
	}
	return ref.Resolve(tasks)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
