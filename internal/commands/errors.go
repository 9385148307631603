package commands

import (
	"errors"
	"fmt"
	"io"

	"todo/internal/api"
	"todo/internal/backend/todoapi"
	"todo/internal/exitcode"
)

// backendError prints err and returns the matching exit code.
func backendError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, api.ErrUnauthenticated):
		fmt.Fprintln(errOut, "error: not logged in (run: todo login)")
		return exitcode.AuthError
	case errors.Is(err, api.ErrUnauthorized):
		fmt.Fprintln(errOut, "error: session rejected by the server, logged out (run: todo login)")
		return exitcode.AuthError
	case errors.Is(err, todoapi.ErrNoID):
		fmt.Fprintln(errOut, "error: task has no id and cannot be changed")
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// configError prints a settings or session-storage failure.
func configError(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: config error: %v\n", err)
	return exitcode.AuthError
}
