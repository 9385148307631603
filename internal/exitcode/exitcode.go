// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task reference).
	UserError = 1

	// AuthError indicates a missing, expired or rejected session, or
	// incomplete settings.
	AuthError = 2

	// BackendError indicates an API, network or response-format error.
	BackendError = 3
)
