package api

import "errors"

var (
	// ErrUnauthenticated means no token is stored locally. No request was sent.
	ErrUnauthenticated = errors.New("not logged in")

	// ErrUnauthorized means the server rejected the token with 401.
	// The session has been cleared; the call must not be retried.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidResponse means the response body, or the JSON string
	// nested in its "body" field, is not valid JSON.
	ErrInvalidResponse = errors.New("invalid response")
)
