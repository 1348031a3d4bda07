package domain

import "errors"

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoSession indicates an operation that needs a current session
	ErrNoSession = errors.New("no current session")
	// ErrStreamActive indicates a stream is already open for the scope
	ErrStreamActive = errors.New("stream already active")
)
