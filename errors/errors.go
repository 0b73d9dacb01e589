package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrToolNotFound indicates that a named tool is not registered
	ErrToolNotFound = errors.New("tool not found")

	// ErrMethodNotFound indicates an unknown protocol method
	ErrMethodNotFound = errors.New("method not found")

	// ErrLoopExhausted indicates the reasoning loop hit its iteration cap
	// without an accepted result
	ErrLoopExhausted = errors.New("reasoning loop exhausted")

	// ErrStoreUnavailable indicates the persistent store is unreachable
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrQueryExecution indicates the persistent store rejected a statement
	ErrQueryExecution = errors.New("query execution failed")
)
