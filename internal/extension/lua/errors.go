package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNotFunction is returned when calling a global that is not a function.
	ErrNotFunction = errors.New("lua value is not a function")

	// ErrExecutionTimeout is returned when a call outlives the execution timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrPanic wraps a Go panic recovered from the interpreter.
	ErrPanic = errors.New("lua panic")
)
