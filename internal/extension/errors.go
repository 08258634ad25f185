package extension

import "errors"

// Sentinel errors.
var (
	// ErrEmptyPath is returned when loading an empty discovery path.
	ErrEmptyPath = errors.New("extension: path is required")

	// ErrUnsupportedKind is returned for files the loader cannot interpret.
	ErrUnsupportedKind = errors.New("extension: unsupported module kind")

	// ErrNoEntryPoint is returned for directories without a loadable entry file.
	ErrNoEntryPoint = errors.New("extension: no entry point found")

	// ErrLoad wraps failures while evaluating module source.
	ErrLoad = errors.New("extension: load failed")

	// ErrFactoryPanic is returned when a factory panics.
	ErrFactoryPanic = errors.New("extension: factory panicked")

	// ErrBadDescriptor is returned when a factory yields something other than
	// a table or map.
	ErrBadDescriptor = errors.New("extension: descriptor must be a table")

	// ErrClosed is returned when calling into a closed module.
	ErrClosed = errors.New("extension: module closed")
)
