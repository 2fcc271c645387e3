package utils

import (
	"github.com/pkg/errors"
)

// Error kinds returned by pipeline entry points. Failures are built by wrapping
// one of these sentinels (errors.Wrap/Wrapf) so callers can classify them with
// errors.Is while the message carries the detail.
var (
	// ErrInvalidInput indicates a caller contract violation: bad flags, a batch
	// larger than the engine's compiled batch size, an empty batch, a nil image,
	// or a threshold outside [0, 1].
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotInitialized indicates Init was skipped.
	ErrNotInitialized = errors.New("not initialized")

	// ErrNotLoaded indicates no engine has been loaded.
	ErrNotLoaded = errors.New("no engine loaded")

	// ErrModel indicates the loaded engine's shape or metadata does not match
	// what the pipeline requires.
	ErrModel = errors.New("model error")

	// ErrDevice indicates a copy, stream, enqueue, or synchronization failure
	// reported by the device runtime, or a device capability the runtime lacks.
	ErrDevice = errors.New("device error")

	// ErrAlloc indicates the device runtime could not allocate memory.
	ErrAlloc = errors.New("allocation error")

	// ErrOther indicates an unclassified processing failure.
	ErrOther = errors.New("processing error")
)
