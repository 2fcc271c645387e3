// Package engine defines the inference engine boundary consumed by the
// detection pipeline, plus the pipeline's view of a loaded engine: binding
// metadata resolution and the device memory arena bound to an engine's slots.
//
// An Engine is a pre-compiled, fixed-shape network. The pipeline never parses
// an engine's serialized form; deserialization (Loader) and compilation
// (Builder) are performed by the backend providing the implementation.
package engine

import (
	"context"

	"github.com/perceptionlabs/yolov5rt/device"
)

// Engine is an opaque, already-deserialized inference engine. It exposes its
// tensor slots ("bindings") and creates execution contexts. Implementations
// wrap a concrete runtime (TensorRT, a simulator) and pair with the
// device.Runtime their buffers live on.
type Engine interface {
	// BindingCount returns the number of tensor slots.
	BindingCount() int
	// BindingIndex returns the slot index for a name, or -1 when the name is
	// unknown.
	BindingIndex(name string) int
	// BindingName returns the name of the slot at index, or "" when out of
	// range.
	BindingName(index int) string
	// BindingDims returns the fixed dimensions of the slot at index.
	BindingDims(index int) Dims
	// BindingIsInput reports whether the slot at index is an input.
	BindingIsInput(index int) bool

	// NewContext creates an execution context for this engine.
	NewContext() (Context, error)
	// Close releases the engine.
	Close() error
}

// Context executes an engine against bound device memory.
type Context interface {
	// Enqueue schedules one inference pass on the stream. buffers holds one
	// device pointer per binding slot, ordered by slot index, exactly as
	// produced by DeviceMemory.Pointers. The call returns once the work is
	// queued; completion is observed by synchronizing the stream.
	Enqueue(buffers []device.Ptr, stream device.Stream) error
	// Close releases the context.
	Close() error
}

// Loader deserializes opaque engine bytes produced by a Builder. The pipeline
// treats the data as a black box.
type Loader interface {
	Load(data []byte) (Engine, error)
}

// Precision selects the numeric precision an engine is built with.
type Precision int

// Supported build precisions.
const (
	PrecisionFP32 Precision = iota
	PrecisionFP16
)

func (p Precision) String() string {
	switch p {
	case PrecisionFP32:
		return "FP32"
	case PrecisionFP16:
		return "FP16"
	}
	return "unknown"
}

// Builder compiles a model definition into opaque engine bytes. Building can
// take minutes on real backends, hence the context. The pipeline only defines
// this boundary; it never builds engines itself.
type Builder interface {
	Build(ctx context.Context, model []byte, precision Precision) ([]byte, error)
}
