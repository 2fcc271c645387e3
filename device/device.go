// Package device defines the accelerator runtime boundary the detection
// pipeline drives: raw device memory, ordered work streams, and asynchronous
// host/device copies. Concrete runtimes (CUDA, simulation) implement Runtime;
// the pipeline itself never touches device memory except through it.
package device

// Ptr is a raw device address. The zero value is the null pointer. Addresses
// are plain integers to the pipeline: offsetting within an allocation is valid
// and used to address per-image regions of a shared buffer.
type Ptr uintptr

// IsNil reports whether p is the null pointer.
func (p Ptr) IsNil() bool {
	return p == 0
}

// Offset returns the address n bytes past p. n must keep the result inside the
// allocation p belongs to.
func (p Ptr) Offset(n int) Ptr {
	return Ptr(uintptr(p) + uintptr(n))
}

// Stream is an opaque handle to an ordered queue of device work. Operations
// submitted to one stream execute in submission order; completion is only
// guaranteed after Runtime.Synchronize returns.
type Stream uintptr

// Runtime is the set of accelerator primitives the pipeline needs. All copy
// operations are asynchronous with respect to the host and ordered on their
// stream. Implementations report failures as errors; the pipeline translates
// them into its device error kind.
type Runtime interface {
	// Malloc allocates size bytes of device memory. The returned memory is
	// zeroed.
	Malloc(size int) (Ptr, error)
	// Free releases memory returned by Malloc. Freeing the null pointer is a
	// no-op.
	Free(p Ptr) error

	// CreateStream creates a new ordered work stream.
	CreateStream() (Stream, error)
	// DestroyStream releases a stream. Pending work is completed first.
	DestroyStream(s Stream) error
	// Synchronize blocks until all work submitted to the stream has completed.
	Synchronize(s Stream) error

	// CopyToDevice schedules an asynchronous host-to-device copy of
	// len(src) float32 values to dst.
	CopyToDevice(dst Ptr, src []float32, s Stream) error
	// CopyFromDevice schedules an asynchronous device-to-host copy of
	// len(dst) float32 values from src.
	CopyFromDevice(dst []float32, src Ptr, s Stream) error
}
