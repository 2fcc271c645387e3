package engine

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/perceptionlabs/yolov5rt/device"
	"github.com/perceptionlabs/yolov5rt/utils"
)

// ElementSize is the byte size of one tensor element. The pipeline works in
// float32 exclusively.
const ElementSize = 4

// DeviceMemory owns one device buffer per engine binding, keyed by slot index.
// It is created when an engine is loaded, swapped wholesale when an engine is
// reloaded, and released when the detector closes.
type DeviceMemory struct {
	dev  device.Runtime
	ptrs []device.Ptr
}

// SetupDeviceMemory allocates a zeroed device buffer of Volume()*ElementSize
// bytes for every binding reported by the engine, not just input and output.
// All-or-nothing: on any allocation failure, every buffer allocated so far in
// this call is released before returning.
func SetupDeviceMemory(eng Engine, dev device.Runtime) (*DeviceMemory, error) {
	count := eng.BindingCount()
	mem := &DeviceMemory{dev: dev, ptrs: make([]device.Ptr, 0, count)}
	for index := 0; index < count; index++ {
		size := eng.BindingDims(index).Volume() * ElementSize
		ptr, err := dev.Malloc(size)
		if err != nil {
			releaseErr := mem.Release()
			err = errors.Wrapf(utils.ErrAlloc,
				"could not allocate %d bytes for binding %d: %v", size, index, err)
			return nil, multierr.Append(err, releaseErr)
		}
		mem.ptrs = append(mem.ptrs, ptr)
	}
	return mem, nil
}

// At returns the device pointer for the binding at index, or the null pointer
// when index is out of range.
func (mem *DeviceMemory) At(index int) device.Ptr {
	if index < 0 || index >= len(mem.ptrs) {
		return 0
	}
	return mem.ptrs[index]
}

// Pointers returns the full ordered pointer array, one entry per binding slot,
// as required by Context.Enqueue.
func (mem *DeviceMemory) Pointers() []device.Ptr {
	return mem.ptrs
}

// Release frees every owned buffer. Safe to call more than once.
func (mem *DeviceMemory) Release() error {
	var errs error
	for _, ptr := range mem.ptrs {
		if err := mem.dev.Free(ptr); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(utils.ErrDevice, "could not free device buffer: %v", err))
		}
	}
	mem.ptrs = nil
	return errs
}
