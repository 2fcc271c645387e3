// Package sim provides in-memory stand-ins for the accelerator runtime and
// the inference engine so the pipeline can be exercised without hardware.
// Every method has an injectable function field; when nil, a pure host-memory
// simulation runs instead.
package sim

import (
	"image"
	"sync"

	"github.com/pkg/errors"

	"github.com/perceptionlabs/yolov5rt/device"
	"github.com/perceptionlabs/yolov5rt/preprocess"
)

// Device simulates an accelerator runtime with plain host slices standing in
// for device memory. It also implements preprocess.DeviceImageOps, so both
// preprocessing strategies run against it.
type Device struct {
	MallocFunc            func(size int) (device.Ptr, error)
	FreeFunc              func(ptr device.Ptr) error
	CreateStreamFunc      func() (device.Stream, error)
	DestroyStreamFunc     func(stream device.Stream) error
	SynchronizeFunc       func(stream device.Stream) error
	CopyToDeviceFunc      func(dst device.Ptr, src []float32, stream device.Stream) error
	CopyFromDeviceFunc    func(dst []float32, src device.Ptr, stream device.Stream) error
	LetterboxToDeviceFunc func(img image.Image, t preprocess.Transform, order preprocess.ChannelOrder,
		cols, rows int, dst device.Ptr, stream device.Stream) error

	mu          sync.Mutex
	nextAddr    uintptr
	nextStream  uintptr
	allocations map[device.Ptr][]float32
	streams     map[device.Stream]bool
	frees       int
	syncs       int
}

var (
	_ = device.Runtime(&Device{})
	_ = preprocess.DeviceImageOps(&Device{})
)

// NewDevice returns a simulated runtime with no memory allocated.
func NewDevice() *Device {
	return &Device{
		nextAddr:    0x1000,
		nextStream:  1,
		allocations: map[device.Ptr][]float32{},
		streams:     map[device.Stream]bool{},
	}
}

// resolve locates the allocation containing ptr and returns the slice
// starting at its offset.
func (d *Device) resolve(ptr device.Ptr) ([]float32, error) {
	for base, data := range d.allocations {
		end := base.Offset(len(data) * 4)
		if ptr >= base && ptr < end {
			return data[(uintptr(ptr)-uintptr(base))/4:], nil
		}
	}
	return nil, errors.Errorf("pointer %#x does not belong to any allocation", uintptr(ptr))
}

// Malloc calls the injected MallocFunc or allocates a zeroed host slice.
func (d *Device) Malloc(size int) (device.Ptr, error) {
	if d.MallocFunc != nil {
		return d.MallocFunc(size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if size <= 0 {
		return 0, errors.Errorf("malloc of %d bytes", size)
	}
	ptr := device.Ptr(d.nextAddr)
	d.allocations[ptr] = make([]float32, (size+3)/4)
	d.nextAddr += uintptr((size+3)/4*4) + 0x100
	return ptr, nil
}

// Free calls the injected FreeFunc or releases the simulated allocation.
func (d *Device) Free(ptr device.Ptr) error {
	if d.FreeFunc != nil {
		return d.FreeFunc(ptr)
	}
	if ptr.IsNil() {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.allocations[ptr]; !ok {
		return errors.Errorf("free of unknown pointer %#x", uintptr(ptr))
	}
	delete(d.allocations, ptr)
	d.frees++
	return nil
}

// CreateStream calls the injected CreateStreamFunc or hands out a new handle.
func (d *Device) CreateStream() (device.Stream, error) {
	if d.CreateStreamFunc != nil {
		return d.CreateStreamFunc()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	stream := device.Stream(d.nextStream)
	d.nextStream++
	d.streams[stream] = true
	return stream, nil
}

// DestroyStream calls the injected DestroyStreamFunc or retires the handle.
func (d *Device) DestroyStream(stream device.Stream) error {
	if d.DestroyStreamFunc != nil {
		return d.DestroyStreamFunc(stream)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.streams[stream] {
		return errors.Errorf("destroy of unknown stream %d", stream)
	}
	delete(d.streams, stream)
	return nil
}

// Synchronize calls the injected SynchronizeFunc or does nothing; simulated
// copies complete immediately.
func (d *Device) Synchronize(stream device.Stream) error {
	if d.SynchronizeFunc != nil {
		return d.SynchronizeFunc(stream)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.streams[stream] {
		return errors.Errorf("synchronize of unknown stream %d", stream)
	}
	d.syncs++
	return nil
}

// CopyToDevice calls the injected CopyToDeviceFunc or copies into the
// simulated allocation.
func (d *Device) CopyToDevice(dst device.Ptr, src []float32, stream device.Stream) error {
	if d.CopyToDeviceFunc != nil {
		return d.CopyToDeviceFunc(dst, src, stream)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, err := d.resolve(dst)
	if err != nil {
		return err
	}
	if len(src) > len(buf) {
		return errors.Errorf("copy of %d values into %d remaining", len(src), len(buf))
	}
	copy(buf, src)
	return nil
}

// CopyFromDevice calls the injected CopyFromDeviceFunc or copies out of the
// simulated allocation.
func (d *Device) CopyFromDevice(dst []float32, src device.Ptr, stream device.Stream) error {
	if d.CopyFromDeviceFunc != nil {
		return d.CopyFromDeviceFunc(dst, src, stream)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, err := d.resolve(src)
	if err != nil {
		return err
	}
	if len(dst) > len(buf) {
		return errors.Errorf("copy of %d values out of %d remaining", len(dst), len(buf))
	}
	copy(dst, buf[:len(dst)])
	return nil
}

// LetterboxToDevice calls the injected LetterboxToDeviceFunc or renders the
// image directly into the simulated allocation, the same way the CPU strategy
// renders into its staging buffer.
func (d *Device) LetterboxToDevice(img image.Image, t preprocess.Transform, order preprocess.ChannelOrder,
	cols, rows int, dst device.Ptr, stream device.Stream,
) error {
	if d.LetterboxToDeviceFunc != nil {
		return d.LetterboxToDeviceFunc(img, t, order, cols, rows, dst, stream)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, err := d.resolve(dst)
	if err != nil {
		return err
	}
	if len(buf) > 3*rows*cols {
		buf = buf[:3*rows*cols]
	}
	return preprocess.LetterboxPlanes(img, t, order, cols, rows, buf)
}

// ActiveAllocations reports how many simulated allocations are live.
func (d *Device) ActiveAllocations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.allocations)
}

// ActiveStreams reports how many simulated streams are live.
func (d *Device) ActiveStreams() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.streams)
}

// Frees reports how many allocations have been released.
func (d *Device) Frees() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frees
}
