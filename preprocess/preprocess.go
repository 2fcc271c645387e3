// Package preprocess converts input images into the planar, normalized,
// fixed-size float32 tensor layout the engine expects, writing directly into
// accelerator input memory, and records a letterbox Transform per image so
// detections can be mapped back to original coordinates.
//
// Two interchangeable strategies implement Preprocessor: a CPU-bound one
// (always available) and an accelerator-bound one (available when the device
// runtime supports accelerator-resident image operations). Both produce
// numerically identical transforms and channel ordering.
package preprocess

import (
	"image"

	"github.com/pkg/errors"

	"github.com/perceptionlabs/yolov5rt/device"
	"github.com/perceptionlabs/yolov5rt/engine"
	"github.com/perceptionlabs/yolov5rt/logging"
	"github.com/perceptionlabs/yolov5rt/utils"
)

// Preprocessor is the shared contract of the two preprocessing strategies.
// A preprocessor starts unconfigured; Setup makes it ready, Reset forces the
// next Setup to rebuild internal state (used after an engine reload, since
// geometry may have changed).
type Preprocessor interface {
	// Setup prepares the preprocessor for batches of at most batchSize images
	// shaped by the engine's input dimensions, writing to the device buffer at
	// input. Idempotent when called again with identical channel order, batch
	// size, and geometry; the input pointer is refreshed either way.
	Setup(inputDims engine.Dims, flags Flag, batchSize int, input device.Ptr) error
	// Reset returns the preprocessor to the unconfigured state.
	Reset()
	// Process converts the image at position index within the current batch.
	// lastInBatch signals that no further images follow, letting the CPU
	// strategy issue its single bulk transfer to the device.
	Process(index int, img image.Image, lastInBatch bool) error
	// TransformBbox maps bbox from network space back to the original
	// coordinates of the image processed at index in the current batch. index
	// must refer to an image processed by the preceding Process calls;
	// otherwise bbox is returned unchanged.
	TransformBbox(index int, bbox image.Rectangle) image.Rectangle
	// Stream returns the ordered device stream all pipeline work for a call is
	// issued on.
	Stream() device.Stream
	// SynchronizeStream blocks until all work submitted to the stream has
	// completed.
	SynchronizeStream() error
	// Close releases the stream.
	Close() error
}

// DeviceImageOps is the optional capability a device.Runtime implements when
// it can letterbox, normalize, and split images directly into device memory.
// The accelerator-bound strategy requires it and is selected by type
// assertion, never by silent fallback.
type DeviceImageOps interface {
	// LetterboxToDevice renders img through the transform into a cols by rows
	// network canvas, normalizes to [0,1], and writes planar channels in the
	// given order to device memory at dst, ordered on stream.
	LetterboxToDevice(img image.Image, t Transform, order ChannelOrder,
		cols, rows int, dst device.Ptr, stream device.Stream) error
}

// base carries the state and behavior shared by both strategies.
type base struct {
	logger logging.Logger
	dev    device.Runtime

	stream    device.Stream
	hasStream bool

	ready      bool
	order      ChannelOrder
	batchSize  int
	rows, cols int
	inputPtr   device.Ptr
	transforms []Transform
}

func (b *base) ensureStream() error {
	if b.hasStream {
		return nil
	}
	stream, err := b.dev.CreateStream()
	if err != nil {
		return errors.Wrapf(utils.ErrDevice, "could not create stream: %v", err)
	}
	b.stream = stream
	b.hasStream = true
	return nil
}

// configure runs the Setup validation and bookkeeping shared by both
// strategies. It reports whether strategy buffers must be (re)built.
func (b *base) configure(inputDims engine.Dims, flags Flag, batchSize int, input device.Ptr) (bool, error) {
	order, err := ChannelOrderFromFlags(flags)
	if err != nil {
		return false, err
	}
	if batchSize < 1 {
		return false, errors.Wrapf(utils.ErrInvalidInput, "batch size %d", batchSize)
	}
	if inputDims.Rank() != 4 {
		return false, errors.Wrapf(utils.ErrModel, "input dimensions %s, expected rank 4", inputDims)
	}
	rows, cols := inputDims[2], inputDims[3]
	if err := b.ensureStream(); err != nil {
		return false, err
	}

	if b.ready && order == b.order && batchSize == b.batchSize && rows == b.rows && cols == b.cols {
		// The input buffer may have moved on an engine reload with unchanged
		// geometry.
		b.inputPtr = input
		return false, nil
	}

	b.order = order
	b.batchSize = batchSize
	b.rows = rows
	b.cols = cols
	b.inputPtr = input
	b.transforms = make([]Transform, batchSize)
	b.ready = true
	return true, nil
}

func (b *base) Reset() {
	b.ready = false
}

func (b *base) checkProcess(index int, img image.Image) error {
	if !b.ready {
		return errors.Wrap(utils.ErrNotInitialized, "preprocessor setup has not run")
	}
	if img == nil {
		return errors.Wrap(utils.ErrInvalidInput, "nil image")
	}
	if index < 0 || index >= b.batchSize {
		return errors.Wrapf(utils.ErrInvalidInput, "image index %d outside batch of %d", index, b.batchSize)
	}
	return nil
}

func (b *base) channelVolume() int {
	return b.rows * b.cols
}

func (b *base) recordTransform(index int, t Transform) {
	b.transforms[index] = t
}

func (b *base) TransformBbox(index int, bbox image.Rectangle) image.Rectangle {
	if index < 0 || index >= len(b.transforms) {
		return bbox
	}
	return b.transforms[index].TransformBbox(bbox)
}

func (b *base) Stream() device.Stream {
	return b.stream
}

func (b *base) SynchronizeStream() error {
	if !b.hasStream {
		return nil
	}
	if err := b.dev.Synchronize(b.stream); err != nil {
		return errors.Wrapf(utils.ErrDevice, "stream synchronize: %v", err)
	}
	return nil
}

func (b *base) Close() error {
	if !b.hasStream {
		return nil
	}
	b.hasStream = false
	if err := b.dev.DestroyStream(b.stream); err != nil {
		return errors.Wrapf(utils.ErrDevice, "could not destroy stream: %v", err)
	}
	return nil
}
