package preprocess

import (
	"image"

	"github.com/pkg/errors"

	"github.com/perceptionlabs/yolov5rt/device"
	"github.com/perceptionlabs/yolov5rt/engine"
	"github.com/perceptionlabs/yolov5rt/logging"
	"github.com/perceptionlabs/yolov5rt/utils"
)

// devicePreprocessor delegates letterboxing to the device runtime, writing
// each image straight into its slot of the engine's input buffer with no host
// staging and no bulk transfer.
type devicePreprocessor struct {
	base
	ops DeviceImageOps
}

// NewDevice returns the accelerator-bound preprocessing strategy. The device
// runtime must implement DeviceImageOps.
func NewDevice(dev device.Runtime, logger logging.Logger) (Preprocessor, error) {
	ops, ok := dev.(DeviceImageOps)
	if !ok {
		return nil, errors.Wrap(utils.ErrDevice,
			"device runtime does not support accelerator-resident image operations")
	}
	return &devicePreprocessor{base: base{logger: logger, dev: dev}, ops: ops}, nil
}

func (p *devicePreprocessor) Setup(inputDims engine.Dims, flags Flag, batchSize int, input device.Ptr) error {
	rebuild, err := p.configure(inputDims, flags, batchSize, input)
	if err != nil {
		return err
	}
	if rebuild {
		p.logger.Debugf("device preprocessor ready: batch %d, input %dx%d, order %s",
			batchSize, p.cols, p.rows, p.order)
	}
	return nil
}

func (p *devicePreprocessor) Process(index int, img image.Image, lastInBatch bool) error {
	if err := p.checkProcess(index, img); err != nil {
		return err
	}
	t := NewTransform(img.Bounds().Size(), image.Pt(p.cols, p.rows))
	p.recordTransform(index, t)

	dst := p.inputPtr.Offset(index * 3 * p.channelVolume() * engine.ElementSize)
	if err := p.ops.LetterboxToDevice(img, t, p.order, p.cols, p.rows, dst, p.stream); err != nil {
		return errors.Wrapf(utils.ErrDevice, "device letterbox: %v", err)
	}
	return nil
}
