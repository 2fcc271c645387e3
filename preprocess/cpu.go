package preprocess

import (
	"image"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/perceptionlabs/yolov5rt/device"
	"github.com/perceptionlabs/yolov5rt/engine"
	"github.com/perceptionlabs/yolov5rt/logging"
	"github.com/perceptionlabs/yolov5rt/utils"
)

// cpuPreprocessor letterboxes on the host into a staging tensor and issues a
// single whole-buffer transfer to device memory when the last image of the
// batch has been processed.
type cpuPreprocessor struct {
	base
	hostInput *tensor.Dense
}

// NewCPU returns the CPU-bound preprocessing strategy. It works with any
// device runtime.
func NewCPU(dev device.Runtime, logger logging.Logger) Preprocessor {
	return &cpuPreprocessor{base: base{logger: logger, dev: dev}}
}

func (p *cpuPreprocessor) Setup(inputDims engine.Dims, flags Flag, batchSize int, input device.Ptr) error {
	rebuild, err := p.configure(inputDims, flags, batchSize, input)
	if err != nil {
		return err
	}
	if !rebuild {
		return nil
	}
	p.hostInput = tensor.New(
		tensor.WithShape(batchSize, 3, p.rows, p.cols),
		tensor.Of(tensor.Float32),
	)
	p.logger.Debugf("cpu preprocessor ready: batch %d, input %dx%d, order %s",
		batchSize, p.cols, p.rows, p.order)
	return nil
}

func (p *cpuPreprocessor) Process(index int, img image.Image, lastInBatch bool) error {
	if err := p.checkProcess(index, img); err != nil {
		return err
	}
	t := NewTransform(img.Bounds().Size(), image.Pt(p.cols, p.rows))
	p.recordTransform(index, t)

	data := p.hostInput.Data().([]float32)
	stride := 3 * p.channelVolume()
	if err := LetterboxPlanes(img, t, p.order, p.cols, p.rows, data[index*stride:(index+1)*stride]); err != nil {
		return err
	}

	if lastInBatch {
		if err := p.dev.CopyToDevice(p.inputPtr, data, p.stream); err != nil {
			return errors.Wrapf(utils.ErrDevice, "input transfer: %v", err)
		}
	}
	return nil
}
