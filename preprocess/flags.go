package preprocess

import (
	"github.com/pkg/errors"

	"github.com/perceptionlabs/yolov5rt/utils"
)

// Flag configures how the pipeline interprets supplied images and which
// preprocessing strategy it uses.
type Flag uint32

const (
	// InputBGR declares that supplied frames carry blue-green-red channel
	// order, as raw camera pipelines typically do. This is the default when
	// neither order flag is set.
	InputBGR Flag = 1 << iota
	// InputRGB declares red-green-blue channel order.
	InputRGB
	// PreprocessorDevice selects the accelerator-bound preprocessing strategy.
	// Requesting it on a device runtime without image-op support is a hard
	// failure, never a silent fallback.
	PreprocessorDevice
	// PreprocessorCPU selects the CPU-bound preprocessing strategy, which is
	// always available.
	PreprocessorCPU
)

// Has reports whether all bits of other are set in f.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

// ChannelOrder is the declared channel order of supplied frames.
type ChannelOrder int

// Channel orders.
const (
	OrderBGR ChannelOrder = iota
	OrderRGB
)

func (o ChannelOrder) String() string {
	if o == OrderRGB {
		return "RGB"
	}
	return "BGR"
}

// ChannelOrderFromFlags returns the channel order selected by flags. Setting
// both order flags is an invalid input error; setting neither defaults to BGR.
func ChannelOrderFromFlags(flags Flag) (ChannelOrder, error) {
	switch {
	case flags.Has(InputBGR) && flags.Has(InputRGB):
		return OrderBGR, errors.Wrap(utils.ErrInvalidInput, "InputBGR and InputRGB are mutually exclusive")
	case flags.Has(InputRGB):
		return OrderRGB, nil
	default:
		return OrderBGR, nil
	}
}
