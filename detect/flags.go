package detect

import "github.com/perceptionlabs/yolov5rt/preprocess"

// Flag is re-exported from the preprocess package so callers can drive a
// Detector without importing both.
type Flag = preprocess.Flag

// Flags accepted by Init, Detect, and DetectBatch. The order flags describe
// the channel layout of supplied images and are read on every call; the
// preprocessor flags select the strategy once, at Init.
const (
	InputBGR           = preprocess.InputBGR
	InputRGB           = preprocess.InputRGB
	PreprocessorDevice = preprocess.PreprocessorDevice
	PreprocessorCPU    = preprocess.PreprocessorCPU
)
