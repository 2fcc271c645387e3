// Package detect runs YOLOv5-family object detection over images. A Detector
// drives the whole pipeline: letterbox preprocessing into accelerator memory,
// engine execution, output copy-back, and decoding of the raw output tensor
// into labeled, non-overlapping detections in original-image coordinates.
package detect

import (
	"context"
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"
	"gorgonia.org/tensor"

	"github.com/perceptionlabs/yolov5rt/device"
	"github.com/perceptionlabs/yolov5rt/engine"
	"github.com/perceptionlabs/yolov5rt/logging"
	"github.com/perceptionlabs/yolov5rt/perf"
	"github.com/perceptionlabs/yolov5rt/preprocess"
	"github.com/perceptionlabs/yolov5rt/utils"
)

// Binding names the pipeline requires of a loaded engine.
const (
	inputBindingName  = "images"
	outputBindingName = "output"
)

// Backend bundles the runtime collaborators a Detector executes against.
type Backend struct {
	// Device is the accelerator runtime owning memory and streams.
	Device device.Runtime
	// Loader deserializes opaque engine bytes. Only LoadEngineData and
	// LoadEngineFile need it.
	Loader engine.Loader
}

// Detector is the detection pipeline around one loaded engine.
//
// A Detector is not safe for concurrent use: device memory, the host output
// buffer, and the preprocessor's working buffers are mutated in place across
// a whole detect call, so callers must serialize access to an instance, e.g.
// one instance per worker.
type Detector struct {
	logger logging.Logger

	scoreThreshold float64
	nmsThreshold   float64
	classes        Classes
	recorder       *perf.Recorder

	initialized bool
	backend     Backend
	preproc     preprocess.Preprocessor

	eng           engine.Engine
	execCtx       engine.Context
	inputBinding  engine.Binding
	outputBinding engine.Binding
	memory        *engine.DeviceMemory
	hostOutput    *tensor.Dense
}

// NewDetector returns a detector with default thresholds. Init must run
// before an engine can be loaded. A nil logger falls back to a named
// production logger.
func NewDetector(logger logging.Logger) *Detector {
	if logger == nil {
		logger = logging.NewLogger("detect")
	}
	return &Detector{
		logger:         logger,
		scoreThreshold: DefaultScoreThreshold,
		nmsThreshold:   DefaultNMSThreshold,
	}
}

// NewDetectorFromConfig builds an initialized detector in one step:
// thresholds from conf, plus the engine and class table when conf names them.
func NewDetectorFromConfig(
	ctx context.Context,
	conf Config,
	backend Backend,
	flags Flag,
	logger logging.Logger,
) (*Detector, error) {
	ctx, span := trace.StartSpan(ctx, "detect::NewDetectorFromConfig")
	defer span.End()

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	d := NewDetector(logger)
	d.scoreThreshold = conf.scoreThresholdOrDefault()
	d.nmsThreshold = conf.nmsThresholdOrDefault()
	if err := d.Init(backend, flags); err != nil {
		return nil, err
	}
	if conf.ClassNamesPath != "" {
		classes, err := LoadClassesFile(conf.ClassNamesPath)
		if err != nil {
			return nil, err
		}
		if err := d.SetClasses(classes); err != nil {
			return nil, err
		}
	}
	if conf.EnginePath != "" {
		if err := d.LoadEngineFile(ctx, conf.EnginePath); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Init prepares the detector against a backend and selects the preprocessing
// strategy. Without a variant flag the accelerator-bound strategy is used
// when the device runtime supports it and the CPU strategy otherwise;
// PreprocessorDevice makes accelerator support a hard requirement rather than
// a preference. Idempotent: once initialized, further calls keep the backend
// and strategy already in place.
func (d *Detector) Init(backend Backend, flags Flag) error {
	if backend.Device == nil {
		return errors.Wrap(utils.ErrInvalidInput, "backend has no device runtime")
	}
	if d.initialized {
		return nil
	}

	if flags.Has(PreprocessorDevice) && flags.Has(PreprocessorCPU) {
		return errors.Wrap(utils.ErrInvalidInput,
			"PreprocessorDevice and PreprocessorCPU are mutually exclusive")
	}
	_, hasImageOps := backend.Device.(preprocess.DeviceImageOps)
	if flags.Has(PreprocessorDevice) && !hasImageOps {
		return errors.Wrap(utils.ErrDevice,
			"accelerator-bound preprocessing requested, but the device runtime does not support it")
	}

	if hasImageOps && !flags.Has(PreprocessorCPU) {
		preproc, err := preprocess.NewDevice(backend.Device, d.logger.Sublogger("preprocess"))
		if err != nil {
			return err
		}
		d.logger.Info("using accelerator-bound preprocessing")
		d.preproc = preproc
	} else {
		d.logger.Info("using cpu-bound preprocessing")
		d.preproc = preprocess.NewCPU(backend.Device, d.logger.Sublogger("preprocess"))
	}

	d.backend = backend
	d.initialized = true
	return nil
}

// IsInitialized reports whether Init has completed.
func (d *Detector) IsInitialized() bool {
	return d.initialized
}

// IsEngineLoaded reports whether an engine is currently loaded.
func (d *Detector) IsEngineLoaded() bool {
	return d.eng != nil
}

// LoadEngineFile reads serialized engine bytes from a file and loads them
// through the backend's loader.
func (d *Detector) LoadEngineFile(ctx context.Context, path string) error {
	if !d.initialized {
		return errors.Wrap(utils.ErrNotInitialized, "load engine")
	}
	d.logger.Infof("loading inference engine from %q", path)
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return errors.Wrapf(err, "could not read engine file %q", path)
	}
	return d.LoadEngineData(ctx, data)
}

// LoadEngineData deserializes engine bytes through the backend's loader and
// loads the result.
func (d *Detector) LoadEngineData(ctx context.Context, data []byte) error {
	if !d.initialized {
		return errors.Wrap(utils.ErrNotInitialized, "load engine")
	}
	if d.backend.Loader == nil {
		return errors.Wrap(utils.ErrInvalidInput, "backend has no engine loader")
	}
	d.logger.Info("deserializing inference engine, this may take a while")
	eng, err := d.backend.Loader.Load(data)
	if err != nil {
		return errors.Wrapf(utils.ErrModel, "could not deserialize engine: %v", err)
	}
	return d.LoadEngine(ctx, eng)
}

// LoadEngine takes ownership of an already-deserialized engine and binds the
// pipeline to it. Binding resolution, device memory, and the host output
// buffer are fully constructed before the previous engine (if any) is
// replaced and released, so a failed load leaves the prior state usable.
func (d *Detector) LoadEngine(ctx context.Context, eng engine.Engine) error {
	_, span := trace.StartSpan(ctx, "detect::LoadEngine")
	defer span.End()

	if !d.initialized {
		return errors.Wrap(utils.ErrNotInitialized, "load engine")
	}
	if eng == nil {
		return errors.Wrap(utils.ErrInvalidInput, "nil engine")
	}

	d.logBindings(eng)

	input, err := engine.BindingByName(eng, inputBindingName)
	if err != nil {
		return err
	}
	if channels := input.Dims()[1]; channels != 3 {
		return errors.Wrapf(utils.ErrModel, "input binding carries %d channels, expected 3", channels)
	}
	output, err := engine.BindingByName(eng, outputBindingName)
	if err != nil {
		return err
	}
	if rowSize := output.Dims()[2]; rowSize < 6 {
		return errors.Wrapf(utils.ErrModel, "output rows of %d values leave no class scores", rowSize)
	}

	execCtx, err := eng.NewContext()
	if err != nil {
		return errors.Wrapf(utils.ErrModel, "could not create execution context: %v", err)
	}
	memory, err := engine.SetupDeviceMemory(eng, d.backend.Device)
	if err != nil {
		return multierr.Append(err, execCtx.Close())
	}
	hostOutput := tensor.New(
		tensor.WithShape(output.Dims()...),
		tensor.Of(tensor.Float32),
	)

	// Commit point: nothing past here can fail. Swap in the new state, then
	// release what it replaced.
	if d.IsEngineLoaded() {
		d.logger.Info("an engine is already loaded, replacing it")
	}
	oldEng, oldCtx, oldMem := d.eng, d.execCtx, d.memory

	d.eng = eng
	d.execCtx = execCtx
	d.inputBinding = input
	d.outputBinding = output
	d.memory = memory
	d.hostOutput = hostOutput

	var released error
	if oldCtx != nil {
		released = multierr.Append(released, oldCtx.Close())
	}
	if oldEng != nil {
		released = multierr.Append(released, oldEng.Close())
	}
	if oldMem != nil {
		released = multierr.Append(released, oldMem.Release())
	}
	if released != nil {
		d.logger.Warnw("failed to fully release replaced engine state", "error", released)
	}

	// Geometry may have changed; the preprocessor rebuilds on its next setup.
	d.preproc.Reset()

	d.logger.Info("successfully loaded inference engine")
	return nil
}

func (d *Detector) logBindings(eng engine.Engine) {
	for i := 0; i < eng.BindingCount(); i++ {
		d.logger.Debugf("binding %d - %q: isInput: %v, dims: %s",
			i, eng.BindingName(i), eng.BindingIsInput(i), eng.BindingDims(i))
	}
}

// Detect runs the pipeline over a single image and returns the detections
// found in it. flags declares the channel order of img.
func (d *Detector) Detect(ctx context.Context, img image.Image, flags Flag) ([]Detection, error) {
	ctx, span := trace.StartSpan(ctx, "detect::Detect")
	defer span.End()

	if !d.IsEngineLoaded() {
		return nil, errors.Wrap(utils.ErrNotLoaded, "detect")
	}

	if err := d.preprocess(ctx, []image.Image{img}, flags); err != nil {
		return nil, err
	}
	if err := d.inference(ctx); err != nil {
		return nil, err
	}

	defer d.recorder.Time(perf.StageDecode)()
	return d.decodeOutput(0), nil
}

// DetectBatch runs the pipeline over up to BatchSize images in one engine
// pass and returns one detection list per image, in input order.
func (d *Detector) DetectBatch(ctx context.Context, images []image.Image, flags Flag) ([][]Detection, error) {
	ctx, span := trace.StartSpan(ctx, "detect::DetectBatch")
	defer span.End()

	if !d.IsEngineLoaded() {
		return nil, errors.Wrap(utils.ErrNotLoaded, "detect batch")
	}
	if len(images) == 0 {
		return nil, errors.Wrap(utils.ErrInvalidInput, "no images supplied")
	}
	if len(images) > d.batchSize() {
		return nil, errors.Wrapf(utils.ErrInvalidInput,
			"%d images exceed the engine batch size of %d", len(images), d.batchSize())
	}

	if err := d.preprocess(ctx, images, flags); err != nil {
		return nil, err
	}
	if err := d.inference(ctx); err != nil {
		return nil, err
	}

	defer d.recorder.Time(perf.StageDecode)()
	out := make([][]Detection, len(images))
	for i := range images {
		out[i] = d.decodeOutput(i)
	}
	return out, nil
}

// preprocess pushes the images through the preprocessing strategy into the
// engine's input memory.
func (d *Detector) preprocess(ctx context.Context, images []image.Image, flags Flag) error {
	_, span := trace.StartSpan(ctx, "detect::preprocess")
	defer span.End()
	defer d.recorder.Time(perf.StagePreprocess)()

	err := d.preproc.Setup(d.inputBinding.Dims(), flags, d.batchSize(), d.memory.At(d.inputBinding.Index()))
	if err != nil {
		return err
	}
	for i, img := range images {
		if err := d.preproc.Process(i, img, i == len(images)-1); err != nil {
			return errors.Wrapf(err, "preprocessing image %d", i)
		}
	}
	return nil
}

// inference submits the batch for execution on the preprocessing stream,
// schedules the output copy-back, and waits for the stream to drain. On
// success the host output buffer is valid.
func (d *Detector) inference(ctx context.Context) error {
	_, span := trace.StartSpan(ctx, "detect::inference")
	defer span.End()
	defer d.recorder.Time(perf.StageInference)()

	if err := d.execCtx.Enqueue(d.memory.Pointers(), d.preproc.Stream()); err != nil {
		return errors.Wrapf(utils.ErrDevice, "could not enqueue inference: %v", err)
	}

	out := d.hostOutput.Data().([]float32)
	if err := d.backend.Device.CopyFromDevice(out, d.memory.At(d.outputBinding.Index()), d.preproc.Stream()); err != nil {
		return errors.Wrapf(utils.ErrDevice, "could not schedule output transfer: %v", err)
	}

	return d.preproc.SynchronizeStream()
}

// NumClasses returns the number of classes the loaded engine scores, or 0
// when no engine is loaded.
func (d *Detector) NumClasses() int {
	if !d.IsEngineLoaded() {
		d.logger.Warn("numClasses requested with no engine loaded")
		return 0
	}
	return d.numClasses()
}

func (d *Detector) numClasses() int {
	return d.outputBinding.Dims()[2] - 5
}

// BatchSize returns the engine's compiled batch capacity, or 0 when no
// engine is loaded.
func (d *Detector) BatchSize() int {
	if !d.IsEngineLoaded() {
		d.logger.Warn("batchSize requested with no engine loaded")
		return 0
	}
	return d.batchSize()
}

func (d *Detector) batchSize() int {
	return d.inputBinding.Dims()[0]
}

// InferenceSize returns the network's fixed input size as (width, height),
// or the zero point when no engine is loaded.
func (d *Detector) InferenceSize() image.Point {
	if !d.IsEngineLoaded() {
		d.logger.Warn("inferenceSize requested with no engine loaded")
		return image.Point{}
	}
	dims := d.inputBinding.Dims()
	return image.Pt(dims[3], dims[2])
}

// ScoreThreshold returns the minimum combined confidence a candidate needs
// to survive decoding.
func (d *Detector) ScoreThreshold() float64 {
	return d.scoreThreshold
}

// SetScoreThreshold replaces the candidate confidence cutoff; v must be in
// [0,1].
func (d *Detector) SetScoreThreshold(v float64) error {
	if v < 0 || v > 1 {
		return errors.Wrapf(utils.ErrInvalidInput, "score threshold %v outside of [0,1]", v)
	}
	d.scoreThreshold = v
	return nil
}

// NMSThreshold returns the IoU cutoff above which overlapping detections are
// suppressed.
func (d *Detector) NMSThreshold() float64 {
	return d.nmsThreshold
}

// SetNMSThreshold replaces the suppression IoU cutoff; v must be in [0,1].
func (d *Detector) SetNMSThreshold(v float64) error {
	if v < 0 || v > 1 {
		return errors.Wrapf(utils.ErrInvalidInput, "nms threshold %v outside of [0,1]", v)
	}
	d.nmsThreshold = v
	return nil
}

// SetClasses supplies the class-name table used to label detections from
// here on. Already-returned detections keep the labels they were built with.
func (d *Detector) SetClasses(classes Classes) error {
	if !classes.Loaded() {
		return errors.Wrap(utils.ErrInvalidInput, "empty class table")
	}
	d.classes = classes
	return nil
}

// SetRecorder attaches a latency recorder to the pipeline stages; nil
// detaches it.
func (d *Detector) SetRecorder(r *perf.Recorder) {
	d.recorder = r
}

// Close releases the loaded engine, its device memory, and the preprocessing
// stream. A closed detector stays initialized and can load a fresh engine.
func (d *Detector) Close() error {
	var err error
	if d.execCtx != nil {
		err = multierr.Append(err, d.execCtx.Close())
		d.execCtx = nil
	}
	if d.eng != nil {
		err = multierr.Append(err, d.eng.Close())
		d.eng = nil
	}
	if d.memory != nil {
		err = multierr.Append(err, d.memory.Release())
		d.memory = nil
	}
	if d.preproc != nil {
		err = multierr.Append(err, d.preproc.Close())
	}
	d.hostOutput = nil
	return err
}
