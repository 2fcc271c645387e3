package detect_test

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/perceptionlabs/yolov5rt/detect"
	"github.com/perceptionlabs/yolov5rt/device"
	"github.com/perceptionlabs/yolov5rt/engine"
	"github.com/perceptionlabs/yolov5rt/logging"
	"github.com/perceptionlabs/yolov5rt/perf"
	"github.com/perceptionlabs/yolov5rt/sim"
	"github.com/perceptionlabs/yolov5rt/utils"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

var white = color.RGBA{255, 255, 255, 255}

func TestDetectorSequencing(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	d := detect.NewDetector(logger)
	test.That(t, d.IsInitialized(), test.ShouldBeFalse)
	test.That(t, d.IsEngineLoaded(), test.ShouldBeFalse)

	err := d.LoadEngineFile(ctx, "model.engine")
	test.That(t, errors.Is(err, utils.ErrNotInitialized), test.ShouldBeTrue)
	err = d.LoadEngineData(ctx, []byte{1})
	test.That(t, errors.Is(err, utils.ErrNotInitialized), test.ShouldBeTrue)
	err = d.LoadEngine(ctx, sim.NewDetectionEngine(sim.NewDevice(), 1, 4, 4, 2, 2))
	test.That(t, errors.Is(err, utils.ErrNotInitialized), test.ShouldBeTrue)

	err = d.Init(detect.Backend{}, 0)
	test.That(t, errors.Is(err, utils.ErrInvalidInput), test.ShouldBeTrue)

	test.That(t, d.Init(detect.Backend{Device: sim.NewDevice()}, 0), test.ShouldBeNil)
	test.That(t, d.IsInitialized(), test.ShouldBeTrue)

	img := solidImage(8, 8, white)
	_, err = d.Detect(ctx, img, detect.InputRGB)
	test.That(t, errors.Is(err, utils.ErrNotLoaded), test.ShouldBeTrue)
	_, err = d.DetectBatch(ctx, []image.Image{img}, detect.InputRGB)
	test.That(t, errors.Is(err, utils.ErrNotLoaded), test.ShouldBeTrue)
}

func TestDetectorInitStrategySelection(t *testing.T) {
	logger, observed := logging.NewObservedTestLogger(t)
	d := detect.NewDetector(logger)
	test.That(t, d.Init(detect.Backend{Device: sim.NewDevice()}, 0), test.ShouldBeNil)
	test.That(t, observed.FilterMessageSnippet("accelerator-bound preprocessing").Len(), test.ShouldEqual, 1)

	// A second Init keeps the strategy already selected.
	test.That(t, d.Init(detect.Backend{Device: sim.NewDevice()}, detect.PreprocessorCPU), test.ShouldBeNil)
	test.That(t, observed.FilterMessageSnippet("preprocessing").Len(), test.ShouldEqual, 1)

	logger, observed = logging.NewObservedTestLogger(t)
	d = detect.NewDetector(logger)
	test.That(t, d.Init(detect.Backend{Device: sim.NewDevice()}, detect.PreprocessorCPU), test.ShouldBeNil)
	test.That(t, observed.FilterMessageSnippet("cpu-bound preprocessing").Len(), test.ShouldEqual, 1)

	// A runtime without accelerator-resident image support falls back to the
	// CPU strategy unless the accelerator was explicitly required.
	bare := struct{ device.Runtime }{sim.NewDevice()}
	logger, observed = logging.NewObservedTestLogger(t)
	d = detect.NewDetector(logger)
	test.That(t, d.Init(detect.Backend{Device: bare}, 0), test.ShouldBeNil)
	test.That(t, observed.FilterMessageSnippet("cpu-bound preprocessing").Len(), test.ShouldEqual, 1)

	d = detect.NewDetector(logging.NewTestLogger(t))
	err := d.Init(detect.Backend{Device: bare}, detect.PreprocessorDevice)
	test.That(t, errors.Is(err, utils.ErrDevice), test.ShouldBeTrue)

	d = detect.NewDetector(logging.NewTestLogger(t))
	err = d.Init(detect.Backend{Device: sim.NewDevice()}, detect.PreprocessorDevice|detect.PreprocessorCPU)
	test.That(t, errors.Is(err, utils.ErrInvalidInput), test.ShouldBeTrue)
}

func TestDetectorDetect(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	dev := sim.NewDevice()
	eng := sim.NewDetectionEngine(dev, 2, 4, 4, 4, 2)
	eng.InferFunc = func(buffers [][]float32) error {
		// The input buffer must carry the letterboxed white image.
		test.That(t, buffers[0][0], test.ShouldAlmostEqual, 1.0, 1e-3)
		copy(buffers[1][0:7], []float32{2, 2, 2, 2, 1.0, 0.75, 0.5})
		return nil
	}

	d := detect.NewDetector(logger)
	test.That(t, d.Init(detect.Backend{Device: dev}, 0), test.ShouldBeNil)
	test.That(t, d.SetClasses(detect.NewClasses([]string{"person", "bicycle"})), test.ShouldBeNil)
	test.That(t, d.LoadEngine(ctx, eng), test.ShouldBeNil)
	test.That(t, d.IsEngineLoaded(), test.ShouldBeTrue)

	test.That(t, d.BatchSize(), test.ShouldEqual, 2)
	test.That(t, d.NumClasses(), test.ShouldEqual, 2)
	test.That(t, d.InferenceSize(), test.ShouldResemble, image.Pt(4, 4))

	recorder := perf.NewRecorderWithClock(clock.NewMock())
	d.SetRecorder(recorder)

	dets, err := d.Detect(ctx, solidImage(8, 8, white), detect.InputRGB)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dets, test.ShouldHaveLength, 1)
	test.That(t, *dets[0].BoundingBox(), test.ShouldResemble, image.Rect(2, 2, 6, 6))
	test.That(t, dets[0].Score(), test.ShouldEqual, 0.75)
	test.That(t, dets[0].ClassID(), test.ShouldEqual, 0)
	test.That(t, dets[0].Label(), test.ShouldEqual, "person")

	for _, stage := range []perf.Stage{perf.StagePreprocess, perf.StageInference, perf.StageDecode} {
		st, ok := recorder.Stats(stage)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, st.Count, test.ShouldEqual, 1)
	}

	test.That(t, d.Close(), test.ShouldBeNil)
}

func TestDetectorDetectFullGeometry(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	// Network-sized source, so the letterbox is the identity and the final
	// box equals the network-space box.
	dev := sim.NewDevice()
	eng := sim.NewDetectionEngine(dev, 1, 640, 640, 3, 2)
	eng.InferFunc = func(buffers [][]float32) error {
		out := buffers[1]
		copy(out[0:7], []float32{320, 320, 100, 50, 0.9, 0.8, 0.1})
		copy(out[7:14], []float32{320, 320, 100, 50, 0.3, 0.8, 0.1})
		return nil
	}

	d := detect.NewDetector(logger)
	test.That(t, d.Init(detect.Backend{Device: dev}, 0), test.ShouldBeNil)
	test.That(t, d.LoadEngine(ctx, eng), test.ShouldBeNil)
	test.That(t, d.SetScoreThreshold(0.4), test.ShouldBeNil)
	test.That(t, d.SetNMSThreshold(0.5), test.ShouldBeNil)
	test.That(t, d.InferenceSize(), test.ShouldResemble, image.Pt(640, 640))

	dets, err := d.Detect(ctx, solidImage(640, 640, white), detect.InputBGR)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dets, test.ShouldHaveLength, 1)
	test.That(t, *dets[0].BoundingBox(), test.ShouldResemble, image.Rect(270, 295, 370, 345))
	test.That(t, dets[0].Score(), test.ShouldAlmostEqual, 0.72, 1e-6)
	test.That(t, dets[0].ClassID(), test.ShouldEqual, 0)
	test.That(t, dets[0].Label(), test.ShouldEqual, "")

	test.That(t, d.Close(), test.ShouldBeNil)
}

func TestDetectorDetectBatch(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	dev := sim.NewDevice()
	eng := sim.NewDetectionEngine(dev, 2, 4, 4, 4, 2)
	eng.InferFunc = func(buffers [][]float32) error {
		out := buffers[1]
		copy(out[0:7], []float32{2, 2, 2, 2, 1.0, 0.75, 0.5})
		// Second image: two candidates on the same box, the weaker one is
		// suppressed.
		copy(out[28:35], []float32{2, 2, 2, 2, 1.0, 0, 1.0})
		copy(out[35:42], []float32{2, 2, 2, 2, 0.75, 0.75, 0})
		return nil
	}

	d := detect.NewDetector(logger)
	test.That(t, d.Init(detect.Backend{Device: dev}, detect.PreprocessorCPU), test.ShouldBeNil)
	test.That(t, d.SetClasses(detect.NewClasses([]string{"person", "bicycle"})), test.ShouldBeNil)
	test.That(t, d.LoadEngine(ctx, eng), test.ShouldBeNil)

	images := []image.Image{solidImage(8, 8, white), solidImage(8, 8, white)}
	res, err := d.DetectBatch(ctx, images, detect.InputRGB)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res, test.ShouldHaveLength, 2)

	test.That(t, res[0], test.ShouldHaveLength, 1)
	test.That(t, *res[0][0].BoundingBox(), test.ShouldResemble, image.Rect(2, 2, 6, 6))
	test.That(t, res[0][0].Label(), test.ShouldEqual, "person")

	test.That(t, res[1], test.ShouldHaveLength, 1)
	test.That(t, res[1][0].Score(), test.ShouldEqual, 1.0)
	test.That(t, res[1][0].ClassID(), test.ShouldEqual, 1)
	test.That(t, res[1][0].Label(), test.ShouldEqual, "bicycle")

	_, err = d.DetectBatch(ctx, nil, detect.InputRGB)
	test.That(t, errors.Is(err, utils.ErrInvalidInput), test.ShouldBeTrue)

	tooMany := []image.Image{images[0], images[1], images[0]}
	_, err = d.DetectBatch(ctx, tooMany, detect.InputRGB)
	test.That(t, errors.Is(err, utils.ErrInvalidInput), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "exceed the engine batch size")

	test.That(t, d.Close(), test.ShouldBeNil)
}

func TestDetectorLoadEngineValidation(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()
	dev := sim.NewDevice()

	newInitialized := func() *detect.Detector {
		d := detect.NewDetector(logger)
		test.That(t, d.Init(detect.Backend{Device: dev}, 0), test.ShouldBeNil)
		return d
	}

	d := newInitialized()
	err := d.LoadEngine(ctx, nil)
	test.That(t, errors.Is(err, utils.ErrInvalidInput), test.ShouldBeTrue)

	err = d.LoadEngine(ctx, sim.NewEngine(dev,
		sim.Binding{Name: "output", Dims: engine.Dims{1, 4, 7}},
	))
	test.That(t, errors.Is(err, utils.ErrModel), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, `no binding named "images"`)

	err = d.LoadEngine(ctx, sim.NewEngine(dev,
		sim.Binding{Name: "images", Dims: engine.Dims{1, 4, 4, 4}, Input: true},
		sim.Binding{Name: "output", Dims: engine.Dims{1, 4, 7}},
	))
	test.That(t, errors.Is(err, utils.ErrModel), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected 3")

	err = d.LoadEngine(ctx, sim.NewEngine(dev,
		sim.Binding{Name: "images", Dims: engine.Dims{1, 3, 4, 4}, Input: true},
		sim.Binding{Name: "output", Dims: engine.Dims{1, 4, 5}},
	))
	test.That(t, errors.Is(err, utils.ErrModel), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "class scores")

	badCtx := sim.NewDetectionEngine(dev, 1, 4, 4, 2, 2)
	badCtx.NewContextFunc = func() (engine.Context, error) {
		return nil, errors.New("no contexts left")
	}
	err = d.LoadEngine(ctx, badCtx)
	test.That(t, errors.Is(err, utils.ErrModel), test.ShouldBeTrue)

	oom := sim.NewDevice()
	oom.MallocFunc = func(size int) (device.Ptr, error) {
		return 0, errors.New("out of device memory")
	}
	d2 := detect.NewDetector(logger)
	test.That(t, d2.Init(detect.Backend{Device: oom}, 0), test.ShouldBeNil)
	err = d2.LoadEngine(ctx, sim.NewDetectionEngine(oom, 1, 4, 4, 2, 2))
	test.That(t, errors.Is(err, utils.ErrAlloc), test.ShouldBeTrue)
}

func TestDetectorFailedReloadKeepsEngine(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	dev := sim.NewDevice()
	eng := sim.NewDetectionEngine(dev, 1, 4, 4, 2, 2)
	eng.InferFunc = func(buffers [][]float32) error {
		copy(buffers[1][0:7], []float32{2, 2, 2, 2, 1.0, 0.75, 0.5})
		return nil
	}

	d := detect.NewDetector(logger)
	test.That(t, d.Init(detect.Backend{Device: dev}, 0), test.ShouldBeNil)
	test.That(t, d.LoadEngine(ctx, eng), test.ShouldBeNil)

	err := d.LoadEngine(ctx, sim.NewEngine(dev,
		sim.Binding{Name: "images", Dims: engine.Dims{1, 4, 4, 4}, Input: true},
		sim.Binding{Name: "output", Dims: engine.Dims{1, 4, 7}},
	))
	test.That(t, errors.Is(err, utils.ErrModel), test.ShouldBeTrue)

	// The failed load must leave the previous engine fully usable.
	test.That(t, d.IsEngineLoaded(), test.ShouldBeTrue)
	test.That(t, eng.Closed(), test.ShouldBeFalse)
	dets, err := d.Detect(ctx, solidImage(8, 8, white), detect.InputRGB)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dets, test.ShouldHaveLength, 1)

	test.That(t, d.Close(), test.ShouldBeNil)
}

func TestDetectorReloadReplacesEngine(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	dev := sim.NewDevice()
	engA := sim.NewDetectionEngine(dev, 1, 4, 4, 2, 2)
	engB := sim.NewDetectionEngine(dev, 2, 4, 4, 4, 2)
	engB.InferFunc = func(buffers [][]float32) error {
		copy(buffers[1][0:7], []float32{2, 2, 2, 2, 1.0, 0.75, 0.5})
		return nil
	}

	d := detect.NewDetector(logger)
	test.That(t, d.Init(detect.Backend{Device: dev}, 0), test.ShouldBeNil)
	test.That(t, d.LoadEngine(ctx, engA), test.ShouldBeNil)
	test.That(t, d.BatchSize(), test.ShouldEqual, 1)
	test.That(t, dev.ActiveAllocations(), test.ShouldEqual, 2)

	test.That(t, d.LoadEngine(ctx, engB), test.ShouldBeNil)
	test.That(t, engA.Closed(), test.ShouldBeTrue)
	test.That(t, engB.Closed(), test.ShouldBeFalse)
	test.That(t, dev.Frees(), test.ShouldEqual, 2)
	test.That(t, dev.ActiveAllocations(), test.ShouldEqual, 2)
	test.That(t, d.BatchSize(), test.ShouldEqual, 2)

	dets, err := d.Detect(ctx, solidImage(8, 8, white), detect.InputRGB)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dets, test.ShouldHaveLength, 1)

	test.That(t, d.Close(), test.ShouldBeNil)
}

func TestDetectorLoadEngineData(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	dev := sim.NewDevice()
	eng := sim.NewDetectionEngine(dev, 1, 4, 4, 2, 2)

	d := detect.NewDetector(logger)
	test.That(t, d.Init(detect.Backend{Device: dev, Loader: &sim.Loader{Engine: eng}}, 0), test.ShouldBeNil)
	test.That(t, d.LoadEngineData(ctx, []byte{1, 2, 3}), test.ShouldBeNil)
	test.That(t, d.IsEngineLoaded(), test.ShouldBeTrue)
	test.That(t, d.Close(), test.ShouldBeNil)

	d = detect.NewDetector(logger)
	loader := &sim.Loader{LoadFunc: func(data []byte) (engine.Engine, error) {
		return nil, errors.New("corrupt engine blob")
	}}
	test.That(t, d.Init(detect.Backend{Device: dev, Loader: loader}, 0), test.ShouldBeNil)
	err := d.LoadEngineData(ctx, []byte{1, 2, 3})
	test.That(t, errors.Is(err, utils.ErrModel), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "could not deserialize engine")

	d = detect.NewDetector(logger)
	test.That(t, d.Init(detect.Backend{Device: dev}, 0), test.ShouldBeNil)
	err = d.LoadEngineData(ctx, []byte{1, 2, 3})
	test.That(t, errors.Is(err, utils.ErrInvalidInput), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no engine loader")
}

func TestDetectorLoadEngineFile(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	dev := sim.NewDevice()
	eng := sim.NewDetectionEngine(dev, 1, 4, 4, 2, 2)

	var gotData []byte
	loader := &sim.Loader{LoadFunc: func(data []byte) (engine.Engine, error) {
		gotData = data
		return eng, nil
	}}

	path := filepath.Join(t.TempDir(), "model.engine")
	test.That(t, os.WriteFile(path, []byte("serialized engine"), 0o600), test.ShouldBeNil)

	d := detect.NewDetector(logger)
	test.That(t, d.Init(detect.Backend{Device: dev, Loader: loader}, 0), test.ShouldBeNil)
	test.That(t, d.LoadEngineFile(ctx, path), test.ShouldBeNil)
	test.That(t, gotData, test.ShouldResemble, []byte("serialized engine"))
	test.That(t, d.IsEngineLoaded(), test.ShouldBeTrue)
	test.That(t, d.Close(), test.ShouldBeNil)

	d = detect.NewDetector(logger)
	test.That(t, d.Init(detect.Backend{Device: dev, Loader: loader}, 0), test.ShouldBeNil)
	err := d.LoadEngineFile(ctx, filepath.Join(t.TempDir(), "missing.engine"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "could not read engine file")
}

func TestDetectorSetters(t *testing.T) {
	d := detect.NewDetector(logging.NewTestLogger(t))

	test.That(t, d.ScoreThreshold(), test.ShouldEqual, detect.DefaultScoreThreshold)
	test.That(t, d.NMSThreshold(), test.ShouldEqual, detect.DefaultNMSThreshold)

	test.That(t, d.SetScoreThreshold(0.6), test.ShouldBeNil)
	test.That(t, d.ScoreThreshold(), test.ShouldEqual, 0.6)
	err := d.SetScoreThreshold(1.5)
	test.That(t, errors.Is(err, utils.ErrInvalidInput), test.ShouldBeTrue)
	test.That(t, d.ScoreThreshold(), test.ShouldEqual, 0.6)

	test.That(t, d.SetNMSThreshold(0.3), test.ShouldBeNil)
	test.That(t, d.NMSThreshold(), test.ShouldEqual, 0.3)
	err = d.SetNMSThreshold(-0.1)
	test.That(t, errors.Is(err, utils.ErrInvalidInput), test.ShouldBeTrue)

	err = d.SetClasses(detect.NewClasses(nil))
	test.That(t, errors.Is(err, utils.ErrInvalidInput), test.ShouldBeTrue)
	test.That(t, d.SetClasses(detect.NewClasses([]string{"person"})), test.ShouldBeNil)
}

func TestDetectorAccessorsWithoutEngine(t *testing.T) {
	d := detect.NewDetector(logging.NewTestLogger(t))
	test.That(t, d.NumClasses(), test.ShouldEqual, 0)
	test.That(t, d.BatchSize(), test.ShouldEqual, 0)
	test.That(t, d.InferenceSize(), test.ShouldResemble, image.Point{})
}

func TestDetectorClose(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	dev := sim.NewDevice()
	eng := sim.NewDetectionEngine(dev, 1, 4, 4, 2, 2)
	eng.InferFunc = func(buffers [][]float32) error {
		copy(buffers[1][0:7], []float32{2, 2, 2, 2, 1.0, 0.75, 0.5})
		return nil
	}

	d := detect.NewDetector(logger)
	test.That(t, d.Init(detect.Backend{Device: dev}, 0), test.ShouldBeNil)
	test.That(t, d.LoadEngine(ctx, eng), test.ShouldBeNil)

	img := solidImage(8, 8, white)
	_, err := d.Detect(ctx, img, detect.InputRGB)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, d.Close(), test.ShouldBeNil)
	test.That(t, d.IsEngineLoaded(), test.ShouldBeFalse)
	test.That(t, eng.Closed(), test.ShouldBeTrue)
	test.That(t, dev.ActiveAllocations(), test.ShouldEqual, 0)
	test.That(t, dev.ActiveStreams(), test.ShouldEqual, 0)

	_, err = d.Detect(ctx, img, detect.InputRGB)
	test.That(t, errors.Is(err, utils.ErrNotLoaded), test.ShouldBeTrue)

	// A closed detector stays initialized and can load a fresh engine.
	eng2 := sim.NewDetectionEngine(dev, 1, 4, 4, 2, 2)
	eng2.InferFunc = eng.InferFunc
	test.That(t, d.LoadEngine(ctx, eng2), test.ShouldBeNil)
	dets, err := d.Detect(ctx, img, detect.InputRGB)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dets, test.ShouldHaveLength, 1)
	test.That(t, d.Close(), test.ShouldBeNil)
}

func TestNewDetectorFromConfig(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	dev := sim.NewDevice()
	eng := sim.NewDetectionEngine(dev, 2, 4, 4, 4, 2)
	backend := detect.Backend{Device: dev, Loader: &sim.Loader{Engine: eng}}

	dir := t.TempDir()
	enginePath := filepath.Join(dir, "model.engine")
	test.That(t, os.WriteFile(enginePath, []byte("blob"), 0o600), test.ShouldBeNil)
	classPath := filepath.Join(dir, "names.txt")
	test.That(t, os.WriteFile(classPath, []byte("person\nbicycle\n"), 0o600), test.ShouldBeNil)

	conf := detect.Config{
		EnginePath:     enginePath,
		ClassNamesPath: classPath,
		ScoreThreshold: 0.3,
		NMSThreshold:   0.6,
	}
	d, err := detect.NewDetectorFromConfig(ctx, conf, backend, 0, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d.IsEngineLoaded(), test.ShouldBeTrue)
	test.That(t, d.ScoreThreshold(), test.ShouldEqual, 0.3)
	test.That(t, d.NMSThreshold(), test.ShouldEqual, 0.6)
	test.That(t, d.Close(), test.ShouldBeNil)

	_, err = detect.NewDetectorFromConfig(ctx, detect.Config{ScoreThreshold: 2}, backend, 0, logger)
	test.That(t, errors.Is(err, utils.ErrInvalidInput), test.ShouldBeTrue)

	badClasses := detect.Config{ClassNamesPath: filepath.Join(dir, "missing.txt")}
	_, err = detect.NewDetectorFromConfig(ctx, badClasses, backend, 0, logger)
	test.That(t, err, test.ShouldNotBeNil)
}
