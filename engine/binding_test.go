package engine_test

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/perceptionlabs/yolov5rt/engine"
	"github.com/perceptionlabs/yolov5rt/sim"
	"github.com/perceptionlabs/yolov5rt/utils"
)

func TestDims(t *testing.T) {
	d := engine.Dims{2, 3, 640, 640}
	test.That(t, d.Rank(), test.ShouldEqual, 4)
	test.That(t, d.Volume(), test.ShouldEqual, 2457600)
	test.That(t, d.IsDynamic(), test.ShouldBeFalse)
	test.That(t, d.String(), test.ShouldEqual, "(2, 3, 640, 640)")

	test.That(t, engine.Dims{}.Volume(), test.ShouldEqual, 0)
	test.That(t, engine.Dims{1, -1, 85}.IsDynamic(), test.ShouldBeTrue)
}

func TestBindingByName(t *testing.T) {
	eng := sim.NewDetectionEngine(sim.NewDevice(), 2, 640, 640, 25200, 80)

	input, err := engine.BindingByName(eng, "images")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, input.Index(), test.ShouldEqual, 0)
	test.That(t, input.Name(), test.ShouldEqual, "images")
	test.That(t, input.Dims(), test.ShouldResemble, engine.Dims{2, 3, 640, 640})
	test.That(t, input.Volume(), test.ShouldEqual, 2*3*640*640)
	test.That(t, input.IsInput(), test.ShouldBeTrue)

	output, err := engine.BindingByName(eng, "output")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, output.Index(), test.ShouldEqual, 1)
	test.That(t, output.Dims(), test.ShouldResemble, engine.Dims{2, 25200, 85})
	test.That(t, output.IsInput(), test.ShouldBeFalse)

	_, err = engine.BindingByName(eng, "boxes")
	test.That(t, errors.Is(err, utils.ErrModel), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, `no binding named "boxes"`)
}

func TestBindingByIndex(t *testing.T) {
	eng := sim.NewDetectionEngine(sim.NewDevice(), 1, 320, 320, 6300, 2)

	b, err := engine.BindingByIndex(eng, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Name(), test.ShouldEqual, "output")
	test.That(t, b.Dims(), test.ShouldResemble, engine.Dims{1, 6300, 7})

	_, err = engine.BindingByIndex(eng, 2)
	test.That(t, errors.Is(err, utils.ErrModel), test.ShouldBeTrue)
	_, err = engine.BindingByIndex(eng, -1)
	test.That(t, errors.Is(err, utils.ErrModel), test.ShouldBeTrue)
}

func TestBindingValidation(t *testing.T) {
	dev := sim.NewDevice()

	dynamic := sim.NewEngine(dev,
		sim.Binding{Name: "images", Dims: engine.Dims{-1, 3, 640, 640}, Input: true},
	)
	_, err := engine.BindingByName(dynamic, "images")
	test.That(t, errors.Is(err, utils.ErrModel), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "dynamic")

	flatInput := sim.NewEngine(dev,
		sim.Binding{Name: "images", Dims: engine.Dims{3, 640, 640}, Input: true},
	)
	_, err = engine.BindingByName(flatInput, "images")
	test.That(t, errors.Is(err, utils.ErrModel), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected rank 4")

	flatOutput := sim.NewEngine(dev,
		sim.Binding{Name: "output", Dims: engine.Dims{25200, 85}},
	)
	_, err = engine.BindingByName(flatOutput, "output")
	test.That(t, errors.Is(err, utils.ErrModel), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected rank 3")
}
