package detect

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/perceptionlabs/yolov5rt/utils"
)

func TestConfigValidate(t *testing.T) {
	test.That(t, Config{}.Validate(), test.ShouldBeNil)
	test.That(t, Config{ScoreThreshold: 0.5, NMSThreshold: 1}.Validate(), test.ShouldBeNil)

	err := Config{ScoreThreshold: 1.5}.Validate()
	test.That(t, errors.Is(err, utils.ErrInvalidInput), test.ShouldBeTrue)

	err = Config{NMSThreshold: -0.1}.Validate()
	test.That(t, errors.Is(err, utils.ErrInvalidInput), test.ShouldBeTrue)
}

func TestConfigThresholdDefaults(t *testing.T) {
	test.That(t, Config{}.scoreThresholdOrDefault(), test.ShouldEqual, DefaultScoreThreshold)
	test.That(t, Config{}.nmsThresholdOrDefault(), test.ShouldEqual, DefaultNMSThreshold)
	test.That(t, Config{ScoreThreshold: 0.25}.scoreThresholdOrDefault(), test.ShouldEqual, 0.25)
	test.That(t, Config{NMSThreshold: 0.75}.nmsThresholdOrDefault(), test.ShouldEqual, 0.75)
}
