package detect

import (
	"github.com/pkg/errors"

	"github.com/perceptionlabs/yolov5rt/utils"
)

// Threshold values used when a Config leaves them unset.
const (
	DefaultScoreThreshold = 0.4
	DefaultNMSThreshold   = 0.4
)

// Config contains the parameters of a detector instance. Zero-valued
// thresholds mean "use the default", so a Config can come straight out of a
// JSON attribute map with only the fields the caller cares about.
type Config struct {
	EnginePath     string  `json:"engine_path,omitempty"`
	ClassNamesPath string  `json:"class_names_path,omitempty"`
	ScoreThreshold float64 `json:"score_threshold,omitempty"`
	NMSThreshold   float64 `json:"nms_threshold,omitempty"`
}

// Validate checks that the thresholds are within [0,1].
func (c Config) Validate() error {
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return errors.Wrapf(utils.ErrInvalidInput, "score threshold %v outside of [0,1]", c.ScoreThreshold)
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		return errors.Wrapf(utils.ErrInvalidInput, "nms threshold %v outside of [0,1]", c.NMSThreshold)
	}
	return nil
}

// scoreThresholdOrDefault returns the configured score threshold, or the
// default when unset.
func (c Config) scoreThresholdOrDefault() float64 {
	if c.ScoreThreshold == 0 {
		return DefaultScoreThreshold
	}
	return c.ScoreThreshold
}

// nmsThresholdOrDefault returns the configured NMS threshold, or the default
// when unset.
func (c Config) nmsThresholdOrDefault() float64 {
	if c.NMSThreshold == 0 {
		return DefaultNMSThreshold
	}
	return c.NMSThreshold
}
