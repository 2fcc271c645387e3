package detect

import (
	"fmt"
	"image"
)

// Detection is one detected object: a bounding box in original-image pixel
// coordinates, the winning class, and a combined confidence score.
type Detection interface {
	// BoundingBox returns a box around the object in original-image pixels.
	BoundingBox() *image.Rectangle
	// Score returns the combined confidence of the detection, in [0,1].
	Score() float64
	// ClassID returns the numeric class of the object.
	ClassID() int
	// Label returns the class name, or "" when no class table was supplied.
	Label() string
}

// detection2D is a simple struct for storing detections.
type detection2D struct {
	boundingBox image.Rectangle
	score       float64
	classID     int
	label       string
}

// NewDetection creates a 2D detection.
func NewDetection(boundingBox image.Rectangle, score float64, classID int, label string) Detection {
	return &detection2D{boundingBox, score, classID, label}
}

// BoundingBox returns a bounding box around the detected object.
func (d *detection2D) BoundingBox() *image.Rectangle {
	return &d.boundingBox
}

// Score returns a confidence score of the detection between 0.0 and 1.0.
func (d *detection2D) Score() float64 {
	return d.score
}

// ClassID returns the class index the detection scored highest on.
func (d *detection2D) ClassID() int {
	return d.classID
}

// Label returns the class name of the object in the bounding box.
func (d *detection2D) Label() string {
	return d.label
}

func (d *detection2D) String() string {
	if d.label == "" {
		return fmt.Sprintf("class %d (score %.2f): %v", d.classID, d.score, d.boundingBox)
	}
	return fmt.Sprintf("%s (score %.2f): %v", d.label, d.score, d.boundingBox)
}
