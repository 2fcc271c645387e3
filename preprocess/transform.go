package preprocess

import (
	"image"
	"math"

	"github.com/perceptionlabs/yolov5rt/utils"
)

// Transform captures the letterbox mapping used to fit one source image into
// the network's fixed geometry: the scale factor and the left/top padding
// offsets. It is recorded per image during preprocessing and consumed during
// decoding to map network-space boxes back to original image coordinates.
type Transform struct {
	originalSize image.Point
	scale        float64
	leftPad      int
	topPad       int
}

// NewTransform computes the letterbox mapping from a source image size to the
// network size. The scale is min(Nh/H, Nw/W); the scaled box is centered with
// the floor of the slack on the left/top and the remainder on the right/
// bottom. A source equal to the network size maps to the identity.
func NewTransform(src, network image.Point) Transform {
	if src == network {
		return Transform{originalSize: src, scale: 1}
	}
	scale := math.Min(
		float64(network.Y)/float64(src.Y),
		float64(network.X)/float64(src.X))
	boxW := int(float64(src.X) * scale)
	boxH := int(float64(src.Y) * scale)
	dc := network.X - boxW
	dr := network.Y - boxH
	return Transform{
		originalSize: src,
		scale:        scale,
		leftPad:      dc / 2,
		topPad:       dr / 2,
	}
}

// OriginalSize returns the source image size the transform was built for.
func (t Transform) OriginalSize() image.Point {
	return t.originalSize
}

// Scale returns the letterbox scale factor. Always > 0 for a transform built
// by NewTransform on non-empty sizes.
func (t Transform) Scale() float64 {
	return t.scale
}

// Padding returns the left and top padding in network pixels.
func (t Transform) Padding() (left, top int) {
	return t.leftPad, t.topPad
}

// ScaledSize returns the size of the scaled image box inside the network
// canvas, before padding.
func (t Transform) ScaledSize() image.Point {
	return image.Pt(
		int(float64(t.originalSize.X)*t.scale),
		int(float64(t.originalSize.Y)*t.scale))
}

// TransformBbox maps a network-space box back to original image coordinates,
// clamping the result inside the original image bounds.
func (t Transform) TransformBbox(bbox image.Rectangle) image.Rectangle {
	w := t.originalSize.X
	h := t.originalSize.Y

	x := int(utils.Clamp((float64(bbox.Min.X)-float64(t.leftPad))/t.scale, 0, float64(w-1)))
	y := int(utils.Clamp((float64(bbox.Min.Y)-float64(t.topPad))/t.scale, 0, float64(h-1)))
	bw := utils.MinInt(int(float64(bbox.Dx())/t.scale), w-x)
	bh := utils.MinInt(int(float64(bbox.Dy())/t.scale), h-y)
	return image.Rect(x, y, x+bw, y+bh)
}
