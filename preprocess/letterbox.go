package preprocess

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/perceptionlabs/yolov5rt/utils"
)

// LetterboxPlanes renders img through t into a cols by rows canvas, normalizes
// each channel to [0,1], and writes the planar R, G, B layout to out. order
// declares the channel ordering of the source image: with OrderBGR the
// source's red accessor is taken to hold blue and vice versa. out must hold
// 3*rows*cols values.
func LetterboxPlanes(img image.Image, t Transform, order ChannelOrder, cols, rows int, out []float32) error {
	if len(out) < 3*rows*cols {
		return errors.Wrapf(utils.ErrInvalidInput, "plane buffer holds %d values, need %d", len(out), 3*rows*cols)
	}
	if img.Bounds().Size() == image.Pt(cols, rows) {
		writePlanes(img, order, cols, rows, out)
		return nil
	}

	scaled := img
	scaledSize := t.ScaledSize()
	if img.Bounds().Size() != scaledSize {
		scaled = resize.Resize(uint(scaledSize.X), uint(scaledSize.Y), img, resize.Bilinear)
	}
	canvas := image.NewRGBA(image.Rect(0, 0, cols, rows))
	left, top := t.Padding()
	draw.Draw(canvas,
		image.Rect(left, top, left+scaledSize.X, top+scaledSize.Y),
		scaled, scaled.Bounds().Min, draw.Src)
	writePlanes(canvas, order, cols, rows, out)
	return nil
}

// writePlanes splits img into planar channels at out[0], out[cv], out[2*cv]
// where cv is the per-channel volume. The planes are always stored R, G, B;
// order determines which source channel lands in which plane.
func writePlanes(img image.Image, order ChannelOrder, cols, rows int, out []float32) {
	cv := rows * cols
	// Plane offsets for the channels as the image accessor reports them. A
	// BGR source stores what the accessor calls red in the blue plane.
	c0Off, c1Off, c2Off := 0, cv, 2*cv
	if order == OrderBGR {
		c0Off, c2Off = c2Off, c0Off
	}

	bounds := img.Bounds()
	i := 0
	for y := bounds.Min.Y; y < bounds.Min.Y+rows; y++ {
		for x := bounds.Min.X; x < bounds.Min.X+cols; x++ {
			c0, c1, c2, _ := img.At(x, y).RGBA()
			out[c0Off+i] = float32(c0>>8) / 255.0
			out[c1Off+i] = float32(c1>>8) / 255.0
			out[c2Off+i] = float32(c2>>8) / 255.0
			i++
		}
	}
}
