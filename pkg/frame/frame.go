// Package frame reduces decoded video frames to the thin color strips that
// make up the final visualization, and holds the post passes that run over
// the assembled image.
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Direction is the axis frames are concatenated along: Horizontal lays
// vertical strips left to right, Vertical stacks horizontal strips top to
// bottom.
type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

// ParseDirection validates a direction name.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Horizontal, Vertical:
		return Direction(s), nil
	}
	return "", fmt.Errorf("invalid direction %q", s)
}

// ErrBadFrame reports a frame that cannot be reduced.
var ErrBadFrame = errors.New("bad frame")

// Reduce resizes a frame down to a single strip: thickness pixels along the
// concatenation axis and length along the other. Box filtering folds every
// source pixel into the result, so the strip is an area-weighted summary of
// the whole frame rather than a point sample.
func Reduce(img image.Image, length, thickness int, dir Direction) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrBadFrame)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("%w: zero area", ErrBadFrame)
	}
	if length < 1 || thickness < 1 {
		return nil, fmt.Errorf("strip size must be positive, got length=%d thickness=%d", length, thickness)
	}
	switch dir {
	case Horizontal:
		return imaging.Resize(img, thickness, length, imaging.Box), nil
	case Vertical:
		return imaging.Resize(img, length, thickness, imaging.Box), nil
	}
	return nil, fmt.Errorf("invalid direction %q", dir)
}

// Average returns the mean color of an image, the same area average a 1x1
// Box resize produces.
func Average(img image.Image) color.NRGBA {
	bounds := img.Bounds()

	var redSum float64
	var greenSum float64
	var blueSum float64

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			col := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			redSum += float64(col.R)
			greenSum += float64(col.G)
			blueSum += float64(col.B)
		}
	}

	area := float64(bounds.Dx() * bounds.Dy())

	return color.NRGBA{
		R: uint8(math.Round(redSum / area)),
		G: uint8(math.Round(greenSum / area)),
		B: uint8(math.Round(blueSum / area)),
		A: 0xff,
	}
}

// AverageAxis collapses the strip-length axis to a single pixel and expands
// it back, leaving every line along the time axis a uniform average color.
func AverageAxis(img *image.NRGBA, dir Direction) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	switch dir {
	case Horizontal:
		collapsed := imaging.Resize(img, w, 1, imaging.Box)
		return imaging.Resize(collapsed, w, h, imaging.Box)
	case Vertical:
		collapsed := imaging.Resize(img, 1, h, imaging.Box)
		return imaging.Resize(collapsed, w, h, imaging.Box)
	}
	return img
}

// MotionBlur smooths the image along the strip-length axis with a box kernel
// of the given size, softening transitions without smearing the time axis.
// Sizes below 2 leave the image untouched.
func MotionBlur(img *image.NRGBA, dir Direction, size int) *image.NRGBA {
	if size < 2 {
		return img
	}
	switch dir {
	case Horizontal:
		return boxBlur1D(img, size, false)
	case Vertical:
		return boxBlur1D(img, size, true)
	}
	return img
}

// boxBlur1D runs a clamped box average along rows (alongX) or columns of an
// NRGBA image.
func boxBlur1D(src *image.NRGBA, size int, alongX bool) *image.NRGBA {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	radius := size / 2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var lo, hi int
			if alongX {
				lo, hi = clampWindow(x, radius, w)
			} else {
				lo, hi = clampWindow(y, radius, h)
			}

			var rs, gs, bs, as int
			for i := lo; i <= hi; i++ {
				var o int
				if alongX {
					o = src.PixOffset(bounds.Min.X+i, bounds.Min.Y+y)
				} else {
					o = src.PixOffset(bounds.Min.X+x, bounds.Min.Y+i)
				}
				rs += int(src.Pix[o])
				gs += int(src.Pix[o+1])
				bs += int(src.Pix[o+2])
				as += int(src.Pix[o+3])
			}

			n := hi - lo + 1
			o := dst.PixOffset(x, y)
			dst.Pix[o] = uint8((rs + n/2) / n)
			dst.Pix[o+1] = uint8((gs + n/2) / n)
			dst.Pix[o+2] = uint8((bs + n/2) / n)
			dst.Pix[o+3] = uint8((as + n/2) / n)
		}
	}
	return dst
}

func clampWindow(center, radius, limit int) (int, int) {
	lo := center - radius
	hi := center + radius
	if lo < 0 {
		lo = 0
	}
	if hi > limit-1 {
		hi = limit - 1
	}
	return lo, hi
}
