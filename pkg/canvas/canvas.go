// Package canvas assembles reduced strips into the final output image.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/ritammehta/frame-by-frame/pkg/frame"
)

var (
	// ErrDimensionMismatch means a strip does not fit its canvas slot.
	ErrDimensionMismatch = errors.New("strip does not match canvas slot")

	// ErrDuplicateWrite means a strip position was written twice.
	ErrDuplicateWrite = errors.New("strip position already written")

	// ErrIncomplete means Finish found unwritten positions and no fill
	// policy was configured.
	ErrIncomplete = errors.New("unwritten strip positions")

	// ErrCanvasTooLarge means the requested canvas exceeds the allocation
	// cap.
	ErrCanvasTooLarge = errors.New("canvas dimensions too large")
)

// maxPixels caps canvas allocation at 1 GiB of NRGBA.
const maxPixels = 1 << 28

// Canvas is the output raster under assembly. WriteStrip is safe to call
// from multiple goroutines; each position may be written at most once.
type Canvas struct {
	mu      sync.Mutex
	img     *image.NRGBA
	written []bool
	wrote   int

	strips    int
	thickness int
	length    int
	dir       frame.Direction
}

// Begin allocates the full canvas upfront: strips*thickness pixels along the
// time axis and length along the other.
func Begin(strips, thickness, length int, dir frame.Direction) (*Canvas, error) {
	if strips < 1 || thickness < 1 || length < 1 {
		return nil, fmt.Errorf("canvas needs positive dimensions, got strips=%d thickness=%d length=%d",
			strips, thickness, length)
	}

	var w, h int
	switch dir {
	case frame.Horizontal:
		w, h = strips*thickness, length
	case frame.Vertical:
		w, h = length, strips*thickness
	default:
		return nil, fmt.Errorf("invalid direction %q", dir)
	}
	if int64(w)*int64(h) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasTooLarge, w, h)
	}

	return &Canvas{
		img:       image.NewNRGBA(image.Rect(0, 0, w, h)),
		written:   make([]bool, strips),
		strips:    strips,
		thickness: thickness,
		length:    length,
		dir:       dir,
	}, nil
}

// Strips returns the number of slots along the time axis.
func (c *Canvas) Strips() int { return c.strips }

// Bounds returns the full canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }

// WriteStrip copies a strip into its slot on the time axis.
func (c *Canvas) WriteStrip(pos int, strip *image.NRGBA) error {
	if pos < 0 || pos >= c.strips {
		return fmt.Errorf("strip position %d out of range [0,%d)", pos, c.strips)
	}
	if strip == nil {
		return fmt.Errorf("%w: nil strip at position %d", ErrDimensionMismatch, pos)
	}

	wantW, wantH := c.thickness, c.length
	if c.dir == frame.Vertical {
		wantW, wantH = c.length, c.thickness
	}
	if strip.Bounds().Dx() != wantW || strip.Bounds().Dy() != wantH {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrDimensionMismatch,
			strip.Bounds().Dx(), strip.Bounds().Dy(), wantW, wantH)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.written[pos] {
		return fmt.Errorf("%w: position %d", ErrDuplicateWrite, pos)
	}
	draw.Draw(c.img, c.slotRect(pos), strip, strip.Bounds().Min, draw.Src)
	c.written[pos] = true
	c.wrote++
	return nil
}

// Missing returns how many positions have not been written yet.
func (c *Canvas) Missing() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strips - c.wrote
}

// Finish finalizes the canvas and returns the assembled image. Unwritten
// positions fail with ErrIncomplete unless fillNeutral is set, in which case
// they are painted opaque black. All writes must have settled before Finish
// is called.
func (c *Canvas) Finish(fillNeutral bool) (*image.NRGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.wrote < c.strips {
		if !fillNeutral {
			return nil, fmt.Errorf("%w: %d of %d", ErrIncomplete, c.strips-c.wrote, c.strips)
		}
		black := image.NewUniform(color.NRGBA{A: 0xff})
		for pos, ok := range c.written {
			if ok {
				continue
			}
			draw.Draw(c.img, c.slotRect(pos), black, image.Point{}, draw.Src)
			c.written[pos] = true
			c.wrote++
		}
	}
	return c.img, nil
}

func (c *Canvas) slotRect(pos int) image.Rectangle {
	if c.dir == frame.Horizontal {
		return image.Rect(pos*c.thickness, 0, (pos+1)*c.thickness, c.length)
	}
	return image.Rect(0, pos*c.thickness, c.length, (pos+1)*c.thickness)
}
