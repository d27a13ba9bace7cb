package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritammehta/frame-by-frame/pkg/frame"
)

func solidStrip(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestBeginSizing(t *testing.T) {
	c, err := Begin(10, 2, 8, frame.Horizontal)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 8), c.Bounds())
	assert.Equal(t, 10, c.Strips())

	c, err = Begin(10, 2, 8, frame.Vertical)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 20), c.Bounds())
}

func TestBeginRejectsBadDimensions(t *testing.T) {
	_, err := Begin(0, 1, 8, frame.Horizontal)
	assert.Error(t, err)

	_, err = Begin(10, 1, 8, frame.Direction("diagonal"))
	assert.Error(t, err)

	_, err = Begin(1<<20, 1, 1<<20, frame.Horizontal)
	assert.ErrorIs(t, err, ErrCanvasTooLarge)
}

func TestWriteStripPlacement(t *testing.T) {
	c, err := Begin(3, 1, 4, frame.Horizontal)
	require.NoError(t, err)

	colors := []color.NRGBA{
		{R: 10, A: 255},
		{G: 20, A: 255},
		{B: 30, A: 255},
	}
	for pos, col := range colors {
		require.NoError(t, c.WriteStrip(pos, solidStrip(1, 4, col)))
	}
	assert.Equal(t, 0, c.Missing())

	img, err := c.Finish(false)
	require.NoError(t, err)
	for pos, col := range colors {
		for y := 0; y < 4; y++ {
			assert.Equal(t, col, img.NRGBAAt(pos, y), "column %d row %d", pos, y)
		}
	}
}

func TestWriteStripDuplicate(t *testing.T) {
	c, err := Begin(2, 1, 4, frame.Horizontal)
	require.NoError(t, err)

	first := color.NRGBA{R: 200, A: 255}
	require.NoError(t, c.WriteStrip(0, solidStrip(1, 4, first)))

	err = c.WriteStrip(0, solidStrip(1, 4, color.NRGBA{G: 99, A: 255}))
	assert.ErrorIs(t, err, ErrDuplicateWrite)

	// The first write must be preserved.
	img, err := c.Finish(true)
	require.NoError(t, err)
	assert.Equal(t, first, img.NRGBAAt(0, 0))
}

func TestWriteStripDimensionMismatch(t *testing.T) {
	c, err := Begin(2, 1, 4, frame.Horizontal)
	require.NoError(t, err)

	err = c.WriteStrip(0, solidStrip(1, 5, color.NRGBA{A: 255}))
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = c.WriteStrip(0, solidStrip(2, 4, color.NRGBA{A: 255}))
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = c.WriteStrip(0, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = c.WriteStrip(5, solidStrip(1, 4, color.NRGBA{A: 255}))
	assert.Error(t, err)
}

func TestFinishIncomplete(t *testing.T) {
	c, err := Begin(3, 1, 2, frame.Vertical)
	require.NoError(t, err)
	require.NoError(t, c.WriteStrip(1, solidStrip(2, 1, color.NRGBA{R: 50, A: 255})))

	_, err = c.Finish(false)
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestFinishFillNeutral(t *testing.T) {
	c, err := Begin(3, 1, 2, frame.Vertical)
	require.NoError(t, err)
	written := color.NRGBA{R: 50, A: 255}
	require.NoError(t, c.WriteStrip(1, solidStrip(2, 1, written)))

	img, err := c.Finish(true)
	require.NoError(t, err)

	// Time axis length is fixed regardless of failures.
	assert.Equal(t, image.Rect(0, 0, 2, 3), img.Bounds())

	black := color.NRGBA{A: 255}
	assert.Equal(t, black, img.NRGBAAt(0, 0))
	assert.Equal(t, written, img.NRGBAAt(0, 1))
	assert.Equal(t, black, img.NRGBAAt(0, 2))
}

func TestWriteStripConcurrent(t *testing.T) {
	const strips = 64
	c, err := Begin(strips, 1, 8, frame.Horizontal)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for pos := 0; pos < strips; pos++ {
		wg.Add(1)
		go func(pos int) {
			defer wg.Done()
			col := color.NRGBA{R: uint8(pos), A: 255}
			assert.NoError(t, c.WriteStrip(pos, solidStrip(1, 8, col)))
		}(pos)
	}
	wg.Wait()

	img, err := c.Finish(false)
	require.NoError(t, err)
	for pos := 0; pos < strips; pos++ {
		assert.Equal(t, uint8(pos), img.NRGBAAt(pos, 0).R)
	}
}
