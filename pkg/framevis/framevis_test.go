package framevis

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritammehta/frame-by-frame/pkg/canvas"
	"github.com/ritammehta/frame-by-frame/pkg/media"
)

// fakeSource serves uniform-color frames keyed by index.
type fakeSource struct {
	meta    media.Metadata
	failAt  map[int]bool
	emptyAt map[int]bool
}

func (f *fakeSource) Metadata() (media.Metadata, error) { return f.meta, nil }

func (f *fakeSource) FrameAt(_ context.Context, index int) (image.Image, error) {
	if f.failAt[index] {
		return nil, fmt.Errorf("frame %d unreadable", index)
	}
	if f.emptyAt[index] {
		return image.NewNRGBA(image.Rectangle{}), nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, f.meta.Width, f.meta.Height))
	c := color.NRGBA{R: uint8(index), G: 100, B: 50, A: 255}
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img, nil
}

func (f *fakeSource) Close() error { return nil }

type captureEncoder struct {
	img   image.Image
	path  string
	calls int
	err   error
}

func (e *captureEncoder) Encode(img image.Image, path string) error {
	e.calls++
	e.img = img
	e.path = path
	return e.err
}

func testConfig() Config {
	return Config{
		NFrames:        10,
		StripThickness: 1,
		StripLength:    8,
		Direction:      "horizontal",
		Workers:        4,
		FillNeutral:    true,
	}
}

func testSource() *fakeSource {
	return &fakeSource{
		meta:   media.Metadata{TotalFrames: 100, FrameRate: 25, Width: 32, Height: 18},
		failAt: map[int]bool{},
	}
}

func TestRunProducesBarcode(t *testing.T) {
	enc := &captureEncoder{}
	p, err := New(testConfig(), testSource(), enc, nil)
	require.NoError(t, err)

	res, err := p.Run(context.Background(), "out.png")
	require.NoError(t, err)

	assert.Equal(t, 10, res.Strips)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 10, res.Width)
	assert.Equal(t, 8, res.Height)
	assert.InDelta(t, 4.0, res.Duration, 1e-9)
	assert.InDelta(t, 0.4, res.Interval, 1e-9)

	require.Equal(t, 1, enc.calls)
	assert.Equal(t, "out.png", enc.path)

	// Column x carries the color of the midpoint frame of bucket x.
	img := enc.img.(*image.NRGBA)
	for x := 0; x < 10; x++ {
		want := uint8(5 + 10*x)
		for y := 0; y < 8; y++ {
			assert.Equal(t, want, img.NRGBAAt(x, y).R, "column %d row %d", x, y)
		}
	}
}

func TestRunProgress(t *testing.T) {
	enc := &captureEncoder{}
	p, err := New(testConfig(), testSource(), enc, nil)
	require.NoError(t, err)

	seen := make(chan int, 16)
	p.OnProgress(func(done, total int) {
		assert.Equal(t, 10, total)
		seen <- done
	})

	_, err = p.Run(context.Background(), "out.png")
	require.NoError(t, err)
	close(seen)

	var count, last int
	for d := range seen {
		count++
		if d > last {
			last = d
		}
	}
	assert.Equal(t, 10, count)
	assert.Equal(t, 10, last)
}

func TestRunTolerantFillsFailedFrames(t *testing.T) {
	src := testSource()
	src.failAt[35] = true // position 3

	enc := &captureEncoder{}
	p, err := New(testConfig(), src, enc, nil)
	require.NoError(t, err)

	res, err := p.Run(context.Background(), "out.png")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 10, res.Width)

	img := enc.img.(*image.NRGBA)
	assert.Equal(t, color.NRGBA{A: 255}, img.NRGBAAt(3, 0))
	assert.Equal(t, uint8(25), img.NRGBAAt(2, 0).R)
	assert.Equal(t, uint8(45), img.NRGBAAt(4, 0).R)
}

func TestRunTolerantFillsUnreducibleFrames(t *testing.T) {
	src := testSource()
	src.emptyAt = map[int]bool{55: true} // position 5

	enc := &captureEncoder{}
	p, err := New(testConfig(), src, enc, nil)
	require.NoError(t, err)

	res, err := p.Run(context.Background(), "out.png")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	img := enc.img.(*image.NRGBA)
	assert.Equal(t, color.NRGBA{A: 255}, img.NRGBAAt(5, 0))
}

func TestRunStrictAbortsOnFirstFailure(t *testing.T) {
	src := testSource()
	src.failAt[35] = true

	cfg := testConfig()
	cfg.Strict = true

	enc := &captureEncoder{}
	p, err := New(cfg, src, enc, nil)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), "out.png")
	require.Error(t, err)
	assert.Equal(t, 0, enc.calls, "no output may be written on abort")
}

func TestRunIncompleteWithoutFillPolicy(t *testing.T) {
	src := testSource()
	src.failAt[35] = true

	cfg := testConfig()
	cfg.FillNeutral = false

	enc := &captureEncoder{}
	p, err := New(cfg, src, enc, nil)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), "out.png")
	assert.ErrorIs(t, err, canvas.ErrIncomplete)
	assert.Equal(t, 0, enc.calls)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enc := &captureEncoder{}
	p, err := New(testConfig(), testSource(), enc, nil)
	require.NoError(t, err)

	_, err = p.Run(ctx, "out.png")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, enc.calls)
}

func TestRunOversample(t *testing.T) {
	src := testSource()
	src.meta.TotalFrames = 5

	cfg := testConfig()
	cfg.NFrames = 20

	enc := &captureEncoder{}
	p, err := New(cfg, src, enc, nil)
	require.NoError(t, err)

	res, err := p.Run(context.Background(), "out.png")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Strips)
	assert.Equal(t, 5, res.Width)

	img := enc.img.(*image.NRGBA)
	for x := 0; x < 5; x++ {
		assert.Equal(t, uint8(x), img.NRGBAAt(x, 0).R)
	}
}

func TestRunCropAndAutoLength(t *testing.T) {
	cfg := testConfig()
	cfg.StripLength = 0
	cfg.Direction = "vertical"
	cfg.Crop = image.Rect(4, 2, 28, 16)

	enc := &captureEncoder{}
	p, err := New(cfg, testSource(), enc, nil)
	require.NoError(t, err)

	res, err := p.Run(context.Background(), "out.png")
	require.NoError(t, err)
	// Vertical barcode: width is the cropped frame width, height the strip
	// count.
	assert.Equal(t, 24, res.Width)
	assert.Equal(t, 10, res.Height)
}

func TestRunVerticalPostPasses(t *testing.T) {
	cfg := testConfig()
	cfg.Direction = "vertical"
	cfg.StripLength = 6
	cfg.Average = true
	cfg.Blur = 3

	enc := &captureEncoder{}
	p, err := New(cfg, testSource(), enc, nil)
	require.NoError(t, err)

	res, err := p.Run(context.Background(), "out.png")
	require.NoError(t, err)
	assert.Equal(t, 6, res.Width)
	assert.Equal(t, 10, res.Height)

	// Uniform frames stay uniform through averaging and blur.
	img := enc.img.(*image.NRGBA)
	for x := 0; x < 6; x++ {
		assert.Equal(t, img.NRGBAAt(0, 0), img.NRGBAAt(x, 0))
	}
}

func TestRunEncodeFailure(t *testing.T) {
	enc := &captureEncoder{err: errors.New("disk full")}
	p, err := New(testConfig(), testSource(), enc, nil)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), "out.png")
	assert.ErrorContains(t, err, "disk full")
}

func TestNewRejectsBadConfig(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero nframes", func(c *Config) { c.NFrames = 0 }},
		{"zero thickness", func(c *Config) { c.StripThickness = 0 }},
		{"negative length", func(c *Config) { c.StripLength = -1 }},
		{"negative blur", func(c *Config) { c.Blur = -1 }},
		{"bad direction", func(c *Config) { c.Direction = "diagonal" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			_, err := New(cfg, testSource(), &captureEncoder{}, nil)
			assert.Error(t, err)
		})
	}

	_, err := New(testConfig(), nil, &captureEncoder{}, nil)
	assert.Error(t, err)
	_, err = New(testConfig(), testSource(), nil, nil)
	assert.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.NFrames)
	assert.Equal(t, 1, cfg.StripThickness)
	assert.Equal(t, "vertical", cfg.Direction)
	assert.True(t, cfg.FillNeutral)
}
