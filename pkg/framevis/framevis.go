// Package framevis orchestrates the visualization pipeline: pick the frame
// indices to sample, decode them, reduce each to a strip, compose the
// barcode, run the post passes, and hand the result to the encoder.
package framevis

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/ritammehta/frame-by-frame/pkg/canvas"
	"github.com/ritammehta/frame-by-frame/pkg/frame"
	"github.com/ritammehta/frame-by-frame/pkg/media"
	"github.com/ritammehta/frame-by-frame/pkg/sample"
)

// Encoder writes the finished visualization. The pipeline calls it exactly
// once per successful run.
type Encoder interface {
	Encode(img image.Image, path string) error
}

// Pipeline ties a video source to an encoder under one configuration. A
// Pipeline runs once; sources decode forward only.
type Pipeline struct {
	cfg    Config
	src    media.Source
	enc    Encoder
	log    *zap.Logger
	onStep func(done, total int)
}

// New validates the configuration and builds a pipeline.
func New(cfg Config, src media.Source, enc Encoder, logger *zap.Logger) (*Pipeline, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New("video source is required")
	}
	if enc == nil {
		return nil, errors.New("encoder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{cfg: cfg, src: src, enc: enc, log: logger}, nil
}

// OnProgress registers a callback invoked after every sampled frame settles,
// successfully or not. The callback may run on worker goroutines.
func (p *Pipeline) OnProgress(fn func(done, total int)) { p.onStep = fn }

// Result summarizes a completed run.
type Result struct {
	Strips   int
	Failed   int
	Width    int
	Height   int
	Duration float64 // source video length, seconds
	Interval float64 // seconds of video per strip
}

// Run executes the pipeline and writes the visualization to outPath. On any
// error, including cancellation, no output file is written.
func (p *Pipeline) Run(ctx context.Context, outPath string) (Result, error) {
	meta, err := p.src.Metadata()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	if meta.TotalFrames <= 0 {
		return Result{}, media.ErrNoFrameCount
	}

	dir, err := frame.ParseDirection(p.cfg.Direction)
	if err != nil {
		return Result{}, err
	}

	length := p.cfg.StripLength
	if length == 0 {
		w, h := meta.Width, meta.Height
		if !p.cfg.Crop.Empty() {
			w, h = p.cfg.Crop.Dx(), p.cfg.Crop.Dy()
		}
		if dir == frame.Horizontal {
			length = h
		} else {
			length = w
		}
	}
	if length < 1 {
		return Result{}, fmt.Errorf("%w: cannot derive strip length from a %dx%d source",
			sample.ErrInvalidArgument, meta.Width, meta.Height)
	}

	indices, err := sample.Indices(meta.TotalFrames, p.cfg.NFrames)
	if err != nil {
		return Result{}, err
	}

	can, err := canvas.Begin(len(indices), p.cfg.StripThickness, length, dir)
	if err != nil {
		return Result{}, err
	}

	p.log.Info("visualizing",
		zap.Int("total_frames", meta.TotalFrames),
		zap.Int("samples", len(indices)),
		zap.Float64("interval_seconds", sample.Interval(meta.TotalFrames, len(indices), meta.FrameRate)),
		zap.Int("width", can.Bounds().Dx()),
		zap.Int("height", can.Bounds().Dy()),
	)

	workers := p.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		done     int
		failed   int
		fatalErr error
	)
	guard := make(chan struct{}, workers)

	abort := func(err error) {
		mu.Lock()
		if fatalErr == nil {
			fatalErr = err
		}
		mu.Unlock()
	}
	aborted := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fatalErr != nil
	}
	skip := func(pos, idx int, err error) {
		p.log.Warn("skipping frame",
			zap.Int("frame", idx),
			zap.Int("position", pos),
			zap.Error(err),
		)
		mu.Lock()
		failed++
		mu.Unlock()
	}
	step := func() {
		mu.Lock()
		done++
		d := done
		mu.Unlock()
		if p.onStep != nil {
			p.onStep(d, len(indices))
		}
	}

	for pos, idx := range indices {
		if err := ctx.Err(); err != nil {
			abort(err)
			break
		}
		if aborted() {
			break
		}

		img, err := p.src.FrameAt(ctx, idx)
		if err != nil {
			if p.cfg.Strict {
				abort(fmt.Errorf("failed to decode frame %d: %w", idx, err))
				break
			}
			skip(pos, idx, err)
			step()
			continue
		}

		// Decode is serial; reduce and write run on a bounded pool.
		guard <- struct{}{}
		wg.Add(1)
		go func(pos, idx int, img image.Image) {
			defer wg.Done()
			defer func() { <-guard }()

			if !p.cfg.Crop.Empty() {
				img = imaging.Crop(img, p.cfg.Crop)
			}

			strip, err := frame.Reduce(img, length, p.cfg.StripThickness, dir)
			if err != nil {
				if p.cfg.Strict {
					abort(fmt.Errorf("failed to reduce frame %d: %w", idx, err))
					return
				}
				skip(pos, idx, err)
				step()
				return
			}

			// A write failure is an invariant violation, never recoverable.
			if err := can.WriteStrip(pos, strip); err != nil {
				abort(err)
				return
			}
			step()
		}(pos, idx, img)
	}

	wg.Wait()

	if fatalErr != nil {
		return Result{}, fatalErr
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	img, err := can.Finish(p.cfg.FillNeutral)
	if err != nil {
		return Result{}, err
	}
	if failed > 0 {
		p.log.Warn("filled unreadable frames with black", zap.Int("frames", failed))
	}

	if p.cfg.Average {
		img = frame.AverageAxis(img, dir)
	}
	if p.cfg.Blur > 0 {
		img = frame.MotionBlur(img, dir, p.cfg.Blur)
	}

	if err := p.enc.Encode(img, outPath); err != nil {
		return Result{}, fmt.Errorf("failed to encode output: %w", err)
	}

	res := Result{
		Strips:   len(indices),
		Failed:   failed,
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Duration: meta.Duration(),
		Interval: sample.Interval(meta.TotalFrames, len(indices), meta.FrameRate),
	}
	p.log.Info("visualization saved",
		zap.String("path", outPath),
		zap.Int("strips", res.Strips),
		zap.Int("failed", res.Failed),
		zap.Int("width", res.Width),
		zap.Int("height", res.Height),
	)
	return res, nil
}
