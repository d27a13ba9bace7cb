// Command framevis renders a movie barcode: frames sampled evenly across a
// video, each reduced to a thin strip of its average color, concatenated in
// temporal order into one image.
//
// Usage:
//
//	framevis [flags] <video> [output image]
//
// Defaults come from FRAMEVIS_* environment variables; flags win.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ritammehta/frame-by-frame/pkg/framevis"
	"github.com/ritammehta/frame-by-frame/pkg/imgout"
	"github.com/ritammehta/frame-by-frame/pkg/matte"
	"github.com/ritammehta/frame-by-frame/pkg/media"
)

const matteSamples = 10

func main() {
	cfg, err := framevis.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var (
		quiet   bool
		quality int
	)
	flag.IntVar(&cfg.NFrames, "n", cfg.NFrames, "number of frames to sample")
	flag.IntVar(&cfg.StripThickness, "thickness", cfg.StripThickness, "strip size along the time axis, in pixels")
	flag.IntVar(&cfg.StripLength, "length", cfg.StripLength, "strip size on the other axis, 0 for the native frame size")
	flag.StringVar(&cfg.Direction, "direction", cfg.Direction, "concatenation direction: horizontal or vertical")
	flag.StringVar(&cfg.Decoder, "decoder", cfg.Decoder, "decoding backend: reisen or vidio")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "max concurrent strip reductions")
	flag.BoolVar(&cfg.Strict, "strict", cfg.Strict, "abort on the first unreadable frame")
	flag.BoolVar(&cfg.Trim, "trim", cfg.Trim, "detect and crop letterboxing/pillarboxing")
	flag.BoolVar(&cfg.Average, "average", cfg.Average, "collapse each strip line to its average color")
	flag.IntVar(&cfg.Blur, "blur", cfg.Blur, "motion blur kernel size, 0 for none")
	flag.BoolVar(&quiet, "quiet", false, "suppress progress and info output")
	flag.IntVar(&quality, "quality", 95, "JPEG quality for .jpg outputs")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <video> [output image]\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}
	source := flag.Arg(0)
	dest := flag.Arg(1)
	if dest == "" {
		dest = strings.TrimSuffix(source, filepath.Ext(source)) + ".png"
	}

	logger := newLogger(quiet)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Trim {
		// Sources decode forward only, so matte detection gets its own
		// handle.
		tsrc, err := media.Open(cfg.Decoder, source)
		if err != nil {
			logger.Fatal("failed to open video", zap.String("path", source), zap.Error(err))
		}
		rect, ok, err := matte.DetectVideo(ctx, tsrc, matteSamples, cfg.TrimThreshold)
		tsrc.Close()
		if err != nil {
			logger.Fatal("matte detection failed", zap.Error(err))
		}
		if ok {
			cfg.Crop = rect
			logger.Info("matting checked",
				zap.Int("left", rect.Min.X),
				zap.Int("top", rect.Min.Y),
				zap.Int("right", rect.Max.X),
				zap.Int("bottom", rect.Max.Y),
			)
		} else {
			logger.Warn("matte detection found no content, skipping trim")
		}
	}

	src, err := media.Open(cfg.Decoder, source)
	if err != nil {
		logger.Fatal("failed to open video", zap.String("path", source), zap.Error(err))
	}
	defer src.Close()

	p, err := framevis.New(cfg, src, imgout.Writer{JPEGQuality: quality}, logger)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if !quiet {
		// Progress callbacks arrive from worker goroutines.
		var mu sync.Mutex
		var bar *progressbar.ProgressBar
		p.OnProgress(func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Processing"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(25),
					progressbar.OptionSetRenderBlankState(true),
				)
			}
			bar.Set(done)
		})
	}

	res, err := p.Run(ctx, dest)
	if err != nil {
		logger.Fatal("visualization failed", zap.Error(err))
	}

	if !quiet {
		fmt.Printf("\nVisualization saved to %s (%dx%d, %d strips, every %.2f seconds)\n",
			dest, res.Width, res.Height, res.Strips, res.Interval)
	}
}

func newLogger(quiet bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if quiet {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return logger
}
