package framevis

import (
	"fmt"
	"image"

	"github.com/caarlos0/env/v11"

	"github.com/ritammehta/frame-by-frame/pkg/frame"
	"github.com/ritammehta/frame-by-frame/pkg/sample"
)

// Config is the pipeline configuration. Defaults come from FRAMEVIS_*
// environment variables; the CLI layers its flags on top.
type Config struct {
	// NFrames is the desired number of strips. The actual strip count is
	// capped at the video's frame count.
	NFrames int `env:"FRAMEVIS_NFRAMES" envDefault:"1280"`

	// StripThickness is the size of each strip along the time axis.
	StripThickness int `env:"FRAMEVIS_THICKNESS" envDefault:"1"`

	// StripLength is the output size on the non-time axis; 0 uses the
	// native frame size (after cropping).
	StripLength int `env:"FRAMEVIS_LENGTH" envDefault:"0"`

	Direction string `env:"FRAMEVIS_DIRECTION" envDefault:"vertical"`
	Decoder   string `env:"FRAMEVIS_DECODER" envDefault:"reisen"`
	Workers   int    `env:"FRAMEVIS_WORKERS" envDefault:"8"`

	// Strict aborts the run on the first frame that fails to decode or
	// reduce instead of filling its strip with black.
	Strict      bool `env:"FRAMEVIS_STRICT" envDefault:"false"`
	FillNeutral bool `env:"FRAMEVIS_FILL_NEUTRAL" envDefault:"true"`

	// Trim enables matte detection before the run; TrimThreshold is the
	// per-pixel channel level at or below which a line counts as matte.
	Trim          bool `env:"FRAMEVIS_TRIM" envDefault:"false"`
	TrimThreshold int  `env:"FRAMEVIS_TRIM_THRESHOLD" envDefault:"3"`

	// Average collapses each strip line to its average color; Blur is the
	// motion blur kernel size, 0 for none.
	Average bool `env:"FRAMEVIS_AVERAGE" envDefault:"false"`
	Blur    int  `env:"FRAMEVIS_BLUR" envDefault:"0"`

	// Crop limits every frame to this rectangle before reduction; the zero
	// rectangle disables cropping. Usually set from matte.DetectVideo.
	Crop image.Rectangle `env:"-"`
}

// LoadConfig builds a Config from environment defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.NFrames < 1 {
		return fmt.Errorf("%w: nframes must be positive, got %d", sample.ErrInvalidArgument, c.NFrames)
	}
	if c.StripThickness < 1 {
		return fmt.Errorf("%w: strip thickness must be positive, got %d", sample.ErrInvalidArgument, c.StripThickness)
	}
	if c.StripLength < 0 {
		return fmt.Errorf("%w: strip length cannot be negative, got %d", sample.ErrInvalidArgument, c.StripLength)
	}
	if c.Blur < 0 {
		return fmt.Errorf("%w: blur cannot be negative, got %d", sample.ErrInvalidArgument, c.Blur)
	}
	if _, err := frame.ParseDirection(c.Direction); err != nil {
		return fmt.Errorf("%w: %v", sample.ErrInvalidArgument, err)
	}
	return nil
}
