// Package media wraps video decoding behind a small Source interface so the
// rest of the pipeline never touches a container or codec directly.
package media

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// Metadata describes a video stream, read once when the source is opened.
type Metadata struct {
	TotalFrames int
	FrameRate   float64
	Width       int
	Height      int
}

// Duration returns the video length in seconds.
func (m Metadata) Duration() float64 {
	if m.FrameRate <= 0 {
		return 0
	}
	return float64(m.TotalFrames) / m.FrameRate
}

// Source is a decodable video handle. Both backends decode forward only, so
// FrameAt must be called with strictly increasing indices.
type Source interface {
	Metadata() (Metadata, error)
	FrameAt(ctx context.Context, index int) (image.Image, error)
	Close() error
}

var (
	// ErrNoFrameCount means the container reports no usable frame count,
	// which the sampler cannot work without.
	ErrNoFrameCount = errors.New("source reports no frame count")

	// ErrBackwardSeek means FrameAt was asked for a frame behind the
	// decoder's position.
	ErrBackwardSeek = errors.New("frame index behind decode position")
)

// Open opens mediapath with the named decoding backend. An empty name picks
// reisen.
func Open(decoder, mediapath string) (Source, error) {
	switch decoder {
	case "", "reisen":
		return OpenReisen(mediapath)
	case "vidio":
		return OpenVidio(mediapath)
	}
	return nil, fmt.Errorf("unknown decoder %q", decoder)
}
