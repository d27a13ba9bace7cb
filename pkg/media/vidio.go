package media

import (
	"context"
	"fmt"
	"image"

	vidio "github.com/AlexEidt/Vidio"
)

// VidioSource reads frames over an ffmpeg pipe. It needs ffmpeg and ffprobe
// on the PATH but decodes anything ffmpeg does.
type VidioSource struct {
	v    *vidio.Video
	meta Metadata
	pos  int
}

// OpenVidio opens mediapath for decoding with vidio.
func OpenVidio(mediapath string) (*VidioSource, error) {
	v, err := vidio.NewVideo(mediapath)
	if err != nil {
		return nil, fmt.Errorf("failed to create media: %w", err)
	}
	if v.Frames() <= 0 {
		v.Close()
		return nil, ErrNoFrameCount
	}
	return &VidioSource{
		v: v,
		meta: Metadata{
			TotalFrames: v.Frames(),
			FrameRate:   v.FPS(),
			Width:       v.Width(),
			Height:      v.Height(),
		},
	}, nil
}

// Metadata implements Source.
func (s *VidioSource) Metadata() (Metadata, error) { return s.meta, nil }

// FrameAt reads forward to index, discarding the frames in between.
func (s *VidioSource) FrameAt(ctx context.Context, index int) (image.Image, error) {
	if index < s.pos {
		return nil, fmt.Errorf("%w: want frame %d, decoder at %d", ErrBackwardSeek, index, s.pos)
	}
	for s.pos <= index {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.v.Read() {
			return nil, fmt.Errorf("failed to read frame %d of %d", s.pos, s.meta.TotalFrames)
		}
		s.pos++
	}

	// The frame buffer is reused by the next Read, so copy the pixels out.
	img := image.NewRGBA(image.Rect(0, 0, s.meta.Width, s.meta.Height))
	copy(img.Pix, s.v.FrameBuffer())
	return img, nil
}

// Close implements Source.
func (s *VidioSource) Close() error {
	s.v.Close()
	return nil
}
