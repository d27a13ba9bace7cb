package media

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/zergon321/reisen"
)

// ReisenSource decodes through libav via reisen. Frames are produced by the
// container's packet loop; FrameAt drains packets until the requested frame
// comes out.
type ReisenSource struct {
	m    *reisen.Media
	v    *reisen.VideoStream
	meta Metadata
	pos  int // index of the next frame the decoder will produce
}

// OpenReisen opens mediapath for decoding with reisen.
func OpenReisen(mediapath string) (*ReisenSource, error) {
	m, err := reisen.NewMedia(mediapath)
	if err != nil {
		return nil, fmt.Errorf("failed to create media: %w", err)
	}
	vstreams := m.VideoStreams()
	if len(vstreams) == 0 {
		m.Close()
		return nil, errors.New("no video stream")
	}
	v := vstreams[0]

	num, den := v.FrameRate()
	fps := 0.0
	if den != 0 {
		fps = float64(num) / float64(den)
	}
	total := int(v.FrameCount())
	if total <= 0 && fps > 0 {
		// Some containers omit nb_frames; estimate from duration.
		if d, derr := v.Duration(); derr == nil {
			total = int(d.Seconds() * fps)
		}
	}
	if total <= 0 {
		m.Close()
		return nil, ErrNoFrameCount
	}

	if err := m.OpenDecode(); err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to open media: %w", err)
	}
	if err := v.Open(); err != nil {
		m.CloseDecode()
		m.Close()
		return nil, fmt.Errorf("failed to open video: %w", err)
	}

	return &ReisenSource{
		m: m,
		v: v,
		meta: Metadata{
			TotalFrames: total,
			FrameRate:   fps,
			Width:       v.Width(),
			Height:      v.Height(),
		},
	}, nil
}

// Metadata implements Source.
func (s *ReisenSource) Metadata() (Metadata, error) { return s.meta, nil }

// FrameAt decodes forward to index, discarding the frames in between.
func (s *ReisenSource) FrameAt(ctx context.Context, index int) (image.Image, error) {
	if index < s.pos {
		return nil, fmt.Errorf("%w: want frame %d, decoder at %d", ErrBackwardSeek, index, s.pos)
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := s.nextVideoFrame()
		if err != nil {
			return nil, err
		}
		s.pos++
		if s.pos > index {
			return frame, nil
		}
	}
}

func (s *ReisenSource) nextVideoFrame() (*image.RGBA, error) {
	for {
		packet, gotPacket, err := s.m.ReadPacket()
		if err != nil {
			return nil, fmt.Errorf("failed to read packet: %w", err)
		}
		if !gotPacket {
			return nil, fmt.Errorf("stream ended at frame %d of %d", s.pos, s.meta.TotalFrames)
		}
		if packet.Type() != reisen.StreamVideo || packet.StreamIndex() != s.v.Index() {
			continue
		}

		videoFrame, gotFrame, err := s.v.ReadVideoFrame()
		if err != nil {
			return nil, fmt.Errorf("failed to read video frame %d: %w", s.pos, err)
		}
		if !gotFrame {
			return nil, fmt.Errorf("stream ended at frame %d of %d", s.pos, s.meta.TotalFrames)
		}
		if videoFrame == nil {
			continue
		}
		return videoFrame.Image(), nil
	}
}

// Close implements Source.
func (s *ReisenSource) Close() error {
	if s.v != nil {
		s.v.Close()
	}
	if s.m != nil {
		s.m.CloseDecode()
		s.m.Close()
	}
	return nil
}
