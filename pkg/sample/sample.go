// Package sample computes which frame numbers to capture from a video so
// that the captures are spread evenly across its whole duration.
package sample

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument reports a non-positive frame or sample count.
var ErrInvalidArgument = errors.New("invalid argument")

// Indices returns the frame numbers to capture, in increasing order. The
// frame range is split into desiredCount equal buckets and each bucket
// contributes its midpoint frame, so samples sit evenly offset from the
// start and end of the video. When desiredCount meets or exceeds
// totalFrames every frame is returned.
func Indices(totalFrames, desiredCount int) ([]int, error) {
	if totalFrames <= 0 {
		return nil, fmt.Errorf("%w: total frames must be positive, got %d", ErrInvalidArgument, totalFrames)
	}
	if desiredCount <= 0 {
		return nil, fmt.Errorf("%w: sample count must be positive, got %d", ErrInvalidArgument, desiredCount)
	}

	if desiredCount >= totalFrames {
		indices := make([]int, totalFrames)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	// interval >= 1 here, so truncating the running float position still
	// yields strictly increasing indices.
	interval := float64(totalFrames) / float64(desiredCount)
	next := interval / 2
	indices := make([]int, desiredCount)
	for i := range indices {
		indices[i] = int(next)
		next += interval
	}
	return indices, nil
}

// Interval returns the seconds of video between consecutive captures.
func Interval(totalFrames, desiredCount int, fps float64) float64 {
	if totalFrames <= 0 || desiredCount <= 0 || fps <= 0 {
		return 0
	}
	return float64(totalFrames) / float64(desiredCount) / fps
}
