// Package matte finds hard black bars (letterboxing and pillarboxing)
// around video frames so they can be cropped out before reduction.
package matte

import (
	"context"
	"image"
	"image/color"

	"github.com/ritammehta/frame-by-frame/pkg/media"
	"github.com/ritammehta/frame-by-frame/pkg/sample"
)

// DetectImage returns the content rectangle of one frame. A row or column is
// treated as matte when its summed channel values stay at or below threshold
// per pixel per channel. The second return is false when no content is found.
func DetectImage(img image.Image, threshold int) (image.Rectangle, bool) {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w == 0 || h == 0 {
		return image.Rectangle{}, false
	}

	rowSums := make([]int, h)
	colSums := make([]int, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			s := int(c.R) + int(c.G) + int(c.B)
			rowSums[y] += s
			colSums[x] += s
		}
	}

	top, bottom, ok := dataEdges(rowSums, threshold*w*3)
	if !ok {
		return image.Rectangle{}, false
	}
	left, right, ok := dataEdges(colSums, threshold*h*3)
	if !ok {
		return image.Rectangle{}, false
	}

	return image.Rect(left, top, right+1, bottom+1), true
}

// DetectVideo samples nsamples frames evenly across the source and returns
// the union of their content rectangles, so moving content is never cropped.
// Frames that fail to decode or carry no content are skipped; the second
// return is false when no sampled frame produced valid bounds.
func DetectVideo(ctx context.Context, src media.Source, nsamples, threshold int) (image.Rectangle, bool, error) {
	meta, err := src.Metadata()
	if err != nil {
		return image.Rectangle{}, false, err
	}

	indices, err := sample.Indices(meta.TotalFrames, nsamples)
	if err != nil {
		return image.Rectangle{}, false, err
	}

	var bounds image.Rectangle
	found := false
	for _, idx := range indices {
		if err := ctx.Err(); err != nil {
			return image.Rectangle{}, false, err
		}
		img, err := src.FrameAt(ctx, idx)
		if err != nil {
			continue
		}
		r, ok := DetectImage(img, threshold)
		if !ok {
			continue
		}
		if !found {
			bounds = r
			found = true
		} else {
			bounds = bounds.Union(r)
		}
	}
	return bounds, found, nil
}

// dataEdges locates the first and last entries above the threshold.
func dataEdges(sums []int, threshold int) (int, int, bool) {
	start, end := -1, -1
	for i, v := range sums {
		if v > threshold {
			if start < 0 {
				start = i
			}
			end = i
		}
	}
	return start, end, start >= 0
}
