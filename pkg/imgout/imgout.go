// Package imgout writes finished images to disk.
package imgout

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Writer encodes images to files, inferring the format from the filename
// extension. The encode goes to a temp file first and is renamed into place,
// so a failed run never leaves a partial output behind.
type Writer struct {
	// JPEGQuality applies to .jpg/.jpeg outputs; zero means the imaging
	// default.
	JPEGQuality int
}

// Encode writes img to path.
func (w Writer) Encode(img image.Image, path string) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("unsupported output format: %w", err)
	}

	var opts []imaging.EncodeOption
	if format == imaging.JPEG && w.JPEGQuality > 0 {
		opts = append(opts, imaging.JPEGQuality(w.JPEGQuality))
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	if err := imaging.Encode(f, img, format, opts...); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
