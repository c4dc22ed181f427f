package capture

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	colorDir = "rgb"
	depthDir = "depth"
)

// Saver writes color and depth images as PNG files and keeps an index of
// them per stream.
type Saver struct {
	dir    string
	logger *zap.SugaredLogger

	colorIndex *os.File
	depthIndex *os.File

	saved int
}

// NewSaver creates dir/rgb, dir/depth and the index files dir/rgb.txt and
// dir/depth.txt, truncating existing indexes.
func NewSaver(dir string, logger *zap.SugaredLogger) (*Saver, error) {
	for _, sub := range []string{colorDir, depthDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("could not create image directory: %w", err)
		}
	}

	colorIndex, err := createIndex(filepath.Join(dir, "rgb.txt"), "color images")
	if err != nil {
		return nil, err
	}

	depthIndex, err := createIndex(filepath.Join(dir, "depth.txt"), "depth images")
	if err != nil {
		return nil, multierr.Combine(err, colorIndex.Close())
	}

	return &Saver{
		dir:        dir,
		logger:     logger,
		colorIndex: colorIndex,
		depthIndex: depthIndex,
	}, nil
}

func createIndex(path, title string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create index file: %w", err)
	}

	if _, err := fmt.Fprintf(f, "# %s\n# file\n# timestamp filename\n", title); err != nil {
		return nil, multierr.Combine(fmt.Errorf("could not write index header: %w", err), f.Close())
	}

	return f, nil
}

// Filename formats a frame timestamp in milliseconds as a zero padded name.
// Names sort like their timestamps below 10000000 ms (about 2.8 hours); past
// that the name grows wider than the padding and the order breaks.
func Filename(timestamp float64) string {
	return fmt.Sprintf("%011.3f", timestamp)
}

// Save writes both images under the name of timestamp and indexes them.
func (s *Saver) Save(timestamp float64, color, depth image.Image) error {
	name := Filename(timestamp)
	colorPath := filepath.Join(colorDir, name+".png")
	depthPath := filepath.Join(depthDir, name+".png")

	if err := imaging.Save(color, filepath.Join(s.dir, colorPath)); err != nil {
		return fmt.Errorf("could not save color image: %w", err)
	}
	if err := imaging.Save(depth, filepath.Join(s.dir, depthPath)); err != nil {
		return fmt.Errorf("could not save depth image: %w", err)
	}

	if _, err := fmt.Fprintf(s.colorIndex, "%s %s\n", name, filepath.ToSlash(colorPath)); err != nil {
		return fmt.Errorf("could not append to color index: %w", err)
	}
	if _, err := fmt.Fprintf(s.depthIndex, "%s %s\n", name, filepath.ToSlash(depthPath)); err != nil {
		return fmt.Errorf("could not append to depth index: %w", err)
	}

	s.saved++
	s.logger.Debugw("saved frame", "name", name)
	return nil
}

// Saved returns the number of saved frame pairs.
func (s *Saver) Saved() int {
	return s.saved
}

func (s *Saver) Close() error {
	return multierr.Combine(s.colorIndex.Close(), s.depthIndex.Close())
}
