package display

import (
	"context"
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/rook-computer/epaper/internal/render"
)

// PNGSink writes each frame to Path, replacing the previous file atomically.
type PNGSink struct {
	Path string
}

func NewPNGSink(path string) (*PNGSink, error) {
	if path == "" {
		return nil, errors.New("display: png sink needs a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "display: create output directory")
	}
	return &PNGSink{Path: path}, nil
}

func (s *PNGSink) Show(ctx context.Context, frame *image.Gray) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".frame-*.png")
	if err != nil {
		return errors.Wrap(err, "display: create temp file")
	}
	tmpPath := tmp.Name()

	err = render.EncodePreviewPNG(tmp, frame)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "display: write png")
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "display: commit png")
	}
	return nil
}

func (s *PNGSink) Close() error { return nil }
