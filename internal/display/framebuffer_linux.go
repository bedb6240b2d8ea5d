//go:build linux

package display

import (
	"context"
	"image"

	fb "github.com/gonutz/framebuffer"
	"github.com/pkg/errors"
)

// FramebufferSink previews frames on a Linux framebuffer. While open, the
// console is in KD_GRAPHICS mode with the cursor hidden.
type FramebufferSink struct {
	Logger sysLogger

	dev *fb.Device
}

func OpenFramebuffer(path string, logger sysLogger) (*FramebufferSink, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	if path == "" {
		path = "/dev/fb0"
	}
	dev, err := fb.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "display: open %s", path)
	}
	bounds := dev.Bounds()
	logger.Infof("fb", "framebuffer open, bounds=%dx%d", bounds.Dx(), bounds.Dy())

	if err := setGraphicsMode(); err != nil {
		logger.Errorf("tty", "KD_GRAPHICS failed: %v", err)
	}
	if err := hideCursor(); err != nil {
		logger.Errorf("tty", "hide cursor failed: %v", err)
	}
	return &FramebufferSink{Logger: logger, dev: dev}, nil
}

func (s *FramebufferSink) Show(ctx context.Context, frame *image.Gray) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	blit(s.dev, frame)
	return nil
}

func (s *FramebufferSink) Close() error {
	if s.dev == nil {
		return nil
	}
	s.dev.Close()
	s.dev = nil
	if err := showCursor(); err != nil {
		s.Logger.Errorf("tty", "show cursor failed: %v", err)
	}
	return restoreTextMode()
}
