//go:build !linux

package display

import (
	"context"
	"image"

	"github.com/pkg/errors"
)

// FramebufferSink is only available on Linux.
type FramebufferSink struct{}

func OpenFramebuffer(path string, logger sysLogger) (*FramebufferSink, error) {
	return nil, errors.New("display: framebuffer sink requires linux")
}

func (s *FramebufferSink) Show(ctx context.Context, frame *image.Gray) error {
	return errors.New("display: framebuffer sink requires linux")
}

func (s *FramebufferSink) Close() error { return nil }
