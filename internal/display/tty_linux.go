//go:build linux

package display

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// KD console modes from linux/kd.h
const (
	kdText     = 0x00
	kdGraphics = 0x01
	kdSetMode  = 0x4B3A // KDSETMODE ioctl
)

var vtPaths = []string{"/dev/tty", "/dev/tty0"}

func setGraphicsMode() error { return setConsoleMode(kdGraphics) }
func restoreTextMode() error { return setConsoleMode(kdText) }

func hideCursor() error { return writeVT("\x1b[?25l") }
func showCursor() error { return writeVT("\x1b[?25h") }

func setConsoleMode(mode int) error {
	var lastErr error
	for _, p := range vtPaths {
		fd, err := unix.Open(p, unix.O_RDONLY, 0)
		if err != nil {
			lastErr = errors.Wrapf(err, "open %s", p)
			continue
		}
		err = unix.IoctlSetInt(fd, kdSetMode, mode)
		_ = unix.Close(fd)
		if err != nil {
			lastErr = errors.Wrapf(err, "KDSETMODE %d on %s", mode, p)
			continue
		}
		return nil
	}
	return lastErr
}

func writeVT(s string) error {
	var lastErr error
	for _, p := range vtPaths {
		f, err := os.OpenFile(p, os.O_WRONLY, 0)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = f.WriteString(s)
		_ = f.Close()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return errors.Wrap(lastErr, "write VT failed")
}
