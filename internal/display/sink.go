// Package display puts fetched frames on a local surface and drives the
// polling loop that keeps it current.
package display

import (
	"context"
	"image"
	"image/color"
	"image/draw"
)

// Sink shows a mono frame somewhere.
type Sink interface {
	Show(ctx context.Context, frame *image.Gray) error
	Close() error
}

type sysLogger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(component, format string, args ...interface{})  {}
func (noopLogger) Errorf(component, format string, args ...interface{}) {}

// letterbox returns the largest rectangle with the frame's aspect ratio,
// centred in bounds.
func letterbox(bounds image.Rectangle, frameW, frameH int) image.Rectangle {
	bw, bh := bounds.Dx(), bounds.Dy()
	if frameW <= 0 || frameH <= 0 || bw <= 0 || bh <= 0 {
		return image.Rectangle{}
	}
	w, h := bw, bw*frameH/frameW
	if h > bh {
		w, h = bh*frameW/frameH, bh
	}
	x := bounds.Min.X + (bw-w)/2
	y := bounds.Min.Y + (bh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// blit clears dst to white and nearest-neighbour scales frame into its
// letterboxed area.
func blit(dst draw.Image, frame *image.Gray) {
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, image.White, image.Point{}, draw.Src)

	src := frame.Bounds()
	rect := letterbox(bounds, src.Dx(), src.Dy())
	dstWidth, dstHeight := rect.Dx(), rect.Dy()
	for y := 0; y < dstHeight; y++ {
		sy := src.Min.Y + (y*src.Dy())/dstHeight
		for x := 0; x < dstWidth; x++ {
			sx := src.Min.X + (x*src.Dx())/dstWidth
			v := frame.GrayAt(sx, sy).Y
			dst.Set(rect.Min.X+x, rect.Min.Y+y, color.RGBA{R: v, G: v, B: v, A: 0xFF})
		}
	}
}
