package render

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// FitMode selects how a source image maps onto the canvas.
type FitMode int

const (
	// FitContain scales to fit entirely inside the canvas, keeping aspect ratio.
	FitContain FitMode = iota
	// FitCover scales to cover the whole canvas, keeping aspect ratio and cropping overflow.
	FitCover
	// FitFill stretches to exactly the canvas size.
	FitFill
)

func (m FitMode) String() string {
	switch m {
	case FitContain:
		return "contain"
	case FitCover:
		return "cover"
	case FitFill:
		return "fill"
	default:
		return fmt.Sprintf("FitMode(%d)", int(m))
	}
}

// ParseFitMode accepts contain, cover or fill. Empty input means contain.
func ParseFitMode(s string) (FitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "contain":
		return FitContain, nil
	case "cover":
		return FitCover, nil
	case "fill":
		return FitFill, nil
	default:
		return FitContain, fmt.Errorf("unknown fit mode %q (want contain, cover or fill)", s)
	}
}

// Rect is a placement rectangle in canvas coordinates. X and Y may be
// negative for cover placements that crop the source.
type Rect struct {
	X, Y, W, H float64
}

// Bounds rounds the placement to integer pixel edges.
func (r Rect) Bounds() image.Rectangle {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	x1 := int(math.Round(r.X + r.W))
	y1 := int(math.Round(r.Y + r.H))
	return image.Rect(x0, y0, x1, y1)
}

// Placement computes where a sw x sh source lands on the canvas.
func Placement(sw, sh int, mode FitMode) Rect {
	if mode == FitFill || sw <= 0 || sh <= 0 {
		return Rect{X: 0, Y: 0, W: Width, H: Height}
	}

	scaleX := float64(Width) / float64(sw)
	scaleY := float64(Height) / float64(sh)
	scale := math.Min(scaleX, scaleY)
	if mode == FitCover {
		scale = math.Max(scaleX, scaleY)
	}

	w := float64(sw) * scale
	h := float64(sh) * scale
	return Rect{
		X: (Width - w) / 2,
		Y: (Height - h) / 2,
		W: w,
		H: h,
	}
}

// NewCanvas returns a canvas cleared to solid white.
func NewCanvas() *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: White}, image.Point{}, draw.Src)
	return canvas
}

// Fit draws src onto a fresh white canvas according to mode. A nil src
// yields the blank canvas. Pixels outside the placement stay white.
func Fit(src image.Image, mode FitMode) *image.RGBA {
	canvas := NewCanvas()
	if src == nil {
		return canvas
	}
	sb := src.Bounds()
	if sb.Empty() {
		return canvas
	}

	dst := Placement(sb.Dx(), sb.Dy(), mode).Bounds()
	if dst.Empty() {
		return canvas
	}
	// dst may extend past the canvas for cover; the scaler clips to canvas bounds
	// while keeping the full-rectangle transform.
	xdraw.CatmullRom.Scale(canvas, dst, src, sb, xdraw.Over, nil)
	return canvas
}
