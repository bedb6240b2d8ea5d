package render

import (
	"image"
	"image/color"
)

// ITU-R BT.601 luma weights, applied to gamma-encoded values.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114

	ditherThreshold = 128
)

// Floyd-Steinberg kernel, weights over 16, for not-yet-visited neighbours.
var floydSteinberg = [...]struct {
	dx, dy int
	factor float64
}{
	{dx: 1, dy: 0, factor: 7},
	{dx: -1, dy: 1, factor: 3},
	{dx: 0, dy: 1, factor: 5},
	{dx: 1, dy: 1, factor: 1},
}

// Luminance returns the unclamped BT.601 gray value of an 8-bit RGB triple.
func Luminance(r, g, b uint8) float64 {
	// Explicit conversions keep the compiler from fusing into FMA, so every
	// GOARCH produces the same bits.
	return float64(lumaR*float64(r)) + float64(lumaG*float64(g)) + float64(lumaB*float64(b))
}

// Reduce converts canvas to gray and dithers it to two levels with a single
// row-major Floyd-Steinberg pass. Every output pixel is either 0 or 255.
//
// The working buffer is never clamped: accumulated error may push a value
// below 0 or above 255 before it is thresholded.
func Reduce(canvas *image.RGBA) *image.Gray {
	b := canvas.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	work := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := canvas.PixOffset(b.Min.X+x, b.Min.Y+y)
			work[y*w+x] = Luminance(canvas.Pix[o], canvas.Pix[o+1], canvas.Pix[o+2])
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			oldVal := work[i]
			newVal := quantize(oldVal)
			quantErr := oldVal - newVal
			out.Pix[y*out.Stride+x] = uint8(newVal)

			for _, k := range floydSteinberg {
				nx, ny := x+k.dx, y+k.dy
				if nx < 0 || nx >= w || ny >= h {
					continue
				}
				work[ny*w+nx] += quantErr * k.factor / 16
			}
		}
	}
	return out
}

// quantize maps a working value to 0 or 255; ditherThreshold itself is white.
func quantize(v float64) float64 {
	if v >= ditherThreshold {
		return 255
	}
	return 0
}

// ReduceRGBA is Reduce expanded back to the RGBA canvas shape, alpha forced
// to 255.
func ReduceRGBA(canvas *image.RGBA) *image.RGBA {
	return MonoToRGBA(Reduce(canvas))
}

// MonoToRGBA copies a gray image into an opaque RGBA image.
func MonoToRGBA(mono *image.Gray) *image.RGBA {
	b := mono.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := mono.GrayAt(x, y).Y
			out.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 0xFF})
		}
	}
	return out
}
