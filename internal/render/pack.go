package render

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

var ErrNotByteAligned = errors.New("pixel count is not a multiple of 8")

// whiteCutoff: an 8-bit value strictly above it is white.
const whiteCutoff = 127

// Pack serialises a monochrome image to 1 bit per pixel, row-major and
// MSB-first. A set bit means black.
func Pack(mono image.Image) ([]byte, error) {
	b := mono.Bounds()
	w, h := b.Dx(), b.Dy()
	if (w*h)%8 != 0 {
		return nil, errors.Wrapf(ErrNotByteAligned, "pack %dx%d", w, h)
	}

	packed := make([]byte, w*h/8)
	gray, isGray := mono.(*image.Gray)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var v uint8
			if isGray {
				v = gray.GrayAt(x, y).Y
			} else {
				v = redChannel(mono.At(x, y))
			}
			if v <= whiteCutoff {
				packed[i/8] |= 1 << (7 - uint(i%8))
			}
			i++
		}
	}
	return packed, nil
}

// Unpack is the inverse of Pack for a w x h frame.
func Unpack(packed []byte, w, h int) (*image.Gray, error) {
	if w <= 0 || h <= 0 || (w*h)%8 != 0 {
		return nil, errors.Wrapf(ErrNotByteAligned, "unpack %dx%d", w, h)
	}
	if len(packed) != w*h/8 {
		return nil, errors.Errorf("unpack %dx%d: got %d bytes, want %d", w, h, len(packed), w*h/8)
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		if packed[i/8]&(1<<(7-uint(i%8))) != 0 {
			out.Pix[(i/w)*out.Stride+i%w] = 0
		} else {
			out.Pix[(i/w)*out.Stride+i%w] = 0xFF
		}
	}
	return out, nil
}

func redChannel(c color.Color) uint8 {
	if rgba, ok := c.(color.RGBA); ok {
		return rgba.R
	}
	r, _, _, _ := c.RGBA()
	return uint8(r >> 8)
}
