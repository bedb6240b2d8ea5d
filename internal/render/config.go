package render

import (
	"fmt"
	"image/color"
)

// Panel geometry shared by every pipeline stage and by the upload validator.
const (
	Width  = 800
	Height = 480

	// PackedSize is the exact byte length of a packed 1bpp frame.
	PackedSize = Width * Height / 8
)

var (
	White = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	Black = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}
)

func init() {
	if (Width*Height)%8 != 0 {
		panic(fmt.Sprintf("render: canvas %dx%d is not byte aligned", Width, Height))
	}
}
