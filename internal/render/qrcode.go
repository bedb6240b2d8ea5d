package render

import (
	"image"
	"image/draw"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

// qrQuietModules is the light margin kept around the symbol, in modules.
const qrQuietModules = 2

// qrSquare renders payload as a black-on-white square exactly side pixels
// wide. Every module covers the same whole number of pixels, so the symbol
// survives thresholding without resampling artifacts; leftover pixels go to
// the margin.
func qrSquare(payload string, side int) (*image.Gray, error) {
	if payload == "" {
		return nil, errors.New("qrcode: empty payload")
	}
	code, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, errors.Wrap(err, "qrcode")
	}
	code.DisableBorder = true
	modules := code.Bitmap()

	scale := side / (len(modules) + 2*qrQuietModules)
	if scale < 1 {
		return nil, errors.Errorf("qrcode: %d modules do not fit in %dpx", len(modules), side)
	}

	img := image.NewGray(image.Rect(0, 0, side, side))
	draw.Draw(img, img.Bounds(), image.NewUniform(White), image.Point{}, draw.Src)
	offset := (side - len(modules)*scale) / 2
	for y, row := range modules {
		for x, dark := range row {
			if !dark {
				continue
			}
			px := image.Rect(0, 0, scale, scale).Add(image.Pt(offset+x*scale, offset+y*scale))
			draw.Draw(img, px, image.NewUniform(Black), image.Point{}, draw.Src)
		}
	}
	return img, nil
}
