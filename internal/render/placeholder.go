package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/rook-computer/epaper/internal/render/layout"
)

const (
	placeholderPaddingPx = 32
	titleSizePt          = 40
	subtitleSizePt       = 20
)

// PlaceholderOptions controls the screen shown while the slot is empty.
type PlaceholderOptions struct {
	Title    string
	Subtitle string
	// QRPayload, when set, is encoded as a QR code in the right-hand column.
	QRPayload string
}

// Placeholder renders a monochrome frame with a title, an optional subtitle and
// an optional QR code. The result goes through Reduce so it is a valid
// two-level frame.
func Placeholder(opts PlaceholderOptions) (*image.Gray, error) {
	if opts.Title == "" {
		opts.Title = "No image yet"
	}

	canvas := NewCanvas()
	area := layout.Inset(canvas.Bounds(), placeholderPaddingPx)
	textArea := area

	if opts.QRPayload != "" {
		var qrArea image.Rectangle
		textArea, qrArea = layout.SplitVertical(area, area.Dx()-area.Dy())
		qrRect := layout.FitSquare(qrArea)
		qr, err := qrSquare(opts.QRPayload, qrRect.Dx())
		if err != nil {
			return nil, errors.Wrap(err, "placeholder")
		}
		draw.Draw(canvas, qrRect, qr, image.Point{}, draw.Src)
	}

	titleFace := loadFace(titleSizePt)
	subFace := loadFace(subtitleSizePt)
	titleHeight := titleFace.Metrics().Height.Ceil()
	subHeight := 0
	if opts.Subtitle != "" {
		subHeight = subFace.Metrics().Height.Ceil()
	}

	block := layout.Center(textArea, textArea.Dx(), titleHeight+subHeight)
	drawTextCentered(canvas, opts.Title, block.Min.Y+titleFace.Metrics().Ascent.Ceil(), textArea, Black, titleFace)
	if opts.Subtitle != "" {
		drawTextCentered(canvas, opts.Subtitle, block.Min.Y+titleHeight+subFace.Metrics().Ascent.Ceil(), textArea, Black, subFace)
	}

	return Reduce(canvas), nil
}

// loadFace parses the bundled Go Regular TTF with freetype, falling back to
// the fixed 7x13 face.
func loadFace(sizePt float64) font.Face {
	ttFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(ttFont, &truetype.Options{Size: sizePt, DPI: 72, Hinting: font.HintingFull})
}

func drawTextCentered(img draw.Image, text string, baselineY int, within image.Rectangle, fg color.Color, face font.Face) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: fg},
		Face: face,
	}
	textWidth := drawer.MeasureString(text).Ceil()
	xPos := within.Min.X + (within.Dx()-textWidth)/2
	if xPos < within.Min.X {
		xPos = within.Min.X
	}
	drawer.Dot = fixed.P(xPos, baselineY)
	drawer.DrawString(text)
}
