package render

import (
	"bytes"
	"image"
	"image/png"
	"io"

	// Registered decoders for Decode.
	_ "image/gif"
	_ "image/jpeg"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrEmptyImage = errors.New("empty image data")

// Result carries every intermediate of one pipeline run.
type Result struct {
	Canvas *image.RGBA
	Mono   *image.Gray
	Packed []byte
}

// Process runs Fit, Reduce and Pack in sequence.
func Process(src image.Image, mode FitMode) (Result, error) {
	canvas := Fit(src, mode)
	mono := Reduce(canvas)
	packed, err := Pack(mono)
	if err != nil {
		return Result{}, err
	}
	return Result{Canvas: canvas, Mono: mono, Packed: packed}, nil
}

// Decode reads any registered image format (png, jpeg, gif, bmp, tiff, webp).
func Decode(r io.Reader) (image.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", errors.Wrap(err, "read image")
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(err, "decode image")
	}
	return img, format, nil
}

// EncodePreviewPNG writes img as PNG.
func EncodePreviewPNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return errors.Wrap(enc.Encode(w, img), "encode preview png")
}
