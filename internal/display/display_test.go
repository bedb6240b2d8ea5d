package display

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/epaper/internal/render"
)

func TestLetterbox(t *testing.T) {
	cases := []struct {
		name   string
		bounds image.Rectangle
		want   image.Rectangle
	}{
		{"same size", image.Rect(0, 0, 800, 480), image.Rect(0, 0, 800, 480)},
		{"wider screen", image.Rect(0, 0, 1920, 1080), image.Rect(60, 0, 1860, 1080)},
		{"taller screen", image.Rect(0, 0, 400, 400), image.Rect(0, 80, 400, 320)},
		{"offset bounds", image.Rect(10, 10, 410, 250), image.Rect(10, 10, 410, 250)},
		{"empty", image.Rectangle{}, image.Rectangle{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, letterbox(tc.bounds, render.Width, render.Height))
		})
	}
}

func TestBlitScalesAndLetterboxes(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 4, 2))
	// Left half black, right half white.
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if x >= 2 {
				frame.SetGray(x, y, color.Gray{Y: 0xFF})
			}
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, 8, 8))
	blit(dst, frame)

	// Frame becomes 8x4 centred vertically at rows 2..5.
	assert.Equal(t, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}, dst.RGBAAt(0, 0), "bars are white")
	assert.Equal(t, color.RGBA{0, 0, 0, 0xFF}, dst.RGBAAt(0, 2))
	assert.Equal(t, color.RGBA{0, 0, 0, 0xFF}, dst.RGBAAt(3, 5))
	assert.Equal(t, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}, dst.RGBAAt(4, 3))
	assert.Equal(t, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}, dst.RGBAAt(0, 6))
}

func TestPNGSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "frame.png")
	sink, err := NewPNGSink(path)
	require.NoError(t, err)

	frame := image.NewGray(image.Rect(0, 0, render.Width, render.Height))
	frame.SetGray(5, 5, color.Gray{Y: 0xFF})
	require.NoError(t, sink.Show(context.Background(), frame))
	require.NoError(t, sink.Show(context.Background(), frame))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, frame.Bounds(), img.Bounds())
	r, _, _, _ := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	_, err = NewPNGSink("")
	assert.Error(t, err)
}
