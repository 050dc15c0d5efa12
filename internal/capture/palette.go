package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// TriColor is the palette used by ReducePalette: white, black, red.
var TriColor = color.Palette{
	color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	color.NRGBA{A: 0xFF},
	color.NRGBA{R: 0xFF, A: 0xFF},
}

const (
	inkWhite uint8 = iota
	inkBlack
	inkRed
)

// ReducePalette maps every pixel of img onto TriColor. Transparent pixels
// become white, dark pixels black, and strongly red pixels red. Everything
// else is white, so light page chrome and grey borders drop out.
func ReducePalette(img image.Image) *image.Paletted {
	b := img.Bounds()
	out := image.NewPaletted(b, TriColor)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetColorIndex(x, y, classify(c))
		}
	}
	return out
}

func classify(c color.NRGBA) uint8 {
	if c.A < 128 {
		return inkWhite
	}
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	if 0.299*r+0.587*g+0.114*b < 64 {
		return inkBlack
	}
	if r > 128 && r-max(g, b) > 32 {
		return inkRed
	}
	return inkWhite
}

// reducePNG decodes a PNG screenshot and re-encodes it with TriColor.
func reducePNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("capture: decode screenshot: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, ReducePalette(img)); err != nil {
		return nil, fmt.Errorf("capture: encode reduced PNG: %w", err)
	}
	return buf.Bytes(), nil
}
