package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		c    color.NRGBA
		want uint8
	}{
		{"transparent", color.NRGBA{A: 0}, inkWhite},
		{"black", color.NRGBA{R: 10, G: 10, B: 10, A: 255}, inkBlack},
		{"red", color.NRGBA{R: 220, G: 30, B: 40, A: 255}, inkRed},
		{"dark red stays black", color.NRGBA{R: 120, G: 0, B: 0, A: 255}, inkBlack},
		{"light grey", color.NRGBA{R: 200, G: 200, B: 200, A: 255}, inkWhite},
		{"pink is not red enough", color.NRGBA{R: 255, G: 240, B: 240, A: 255}, inkWhite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.c))
		})
	}
}

func TestReducePNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	src.Set(0, 0, color.NRGBA{A: 255})
	src.Set(1, 0, color.NRGBA{R: 255, A: 255})
	src.Set(2, 0, color.NRGBA{R: 250, G: 250, B: 250, A: 255})

	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, src))

	out, err := reducePNG(in.Bytes())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	p, ok := img.(*image.Paletted)
	require.True(t, ok)
	assert.Equal(t, []uint8{inkBlack, inkRed, inkWhite}, p.Pix[:3])

	_, err = reducePNG([]byte("not a png"))
	assert.Error(t, err)
}
