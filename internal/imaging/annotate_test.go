package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestAnnotate(t *testing.T) {
	img := solidImage(100, 80, color.RGBA{0, 0, 0, 255})

	result, err := Annotate(img, []Annotation{{Rect: image.Rect(10, 10, 50, 60), Label: "1"}}, AnnotateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Width)
	assert.Equal(t, 80, result.Height)
	assert.Equal(t, 1, result.Boxes)
	assert.Equal(t, "image/png", result.MimeType)

	data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	require.NoError(t, err)
	out, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	red := color.RGBA{255, 0, 0, 255}
	assert.Equal(t, red, color.RGBAModel.Convert(out.At(10, 30)), "left edge")
	assert.Equal(t, red, color.RGBAModel.Convert(out.At(48, 30)), "right edge, 2px thick")
	assert.Equal(t, red, color.RGBAModel.Convert(out.At(30, 59)), "bottom edge")
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, color.RGBAModel.Convert(out.At(30, 30)), "interior untouched")
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, color.RGBAModel.Convert(out.At(50, 30)), "outline stays inside the box")
}

func TestDrawAnnotations_Labels(t *testing.T) {
	img := solidImage(60, 60, color.RGBA{0, 0, 0, 255})
	box := image.Rect(5, 5, 55, 55)

	plain, err := DrawAnnotations(img, []Annotation{{Rect: box, Label: "7"}}, AnnotateOptions{})
	require.NoError(t, err)
	labeled, err := DrawAnnotations(img, []Annotation{{Rect: box, Label: "7"}}, AnnotateOptions{Labels: true})
	require.NoError(t, err)

	// The label's top row is white at 2x scale just inside the outline.
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, plain.RGBAAt(8, 8))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, labeled.RGBAAt(8, 8))
}

func TestDrawAnnotations_ClipsAndOffsets(t *testing.T) {
	src := solidImage(40, 40, color.RGBA{10, 20, 30, 255})
	sub := src.SubImage(image.Rect(10, 10, 40, 40)).(*image.RGBA)

	out, err := DrawAnnotations(sub, []Annotation{{Rect: image.Rect(-5, -5, 100, 100)}}, AnnotateOptions{Color: "#00FF00", Thickness: 1})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 30), out.Rect)
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, out.RGBAAt(0, 15))
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, out.RGBAAt(29, 15))
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, out.RGBAAt(15, 15))
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#FF0000", color.RGBA{255, 0, 0, 255}, false},
		{"00ff00", color.RGBA{0, 255, 0, 255}, false},
		{"#0000FF00", color.RGBA{0, 0, 0, 0}, false},
		{"#FFFFFF80", color.RGBA{128, 128, 128, 128}, false},
		{"#FFF", color.RGBA{}, true},
		{"#GG0000", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHexColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
