package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntensityMode(t *testing.T) {
	m, err := ParseIntensityMode("")
	require.NoError(t, err)
	assert.Equal(t, IntensityLuma, m)

	m, err = ParseIntensityMode("lightness")
	require.NoError(t, err)
	assert.Equal(t, IntensityLightness, m)

	_, err = ParseIntensityMode("hue")
	assert.Error(t, err)
}

func TestIntensity_Luma(t *testing.T) {
	img := newSolidImage(10, 10, color.White)
	img.Set(0, 0, color.Black)

	gray := Intensity(img, IntensityLuma)
	require.Equal(t, image.Rect(0, 0, 10, 10), gray.Bounds())
	assert.Equal(t, uint8(0), grayAt(gray, 0, 0))
	assert.Equal(t, uint8(255), grayAt(gray, 5, 5))
}

func TestIntensity_LumaWeightsChannels(t *testing.T) {
	img := newSolidImage(4, 4, color.RGBA{255, 0, 0, 255})
	img.Set(1, 1, color.RGBA{0, 255, 0, 255})

	sub := img.SubImage(image.Rect(1, 1, 4, 4))
	gray := Intensity(sub, IntensityLuma)
	require.Equal(t, image.Rect(0, 0, 3, 3), gray.Bounds())
	assert.InDelta(t, 150, int(grayAt(gray, 0, 0)), 3, "green is the heaviest channel")
	assert.InDelta(t, 76, int(grayAt(gray, 1, 1)), 3, "red")
}

func TestIntensity_Lightness(t *testing.T) {
	img := newSolidImage(10, 10, color.White)
	img.Set(0, 0, color.Black)
	img.Set(1, 0, color.RGBA{128, 128, 128, 255})

	gray := Intensity(img, IntensityLightness)
	assert.Equal(t, uint8(0), grayAt(gray, 0, 0))
	assert.InDelta(t, 255, int(grayAt(gray, 5, 5)), 1)
	mid := grayAt(gray, 1, 0)
	assert.Greater(t, mid, uint8(100))
	assert.Less(t, mid, uint8(160))
}

func TestIntensity_NonZeroOrigin(t *testing.T) {
	sub := newSolidImage(40, 40, color.White).SubImage(image.Rect(10, 10, 30, 25))
	for _, mode := range []IntensityMode{IntensityLuma, IntensityLightness} {
		gray := Intensity(sub, mode)
		assert.Equal(t, image.Rect(0, 0, 20, 15), gray.Bounds(), "mode %s", mode)
	}
}

func TestBlur_UniformStaysUniform(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 30, 20))
	for i := range g.Pix {
		g.Pix[i] = 200
	}

	blurred := Blur(g, 2)
	require.Equal(t, g.Bounds(), blurred.Bounds())
	for _, p := range [][2]int{{0, 0}, {29, 19}, {15, 10}, {0, 19}} {
		assert.InDelta(t, 200, int(grayAt(blurred, p[0], p[1])), 1, "pixel %v", p)
	}
}

func TestBlur_ZeroRadiusCopies(t *testing.T) {
	g := stepImage(10, 10, 5)
	out := Blur(g, 0)
	assert.Equal(t, g.Pix, out.Pix)
}

func TestBlur_SoftensStep(t *testing.T) {
	blurred := Blur(stepImage(40, 10, 20), 2)
	v := grayAt(blurred, 20, 5)
	assert.Greater(t, v, uint8(0))
	assert.Less(t, v, uint8(255))
}

func TestDilate(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 9, 9))
	g.SetGray(4, 4, color.Gray{Y: 255})

	out := Dilate(g, 1)
	assert.True(t, binary(grayAt(out, 4, 4)))
	assert.True(t, binary(grayAt(out, 5, 4)))
	assert.True(t, binary(grayAt(out, 4, 3)))
	assert.False(t, binary(grayAt(out, 0, 0)))
	assert.Greater(t, CountEdgePixels(out), 1)
}

func TestSubGray(t *testing.T) {
	g := stepImage(20, 10, 10)
	sub := SubGray(g, image.Rect(8, 2, 14, 6))

	require.Equal(t, image.Rect(0, 0, 6, 4), sub.Bounds())
	assert.Equal(t, uint8(0), grayAt(sub, 1, 0))
	assert.Equal(t, uint8(255), grayAt(sub, 2, 0))

	// Copies, not views.
	sub.Pix[0] = 77
	assert.Equal(t, uint8(0), grayAt(g, 8, 2))

	// Clipped to bounds.
	clipped := SubGray(g, image.Rect(15, 5, 40, 40))
	assert.Equal(t, image.Rect(0, 0, 5, 5), clipped.Bounds())
}
