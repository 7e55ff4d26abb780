package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/card-regions-mcp/internal/geometry"
)

// newMask returns an all-background binary map.
func newMask(width, height int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, width, height))
}

// drawOutline draws a thickness-pixel square outline with outer corners
// (x1, y1) inclusive and (x2, y2) exclusive.
func drawOutline(m *image.Gray, x1, y1, x2, y2, thickness int) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			if x < x1+thickness || x >= x2-thickness || y < y1+thickness || y >= y2-thickness {
				m.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
}

func TestExternalRegions_NestedIgnored(t *testing.T) {
	m := newMask(60, 60)
	drawOutline(m, 10, 10, 50, 50, 2)
	drawOutline(m, 20, 20, 30, 30, 1)

	regions := ExternalRegions(m)
	require.Len(t, regions, 1)
	assert.Equal(t, geometry.Box{X: 10, Y: 10, W: 40, H: 40}, regions[0].Box)
	assert.Equal(t, 40*40, regions[0].Area, "area counts the filled interior")
}

func TestExternalRegions_SeparateShapes(t *testing.T) {
	m := newMask(100, 50)
	drawOutline(m, 60, 5, 90, 45, 1)
	drawOutline(m, 5, 10, 30, 40, 1)

	regions := ExternalRegions(m)
	require.Len(t, regions, 2)
	// Raster order of first pixel: the right shape starts higher.
	assert.Equal(t, geometry.Box{X: 60, Y: 5, W: 30, H: 40}, regions[0].Box)
	assert.Equal(t, geometry.Box{X: 5, Y: 10, W: 25, H: 30}, regions[1].Box)
}

func TestExternalRegions_OpenShapeIsNotFilled(t *testing.T) {
	m := newMask(40, 40)
	// A "C": top, bottom and left strokes only.
	for x := 10; x < 30; x++ {
		m.SetGray(x, 10, color.Gray{Y: 255})
		m.SetGray(x, 29, color.Gray{Y: 255})
	}
	for y := 10; y < 30; y++ {
		m.SetGray(10, y, color.Gray{Y: 255})
	}

	regions := ExternalRegions(m)
	require.Len(t, regions, 1)
	assert.Equal(t, geometry.Box{X: 10, Y: 10, W: 20, H: 20}, regions[0].Box)
	assert.Equal(t, 20+20+18, regions[0].Area, "only stroke pixels belong to an open shape")
}

func TestExternalRegions_FrameOnBorder(t *testing.T) {
	m := newMask(30, 20)
	drawOutline(m, 0, 0, 30, 20, 1)

	regions := ExternalRegions(m)
	require.Len(t, regions, 1)
	assert.Equal(t, geometry.Box{W: 30, H: 20}, regions[0].Box)
	assert.Equal(t, 600, regions[0].Area)
}

func TestExternalRegions_Empty(t *testing.T) {
	assert.Empty(t, ExternalRegions(newMask(20, 20)))
	assert.Empty(t, ExternalRegions(newMask(0, 0)))
}

func TestExternalRegions_NonZeroOrigin(t *testing.T) {
	m := newMask(60, 60)
	drawOutline(m, 30, 30, 50, 50, 1)
	sub := m.SubImage(image.Rect(20, 20, 60, 60)).(*image.Gray)

	regions := ExternalRegions(sub)
	require.Len(t, regions, 1)
	assert.Equal(t, geometry.Box{X: 10, Y: 10, W: 20, H: 20}, regions[0].Box)
}
