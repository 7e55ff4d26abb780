package detection

import (
	"image"
	"image/color"

	"github.com/ironsheep/card-regions-mcp/internal/geometry"
)

// newScene returns a width x height photo filled with gray level bg.
func newScene(width, height int, bg uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fillRect(img, 0, 0, width, height, bg)
	return img
}

// fillRect paints [x1,x2) x [y1,y2) with gray level v.
func fillRect(img *image.RGBA, x1, y1, x2, y2 int, v uint8) {
	c := color.RGBA{v, v, v, 255}
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// stripedCard paints a white card with 4-pixel black stripes every 8 pixels,
// running top to bottom when vertical is set and left to right otherwise.
func stripedCard(img *image.RGBA, x1, y1, x2, y2 int, vertical bool) {
	fillRect(img, x1, y1, x2, y2, 255)
	if vertical {
		for x := x1; x < x2; x += 8 {
			fillRect(img, x, y1, min(x+4, x2), y2, 0)
		}
		return
	}
	for y := y1; y < y2; y += 8 {
		fillRect(img, x1, y, x2, min(y+4, y2), 0)
	}
}

// Card rectangles of twoCardScene, each 100x140 (aspect ~0.71).
var twoCardRects = []geometry.Box{
	{X: 50, Y: 80, W: 100, H: 140},
	{X: 250, Y: 80, W: 100, H: 140},
}

// twoCardScene is a dark table with two plain light cards well apart.
func twoCardScene() *image.RGBA {
	img := newScene(400, 300, 60)
	for _, r := range twoCardRects {
		fillRect(img, r.X, r.Y, r.X+r.W, r.Y+r.H, 230)
	}
	return img
}

// sideBySideScene holds two striped 100x104 cards separated by a 40 pixel
// gap, so the box (20, 20, 240, 104) around both has aspect ~2.3.
func sideBySideScene() *image.RGBA {
	img := newScene(280, 144, 128)
	stripedCard(img, 20, 20, 120, 124, true)
	stripedCard(img, 160, 20, 260, 124, true)
	return img
}

// stackedScene is sideBySideScene turned on its side.
func stackedScene() *image.RGBA {
	img := newScene(144, 280, 128)
	stripedCard(img, 20, 20, 124, 120, false)
	stripedCard(img, 20, 160, 124, 260, false)
	return img
}

// sleeveScene puts two striped card faces inside one white sleeve, so the
// edge map yields a single wide outline around both.
func sleeveScene() *image.RGBA {
	img := newScene(320, 180, 60)
	fillRect(img, 20, 30, 280, 140, 255)
	for _, x := range []int{30, 170} {
		for sx := x; sx < x+100; sx += 8 {
			fillRect(img, sx, 40, sx+4, 130, 0)
		}
	}
	return img
}

// near reports whether every edge of got lies within tol pixels of want.
func near(got, want geometry.Box, tol int) bool {
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	return abs(got.X-want.X) <= tol &&
		abs(got.Y-want.Y) <= tol &&
		abs(got.X+got.W-want.X-want.W) <= tol &&
		abs(got.Y+got.H-want.Y-want.H) <= tol
}
