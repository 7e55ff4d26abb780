package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/lucasb-eyer/go-colorful"
)

// IntensityMode selects how a color photo is reduced to one channel.
type IntensityMode string

const (
	// IntensityLuma uses weighted RGB luminance. This is the default.
	IntensityLuma IntensityMode = "luma"

	// IntensityLightness uses CIE L* lightness, which separates cards from
	// saturated backgrounds (play mats, colored tables) better than luma.
	IntensityLightness IntensityMode = "lightness"
)

// ParseIntensityMode validates a mode name. The empty string selects luma.
func ParseIntensityMode(s string) (IntensityMode, error) {
	switch IntensityMode(s) {
	case "", IntensityLuma:
		return IntensityLuma, nil
	case IntensityLightness:
		return IntensityLightness, nil
	}
	return "", fmt.Errorf("unknown intensity mode %q (want %q or %q)", s, IntensityLuma, IntensityLightness)
}

// Intensity converts img to a zero-origin single-channel image.
func Intensity(img image.Image, mode IntensityMode) *image.Gray {
	if mode == IntensityLightness {
		return lightness(img)
	}
	return grayFromRGBA(effect.Grayscale(img))
}

// lightness maps each pixel to L* scaled to 0-255.
func lightness(img image.Image) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c, ok := colorful.MakeColor(img.At(x+bounds.Min.X, y+bounds.Min.Y))
			if !ok {
				// Fully transparent pixels carry no color.
				continue
			}
			l, _, _ := c.Lab()
			out.Pix[y*out.Stride+x] = clampByte(l * 255)
		}
	}
	return out
}

// Blur applies a Gaussian blur to a gray image. A radius of 2 yields a 5x5
// kernel. Non-positive radii return a copy of the input.
func Blur(gray *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return rebase(gray)
	}
	// Replicate the border first so the image frame never reads as an edge.
	pad := int(math.Ceil(radius)) + 1
	padded := padReplicate(rebase(gray), pad)
	blurred := grayFromRGBA(blur.Gaussian(padded, radius))
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	return SubGray(blurred, image.Rect(pad, pad, pad+w, pad+h))
}

// padReplicate surrounds gray with pad pixels copied from its nearest edge.
func padReplicate(gray *image.Gray, pad int) *image.Gray {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w+2*pad, h+2*pad))
	for y := 0; y < h+2*pad; y++ {
		sy := clamp(y-pad, 0, h-1)
		for x := 0; x < w+2*pad; x++ {
			sx := clamp(x-pad, 0, w-1)
			out.Pix[y*out.Stride+x] = grayAt(gray, sx, sy)
		}
	}
	return out
}

// Dilate grows the foreground of a binary edge map. A radius of 1 uses a
// 3x3 neighbourhood, bridging single-pixel gaps between edge fragments.
func Dilate(edges *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return rebase(edges)
	}
	return grayFromRGBA(effect.Dilate(rebase(edges), radius))
}

// SubGray copies the rect region of gray into a new zero-origin image.
// The rect is given in the coordinate space of gray and is clipped to its bounds.
func SubGray(gray *image.Gray, rect image.Rectangle) *image.Gray {
	rect = rect.Intersect(gray.Bounds())
	out := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		src := gray.PixOffset(rect.Min.X, rect.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+rect.Dx()], gray.Pix[src:src+rect.Dx()])
	}
	return out
}

// rebase returns gray itself when it already starts at the origin, or a
// zero-origin copy otherwise.
func rebase(gray *image.Gray) *image.Gray {
	if gray.Bounds().Min == (image.Point{}) {
		return gray
	}
	return SubGray(gray, gray.Bounds())
}

// grayFromRGBA keeps the red channel of a gray-valued RGBA image.
func grayFromRGBA(src *image.RGBA) *image.Gray {
	bounds := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			out.Pix[y*out.Stride+x] = src.Pix[y*src.Stride+x*4]
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// grayAt returns the 8-bit value at (x, y) of a zero-origin gray image.
func grayAt(gray *image.Gray, x, y int) uint8 {
	return gray.Pix[y*gray.Stride+x]
}

// binary reports whether a pixel value counts as foreground.
func binary(v uint8) bool {
	return v >= 128
}
