package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"
)

// EdgeOptions configures the intensity → blur → Canny → dilate chain used to
// find card outlines.
type EdgeOptions struct {
	Intensity     IntensityMode
	BlurRadius    float64 // Gaussian radius; 2 gives a 5x5 kernel
	LowThreshold  int     // Canny weak-edge threshold (0-255 scale)
	HighThreshold int     // Canny strong-edge threshold (0-255 scale)
	DilateRadius  float64 // 1 gives a 3x3 structuring element
}

// DefaultEdgeOptions returns the thresholds tuned for card photos.
func DefaultEdgeOptions() EdgeOptions {
	return EdgeOptions{
		Intensity:     IntensityLuma,
		BlurRadius:    2,
		LowThreshold:  50,
		HighThreshold: 150,
		DilateRadius:  1,
	}
}

// EdgeMaps holds the intermediate products of the edge chain. Gray is the
// unblurred intensity image, Edges the raw Canny map and Dilated the map
// after dilation.
type EdgeMaps struct {
	Gray    *image.Gray
	Edges   *image.Gray
	Dilated *image.Gray
}

// BuildEdgeMaps runs the full edge chain over img.
func BuildEdgeMaps(img image.Image, opts EdgeOptions) *EdgeMaps {
	gray := Intensity(img, opts.Intensity)
	edges := Canny(Blur(gray, opts.BlurRadius), opts.LowThreshold, opts.HighThreshold)
	return &EdgeMaps{
		Gray:    gray,
		Edges:   edges,
		Dilated: Dilate(edges, opts.DilateRadius),
	}
}

// Canny performs Canny edge detection on an already-smoothed gray image.
//
// The output is a zero-origin binary map: 255 on edges, 0 elsewhere.
//
// # Algorithm
//
//  1. Gradient computation: Sobel operators for X and Y gradients
//     magnitude = |Gx| + |Gy|, direction = atan2(Gy, Gx)
//
//  2. Non-maximum suppression: thin edges to 1-pixel width by keeping only
//     local maxima in the gradient direction. Border pixels are never edges.
//
//  3. Hysteresis:
//     - Pixels at or above thresholdHigh are strong edges (always kept)
//     - Pixels between the thresholds are kept only when 8-connected,
//     directly or through other weak pixels, to a strong edge
//     - Pixels below thresholdLow are discarded
//
// Thresholds are expressed on the 0-255 intensity scale.
func Canny(gray *image.Gray, thresholdLow, thresholdHigh int) *image.Gray {
	gray = rebase(gray)
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return result
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					v := float64(grayAt(gray, px, py))
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y*width+x] = math.Abs(gx) + math.Abs(gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression
	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			angle := direction[i]
			mag := magnitude[i]
			if mag == 0 {
				continue
			}

			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			} else {
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	// Hysteresis: grow strong edges through connected weak pixels.
	low := float64(thresholdLow)
	high := float64(thresholdHigh)
	stack := make([]int, 0, 1024)
	for i, v := range suppressed {
		if v >= high && result.Pix[i] == 0 {
			result.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					n := ny*width + nx
					if result.Pix[n] == 0 && suppressed[n] >= low {
						result.Pix[n] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}

	return result
}

var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// CountEdgePixels returns the number of foreground pixels in a binary map.
func CountEdgePixels(edges *image.Gray) int {
	n := 0
	for y := edges.Rect.Min.Y; y < edges.Rect.Max.Y; y++ {
		row := edges.Pix[(y-edges.Rect.Min.Y)*edges.Stride:]
		for x := 0; x < edges.Rect.Dx(); x++ {
			if binary(row[x]) {
				n++
			}
		}
	}
	return n
}

// EdgeDetectResult contains an edge map encoded as base64 PNG.
type EdgeDetectResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	EdgePixels  int    `json:"edge_pixels"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EdgeDetect renders the dilated edge map the card detector works from, so
// a caller can see why a card was or was not found.
func EdgeDetect(img image.Image, opts EdgeOptions) (*EdgeDetectResult, error) {
	maps := BuildEdgeMaps(img, opts)

	var buf bytes.Buffer
	if err := png.Encode(&buf, maps.Dilated); err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}

	return &EdgeDetectResult{
		Width:       maps.Dilated.Rect.Dx(),
		Height:      maps.Dilated.Rect.Dy(),
		EdgePixels:  CountEdgePixels(maps.Dilated),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
