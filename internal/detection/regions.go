package detection

import (
	"image"

	"github.com/ironsheep/card-regions-mcp/internal/geometry"
)

// Region is the filled area enclosed by one external boundary of a binary
// map.
type Region struct {
	// Box is the tight bounding box of the region.
	Box geometry.Box `json:"box"`

	// Area is the number of pixels inside the boundary, the boundary
	// itself and any enclosed holes or nested shapes included.
	Area int `json:"area"`
}

// ExternalRegions returns one Region per external boundary of the foreground
// (values >= 128) of mask. Boundaries nested inside another region are not
// reported separately; they are part of the enclosing region's fill.
//
// # Algorithm
//
//  1. Outside: flood background from every border pixel with 4-connectivity.
//     Whatever the flood cannot reach is foreground or an enclosed hole.
//  2. Regions: group the remaining pixels with 8-connectivity, matching the
//     connectivity used for foreground boundaries.
//
// Coordinates are relative to mask.Bounds().Min. Regions are returned in
// raster order of their first pixel.
func ExternalRegions(mask *image.Gray) []Region {
	bounds := mask.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	fg := func(x, y int) bool {
		return mask.Pix[y*mask.Stride+x] >= 128
	}

	outside := make([]bool, width*height)
	stack := make([]int, 0, 2*(width+height))
	seed := func(x, y int) {
		i := y*width + x
		if !outside[i] && !fg(x, y) {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < width; x++ {
		seed(x, 0)
		seed(x, height-1)
	}
	for y := 0; y < height; y++ {
		seed(0, y)
		seed(width-1, y)
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		px, py := p%width, p/width
		if px > 0 {
			seed(px-1, py)
		}
		if px < width-1 {
			seed(px+1, py)
		}
		if py > 0 {
			seed(px, py-1)
		}
		if py < height-1 {
			seed(px, py+1)
		}
	}

	visited := outside
	var regions []Region
	for start := range visited {
		if visited[start] {
			continue
		}
		visited[start] = true
		stack = append(stack[:0], start)

		minX, minY := width, height
		maxX, maxY := -1, -1
		area := 0
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width
			area++
			minX, maxX = min(minX, px), max(maxX, px)
			minY, maxY = min(minY, py), max(maxY, py)

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					n := ny*width + nx
					if !visited[n] {
						visited[n] = true
						stack = append(stack, n)
					}
				}
			}
		}

		regions = append(regions, Region{
			Box:  geometry.Box{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1},
			Area: area,
		})
	}
	return regions
}
