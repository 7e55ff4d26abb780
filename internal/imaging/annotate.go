package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Annotation is one outlined region. Label is drawn in its top-left corner;
// only digits are rendered.
type Annotation struct {
	Rect  image.Rectangle
	Label string
}

// AnnotateOptions controls the overlay style.
type AnnotateOptions struct {
	// Color is "#RRGGBB" or "#RRGGBBAA". Empty means opaque red.
	Color string

	// Thickness of each outline in pixels, drawn inward. Values below 1
	// mean 2.
	Thickness int

	// Labels draws each annotation's label.
	Labels bool
}

// AnnotateResult contains the annotated image encoded as base64 PNG.
type AnnotateResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Boxes       int    `json:"boxes"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Annotate draws an outline around each annotation. Rects are in
// zero-based image coordinates and are clipped to the image.
func Annotate(img image.Image, annotations []Annotation, opts AnnotateOptions) (*AnnotateResult, error) {
	rgba, err := DrawAnnotations(img, annotations, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &AnnotateResult{
		Width:       rgba.Rect.Dx(),
		Height:      rgba.Rect.Dy(),
		Boxes:       len(annotations),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// DrawAnnotations is Annotate without the encoding step. The returned image
// has a zero origin.
func DrawAnnotations(img image.Image, annotations []Annotation, opts AnnotateOptions) (*image.RGBA, error) {
	outline := color.RGBA{255, 0, 0, 255}
	if opts.Color != "" {
		c, err := parseHexColor(opts.Color)
		if err != nil {
			return nil, err
		}
		outline = c
	}
	thickness := opts.Thickness
	if thickness < 1 {
		thickness = 2
	}

	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Rect, img, bounds.Min, draw.Src)

	src := image.NewUniform(outline)
	for _, a := range annotations {
		r := a.Rect.Intersect(result.Rect)
		if r.Empty() {
			continue
		}
		t := min(thickness, (r.Dx()+1)/2, (r.Dy()+1)/2)
		edges := []image.Rectangle{
			image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), // top
			image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), // bottom
			image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), // left
			image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), // right
		}
		for _, e := range edges {
			draw.Draw(result, e, src, image.Point{}, draw.Over)
		}

		if opts.Labels && a.Label != "" {
			drawLabel(result, r.Min.X+t+1, r.Min.Y+t+1, a.Label, color.RGBA{255, 255, 255, 255}, outline)
		}
	}
	return result, nil
}

// parseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func parseHexColor(hex string) (color.RGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	alpha := uint8(255)
	switch len(s) {
	case 6:
	case 8:
		a, err := strconv.ParseUint(s[6:], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
		}
		alpha = uint8(a)
		s = s[:6]
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", hex)
	}

	c, err := colorful.Hex("#" + s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()

	// color.RGBA is alpha-premultiplied.
	premul := func(v uint8) uint8 { return uint8(uint16(v) * uint16(alpha) / 255) }
	return color.RGBA{R: premul(r), G: premul(g), B: premul(b), A: alpha}, nil
}

// digitGlyphs is a 3x5 pixel font.
var digitGlyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

// drawLabel draws text at 2x scale on a bg box. Runes without a glyph leave
// a gap.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	const scale, advance = 2, 8
	box := image.Rect(x-1, y-1, x+len(text)*advance, y+5*scale+1)
	draw.Draw(img, box.Intersect(img.Rect), image.NewUniform(bg), image.Point{}, draw.Src)

	cx := x
	for _, ch := range text {
		for row, line := range digitGlyphs[ch] {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				dot := image.Rect(cx+col*scale, y+row*scale, cx+(col+1)*scale, y+(row+1)*scale)
				draw.Draw(img, dot.Intersect(img.Rect), image.NewUniform(fg), image.Point{}, draw.Src)
			}
		}
		cx += advance
	}
}
