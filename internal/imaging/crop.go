package imaging

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality matches the quality used for stored card crops.
const DefaultJPEGQuality = 90

// CropFormat names a raster codec for crop output.
type CropFormat struct {
	format imaging.Format
	name   string
}

// Name returns the canonical lower-case codec name ("png", "jpeg", ...).
func (f CropFormat) Name() string { return f.name }

// MimeType returns the MIME type for encoded crops.
func (f CropFormat) MimeType() string { return "image/" + f.name }

// PNG is the default, lossless crop format.
var PNG = CropFormat{format: imaging.PNG, name: "png"}

// ParseCropFormat resolves a codec name or file extension ("png", ".jpg",
// "jpeg", "gif", "bmp", "tiff"). The empty string selects PNG.
func ParseCropFormat(name string) (CropFormat, error) {
	if name == "" {
		return PNG, nil
	}
	f, err := imaging.FormatFromExtension(name)
	if err != nil {
		return CropFormat{}, fmt.Errorf("unsupported crop format %q: %w", name, err)
	}
	return CropFormat{format: f, name: strings.ToLower(f.String())}, nil
}

// CropResult contains an encoded crop.
type CropResult struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    []byte `json:"-"`
	MimeType string `json:"mime_type"`
}

// Crop extracts rect from img and encodes it with the named format.
//
// The rect is expressed in zero-based image coordinates (offset by
// img.Bounds().Min internally) and must lie inside the image. Crop never
// alters rect; callers wanting padding apply PadRect first.
func Crop(img image.Image, rect image.Rectangle, format string, jpegQuality int) (*CropResult, error) {
	bounds := img.Bounds()
	abs := rect.Add(bounds.Min)

	if !abs.In(bounds) {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)",
			rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y, bounds.Dx(), bounds.Dy())
	}
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	f, err := ParseCropFormat(format)
	if err != nil {
		return nil, err
	}

	cropped := imaging.Crop(img, abs)
	data, err := encode(cropped, f, jpegQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		Width:    cropped.Bounds().Dx(),
		Height:   cropped.Bounds().Dy(),
		Bytes:    data,
		MimeType: f.MimeType(),
	}, nil
}

// Encode encodes the whole of img with the named format.
func Encode(img image.Image, format string, jpegQuality int) ([]byte, CropFormat, error) {
	f, err := ParseCropFormat(format)
	if err != nil {
		return nil, CropFormat{}, err
	}
	data, err := encode(img, f, jpegQuality)
	if err != nil {
		return nil, CropFormat{}, fmt.Errorf("failed to encode image: %w", err)
	}
	return data, f, nil
}

func encode(img image.Image, f CropFormat, jpegQuality int) ([]byte, error) {
	if jpegQuality <= 0 {
		jpegQuality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f.format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PadRect grows rect by fraction*min(width, height) on every side and clips
// the result to a width x height image.
func PadRect(rect image.Rectangle, fraction float64, width, height int) image.Rectangle {
	if fraction <= 0 {
		return rect
	}
	pad := int(float64(min(rect.Dx(), rect.Dy())) * fraction)
	return rect.Inset(-pad).Intersect(image.Rect(0, 0, width, height))
}
