package layout

import (
	"fmt"
	"image"

	"github.com/ironsheep/card-regions-mcp/internal/imaging"
)

// CropOptions controls crop extraction.
type CropOptions struct {
	// Enabled turns crop extraction on.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Format is a codec name or extension ("png", "jpeg", ...). Empty means
	// PNG.
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// JPEGQuality applies when Format is jpeg.
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality" mapstructure:"jpeg_quality"`

	// Padding grows each crop by this fraction of the element's shorter
	// side, clipped to the image. The element box itself is unchanged.
	Padding float64 `json:"padding" yaml:"padding" mapstructure:"padding"`
}

// DefaultCropOptions returns lossless, unpadded crops.
func DefaultCropOptions() CropOptions {
	return CropOptions{
		Enabled:     true,
		Format:      imaging.PNG.Name(),
		JPEGQuality: imaging.DefaultJPEGQuality,
	}
}

// AttachCrops cuts each element's box out of img and stores the encoded
// bytes on the element. An element whose crop cannot be produced keeps no
// crop, and a warning describing the failure is returned for it.
func AttachCrops(elements []LayoutElement, img image.Image, opts CropOptions) []string {
	var warnings []string
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	for i := range elements {
		el := &elements[i]
		rect := image.Rect(el.BBox.X1, el.BBox.Y1, el.BBox.X2, el.BBox.Y2)
		rect = imaging.PadRect(rect, opts.Padding, w, h)

		crop, err := imaging.Crop(img, rect, opts.Format, opts.JPEGQuality)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("crop_error: element %d (%s): %v", i, el.Label, err))
			el.CropBytes = nil
			el.CropMIME = ""
			continue
		}
		el.CropBytes = crop.Bytes
		el.CropMIME = crop.MimeType
	}
	return warnings
}
