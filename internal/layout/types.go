package layout

import (
	"errors"
	"image"

	"github.com/ironsheep/card-regions-mcp/internal/detection"
	"github.com/ironsheep/card-regions-mcp/internal/geometry"
)

// ErrInvalidImage is returned when the input cannot be interpreted as an
// image.
var ErrInvalidImage = errors.New("invalid image")

// Detector produces raw detections for an image.
type Detector interface {
	Detect(img image.Image) ([]detection.RawDetection, error)
}

// Describer is implemented by detectors that report their configuration.
// The description is copied into Result.ModelInfo.
type Describer interface {
	Info() map[string]any
}

// LayoutElement is one accepted region.
type LayoutElement struct {
	Label      string                 `json:"label" yaml:"label"`
	Confidence float64                `json:"confidence" yaml:"confidence"`
	BBox       geometry.BoxXYXY       `json:"bbox_xyxy" yaml:"bbox_xyxy"`
	BBoxNorm   geometry.NormalizedBox `json:"bbox_norm" yaml:"bbox_norm"`

	// ReadingOrderHint is set only for text-like labels.
	ReadingOrderHint *int `json:"reading_order_hint" yaml:"reading_order_hint"`

	// CropBytes and CropMIME are set when crop extraction succeeded.
	CropBytes []byte `json:"crop_bytes,omitempty" yaml:"-"`
	CropMIME  string `json:"crop_mime,omitempty" yaml:"crop_mime,omitempty"`
}

// Box returns the element's pixel box in (x, y, w, h) form.
func (e LayoutElement) Box() geometry.Box {
	return e.BBox.Box()
}

// Result is the output of one pipeline call.
type Result struct {
	ImageWidth  int             `json:"image_width" yaml:"image_width"`
	ImageHeight int             `json:"image_height" yaml:"image_height"`
	Elements    []LayoutElement `json:"elements" yaml:"elements"`
	ModelInfo   map[string]any  `json:"model_info,omitempty" yaml:"model_info,omitempty"`
	Warnings    []string        `json:"warnings" yaml:"warnings"`
}
