package detection

import (
	"fmt"

	"github.com/ironsheep/card-regions-mcp/internal/geometry"
)

// CardLabel is the label the classical detector assigns to every region.
const CardLabel = "Card"

// RawDetection is a detector-agnostic candidate: a label, a confidence in
// [0, 1], and a corner box (x1, y1, x2, y2) that may be fractional or fall
// outside the image.
type RawDetection struct {
	Label      string     `json:"label" yaml:"label"`
	Confidence float64    `json:"confidence" yaml:"confidence"`
	BBox       [4]float64 `json:"bbox_xyxy" yaml:"bbox_xyxy"`
}

// FromBox converts a pixel box into a RawDetection.
func FromBox(b geometry.Box, label string, confidence float64) RawDetection {
	c := b.XYXY()
	return RawDetection{
		Label:      label,
		Confidence: confidence,
		BBox:       [4]float64{float64(c.X1), float64(c.Y1), float64(c.X2), float64(c.Y2)},
	}
}

func (d RawDetection) String() string {
	return fmt.Sprintf("%s %.2f [%.1f %.1f %.1f %.1f]", d.Label, d.Confidence, d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3])
}
