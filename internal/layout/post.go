package layout

import (
	"math"
	"sort"

	"github.com/ironsheep/card-regions-mcp/internal/detection"
	"github.com/ironsheep/card-regions-mcp/internal/geometry"
)

// orderableLabels are the text-like labels that take part in reading order.
var orderableLabels = map[string]bool{
	"Title":          true,
	"Section-header": true,
	"Text":           true,
	"List-item":      true,
	"Caption":        true,
	"Footnote":       true,
}

// IsOrderable reports whether label receives a reading-order hint.
func IsOrderable(label string) bool {
	return orderableLabels[label]
}

// ClampBox rounds a fractional corner box to whole pixels (half to even) and
// clamps it into [0, width] x [0, height]. ok is false when the result has
// no positive width or height, or when any coordinate is NaN.
func ClampBox(bbox [4]float64, width, height int) (box geometry.BoxXYXY, ok bool) {
	var c [4]int
	for i, v := range bbox {
		if math.IsNaN(v) {
			return geometry.BoxXYXY{}, false
		}
		limit := float64(width)
		if i%2 == 1 {
			limit = float64(height)
		}
		c[i] = int(math.Max(0, math.Min(math.RoundToEven(v), limit)))
	}

	box = geometry.BoxXYXY{X1: c[0], Y1: c[1], X2: c[2], Y2: c[3]}
	if box.Width() <= 0 || box.Height() <= 0 {
		return geometry.BoxXYXY{}, false
	}
	return box, true
}

// Normalize divides a clamped box by the image dimensions.
func Normalize(box geometry.BoxXYXY, width, height int) geometry.NormalizedBox {
	return box.Normalize(width, height)
}

// ToElements maps labels through classMap, clamps and normalizes each
// detection, and drops detections that clamp to nothing. Input order is
// preserved.
func ToElements(dets []detection.RawDetection, width, height int, classMap ClassMap) []LayoutElement {
	elements := make([]LayoutElement, 0, len(dets))
	for _, det := range dets {
		box, ok := ClampBox(det.BBox, width, height)
		if !ok {
			continue
		}
		elements = append(elements, LayoutElement{
			Label:      classMap.Lookup(det.Label),
			Confidence: det.Confidence,
			BBox:       box,
			BBoxNorm:   Normalize(box, width, height),
		})
	}
	return elements
}

// AssignReadingOrder numbers the text-like elements 0..n-1 by (top, left),
// keeping input order among exact ties. Other elements are left untouched.
// The slice itself is not reordered.
func AssignReadingOrder(elements []LayoutElement) {
	var idx []int
	for i, el := range elements {
		if IsOrderable(el.Label) {
			idx = append(idx, i)
		}
	}

	sort.SliceStable(idx, func(a, b int) bool {
		ea, eb := elements[idx[a]].BBox, elements[idx[b]].BBox
		if ea.Y1 != eb.Y1 {
			return ea.Y1 < eb.Y1
		}
		return ea.X1 < eb.X1
	})

	for order, i := range idx {
		hint := order
		elements[i].ReadingOrderHint = &hint
	}
}
