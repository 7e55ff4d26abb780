// Package geometry provides the axis-aligned box primitives shared by the
// detection and layout packages.
//
// Two equivalent pixel representations are used interchangeably:
//   - Box: (X, Y, W, H) with X,Y the top-left corner
//   - BoxXYXY: (X1, Y1, X2, Y2) with (X1,Y1) inclusive and (X2,Y2) exclusive
//
// Conversion between the two is exact in both directions. Coordinates follow
// the image convention: origin at the top-left, X rightward, Y downward.
package geometry

import (
	"fmt"
	"math"
)

// iouEpsilon keeps IoU finite when both boxes are degenerate.
const iouEpsilon = 1e-6

// Box is an axis-aligned rectangle in pixel units.
type Box struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// BoxXYXY is a Box expressed by its corners.
type BoxXYXY struct {
	X1 int `json:"x1" yaml:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1" yaml:"y1"` // Top edge (inclusive)
	X2 int `json:"x2" yaml:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2" yaml:"y2"` // Bottom edge (exclusive)
}

// NormalizedBox is a BoxXYXY divided by the image width and height.
// Each coordinate lies in [0, 1].
type NormalizedBox struct {
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
	X2 float64 `json:"x2" yaml:"x2"`
	Y2 float64 `json:"y2" yaml:"y2"`
}

// XYXY converts the box to corner form.
func (b Box) XYXY() BoxXYXY {
	return BoxXYXY{X1: b.X, Y1: b.Y, X2: b.X + b.W, Y2: b.Y + b.H}
}

// Area returns W*H, or 0 for degenerate boxes.
func (b Box) Area() int {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return b.W * b.H
}

// Empty reports whether the box has no positive extent.
func (b Box) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// Aspect returns W/H. Degenerate heights yield 0.
func (b Box) Aspect() float64 {
	if b.H <= 0 {
		return 0
	}
	return float64(b.W) / float64(b.H)
}

// Contains reports whether o lies entirely within b.
func (b Box) Contains(o Box) bool {
	return o.X >= b.X && o.Y >= b.Y && o.X+o.W <= b.X+b.W && o.Y+o.H <= b.Y+b.H
}

func (b Box) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", b.X, b.Y, b.W, b.H)
}

// Box converts corner form back to (x, y, w, h).
func (b BoxXYXY) Box() Box {
	return Box{X: b.X1, Y: b.Y1, W: b.X2 - b.X1, H: b.Y2 - b.Y1}
}

// Width returns X2-X1.
func (b BoxXYXY) Width() int { return b.X2 - b.X1 }

// Height returns Y2-Y1.
func (b BoxXYXY) Height() int { return b.Y2 - b.Y1 }

// Normalize divides the corners by the image dimensions. Division is exact;
// no rounding is applied. Callers must pass positive dimensions.
func (b BoxXYXY) Normalize(width, height int) NormalizedBox {
	w := float64(width)
	h := float64(height)
	return NormalizedBox{
		X1: float64(b.X1) / w,
		Y1: float64(b.Y1) / h,
		X2: float64(b.X2) / w,
		Y2: float64(b.Y2) / h,
	}
}

// Valid reports whether the normalized box has positive extent.
func (n NormalizedBox) Valid() bool {
	return n.X2 > n.X1 && n.Y2 > n.Y1
}

// Intersection returns the overlapping area of a and b, or 0 if they are
// disjoint or either is degenerate.
func Intersection(a, b Box) int {
	if a.Empty() || b.Empty() {
		return 0
	}
	w := min(a.X+a.W, b.X+b.W) - max(a.X, b.X)
	h := min(a.Y+a.H, b.Y+b.H) - max(a.Y, b.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU computes intersection-over-union:
//
//	inter / (areaA + areaB - inter + 1e-6)
//
// The result is symmetric, lies in [0, 1], and is 0 whenever either box is
// degenerate.
func IoU(a, b Box) float64 {
	inter := float64(Intersection(a, b))
	if inter == 0 {
		return 0
	}
	union := float64(a.Area()) + float64(b.Area()) - inter
	return inter / (union + iouEpsilon)
}

// IoUXYXY is IoU over fractional corner boxes (x1, y1, x2, y2), as produced
// by external detectors before clamping.
func IoUXYXY(a, b [4]float64) float64 {
	iw := math.Min(a[2], b[2]) - math.Max(a[0], b[0])
	ih := math.Min(a[3], b[3]) - math.Max(a[1], b[1])
	if iw <= 0 || ih <= 0 {
		return 0
	}
	inter := iw * ih
	union := AreaXYXY(a) + AreaXYXY(b) - inter
	return inter / (union + iouEpsilon)
}

// AreaXYXY returns the area of a fractional corner box, or 0 if degenerate.
func AreaXYXY(b [4]float64) float64 {
	w, h := b[2]-b[0], b[3]-b[1]
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}
