package detection

import (
	"sort"

	"github.com/ironsheep/card-regions-mcp/internal/geometry"
)

// Default IoU thresholds for the two suppression passes.
const (
	DefaultCoarseIoU = 0.5
	DefaultFineIoU   = 0.3
)

// SuppressIndices performs greedy non-maximum suppression and returns the
// indices of the kept boxes.
//
// Boxes are visited by area, largest first; equal areas keep their input
// order. Each visited box is kept and every remaining box whose IoU with it
// exceeds threshold is discarded. The result follows visitation order.
func SuppressIndices(boxes []geometry.Box, threshold float64) []int {
	return suppress(len(boxes),
		func(i int) float64 { return float64(boxes[i].Area()) },
		func(i, j int) float64 { return geometry.IoU(boxes[i], boxes[j]) },
		threshold)
}

// Suppress is SuppressIndices returning the kept boxes themselves.
func Suppress(boxes []geometry.Box, threshold float64) []geometry.Box {
	keep := SuppressIndices(boxes, threshold)
	out := make([]geometry.Box, len(keep))
	for k, i := range keep {
		out[k] = boxes[i]
	}
	return out
}

// SuppressDetections applies the same suppression to raw detections,
// comparing their fractional boxes directly. Confidence plays no part in
// the ranking; area does.
func SuppressDetections(dets []RawDetection, threshold float64) []RawDetection {
	keep := suppress(len(dets),
		func(i int) float64 { return geometry.AreaXYXY(dets[i].BBox) },
		func(i, j int) float64 { return geometry.IoUXYXY(dets[i].BBox, dets[j].BBox) },
		threshold)
	out := make([]RawDetection, len(keep))
	for k, i := range keep {
		out[k] = dets[i]
	}
	return out
}

func suppress(n int, area func(int) float64, iou func(int, int) float64, threshold float64) []int {
	if n == 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return area(order[a]) > area(order[b])
	})

	removed := make([]bool, n)
	keep := make([]int, 0, n)
	for k, i := range order {
		if removed[k] {
			continue
		}
		keep = append(keep, i)
		for m := k + 1; m < n; m++ {
			if !removed[m] && iou(i, order[m]) > threshold {
				removed[m] = true
			}
		}
	}
	return keep
}
