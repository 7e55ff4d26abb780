// Package detection finds trading-card regions in a photograph.
//
// The classical path works purely from edge structure:
//
//  1. Candidates: intensity, Gaussian blur, Canny, 3x3 dilation, then the
//     external regions of the dilated map, filtered by area ratio and aspect
//  2. Coarse suppression: greedy NMS at a loose IoU threshold (0.5) so that
//     adjacent cards survive while duplicate contours collapse
//  3. Splitting: boxes much wider or taller than one card are cut at
//     low-edge-density gaps found with a 1-D projection profile, recursing
//     to a bounded depth
//  4. Fine suppression: NMS at a tight threshold (0.3) to remove overlaps
//     the splitter introduced
//  5. Ordering: top-to-bottom, then left-to-right
//
// The result is a list of RawDetection values, the same unit an external
// model detector produces, so both sources share the downstream
// post-processing in package layout.
//
// # Coordinate System
//
// Boxes use pixel coordinates relative to the top-left of the image bounds:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Limitations
//
// Cards are assumed roughly axis-aligned. A rotated card yields its
// axis-aligned bounding box, and cards nested inside another detected outline
// (a binder page frame, for instance) are hidden by the outer region.
package detection
