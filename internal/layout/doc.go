// Package layout turns raw detections into finished card regions.
//
// A Pipeline asks a Detector for RawDetections (the classical edge detector
// or an external model) and applies one post-processing contract to both:
//
//   - Labels are mapped through a ClassMap
//   - Boxes are rounded half-to-even and clamped to the image; boxes left
//     with no positive extent are dropped without a warning
//   - Normalized coordinates are the clamped pixels divided by the image size
//   - Text-like labels receive a reading-order hint, top-to-bottom then
//     left-to-right; all other labels, "Card" included, get none
//   - Optional crops are cut from the source image and encoded
//
// Only undecodable or empty input fails a call. Crop encoding problems are
// reported in Result.Warnings and zero elements is a normal result.
//
// Pipelines keep no per-call state and may be shared between goroutines.
package layout
