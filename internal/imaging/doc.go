// Package imaging provides the raster primitives used by card detection.
//
// This package decodes photographs, reduces them to a single intensity
// channel, smooths them, extracts binary edge maps, dilates those maps,
// encodes rectangular crops, and draws outline overlays for inspection. All operations work with standard Go image.Image
// types and use a coordinate system where (0,0) is at the top-left corner,
// X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Intermediate single-channel images (*image.Gray) produced here always have
// bounds starting at (0,0), regardless of the bounds of the source image.
//
// # Binary Edge Maps
//
// Edge maps are *image.Gray values where 255 marks an edge pixel and 0 marks
// background. Dilate preserves this encoding.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Undecodable image bytes or unreadable files
//   - Invalid regions (x1 >= x2 or y1 >= y2)
//   - Unsupported crop formats and encoding errors
package imaging
