// Package imaging provides the pixel-level operations behind tag tracking.
//
// This package loads frame images, converts pixels to HSV, segments a search
// rectangle by HSV range into a binary mask, and renders crops and annotated
// previews for reviewers. All operations work with standard Go image.Image
// types and use a coordinate system where (0,0) is at the top-left corner,
// X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Rect corners are inclusive on both ends: (X1,Y1) and (X2,Y2) are both
//     part of the rectangle
//
// # HSV Scale
//
// HSV values follow the 8-bit convention used by the tag color profiles:
//   - H: 0-180 (degrees halved)
//   - S: 0-255
//   - V: 0-255
//
// # Thread Safety
//
// The FrameCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images.
//
// # Error Handling
//
// Functions return errors for file I/O and encoding failures. Geometry that
// falls outside an image is clamped rather than rejected, because search
// windows derived from a tag near the border routinely overhang the frame.
package imaging
