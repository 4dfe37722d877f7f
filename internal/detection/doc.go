// Package detection turns a binary color mask into tag candidates.
//
// The mask comes from imaging.Segment over a search rectangle. Aggregate finds
// its 8-connected components with an iterative flood fill and reports one
// bounding box per component together with their union.
//
// # Coordinate System
//
// Boxes are relative to the mask's own origin, not the frame:
//   - Origin (0, 0) at the mask's top-left corner
//   - X increases rightward
//   - Y increases downward
//   - W and H count pixels, so a single set pixel is a 1x1 box
//
// Callers add the search rectangle's top-left corner to map a box back into
// frame coordinates.
//
// # Size Filter
//
// A component is dropped when its box satisfies w + h <= threshold. At the
// default threshold of 1 nothing is dropped; the knob exists for footage with
// speckle noise.
package detection
