// Package tracking locates the head and tail-base tags frame by frame and
// owns the state of an annotation session.
//
// # Locating a tag
//
// Locator evaluates one tag in one frame:
//
//  1. A position already Resolved or Deleted in the record is a user override
//     and is returned unchanged; no detection runs.
//  2. The search window is a square of ±1.5 tag sizes around the previous
//     frame's resolved position, or nearly the whole frame when there is none.
//  3. The head profile depends on the session identifier; the tail-base
//     profile is fixed.
//  4. The window is color-segmented and the connected components boxed. The
//     candidate is the per-axis median of the box centers. With no boxes the
//     previous resolved position is carried forward and the frame is flagged.
//  5. A candidate more than 3 tag sizes from the previous resolved position
//     is rejected as Unresolved.
//
// Frames depend on their predecessor, so a session processes one frame at a
// time. Analyzer drives continuous analysis as an explicit state machine:
// each Advance call moves one frame and reports whether to keep going.
package tracking
