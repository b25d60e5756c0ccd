// Package contour owns the 2D selection contour and the finite-state machine
// that builds it from pointer input.
//
// Vertices are expressed in centered screen coordinates: the origin is the
// middle of the viewport and y points up. A contour is either a free polygon or
// a screen-aligned rectangle.
//
// The machine is a value type driven by pure transition methods; Builder wraps
// it with a mutex for callers that share it between goroutines.
package contour
