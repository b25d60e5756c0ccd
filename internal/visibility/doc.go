// Package visibility classifies the points of registered point sets against a
// closed screen-space contour and updates their per-point visibility flags.
//
// The classifier never owns points: it reads positions through the PointSet
// capability and writes only the flag array each set exposes. Classification
// only ever hides points; restoring them is the caller's job.
package visibility
