package contour

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// Mode selects the contour shape.
type Mode int

const (
	Polygon Mode = iota
	Rectangle
)

func (m Mode) String() string {
	switch m {
	case Polygon:
		return "polygon"
	case Rectangle:
		return "rectangle"
	default:
		return "unknown"
	}
}

// ParseMode converts "polygon" or "rectangle" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "polygon", "":
		return Polygon, nil
	case "rectangle":
		return Rectangle, nil
	default:
		return Polygon, fmt.Errorf("unknown contour mode %q", s)
	}
}

// Contour is an ordered vertex loop. Closed contours are ready for
// classification; the closing edge from the last vertex back to the first is
// implicit.
type Contour struct {
	Vertices []r2.Vec
	Mode     Mode
	Closed   bool
}

// Len returns the number of vertices.
func (c Contour) Len() int { return len(c.Vertices) }

// Empty reports whether the contour has no vertices.
func (c Contour) Empty() bool { return len(c.Vertices) == 0 }

// Clone returns a deep copy.
func (c Contour) Clone() Contour {
	c.Vertices = slices.Clone(c.Vertices)
	return c
}

// Usable reports whether the contour can drive a classification: it must be
// closed and have at least three vertices.
func (c Contour) Usable() bool {
	return c.Closed && len(c.Vertices) >= 3
}

// Contains runs the even-odd ray-crossing test for p against the vertex loop.
//
// Edge handling follows the half-open crossing rule: a horizontal ray to the
// right of p counts an edge when exactly one endpoint lies strictly above p.
// For a screen-aligned rectangle, points on the bottom or left edge count as
// inside and points on the top or right edge as outside.
func (c Contour) Contains(p r2.Vec) bool {
	v := c.Vertices
	n := len(v)
	if n < 3 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := v[i], v[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}
