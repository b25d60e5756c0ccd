package visibility

import "gonum.org/v1/gonum/spatial/r3"

// Flag is the per-point visibility state. The zero value is Visible so a
// freshly allocated flag array shows every point.
type Flag uint8

const (
	Visible Flag = iota
	Hidden
)

func (f Flag) String() string {
	switch f {
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// PointSet is anything with indexed 3D points and a mutable flag per point.
// VisibilityArray must return the live backing slice (len == Size once
// allocated), not a copy.
type PointSet interface {
	Size() int
	Point(i int) r3.Vec
	VisibilityArray() []Flag
}

// Count returns the number of visible and hidden flags in s.
func Count(s PointSet) (visible, hidden int) {
	for _, f := range s.VisibilityArray() {
		if f == Visible {
			visible++
		} else {
			hidden++
		}
	}
	return visible, hidden
}

// Split partitions the indices of s by flag.
func Split(s PointSet) (visible, hidden []int) {
	flags := s.VisibilityArray()
	for i, f := range flags {
		if f == Visible {
			visible = append(visible, i)
		} else {
			hidden = append(hidden, i)
		}
	}
	return visible, hidden
}
