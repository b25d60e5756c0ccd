package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Identity returns the 4x4 identity matrix in row-major order.
func Identity() [16]float64 {
	return [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// LookAt builds a model-view matrix placing the eye at eye, looking towards
// target, with up as the approximate up direction.
func LookAt(eye, target, up r3.Vec) [16]float64 {
	f := r3.Unit(r3.Sub(target, eye))
	s := r3.Unit(r3.Cross(f, up))
	u := r3.Cross(s, f)

	return [16]float64{
		s.X, s.Y, s.Z, -r3.Dot(s, eye),
		u.X, u.Y, u.Z, -r3.Dot(u, eye),
		-f.X, -f.Y, -f.Z, r3.Dot(f, eye),
		0, 0, 0, 1,
	}
}

// PerspectiveProjection builds a GL perspective matrix. fovYDeg is the full
// vertical field of view in degrees.
func PerspectiveProjection(fovYDeg, aspect, near, far float64) [16]float64 {
	f := 1.0 / math.Tan(fovYDeg*math.Pi/360.0)
	return [16]float64{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) / (near - far), 2 * far * near / (near - far),
		0, 0, -1, 0,
	}
}

// OrthographicProjection builds a GL orthographic matrix.
func OrthographicProjection(left, right, bottom, top, near, far float64) [16]float64 {
	return [16]float64{
		2 / (right - left), 0, 0, -(right + left) / (right - left),
		0, 2 / (top - bottom), 0, -(top + bottom) / (top - bottom),
		0, 0, -2 / (far - near), -(far + near) / (far - near),
		0, 0, 0, 1,
	}
}

// PixelOrthographic returns a camera that maps world (x, y) one-to-one onto
// centered screen pixels: world origin lands on the viewport center. Depth
// covers z in [-depth, depth].
func PixelOrthographic(width, height int, depth float64) (*MatrixCamera, error) {
	hw, hh := float64(width)/2, float64(height)/2
	return New(Parameters{
		ModelView:  Identity(),
		Projection: OrthographicProjection(-hw, hw, -hh, hh, -depth, depth),
		Viewport:   Viewport{Width: width, Height: height},
	})
}
