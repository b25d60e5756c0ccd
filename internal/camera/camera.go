// Package camera describes the projection collaborator used by the
// segmentation tool: a viewport plus a world → screen transform and its
// inverse.
//
// Screen coordinates follow the GL convention: origin at the bottom-left of
// the viewport, y pointing up, depth in [0, 1].
package camera

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrSingularTransform is returned when the model-view-projection matrix
// cannot be inverted, so screen positions cannot be unprojected.
var ErrSingularTransform = errors.New("camera transform is not invertible")

// Viewport is the GL viewport rectangle in pixels.
type Viewport struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// HalfWidth returns Width/2 as a float.
func (v Viewport) HalfWidth() float64 { return float64(v.Width) / 2.0 }

// HalfHeight returns Height/2 as a float.
func (v Viewport) HalfHeight() float64 { return float64(v.Height) / 2.0 }

// Camera projects world points to screen space.
type Camera interface {
	Viewport() Viewport
	// Project returns the screen position (x, y in pixels, z = depth) of p and
	// whether p lies inside the view frustum.
	Project(p r3.Vec) (r3.Vec, bool)
}

// Unprojector maps a screen position with depth back to world space.
type Unprojector interface {
	Unproject(q r3.Vec) (r3.Vec, error)
}

// ParametersProvider exposes the raw matrices a camera was built from, so they
// can be persisted alongside exported polylines.
type ParametersProvider interface {
	Parameters() Parameters
}

// Parameters is a serializable camera snapshot. Matrices are 4x4 row-major
// (m00..m03, m10..m13, m20..m23, m30..m33).
type Parameters struct {
	ModelView  [16]float64 `json:"model_view"`
	Projection [16]float64 `json:"projection"`
	Viewport   Viewport    `json:"viewport"`
}

// MatrixCamera projects through the product of a projection and a modelview
// matrix.
type MatrixCamera struct {
	params Parameters
	mvp    [16]float64
	inv    [16]float64
	invErr error
}

// New builds a camera from a parameter snapshot. The viewport must have a
// positive size.
func New(params Parameters) (*MatrixCamera, error) {
	if params.Viewport.Width <= 0 || params.Viewport.Height <= 0 {
		return nil, fmt.Errorf("invalid viewport %dx%d", params.Viewport.Width, params.Viewport.Height)
	}

	proj := mat.NewDense(4, 4, params.Projection[:])
	mv := mat.NewDense(4, 4, params.ModelView[:])

	var mvp mat.Dense
	mvp.Mul(proj, mv)

	c := &MatrixCamera{params: params}
	copy(c.mvp[:], denseData(&mvp))

	var inv mat.Dense
	if err := inv.Inverse(&mvp); err != nil {
		c.invErr = fmt.Errorf("%w: %v", ErrSingularTransform, err)
	} else {
		copy(c.inv[:], denseData(&inv))
	}
	return c, nil
}

// denseData flattens a 4x4 matrix in row-major order.
func denseData(m *mat.Dense) []float64 {
	out := make([]float64, 0, 16)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

// Viewport implements Camera.
func (c *MatrixCamera) Viewport() Viewport { return c.params.Viewport }

// Parameters implements ParametersProvider.
func (c *MatrixCamera) Parameters() Parameters { return c.params }

// Project implements Camera.
func (c *MatrixCamera) Project(p r3.Vec) (r3.Vec, bool) {
	m := &c.mvp
	x := m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3]
	y := m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7]
	z := m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11]
	w := m[12]*p.X + m[13]*p.Y + m[14]*p.Z + m[15]
	if w == 0 {
		return r3.Vec{}, false
	}

	nx, ny, nz := x/w, y/w, z/w
	inFrustum := w > 0 &&
		math.Abs(nx) <= 1 && math.Abs(ny) <= 1 && math.Abs(nz) <= 1

	vp := c.params.Viewport
	return r3.Vec{
		X: float64(vp.X) + (nx+1)*float64(vp.Width)/2,
		Y: float64(vp.Y) + (ny+1)*float64(vp.Height)/2,
		Z: (nz + 1) / 2,
	}, inFrustum
}

// Unproject implements Unprojector.
func (c *MatrixCamera) Unproject(q r3.Vec) (r3.Vec, error) {
	if c.invErr != nil {
		return r3.Vec{}, c.invErr
	}
	vp := c.params.Viewport
	nx := (q.X-float64(vp.X))/float64(vp.Width)*2 - 1
	ny := (q.Y-float64(vp.Y))/float64(vp.Height)*2 - 1
	nz := q.Z*2 - 1

	m := &c.inv
	x := m[0]*nx + m[1]*ny + m[2]*nz + m[3]
	y := m[4]*nx + m[5]*ny + m[6]*nz + m[7]
	z := m[8]*nx + m[9]*ny + m[10]*nz + m[11]
	w := m[12]*nx + m[13]*ny + m[14]*nz + m[15]
	if w == 0 {
		return r3.Vec{}, fmt.Errorf("%w: point at infinity", ErrSingularTransform)
	}
	return r3.Vec{X: x / w, Y: y / w, Z: z / w}, nil
}
