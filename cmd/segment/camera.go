package main

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cloudsegment/internal/camera"
)

const perspectiveFOV = 50.0

// bounds returns the center and bounding-sphere radius of pts. The radius is
// at least 1.
func bounds(pts []r3.Vec) (center r3.Vec, radius float64) {
	if len(pts) == 0 {
		return r3.Vec{}, 1
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	center = r3.Scale(0.5, r3.Add(lo, hi))
	radius = r3.Norm(r3.Sub(hi, center))
	return center, math.Max(radius, 1)
}

// buildCamera returns a camera looking down -Z at the cloud. "pixel" maps
// world x/y one to one onto centered pixels without fitting.
func buildCamera(kind string, width, height int, pts []r3.Vec) (*camera.MatrixCamera, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid viewport %dx%d", width, height)
	}
	center, r := bounds(pts)
	aspect := float64(width) / float64(height)
	up := r3.Vec{Y: 1}
	vp := camera.Viewport{Width: width, Height: height}

	switch kind {
	case "pixel":
		depth := 1.0
		for _, p := range pts {
			depth = math.Max(depth, math.Abs(p.Z)+1)
		}
		return camera.PixelOrthographic(width, height, depth)

	case "ortho":
		hx, hy := r*1.05, r*1.05
		if aspect >= 1 {
			hx = hy * aspect
		} else {
			hy = hx / aspect
		}
		eye := r3.Add(center, r3.Vec{Z: 2 * r})
		return camera.New(camera.Parameters{
			ModelView:  camera.LookAt(eye, center, up),
			Projection: camera.OrthographicProjection(-hx, hx, -hy, hy, 0.5*r, 4*r),
			Viewport:   vp,
		})

	case "perspective":
		halfY := perspectiveFOV * math.Pi / 360
		halfX := math.Atan(math.Tan(halfY) * aspect)
		dist := r / math.Sin(math.Min(halfX, halfY))
		eye := r3.Add(center, r3.Vec{Z: dist})
		return camera.New(camera.Parameters{
			ModelView:  camera.LookAt(eye, center, up),
			Projection: camera.PerspectiveProjection(perspectiveFOV, aspect, dist-1.5*r, dist+1.5*r),
			Viewport:   vp,
		})

	default:
		return nil, fmt.Errorf("unknown camera %q (want perspective, ortho or pixel)", kind)
	}
}
