package visibility

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/banshee-data/cloudsegment/internal/camera"
	"github.com/banshee-data/cloudsegment/internal/contour"
	"github.com/banshee-data/cloudsegment/internal/monitoring"
	"github.com/banshee-data/cloudsegment/internal/timeutil"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidState is returned when classification is requested without a
// closed contour or without a camera. Nothing is modified.
var ErrInvalidState = errors.New("invalid state")

// Options tunes the classifier.
type Options struct {
	// Workers bounds the number of concurrent chunks; <= 0 means GOMAXPROCS.
	Workers int
	// ChunkSize is the number of points handed to one worker at a time.
	ChunkSize int
	// FrustumShortcut skips the polygon test for points outside the frustum
	// when the whole contour is inside it.
	FrustumShortcut bool
	// Clock times each pass; nil means the wall clock.
	Clock timeutil.Clock
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{
		Workers:         runtime.GOMAXPROCS(0),
		ChunkSize:       4096,
		FrustumShortcut: true,
		Clock:           timeutil.RealClock{},
	}
}

// Stats summarizes one classification pass.
type Stats struct {
	KeepInside        bool          `json:"keep_inside"`
	PointSets         int           `json:"point_sets"`
	Points            int           `json:"points"`  // points that were visible when the pass started
	Tested            int           `json:"tested"`  // points that went through the polygon test
	Skipped           int           `json:"skipped"` // points classified outside by the frustum shortcut
	Visible           int           `json:"visible"` // points still visible after the pass
	Hidden            int           `json:"hidden"`  // points hidden by this pass
	PolyInsideFrustum bool          `json:"poly_inside_frustum"`
	Duration          time.Duration `json:"duration_ns"`
}

// Classifier applies a contour to point sets.
type Classifier struct {
	opts Options
}

// NewClassifier returns a classifier with the given options. Zero Workers,
// ChunkSize and Clock take their defaults; FrustumShortcut is used as given.
func NewClassifier(opts Options) *Classifier {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 4096
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	return &Classifier{opts: opts}
}

// Options returns the effective options.
func (c *Classifier) Options() Options { return c.opts }

// Classify projects every visible point of every set through cam and keeps it
// visible when its inside/outside status matches keepInside. Hidden points are
// left untouched.
//
// The contour must be closed with at least three vertices. With no point
// sets the call is a no-op.
func (c *Classifier) Classify(poly contour.Contour, sets []PointSet, cam camera.Camera, keepInside bool) (Stats, error) {
	stats := Stats{KeepInside: keepInside}

	if !poly.Usable() {
		return stats, fmt.Errorf("%w: define and/or close the segmentation polygon first", ErrInvalidState)
	}
	if cam == nil {
		return stats, fmt.Errorf("%w: no camera", ErrInvalidState)
	}
	if len(sets) == 0 {
		return stats, nil
	}
	for i, s := range sets {
		if len(s.VisibilityArray()) != s.Size() {
			return stats, fmt.Errorf("%w: point set %d has no visibility array", ErrInvalidState, i)
		}
	}

	start := c.opts.Clock.Now()
	vp := cam.Viewport()
	halfW, halfH := vp.HalfWidth(), vp.HalfHeight()

	stats.PolyInsideFrustum = c.polyInsideFrustum(poly, cam)
	if stats.PolyInsideFrustum {
		monitoring.Debugf("[Segmentation] Polyline is fully inside frustum: Yes")
	} else {
		monitoring.Debugf("[Segmentation] Polyline is fully inside frustum: No")
	}
	shortcut := c.opts.FrustumShortcut && stats.PolyInsideFrustum

	var points, tested, skipped, visible, hidden atomic.Int64

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)

	for _, s := range sets {
		flags := s.VisibilityArray()
		n := s.Size()
		for lo := 0; lo < n; lo += c.opts.ChunkSize {
			hi := min(lo+c.opts.ChunkSize, n)
			g.Go(func() error {
				var nPoints, nTested, nSkipped, nVisible, nHidden int64
				for i := lo; i < hi; i++ {
					if flags[i] != Visible {
						continue
					}
					nPoints++

					q, inFrustum := cam.Project(s.Point(i))

					inside := false
					if inFrustum || !shortcut {
						nTested++
						inside = poly.Contains(r2.Vec{X: q.X - halfW, Y: q.Y - halfH})
					} else {
						nSkipped++
					}

					if keepInside == inside {
						nVisible++
					} else {
						flags[i] = Hidden
						nHidden++
					}
				}
				points.Add(nPoints)
				tested.Add(nTested)
				skipped.Add(nSkipped)
				visible.Add(nVisible)
				hidden.Add(nHidden)
				return nil
			})
		}
	}
	_ = g.Wait()

	stats.PointSets = len(sets)
	stats.Points = int(points.Load())
	stats.Tested = int(tested.Load())
	stats.Skipped = int(skipped.Load())
	stats.Visible = int(visible.Load())
	stats.Hidden = int(hidden.Load())
	stats.Duration = c.opts.Clock.Since(start)
	return stats, nil
}

// polyInsideFrustum reports whether every contour vertex, taken as a point at
// z=0, projects inside the frustum.
func (c *Classifier) polyInsideFrustum(poly contour.Contour, cam camera.Camera) bool {
	var outside atomic.Bool

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for _, v := range poly.Vertices {
		g.Go(func() error {
			if _, in := cam.Project(r3.Vec{X: v.X, Y: v.Y}); !in {
				outside.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	return !outside.Load()
}
