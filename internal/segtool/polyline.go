package segtool

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cloudsegment/internal/camera"
	"github.com/banshee-data/cloudsegment/internal/contour"
	"github.com/banshee-data/cloudsegment/internal/monitoring"
	"github.com/banshee-data/cloudsegment/internal/pointset"
)

// Polyline is an exported contour. In 2D mode vertices are relative to the
// view center (z = 0); otherwise they are world coordinates.
type Polyline struct {
	PolylineID string             `json:"polyline_id"`
	Name       string             `json:"name"`
	Vertices   []r3.Vec           `json:"vertices"`
	Closed     bool               `json:"closed"`
	Mode2D     bool               `json:"mode_2d"`
	Shift      *pointset.Shift    `json:"shift,omitempty"`
	Viewport   *camera.Parameters `json:"viewport,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// PolylineSaver persists exported polylines.
type PolylineSaver interface {
	SavePolyline(p *Polyline) error
}

// ExportCounter numbers exported polylines. The zero value starts at 1.
type ExportCounter struct {
	n atomic.Int64
}

// Next returns the next export number.
func (c *ExportCounter) Next() int { return int(c.n.Add(1)) }

// Current returns the last number handed out.
func (c *ExportCounter) Current() int { return int(c.n.Load()) }

// ExportContext carries the caller-owned state used by ExportPolyline.
type ExportContext struct {
	Counter *ExportCounter
	// Mode2D exports screen-relative vertices instead of world coordinates.
	Mode2D bool
	// Saver, when set, receives the polyline.
	Saver PolylineSaver
}

// ExportPolyline turns the current contour into a standalone polyline. In 3D
// mode each vertex is unprojected at depth 0 through the current camera; if
// that is not possible the export falls back to 2D. Global shift is copied
// from the first shifted entity; with several entities only when the
// configuration allows it.
func (t *Tool) ExportPolyline(ctx ExportContext) (*Polyline, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ctx.Counter == nil {
		return nil, errors.New("export polyline: nil counter")
	}
	if !t.builder.ExportAllowed() {
		return nil, fmt.Errorf("%w: no contour to export", ErrInvalidState)
	}
	if t.view == nil {
		return nil, fmt.Errorf("%w: no associated view", ErrInvalidState)
	}

	poly := t.builder.Snapshot()
	cam := t.view.Camera()

	out := &Polyline{
		Closed:    poly.Closed,
		Mode2D:    ctx.Mode2D,
		CreatedAt: t.clock.Now().UTC(),
	}

	if !out.Mode2D {
		verts, err := unprojectContour(poly, cam)
		if err != nil {
			monitoring.Logf("[Segmentation] Failed to convert 2D polyline to 3D! (%v)", err)
			out.Mode2D = true
		} else {
			out.Vertices = verts
			out.Shift = t.exportShiftLocked()
		}
	}
	if out.Mode2D {
		out.Vertices = make([]r3.Vec, poly.Len())
		for i, v := range poly.Vertices {
			out.Vertices[i] = r3.Vec{X: v.X, Y: v.Y}
		}
	}

	out.Name = fmt.Sprintf("Segmentation polyline #%d", ctx.Counter.Next())
	if pp, ok := cam.(camera.ParametersProvider); ok {
		params := pp.Parameters()
		out.Viewport = &params
	}

	if ctx.Saver != nil {
		if err := ctx.Saver.SavePolyline(out); err != nil {
			return nil, fmt.Errorf("save polyline: %w", err)
		}
	}
	monitoring.Logf("[Segmentation] Polyline exported (%d vertices)", len(out.Vertices))
	return out, nil
}

func unprojectContour(poly contour.Contour, cam camera.Camera) ([]r3.Vec, error) {
	un, ok := cam.(camera.Unprojector)
	if !ok {
		return nil, fmt.Errorf("%w: camera cannot unproject", ErrConversionInconsistency)
	}
	vp := cam.Viewport()
	hw, hh := vp.HalfWidth(), vp.HalfHeight()

	verts := make([]r3.Vec, poly.Len())
	for i, v := range poly.Vertices {
		q, err := un.Unproject(r3.Vec{X: hw + v.X, Y: hh + v.Y})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConversionInconsistency, err)
		}
		verts[i] = q
	}
	return verts, nil
}

func (t *Tool) exportShiftLocked() *pointset.Shift {
	for _, tg := range t.targets {
		sh, ok := tg.entity.(pointset.Shifted)
		if !ok || !sh.IsShifted() {
			continue
		}
		if len(t.targets) != 1 && !t.cfg.GetApplyGlobalShift() {
			return nil
		}
		s := sh.GlobalShift()
		return &s
	}
	return nil
}

// ImportPolyline makes p the active contour. 3D vertices are projected into
// the tool's 2D frame. A closed polyline becomes a finalized contour; an open
// one resumes drawing in polygon mode. When p carries a viewport and the view
// can apply one, applyViewport selects whether to do so.
func (t *Tool) ImportPolyline(p *Polyline, applyViewport bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.view == nil {
		return fmt.Errorf("%w: no associated view", ErrInvalidState)
	}
	if !t.active {
		return fmt.Errorf("%w: tool not started", ErrInvalidState)
	}

	if applyViewport && p.Viewport != nil {
		if vs, ok := t.view.(ViewportSetter); ok {
			if err := vs.SetCameraParameters(*p.Viewport); err != nil {
				monitoring.Logf("[Segmentation] failed to apply polyline viewport: %v", err)
			}
		}
	}

	cam := t.view.Camera()
	var hw, hh float64
	if cam != nil {
		vp := cam.Viewport()
		hw, hh = vp.HalfWidth(), vp.HalfHeight()
	}

	c := contour.Contour{
		Vertices: make([]r2.Vec, len(p.Vertices)),
		Mode:     contour.Polygon,
		Closed:   p.Closed,
	}
	for i, v := range p.Vertices {
		if p.Mode2D || cam == nil {
			c.Vertices[i] = r2.Vec{X: v.X, Y: v.Y}
			continue
		}
		q, _ := cam.Project(v)
		c.Vertices[i] = r2.Vec{X: q.X - hw, Y: q.Y - hh}
	}

	if err := t.builder.Import(c); err != nil {
		monitoring.Logf("[Segmentation] Not enough memory!")
		return err
	}
	return nil
}
