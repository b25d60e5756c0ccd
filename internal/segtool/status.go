package segtool

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/cloudsegment/internal/visibility"
)

// EntityStatus summarizes one registered entity.
type EntityStatus struct {
	Name    string `json:"name"`
	Points  int    `json:"points"`
	Visible int    `json:"visible"`
	Hidden  int    `json:"hidden"`
}

// Status is a point-in-time view of the tool.
type Status struct {
	Active        bool              `json:"active"`
	State         string            `json:"state"`
	Mode          string            `json:"mode"`
	ContourSize   int               `json:"contour_size"`
	ContourClosed bool              `json:"contour_closed"`
	Contour       []r2.Vec          `json:"contour"`
	ExportAllowed bool              `json:"export_allowed"`
	Changed       bool              `json:"changed"`
	Entities      []EntityStatus    `json:"entities"`
	LastStats     *visibility.Stats `json:"last_stats,omitempty"`
}

// Status returns the current tool status.
func (t *Tool) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := t.builder.Machine()
	st := Status{
		Active:        t.active,
		State:         m.State.String(),
		Mode:          m.Selected.String(),
		ContourSize:   m.Contour.Len(),
		ContourClosed: m.Contour.Closed,
		Contour:       m.Contour.Vertices,
		ExportAllowed: m.ExportAllowed,
		Changed:       t.changed,
		Entities:      make([]EntityStatus, 0, len(t.targets)),
	}
	if t.lastStats != nil {
		s := *t.lastStats
		st.LastStats = &s
	}
	for _, tg := range t.targets {
		v, h := visibility.Count(tg.cloud)
		st.Entities = append(st.Entities, EntityStatus{
			Name:    tg.entity.Name(),
			Points:  tg.cloud.Size(),
			Visible: v,
			Hidden:  h,
		})
	}
	return st
}

// ProjectedPoint is a registered point in the tool's centered 2D frame.
type ProjectedPoint struct {
	X, Y    float64
	Visible bool
}

// ProjectedPoints projects up to maxPoints registered points (all when
// maxPoints <= 0) through the current camera, sampling evenly when there are
// more. Points outside the frustum are dropped.
func (t *Tool) ProjectedPoints(maxPoints int) []ProjectedPoint {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.view == nil {
		return nil
	}
	cam := t.view.Camera()
	if cam == nil {
		return nil
	}
	vp := cam.Viewport()
	hw, hh := vp.HalfWidth(), vp.HalfHeight()

	total := 0
	for _, tg := range t.targets {
		total += tg.cloud.Size()
	}
	step := 1
	if maxPoints > 0 && total > maxPoints {
		step = (total + maxPoints - 1) / maxPoints
	}

	var out []ProjectedPoint
	k := 0
	for _, tg := range t.targets {
		flags := tg.cloud.VisibilityArray()
		for i := 0; i < tg.cloud.Size(); i++ {
			k++
			if (k-1)%step != 0 {
				continue
			}
			q, in := cam.Project(tg.cloud.Point(i))
			if !in {
				continue
			}
			out = append(out, ProjectedPoint{
				X:       q.X - hw,
				Y:       q.Y - hh,
				Visible: i >= len(flags) || flags[i] == visibility.Visible,
			})
		}
	}
	return out
}
