// Package monitor exposes the segmentation tool on the tsweb debug mux:
// status JSON, recorded runs, an echarts scatter of the projected points and a
// static PNG plot.
package monitor

import (
	"math"
	"net/http"

	"tailscale.com/tsweb"

	"github.com/banshee-data/cloudsegment/internal/httputil"
	"github.com/banshee-data/cloudsegment/internal/segtool"
)

const defaultMaxPoints = 8000

// Source is the tool being monitored.
type Source interface {
	Status() segtool.Status
	ProjectedPoints(maxPoints int) []segtool.ProjectedPoint
}

// RunLister lists recorded classification runs.
type RunLister interface {
	ListRuns(limit int) ([]*segtool.Run, error)
}

// Monitor serves the debug pages.
type Monitor struct {
	src  Source
	runs RunLister
}

// New returns a monitor for src. runs may be nil.
func New(src Source, runs RunLister) *Monitor {
	return &Monitor{src: src, runs: runs}
}

// AttachAdminRoutes mounts the debug pages under /debug/segmentation/.
func (m *Monitor) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.Handle("segmentation", "Segmentation tool status (JSON)", http.HandlerFunc(m.handleStatus))
	debug.Handle("segmentation/runs", "Recorded segmentation runs (JSON)", http.HandlerFunc(m.handleRuns))
	debug.Handle("segmentation/scatter", "Projected points and contour (echarts)", http.HandlerFunc(m.handleScatter))
	debug.Handle("segmentation/plot.png", "Projected points and contour (PNG)", http.HandlerFunc(m.handlePlot))
}

// maxPointsParam reads max_points, keeping it within [100, 50000].
func maxPointsParam(r *http.Request) int {
	return httputil.IntQuery(r, "max_points", defaultMaxPoints, 100, 50000)
}

func (m *Monitor) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, m.src.Status())
}

func (m *Monitor) handleRuns(w http.ResponseWriter, r *http.Request) {
	if m.runs == nil {
		httputil.WriteJSONError(w, http.StatusNotFound, "run log not configured")
		return
	}
	limit := httputil.IntQuery(r, "limit", 50, 1, math.MaxInt)
	runs, err := m.runs.ListRuns(limit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*segtool.Run{}
	}
	httputil.WriteJSON(w, http.StatusOK, runs)
}
