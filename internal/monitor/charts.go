package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/cloudsegment/internal/httputil"
	"github.com/banshee-data/cloudsegment/internal/segtool"
)

// splitPoints separates projected points into visible and hidden series and
// returns the largest absolute coordinate seen.
func splitPoints(points []segtool.ProjectedPoint) (visible, hidden []segtool.ProjectedPoint, maxAbs float64) {
	for _, p := range points {
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(p.X), math.Abs(p.Y)))
		if p.Visible {
			visible = append(visible, p)
		} else {
			hidden = append(hidden, p)
		}
	}
	return visible, hidden, maxAbs
}

func scatterData(points []segtool.ProjectedPoint) []opts.ScatterData {
	data := make([]opts.ScatterData, 0, len(points))
	for _, p := range points {
		data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
	}
	return data
}

// closedLoop returns the contour with its first vertex repeated at the end.
func closedLoop(c []r2.Vec, closed bool) []r2.Vec {
	if len(c) == 0 {
		return nil
	}
	loop := append([]r2.Vec(nil), c...)
	if closed {
		loop = append(loop, c[0])
	}
	return loop
}

func (m *Monitor) handleScatter(w http.ResponseWriter, r *http.Request) {
	st := m.src.Status()
	points := m.src.ProjectedPoints(maxPointsParam(r))
	visible, hidden, maxAbs := splitPoints(points)
	for _, v := range st.Contour {
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(v.X), math.Abs(v.Y)))
	}

	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Segmentation", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Projected points",
			Subtitle: fmt.Sprintf("state=%s mode=%s visible=%d hidden=%d", st.State, st.Mode, len(visible), len(hidden)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: -pad, Max: pad, Name: "X (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: -pad, Max: pad, Name: "Y (px)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("visible", scatterData(visible), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	scatter.AddSeries("hidden", scatterData(hidden), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))

	if loop := closedLoop(st.Contour, st.ContourClosed); len(loop) > 0 {
		line := charts.NewLine()
		data := make([]opts.LineData, 0, len(loop))
		for _, v := range loop {
			data = append(data, opts.LineData{Value: []interface{}{v.X, v.Y}})
		}
		line.AddSeries("contour", data)
		scatter.Overlap(line)
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
