package monitor

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"net/http"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/cloudsegment/internal/httputil"
	"github.com/banshee-data/cloudsegment/internal/segtool"
)

var (
	visibleColor = color.RGBA{R: 30, G: 120, B: 200, A: 255}
	hiddenColor  = color.RGBA{R: 180, G: 180, B: 180, A: 255}
	contourColor = color.RGBA{R: 20, G: 170, B: 60, A: 255}
)

// NewSelectionPlot draws the projected points (visible and hidden) and the
// contour in the tool's centered 2D frame.
func NewSelectionPlot(title string, points []segtool.ProjectedPoint, contour []r2.Vec, closed bool) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (px)"
	p.Y.Label.Text = "Y (px)"

	visible, hidden, _ := splitPoints(points)
	for _, series := range []struct {
		name   string
		points []segtool.ProjectedPoint
		color  color.Color
	}{
		{"hidden", hidden, hiddenColor},
		{"visible", visible, visibleColor},
	} {
		if len(series.points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(series.points))
		for i, pt := range series.points {
			xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = series.color
		sc.GlyphStyle.Radius = vg.Points(1)
		p.Add(sc)
		p.Legend.Add(series.name, sc)
	}

	if loop := closedLoop(contour, closed); len(loop) > 1 {
		xys := make(plotter.XYs, len(loop))
		for i, v := range loop {
			xys[i] = plotter.XY{X: v.X, Y: v.Y}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		line.Color = contourColor
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("contour", line)
	}
	return p, nil
}

// PlotSelection writes the selection plot to path. The format follows the
// file extension (png, svg, pdf, ...).
func PlotSelection(path, title string, points []segtool.ProjectedPoint, contour []r2.Vec, closed bool) error {
	p, err := NewSelectionPlot(title, points, contour, closed)
	if err != nil {
		return fmt.Errorf("build plot: %w", err)
	}
	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// WritePNG renders the selection plot as PNG to w.
func WritePNG(w io.Writer, title string, points []segtool.ProjectedPoint, contour []r2.Vec, closed bool) error {
	p, err := NewSelectionPlot(title, points, contour, closed)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func (m *Monitor) handlePlot(w http.ResponseWriter, r *http.Request) {
	st := m.src.Status()
	points := m.src.ProjectedPoints(maxPointsParam(r))

	var buf bytes.Buffer
	title := fmt.Sprintf("Segmentation (%s)", st.State)
	if err := WritePNG(&buf, title, points, st.Contour, st.ContourClosed); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render plot: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
