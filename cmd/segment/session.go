package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/cloudsegment/internal/camera"
	"github.com/banshee-data/cloudsegment/internal/config"
	"github.com/banshee-data/cloudsegment/internal/contour"
	"github.com/banshee-data/cloudsegment/internal/db"
	"github.com/banshee-data/cloudsegment/internal/monitor"
	"github.com/banshee-data/cloudsegment/internal/monitoring"
	"github.com/banshee-data/cloudsegment/internal/pointset"
	"github.com/banshee-data/cloudsegment/internal/segtool"
	"github.com/banshee-data/cloudsegment/internal/storage/sqlite"
	"github.com/banshee-data/cloudsegment/internal/visibility"
)

type options struct {
	ConfigPath string
	DBPath     string
	Input      string

	Camera        string
	Width, Height int

	Polygon        string
	Rect           string
	Import         string
	ImportViewport bool

	Keep         string
	Export       bool
	Export2D     bool
	DeleteHidden bool

	PlotPath   string
	MaxPoints  int
	VisibleOut string
	HiddenOut  string

	HTTPAddr string
	GRPCAddr string
}

func (o options) serving() bool { return o.HTTPAddr != "" || o.GRPCAddr != "" }

// cliView is the tool's view: a fixed camera that can be replaced by an
// imported polyline's viewport.
type cliView struct {
	cam camera.Camera
}

func (v *cliView) Camera() camera.Camera            { return v.cam }
func (v *cliView) ForceRectangleHeld() bool         { return false }
func (v *cliView) IsDisplayed(pointset.Entity) bool { return true }

func (v *cliView) SetCameraParameters(p camera.Parameters) error {
	cam, err := camera.New(p)
	if err != nil {
		return err
	}
	v.cam = cam
	return nil
}

// session holds everything one run of the command touches.
type session struct {
	opts      options
	out       io.Writer
	cfg       *config.SegmentationConfig
	database  *db.DB
	polylines *sqlite.PolylineStore
	runs      *sqlite.RunStore
	cloud     *pointset.Cloud
	view      *cliView
	tool      *segtool.Tool
	counter   *segtool.ExportCounter
}

func loadConfig(path string) (*config.SegmentationConfig, error) {
	if path == "" {
		return config.DefaultSegmentationConfig(), nil
	}
	return config.LoadSegmentationConfig(path)
}

// run executes one segmentation session described by o.
func run(ctx context.Context, o options, out io.Writer) error {
	s, err := openSession(o, out)
	if err != nil {
		return err
	}
	defer s.close()

	hasContour, err := s.drawContour()
	if err != nil {
		return err
	}
	if !hasContour && !o.serving() {
		return errors.New("no contour: pass -polygon, -rect or -import")
	}

	// A pass pauses the tool and drops the contour, so export and keep a copy
	// for the plot first.
	st := s.tool.Status()
	if hasContour {
		if o.Export {
			if err := s.export(); err != nil {
				return err
			}
		}
		if err := s.segment(); err != nil {
			return err
		}
	}

	if o.PlotPath != "" {
		if err := s.plot(st.Contour, st.ContourClosed); err != nil {
			return err
		}
	}

	if o.serving() {
		if err := serve(ctx, s); err != nil {
			return err
		}
	}

	return s.finish()
}

func openSession(o options, out io.Writer) (*session, error) {
	cfg, err := loadConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	monitoring.SetDebug(cfg.GetDebugLogging())

	s := &session{opts: o, out: out, cfg: cfg, counter: &segtool.ExportCounter{}}

	if o.DBPath != "" {
		s.database, err = db.NewDB(o.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		s.polylines = sqlite.NewPolylineStore(s.database.DB)
		s.runs = sqlite.NewRunStore(s.database.DB)
	}

	s.cloud, err = pointset.LoadXYZ(o.Input)
	if err != nil {
		s.close()
		return nil, err
	}

	cam, err := buildCamera(o.Camera, o.Width, o.Height, s.cloud.Points())
	if err != nil {
		s.close()
		return nil, err
	}
	s.view = &cliView{cam: cam}

	toolOpts := segtool.Options{Config: cfg}
	if s.runs != nil {
		toolOpts.Recorder = s.runs
	}
	s.tool, err = segtool.New(toolOpts)
	if err != nil {
		s.close()
		return nil, err
	}
	s.tool.LinkWith(s.view)
	if err := s.tool.Start(); err != nil {
		s.close()
		return nil, err
	}
	if _, err := s.tool.AddEntity(s.cloud); err != nil {
		s.close()
		return nil, err
	}
	fmt.Fprintf(out, "loaded %s: %d points\n", s.cloud.Name(), s.cloud.Size())
	return s, nil
}

func (s *session) close() {
	if s.database != nil {
		s.database.Close()
	}
}

// drawContour feeds the requested contour to the tool. It reports false when
// none was requested.
func (s *session) drawContour() (bool, error) {
	switch {
	case s.opts.Import != "":
		return true, s.importContour()
	case s.opts.Rect != "":
		a, b, err := parseRect(s.opts.Rect)
		if err != nil {
			return false, err
		}
		if err := s.tool.SetMode(contour.Rectangle); err != nil {
			return false, err
		}
		if err := s.tool.LeftClick(a[0], a[1]); err != nil {
			return false, err
		}
		if err := s.tool.MouseMoved(b[0], b[1]); err != nil {
			return false, err
		}
		s.tool.ButtonReleased()
		return true, nil
	case s.opts.Polygon != "":
		pts, err := parsePolygon(s.opts.Polygon)
		if err != nil {
			return false, err
		}
		if err := s.tool.SetMode(contour.Polygon); err != nil {
			return false, err
		}
		for _, p := range pts {
			if err := s.tool.LeftClick(p[0], p[1]); err != nil {
				return false, err
			}
			if err := s.tool.MouseMoved(p[0], p[1]); err != nil {
				return false, err
			}
		}
		last := pts[len(pts)-1]
		s.tool.RightClick(last[0], last[1])
		return true, nil
	}
	return false, nil
}

func (s *session) importContour() error {
	if s.polylines == nil {
		return errors.New("-import requires -db")
	}
	p, err := s.polylines.GetPolyline(s.opts.Import)
	if errors.Is(err, sqlite.ErrNotFound) {
		p, err = s.polylines.GetPolylineByName(s.opts.Import)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "imported %q (%d vertices)\n", p.Name, len(p.Vertices))
	return s.tool.ImportPolyline(p, s.opts.ImportViewport)
}

func (s *session) segment() error {
	keepInside, ok, err := parseKeep(s.opts.Keep)
	if err != nil || !ok {
		return err
	}
	var stats visibility.Stats
	if keepInside {
		stats, err = s.tool.SegmentIn()
	} else {
		stats, err = s.tool.SegmentOut()
	}
	if err != nil {
		return err
	}
	printStats(s.out, stats)
	return nil
}

func printStats(w io.Writer, st visibility.Stats) {
	policy := "outside"
	if st.KeepInside {
		policy = "inside"
	}
	fmt.Fprintf(w, "segmented (keep %s): %d visible, %d hidden of %d (%d skipped by frustum) in %v\n",
		policy, st.Visible, st.Hidden, st.Points, st.Skipped, st.Duration)
}

func (s *session) export() error {
	ectx := segtool.ExportContext{
		Counter: s.counter,
		Mode2D:  s.opts.Export2D || !s.cfg.GetExport3D(),
	}
	if s.polylines != nil {
		ectx.Saver = s.polylines
	}
	p, err := s.tool.ExportPolyline(ectx)
	if err != nil {
		return err
	}
	kind := "3D"
	if p.Mode2D {
		kind = "2D"
	}
	fmt.Fprintf(s.out, "exported %q: %s, %d vertices, id %s\n", p.Name, kind, len(p.Vertices), p.PolylineID)
	return nil
}

func (s *session) plot(poly []r2.Vec, closed bool) error {
	pts := s.tool.ProjectedPoints(s.opts.MaxPoints)
	title := filepath.Base(s.opts.Input)
	if err := monitor.PlotSelection(s.opts.PlotPath, title, pts, poly, closed); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "wrote plot %s\n", s.opts.PlotPath)
	return nil
}

// finish writes the requested subsets and closes the tool session.
func (s *session) finish() error {
	if s.opts.VisibleOut != "" {
		if err := pointset.SaveXYZ(s.opts.VisibleOut, s.cloud.Subset(s.cloud.Name()+".segmented", visibility.Visible)); err != nil {
			return err
		}
	}
	if s.opts.HiddenOut != "" {
		if err := pointset.SaveXYZ(s.opts.HiddenOut, s.cloud.Subset(s.cloud.Name()+".remaining", visibility.Hidden)); err != nil {
			return err
		}
	}

	var results []segtool.Result
	if s.opts.DeleteHidden {
		results = s.tool.ApplyAndDelete()
	} else {
		results = s.tool.Apply()
	}
	for _, r := range results {
		verb := "kept"
		if r.DeleteHidden {
			verb = "kept (hidden deleted)"
		}
		fmt.Fprintf(s.out, "%s: %s %d, removed %d\n", r.Entity, verb, len(r.Kept), len(r.Removed))
	}
	return nil
}
