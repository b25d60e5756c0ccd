// Command segment applies a 2D polygon or rectangle selection to a point
// cloud through a camera, in the manner of an interactive segmentation tool.
//
//	segment -input scan.xyz -polygon "100,100;700,120;400,500" -keep inside -out-visible kept.xyz
//	segment -input scan.xyz -db segment.db -listen :8080 -grpc-listen :9090
//	segment migrate -db segment.db status
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/cloudsegment/internal/db"
	"github.com/banshee-data/cloudsegment/internal/version"
)

var (
	configPath = flag.String("config", "", "Segmentation config file (.json, .yaml or .yml)")
	dbPath     = flag.String("db", "", "SQLite database for exported polylines and the run log (optional)")
	input      = flag.String("input", "", "XYZ point cloud to segment")

	cameraKind = flag.String("camera", "perspective", "Camera fitted to the cloud: perspective, ortho or pixel")
	width      = flag.Int("width", 800, "Viewport width in pixels")
	height     = flag.Int("height", 600, "Viewport height in pixels")

	polygon        = flag.String("polygon", "", `Polygon vertices in pixels, "x,y;x,y;..."`)
	rect           = flag.String("rect", "", `Rectangle corners in pixels, "x0,y0;x1,y1"`)
	importID       = flag.String("import", "", "Stored polyline ID or name to use as the contour (requires -db)")
	importViewport = flag.Bool("import-viewport", false, "Apply the imported polyline's camera")

	keep         = flag.String("keep", "inside", "Points to keep: inside or outside; empty skips segmentation")
	exportLine   = flag.Bool("export", false, "Export the contour as a polyline")
	export2D     = flag.Bool("export-2d", false, "Export screen-relative vertices even when export_3d is set")
	deleteHidden = flag.Bool("delete-hidden", false, "Finish with apply-and-delete instead of apply")

	plotPath   = flag.String("plot", "", "Write a PNG of the projected selection")
	maxPoints  = flag.Int("max-points", 20000, "Maximum points drawn in the plot")
	visibleOut = flag.String("out-visible", "", "Write the visible points to this XYZ file")
	hiddenOut  = flag.String("out-hidden", "", "Write the hidden points to this XYZ file")

	httpAddr = flag.String("listen", "", "Serve the debug pages on this address until interrupted")
	grpcAddr = flag.String("grpc-listen", "", "Serve the gRPC segmentation service on this address until interrupted")

	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func optionsFromFlags() options {
	return options{
		ConfigPath:     *configPath,
		DBPath:         *dbPath,
		Input:          *input,
		Camera:         *cameraKind,
		Width:          *width,
		Height:         *height,
		Polygon:        *polygon,
		Rect:           *rect,
		Import:         *importID,
		ImportViewport: *importViewport,
		Keep:           *keep,
		Export:         *exportLine,
		Export2D:       *export2D,
		DeleteHidden:   *deleteHidden,
		PlotPath:       *plotPath,
		MaxPoints:      *maxPoints,
		VisibleOut:     *visibleOut,
		HiddenOut:      *hiddenOut,
		HTTPAddr:       *httpAddr,
		GRPCAddr:       *grpcAddr,
	}
}

// runMigrate handles "segment migrate [-db path] <action> [version]".
func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	path := fs.String("db", "segment.db", "SQLite database to migrate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return db.RunMigrateCommand(fs.Args(), *path, os.Stdout)
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(os.Args[2:]); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *input == "" {
		log.Fatal("-input is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("%s starting", version.String())
	if err := run(ctx, optionsFromFlags(), os.Stdout); err != nil {
		log.Fatalf("segment: %v", err)
	}
}
