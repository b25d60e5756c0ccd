package pointset

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cloudsegment/internal/fsutil"
)

// ReadXYZ parses whitespace or comma separated "x y z [...]" lines. Blank
// lines and lines starting with '#' or "//" are skipped; extra columns are
// ignored.
func ReadXYZ(r io.Reader) ([]r3.Vec, error) {
	var points []r3.Vec

	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scan.Scan() {
		line++
		text := strings.TrimSpace(scan.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "//") {
			continue
		}

		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ',' || r == ';'
		})
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 columns, got %d", line, len(fields))
		}

		var v [3]float64
		for i := range v {
			f, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid coordinate %q: %w", line, fields[i], err)
			}
			v[i] = f
		}
		points = append(points, r3.Vec{X: v[0], Y: v[1], Z: v[2]})
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("read xyz: %w", err)
	}
	return points, nil
}

// LoadXYZ reads a cloud from an ASCII XYZ file, naming it after the file.
func LoadXYZ(path string) (*Cloud, error) {
	return LoadXYZFrom(fsutil.OSFileSystem{}, path)
}

// LoadXYZFrom is LoadXYZ on fsys.
func LoadXYZFrom(fsys fsutil.FileSystem, path string) (*Cloud, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open point file: %w", err)
	}
	defer f.Close()

	points, err := ReadXYZ(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return NewCloud(name, points), nil
}

// WriteXYZ writes one "x y z" line per point.
func WriteXYZ(w io.Writer, points []r3.Vec) error {
	bw := bufio.NewWriter(w)
	for _, p := range points {
		if _, err := fmt.Fprintf(bw, "%g %g %g\n", p.X, p.Y, p.Z); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveXYZ writes c's points to path.
func SaveXYZ(path string, c *Cloud) error {
	return SaveXYZTo(fsutil.OSFileSystem{}, path, c)
}

// SaveXYZTo is SaveXYZ on fsys.
func SaveXYZTo(fsys fsutil.FileSystem, path string, c *Cloud) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create point file: %w", err)
	}
	if err := WriteXYZ(f, c.Points()); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
