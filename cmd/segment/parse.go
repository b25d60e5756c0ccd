package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parsePixels parses "x,y;x,y;..." into pixel positions.
func parsePixels(s string) ([][2]int, error) {
	var out [][2]int
	for i, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		xy := strings.Split(pair, ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("vertex %d: expected x,y, got %q", i+1, pair)
		}
		x, err := strconv.Atoi(strings.TrimSpace(xy[0]))
		if err != nil {
			return nil, fmt.Errorf("vertex %d: bad x: %w", i+1, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(xy[1]))
		if err != nil {
			return nil, fmt.Errorf("vertex %d: bad y: %w", i+1, err)
		}
		out = append(out, [2]int{x, y})
	}
	return out, nil
}

// parsePolygon requires at least three vertices.
func parsePolygon(s string) ([][2]int, error) {
	pts, err := parsePixels(s)
	if err != nil {
		return nil, err
	}
	if len(pts) < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 vertices, got %d", len(pts))
	}
	return pts, nil
}

// parseRect requires exactly two opposite corners.
func parseRect(s string) (a, b [2]int, err error) {
	pts, err := parsePixels(s)
	if err != nil {
		return a, b, err
	}
	if len(pts) != 2 {
		return a, b, fmt.Errorf("rectangle needs 2 corners, got %d", len(pts))
	}
	return pts[0], pts[1], nil
}

// parseKeep maps the -keep flag to a segment direction. ok is false when
// segmentation is skipped.
func parseKeep(s string) (keepInside, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return false, false, nil
	case "inside", "in":
		return true, true, nil
	case "outside", "out":
		return false, true, nil
	default:
		return false, false, fmt.Errorf("unknown -keep value %q (want inside or outside)", s)
	}
}
