// Package testutil provides shared test fixtures for driving the
// segmentation tool.
//
// This package centralises the fake view, camera and pointer sequences used
// by the storage, rpc and command tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/cloudsegment/internal/camera"
	"github.com/banshee-data/cloudsegment/internal/pointset"
)

// ViewSize is the width and height of the fixture viewport in pixels.
const ViewSize = 400

// StaticView is a view with a fixed camera that displays every entity.
type StaticView struct {
	Cam       camera.Camera
	Rectangle bool
}

func (v *StaticView) Camera() camera.Camera            { return v.Cam }
func (v *StaticView) ForceRectangleHeld() bool         { return v.Rectangle }
func (v *StaticView) IsDisplayed(pointset.Entity) bool { return true }

// PixelCamera returns a ViewSize square pixel-orthographic camera, so world
// x/y map to centered screen coordinates one to one.
func PixelCamera(t testing.TB) *camera.MatrixCamera {
	t.Helper()
	cam, err := camera.PixelOrthographic(ViewSize, ViewSize, 1000)
	if err != nil {
		t.Fatalf("pixel camera: %v", err)
	}
	return cam
}

// NewStaticView returns a StaticView on PixelCamera.
func NewStaticView(t testing.TB) *StaticView {
	t.Helper()
	return &StaticView{Cam: PixelCamera(t)}
}

// Pointer is the subset of tool input handlers DrawSquare needs.
type Pointer interface {
	LeftClick(x, y int) error
	MouseMoved(x, y int) error
	RightClick(x, y int)
}

// DrawSquare clicks a closed polygon of half-size h pixels around the
// viewport center.
func DrawSquare(t testing.TB, p Pointer, h int) {
	t.Helper()
	c := ViewSize / 2
	for _, v := range [][2]int{{c - h, c + h}, {c + h, c + h}, {c + h, c - h}, {c - h, c - h}} {
		AssertNoError(t, p.LeftClick(v[0], v[1]))
		AssertNoError(t, p.MouseMoved(v[0], v[1]))
	}
	p.RightClick(c-h, c-h)
}

// SampleCloud returns a cloud whose first two points fall inside a square of
// half-size 50 and whose last two fall outside.
func SampleCloud(name string) *pointset.Cloud {
	return pointset.NewCloud(name, []r3.Vec{
		{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 100, Y: 100}, {X: -150, Y: 0},
	})
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewLoopbackRequest creates a test HTTP request that passes debug-route
// loopback checks.
func NewLoopbackRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
