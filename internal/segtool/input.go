package segtool

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/cloudsegment/internal/contour"
	"github.com/banshee-data/cloudsegment/internal/monitoring"
)

// Key identifies a keyboard shortcut.
type Key int

const (
	KeySpace Key = iota + 1
	KeyI
	KeyO
	KeyReturn
	KeyDelete
	KeyEscape
	KeyTab
)

var keyNames = map[Key]string{
	KeySpace:  "space",
	KeyI:      "i",
	KeyO:      "o",
	KeyReturn: "return",
	KeyDelete: "delete",
	KeyEscape: "escape",
	KeyTab:    "tab",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKey maps a key name to a Key. Single letters are case-insensitive.
func ParseKey(s string) (Key, bool) {
	for k, name := range keyNames {
		if name == s || (len(s) == 1 && len(name) == 1 && s[0]|0x20 == name[0]) {
			return k, true
		}
	}
	return 0, false
}

// centered converts a pixel position (origin top-left, y down) to the tool's
// 2D frame (origin at the view center, y up). ok is false when the position is
// outside the viewport or no view is linked.
func (t *Tool) centered(x, y int) (p r2.Vec, ok bool) {
	if t.view == nil {
		return r2.Vec{}, false
	}
	cam := t.view.Camera()
	if cam == nil {
		return r2.Vec{}, false
	}
	vp := cam.Viewport()
	p = r2.Vec{
		X: float64(x) - vp.HalfWidth(),
		Y: vp.HalfHeight() - float64(y),
	}
	return p, x >= 0 && y >= 0 && x < vp.Width && y < vp.Height
}

// LeftClick adds a contour vertex at pixel (x, y). Clicks outside the view
// are ignored.
func (t *Tool) LeftClick(x, y int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.centered(x, y)
	if !ok {
		return nil
	}
	return t.builder.Begin(p, t.view.ForceRectangleHeld())
}

// MouseMoved moves the live contour vertex to pixel (x, y).
func (t *Tool) MouseMoved(x, y int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.view == nil {
		return nil
	}
	p, _ := t.centered(x, y)
	return t.builder.UpdateLiveVertex(p)
}

// RightClick closes a polygon contour.
func (t *Tool) RightClick(x, y int) {
	t.builder.ClosePolyLine()
}

// ButtonReleased closes a rectangle contour.
func (t *Tool) ButtonReleased() {
	t.builder.CloseRectangle()
}

// Pause suspends (true) or resumes (false) contour input. Pausing drops any
// contour. It fails with ErrInvalidState when the tool is not started.
func (t *Tool) Pause(on bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return fmt.Errorf("%w: tool not started", ErrInvalidState)
	}
	t.builder.Pause(on)
	if on {
		monitoring.Logf("[Segmentation] Segmentation [PAUSED]")
		return nil
	}
	monitoring.Logf("[Segmentation] Segmentation [ON] (%s selection)", t.builder.SelectedMode())
	return nil
}

// Paused reports whether input is suspended.
func (t *Tool) Paused() bool {
	_, ok := t.builder.State().(contour.Paused)
	return ok
}

// SetMode selects polygon or rectangle drawing.
func (t *Tool) SetMode(m contour.Mode) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return fmt.Errorf("%w: tool not started", ErrInvalidState)
	}
	t.builder.SetMode(m)
	return nil
}

// ToggleMode switches between polygon and rectangle drawing and returns the
// newly selected mode.
func (t *Tool) ToggleMode() (contour.Mode, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.builder.SelectedMode()
	if !t.active {
		return cur, fmt.Errorf("%w: tool not started", ErrInvalidState)
	}
	next := contour.Rectangle
	if cur == contour.Rectangle {
		next = contour.Polygon
	}
	t.builder.SetMode(next)
	return next, nil
}

// HandleShortcut dispatches a keyboard shortcut. It reports whether k is a
// known shortcut.
func (t *Tool) HandleShortcut(k Key) (bool, error) {
	switch k {
	case KeySpace:
		return true, t.Pause(!t.Paused())
	case KeyI:
		_, err := t.SegmentIn()
		return true, err
	case KeyO:
		_, err := t.SegmentOut()
		return true, err
	case KeyReturn:
		t.Apply()
	case KeyDelete:
		t.ApplyAndDelete()
	case KeyEscape:
		t.Cancel()
	case KeyTab:
		_, err := t.ToggleMode()
		return true, err
	default:
		return false, nil
	}
	return true, nil
}
