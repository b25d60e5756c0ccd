package contour

import (
	"errors"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrOutOfMemory is returned when the contour would grow past its vertex
// capacity. The contour is cleared and export disabled.
var ErrOutOfMemory = errors.New("out of memory")

// Machine is the contour builder state. Every transition is a value-receiver
// method returning the next Machine; the receiver is never modified.
type Machine struct {
	State State
	// Selected is the user-selected mode. It survives contour resets.
	Selected Mode
	Contour  Contour
	// ExportAllowed gates polyline export of the current contour.
	ExportAllowed bool
	// MaxVertices caps the contour size; zero means unlimited.
	MaxVertices int
}

// NewMachine returns an idle machine.
func NewMachine(selected Mode, maxVertices int) Machine {
	return Machine{
		State:       Idle{},
		Selected:    selected,
		MaxVertices: maxVertices,
	}
}

func (m Machine) fits(n int) bool {
	return m.MaxVertices <= 0 || n <= m.MaxVertices
}

// cleared drops the contour and disables export, keeping the state.
func (m Machine) cleared() Machine {
	m.Contour = Contour{Mode: m.Contour.Mode}
	m.ExportAllowed = false
	return m
}

// outOfMemory is the rollback applied when the vertex storage cannot grow.
func (m Machine) outOfMemory() (Machine, error) {
	m = m.cleared()
	if isDrawing(m.State) {
		m.State = Started{}
	}
	return m, ErrOutOfMemory
}

// Begin handles a left click at p. modifier reports whether the
// force-rectangle key is held.
func (m Machine) Begin(p r2.Vec, modifier bool) (Machine, error) {
	switch m.State.(type) {
	case Idle, Paused, nil:
		return m, nil
	}

	running := isDrawing(m.State)
	n := m.Contour.Len()

	// Second click of a click-click rectangle: the release that follows
	// finalizes it.
	if m.Selected == Rectangle && n == 4 && running {
		return m, nil
	}

	force := modifier || m.Selected == Rectangle
	if !running || n == 0 || force {
		if !m.fits(2) {
			return m.outOfMemory()
		}
		mode := Polygon
		if force {
			mode = Rectangle
		}
		m.State = Drawing{}
		m.ExportAllowed = false
		// The second copy is the live endpoint moved by pointer motion.
		m.Contour = Contour{Vertices: []r2.Vec{p, p}, Mode: mode}
		return m, nil
	}

	if m.Contour.Mode != Polygon {
		// A rectangle cannot be extended: restart from scratch.
		m.State = Started{}
		return m.Begin(p, modifier)
	}

	if !m.fits(n + 1) {
		return m.outOfMemory()
	}
	verts := make([]r2.Vec, n+1)
	copy(verts, m.Contour.Vertices)
	verts[n-1] = p
	verts[n] = p
	m.Contour.Vertices = verts
	return m, nil
}

// UpdateLiveVertex handles pointer motion to p. It only acts while drawing.
func (m Machine) UpdateLiveVertex(p r2.Vec) (Machine, error) {
	if !isDrawing(m.State) {
		return m, nil
	}
	n := m.Contour.Len()

	switch m.Contour.Mode {
	case Rectangle:
		if n == 0 {
			return m, nil
		}
		if !m.fits(4) {
			return m.outOfMemory()
		}
		a := m.Contour.Vertices[0]
		m.Contour.Vertices = []r2.Vec{
			a,
			{X: a.X, Y: p.Y},
			p,
			{X: p.X, Y: a.Y},
		}
		m.Contour.Closed = true
	case Polygon:
		if n < 2 {
			return m, nil
		}
		verts := slices.Clone(m.Contour.Vertices)
		verts[n-1] = p
		m.Contour.Vertices = verts
	}
	return m, nil
}

// CloseRectangle handles the button release that ends a rectangle.
func (m Machine) CloseRectangle() Machine {
	if m.Contour.Mode != Rectangle || !isDrawing(m.State) {
		return m
	}

	if m.Contour.Len() < 4 {
		// Release right after the first click of a rectangle-mode selection:
		// keep tracking the pointer until the opposite corner is clicked.
		if m.Selected == Rectangle {
			return m
		}
		m = m.cleared()
	} else {
		m.ExportAllowed = true
	}

	m.State = Started{}
	return m
}

// ClosePolyLine handles the right click that ends a polygon.
func (m Machine) ClosePolyLine() Machine {
	if m.Contour.Mode != Polygon || !isDrawing(m.State) {
		return m
	}

	n := m.Contour.Len()
	if n < 4 {
		m = m.cleared()
	} else {
		// The trailing live vertex duplicates the last fixed one.
		m.Contour.Vertices = slices.Clone(m.Contour.Vertices[:n-1])
		m.Contour.Closed = true
	}

	m.State = Started{}
	m.ExportAllowed = m.Contour.Len() > 1
	return m
}

// Pause suspends (on) or resumes input. Pausing clears any contour; resuming
// keeps a finalized contour intact.
func (m Machine) Pause(on bool) Machine {
	if on {
		m.State = Paused{}
		if !m.Contour.Empty() {
			m = m.cleared()
		}
		return m
	}
	m.State = Started{}
	return m
}

// SetMode changes the selected mode. Outside of Paused a pause/resume cycle
// resets any drawing in progress.
func (m Machine) SetMode(mode Mode) Machine {
	if m.Selected == mode {
		return m
	}
	m.Selected = mode
	if !isPaused(m.State) {
		m = m.Pause(true).Pause(false)
	}
	return m
}

// Clear drops the contour without changing state.
func (m Machine) Clear() Machine {
	return m.cleared()
}

// Stop returns the machine to Idle and drops the contour.
func (m Machine) Stop() Machine {
	m = m.cleared()
	m.State = Idle{}
	return m
}

// Import replaces the contour with c. Polygon mode is forced. A closed c
// becomes a finalized contour; an open c resumes drawing with a duplicated live
// endpoint.
func (m Machine) Import(c Contour) (Machine, error) {
	m = m.SetMode(Polygon)
	m = m.cleared()

	need := c.Len()
	if !c.Closed {
		need++
	}
	if !m.fits(need) {
		return m.outOfMemory()
	}

	verts := make([]r2.Vec, c.Len(), need)
	copy(verts, c.Vertices)
	m.Contour = Contour{Vertices: verts, Mode: Polygon}

	if c.Closed {
		m.Contour.Closed = true
		if isDrawing(m.State) {
			m.State = Started{}
		}
		m.ExportAllowed = m.Contour.Len() > 1
		return m, nil
	}

	if len(verts) > 0 {
		m.Contour.Vertices = append(m.Contour.Vertices, verts[len(verts)-1])
		m.State = Drawing{}
	}
	return m, nil
}
