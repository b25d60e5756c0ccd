package contour

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func started(mode Mode) Machine {
	return NewMachine(mode, 0).Pause(false)
}

func mustBegin(t *testing.T, m Machine, p r2.Vec, modifier bool) Machine {
	t.Helper()
	next, err := m.Begin(p, modifier)
	require.NoError(t, err)
	return next
}

func mustMove(t *testing.T, m Machine, p r2.Vec) Machine {
	t.Helper()
	next, err := m.UpdateLiveVertex(p)
	require.NoError(t, err)
	return next
}

func TestMachine_BeginIgnoredWhenIdleOrPaused(t *testing.T) {
	t.Parallel()

	idle := NewMachine(Polygon, 0)
	next := mustBegin(t, idle, r2.Vec{X: 1}, false)
	assert.Equal(t, Idle{}, next.State)
	assert.True(t, next.Contour.Empty())

	paused := idle.Pause(true)
	next = mustBegin(t, paused, r2.Vec{X: 1}, false)
	assert.Equal(t, Paused{}, next.State)
	assert.True(t, next.Contour.Empty())
}

func TestMachine_BeginPushesPointTwice(t *testing.T) {
	t.Parallel()

	p := r2.Vec{X: 3, Y: 4}
	m := mustBegin(t, started(Polygon), p, false)

	assert.Equal(t, Drawing{}, m.State)
	assert.Equal(t, Polygon, m.Contour.Mode)
	assert.Equal(t, []r2.Vec{p, p}, m.Contour.Vertices)
	assert.False(t, m.Contour.Closed)
}

func TestMachine_ModifierForcesRectangle(t *testing.T) {
	t.Parallel()

	m := started(Polygon)
	m = mustBegin(t, m, r2.Vec{X: 1, Y: 1}, false)
	m = mustBegin(t, m, r2.Vec{X: 2, Y: 1}, false)
	require.Equal(t, Polygon, m.Contour.Mode)

	m = mustBegin(t, m, r2.Vec{X: 5, Y: 5}, true)
	assert.Equal(t, Rectangle, m.Contour.Mode)
	assert.Equal(t, []r2.Vec{{X: 5, Y: 5}, {X: 5, Y: 5}}, m.Contour.Vertices)
	// The persistent selection is untouched by the modifier.
	assert.Equal(t, Polygon, m.Selected)
}

func TestMachine_RectangleInvariant(t *testing.T) {
	t.Parallel()

	a := r2.Vec{X: -4, Y: 2}
	m := mustBegin(t, started(Polygon), a, true)

	moves := []r2.Vec{{X: 10, Y: 10}, {X: -20, Y: 3}, {X: 0, Y: -7}, {X: -4, Y: 2}}
	for _, p := range moves {
		m = mustMove(t, m, p)
		require.Len(t, m.Contour.Vertices, 4)
		v := m.Contour.Vertices
		assert.Equal(t, a, v[0])
		assert.Equal(t, a.X, v[1].X)
		assert.Equal(t, p.Y, v[1].Y)
		assert.Equal(t, p, v[2])
		assert.Equal(t, p.X, v[3].X)
		assert.Equal(t, a.Y, v[3].Y)
		assert.True(t, m.Contour.Closed)
	}
}

func TestMachine_PolygonClosure(t *testing.T) {
	t.Parallel()

	m := started(Polygon)
	pts := []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	for _, p := range pts {
		m = mustBegin(t, m, p, false)
	}
	m = mustMove(t, m, r2.Vec{X: -1, Y: 5})
	m = mustMove(t, m, pts[3])
	require.Len(t, m.Contour.Vertices, 5)
	assert.Equal(t, m.Contour.Vertices[3], m.Contour.Vertices[4])

	m = m.ClosePolyLine()
	assert.Equal(t, pts, m.Contour.Vertices)
	assert.True(t, m.Contour.Closed)
	assert.Equal(t, Started{}, m.State)
	assert.True(t, m.ExportAllowed)
}

func TestMachine_UpdateLiveVertexPolygon(t *testing.T) {
	t.Parallel()

	m := mustBegin(t, started(Polygon), r2.Vec{}, false)
	before := m
	m = mustMove(t, m, r2.Vec{X: 7, Y: 8})

	assert.Equal(t, []r2.Vec{{}, {X: 7, Y: 8}}, m.Contour.Vertices)
	// Transitions never modify the receiver.
	assert.Equal(t, []r2.Vec{{}, {}}, before.Contour.Vertices)
}

func TestMachine_UpdateLiveVertexIgnoredWhenNotDrawing(t *testing.T) {
	t.Parallel()

	m := started(Polygon)
	next := mustMove(t, m, r2.Vec{X: 1})
	assert.Equal(t, m, next)
}

func TestMachine_ClosePolyLineDegenerate(t *testing.T) {
	t.Parallel()

	m := started(Polygon)
	m = mustBegin(t, m, r2.Vec{}, false)
	m = mustBegin(t, m, r2.Vec{X: 1}, false)
	require.Len(t, m.Contour.Vertices, 3)

	m = m.ClosePolyLine()
	assert.True(t, m.Contour.Empty())
	assert.False(t, m.Contour.Closed)
	assert.False(t, m.ExportAllowed)
	assert.Equal(t, Started{}, m.State)
}

func TestMachine_ClosePolyLineIgnoredForRectangle(t *testing.T) {
	t.Parallel()

	m := mustBegin(t, started(Polygon), r2.Vec{}, true)
	next := m.ClosePolyLine()
	assert.Equal(t, m, next)
}

func TestMachine_CloseRectangle(t *testing.T) {
	t.Parallel()

	t.Run("drag finalizes", func(t *testing.T) {
		t.Parallel()
		m := mustBegin(t, started(Polygon), r2.Vec{}, true)
		m = mustMove(t, m, r2.Vec{X: 5, Y: 5})
		m = m.CloseRectangle()

		assert.Equal(t, Started{}, m.State)
		assert.True(t, m.Contour.Closed)
		assert.Len(t, m.Contour.Vertices, 4)
		assert.True(t, m.ExportAllowed)
	})

	t.Run("modifier click without drag aborts", func(t *testing.T) {
		t.Parallel()
		m := mustBegin(t, started(Polygon), r2.Vec{}, true)
		m = m.CloseRectangle()

		assert.Equal(t, Started{}, m.State)
		assert.True(t, m.Contour.Empty())
		assert.False(t, m.ExportAllowed)
	})

	t.Run("rectangle mode keeps drawing after first release", func(t *testing.T) {
		t.Parallel()
		m := mustBegin(t, started(Rectangle), r2.Vec{X: 1, Y: 1}, false)
		m = m.CloseRectangle()
		assert.Equal(t, Drawing{}, m.State)
		assert.Len(t, m.Contour.Vertices, 2)

		m = mustMove(t, m, r2.Vec{X: 9, Y: 9})
		// Second click is swallowed, the release completes the rectangle.
		m = mustBegin(t, m, r2.Vec{X: 9, Y: 9}, false)
		assert.Len(t, m.Contour.Vertices, 4)
		m = m.CloseRectangle()
		assert.Equal(t, Started{}, m.State)
		assert.True(t, m.Contour.Closed)
		assert.Equal(t, r2.Vec{X: 9, Y: 9}, m.Contour.Vertices[2])
	})
}

func TestMachine_Pause(t *testing.T) {
	t.Parallel()

	m := mustBegin(t, started(Polygon), r2.Vec{}, true)
	m = mustMove(t, m, r2.Vec{X: 3, Y: 3})
	m = m.CloseRectangle()
	require.True(t, m.Contour.Closed)

	resumed := m.Pause(false)
	assert.Equal(t, Started{}, resumed.State)
	assert.Len(t, resumed.Contour.Vertices, 4, "resume keeps a finalized contour")

	paused := m.Pause(true)
	assert.Equal(t, Paused{}, paused.State)
	assert.True(t, paused.Contour.Empty())
	assert.False(t, paused.ExportAllowed)
}

func TestMachine_SetMode(t *testing.T) {
	t.Parallel()

	t.Run("same mode is a no-op", func(t *testing.T) {
		t.Parallel()
		m := mustBegin(t, started(Polygon), r2.Vec{}, false)
		assert.Equal(t, m, m.SetMode(Polygon))
	})

	t.Run("switch while drawing resets", func(t *testing.T) {
		t.Parallel()
		m := mustBegin(t, started(Polygon), r2.Vec{}, false)
		m = m.SetMode(Rectangle)
		assert.Equal(t, Rectangle, m.Selected)
		assert.Equal(t, Started{}, m.State)
		assert.True(t, m.Contour.Empty())
	})

	t.Run("switch while paused stays paused", func(t *testing.T) {
		t.Parallel()
		m := started(Polygon).Pause(true)
		m = m.SetMode(Rectangle)
		assert.Equal(t, Paused{}, m.State)
		assert.Equal(t, Rectangle, m.Selected)
	})
}

func TestMachine_OutOfMemory(t *testing.T) {
	t.Parallel()

	m := NewMachine(Polygon, 4).Pause(false)
	var err error
	for _, p := range []r2.Vec{{}, {X: 1}, {X: 1, Y: 1}} {
		m, err = m.Begin(p, false)
		require.NoError(t, err)
	}
	require.Len(t, m.Contour.Vertices, 4)

	m, err = m.Begin(r2.Vec{Y: 1}, false)
	assert.True(t, errors.Is(err, ErrOutOfMemory))
	assert.True(t, m.Contour.Empty())
	assert.False(t, m.ExportAllowed)
	assert.Equal(t, Started{}, m.State)

	// The machine stays usable for a fresh attempt.
	m, err = m.Begin(r2.Vec{X: 2}, false)
	assert.NoError(t, err)
	assert.Len(t, m.Contour.Vertices, 2)
}

func TestMachine_Import(t *testing.T) {
	t.Parallel()

	pts := []r2.Vec{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}}

	t.Run("closed", func(t *testing.T) {
		t.Parallel()
		m, err := started(Rectangle).Import(Contour{Vertices: pts, Closed: true})
		require.NoError(t, err)
		assert.Equal(t, Polygon, m.Selected)
		assert.Equal(t, Started{}, m.State)
		assert.Equal(t, pts, m.Contour.Vertices)
		assert.True(t, m.Contour.Closed)
		assert.True(t, m.ExportAllowed)
	})

	t.Run("open resumes drawing", func(t *testing.T) {
		t.Parallel()
		m, err := started(Polygon).Import(Contour{Vertices: pts})
		require.NoError(t, err)
		assert.Equal(t, Drawing{}, m.State)
		assert.Equal(t, append(append([]r2.Vec{}, pts...), pts[2]), m.Contour.Vertices)
		assert.False(t, m.Contour.Closed)

		m = mustMove(t, m, r2.Vec{X: 0, Y: 5})
		m = m.ClosePolyLine()
		assert.Equal(t, pts, m.Contour.Vertices)
		assert.True(t, m.Contour.Closed)
	})

	t.Run("too many vertices", func(t *testing.T) {
		t.Parallel()
		m := NewMachine(Polygon, 4).Pause(false)
		big := []r2.Vec{{}, {X: 1}, {X: 2}, {X: 3}, {X: 4}}
		m, err := m.Import(Contour{Vertices: big, Closed: true})
		assert.True(t, errors.Is(err, ErrOutOfMemory))
		assert.True(t, m.Contour.Empty())
	})
}

func TestMachine_Stop(t *testing.T) {
	t.Parallel()

	m := mustBegin(t, started(Polygon), r2.Vec{}, false)
	m = m.Stop()
	assert.Equal(t, Idle{}, m.State)
	assert.True(t, m.Contour.Empty())
}
