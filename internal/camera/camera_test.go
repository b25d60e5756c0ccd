package camera

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestPixelOrthographic_Project(t *testing.T) {
	t.Parallel()

	cam, err := PixelOrthographic(400, 300, 10)
	require.NoError(t, err)

	tests := []struct {
		name      string
		in        r3.Vec
		want      r3.Vec
		inFrustum bool
	}{
		{"origin maps to center", r3.Vec{}, r3.Vec{X: 200, Y: 150, Z: 0.5}, true},
		{"offset point", r3.Vec{X: 100, Y: 100}, r3.Vec{X: 300, Y: 250, Z: 0.5}, true},
		{"left of viewport", r3.Vec{X: -250}, r3.Vec{X: -50, Y: 150, Z: 0.5}, false},
		{"beyond depth", r3.Vec{Z: -20}, r3.Vec{X: 200, Y: 150, Z: 1.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, inFrustum := cam.Project(tt.in)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
			assert.InDelta(t, tt.want.Z, got.Z, 1e-9)
			assert.Equal(t, tt.inFrustum, inFrustum)
		})
	}
}

func TestMatrixCamera_PerspectiveRoundTrip(t *testing.T) {
	t.Parallel()

	cam, err := New(Parameters{
		ModelView:  LookAt(r3.Vec{X: 0, Y: -20, Z: 5}, r3.Vec{}, r3.Vec{Z: 1}),
		Projection: PerspectiveProjection(60, 4.0/3.0, 0.1, 100),
		Viewport:   Viewport{Width: 800, Height: 600},
	})
	require.NoError(t, err)

	points := []r3.Vec{
		{},
		{X: 2, Y: 1, Z: 0.5},
		{X: -3, Y: 4, Z: 1},
	}
	for _, p := range points {
		q, inFrustum := cam.Project(p)
		require.True(t, inFrustum, "point %v should be visible", p)

		back, err := cam.Unproject(q)
		require.NoError(t, err)
		assert.InDelta(t, p.X, back.X, 1e-6)
		assert.InDelta(t, p.Y, back.Y, 1e-6)
		assert.InDelta(t, p.Z, back.Z, 1e-6)
	}
}

func TestMatrixCamera_BehindCamera(t *testing.T) {
	t.Parallel()

	cam, err := New(Parameters{
		ModelView:  LookAt(r3.Vec{Y: -10}, r3.Vec{}, r3.Vec{Z: 1}),
		Projection: PerspectiveProjection(45, 1, 0.1, 50),
		Viewport:   Viewport{Width: 100, Height: 100},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, inFrustum := cam.Project(r3.Vec{Y: -30}); inFrustum {
		t.Error("point behind the camera reported in frustum")
	}
}

func TestNew_InvalidViewport(t *testing.T) {
	t.Parallel()

	if _, err := New(Parameters{ModelView: Identity(), Projection: Identity()}); err == nil {
		t.Error("expected error for zero viewport")
	}
}

func TestUnproject_Singular(t *testing.T) {
	t.Parallel()

	cam, err := New(Parameters{
		ModelView:  [16]float64{}, // all zero: not invertible
		Projection: Identity(),
		Viewport:   Viewport{Width: 10, Height: 10},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := cam.Unproject(r3.Vec{X: 5, Y: 5}); !errors.Is(err, ErrSingularTransform) {
		t.Errorf("Unproject error = %v, want ErrSingularTransform", err)
	}
}

func TestViewportHalves(t *testing.T) {
	t.Parallel()

	vp := Viewport{Width: 801, Height: 600}
	assert.Equal(t, 400.5, vp.HalfWidth())
	assert.Equal(t, 300.0, vp.HalfHeight())
}
